package item

// SubmitItemRequest represents the request to list a new item
type SubmitItemRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description *string  `json:"description,omitempty"`
	Category    string   `json:"category"`
	Type        string   `json:"type"`
	Size        string   `json:"size"`
	Condition   string   `json:"condition"`
	Tags        []string `json:"tags"`
	Images      []string `json:"images"`
	PointsValue int      `json:"points_value" validate:"required"`
}

// ItemResponse represents the response for an item
type ItemResponse struct {
	ID            int64    `json:"id"`
	OwnerID       int64    `json:"owner_id"`
	OwnerUsername string   `json:"owner_username,omitempty"`
	Title         string   `json:"title"`
	Description   *string  `json:"description,omitempty"`
	Category      string   `json:"category"`
	Type          string   `json:"type"`
	Size          string   `json:"size"`
	Condition     string   `json:"condition"`
	Tags          []string `json:"tags"`
	Images        []string `json:"images"`
	PointsValue   int      `json:"points_value"`
	Status        Status   `json:"status"`
	CreatedAt     string   `json:"created_at"`
}

// ToResponse converts an Item model to an ItemResponse DTO
func (i *Item) ToResponse() *ItemResponse {
	return &ItemResponse{
		ID:            i.ID,
		OwnerID:       i.OwnerID,
		OwnerUsername: i.OwnerUsername,
		Title:         i.Title,
		Description:   i.Description,
		Category:      i.Category,
		Type:          i.Type,
		Size:          i.Size,
		Condition:     i.Condition,
		Tags:          i.Tags,
		Images:        i.Images,
		PointsValue:   i.PointsValue,
		Status:        i.Status,
		CreatedAt:     i.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

package swap

// CreateRequestRequest represents the request to open a swap negotiation
type CreateRequestRequest struct {
	ItemID int64 `json:"item_id" validate:"required"`
	Kind   Kind  `json:"kind" validate:"required"`
}

// DecideRequestRequest represents the owner's decision on a request
type DecideRequestRequest struct {
	Decision Decision `json:"decision" validate:"required"`
}

// RequestResponse represents the response for a swap request
type RequestResponse struct {
	ID              int64  `json:"id"`
	ItemID          int64  `json:"item_id"`
	ItemTitle       string `json:"item_title,omitempty"`
	RequesterID     int64  `json:"requester_id"`
	OwnerID         int64  `json:"owner_id"`
	Kind            Kind   `json:"kind"`
	PointsCommitted int    `json:"points_committed"`
	Status          Status `json:"status"`
	CreatedAt       string `json:"created_at"`
}

// ToResponse converts a Request model to a RequestResponse DTO
func (r *Request) ToResponse() *RequestResponse {
	return &RequestResponse{
		ID:              r.ID,
		ItemID:          r.ItemID,
		ItemTitle:       r.ItemTitle,
		RequesterID:     r.RequesterID,
		OwnerID:         r.OwnerID,
		Kind:            r.Kind,
		PointsCommitted: r.PointsCommitted,
		Status:          r.Status,
		CreatedAt:       r.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

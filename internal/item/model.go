package item

import "time"

// Status represents where an item sits in its publication lifecycle
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusSwapped  Status = "swapped"
)

// Decision is a moderator's verdict on a pending item
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Item represents a listed garment. The descriptive attributes are
// opaque to the exchange engine; only points_value and status carry
// rules. Items are never deleted, they remain as history.
type Item struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Category    string    `json:"category"`
	Type        string    `json:"type"`
	Size        string    `json:"size"`
	Condition   string    `json:"condition"`
	Tags        []string  `json:"tags"`
	Images      []string  `json:"images"`
	PointsValue int       `json:"points_value"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Populated via JOIN for the moderation queue
	OwnerUsername string `json:"owner_username,omitempty"`
	OwnerEmail    string `json:"owner_email,omitempty"`
}

package notification

import "time"

// Related entity kinds
const (
	EntityItem = "ITEM"
	EntitySwap = "SWAP"
)

// Notification represents a stored user-facing alert. Delivery beyond
// this table (push, email) is someone else's job.
type Notification struct {
	ID                int64     `json:"id"`
	RecipientID       int64     `json:"recipient_id"`
	Message           string    `json:"message"`
	IsRead            bool      `json:"is_read"`
	RelatedEntityType *string   `json:"related_entity_type,omitempty"`
	RelatedEntityID   *int64    `json:"related_entity_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

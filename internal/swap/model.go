package swap

import "time"

// Kind distinguishes the two exchange modes
type Kind string

const (
	KindDirectSwap       Kind = "direct_swap"
	KindPointsRedemption Kind = "points_redemption"
)

// Status represents where a request sits in its negotiation lifecycle.
// "approved" is transient: the owner agreed but settlement has not
// committed. Callers only ever observe it if settlement hit an internal
// failure mid-flight.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// Decision is the owner's verdict on a pending request
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Request is a proposal by one member to acquire another member's item.
// OwnerID and PointsCommitted are snapshots captured at creation: the
// owner reference survives later profile changes, and the committed
// points do not track any later notion of the item's value.
type Request struct {
	ID              int64     `json:"id"`
	ItemID          int64     `json:"item_id"`
	RequesterID     int64     `json:"requester_id"`
	OwnerID         int64     `json:"owner_id"`
	Kind            Kind      `json:"kind"`
	PointsCommitted int       `json:"points_committed"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Populated via JOIN
	ItemTitle string `json:"item_title,omitempty"`
}

// RejectedRequest identifies a request auto-rejected in bulk, so the
// caller can notify its requester.
type RejectedRequest struct {
	ID          int64
	RequesterID int64
}

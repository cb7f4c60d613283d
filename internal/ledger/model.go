package ledger

import "time"

// Entry reasons written alongside balance mutations
const (
	ReasonSignupGrant      = "signup_grant"
	ReasonRedemptionSpent  = "redemption_spent"
	ReasonRedemptionEarned = "redemption_earned"
	ReasonAdjustment       = "adjustment"
)

// Entry is a historical record of a single balance mutation. The amount
// is signed: negative for debits, positive for credits. The balance
// column on the member row stays authoritative.
type Entry struct {
	ID        int64     `json:"id"`
	MemberID  int64     `json:"member_id"`
	Amount    int       `json:"amount"`
	Reason    string    `json:"reason"`
	SwapID    *int64    `json:"swap_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

package member

import (
	"time"

	"github.com/fkhayef/rewear/pkg/authz"
)

// Member represents a community member profile. The balance and role
// columns are the only fields the exchange engine writes; everything
// else is profile data.
type Member struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	FullName      *string    `json:"full_name,omitempty"`
	PointsBalance int        `json:"points_balance"`
	Role          authz.Role `json:"role"`
	CreatedAt     time.Time  `json:"created_at"`
}

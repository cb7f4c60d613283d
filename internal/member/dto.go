package member

import "github.com/fkhayef/rewear/pkg/authz"

// CreateMemberRequest represents the request to register a member profile
type CreateMemberRequest struct {
	Username string  `json:"username" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	FullName *string `json:"full_name,omitempty"`
}

// MemberResponse represents the response for a member
type MemberResponse struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	FullName      *string    `json:"full_name,omitempty"`
	PointsBalance int        `json:"points_balance"`
	Role          authz.Role `json:"role"`
	CreatedAt     string     `json:"created_at"`
}

// ToResponse converts a Member model to a MemberResponse DTO
func (m *Member) ToResponse() *MemberResponse {
	return &MemberResponse{
		ID:            m.ID,
		Username:      m.Username,
		Email:         m.Email,
		FullName:      m.FullName,
		PointsBalance: m.PointsBalance,
		Role:          m.Role,
		CreatedAt:     m.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

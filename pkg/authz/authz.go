package authz

// Role is the platform-level role of a member
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Actor is the authenticated member performing an operation, as supplied
// by the identity layer. The core trusts it and never re-authenticates.
type Actor struct {
	MemberID int64
	Role     Role
}

// CanModerate is the single capability check consulted by item moderation
// and the admin surface. Keep role tests here, not scattered per handler.
func CanModerate(a Actor) bool {
	return a.Role == RoleAdmin
}

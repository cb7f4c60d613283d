package moderation

// Stats are read projections over the other components' state. They are
// plain counts taken at read time and may lag concurrent writes.
type Stats struct {
	TotalMembers   int `json:"total_members"`
	TotalItems     int `json:"total_items"`
	PendingItems   int `json:"pending_items"`
	CompletedSwaps int `json:"completed_swaps"`
}

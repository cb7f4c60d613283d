package moderation

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository serves the aggregate read projections
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new moderation repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Counts returns the admin panel aggregates
func (r *Repository) Counts(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&stats.TotalMembers); err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&stats.TotalItems); err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE status = 'pending'`).Scan(&stats.PendingItems); err != nil {
		return nil, fmt.Errorf("failed to count pending items: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM swap_requests WHERE status = 'completed'`).Scan(&stats.CompletedSwaps); err != nil {
		return nil, fmt.Errorf("failed to count completed swaps: %w", err)
	}

	return stats, nil
}

package swap

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository handles swap request persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new swap repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new pending request
func (r *Repository) Create(ctx context.Context, itemID, requesterID, ownerID int64, kind Kind, pointsCommitted int) (*Request, error) {
	query := `
		INSERT INTO swap_requests (item_id, requester_id, owner_id, kind, points_committed, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, item_id, requester_id, owner_id, kind, points_committed, status, created_at, updated_at
	`

	req := &Request{}
	err := r.db.QueryRowContext(ctx, query, itemID, requesterID, ownerID, kind, pointsCommitted, StatusPending).Scan(
		&req.ID,
		&req.ItemID,
		&req.RequesterID,
		&req.OwnerID,
		&req.Kind,
		&req.PointsCommitted,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create swap request: %w", err)
	}

	return req, nil
}

// GetByID retrieves a request by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Request, error) {
	query := `
		SELECT s.id, s.item_id, s.requester_id, s.owner_id, s.kind, s.points_committed, s.status,
		       s.created_at, s.updated_at, i.title
		FROM swap_requests s
		JOIN items i ON s.item_id = i.id
		WHERE s.id = $1
	`

	req := &Request{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&req.ID,
		&req.ItemID,
		&req.RequesterID,
		&req.OwnerID,
		&req.Kind,
		&req.PointsCommitted,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.ItemTitle,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get swap request: %w", err)
	}

	return req, nil
}

// ListByMember retrieves all requests where the member is requester or owner
func (r *Repository) ListByMember(ctx context.Context, memberID int64, limit, offset int) ([]*Request, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*) FROM swap_requests
		WHERE requester_id = $1 OR owner_id = $1
	`
	if err := r.db.QueryRowContext(ctx, countQuery, memberID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count swap requests: %w", err)
	}

	query := `
		SELECT s.id, s.item_id, s.requester_id, s.owner_id, s.kind, s.points_committed, s.status,
		       s.created_at, s.updated_at, i.title
		FROM swap_requests s
		JOIN items i ON s.item_id = i.id
		WHERE s.requester_id = $1 OR s.owner_id = $1
		ORDER BY s.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, memberID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list swap requests: %w", err)
	}
	defer rows.Close()

	var requests []*Request
	for rows.Next() {
		req := &Request{}
		if err := rows.Scan(
			&req.ID,
			&req.ItemID,
			&req.RequesterID,
			&req.OwnerID,
			&req.Kind,
			&req.PointsCommitted,
			&req.Status,
			&req.CreatedAt,
			&req.UpdatedAt,
			&req.ItemTitle,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan swap request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, total, nil
}

// UpdateStatusIf transitions a request's status only when the current
// status still matches
func (r *Repository) UpdateStatusIf(ctx context.Context, id int64, from, to Status) (bool, error) {
	query := `
		UPDATE swap_requests
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`

	res, err := r.db.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to update swap request status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected == 1, nil
}

// RejectOtherPending rejects every other pending request on an item,
// returning who lost out so they can be notified
func (r *Repository) RejectOtherPending(ctx context.Context, itemID, excludeID int64) ([]RejectedRequest, error) {
	query := `
		UPDATE swap_requests
		SET status = $3, updated_at = now()
		WHERE item_id = $1 AND id <> $2 AND status = $4
		RETURNING id, requester_id
	`

	rows, err := r.db.QueryContext(ctx, query, itemID, excludeID, StatusRejected, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to reject competing requests: %w", err)
	}
	defer rows.Close()

	return scanRejected(rows)
}

// RejectStale rejects pending requests created before the cutoff
func (r *Repository) RejectStale(ctx context.Context, cutoff time.Time) ([]RejectedRequest, error) {
	query := `
		UPDATE swap_requests
		SET status = $2, updated_at = now()
		WHERE status = $3 AND created_at < $1
		RETURNING id, requester_id
	`

	rows, err := r.db.QueryContext(ctx, query, cutoff, StatusRejected, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to reject stale requests: %w", err)
	}
	defer rows.Close()

	return scanRejected(rows)
}

func scanRejected(rows *sql.Rows) ([]RejectedRequest, error) {
	var rejected []RejectedRequest
	for rows.Next() {
		var rr RejectedRequest
		if err := rows.Scan(&rr.ID, &rr.RequesterID); err != nil {
			return nil, fmt.Errorf("failed to scan rejected request: %w", err)
		}
		rejected = append(rejected, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rejected requests: %w", err)
	}
	return rejected, nil
}

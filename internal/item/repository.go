package item

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// Repository handles item data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new item repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new item in pending status
func (r *Repository) Create(ctx context.Context, ownerID int64, req *SubmitItemRequest) (*Item, error) {
	query := `
		INSERT INTO items (owner_id, title, description, category, type, size, condition, tags, images, points_value, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, owner_id, title, description, category, type, size, condition, tags, images, points_value, status, created_at, updated_at
	`

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	images := req.Images
	if images == nil {
		images = []string{}
	}

	it := &Item{}
	err := r.db.QueryRowContext(ctx, query,
		ownerID, req.Title, req.Description, req.Category, req.Type, req.Size, req.Condition,
		pq.Array(tags), pq.Array(images), req.PointsValue, StatusPending,
	).Scan(
		&it.ID,
		&it.OwnerID,
		&it.Title,
		&it.Description,
		&it.Category,
		&it.Type,
		&it.Size,
		&it.Condition,
		pq.Array(&it.Tags),
		pq.Array(&it.Images),
		&it.PointsValue,
		&it.Status,
		&it.CreatedAt,
		&it.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return it, nil
}

// GetByID retrieves an item by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Item, error) {
	query := `
		SELECT i.id, i.owner_id, i.title, i.description, i.category, i.type, i.size, i.condition,
		       i.tags, i.images, i.points_value, i.status, i.created_at, i.updated_at,
		       m.username, m.email
		FROM items i
		JOIN members m ON i.owner_id = m.id
		WHERE i.id = $1
	`

	it := &Item{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&it.ID,
		&it.OwnerID,
		&it.Title,
		&it.Description,
		&it.Category,
		&it.Type,
		&it.Size,
		&it.Condition,
		pq.Array(&it.Tags),
		pq.Array(&it.Images),
		&it.PointsValue,
		&it.Status,
		&it.CreatedAt,
		&it.UpdatedAt,
		&it.OwnerUsername,
		&it.OwnerEmail,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return it, nil
}

// List retrieves items matching the filter with pagination
func (r *Repository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Item, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND i.status = $%d", len(args))
	}
	if filter.OwnerID != 0 {
		args = append(args, filter.OwnerID)
		where += fmt.Sprintf(" AND i.owner_id = $%d", len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM items i` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	args = append(args, limit, offset)
	query := `
		SELECT i.id, i.owner_id, i.title, i.description, i.category, i.type, i.size, i.condition,
		       i.tags, i.images, i.points_value, i.status, i.created_at, i.updated_at,
		       m.username, m.email
		FROM items i
		JOIN members m ON i.owner_id = m.id` + where + fmt.Sprintf(`
		ORDER BY i.created_at DESC
		LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		it := &Item{}
		if err := rows.Scan(
			&it.ID,
			&it.OwnerID,
			&it.Title,
			&it.Description,
			&it.Category,
			&it.Type,
			&it.Size,
			&it.Condition,
			pq.Array(&it.Tags),
			pq.Array(&it.Images),
			&it.PointsValue,
			&it.Status,
			&it.CreatedAt,
			&it.UpdatedAt,
			&it.OwnerUsername,
			&it.OwnerEmail,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}

	return items, total, nil
}

// UpdateStatusIf transitions an item's status only when the current
// status still matches. The storage layer rejects stale transitions so
// the service never needs a lock around the state machine.
func (r *Repository) UpdateStatusIf(ctx context.Context, id int64, from, to Status) (bool, error) {
	query := `
		UPDATE items
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`

	res, err := r.db.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to update item status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected == 1, nil
}

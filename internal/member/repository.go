package member

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fkhayef/rewear/pkg/authz"
)

// Repository handles member data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new member repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new member with a zero balance; the signup grant
// arrives through the ledger so it leaves an entry behind
func (r *Repository) Create(ctx context.Context, req *CreateMemberRequest) (*Member, error) {
	query := `
		INSERT INTO members (username, email, full_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, email, full_name, points_balance, role, created_at
	`

	m := &Member{}
	err := r.db.QueryRowContext(ctx, query, req.Username, req.Email, req.FullName, authz.RoleMember).Scan(
		&m.ID,
		&m.Username,
		&m.Email,
		&m.FullName,
		&m.PointsBalance,
		&m.Role,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	return m, nil
}

// GetByID retrieves a member by their ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Member, error) {
	query := `
		SELECT id, username, email, full_name, points_balance, role, created_at
		FROM members
		WHERE id = $1
	`

	m := &Member{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID,
		&m.Username,
		&m.Email,
		&m.FullName,
		&m.PointsBalance,
		&m.Role,
		&m.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return m, nil
}

// GetByEmail retrieves a member by their email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Member, error) {
	query := `
		SELECT id, username, email, full_name, points_balance, role, created_at
		FROM members
		WHERE email = $1
	`

	m := &Member{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&m.ID,
		&m.Username,
		&m.Email,
		&m.FullName,
		&m.PointsBalance,
		&m.Role,
		&m.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member by email: %w", err)
	}

	return m, nil
}

// List retrieves all members with pagination
func (r *Repository) List(ctx context.Context, limit, offset int) ([]*Member, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM members`
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count members: %w", err)
	}

	query := `
		SELECT id, username, email, full_name, points_balance, role, created_at
		FROM members
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		m := &Member{}
		if err := rows.Scan(
			&m.ID,
			&m.Username,
			&m.Email,
			&m.FullName,
			&m.PointsBalance,
			&m.Role,
			&m.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}

	return members, total, nil
}

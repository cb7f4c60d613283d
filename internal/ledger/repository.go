package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// Repository handles balance persistence on top of the members table.
// Postgres row locks give the per-account serialization the Store
// contract requires.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new ledger repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Credit increases a member's balance and records an entry
func (r *Repository) Credit(ctx context.Context, memberID int64, amount int, reason string, swapID *int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin credit: %w", err)
	}
	defer tx.Rollback()

	if err := creditTx(ctx, tx, memberID, amount, reason, swapID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit credit: %w", err)
	}
	return nil
}

// Debit decreases a member's balance and records an entry. The guarded
// update refuses to take the balance below zero.
func (r *Repository) Debit(ctx context.Context, memberID int64, amount int, reason string, swapID *int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin debit: %w", err)
	}
	defer tx.Rollback()

	if err := debitTx(ctx, tx, memberID, amount, reason, swapID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit debit: %w", err)
	}
	return nil
}

// Transfer debits one member and credits another in a single transaction
func (r *Repository) Transfer(ctx context.Context, fromID, toID int64, amount int, swapID *int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transfer: %w", err)
	}
	defer tx.Rollback()

	// Lock both account rows in id order so two opposing transfers
	// cannot deadlock.
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM members WHERE id = ANY($1) ORDER BY id FOR UPDATE`, pq.Array([]int64{fromID, toID}))
	if err != nil {
		return fmt.Errorf("failed to lock accounts: %w", err)
	}
	locked := 0
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan locked account: %w", err)
		}
		locked++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to lock accounts: %w", err)
	}
	if locked != 2 {
		return ErrUnknownMember
	}

	if err := debitTx(ctx, tx, fromID, amount, ReasonRedemptionSpent, swapID); err != nil {
		return err
	}
	if err := creditTx(ctx, tx, toID, amount, ReasonRedemptionEarned, swapID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transfer: %w", err)
	}
	return nil
}

// Balance returns a member's current balance
func (r *Repository) Balance(ctx context.Context, memberID int64) (int, error) {
	var balance int
	query := `SELECT points_balance FROM members WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, memberID).Scan(&balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrUnknownMember
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// Entries lists a member's ledger history
func (r *Repository) Entries(ctx context.Context, memberID int64, limit, offset int) ([]*Entry, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM ledger_entries WHERE member_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, memberID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	query := `
		SELECT id, member_id, amount, reason, swap_id, created_at
		FROM ledger_entries
		WHERE member_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, memberID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(
			&e.ID,
			&e.MemberID,
			&e.Amount,
			&e.Reason,
			&e.SwapID,
			&e.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, total, nil
}

func debitTx(ctx context.Context, tx *sql.Tx, memberID int64, amount int, reason string, swapID *int64) error {
	// Locks the account row; concurrent debits queue behind this one
	// instead of racing a stale balance.
	var balance int
	err := tx.QueryRowContext(ctx,
		`SELECT points_balance FROM members WHERE id = $1 FOR UPDATE`, memberID).Scan(&balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrUnknownMember
		}
		return fmt.Errorf("failed to lock account: %w", err)
	}

	if balance < amount {
		return ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE members SET points_balance = points_balance - $2 WHERE id = $1`, memberID, amount); err != nil {
		return fmt.Errorf("failed to debit account: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (member_id, amount, reason, swap_id) VALUES ($1, $2, $3, $4)`,
		memberID, -amount, reason, swapID); err != nil {
		return fmt.Errorf("failed to record debit: %w", err)
	}

	return nil
}

func creditTx(ctx context.Context, tx *sql.Tx, memberID int64, amount int, reason string, swapID *int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE members SET points_balance = points_balance + $2 WHERE id = $1`, memberID, amount)
	if err != nil {
		return fmt.Errorf("failed to credit account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrUnknownMember
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (member_id, amount, reason, swap_id) VALUES ($1, $2, $3, $4)`,
		memberID, amount, reason, swapID); err != nil {
		return fmt.Errorf("failed to record credit: %w", err)
	}

	return nil
}

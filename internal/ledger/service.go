package ledger

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrInsufficientFunds = errors.New("insufficient points balance")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrUnknownMember     = errors.New("unknown ledger account")
)

// Store is the persistence boundary for balances. Implementations must
// serialize mutations per member account (row locks, or per-key mutexes
// in memory) so a debit never observes a stale balance.
type Store interface {
	Credit(ctx context.Context, memberID int64, amount int, reason string, swapID *int64) error
	Debit(ctx context.Context, memberID int64, amount int, reason string, swapID *int64) error
	Transfer(ctx context.Context, fromID, toID int64, amount int, swapID *int64) error
	Balance(ctx context.Context, memberID int64) (int, error)
	Entries(ctx context.Context, memberID int64, limit, offset int) ([]*Entry, int, error)
}

// Service is the authoritative interface to member point balances.
// Operations are not idempotent; callers own at-most-once invocation per
// logical event.
type Service struct {
	repo Store
}

// NewService creates a new ledger service
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// Credit increases a member's balance
func (s *Service) Credit(ctx context.Context, memberID int64, amount int, reason string, swapID *int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.repo.Credit(ctx, memberID, amount, reason, swapID)
}

// Debit decreases a member's balance. Fails with ErrInsufficientFunds
// when the balance cannot cover the amount; the balance never goes
// negative.
func (s *Service) Debit(ctx context.Context, memberID int64, amount int, reason string, swapID *int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.repo.Debit(ctx, memberID, amount, reason, swapID)
}

// Transfer moves points between two members as one atomic unit. If the
// debit side fails nothing is credited and no partial state is visible
// to concurrent operations.
func (s *Service) Transfer(ctx context.Context, fromID, toID int64, amount int, swapID *int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.repo.Transfer(ctx, fromID, toID, amount, swapID)
}

// Balance returns a member's current balance. Reads are snapshots and do
// not participate in mutation serialization.
func (s *Service) Balance(ctx context.Context, memberID int64) (int, error) {
	return s.repo.Balance(ctx, memberID)
}

// Entries lists a member's ledger history with pagination
func (s *Service) Entries(ctx context.Context, memberID int64, page, perPage int) ([]*Entry, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.Entries(ctx, memberID, perPage, offset)
}

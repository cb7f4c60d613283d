package member

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fkhayef/rewear/internal/ledger"
)

// Common errors
var (
	ErrMemberNotFound    = errors.New("member not found")
	ErrEmailAlreadyInUse = errors.New("email already in use")
	ErrValidation        = errors.New("validation failed")
)

// Store is the persistence boundary for member profiles
type Store interface {
	Create(ctx context.Context, req *CreateMemberRequest) (*Member, error)
	GetByID(ctx context.Context, id int64) (*Member, error)
	GetByEmail(ctx context.Context, email string) (*Member, error)
	List(ctx context.Context, limit, offset int) ([]*Member, int, error)
}

// Ledger credits the signup grant. Going through the ledger keeps the
// entries history reconciled with the balance from the first point on.
type Ledger interface {
	Credit(ctx context.Context, memberID int64, amount int, reason string, swapID *int64) error
}

// Service handles member business logic
type Service struct {
	repo        Store
	ledger      Ledger
	signupGrant int
}

// NewService creates a new member service. New members start with the
// configured signup grant so they can redeem before their first listing
// earns anything.
func NewService(repo Store, ledgerSvc Ledger, signupGrant int) *Service {
	return &Service{repo: repo, ledger: ledgerSvc, signupGrant: signupGrant}
}

// Create registers a new member profile and credits the signup grant
func (s *Service) Create(ctx context.Context, req *CreateMemberRequest) (*Member, error) {
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" {
		return nil, ErrValidation
	}

	existing, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyInUse
	}

	m, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.signupGrant > 0 {
		if err := s.ledger.Credit(ctx, m.ID, s.signupGrant, ledger.ReasonSignupGrant, nil); err != nil {
			return nil, fmt.Errorf("failed to credit signup grant: %w", err)
		}
		m.PointsBalance = s.signupGrant
	}

	return m, nil
}

// GetByID retrieves a member by their ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Member, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMemberNotFound
	}
	return m, nil
}

// List retrieves all members with pagination
func (s *Service) List(ctx context.Context, page, perPage int) ([]*Member, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.List(ctx, perPage, offset)
}

package item

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fkhayef/rewear/pkg/authz"
)

// Common errors
var (
	ErrItemNotFound      = errors.New("item not found")
	ErrInvalidTransition = errors.New("invalid item status transition")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidDecision   = errors.New("decision must be approve or reject")
)

// ListFilter narrows item listings
type ListFilter struct {
	Status  Status
	OwnerID int64 // zero means any owner
}

// Store is the persistence boundary for items. UpdateStatusIf must be a
// compare-and-set: the transition applies only when the current status
// still matches, and the caller learns whether it won.
type Store interface {
	Create(ctx context.Context, ownerID int64, req *SubmitItemRequest) (*Item, error)
	GetByID(ctx context.Context, id int64) (*Item, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Item, int, error)
	UpdateStatusIf(ctx context.Context, id int64, from, to Status) (bool, error)
}

// Service governs the item publication lifecycle:
// pending -> approved | rejected (moderation), approved -> swapped
// (settlement). No other edges exist.
type Service struct {
	repo      Store
	minPoints int
	maxPoints int
}

// NewService creates a new item service with the configured listing bounds
func NewService(repo Store, minPoints, maxPoints int) *Service {
	return &Service{repo: repo, minPoints: minPoints, maxPoints: maxPoints}
}

// Submit lists a new item in pending status. Listing earns no points;
// any reward policy lives outside the exchange engine.
func (s *Service) Submit(ctx context.Context, actor authz.Actor, req *SubmitItemRequest) (*Item, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if req.PointsValue < s.minPoints || req.PointsValue > s.maxPoints {
		return nil, fmt.Errorf("%w: points value must be between %d and %d", ErrValidation, s.minPoints, s.maxPoints)
	}

	return s.repo.Create(ctx, actor.MemberID, req)
}

// GetByID retrieves an item by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Item, error) {
	it, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, ErrItemNotFound
	}
	return it, nil
}

// List retrieves items with filters and pagination
func (s *Service) List(ctx context.Context, filter ListFilter, page, perPage int) ([]*Item, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.List(ctx, filter, perPage, offset)
}

// Moderate applies an admin decision to a pending item
func (s *Service) Moderate(ctx context.Context, actor authz.Actor, itemID int64, decision Decision) (*Item, error) {
	if !authz.CanModerate(actor) {
		return nil, ErrNotAuthorized
	}

	var to Status
	switch decision {
	case DecisionApprove:
		to = StatusApproved
	case DecisionReject:
		to = StatusRejected
	default:
		return nil, ErrInvalidDecision
	}

	it, err := s.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.UpdateStatusIf(ctx, itemID, StatusPending, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	it.Status = to
	return it, nil
}

// MarkSwapped advances an approved item to swapped. This conditional
// transition is the serialization point for concurrent settlements: of
// two racing callers exactly one succeeds, the other gets
// ErrInvalidTransition.
func (s *Service) MarkSwapped(ctx context.Context, itemID int64) error {
	ok, err := s.repo.UpdateStatusIf(ctx, itemID, StatusApproved, StatusSwapped)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}
	return nil
}

// ReleaseSwapped reverts swapped back to approved. Only settlement
// compensation may call it, after winning MarkSwapped and then failing
// the ledger step; the item was unreachable to other settlements in
// between, so the revert cannot clobber anyone.
func (s *Service) ReleaseSwapped(ctx context.Context, itemID int64) error {
	ok, err := s.repo.UpdateStatusIf(ctx, itemID, StatusSwapped, StatusApproved)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}
	return nil
}

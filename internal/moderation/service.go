package moderation

import (
	"context"
	"errors"

	"github.com/fkhayef/rewear/internal/item"
	"github.com/fkhayef/rewear/internal/member"
	"github.com/fkhayef/rewear/pkg/authz"
)

// ErrNotAuthorized is returned when a non-admin calls an admin operation
var ErrNotAuthorized = errors.New("admin role required")

// StatsStore is the read-side persistence boundary for aggregates
type StatsStore interface {
	Counts(ctx context.Context) (*Stats, error)
}

// Notifier alerts item owners about moderation outcomes. Nil disables
// alerts.
type Notifier interface {
	ItemReviewed(ctx context.Context, ownerID int64, itemTitle string, itemID int64, approved bool)
}

// Service is the authority boundary in front of item moderation plus the
// admin read surface. It holds no state of its own.
type Service struct {
	stats    StatsStore
	items    *item.Service
	members  *member.Service
	notifier Notifier
}

// NewService creates a new moderation service
func NewService(stats StatsStore, items *item.Service, members *member.Service, notifier Notifier) *Service {
	return &Service{stats: stats, items: items, members: members, notifier: notifier}
}

// Review applies an admin decision to a pending item and informs the owner
func (s *Service) Review(ctx context.Context, actor authz.Actor, itemID int64, decision item.Decision) (*item.Item, error) {
	// item.Moderate re-checks the capability; checking here too keeps
	// every admin entry point behind the same gate.
	if !authz.CanModerate(actor) {
		return nil, ErrNotAuthorized
	}

	it, err := s.items.Moderate(ctx, actor, itemID, decision)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.ItemReviewed(ctx, it.OwnerID, it.Title, it.ID, it.Status == item.StatusApproved)
	}

	return it, nil
}

// PendingItems lists the moderation queue
func (s *Service) PendingItems(ctx context.Context, actor authz.Actor, page, perPage int) ([]*item.Item, int, error) {
	if !authz.CanModerate(actor) {
		return nil, 0, ErrNotAuthorized
	}
	return s.items.List(ctx, item.ListFilter{Status: item.StatusPending}, page, perPage)
}

// Members lists recent member profiles for the admin panel
func (s *Service) Members(ctx context.Context, actor authz.Actor, page, perPage int) ([]*member.Member, int, error) {
	if !authz.CanModerate(actor) {
		return nil, 0, ErrNotAuthorized
	}
	return s.members.List(ctx, page, perPage)
}

// GetStats returns the platform aggregates
func (s *Service) GetStats(ctx context.Context, actor authz.Actor) (*Stats, error) {
	if !authz.CanModerate(actor) {
		return nil, ErrNotAuthorized
	}
	return s.stats.Counts(ctx)
}

package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Common errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotRecipient         = errors.New("not the recipient of this notification")
)

// Store is the persistence boundary for notifications
type Store interface {
	Create(ctx context.Context, recipientID int64, message string, entityType *string, entityID *int64) (*Notification, error)
	GetByID(ctx context.Context, id int64) (*Notification, error)
	ListByRecipientID(ctx context.Context, recipientID int64, limit, offset int, unreadOnly bool) ([]*Notification, int, error)
	MarkAsRead(ctx context.Context, id int64) error
	MarkAllAsRead(ctx context.Context, recipientID int64) error
	GetUnreadCount(ctx context.Context, recipientID int64) (int, error)
}

// Service handles notification business logic
type Service struct {
	repo Store
}

// NewService creates a new notification service
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// ListByRecipientID retrieves notifications for a member
func (s *Service) ListByRecipientID(ctx context.Context, recipientID int64, page, perPage int, unreadOnly bool) ([]*Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByRecipientID(ctx, recipientID, perPage, offset, unreadOnly)
}

// MarkAsRead marks a notification as read
func (s *Service) MarkAsRead(ctx context.Context, id, memberID int64) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return ErrNotificationNotFound
	}
	if n.RecipientID != memberID {
		return ErrNotRecipient
	}

	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all notifications as read for a member
func (s *Service) MarkAllAsRead(ctx context.Context, memberID int64) error {
	return s.repo.MarkAllAsRead(ctx, memberID)
}

// GetUnreadCount returns the count of unread notifications
func (s *Service) GetUnreadCount(ctx context.Context, memberID int64) (int, error) {
	return s.repo.GetUnreadCount(ctx, memberID)
}

// The methods below implement the fire-and-forget notifier boundaries
// of the swap and moderation services. Failures are logged and dropped:
// a lost alert must never fail an exchange.

func (s *Service) emit(ctx context.Context, recipientID int64, message, entityType string, entityID int64) {
	if _, err := s.repo.Create(ctx, recipientID, message, &entityType, &entityID); err != nil {
		log.Printf("notification: failed to notify member %d: %v", recipientID, err)
	}
}

// ItemReviewed alerts an owner about a moderation outcome
func (s *Service) ItemReviewed(ctx context.Context, ownerID int64, itemTitle string, itemID int64, approved bool) {
	verdict := "approved and is now listed"
	if !approved {
		verdict = "rejected by moderation"
	}
	s.emit(ctx, ownerID, fmt.Sprintf("Your item %q was %s", itemTitle, verdict), EntityItem, itemID)
}

// RequestReceived alerts an owner about a new swap request
func (s *Service) RequestReceived(ctx context.Context, ownerID int64, itemTitle string, requestID int64) {
	s.emit(ctx, ownerID, fmt.Sprintf("Someone wants your item %q", itemTitle), EntitySwap, requestID)
}

// RequestCompleted alerts a requester that their swap settled
func (s *Service) RequestCompleted(ctx context.Context, requesterID int64, itemTitle string, requestID int64) {
	s.emit(ctx, requesterID, fmt.Sprintf("Your request for %q is complete, the item is yours", itemTitle), EntitySwap, requestID)
}

// RequestRejected alerts a requester that their request was turned down
func (s *Service) RequestRejected(ctx context.Context, requesterID int64, itemTitle string, requestID int64) {
	s.emit(ctx, requesterID, fmt.Sprintf("Your request for %q was declined", itemTitle), EntitySwap, requestID)
}

// RequestLapsed alerts both sides that an accepted redemption could no
// longer be funded
func (s *Service) RequestLapsed(ctx context.Context, ownerID, requesterID int64, itemTitle string, requestID int64) {
	s.emit(ctx, ownerID, fmt.Sprintf("The request you accepted for %q lapsed, the requester could not cover the points", itemTitle), EntitySwap, requestID)
	s.emit(ctx, requesterID, fmt.Sprintf("Your request for %q lapsed, your balance no longer covers it", itemTitle), EntitySwap, requestID)
}

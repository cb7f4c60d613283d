package swap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fkhayef/rewear/internal/item"
	"github.com/fkhayef/rewear/internal/ledger"
	"github.com/fkhayef/rewear/pkg/authz"
)

// Common errors
var (
	ErrRequestNotFound   = errors.New("swap request not found")
	ErrItemNotAvailable  = errors.New("item is not available for swapping")
	ErrSelfSwapForbidden = errors.New("cannot request a swap on your own item")
	ErrNotAuthorized     = errors.New("only the item owner can decide this request")
	ErrInvalidTransition = errors.New("request is not pending")
	ErrInvalidKind       = errors.New("kind must be direct_swap or points_redemption")
	ErrInvalidDecision   = errors.New("decision must be approve or reject")
)

// Store is the persistence boundary for swap requests. UpdateStatusIf
// is compare-and-set, like the item store's; every transition in this
// package goes through it so no decision can apply twice.
type Store interface {
	Create(ctx context.Context, itemID, requesterID, ownerID int64, kind Kind, pointsCommitted int) (*Request, error)
	GetByID(ctx context.Context, id int64) (*Request, error)
	ListByMember(ctx context.Context, memberID int64, limit, offset int) ([]*Request, int, error)
	UpdateStatusIf(ctx context.Context, id int64, from, to Status) (bool, error)
	RejectOtherPending(ctx context.Context, itemID, excludeID int64) ([]RejectedRequest, error)
	RejectStale(ctx context.Context, cutoff time.Time) ([]RejectedRequest, error)
}

// Notifier receives fire-and-forget transition alerts. Failures are
// logged, never propagated; a nil Notifier disables alerts entirely.
type Notifier interface {
	RequestReceived(ctx context.Context, ownerID int64, itemTitle string, requestID int64)
	RequestCompleted(ctx context.Context, requesterID int64, itemTitle string, requestID int64)
	RequestRejected(ctx context.Context, requesterID int64, itemTitle string, requestID int64)
	RequestLapsed(ctx context.Context, ownerID, requesterID int64, itemTitle string, requestID int64)
}

// Service mediates swap negotiations between a requester and an item
// owner, settling approved requests against the ledger and the item
// lifecycle.
type Service struct {
	repo     Store
	items    *item.Service
	ledger   *ledger.Service
	notifier Notifier
}

// NewService creates a new swap service
func NewService(repo Store, items *item.Service, ledgerSvc *ledger.Service, notifier Notifier) *Service {
	return &Service{repo: repo, items: items, ledger: ledgerSvc, notifier: notifier}
}

// CreateRequest opens a negotiation against an approved item. Several
// members may hold pending requests on the same item at once; the owner
// picks. For redemptions the balance check here is only a courtesy
// pre-check, settlement re-validates it.
func (s *Service) CreateRequest(ctx context.Context, actor authz.Actor, req *CreateRequestRequest) (*Request, error) {
	if req.Kind != KindDirectSwap && req.Kind != KindPointsRedemption {
		return nil, ErrInvalidKind
	}

	it, err := s.items.GetByID(ctx, req.ItemID)
	if err != nil {
		if errors.Is(err, item.ErrItemNotFound) {
			return nil, ErrItemNotAvailable
		}
		return nil, err
	}
	if it.Status != item.StatusApproved {
		return nil, ErrItemNotAvailable
	}
	if it.OwnerID == actor.MemberID {
		return nil, ErrSelfSwapForbidden
	}

	pointsCommitted := 0
	if req.Kind == KindPointsRedemption {
		balance, err := s.ledger.Balance(ctx, actor.MemberID)
		if err != nil {
			return nil, err
		}
		if balance < it.PointsValue {
			return nil, ledger.ErrInsufficientFunds
		}
		pointsCommitted = it.PointsValue
	}

	created, err := s.repo.Create(ctx, it.ID, actor.MemberID, it.OwnerID, req.Kind, pointsCommitted)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.RequestReceived(ctx, it.OwnerID, it.Title, created.ID)
	}

	created.ItemTitle = it.Title
	return created, nil
}

// GetByID retrieves a request, visible only to its participants and admins
func (s *Service) GetByID(ctx context.Context, actor authz.Actor, id int64) (*Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if req.RequesterID != actor.MemberID && req.OwnerID != actor.MemberID && !authz.CanModerate(actor) {
		return nil, ErrNotAuthorized
	}
	return req, nil
}

// ListByMember retrieves requests where the member is requester or owner
func (s *Service) ListByMember(ctx context.Context, memberID int64, page, perPage int) ([]*Request, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByMember(ctx, memberID, perPage, offset)
}

// Decide resolves a pending request. Rejection is terminal with no side
// effects. Approval settles in the same call so an approved-but-
// unsettled request is never visible to other operations:
//
//  1. the request moves pending -> approved (conditional, so a second
//     concurrent decision loses here),
//  2. the item moves approved -> swapped; this compare-and-set is the
//     serialization point, the loser of a race over the same item gets
//     ErrItemNotAvailable and its request is force-rejected,
//  3. redemptions transfer the committed points; if the requester's
//     balance no longer covers them the item reverts, the request is
//     rejected and the owner learns the request lapsed,
//  4. the request completes and all other pending requests on the item
//     auto-reject.
func (s *Service) Decide(ctx context.Context, actor authz.Actor, requestID int64, decision Decision) (*Request, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, ErrInvalidDecision
	}

	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if req.OwnerID != actor.MemberID {
		return nil, ErrNotAuthorized
	}
	if req.Status != StatusPending {
		return nil, ErrInvalidTransition
	}

	if decision == DecisionReject {
		ok, err := s.repo.UpdateStatusIf(ctx, req.ID, StatusPending, StatusRejected)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInvalidTransition
		}
		req.Status = StatusRejected
		if s.notifier != nil {
			s.notifier.RequestRejected(ctx, req.RequesterID, req.ItemTitle, req.ID)
		}
		return req, nil
	}

	return s.settle(ctx, req)
}

func (s *Service) settle(ctx context.Context, req *Request) (*Request, error) {
	ok, err := s.repo.UpdateStatusIf(ctx, req.ID, StatusPending, StatusApproved)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	// Serialization point: only one settlement per item can win this.
	if err := s.items.MarkSwapped(ctx, req.ItemID); err != nil {
		if errors.Is(err, item.ErrInvalidTransition) {
			s.forceReject(ctx, req)
			return nil, ErrItemNotAvailable
		}
		return nil, err
	}

	if req.Kind == KindPointsRedemption {
		err := s.ledger.Transfer(ctx, req.RequesterID, req.OwnerID, req.PointsCommitted, &req.ID)
		if err != nil {
			if revertErr := s.items.ReleaseSwapped(ctx, req.ItemID); revertErr != nil {
				log.Printf("swap %d: failed to release item %d after settlement failure: %v", req.ID, req.ItemID, revertErr)
			}
			if errors.Is(err, ledger.ErrInsufficientFunds) {
				// The balance drifted since the request was created;
				// the request lapses rather than hanging around.
				s.forceReject(ctx, req)
				if s.notifier != nil {
					s.notifier.RequestLapsed(ctx, req.OwnerID, req.RequesterID, req.ItemTitle, req.ID)
				}
				return nil, err
			}
			// Request stays approved, no ledger mutation retained.
			return nil, fmt.Errorf("settlement failed: %w", err)
		}
	}

	completed, err := s.repo.UpdateStatusIf(ctx, req.ID, StatusApproved, StatusCompleted)
	if err != nil {
		return nil, err
	}
	if completed {
		req.Status = StatusCompleted
	} else {
		// Something moved the request out of approved behind our back;
		// report the row as found rather than claiming completion.
		log.Printf("swap %d: request left approved state before completion", req.ID)
	}

	rejected, err := s.repo.RejectOtherPending(ctx, req.ItemID, req.ID)
	if err != nil {
		log.Printf("swap %d: failed to auto-reject competing requests: %v", req.ID, err)
	} else if s.notifier != nil {
		for _, rr := range rejected {
			s.notifier.RequestRejected(ctx, rr.RequesterID, req.ItemTitle, rr.ID)
		}
	}

	if completed && s.notifier != nil {
		s.notifier.RequestCompleted(ctx, req.RequesterID, req.ItemTitle, req.ID)
	}

	return req, nil
}

// forceReject moves a request out of the transient approved state after
// a failed settlement. Best effort: the request was already doomed.
func (s *Service) forceReject(ctx context.Context, req *Request) {
	if _, err := s.repo.UpdateStatusIf(ctx, req.ID, StatusApproved, StatusRejected); err != nil {
		log.Printf("swap %d: failed to reject after lost settlement: %v", req.ID, err)
		return
	}
	req.Status = StatusRejected
}

// ExpireStale rejects pending requests older than the given age. The
// sweeper layers expiry on top of the engine; the conditional update
// means a sweep can never race a settlement already in flight.
func (s *Service) ExpireStale(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	rejected, err := s.repo.RejectStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	return len(rejected), nil
}

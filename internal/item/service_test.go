package item

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fkhayef/rewear/pkg/authz"
)

// memStore is an in-memory Store with a compare-and-set UpdateStatusIf,
// matching the conditional UPDATE of the SQL store.
type memStore struct {
	mu     sync.Mutex
	items  map[int64]*Item
	nextID int64
}

func newMemStore() *memStore {
	return &memStore{items: make(map[int64]*Item)}
}

func (m *memStore) Create(_ context.Context, ownerID int64, req *SubmitItemRequest) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	it := &Item{
		ID:          m.nextID,
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Type:        req.Type,
		Size:        req.Size,
		Condition:   req.Condition,
		Tags:        req.Tags,
		Images:      req.Images,
		PointsValue: req.PointsValue,
		Status:      StatusPending,
	}
	m.items[it.ID] = it
	return it, nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	copied := *it
	return &copied, nil
}

func (m *memStore) List(_ context.Context, filter ListFilter, limit, offset int) ([]*Item, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*Item
	for id := int64(1); id <= m.nextID; id++ {
		it, ok := m.items[id]
		if !ok {
			continue
		}
		if filter.Status != "" && it.Status != filter.Status {
			continue
		}
		if filter.OwnerID != 0 && it.OwnerID != filter.OwnerID {
			continue
		}
		copied := *it
		matched = append(matched, &copied)
	}
	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *memStore) UpdateStatusIf(_ context.Context, id int64, from, to Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok || it.Status != from {
		return false, nil
	}
	it.Status = to
	return true, nil
}

func submitApproved(t *testing.T, svc *Service, ownerID int64, points int) *Item {
	t.Helper()
	ctx := context.Background()
	it, err := svc.Submit(ctx, authz.Actor{MemberID: ownerID, Role: authz.RoleMember}, &SubmitItemRequest{
		Title:       "Denim jacket",
		PointsValue: points,
	})
	require.NoError(t, err)
	_, err = svc.Moderate(ctx, authz.Actor{MemberID: 999, Role: authz.RoleAdmin}, it.ID, DecisionApprove)
	require.NoError(t, err)
	it.Status = StatusApproved
	return it
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), 10, 200)
	actor := authz.Actor{MemberID: 1, Role: authz.RoleMember}

	_, err := svc.Submit(ctx, actor, &SubmitItemRequest{Title: "  ", PointsValue: 50})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Submit(ctx, actor, &SubmitItemRequest{Title: "Coat", PointsValue: 9})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Submit(ctx, actor, &SubmitItemRequest{Title: "Coat", PointsValue: 201})
	require.ErrorIs(t, err, ErrValidation)

	it, err := svc.Submit(ctx, actor, &SubmitItemRequest{Title: "Coat", PointsValue: 10})
	require.NoError(t, err)
	require.Equal(t, StatusPending, it.Status)
	require.Equal(t, int64(1), it.OwnerID)
}

func TestModerateRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), 10, 200)
	owner := authz.Actor{MemberID: 1, Role: authz.RoleMember}

	it, err := svc.Submit(ctx, owner, &SubmitItemRequest{Title: "Coat", PointsValue: 50})
	require.NoError(t, err)

	// Even the owner cannot moderate their own listing
	_, err = svc.Moderate(ctx, owner, it.ID, DecisionApprove)
	require.ErrorIs(t, err, ErrNotAuthorized)

	got, err := svc.GetByID(ctx, it.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, got.Status)
}

func TestModerateTransitions(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), 10, 200)
	owner := authz.Actor{MemberID: 1, Role: authz.RoleMember}
	admin := authz.Actor{MemberID: 2, Role: authz.RoleAdmin}

	it, err := svc.Submit(ctx, owner, &SubmitItemRequest{Title: "Coat", PointsValue: 50})
	require.NoError(t, err)

	approved, err := svc.Moderate(ctx, admin, it.ID, DecisionApprove)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)

	// A second verdict finds no pending item to decide
	_, err = svc.Moderate(ctx, admin, it.ID, DecisionReject)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Moderate(ctx, admin, 404, DecisionApprove)
	require.ErrorIs(t, err, ErrItemNotFound)

	_, err = svc.Moderate(ctx, admin, it.ID, Decision("maybe"))
	require.ErrorIs(t, err, ErrInvalidDecision)
}

func TestMarkSwappedWinsOnce(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), 10, 200)
	it := submitApproved(t, svc, 1, 50)

	require.NoError(t, svc.MarkSwapped(ctx, it.ID))
	require.ErrorIs(t, svc.MarkSwapped(ctx, it.ID), ErrInvalidTransition)

	got, err := svc.GetByID(ctx, it.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSwapped, got.Status)
}

func TestMarkSwappedConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), 10, 200)
	it := submitApproved(t, svc, 1, 50)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.MarkSwapped(ctx, it.ID)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.ErrorIs(t, err, ErrInvalidTransition)
		}
	}
	require.Equal(t, 1, winners)
}

func TestReleaseSwappedRevertsToApproved(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), 10, 200)
	it := submitApproved(t, svc, 1, 50)

	require.NoError(t, svc.MarkSwapped(ctx, it.ID))
	require.NoError(t, svc.ReleaseSwapped(ctx, it.ID))

	got, err := svc.GetByID(ctx, it.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, got.Status)

	// The item is claimable again
	require.NoError(t, svc.MarkSwapped(ctx, it.ID))
}

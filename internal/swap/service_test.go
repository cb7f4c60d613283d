package swap

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fkhayef/rewear/internal/item"
	"github.com/fkhayef/rewear/internal/ledger"
	"github.com/fkhayef/rewear/pkg/authz"
)

// ---- in-memory stores, mirroring the compare-and-set semantics of the
// ---- SQL repositories

type memItemStore struct {
	mu     sync.Mutex
	items  map[int64]*item.Item
	nextID int64
}

func newMemItemStore() *memItemStore {
	return &memItemStore{items: make(map[int64]*item.Item)}
}

func (m *memItemStore) Create(_ context.Context, ownerID int64, req *item.SubmitItemRequest) (*item.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	it := &item.Item{
		ID:          m.nextID,
		OwnerID:     ownerID,
		Title:       req.Title,
		PointsValue: req.PointsValue,
		Status:      item.StatusPending,
	}
	m.items[it.ID] = it
	return it, nil
}

func (m *memItemStore) GetByID(_ context.Context, id int64) (*item.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	copied := *it
	return &copied, nil
}

func (m *memItemStore) List(_ context.Context, filter item.ListFilter, limit, offset int) ([]*item.Item, int, error) {
	return nil, 0, nil
}

func (m *memItemStore) UpdateStatusIf(_ context.Context, id int64, from, to item.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok || it.Status != from {
		return false, nil
	}
	it.Status = to
	return true, nil
}

type memLedgerStore struct {
	mu       sync.Mutex
	balances map[int64]int
}

func (m *memLedgerStore) Credit(_ context.Context, memberID int64, amount int, _ string, _ *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[memberID] += amount
	return nil
}

func (m *memLedgerStore) Debit(_ context.Context, memberID int64, amount int, _ string, _ *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[memberID] < amount {
		return ledger.ErrInsufficientFunds
	}
	m.balances[memberID] -= amount
	return nil
}

func (m *memLedgerStore) Transfer(_ context.Context, fromID, toID int64, amount int, _ *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[fromID] < amount {
		return ledger.ErrInsufficientFunds
	}
	m.balances[fromID] -= amount
	m.balances[toID] += amount
	return nil
}

func (m *memLedgerStore) Balance(_ context.Context, memberID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[memberID], nil
}

func (m *memLedgerStore) Entries(_ context.Context, _ int64, _, _ int) ([]*ledger.Entry, int, error) {
	return nil, 0, nil
}

type memSwapStore struct {
	mu       sync.Mutex
	requests map[int64]*Request
	nextID   int64
}

func newMemSwapStore() *memSwapStore {
	return &memSwapStore{requests: make(map[int64]*Request)}
}

func (m *memSwapStore) Create(_ context.Context, itemID, requesterID, ownerID int64, kind Kind, pointsCommitted int) (*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	req := &Request{
		ID:              m.nextID,
		ItemID:          itemID,
		RequesterID:     requesterID,
		OwnerID:         ownerID,
		Kind:            kind,
		PointsCommitted: pointsCommitted,
		Status:          StatusPending,
		CreatedAt:       time.Now(),
	}
	m.requests[req.ID] = req
	copied := *req
	return &copied, nil
}

func (m *memSwapStore) GetByID(_ context.Context, id int64) (*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, nil
	}
	copied := *req
	return &copied, nil
}

func (m *memSwapStore) ListByMember(_ context.Context, memberID int64, limit, offset int) ([]*Request, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*Request
	for id := int64(1); id <= m.nextID; id++ {
		req, ok := m.requests[id]
		if !ok {
			continue
		}
		if req.RequesterID != memberID && req.OwnerID != memberID {
			continue
		}
		copied := *req
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

func (m *memSwapStore) UpdateStatusIf(_ context.Context, id int64, from, to Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = to
	return true, nil
}

func (m *memSwapStore) RejectOtherPending(_ context.Context, itemID, excludeID int64) ([]RejectedRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rejected []RejectedRequest
	for _, req := range m.requests {
		if req.ItemID == itemID && req.ID != excludeID && req.Status == StatusPending {
			req.Status = StatusRejected
			rejected = append(rejected, RejectedRequest{ID: req.ID, RequesterID: req.RequesterID})
		}
	}
	return rejected, nil
}

func (m *memSwapStore) RejectStale(_ context.Context, cutoff time.Time) ([]RejectedRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rejected []RejectedRequest
	for _, req := range m.requests {
		if req.Status == StatusPending && req.CreatedAt.Before(cutoff) {
			req.Status = StatusRejected
			rejected = append(rejected, RejectedRequest{ID: req.ID, RequesterID: req.RequesterID})
		}
	}
	return rejected, nil
}

// recordingNotifier captures alert calls for assertions
type recordingNotifier struct {
	mu        sync.Mutex
	received  []int64
	completed []int64
	rejected  []int64
	lapsed    []int64
}

func (n *recordingNotifier) RequestReceived(_ context.Context, _ int64, _ string, requestID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.received = append(n.received, requestID)
}

func (n *recordingNotifier) RequestCompleted(_ context.Context, _ int64, _ string, requestID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, requestID)
}

func (n *recordingNotifier) RequestRejected(_ context.Context, _ int64, _ string, requestID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rejected = append(n.rejected, requestID)
}

func (n *recordingNotifier) RequestLapsed(_ context.Context, _, _ int64, _ string, requestID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lapsed = append(n.lapsed, requestID)
}

// ---- fixtures

type fixture struct {
	swaps    *Service
	items    *item.Service
	ledger   *ledger.Service
	notifier *recordingNotifier
}

func newFixture(balances map[int64]int) *fixture {
	notifier := &recordingNotifier{}
	items := item.NewService(newMemItemStore(), 10, 200)
	ledgerSvc := ledger.NewService(&memLedgerStore{balances: balances})
	swaps := NewService(newMemSwapStore(), items, ledgerSvc, notifier)
	return &fixture{swaps: swaps, items: items, ledger: ledgerSvc, notifier: notifier}
}

func (f *fixture) listApproved(t *testing.T, ownerID int64, points int) *item.Item {
	t.Helper()
	ctx := context.Background()
	it, err := f.items.Submit(ctx, authz.Actor{MemberID: ownerID, Role: authz.RoleMember}, &item.SubmitItemRequest{
		Title:       "Wool coat",
		PointsValue: points,
	})
	require.NoError(t, err)
	_, err = f.items.Moderate(ctx, authz.Actor{MemberID: 999, Role: authz.RoleAdmin}, it.ID, item.DecisionApprove)
	require.NoError(t, err)
	return it
}

func actorFor(id int64) authz.Actor {
	return authz.Actor{MemberID: id, Role: authz.RoleMember}
}

// ---- tests

func TestRedemptionHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(map[int64]int{1: 100, 2: 100})
	it := f.listApproved(t, 1, 60)

	req, err := f.swaps.CreateRequest(ctx, actorFor(2), &CreateRequestRequest{ItemID: it.ID, Kind: KindPointsRedemption})
	require.NoError(t, err)
	require.Equal(t, StatusPending, req.Status)
	require.Equal(t, 60, req.PointsCommitted)
	require.Equal(t, int64(1), req.OwnerID)

	decided, err := f.swaps.Decide(ctx, actorFor(1), req.ID, DecisionApprove)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, decided.Status)

	ownerBalance, err := f.ledger.Balance(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 160, ownerBalance)

	requesterBalance, err := f.ledger.Balance(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 40, requesterBalance)

	got, err := f.items.GetByID(ctx, it.ID)
	require.NoError(t, err)
	require.Equal(t, item.StatusSwapped, got.Status)

	require.Equal(t, []int64{req.ID}, f.notifier.received)
	require.Equal(t, []int64{req.ID}, f.notifier.completed)
}

func TestDirectSwapMovesNoPoints(t *testing.T) {
	ctx := context.Background()
	f := newFixture(map[int64]int{1: 100, 2: 100})
	it := f.listApproved(t, 1, 60)

	req, err := f.swaps.CreateRequest(ctx, actorFor(2), &CreateRequestRequest{ItemID: it.ID, Kind: KindDirectSwap})
	require.NoError(t, err)
	require.Zero(t, req.PointsCommitted)

	decided, err := f.swaps.Decide(ctx, actorFor(1), req.ID, DecisionApprove)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, decided.Status)

	for _, memberID := range []int64{1, 2} {
		balance, err := f.ledger.Balance(ctx, memberID)
		require.NoError(t, err)
		require.Equal(t, 100, balance)
	}
}

func TestCreateRequestGuards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(map[int64]int{1: 100, 2: 20})
	it := f.listApproved(t, 1, 60)

	_, err := f.swaps.CreateRequest(ctx, actorFor(2), &CreateRequestRequest{ItemID: it.ID, Kind: Kind("barter")})
	require.ErrorIs(t, err, ErrInvalidKind)

	// Owner cannot court their own item
	_, err = f.swaps.CreateRequest(ctx, actorFor(1), &CreateRequestRequest{ItemID: it.ID, Kind: KindDirectSwap})
	require.ErrorIs(t, err, ErrSelfSwapForbidden)

	// Redemption needs a covering balance up front
	_, err = f.swaps.CreateRequest(ctx, actorFor(2), &CreateRequestRequest{ItemID: it.ID, Kind: KindPointsRedemption})
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	// Unknown and non-approved items are equally unavailable
	_, err = f.swaps.CreateRequest(ctx, actorFor(2), &CreateRequestRequest{ItemID: 404, Kind: KindDirectSwap})
	require.ErrorIs(t, err, ErrItemNotAvailable)

	pending, err := f.items.Submit(ctx, actorFor(1), &item.SubmitItemRequest{Title: "Scarf", PointsValue: 20})
	require.NoError(t, err)
	_, err = f.swaps.CreateRequest(ctx, actorFor(2), &CreateRequestRequest{ItemID: pending.ID, Kind: KindDirectSwap})
	require.ErrorIs(t, err, ErrItemNotAvailable)
}

func TestDecideAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(map[int64]int{1: 100, 2: 100, 3: 100})
	it := f.listApproved(t, 1, 60)

	req, err := f.swaps.CreateRequest(ctx, actorFor(2), &CreateRequestRequest{ItemID: it.ID, Kind: KindDirectSwap})
	require.NoError(t, err)

	// Neither the requester nor a bystander may decide
	_, err = f.swaps.Decide(ctx, actorFor(2), req.ID, DecisionApprove)
	require.ErrorIs(t, err, ErrNotAuthorized)
	_, err = f.swaps.Decide(ctx, actorFor(3), req.ID, DecisionApprove)
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, err = f.swaps.Decide(ctx, actorFor(1), req.ID, Decision("shrug"))
	require.ErrorIs(t, err, ErrInvalidDecision)

	_, err = f.swaps.Decide(ctx, actorFor(1), 404, DecisionApprove)
	require.ErrorIs(t, err, ErrRequestNotFound)
}

func TestDecideIsTerminal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(map[int64]int{1: 100, 2: 100})
	it := f.listApproved(t, 1, 60)

	req, err := f.swaps.CreateRequest(ctx, actorFor(2), &CreateRequestRequest{ItemID: it.ID, Kind: KindDirectSwap})
	require.NoError(t, err)

	rejected, err := f.swaps.Decide(ctx, actorFor(1), req.ID, DecisionReject)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)

	// No second verdict on a settled request
	_, err = f.swaps.Decide(ctx, actorFor(1), req.ID, DecisionApprove)
	require.ErrorIs(t, err, ErrInvalidTransition)

	// Rejection freed nothing up: the item is still claimable
	got, err := f.items.GetByID(ctx, it.ID)
	require.NoError(t, err)
	require.Equal(t, item.StatusApproved, got.Status)
}

func TestApproveAutoRejectsCompetingRequests(t *testing.T) {
	ctx := context.Background()
	f := newFixture(map[int64]int{1: 100, 2: 100, 3: 100})
	it := f.listApproved(t, 1, 60)

	winner, err := f.swaps.CreateRequest(ctx, actorFor(2), &CreateRequestRequest{ItemID: it.ID, Kind: KindDirectSwap})
	require.NoError(t, err)
	loser, err := f.swaps.CreateRequest(ctx, actorFor(3), &CreateRequestRequest{ItemID: it.ID, Kind: KindDirectSwap})
	require.NoError(t, err)

	_, err = f.swaps.Decide(ctx, actorFor(1), winner.ID, DecisionApprove)
	require.NoError(t, err)

	got, err := f.swaps.GetByID(ctx, actorFor(3), loser.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, got.Status)
	require.Contains(t, f.notifier.rejected, loser.ID)
}

func TestLapsedRedemptionRevertsItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(map[int64]int{1: 100, 2: 100})
	it := f.listApproved(t, 1, 60)

	req, err := f.swaps.CreateRequest(ctx, actorFor(2), &CreateRequestRequest{ItemID: it.ID, Kind: KindPointsRedemption})
	require.NoError(t, err)

	// The requester's balance drifts below the committed points before
	// the owner accepts
	require.NoError(t, f.ledger.Debit(ctx, 2, 80, ledger.ReasonAdjustment, nil))

	_, err = f.swaps.Decide(ctx, actorFor(1), req.ID, DecisionApprove)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	// Item back on the market, request lapsed, both sides alerted
	got, err := f.items.GetByID(ctx, it.ID)
	require.NoError(t, err)
	require.Equal(t, item.StatusApproved, got.Status)

	lapsed, err := f.swaps.GetByID(ctx, actorFor(2), req.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, lapsed.Status)
	require.Equal(t, []int64{req.ID}, f.notifier.lapsed)

	ownerBalance, err := f.ledger.Balance(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 100, ownerBalance)
}

func TestConcurrentSettlementsSingleWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(map[int64]int{1: 100, 2: 100, 3: 100})
	it := f.listApproved(t, 1, 60)

	reqA, err := f.swaps.CreateRequest(ctx, actorFor(2), &CreateRequestRequest{ItemID: it.ID, Kind: KindPointsRedemption})
	require.NoError(t, err)
	reqB, err := f.swaps.CreateRequest(ctx, actorFor(3), &CreateRequestRequest{ItemID: it.ID, Kind: KindPointsRedemption})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []int64{reqA.ID, reqB.ID} {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			_, errs[i] = f.swaps.Decide(ctx, actorFor(1), id, DecisionApprove)
		}(i, id)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		// The loser's error depends on how far it got before the winner
		// settled: past the pending check it finds the item taken, before
		// it the auto-reject already moved its request. Both mean it lost.
		lost := errors.Is(err, ErrItemNotAvailable) || errors.Is(err, ErrInvalidTransition)
		require.True(t, lost, "unexpected loser error: %v", err)
	}
	require.Equal(t, 1, winners)

	// The item moved exactly once, and exactly one request completed
	got, err := f.items.GetByID(ctx, it.ID)
	require.NoError(t, err)
	require.Equal(t, item.StatusSwapped, got.Status)

	completed := 0
	for _, id := range []int64{reqA.ID, reqB.ID} {
		req, err := f.swaps.GetByID(ctx, authz.Actor{MemberID: 1, Role: authz.RoleMember}, id)
		require.NoError(t, err)
		switch req.Status {
		case StatusCompleted:
			completed++
		case StatusRejected:
		default:
			t.Fatalf("request %d left in %s", id, req.Status)
		}
	}
	require.Equal(t, 1, completed)

	// Exactly one 60-point transfer happened
	ownerBalance, err := f.ledger.Balance(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 160, ownerBalance)
}

// meddlingStore yanks the request out of approved right before the
// completion transition, to exercise a lost completion CAS.
type meddlingStore struct {
	*memSwapStore
	meddled bool
}

func (s *meddlingStore) UpdateStatusIf(ctx context.Context, id int64, from, to Status) (bool, error) {
	if from == StatusApproved && to == StatusCompleted && !s.meddled {
		s.meddled = true
		if _, err := s.memSwapStore.UpdateStatusIf(ctx, id, StatusApproved, StatusRejected); err != nil {
			return false, err
		}
	}
	return s.memSwapStore.UpdateStatusIf(ctx, id, from, to)
}

func TestLostCompletionIsNotReported(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	items := item.NewService(newMemItemStore(), 10, 200)
	ledgerSvc := ledger.NewService(&memLedgerStore{balances: map[int64]int{1: 100, 2: 100}})
	store := &meddlingStore{memSwapStore: newMemSwapStore()}
	swaps := NewService(store, items, ledgerSvc, notifier)

	it, err := items.Submit(ctx, actorFor(1), &item.SubmitItemRequest{Title: "Wool coat", PointsValue: 60})
	require.NoError(t, err)
	_, err = items.Moderate(ctx, authz.Actor{MemberID: 999, Role: authz.RoleAdmin}, it.ID, item.DecisionApprove)
	require.NoError(t, err)

	req, err := swaps.CreateRequest(ctx, actorFor(2), &CreateRequestRequest{ItemID: it.ID, Kind: KindDirectSwap})
	require.NoError(t, err)

	decided, err := swaps.Decide(ctx, actorFor(1), req.ID, DecisionApprove)
	require.NoError(t, err)

	// The row never made it to completed, so the caller must not be told
	// it did, and no completion alert goes out
	require.NotEqual(t, StatusCompleted, decided.Status)
	stored, err := store.GetByID(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, stored.Status)
	require.Empty(t, notifier.completed)
}

func TestExpireStale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(map[int64]int{1: 100, 2: 100})
	it := f.listApproved(t, 1, 60)

	req, err := f.swaps.CreateRequest(ctx, actorFor(2), &CreateRequestRequest{ItemID: it.ID, Kind: KindDirectSwap})
	require.NoError(t, err)

	// Nothing is old enough yet
	n, err := f.swaps.ExpireStale(ctx, time.Hour)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = f.swaps.ExpireStale(ctx, -time.Second)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := f.swaps.GetByID(ctx, actorFor(2), req.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, got.Status)
}

func TestGetByIDVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(map[int64]int{1: 100, 2: 100, 3: 100})
	it := f.listApproved(t, 1, 60)

	req, err := f.swaps.CreateRequest(ctx, actorFor(2), &CreateRequestRequest{ItemID: it.ID, Kind: KindDirectSwap})
	require.NoError(t, err)

	for _, id := range []int64{1, 2} {
		_, err := f.swaps.GetByID(ctx, actorFor(id), req.ID)
		require.NoError(t, err)
	}

	_, err = f.swaps.GetByID(ctx, actorFor(3), req.ID)
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, err = f.swaps.GetByID(ctx, authz.Actor{MemberID: 3, Role: authz.RoleAdmin}, req.ID)
	require.NoError(t, err)
}

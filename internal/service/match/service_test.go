package match_test

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"testing"
	"time"

	"wetime-service/internal/service/match"
	appErr "wetime-service/pkg/errors"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newMemoryService(t *testing.T) (*match.MemoryStore, *match.Service) {
	t.Helper()
	store := match.NewMemoryStore()
	return store, match.NewService(store, match.NewLocalLocker(), match.DefaultConfig(), nil)
}

func request(t *testing.T, svc *match.Service, participant, tenant string, now time.Time) match.Result {
	t.Helper()
	res, err := svc.RequestMatch(context.Background(), match.Request{
		ParticipantID: participant,
		TenantID:      tenant,
	}, now)
	if err != nil {
		t.Fatalf("request %s/%s failed: %v", tenant, participant, err)
	}
	return res
}

func seed(t *testing.T, store match.Store, tenant string, tickets map[string]time.Time) {
	t.Helper()
	for id, joined := range tickets {
		if err := store.Upsert(context.Background(), match.Ticket{ParticipantID: id, TenantID: tenant, JoinedAt: joined}); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
}

func TestSoleParticipantIsEnqueued(t *testing.T) {
	store, svc := newMemoryService(t)

	if res := request(t, svc, "U1", "acme", t0); res.Outcome != match.OutcomeEnqueued {
		t.Fatalf("expected enqueued, got %+v", res)
	}
	// still alone: must not match with its own ticket
	if res := request(t, svc, "U1", "acme", t0.Add(time.Minute)); res.Outcome != match.OutcomeEnqueued {
		t.Fatalf("expected enqueued on repeat, got %+v", res)
	}
	if n := store.Len("acme"); n != 1 {
		t.Fatalf("expected one ticket, got %d", n)
	}
}

func TestReenqueueReplacesTicket(t *testing.T) {
	store, svc := newMemoryService(t)
	ctx := context.Background()

	request(t, svc, "P", "acme", t0)
	request(t, svc, "P", "acme", t0.Add(5*time.Minute))

	ticket, ok, err := store.Lookup(ctx, "acme", "P")
	if err != nil || !ok {
		t.Fatalf("lookup failed: ok=%v err=%v", ok, err)
	}
	if !ticket.JoinedAt.Equal(t0.Add(5 * time.Minute)) {
		t.Fatalf("expected joinedAt reset to second request, got %s", ticket.JoinedAt)
	}
	if n := store.Len("acme"); n != 1 {
		t.Fatalf("expected exactly one ticket, got %d", n)
	}
}

func TestOldestWaiterMatchedFirst(t *testing.T) {
	store, svc := newMemoryService(t)

	seed(t, store, "acme", map[string]time.Time{
		"A": t0,
		"B": t0.Add(time.Second),
	})

	if res := request(t, svc, "C", "acme", t0.Add(2*time.Second)); res.PartnerID != "A" {
		t.Fatalf("expected C to pair with A, got %+v", res)
	}
	if res := request(t, svc, "D", "acme", t0.Add(3*time.Second)); res.PartnerID != "B" {
		t.Fatalf("expected D to pair with B, got %+v", res)
	}
	if n := store.Len("acme"); n != 0 {
		t.Fatalf("expected empty queue, got %d tickets", n)
	}
}

func TestEqualJoinTimesUseStableOrder(t *testing.T) {
	store, svc := newMemoryService(t)
	seed(t, store, "acme", map[string]time.Time{"Y": t0, "X": t0})

	if res := request(t, svc, "Z", "acme", t0.Add(time.Second)); res.PartnerID != "X" {
		t.Fatalf("expected tie broken by participant id, got %+v", res)
	}
}

func TestStaleTicketIsPurgedAndNeverMatched(t *testing.T) {
	store, svc := newMemoryService(t)
	ctx := context.Background()

	request(t, svc, "OLD", "acme", t0)
	now := t0.Add(31 * time.Minute)

	res := request(t, svc, "NEW", "acme", now)
	if res.Outcome != match.OutcomeEnqueued {
		t.Fatalf("stale ticket must not be matched, got %+v", res)
	}
	if _, ok, _ := store.Lookup(ctx, "acme", "OLD"); ok {
		t.Fatalf("stale ticket should have been purged by the scan")
	}
	if _, ok, _ := store.Lookup(ctx, "acme", "NEW"); !ok {
		t.Fatalf("requester should be waiting")
	}
}

func TestStaleTicketSkippedForFresherPartner(t *testing.T) {
	store, svc := newMemoryService(t)

	seed(t, store, "acme", map[string]time.Time{
		"OLD":   t0,
		"FRESH": t0.Add(20 * time.Minute),
	})

	res := request(t, svc, "NEW", "acme", t0.Add(35*time.Minute))
	if res.PartnerID != "FRESH" {
		t.Fatalf("expected FRESH partner, got %+v", res)
	}
	if n := store.Len("acme"); n != 0 {
		t.Fatalf("expected empty queue, got %d", n)
	}
}

func TestTenantsAreIsolated(t *testing.T) {
	_, svc := newMemoryService(t)

	request(t, svc, "U1", "t1", t0)
	if res := request(t, svc, "U2", "t2", t0.Add(time.Second)); res.Outcome != match.OutcomeEnqueued {
		t.Fatalf("cross-tenant match: %+v", res)
	}
	// identical participant id in another tenant is a different ticket
	if res := request(t, svc, "U1", "t2", t0.Add(2*time.Second)); res.PartnerID != "U2" {
		t.Fatalf("expected U1@t2 to pair with U2, got %+v", res)
	}
}

func TestScenarioAcme(t *testing.T) {
	store, svc := newMemoryService(t)
	ctx := context.Background()

	if res := request(t, svc, "U1", "acme", t0); res.Outcome != match.OutcomeEnqueued {
		t.Fatalf("U1: %+v", res)
	}
	if res := request(t, svc, "U2", "acme", t0.Add(60*time.Second)); res.PartnerID != "U1" {
		t.Fatalf("U2: %+v", res)
	}
	if n := store.Len("acme"); n != 0 {
		t.Fatalf("expected empty queue after pairing, got %d", n)
	}
	if res := request(t, svc, "U3", "acme", t0.Add(120*time.Second)); res.Outcome != match.OutcomeEnqueued {
		t.Fatalf("U3: %+v", res)
	}
	if res := request(t, svc, "U4", "acme", t0.Add(120*time.Second+31*time.Minute)); res.Outcome != match.OutcomeEnqueued {
		t.Fatalf("U4: %+v", res)
	}
	if n := store.Len("acme"); n != 1 {
		t.Fatalf("expected only U4 waiting, got %d tickets", n)
	}
	if _, ok, _ := store.Lookup(ctx, "acme", "U4"); !ok {
		t.Fatalf("expected U4 ticket")
	}
}

func TestConcurrentRequestsPairExactlyOnce(t *testing.T) {
	const n = 101
	store, svc := newMemoryService(t)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		partners = make(map[string]string)
		enqueued int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("U%03d", i)
			res, err := svc.RequestMatch(context.Background(), match.Request{ParticipantID: id, TenantID: "acme"}, t0)
			if err != nil {
				t.Errorf("request %s: %v", id, err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if res.Matched() {
				partners[id] = res.PartnerID
			} else {
				enqueued++
			}
		}(i)
	}
	wg.Wait()

	if len(partners) != n/2 {
		t.Fatalf("expected %d pairings, got %d", n/2, len(partners))
	}
	seen := make(map[string]bool)
	for requester, partner := range partners {
		if requester == partner {
			t.Fatalf("%s matched with itself", requester)
		}
		for _, id := range []string{requester, partner} {
			if seen[id] {
				t.Fatalf("%s appears in more than one pairing", id)
			}
			seen[id] = true
		}
	}
	if left := store.Len("acme"); left != 1 || enqueued != n-n/2 {
		t.Fatalf("expected one leftover ticket, got store=%d enqueued=%d", left, enqueued)
	}
}

// flakyStore wraps a store and fails selected operations.
type flakyStore struct {
	match.Store
	failScan    bool
	failUpsert  bool
	consumeMiss bool
}

var errBoom = errors.New("connection refused")

func (f *flakyStore) Scan(ctx context.Context, tenantID string) iter.Seq2[match.Ticket, error] {
	if f.failScan {
		return func(yield func(match.Ticket, error) bool) {
			yield(match.Ticket{}, fmt.Errorf("%w: scan: %w", appErr.ErrStorageUnavailable, errBoom))
		}
	}
	return f.Store.Scan(ctx, tenantID)
}

func (f *flakyStore) Upsert(ctx context.Context, t match.Ticket) error {
	if f.failUpsert {
		return fmt.Errorf("%w: upsert: %w", appErr.ErrStorageUnavailable, errBoom)
	}
	return f.Store.Upsert(ctx, t)
}

func (f *flakyStore) ConsumePair(ctx context.Context, tenantID, partnerID, requesterID string) (bool, error) {
	if f.consumeMiss {
		return false, nil
	}
	return f.Store.ConsumePair(ctx, tenantID, partnerID, requesterID)
}

func TestStorageFailureIsMatchUnavailable(t *testing.T) {
	ctx := context.Background()
	mem := match.NewMemoryStore()
	store := &flakyStore{Store: mem, failScan: true}
	svc := match.NewService(store, match.NewLocalLocker(), match.DefaultConfig(), nil)

	_, err := svc.RequestMatch(ctx, match.Request{ParticipantID: "U1", TenantID: "acme"}, t0)
	if !errors.Is(err, appErr.ErrMatchUnavailable) || !errors.Is(err, appErr.ErrStorageUnavailable) {
		t.Fatalf("expected MatchUnavailable wrapping StorageUnavailable, got %v", err)
	}
	if mem.Len("acme") != 0 {
		t.Fatalf("failed request must not leave a ticket")
	}
}

func TestFailedUpsertLeavesNoOlderTicket(t *testing.T) {
	ctx := context.Background()
	mem := match.NewMemoryStore()
	store := &flakyStore{Store: mem}
	svc := match.NewService(store, match.NewLocalLocker(), match.DefaultConfig(), nil)

	request(t, svc, "U1", "acme", t0)
	store.failUpsert = true

	_, err := svc.RequestMatch(ctx, match.Request{ParticipantID: "U1", TenantID: "acme"}, t0.Add(time.Minute))
	if !errors.Is(err, appErr.ErrMatchUnavailable) {
		t.Fatalf("expected MatchUnavailable, got %v", err)
	}
	if mem.Len("acme") != 0 {
		t.Fatalf("participant told matching is down must not stay queued")
	}
}

func TestConflictsFallBackToWaiting(t *testing.T) {
	mem := match.NewMemoryStore()
	store := &flakyStore{Store: mem}
	svc := match.NewService(store, match.NewLocalLocker(), match.DefaultConfig(), nil)

	seed(t, mem, "acme", map[string]time.Time{
		"A": t0,
		"B": t0.Add(time.Second),
		"C": t0.Add(2 * time.Second),
		"D": t0.Add(3 * time.Second),
	})
	store.consumeMiss = true

	res := request(t, svc, "E", "acme", t0.Add(10*time.Second))
	if res.Outcome != match.OutcomeEnqueued {
		t.Fatalf("expected fallback to waiting, got %+v", res)
	}
	if _, ok, _ := mem.Lookup(context.Background(), "acme", "E"); !ok {
		t.Fatalf("expected E to be waiting")
	}
}

func TestLockTimeoutIsMatchUnavailable(t *testing.T) {
	locker := match.NewLocalLocker()
	cfg := match.DefaultConfig()
	cfg.StoreTimeout = 20 * time.Millisecond
	store := match.NewMemoryStore()
	svc := match.NewService(store, locker, cfg, nil)

	request(t, svc, "U1", "acme", t0)

	unlock, err := locker.Lock(context.Background(), "acme")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	_, err = svc.RequestMatch(context.Background(), match.Request{ParticipantID: "U1", TenantID: "acme"}, t0.Add(time.Minute))
	unlock()
	if !errors.Is(err, appErr.ErrMatchUnavailable) {
		t.Fatalf("expected MatchUnavailable on lock timeout, got %v", err)
	}
	if store.Len("acme") != 0 {
		t.Fatalf("U1 was told matching is down but still holds a ticket")
	}

	if res := request(t, svc, "U2", "acme", t0.Add(2*time.Minute)); res.Outcome != match.OutcomeEnqueued {
		t.Fatalf("U2 must not be paired with U1 after the failed request, got %+v", res)
	}
}

func TestRequestValidation(t *testing.T) {
	_, svc := newMemoryService(t)
	_, err := svc.RequestMatch(context.Background(), match.Request{ParticipantID: "U1"}, t0)
	if !errors.Is(err, appErr.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	_, svc := newMemoryService(t)

	st, err := svc.Status(ctx, "acme", "U1", t0)
	if err != nil || st.Status != match.QueueStatusIdle {
		t.Fatalf("expected idle, got %+v err=%v", st, err)
	}

	request(t, svc, "U1", "acme", t0)
	st, err = svc.Status(ctx, "acme", "U1", t0.Add(time.Minute))
	if err != nil || st.Status != match.QueueStatusWaiting || st.JoinedAt == nil || !st.JoinedAt.Equal(t0) {
		t.Fatalf("expected waiting since t0, got %+v err=%v", st, err)
	}

	st, err = svc.Status(ctx, "acme", "U1", t0.Add(45*time.Minute))
	if err != nil || st.Status != match.QueueStatusIdle {
		t.Fatalf("expected stale ticket to report idle, got %+v err=%v", st, err)
	}
}

package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/domain"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/infra/resilience"

	"github.com/shopspring/decimal"
)

// flakyStore fails the first n calls of each method, then succeeds.
type flakyStore struct {
	mu       sync.Mutex
	failures int
	calls    int
	inner    *Memory
}

func (f *flakyStore) trip() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return fmt.Errorf("transient failure %d", f.calls)
	}
	return nil
}

func (f *flakyStore) LoadAccounts(ctx context.Context) ([]domain.AccountRecord, error) {
	if err := f.trip(); err != nil {
		return nil, err
	}
	return f.inner.LoadAccounts(ctx)
}

func (f *flakyStore) UpsertAccount(ctx context.Context, rec domain.AccountRecord) error {
	if err := f.trip(); err != nil {
		return err
	}
	return f.inner.UpsertAccount(ctx, rec)
}

func (f *flakyStore) RemoveAccount(ctx context.Context, number string) error {
	if err := f.trip(); err != nil {
		return err
	}
	return f.inner.RemoveAccount(ctx, number)
}

func newResilientUnderTest(failures int) (*ResilientAccountStore, *flakyStore) {
	flaky := &flakyStore{failures: failures, inner: NewMemory()}
	cfg := resilience.Config{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxConcurrency: 4}
	return NewResilient(flaky, resilience.NewCircuitBreaker("test-store"), cfg), flaky
}

func TestResilientStorePassthrough(t *testing.T) {
	rs, _ := newResilientUnderTest(0)
	ctx := context.Background()

	rec := domain.AccountRecord{Number: "2000123456", HolderName: "Ada", Balance: decimal.NewFromInt(5)}
	if err := rs.UpsertAccount(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	recs, err := rs.LoadAccounts(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(recs) != 1 || recs[0].Number != "2000123456" {
		t.Errorf("loaded %+v", recs)
	}

	if err := rs.RemoveAccount(ctx, "2000123456"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	recs, _ = rs.LoadAccounts(ctx)
	if len(recs) != 0 {
		t.Errorf("record not removed: %+v", recs)
	}
}

func TestResilientStoreRetriesTransientFailures(t *testing.T) {
	rs, flaky := newResilientUnderTest(2)
	ctx := context.Background()

	rec := domain.AccountRecord{Number: "2000123456", Balance: decimal.Zero}
	if err := rs.UpsertAccount(ctx, rec); err != nil {
		t.Fatalf("upsert should succeed after retries, got %v", err)
	}
	if flaky.calls != 3 {
		t.Errorf("calls = %d, want 3", flaky.calls)
	}
}

func TestResilientStoreGivesUpAfterMaxRetries(t *testing.T) {
	rs, _ := newResilientUnderTest(100)

	if err := rs.UpsertAccount(context.Background(), domain.AccountRecord{Number: "2000123456", Balance: decimal.Zero}); err == nil {
		t.Fatal("expected error after retries exhausted")
	}
}

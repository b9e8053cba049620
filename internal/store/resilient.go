package store

import (
	"context"

	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/domain"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/infra/resilience"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/port"

	"github.com/sony/gobreaker"
)

// ResilientAccountStore decorates an AccountStore with retry/backoff and
// a circuit breaker. The ledger treats the store as an external
// collaborator; transient write failures should not surface as rollbacks
// when a retry would have succeeded.
type ResilientAccountStore struct {
	inner port.AccountStore
	cb    *gobreaker.CircuitBreaker
	bh    *resilience.Bulkhead
	cfg   resilience.Config
}

// NewResilient wraps inner with the given breaker, a bulkhead sized by
// cfg.MaxConcurrency, and retry config.
func NewResilient(inner port.AccountStore, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *ResilientAccountStore {
	return &ResilientAccountStore{
		inner: inner,
		cb:    cb,
		bh:    resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:   cfg,
	}
}

func (s *ResilientAccountStore) LoadAccounts(ctx context.Context) ([]domain.AccountRecord, error) {
	if err := s.bh.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.bh.Release()

	out, err := s.cb.Execute(func() (any, error) {
		var recs []domain.AccountRecord
		err := resilience.RetryWithBackoff(ctx, s.cfg, func() error {
			var loadErr error
			recs, loadErr = s.inner.LoadAccounts(ctx)
			return loadErr
		})
		return recs, err
	})
	if err != nil {
		return nil, err
	}
	return out.([]domain.AccountRecord), nil
}

func (s *ResilientAccountStore) UpsertAccount(ctx context.Context, rec domain.AccountRecord) error {
	if err := s.bh.Acquire(ctx); err != nil {
		return err
	}
	defer s.bh.Release()

	_, err := s.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, s.cfg, func() error {
			return s.inner.UpsertAccount(ctx, rec)
		})
	})
	return err
}

func (s *ResilientAccountStore) RemoveAccount(ctx context.Context, number string) error {
	if err := s.bh.Acquire(ctx); err != nil {
		return err
	}
	defer s.bh.Release()

	_, err := s.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, s.cfg, func() error {
			return s.inner.RemoveAccount(ctx, number)
		})
	})
	return err
}

package store

import (
	"context"
	"sync"

	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/domain"
)

// Memory is an in-memory store backend. Used by tests and as the
// STORE_BACKEND=memory dev mode; nothing survives a restart.
type Memory struct {
	mu        sync.Mutex
	accounts  map[string]domain.AccountRecord
	employees map[string]domain.Employee
	journal   map[string][]domain.TransactionRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		accounts:  make(map[string]domain.AccountRecord),
		employees: make(map[string]domain.Employee),
		journal:   make(map[string][]domain.TransactionRecord),
	}
}

func (s *Memory) LoadAccounts(ctx context.Context) ([]domain.AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := make([]domain.AccountRecord, 0, len(s.accounts))
	for _, rec := range s.accounts {
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *Memory) UpsertAccount(ctx context.Context, rec domain.AccountRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[rec.Number] = rec
	return nil
}

func (s *Memory) RemoveAccount(ctx context.Context, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, number)
	return nil
}

func (s *Memory) LoadEmployees(ctx context.Context) ([]domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	emps := make([]domain.Employee, 0, len(s.employees))
	for _, emp := range s.employees {
		emps = append(emps, emp)
	}
	return emps, nil
}

func (s *Memory) UpsertEmployee(ctx context.Context, emp domain.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[emp.ID] = emp
	return nil
}

func (s *Memory) RemoveEmployee(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.employees, id)
	return nil
}

func (s *Memory) Append(ctx context.Context, accountNumber string, recs ...domain.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journal[accountNumber] = append(s.journal[accountNumber], recs...)
	return nil
}

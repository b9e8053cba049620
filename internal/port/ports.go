// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/domain"
)

// AccountStore is the durable-storage collaborator for account records.
// The ledger loads everything at startup and writes after every
// successful mutation; writes are synchronous-durable, so an error means
// the mutation must be rolled back.
type AccountStore interface {
	LoadAccounts(ctx context.Context) ([]domain.AccountRecord, error)
	UpsertAccount(ctx context.Context, rec domain.AccountRecord) error
	RemoveAccount(ctx context.Context, number string) error
}

// EmployeeStore persists the branch employee directory.
type EmployeeStore interface {
	LoadEmployees(ctx context.Context) ([]domain.Employee, error)
	UpsertEmployee(ctx context.Context, emp domain.Employee) error
	RemoveEmployee(ctx context.Context, id string) error
}

// TransactionJournal is an append-only audit log of transaction records.
// Journaling is best-effort: a failed append never fails the ledger
// operation that produced the record.
type TransactionJournal interface {
	Append(ctx context.Context, accountNumber string, recs ...domain.TransactionRecord) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

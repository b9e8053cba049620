// Package service provides the business logic layer (use cases).
// Ledger owns the account collection and enforces the balance,
// authentication and atomicity invariants; AuthService issues sessions;
// EmployeeDirectory manages branch staff.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/credential"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/domain"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/infra/observability"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/port"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var ledgerTracer = otel.Tracer("service/ledger")

const accountNumberPrefix = "2000"

// ledgerAccount pairs an account with its own mutex. All balance and
// history mutations on one account happen under this lock; the closed
// flag stops racers that grabbed the pointer before a close.
type ledgerAccount struct {
	mu     sync.Mutex
	closed bool
	acct   domain.Account
}

// Ledger owns the accountNumber -> Account mapping and is its sole
// mutator. Accounts never escape as pointers; every return value is a
// snapshot copy.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[string]*ledgerAccount

	store   port.AccountStore
	journal port.TransactionJournal
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewLedger creates an empty ledger. Call Load before serving requests.
func NewLedger(store port.AccountStore, journal port.TransactionJournal, metrics *observability.Metrics, logger *zap.Logger) *Ledger {
	return &Ledger{
		accounts: make(map[string]*ledgerAccount),
		store:    store,
		journal:  journal,
		metrics:  metrics,
		logger:   logger,
	}
}

// Load populates the ledger from the store. Records with a negative
// balance or a duplicate number are rejected outright: a malformed store
// is a startup failure, not something to limp along with.
func (l *Ledger) Load(ctx context.Context) error {
	ctx, span := ledgerTracer.Start(ctx, "Ledger.Load")
	defer span.End()

	recs, err := l.store.LoadAccounts(ctx)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, rec := range recs {
		if rec.Number == "" || rec.Balance.IsNegative() {
			return fmt.Errorf("malformed account record %q", rec.Number)
		}
		if _, dup := l.accounts[rec.Number]; dup {
			return fmt.Errorf("duplicate account number %q in store", rec.Number)
		}
		l.accounts[rec.Number] = &ledgerAccount{acct: domain.Account{
			Number:       rec.Number,
			HolderName:   rec.HolderName,
			AccountType:  rec.AccountType,
			PersonalInfo: rec.PersonalInfo,
			Balance:      rec.Balance,
			PINHash:      rec.PINHash,
		}}
	}

	l.metrics.SetOpenAccounts(len(l.accounts))
	l.logger.Info("ledger loaded", zap.Int("accounts", len(l.accounts)))
	return nil
}

// ============================================================
// Account lifecycle
// ============================================================

// CreateAccount validates the opening balance and PIN format, generates
// a fresh unique account number, persists the record and returns the new
// account. Callers learn the number from the returned snapshot.
func (l *Ledger) CreateAccount(ctx context.Context, holderName, accountType string, initialBalance decimal.Decimal, personalInfo, pin string) (domain.Account, error) {
	ctx, span := ledgerTracer.Start(ctx, "Ledger.CreateAccount")
	defer span.End()

	start := time.Now()
	defer func() { l.metrics.RecordOperationDuration("create_account", time.Since(start)) }()

	if initialBalance.IsNegative() {
		l.metrics.IncrOperation("create_account", "invalid_amount")
		return domain.Account{}, &domain.ErrInvalidAmount{Amount: initialBalance, Reason: "opening balance cannot be negative"}
	}
	if err := credential.ValidatePIN(pin); err != nil {
		l.metrics.IncrOperation("create_account", "invalid_pin")
		return domain.Account{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	number := l.newAccountNumber()
	la := &ledgerAccount{acct: domain.Account{
		Number:       number,
		HolderName:   holderName,
		AccountType:  accountType,
		PersonalInfo: personalInfo,
		Balance:      initialBalance,
		PINHash:      credential.Hash(pin),
		CreatedAt:    time.Now(),
	}}

	if err := l.store.UpsertAccount(ctx, la.acct.Record()); err != nil {
		l.metrics.IncrPersistenceError("create_account")
		l.metrics.IncrOperation("create_account", "persistence")
		l.logger.Error("account creation not persisted", zap.String("account_number", number), zap.Error(err))
		return domain.Account{}, &domain.ErrPersistence{Op: "create_account", Err: err}
	}

	l.accounts[number] = la
	l.metrics.SetOpenAccounts(len(l.accounts))
	l.metrics.IncrOperation("create_account", "success")
	span.SetAttributes(attribute.String("account.number", number))

	l.logger.Info("account created",
		zap.String("account_number", number),
		zap.String("account_type", accountType),
		zap.String("balance", initialBalance.String()),
	)
	return la.acct.Snapshot(), nil
}

// CloseAccount removes the account from the active mapping. A second
// close on the same number fails with not-found; the durable record is
// removed, the journal is kept for audit.
func (l *Ledger) CloseAccount(ctx context.Context, number string) error {
	ctx, span := ledgerTracer.Start(ctx, "Ledger.CloseAccount")
	defer span.End()

	la := l.lookup(number)
	if la == nil {
		l.metrics.IncrOperation("close_account", "not_found")
		return &domain.ErrAccountNotFound{Number: number}
	}

	la.mu.Lock()
	defer la.mu.Unlock()
	if la.closed {
		l.metrics.IncrOperation("close_account", "not_found")
		return &domain.ErrAccountNotFound{Number: number}
	}

	if err := l.store.RemoveAccount(ctx, number); err != nil {
		l.metrics.IncrPersistenceError("close_account")
		l.metrics.IncrOperation("close_account", "persistence")
		return &domain.ErrPersistence{Op: "close_account", Err: err}
	}

	la.closed = true

	l.mu.Lock()
	delete(l.accounts, number)
	l.metrics.SetOpenAccounts(len(l.accounts))
	l.mu.Unlock()

	l.metrics.IncrOperation("close_account", "success")
	l.logger.Info("account closed", zap.String("account_number", number))
	return nil
}

// ============================================================
// Balance operations
// ============================================================

// Deposit credits amount to the account and appends a deposit record.
// Any positive amount succeeds; there is no upper bound.
func (l *Ledger) Deposit(ctx context.Context, number string, amount decimal.Decimal) (domain.Account, error) {
	ctx, span := ledgerTracer.Start(ctx, "Ledger.Deposit")
	defer span.End()
	span.SetAttributes(attribute.String("account.number", number))

	start := time.Now()
	defer func() { l.metrics.RecordOperationDuration("deposit", time.Since(start)) }()

	if !amount.IsPositive() {
		l.metrics.IncrOperation("deposit", "invalid_amount")
		return domain.Account{}, &domain.ErrInvalidAmount{Amount: amount, Reason: "must be positive"}
	}

	la := l.lookup(number)
	if la == nil {
		l.metrics.IncrOperation("deposit", "not_found")
		return domain.Account{}, &domain.ErrAccountNotFound{Number: number}
	}

	la.mu.Lock()
	defer la.mu.Unlock()
	if la.closed {
		l.metrics.IncrOperation("deposit", "not_found")
		return domain.Account{}, &domain.ErrAccountNotFound{Number: number}
	}

	rec := domain.TransactionRecord{
		ID:        uuid.New().String(),
		Kind:      domain.TxDeposit,
		Amount:    amount,
		Timestamp: time.Now(),
	}

	before := la.acct.Balance
	la.acct.Balance = before.Add(amount)
	la.acct.History = append(la.acct.History, rec)

	if err := l.store.UpsertAccount(ctx, la.acct.Record()); err != nil {
		la.acct.Balance = before
		la.acct.History = la.acct.History[:len(la.acct.History)-1]
		l.metrics.IncrPersistenceError("deposit")
		l.metrics.IncrOperation("deposit", "persistence")
		l.logger.Error("deposit not persisted, rolled back", zap.String("account_number", number), zap.Error(err))
		return domain.Account{}, &domain.ErrPersistence{Op: "deposit", Err: err}
	}

	l.journalAppend(ctx, number, rec)
	l.metrics.IncrOperation("deposit", "success")
	l.logger.Info("deposit applied",
		zap.String("account_number", number),
		zap.String("amount", amount.String()),
	)
	return la.acct.Snapshot(), nil
}

// Withdraw debits amount from the account, rejecting anything that would
// drive the balance negative.
func (l *Ledger) Withdraw(ctx context.Context, number string, amount decimal.Decimal) (domain.Account, error) {
	ctx, span := ledgerTracer.Start(ctx, "Ledger.Withdraw")
	defer span.End()
	span.SetAttributes(attribute.String("account.number", number))

	start := time.Now()
	defer func() { l.metrics.RecordOperationDuration("withdraw", time.Since(start)) }()

	if !amount.IsPositive() {
		l.metrics.IncrOperation("withdraw", "invalid_amount")
		return domain.Account{}, &domain.ErrInvalidAmount{Amount: amount, Reason: "must be positive"}
	}

	la := l.lookup(number)
	if la == nil {
		l.metrics.IncrOperation("withdraw", "not_found")
		return domain.Account{}, &domain.ErrAccountNotFound{Number: number}
	}

	la.mu.Lock()
	defer la.mu.Unlock()
	if la.closed {
		l.metrics.IncrOperation("withdraw", "not_found")
		return domain.Account{}, &domain.ErrAccountNotFound{Number: number}
	}

	if la.acct.Balance.LessThan(amount) {
		l.metrics.IncrOperation("withdraw", "insufficient_funds")
		return domain.Account{}, &domain.ErrInsufficientFunds{Available: la.acct.Balance, Required: amount}
	}

	rec := domain.TransactionRecord{
		ID:        uuid.New().String(),
		Kind:      domain.TxWithdrawal,
		Amount:    amount,
		Timestamp: time.Now(),
	}

	before := la.acct.Balance
	la.acct.Balance = before.Sub(amount)
	la.acct.History = append(la.acct.History, rec)

	if err := l.store.UpsertAccount(ctx, la.acct.Record()); err != nil {
		la.acct.Balance = before
		la.acct.History = la.acct.History[:len(la.acct.History)-1]
		l.metrics.IncrPersistenceError("withdraw")
		l.metrics.IncrOperation("withdraw", "persistence")
		l.logger.Error("withdrawal not persisted, rolled back", zap.String("account_number", number), zap.Error(err))
		return domain.Account{}, &domain.ErrPersistence{Op: "withdraw", Err: err}
	}

	l.journalAppend(ctx, number, rec)
	l.metrics.IncrOperation("withdraw", "success")
	l.logger.Info("withdrawal applied",
		zap.String("account_number", number),
		zap.String("amount", amount.String()),
	)
	return la.acct.Snapshot(), nil
}

// Transfer moves amount from an authenticated sender to a recipient as a
// single atomic unit: no other operation ever observes the debit without
// the credit. Preconditions are checked in order (existence of both
// accounts, sender PIN, positive amount, sufficient funds) and any
// failure leaves both accounts untouched. Only the sender authenticates;
// the destination is never challenged.
func (l *Ledger) Transfer(ctx context.Context, fromNumber, toNumber string, amount decimal.Decimal, pin string) (domain.Account, error) {
	ctx, span := ledgerTracer.Start(ctx, "Ledger.Transfer")
	defer span.End()
	span.SetAttributes(
		attribute.String("account.from", fromNumber),
		attribute.String("account.to", toNumber),
	)

	start := time.Now()
	defer func() { l.metrics.RecordOperationDuration("transfer", time.Since(start)) }()

	if fromNumber == toNumber {
		l.metrics.IncrOperation("transfer", "invalid_destination")
		return domain.Account{}, &domain.ErrValidation{Field: "to", Message: "cannot transfer to the same account"}
	}

	l.mu.RLock()
	from := l.accounts[fromNumber]
	to := l.accounts[toNumber]
	l.mu.RUnlock()

	if from == nil {
		l.metrics.IncrOperation("transfer", "not_found")
		return domain.Account{}, &domain.ErrAccountNotFound{Number: fromNumber}
	}
	if to == nil {
		l.metrics.IncrOperation("transfer", "not_found")
		return domain.Account{}, &domain.ErrAccountNotFound{Number: toNumber}
	}

	// Fixed lock order by account number so two opposing transfers on
	// the same pair cannot deadlock.
	first, second := from, to
	if toNumber < fromNumber {
		first, second = to, from
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if from.closed {
		l.metrics.IncrOperation("transfer", "not_found")
		return domain.Account{}, &domain.ErrAccountNotFound{Number: fromNumber}
	}
	if to.closed {
		l.metrics.IncrOperation("transfer", "not_found")
		return domain.Account{}, &domain.ErrAccountNotFound{Number: toNumber}
	}

	if !credential.Verify(pin, from.acct.PINHash) {
		l.metrics.IncrAuthAttempt("failure")
		l.metrics.IncrOperation("transfer", "auth_failed")
		l.logger.Warn("transfer rejected: sender authentication failed", zap.String("account_number", fromNumber))
		return domain.Account{}, &domain.ErrAuthenticationFailed{}
	}
	l.metrics.IncrAuthAttempt("success")

	if !amount.IsPositive() {
		l.metrics.IncrOperation("transfer", "invalid_amount")
		return domain.Account{}, &domain.ErrInvalidAmount{Amount: amount, Reason: "must be positive"}
	}
	if from.acct.Balance.LessThan(amount) {
		l.metrics.IncrOperation("transfer", "insufficient_funds")
		return domain.Account{}, &domain.ErrInsufficientFunds{Available: from.acct.Balance, Required: amount}
	}

	now := time.Now()
	outRec := domain.TransactionRecord{
		ID:           uuid.New().String(),
		Kind:         domain.TxTransferOut,
		Amount:       amount,
		Counterparty: toNumber,
		Timestamp:    now,
	}
	inRec := domain.TransactionRecord{
		ID:           uuid.New().String(),
		Kind:         domain.TxTransferIn,
		Amount:       amount,
		Counterparty: fromNumber,
		Timestamp:    now,
	}

	fromBefore := from.acct.Balance
	toBefore := to.acct.Balance

	from.acct.Balance = fromBefore.Sub(amount)
	to.acct.Balance = toBefore.Add(amount)
	from.acct.History = append(from.acct.History, outRec)
	to.acct.History = append(to.acct.History, inRec)

	rollback := func() {
		from.acct.Balance = fromBefore
		to.acct.Balance = toBefore
		from.acct.History = from.acct.History[:len(from.acct.History)-1]
		to.acct.History = to.acct.History[:len(to.acct.History)-1]
	}

	if err := l.store.UpsertAccount(ctx, from.acct.Record()); err != nil {
		rollback()
		l.metrics.IncrPersistenceError("transfer")
		l.metrics.IncrOperation("transfer", "persistence")
		l.logger.Error("transfer debit not persisted, rolled back",
			zap.String("from", fromNumber), zap.String("to", toNumber), zap.Error(err))
		return domain.Account{}, &domain.ErrPersistence{Op: "transfer", Err: err}
	}
	if err := l.store.UpsertAccount(ctx, to.acct.Record()); err != nil {
		rollback()
		// Restore the sender's durable record so the store never keeps
		// a debit whose credit was lost.
		if undoErr := l.store.UpsertAccount(ctx, from.acct.Record()); undoErr != nil {
			l.logger.Error("transfer undo write failed; store and memory may diverge until restart",
				zap.String("from", fromNumber), zap.Error(undoErr))
		}
		l.metrics.IncrPersistenceError("transfer")
		l.metrics.IncrOperation("transfer", "persistence")
		l.logger.Error("transfer credit not persisted, rolled back",
			zap.String("from", fromNumber), zap.String("to", toNumber), zap.Error(err))
		return domain.Account{}, &domain.ErrPersistence{Op: "transfer", Err: err}
	}

	l.journalAppend(ctx, fromNumber, outRec)
	l.journalAppend(ctx, toNumber, inRec)

	l.metrics.IncrOperation("transfer", "success")
	l.logger.Info("transfer completed",
		zap.String("from", fromNumber),
		zap.String("to", toNumber),
		zap.String("amount", amount.String()),
	)
	return from.acct.Snapshot(), nil
}

// ============================================================
// Queries and updates
// ============================================================

// Authenticate reports whether pin matches the account's credential.
// Unknown accounts return false, indistinguishable from a wrong PIN, so
// the response does not leak which numbers exist.
func (l *Ledger) Authenticate(ctx context.Context, number, pin string) bool {
	_, span := ledgerTracer.Start(ctx, "Ledger.Authenticate")
	defer span.End()

	la := l.lookup(number)
	if la == nil {
		l.metrics.IncrAuthAttempt("failure")
		return false
	}

	la.mu.Lock()
	hash := la.acct.PINHash
	closed := la.closed
	la.mu.Unlock()

	if closed || !credential.Verify(pin, hash) {
		l.metrics.IncrAuthAttempt("failure")
		return false
	}
	l.metrics.IncrAuthAttempt("success")
	return true
}

// GetAccount returns a snapshot of one account.
func (l *Ledger) GetAccount(ctx context.Context, number string) (domain.Account, error) {
	_, span := ledgerTracer.Start(ctx, "Ledger.GetAccount")
	defer span.End()

	la := l.lookup(number)
	if la == nil {
		return domain.Account{}, &domain.ErrAccountNotFound{Number: number}
	}
	la.mu.Lock()
	defer la.mu.Unlock()
	if la.closed {
		return domain.Account{}, &domain.ErrAccountNotFound{Number: number}
	}
	return la.acct.Snapshot(), nil
}

// ListAccounts returns snapshots of every open account, ordered by
// account number.
func (l *Ledger) ListAccounts(ctx context.Context) []domain.Account {
	_, span := ledgerTracer.Start(ctx, "Ledger.ListAccounts")
	defer span.End()

	l.mu.RLock()
	las := make([]*ledgerAccount, 0, len(l.accounts))
	for _, la := range l.accounts {
		las = append(las, la)
	}
	l.mu.RUnlock()

	out := make([]domain.Account, 0, len(las))
	for _, la := range las {
		la.mu.Lock()
		if !la.closed {
			out = append(out, la.acct.Snapshot())
		}
		la.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// TransactionHistory returns a copy of the account's append-only history
// in chronological order.
func (l *Ledger) TransactionHistory(ctx context.Context, number string) ([]domain.TransactionRecord, error) {
	_, span := ledgerTracer.Start(ctx, "Ledger.TransactionHistory")
	defer span.End()

	la := l.lookup(number)
	if la == nil {
		return nil, &domain.ErrAccountNotFound{Number: number}
	}
	la.mu.Lock()
	defer la.mu.Unlock()
	if la.closed {
		return nil, &domain.ErrAccountNotFound{Number: number}
	}
	out := make([]domain.TransactionRecord, len(la.acct.History))
	copy(out, la.acct.History)
	return out, nil
}

// UpdateAccountInfo updates exactly one mutable field: "balance"
// (administrative override, still non-negative) or "account_type".
// The transaction history is not editable through this path.
func (l *Ledger) UpdateAccountInfo(ctx context.Context, number, field, value string) (domain.Account, error) {
	ctx, span := ledgerTracer.Start(ctx, "Ledger.UpdateAccountInfo")
	defer span.End()

	la := l.lookup(number)
	if la == nil {
		l.metrics.IncrOperation("update_info", "not_found")
		return domain.Account{}, &domain.ErrAccountNotFound{Number: number}
	}

	la.mu.Lock()
	defer la.mu.Unlock()
	if la.closed {
		l.metrics.IncrOperation("update_info", "not_found")
		return domain.Account{}, &domain.ErrAccountNotFound{Number: number}
	}

	beforeBalance := la.acct.Balance
	beforeType := la.acct.AccountType

	switch field {
	case domain.FieldBalance:
		newBalance, err := decimal.NewFromString(value)
		if err != nil {
			l.metrics.IncrOperation("update_info", "invalid_value")
			return domain.Account{}, &domain.ErrValidation{Field: field, Message: "not a valid amount"}
		}
		if newBalance.IsNegative() {
			l.metrics.IncrOperation("update_info", "invalid_amount")
			return domain.Account{}, &domain.ErrInvalidAmount{Amount: newBalance, Reason: "balance cannot be negative"}
		}
		la.acct.Balance = newBalance
	case domain.FieldAccountType:
		if value == "" {
			l.metrics.IncrOperation("update_info", "invalid_value")
			return domain.Account{}, &domain.ErrValidation{Field: field, Message: "cannot be empty"}
		}
		la.acct.AccountType = value
	default:
		l.metrics.IncrOperation("update_info", "invalid_field")
		return domain.Account{}, &domain.ErrInvalidField{Field: field}
	}

	if err := l.store.UpsertAccount(ctx, la.acct.Record()); err != nil {
		la.acct.Balance = beforeBalance
		la.acct.AccountType = beforeType
		l.metrics.IncrPersistenceError("update_info")
		l.metrics.IncrOperation("update_info", "persistence")
		return domain.Account{}, &domain.ErrPersistence{Op: "update_info", Err: err}
	}

	l.metrics.IncrOperation("update_info", "success")
	l.logger.Info("account info updated",
		zap.String("account_number", number),
		zap.String("field", field),
	)
	return la.acct.Snapshot(), nil
}

// ============================================================
// Internal helpers
// ============================================================

func (l *Ledger) lookup(number string) *ledgerAccount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.accounts[number]
}

// newAccountNumber draws "2000" + a random 6-digit suffix until it finds
// one not already in use. Caller holds l.mu.
func (l *Ledger) newAccountNumber() string {
	for {
		number := fmt.Sprintf("%s%d", accountNumberPrefix, 100000+rand.Intn(900000))
		if _, taken := l.accounts[number]; !taken {
			return number
		}
	}
}

// journalAppend writes to the audit journal best-effort. The in-memory
// history and the upserted balance are already durable; a journal miss
// is an observability gap, not a ledger failure.
func (l *Ledger) journalAppend(ctx context.Context, number string, rec domain.TransactionRecord) {
	if l.journal == nil {
		return
	}
	if err := l.journal.Append(ctx, number, rec); err != nil && !errors.Is(err, context.Canceled) {
		l.logger.Warn("transaction journal append failed",
			zap.String("account_number", number),
			zap.String("record_id", rec.ID),
			zap.Error(err),
		)
	}
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Accounts
// ============================================================

// Account is a single customer's balance, identity, credential and
// transaction history. Its mutable state is owned exclusively by the
// Ledger; everything handed out of the service layer is a value copy.
type Account struct {
	Number       string              `json:"account_number"`
	HolderName   string              `json:"holder_name"`
	AccountType  string              `json:"account_type"`
	PersonalInfo string              `json:"personal_info,omitempty"`
	Balance      decimal.Decimal     `json:"balance"`
	PINHash      string              `json:"-"`
	History      []TransactionRecord `json:"-"`
	CreatedAt    time.Time           `json:"created_at"`
}

// Snapshot returns a value copy with its own history slice, safe to hand
// to callers without aliasing the ledger's internal state.
func (a *Account) Snapshot() Account {
	cp := *a
	cp.History = make([]TransactionRecord, len(a.History))
	copy(cp.History, a.History)
	return cp
}

// Record flattens the account into the tuple the store persists.
func (a *Account) Record() AccountRecord {
	return AccountRecord{
		Number:       a.Number,
		HolderName:   a.HolderName,
		AccountType:  a.AccountType,
		Balance:      a.Balance,
		PersonalInfo: a.PersonalInfo,
		PINHash:      a.PINHash,
	}
}

// ============================================================
// Transactions
// ============================================================

// TransactionKind classifies a balance-affecting operation.
type TransactionKind string

const (
	TxDeposit     TransactionKind = "deposit"
	TxWithdrawal  TransactionKind = "withdrawal"
	TxTransferOut TransactionKind = "transfer_out"
	TxTransferIn  TransactionKind = "transfer_in"
)

// TransactionRecord is one entry in an account's append-only history.
// Immutable once appended.
type TransactionRecord struct {
	ID           string          `json:"id"`
	Kind         TransactionKind `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	Counterparty string          `json:"counterparty,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// ============================================================
// Persistence records
// ============================================================

// AccountRecord is the flat tuple the store persists for an account.
// The transaction history is journaled separately.
type AccountRecord struct {
	Number       string
	HolderName   string
	AccountType  string
	Balance      decimal.Decimal
	PersonalInfo string
	PINHash      string
}

// Fields accepted by Ledger.UpdateAccountInfo. The transaction history
// is deliberately not updatable through this path.
const (
	FieldBalance     = "balance"
	FieldAccountType = "account_type"
)

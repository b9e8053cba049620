// Package store provides durable-storage adapters for the ledger: a CSV
// file backend matching the branch's on-disk layout, an in-memory
// backend for tests and dev, and a resilience decorator.
package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	accountsFile     = "account_info.csv"
	employeesFile    = "employee_info.csv"
	transactionsFile = "transactions.csv"
)

var accountsHeader = []string{"account_number", "holder_name", "account_type", "balance", "personal_info", "pin_hash"}
var employeesHeader = []string{"id", "name", "role", "contact_info", "email", "location", "password_hash"}
var transactionsHeader = []string{"account_number", "id", "kind", "amount", "counterparty", "timestamp"}

// CSV persists account and employee records as header-validated CSV files
// under a data directory, with an append-only transaction journal.
// Writes are atomic: a temp file is written and renamed over the original,
// so a crash mid-write never corrupts the store.
type CSV struct {
	mu     sync.Mutex
	dir    string
	logger *zap.Logger
}

// NewCSV creates a CSV store rooted at dir, creating it if needed.
func NewCSV(dir string, logger *zap.Logger) (*CSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &CSV{dir: dir, logger: logger}, nil
}

// ============================================================
// Accounts
// ============================================================

// LoadAccounts reads all account records. A missing file means an empty
// ledger. Malformed rows are rejected with an error rather than skipped:
// a store that silently drops accounts is worse than one that refuses to
// start.
func (s *CSV) LoadAccounts(ctx context.Context) ([]domain.AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readAll(accountsFile, accountsHeader)
	if err != nil {
		return nil, err
	}

	recs := make([]domain.AccountRecord, 0, len(rows))
	for i, row := range rows {
		balance, err := decimal.NewFromString(row[3])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad balance %q: %w", accountsFile, i+1, row[3], err)
		}
		recs = append(recs, domain.AccountRecord{
			Number:       row[0],
			HolderName:   row[1],
			AccountType:  row[2],
			Balance:      balance,
			PersonalInfo: row[4],
			PINHash:      row[5],
		})
	}
	return recs, nil
}

// UpsertAccount replaces or appends one record and atomically rewrites
// the file.
func (s *CSV) UpsertAccount(ctx context.Context, rec domain.AccountRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readAll(accountsFile, accountsHeader)
	if err != nil {
		return err
	}

	newRow := []string{rec.Number, rec.HolderName, rec.AccountType, rec.Balance.String(), rec.PersonalInfo, rec.PINHash}
	replaced := false
	for i, row := range rows {
		if row[0] == rec.Number {
			rows[i] = newRow
			replaced = true
			break
		}
	}
	if !replaced {
		rows = append(rows, newRow)
	}
	return s.writeAll(accountsFile, accountsHeader, rows)
}

// RemoveAccount deletes the record for number, if present.
func (s *CSV) RemoveAccount(ctx context.Context, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readAll(accountsFile, accountsHeader)
	if err != nil {
		return err
	}

	kept := rows[:0]
	for _, row := range rows {
		if row[0] != number {
			kept = append(kept, row)
		}
	}
	return s.writeAll(accountsFile, accountsHeader, kept)
}

// ============================================================
// Employees
// ============================================================

func (s *CSV) LoadEmployees(ctx context.Context) ([]domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readAll(employeesFile, employeesHeader)
	if err != nil {
		return nil, err
	}

	emps := make([]domain.Employee, 0, len(rows))
	for i, row := range rows {
		role, err := domain.ParseRole(row[2])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", employeesFile, i+1, err)
		}
		emps = append(emps, domain.Employee{
			ID:           row[0],
			Name:         row[1],
			Role:         role,
			ContactInfo:  row[3],
			Email:        row[4],
			Location:     row[5],
			PasswordHash: row[6],
		})
	}
	return emps, nil
}

func (s *CSV) UpsertEmployee(ctx context.Context, emp domain.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readAll(employeesFile, employeesHeader)
	if err != nil {
		return err
	}

	newRow := []string{emp.ID, emp.Name, string(emp.Role), emp.ContactInfo, emp.Email, emp.Location, emp.PasswordHash}
	replaced := false
	for i, row := range rows {
		if row[0] == emp.ID {
			rows[i] = newRow
			replaced = true
			break
		}
	}
	if !replaced {
		rows = append(rows, newRow)
	}
	return s.writeAll(employeesFile, employeesHeader, rows)
}

func (s *CSV) RemoveEmployee(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readAll(employeesFile, employeesHeader)
	if err != nil {
		return err
	}

	kept := rows[:0]
	for _, row := range rows {
		if row[0] != id {
			kept = append(kept, row)
		}
	}
	return s.writeAll(employeesFile, employeesHeader, kept)
}

// ============================================================
// Transaction journal
// ============================================================

// Append writes transaction records to the audit journal. The journal is
// append-only; rows are never rewritten.
func (s *CSV) Append(ctx context.Context, accountNumber string, recs ...domain.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, transactionsFile)
	writeHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		writeHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(transactionsHeader); err != nil {
			return fmt.Errorf("write journal header: %w", err)
		}
	}
	for _, rec := range recs {
		row := []string{
			accountNumber,
			rec.ID,
			string(rec.Kind),
			rec.Amount.String(),
			rec.Counterparty,
			rec.Timestamp.Format(time.RFC3339Nano),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write journal row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// ============================================================
// File helpers
// ============================================================

// readAll reads and validates one CSV file. The header must match
// exactly and every row must have the full column count; csv.Reader
// enforces the latter via FieldsPerRecord.
func (s *CSV) readAll(name string, header []string) ([][]string, error) {
	path := filepath.Join(s.dir, name)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	for i, col := range header {
		if rows[0][i] != col {
			return nil, fmt.Errorf("%s: unexpected header %v", name, rows[0])
		}
	}
	return rows[1:], nil
}

// writeAll atomically rewrites one CSV file (temp file + rename).
func (s *CSV) writeAll(name string, header []string, rows [][]string) error {
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

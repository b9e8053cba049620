package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/domain"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/handler"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/infra/cache"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/infra/observability"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/infra/resilience"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/service"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// buildStack wires the whole application over a CSV store rooted at dir,
// the same way main does.
func buildStack(t *testing.T, dir string) (http.Handler, *service.Ledger) {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	csv, err := store.NewCSV(dir, logger)
	if err != nil {
		t.Fatalf("csv store: %v", err)
	}
	cfg := resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxConcurrency: 4}
	accounts := store.NewResilient(csv, resilience.NewCircuitBreaker("account-store"), cfg)

	ledger := service.NewLedger(accounts, csv, metrics, logger)
	if err := ledger.Load(context.Background()); err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	directory := service.NewEmployeeDirectory(csv, logger)
	if err := directory.Load(context.Background()); err != nil {
		t.Fatalf("load directory: %v", err)
	}

	sessions := cache.New[service.SessionIdentity](time.Hour)
	auth := service.NewAuthService(ledger, directory, sessions, []byte("integration-secret"), time.Minute, time.Hour, metrics, logger)
	reports := service.NewReportService(ledger, logger)

	return handler.NewRouter(ledger, auth, directory, reports, metrics, logger), ledger
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestFullFlowSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	router, _ := buildStack(t, dir)

	// Open two accounts at the counter.
	rec := do(t, router, http.MethodPost, "/v1/accounts", map[string]any{
		"holder_name": "Ada Lovelace", "account_type": "checking",
		"initial_balance": "500.00", "pin": "4821",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	var a struct {
		Number string `json:"account_number"`
	}
	json.Unmarshal(rec.Body.Bytes(), &a)

	rec = do(t, router, http.MethodPost, "/v1/accounts", map[string]any{
		"holder_name": "Grace Hopper", "account_type": "savings",
		"initial_balance": "100.00", "pin": "9999",
	})
	var b struct {
		Number string `json:"account_number"`
	}
	json.Unmarshal(rec.Body.Bytes(), &b)

	// Move money around.
	if rec := do(t, router, http.MethodPost, "/v1/accounts/"+a.Number+"/deposit", map[string]any{"amount": "50"}); rec.Code != http.StatusOK {
		t.Fatalf("deposit: status %d body %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, router, http.MethodPost, "/v1/transfers", map[string]any{
		"from": a.Number, "to": b.Number, "amount": "200", "pin": "4821",
	}); rec.Code != http.StatusOK {
		t.Fatalf("transfer: status %d body %s", rec.Code, rec.Body.String())
	}

	// A rejected transfer changes nothing.
	if rec := do(t, router, http.MethodPost, "/v1/transfers", map[string]any{
		"from": a.Number, "to": b.Number, "amount": "1", "pin": "0000",
	}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad-pin transfer: status %d, want 401", rec.Code)
	}

	// Simulate a process restart over the same data directory.
	_, reloaded := buildStack(t, dir)

	acctA, err := reloaded.GetAccount(context.Background(), a.Number)
	if err != nil {
		t.Fatalf("reload account a: %v", err)
	}
	acctB, err := reloaded.GetAccount(context.Background(), b.Number)
	if err != nil {
		t.Fatalf("reload account b: %v", err)
	}

	if !acctA.Balance.Equal(decimal.RequireFromString("350")) {
		t.Errorf("account a balance after restart = %s, want 350", acctA.Balance)
	}
	if !acctB.Balance.Equal(decimal.RequireFromString("300")) {
		t.Errorf("account b balance after restart = %s, want 300", acctB.Balance)
	}

	// PINs survive the restart too.
	if !reloaded.Authenticate(context.Background(), a.Number, "4821") {
		t.Error("reloaded account must still authenticate")
	}

	// The audit journal recorded the deposit and both transfer legs.
	data, err := os.ReadFile(filepath.Join(dir, "transactions.csv"))
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	if !bytes.Contains(data, []byte(string(domain.TxTransferOut))) || !bytes.Contains(data, []byte(string(domain.TxTransferIn))) {
		t.Error("journal is missing transfer records")
	}
	if !bytes.Contains(data, []byte(string(domain.TxDeposit))) {
		t.Error("journal is missing the deposit record")
	}
}

func TestCloseAccountIsDurable(t *testing.T) {
	dir := t.TempDir()
	router, ledger := buildStack(t, dir)

	rec := do(t, router, http.MethodPost, "/v1/accounts", map[string]any{
		"holder_name": "Ada", "initial_balance": "0", "pin": "4821",
	})
	var a struct {
		Number string `json:"account_number"`
	}
	json.Unmarshal(rec.Body.Bytes(), &a)

	if err := ledger.CloseAccount(context.Background(), a.Number); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, reloaded := buildStack(t, dir)
	if _, err := reloaded.GetAccount(context.Background(), a.Number); err == nil {
		t.Error("closed account reappeared after restart")
	}
}

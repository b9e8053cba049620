package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/domain"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/infra/cache"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/infra/observability"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/service"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/store"

	"go.uber.org/zap"
)

type testEnv struct {
	router    http.Handler
	ledger    *service.Ledger
	auth      *service.AuthService
	directory *service.EmployeeDirectory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	mem := store.NewMemory()

	ledger := service.NewLedger(mem, mem, metrics, logger)
	if err := ledger.Load(context.Background()); err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	directory := service.NewEmployeeDirectory(mem, logger)
	if err := directory.Load(context.Background()); err != nil {
		t.Fatalf("load directory: %v", err)
	}

	sessions := cache.New[service.SessionIdentity](time.Hour)
	auth := service.NewAuthService(ledger, directory, sessions, []byte("test-secret"), time.Minute, time.Hour, metrics, logger)
	reports := service.NewReportService(ledger, logger)

	return &testEnv{
		router:    NewRouter(ledger, auth, directory, reports, metrics, logger),
		ledger:    ledger,
		auth:      auth,
		directory: directory,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createAccount(t *testing.T, balance, pin string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/v1/accounts", "", map[string]any{
		"holder_name":     "Ada Lovelace",
		"account_type":    "checking",
		"initial_balance": balance,
		"personal_info":   "12 Analytical Way",
		"pin":             pin,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Number string `json:"account_number"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return resp.Number
}

func (e *testEnv) managerToken(t *testing.T) string {
	t.Helper()
	_, err := e.directory.AddEmployee(context.Background(), "Margaret", domain.RoleBranchManager, "555", "m@branch", "Main", "hunter2hunter2")
	if err != nil {
		t.Fatalf("add manager: %v", err)
	}
	emps := e.directory.ListEmployees(context.Background())
	pair, err := e.auth.LoginEmployee(context.Background(), emps[0].ID, "hunter2hunter2")
	if err != nil {
		t.Fatalf("manager login: %v", err)
	}
	return pair.AccessToken
}

func TestOperationalEndpoints(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/healthz", "/readyz", "/ping", "/metrics", "/v1/metrics/ledger"} {
		rec := env.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: status %d", path, rec.Code)
		}
	}
}

func TestAccountLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	number := env.createAccount(t, "100.00", "4821")

	rec := env.do(t, http.MethodPost, "/v1/accounts/"+number+"/deposit", "", map[string]any{"amount": "50"})
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/v1/accounts/"+number+"/withdraw", "", map[string]any{"amount": "200"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("overdraft withdraw: status %d, want 422", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/v1/accounts/"+number+"/deposit", "", map[string]any{"amount": "-1"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative deposit: status %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/v1/accounts/2000999999/deposit", "", map[string]any{"amount": "1"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("deposit to unknown account: status %d, want 404", rec.Code)
	}
}

func TestAuthenticateEndpoint(t *testing.T) {
	env := newTestEnv(t)
	number := env.createAccount(t, "0", "4821")

	rec := env.do(t, http.MethodPost, "/v1/accounts/"+number+"/authenticate", "", map[string]any{"pin": "4821"})
	var resp map[string]bool
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if rec.Code != http.StatusOK || !resp["authenticated"] {
		t.Errorf("correct pin: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/v1/accounts/"+number+"/authenticate", "", map[string]any{"pin": "0000"})
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if rec.Code != http.StatusOK || resp["authenticated"] {
		t.Errorf("wrong pin: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestTransferOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	from := env.createAccount(t, "500", "4821")
	to := env.createAccount(t, "100", "9999")

	rec := env.do(t, http.MethodPost, "/v1/transfers", "", map[string]any{
		"from": from, "to": to, "amount": "120", "pin": "4821",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("transfer: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/v1/transfers", "", map[string]any{
		"from": from, "to": to, "amount": "10", "pin": "0000",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong pin transfer: status %d, want 401", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/v1/transfers", "", map[string]any{
		"from": from, "to": from, "amount": "10", "pin": "4821",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("self transfer: status %d, want 400", rec.Code)
	}
}

func TestCustomerSessionAndHistory(t *testing.T) {
	env := newTestEnv(t)
	number := env.createAccount(t, "100", "4821")
	other := env.createAccount(t, "0", "9999")

	// History without a token is rejected.
	rec := env.do(t, http.MethodGet, "/v1/accounts/"+number+"/history", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("history without token: status %d, want 401", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"account_number": number, "pin": "4821",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}
	var pair service.TokenPair
	json.Unmarshal(rec.Body.Bytes(), &pair)

	env.do(t, http.MethodPost, "/v1/accounts/"+number+"/deposit", "", map[string]any{"amount": "25"})

	rec = env.do(t, http.MethodGet, "/v1/accounts/"+number+"/history", pair.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: status %d body %s", rec.Code, rec.Body.String())
	}
	var hist struct {
		Transactions []domain.TransactionRecord `json:"transactions"`
	}
	json.Unmarshal(rec.Body.Bytes(), &hist)
	if len(hist.Transactions) != 1 || hist.Transactions[0].Kind != domain.TxDeposit {
		t.Errorf("history = %+v", hist.Transactions)
	}

	// A customer may not read someone else's account.
	rec = env.do(t, http.MethodGet, "/v1/accounts/"+other+"/history", pair.AccessToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign history: status %d, want 403", rec.Code)
	}

	// Customers cannot reach admin routes.
	rec = env.do(t, http.MethodGet, "/v1/admin/accounts", pair.AccessToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("admin route as customer: status %d, want 403", rec.Code)
	}
}

func TestLoginWrongPIN(t *testing.T) {
	env := newTestEnv(t)
	number := env.createAccount(t, "0", "4821")

	rec := env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"account_number": number, "pin": "0000",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong pin login: status %d, want 401", rec.Code)
	}
}

func TestAdminRoutes(t *testing.T) {
	env := newTestEnv(t)
	token := env.managerToken(t)
	number := env.createAccount(t, "50000", "4821")
	env.do(t, http.MethodPost, "/v1/accounts/"+number+"/deposit", "", map[string]any{"amount": "20000"})

	rec := env.do(t, http.MethodGet, "/v1/admin/accounts", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list accounts: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/v1/admin/transactions?threshold=10000", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("monitor: status %d body %s", rec.Code, rec.Body.String())
	}
	var monitor struct {
		Count int `json:"count"`
	}
	json.Unmarshal(rec.Body.Bytes(), &monitor)
	if monitor.Count != 1 {
		t.Errorf("flagged transactions = %d, want 1", monitor.Count)
	}

	rec = env.do(t, http.MethodGet, "/v1/admin/reports/activity", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("activity report: status %d body %s", rec.Code, rec.Body.String())
	}

	// Managers may update account info.
	rec = env.do(t, http.MethodPatch, "/v1/accounts/"+number, token, map[string]any{
		"field": "account_type", "value": "savings",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update info: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPatch, "/v1/accounts/"+number, token, map[string]any{
		"field": "transaction_history", "value": "[]",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("history update: status %d, want 400", rec.Code)
	}
}

func TestEmployeeCRUDOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	token := env.managerToken(t)

	rec := env.do(t, http.MethodPost, "/v1/admin/employees", token, map[string]any{
		"name": "Carl", "role": "teller", "contact_info": "555", "email": "c@branch", "location": "Main", "password": "longenough",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add employee: status %d body %s", rec.Code, rec.Body.String())
	}
	var emp domain.Employee
	json.Unmarshal(rec.Body.Bytes(), &emp)

	rec = env.do(t, http.MethodGet, "/v1/admin/employees/"+emp.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get employee: status %d", rec.Code)
	}

	rec = env.do(t, http.MethodPatch, "/v1/admin/employees/"+emp.ID, token, map[string]any{"role": "loan_officer"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update employee: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/v1/admin/employees", token, map[string]any{
		"name": "Eve", "role": "astronaut", "password": "longenough",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad role: status %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/v1/admin/employees/"+emp.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove employee: status %d", rec.Code)
	}
}

func TestRefreshAndLogoutOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	number := env.createAccount(t, "0", "4821")

	rec := env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"account_number": number, "pin": "4821",
	})
	var pair service.TokenPair
	json.Unmarshal(rec.Body.Bytes(), &pair)

	rec = env.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]any{"refresh_token": pair.RefreshToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: status %d body %s", rec.Code, rec.Body.String())
	}
	var next service.TokenPair
	json.Unmarshal(rec.Body.Bytes(), &next)

	rec = env.do(t, http.MethodPost, "/v1/auth/logout", next.AccessToken, map[string]any{"refresh_token": next.RefreshToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: status %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]any{"refresh_token": next.RefreshToken})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout: status %d, want 401", rec.Code)
	}
}

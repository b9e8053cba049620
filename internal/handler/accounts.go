package handler

import (
	"net/http"

	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ============================================================
// Request / response shapes
// ============================================================

type createAccountRequest struct {
	HolderName     string          `json:"holder_name"`
	AccountType    string          `json:"account_type"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	PersonalInfo   string          `json:"personal_info"`
	PIN            string          `json:"pin"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type transferRequest struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
	PIN    string          `json:"pin"`
}

type authenticateRequest struct {
	PIN string `json:"pin"`
}

type updateAccountRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// ============================================================
// Handlers
// ============================================================

func createAccountHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAccountRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.HolderName == "" {
			writeError(w, http.StatusBadRequest, "holder_name is required")
			return
		}

		acct, err := ledger.CreateAccount(r.Context(), req.HolderName, req.AccountType, req.InitialBalance, req.PersonalInfo, req.PIN)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, acct)
	}
}

func depositHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req amountRequest
		if !decodeBody(w, r, &req) {
			return
		}

		acct, err := ledger.Deposit(r.Context(), chi.URLParam(r, "accountNumber"), req.Amount)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, acct)
	}
}

func withdrawHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req amountRequest
		if !decodeBody(w, r, &req) {
			return
		}

		acct, err := ledger.Withdraw(r.Context(), chi.URLParam(r, "accountNumber"), req.Amount)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, acct)
	}
}

func transferHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req transferRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.From == "" || req.To == "" {
			writeError(w, http.StatusBadRequest, "from and to account numbers are required")
			return
		}

		sender, err := ledger.Transfer(r.Context(), req.From, req.To, req.Amount, req.PIN)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sender)
	}
}

func authenticateHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authenticateRequest
		if !decodeBody(w, r, &req) {
			return
		}

		ok := ledger.Authenticate(r.Context(), chi.URLParam(r, "accountNumber"), req.PIN)
		writeJSON(w, http.StatusOK, map[string]bool{"authenticated": ok})
	}
}

func getAccountHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number := chi.URLParam(r, "accountNumber")
		if !canAccessAccount(r, number) {
			writeError(w, http.StatusForbidden, "access to this account is not allowed")
			return
		}

		acct, err := ledger.GetAccount(r.Context(), number)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, acct)
	}
}

func historyHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number := chi.URLParam(r, "accountNumber")
		if !canAccessAccount(r, number) {
			writeError(w, http.StatusForbidden, "access to this account is not allowed")
			return
		}

		history, err := ledger.TransactionHistory(r.Context(), number)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"account_number": number,
			"transactions":   history,
		})
	}
}

func updateAccountHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil || claims.Kind != service.PrincipalEmployee {
			writeError(w, http.StatusForbidden, "employee access required")
			return
		}

		var req updateAccountRequest
		if !decodeBody(w, r, &req) {
			return
		}

		acct, err := ledger.UpdateAccountInfo(r.Context(), chi.URLParam(r, "accountNumber"), req.Field, req.Value)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, acct)
	}
}

func closeAccountHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number := chi.URLParam(r, "accountNumber")
		if !canAccessAccount(r, number) {
			writeError(w, http.StatusForbidden, "access to this account is not allowed")
			return
		}

		if err := ledger.CloseAccount(r.Context(), number); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
	}
}

// canAccessAccount allows employees to touch any account and customers
// only their own.
func canAccessAccount(r *http.Request, number string) bool {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		return false
	}
	if claims.Kind == service.PrincipalEmployee {
		return true
	}
	return claims.Subject == number
}

// Package handler exposes the ledger over HTTP. Handlers are thin:
// decode, call the service, map errors, encode.
package handler

import (
	"net/http"

	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/domain"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/infra/observability"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(ledger *service.Ledger, authSvc *service.AuthService, directory *service.EmployeeDirectory, reports *service.ReportService, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Accounts (public branch counter operations)
		// =============================================
		r.Post("/accounts", createAccountHandler(ledger, logger))
		r.Post("/accounts/{accountNumber}/deposit", depositHandler(ledger, logger))
		r.Post("/accounts/{accountNumber}/withdraw", withdrawHandler(ledger, logger))
		r.Post("/accounts/{accountNumber}/authenticate", authenticateHandler(ledger, logger))
		r.Post("/transfers", transferHandler(ledger, logger))

		// =============================================
		// Sessions
		// =============================================
		r.Post("/auth/login", customerLoginHandler(authSvc, logger))
		r.Post("/auth/employee/login", employeeLoginHandler(authSvc, logger))
		r.Post("/auth/refresh", refreshHandler(authSvc, logger))

		// =============================================
		// Authenticated account access
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(authSvc, logger))

			r.Get("/accounts/{accountNumber}", getAccountHandler(ledger, logger))
			r.Get("/accounts/{accountNumber}/history", historyHandler(ledger, logger))
			r.Patch("/accounts/{accountNumber}", updateAccountHandler(ledger, logger))
			r.Delete("/accounts/{accountNumber}", closeAccountHandler(ledger, logger))
			r.Post("/auth/logout", logoutHandler(authSvc, logger))
		})

		// =============================================
		// Branch administration (managers only; reports
		// also open to accountants)
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(authSvc, logger))
			r.Use(RequireRole(logger, string(domain.RoleBranchManager), string(domain.RoleAccountant)))

			r.Get("/admin/accounts", listAccountsHandler(ledger, logger))
			r.Get("/admin/transactions", monitorTransactionsHandler(reports, logger))
			r.Get("/admin/reports/activity", activityReportHandler(reports, logger))
		})

		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(authSvc, logger))
			r.Use(RequireRole(logger, string(domain.RoleBranchManager)))

			r.Get("/admin/employees", listEmployeesHandler(directory, logger))
			r.Post("/admin/employees", addEmployeeHandler(directory, logger))
			r.Get("/admin/employees/{employeeID}", getEmployeeHandler(directory, logger))
			r.Patch("/admin/employees/{employeeID}", updateEmployeeHandler(directory, logger))
			r.Delete("/admin/employees/{employeeID}", removeEmployeeHandler(directory, logger))
		})

		// =============================================
		// Ledger metrics snapshot
		// =============================================
		r.Get("/metrics/ledger", ledgerMetricsHandler(metrics, logger))
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func ledgerMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetLedgerSnapshot())
	}
}

package handler

import (
	"net/http"

	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/domain"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Default threshold for the transaction monitor when the query parameter
// is absent.
var defaultMonitorThreshold = decimal.NewFromInt(10000)

type addEmployeeRequest struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	ContactInfo string `json:"contact_info"`
	Email       string `json:"email"`
	Location    string `json:"location"`
	Password    string `json:"password"`
}

type updateEmployeeRequest struct {
	Role     *string `json:"role"`
	Location *string `json:"location"`
}

func listAccountsHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts := ledger.ListAccounts(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{
			"accounts": accounts,
			"count":    len(accounts),
		})
	}
}

func monitorTransactionsHandler(reports *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threshold := defaultMonitorThreshold
		if v := r.URL.Query().Get("threshold"); v != "" {
			parsed, err := decimal.NewFromString(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "threshold is not a valid amount")
				return
			}
			threshold = parsed
		}

		flagged, err := reports.MonitorTransactions(r.Context(), threshold)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"threshold": threshold,
			"flagged":   flagged,
			"count":     len(flagged),
		})
	}
}

func activityReportHandler(reports *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, reports.GenerateActivityReport(r.Context()))
	}
}

func listEmployeesHandler(directory *service.EmployeeDirectory, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		employees := directory.ListEmployees(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{
			"employees": employees,
			"count":     len(employees),
		})
	}
}

func addEmployeeHandler(directory *service.EmployeeDirectory, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addEmployeeRequest
		if !decodeBody(w, r, &req) {
			return
		}

		emp, err := directory.AddEmployee(r.Context(), req.Name, domain.Role(req.Role), req.ContactInfo, req.Email, req.Location, req.Password)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, emp)
	}
}

func getEmployeeHandler(directory *service.EmployeeDirectory, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		emp, err := directory.GetEmployee(r.Context(), chi.URLParam(r, "employeeID"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, emp)
	}
}

func updateEmployeeHandler(directory *service.EmployeeDirectory, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateEmployeeRequest
		if !decodeBody(w, r, &req) {
			return
		}

		var role *domain.Role
		if req.Role != nil {
			converted := domain.Role(*req.Role)
			role = &converted
		}

		emp, err := directory.UpdateEmployee(r.Context(), chi.URLParam(r, "employeeID"), role, req.Location)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, emp)
	}
}

func removeEmployeeHandler(directory *service.EmployeeDirectory, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := directory.RemoveEmployee(r.Context(), chi.URLParam(r, "employeeID")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
	}
}

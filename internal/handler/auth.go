package handler

import (
	"net/http"

	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/service"

	"go.uber.org/zap"
)

type customerLoginRequest struct {
	AccountNumber string `json:"account_number"`
	PIN           string `json:"pin"`
}

type employeeLoginRequest struct {
	EmployeeID string `json:"employee_id"`
	Password   string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func customerLoginHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req customerLoginRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.AccountNumber == "" {
			writeError(w, http.StatusBadRequest, "account_number is required")
			return
		}

		pair, err := authSvc.LoginCustomer(r.Context(), req.AccountNumber, req.PIN)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

func employeeLoginHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req employeeLoginRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.EmployeeID == "" {
			writeError(w, http.StatusBadRequest, "employee_id is required")
			return
		}

		pair, err := authSvc.LoginEmployee(r.Context(), req.EmployeeID, req.Password)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

func refreshHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if !decodeBody(w, r, &req) {
			return
		}

		pair, err := authSvc.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

func logoutHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if !decodeBody(w, r, &req) {
			return
		}

		authSvc.Logout(r.Context(), req.RefreshToken)
		writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
	}
}

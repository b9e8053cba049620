package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/domain"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/infra/cache"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/infra/observability"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type stubAuthenticator struct {
	number, pin string
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, number, pin string) bool {
	return number == s.number && pin == s.pin
}

type stubEmployees struct {
	emp domain.Employee
}

func (s *stubEmployees) GetEmployee(ctx context.Context, id string) (domain.Employee, error) {
	if id != s.emp.ID {
		return domain.Employee{}, &domain.ErrAccountNotFound{Number: id}
	}
	return s.emp, nil
}

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	employees := &stubEmployees{emp: domain.Employee{
		ID:           "emp-1",
		Name:         "Margaret",
		Role:         domain.RoleBranchManager,
		PasswordHash: string(hash),
	}}
	return NewAuthService(
		&stubAuthenticator{number: "2000123456", pin: "4821"},
		employees,
		cache.New[SessionIdentity](time.Hour),
		[]byte("test-secret"),
		time.Minute,
		time.Hour,
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func TestCustomerLogin(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	pair, err := svc.LoginCustomer(ctx, "2000123456", "4821")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("login must return both tokens")
	}

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "2000123456" || claims.Kind != PrincipalCustomer {
		t.Errorf("claims = %+v", claims)
	}
}

func TestCustomerLoginWrongPIN(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.LoginCustomer(context.Background(), "2000123456", "0000")
	var authFailed *domain.ErrAuthenticationFailed
	if !errors.As(err, &authFailed) {
		t.Fatalf("err = %v, want ErrAuthenticationFailed", err)
	}
}

func TestEmployeeLogin(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	pair, err := svc.LoginEmployee(ctx, "emp-1", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Kind != PrincipalEmployee || claims.Role != string(domain.RoleBranchManager) {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := svc.LoginEmployee(ctx, "emp-1", "wrong"); err == nil {
		t.Error("wrong password must be rejected")
	}
	if _, err := svc.LoginEmployee(ctx, "ghost", "hunter2hunter2"); err == nil {
		t.Error("unknown employee must be rejected")
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	pair, err := svc.LoginCustomer(ctx, "2000123456", "4821")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Error("refresh must issue a new refresh token")
	}

	// The consumed token is single use.
	if _, err := svc.Refresh(ctx, pair.RefreshToken); err == nil {
		t.Error("a consumed refresh token must be rejected")
	}

	claims, err := svc.ValidateAccessToken(next.AccessToken)
	if err != nil {
		t.Fatalf("validate rotated token: %v", err)
	}
	if claims.Subject != "2000123456" {
		t.Errorf("rotated session subject = %s", claims.Subject)
	}
}

func TestLogoutInvalidatesRefreshToken(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	pair, _ := svc.LoginCustomer(ctx, "2000123456", "4821")
	svc.Logout(ctx, pair.RefreshToken)

	if _, err := svc.Refresh(ctx, pair.RefreshToken); err == nil {
		t.Error("refresh after logout must be rejected")
	}
}

func TestValidateAccessTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(t)

	for _, token := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		if _, err := svc.ValidateAccessToken(token); err == nil {
			t.Errorf("token %q should not validate", token)
		}
	}
}

package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/domain"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/infra/observability"
	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authTracer = otel.Tracer("service/auth")

// Principal kinds carried in the access token.
const (
	PrincipalCustomer = "customer"
	PrincipalEmployee = "employee"
)

// SessionClaims is the JWT payload for an authenticated principal.
// Subject holds the account number for customers and the employee ID
// for staff; Role is set only for employees.
type SessionClaims struct {
	Kind string `json:"kind"`
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// SessionIdentity is what the refresh-token cache remembers about a
// live session, keyed by the sha256 of the opaque refresh token.
type SessionIdentity struct {
	Subject string
	Kind    string
	Role    string
}

// TokenPair is returned from every successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type pinAuthenticator interface {
	Authenticate(ctx context.Context, number, pin string) bool
}

type employeeLookup interface {
	GetEmployee(ctx context.Context, id string) (domain.Employee, error)
}

// AuthService exchanges credentials for short-lived HS256 access tokens
// plus opaque rotating refresh tokens. Refresh tokens are single use:
// a refresh invalidates the presented token and issues a new one.
type AuthService struct {
	ledger    pinAuthenticator
	employees employeeLookup
	sessions  port.Cache[SessionIdentity]

	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewAuthService(ledger pinAuthenticator, employees employeeLookup, sessions port.Cache[SessionIdentity], secret []byte, accessTTL, refreshTTL time.Duration, metrics *observability.Metrics, logger *zap.Logger) *AuthService {
	return &AuthService{
		ledger:     ledger,
		employees:  employees,
		sessions:   sessions,
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		metrics:    metrics,
		logger:     logger,
	}
}

// LoginCustomer verifies the account PIN and opens a session. Wrong PIN
// and unknown account number produce the same error.
func (s *AuthService) LoginCustomer(ctx context.Context, accountNumber, pin string) (TokenPair, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.LoginCustomer")
	defer span.End()

	if !s.ledger.Authenticate(ctx, accountNumber, pin) {
		s.logger.Warn("customer login rejected", zap.String("account_number", accountNumber))
		return TokenPair{}, &domain.ErrAuthenticationFailed{}
	}

	pair, err := s.openSession(SessionIdentity{Subject: accountNumber, Kind: PrincipalCustomer})
	if err != nil {
		return TokenPair{}, err
	}
	s.logger.Info("customer session opened", zap.String("account_number", accountNumber))
	return pair, nil
}

// LoginEmployee verifies the employee password against its bcrypt hash
// and opens a session carrying the employee's role.
func (s *AuthService) LoginEmployee(ctx context.Context, employeeID, password string) (TokenPair, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.LoginEmployee")
	defer span.End()

	emp, err := s.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		s.metrics.IncrAuthAttempt("failure")
		return TokenPair{}, &domain.ErrAuthenticationFailed{}
	}
	if bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(password)) != nil {
		s.metrics.IncrAuthAttempt("failure")
		s.logger.Warn("employee login rejected", zap.String("employee_id", employeeID))
		return TokenPair{}, &domain.ErrAuthenticationFailed{}
	}
	s.metrics.IncrAuthAttempt("success")

	pair, err := s.openSession(SessionIdentity{Subject: emp.ID, Kind: PrincipalEmployee, Role: string(emp.Role)})
	if err != nil {
		return TokenPair{}, err
	}
	s.logger.Info("employee session opened",
		zap.String("employee_id", emp.ID),
		zap.String("role", string(emp.Role)),
	)
	return pair, nil
}

// Refresh rotates the session: the presented refresh token is consumed
// and a fresh pair is minted for the same principal. A token that was
// already used, expired or never issued yields an unauthorized error.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	_, span := authTracer.Start(ctx, "AuthService.Refresh")
	defer span.End()

	key := hashToken(refreshToken)
	identity, ok := s.sessions.Get(key)
	if !ok {
		return TokenPair{}, &domain.ErrUnauthorized{Message: "invalid or expired refresh token"}
	}
	s.sessions.Delete(key)

	return s.openSession(identity)
}

// Logout invalidates the refresh token. The access token stays valid
// until its own expiry; it is short-lived on purpose.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	_, span := authTracer.Start(ctx, "AuthService.Logout")
	defer span.End()

	s.sessions.Delete(hashToken(refreshToken))
}

// ValidateAccessToken parses and verifies an access token, enforcing
// the HS256 signing method.
func (s *AuthService) ValidateAccessToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired access token"}
	}
	return claims, nil
}

func (s *AuthService) openSession(identity SessionIdentity) (TokenPair, error) {
	access, err := s.signAccessToken(identity)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := generateRefreshToken()
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}
	s.sessions.Set(hashToken(refresh), identity)

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *AuthService) signAccessToken(identity SessionIdentity) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Kind: identity.Kind,
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

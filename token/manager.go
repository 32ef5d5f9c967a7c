package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/hr-gateway/internal/errors"
	"github.com/jrsteele09/hr-gateway/tenants"
)

const (
	// Header carries the session token issued on login.
	Header = "X-Session-Token"

	defaultIssuer = "hr-gateway"
)

// Claims bind a session token to the user and the tenant they logged into.
type Claims struct {
	Username string `json:"username"`
	Tenant   string `json:"dbName"`
	jwt.RegisteredClaims
}

// Manager issues and verifies session tokens.
type Manager struct {
	signer  *HMACSigner
	issuer  string
	expiry  time.Duration
	revoked RevokedCache
	nowFunc func() time.Time
}

type ManagerOption func(*Manager)

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithRevokedCache(cache RevokedCache) ManagerOption {
	return func(m *Manager) {
		m.revoked = cache
	}
}

// New creates a Manager whose tokens live for expiry, matching the client
// session duration.
func New(signer *HMACSigner, expiry time.Duration, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:  signer,
		issuer:  defaultIssuer,
		expiry:  expiry,
		revoked: NewInMemoryRevokedCache(),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Issue signs a token for username on tenant.
func (m *Manager) Issue(username, tenant string) (string, *Claims, error) {
	now := m.nowFunc()
	claims := &Claims{
		Username: strings.TrimSpace(username),
		Tenant:   tenants.NormaliseName(tenant),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   strings.TrimSpace(username),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			ID:        uuid.New().String(),
		},
	}
	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify parses raw and checks signature, issuer, expiry and revocation.
func (m *Manager) Verify(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperrors.ErrInvalidToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, m.signer.VerificationKey,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.nowFunc),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %v", apperrors.ErrTokenExpired, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}

	if m.revoked.IsRevoked(claims.ID) {
		return nil, fmt.Errorf("%w: revoked", apperrors.ErrInvalidToken)
	}
	return claims, nil
}

// Revoke invalidates raw until it would have expired.
func (m *Manager) Revoke(raw string) error {
	claims, err := m.Verify(raw)
	if err != nil {
		return err
	}
	m.revoked.Add(claims.ID, claims.ExpiresAt.Time)
	return nil
}

// CleanupRevoked forgets revoked tokens that have since expired.
func (m *Manager) CleanupRevoked() int {
	return m.revoked.Cleanup(m.nowFunc())
}

// FromRequest reads the token from the session header or a bearer
// Authorization header.
func FromRequest(header func(string) string) string {
	if t := strings.TrimSpace(header(Header)); t != "" {
		return t
	}
	auth := strings.TrimSpace(header("Authorization"))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

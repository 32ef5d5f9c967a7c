package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jrsteele09/hr-gateway/forward"
	apperrors "github.com/jrsteele09/hr-gateway/internal/errors"
	"github.com/jrsteele09/hr-gateway/tenants"
	"github.com/jrsteele09/hr-gateway/token"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores the verified session token claims
	ContextKeyClaims ContextKey = "claims"
)

// ClaimsFromContext returns the claims stored by RequireSessionToken.
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*token.Claims)
	return claims, ok
}

// RequireSessionToken rejects requests without a valid session token for the
// requested tenant. It is a pass-through unless REQUIRE_SESSION_TOKEN is set.
func (s *Server) RequireSessionToken() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !s.config.GetRequireSessionToken() || s.tokens == nil {
				next(w, r)
				return
			}

			claims, err := s.tokens.Verify(token.FromRequest(r.Header.Get))
			if err != nil {
				s.rejectToken(w, r, err)
				return
			}

			// A missing tenant is left to the forwarder, which answers 400.
			if id := tenants.NormaliseName(tenants.IdentifierFromRequest(r)); id != "" && id != claims.Tenant {
				s.rejectToken(w, r, fmt.Errorf("%w: token for %s used on %s", apperrors.ErrTenantMismatch, claims.Tenant, id))
				return
			}

			next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyClaims, claims)))
		}
	}
}

func (s *Server) rejectToken(w http.ResponseWriter, r *http.Request, err error) {
	s.metrics.RecordSessionToken("rejected")
	log.Debug().Err(err).Str("path", r.URL.Path).Msg("Session token rejected")

	status := http.StatusUnauthorized
	if errors.Is(err, apperrors.ErrTenantMismatch) {
		status = http.StatusForbidden
	}
	forward.WriteError(w, &forward.StatusError{Status: status, Message: forward.MsgUnauthorized, Err: err})
}

// issueSessionToken is the login success hook: it binds a token to the user
// and the tenant they logged into.
func (s *Server) issueSessionToken(w http.ResponseWriter, r *http.Request, call forward.Call) {
	if s.tokens == nil {
		return
	}
	username, _ := call.Payload["username"].(string)
	if username == "" || call.Tenant == "" {
		return
	}

	signed, _, err := s.tokens.Issue(username, call.Tenant)
	if err != nil {
		log.Err(err).Str("tenant", call.Tenant).Msg("Failed to issue session token")
		return
	}
	s.metrics.RecordSessionToken("issued")
	w.Header().Set(token.Header, signed)
}

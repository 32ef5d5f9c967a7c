package server

import (
	"net/http"

	"github.com/jrsteele09/hr-gateway/forward"
	"github.com/jrsteele09/hr-gateway/token"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// HealthHandler is the liveness probe. It never touches an upstream.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forward.WriteJSON(w, http.StatusOK, forward.Response{
			Success: true,
			Data: map[string]any{
				"status":  "ok",
				"app":     s.config.GetAppName(),
				"tenants": len(s.tenants.List()),
			},
		})
	}
}

func (s *Server) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// LogoutHandler revokes the caller's session token. It always succeeds so a
// client can clear its state regardless.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw := token.FromRequest(r.Header.Get); raw != "" && s.tokens != nil {
			if err := s.tokens.Revoke(raw); err != nil {
				log.Debug().Err(err).Msg("Logout with an unusable session token")
			} else {
				s.metrics.RecordSessionToken("revoked")
			}
		}
		forward.WriteJSON(w, http.StatusOK, forward.Response{Success: true})
	}
}

// PreflightHandler answers CORS preflight requests; CorsMiddleware has
// already set the headers.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forward.WriteJSON(w, http.StatusNotFound, forward.Response{Success: false, Message: forward.MsgEndpointNotFound})
	}
}

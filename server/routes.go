package server

import (
	"net/http"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, s.MetricsHandler())

	for _, fr := range s.forwardedRoutes() {
		mw := s.APIMiddleware()
		if fr.Protected {
			mw = append(mw, s.RequireSessionToken())
		}
		s.RegisterRouteFunc(fr.Op.Method+" "+fr.Route, ChainMiddleware(s.forwarder.Handler(fr.Op), mw...))
	}

	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// Preflight for every API route, and the JSON 404 for unknown ones
	s.RegisterRouteFunc("OPTIONS "+RouteAPIRoot, ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc(RouteAPIRoot, ChainMiddleware(s.NotFoundHandler(), s.APIMiddleware()...))
}

// APIMiddleware is the chain shared by every /api route.
func (s *Server) APIMiddleware() []func(http.HandlerFunc) http.HandlerFunc {
	return []func(http.HandlerFunc) http.HandlerFunc{
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.FrameSecurityMiddleware,
		s.CorsMiddleware,
	}
}

package errors

import "errors"

// Common error types for the gateway and the client session manager
var (
	// Tenant errors
	ErrTenantRequired = errors.New("tenant identifier required")
	ErrTenantNotFound = errors.New("tenant not found")
	ErrTenantMismatch = errors.New("tenant mismatch")

	// Configuration errors
	ErrAPIKeyMissing = errors.New("api key not configured")

	// Request errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrMissingFields  = errors.New("missing required fields")

	// Upstream errors
	ErrUpstreamTimeout          = errors.New("upstream timeout")
	ErrUpstreamUnreachable      = errors.New("upstream unreachable")
	ErrUpstreamResponseTooLarge = errors.New("upstream response too large")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserBlocked        = errors.New("user is blocked")
	ErrUserNotFound       = errors.New("user not found")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// Store errors
	ErrCorruptValue = errors.New("stored value cannot be decoded")
)

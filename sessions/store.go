package sessions

// Keys under which the session manager persists its state.
const (
	KeyUser          = "hr_user"
	KeySessionExpiry = "hr_session_expiry"
	KeyAPIInfo       = "hr_api_info"
	KeyLoginAttempts = "hr_login_attempts"
)

// Store is a persistent key-value store holding JSON values, the client side
// counterpart of browser local storage.
type Store interface {
	// Get decodes the value under key into v. It reports false when the key
	// is absent. A value that does not decode into v wraps
	// errors.ErrCorruptValue.
	Get(key string, v any) (bool, error)
	Set(key string, v any) error
	Delete(key string) error
}

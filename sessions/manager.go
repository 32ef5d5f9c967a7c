package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/hr-gateway/clients"
	"github.com/jrsteele09/hr-gateway/internal/config"
	apperrors "github.com/jrsteele09/hr-gateway/internal/errors"
	"github.com/jrsteele09/hr-gateway/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Gateway performs the two login calls.
type Gateway interface {
	LookupUser(ctx context.Context, username string) (*users.UserInfo, error)
	Login(ctx context.Context, tenant, username, password string) (*clients.LoginResult, error)
}

// ActivityEvent is a user interaction that renews the session.
type ActivityEvent string

const (
	EventPointerMove ActivityEvent = "mousemove"
	EventKeyPress    ActivityEvent = "keypress"
	EventPointerDown ActivityEvent = "mousedown"
	EventTouchStart  ActivityEvent = "touchstart"
	EventScroll      ActivityEvent = "scroll"
	EventVisible     ActivityEvent = "visibilitychange"
)

var activityEvents = map[ActivityEvent]bool{
	EventPointerMove: true,
	EventKeyPress:    true,
	EventPointerDown: true,
	EventTouchStart:  true,
	EventScroll:      true,
	EventVisible:     true,
}

// ParseActivityEvent accepts the event names above.
func ParseActivityEvent(s string) (ActivityEvent, error) {
	ev := ActivityEvent(strings.ToLower(strings.TrimSpace(s)))
	if !activityEvents[ev] {
		return "", fmt.Errorf("unknown activity event %q", s)
	}
	return ev, nil
}

// Lowercased fragments that mark an upstream login failure as a password
// problem.
var passwordHints = []string{"şifre", "sifre", "parola", "password"}

// Manager owns the client session: login, expiry, renewal, lockout and UI
// area routing. All of it is advisory; the backend decides on every call.
type Manager struct {
	store         Store
	gateway       Gateway
	attempts      *AttemptTracker
	duration      time.Duration
	checkInterval time.Duration
	tenantHost    string
	nowTime       func() time.Time
	logger        zerolog.Logger

	mu    sync.Mutex
	state State
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithTenantHost sets the host used to derive a tenant URL from a looked up
// port.
func WithTenantHost(host string) ManagerOption {
	return func(m *Manager) {
		m.tenantHost = host
	}
}

func WithLogger(l zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

func NewManager(store Store, gateway Gateway, cfg config.SessionConfig, options ...ManagerOption) *Manager {
	m := &Manager{
		store:         store,
		gateway:       gateway,
		duration:      cfg.GetSessionDuration(),
		checkInterval: cfg.GetExpiryCheckInterval(),
		tenantHost:    "localhost",
		nowTime:       time.Now,
		logger:        log.Logger,
	}
	for _, opt := range options {
		opt(m)
	}
	m.attempts = NewAttemptTracker(store, cfg.GetMaxFailedAttempts(), cfg.GetBlockDuration(), func() time.Time { return m.nowTime() })
	return m
}

// Attempts exposes the lockout counters.
func (m *Manager) Attempts() *AttemptTracker {
	return m.attempts
}

// State is the last state the manager moved to.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// Login runs the user lookup and the credential check. A blocked username is
// rejected with *BlockedError without any outbound call.
func (m *Manager) Login(ctx context.Context, username, password string) (*Record, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidRequest, MsgCredentialsRequired)
	}

	until, blocked, err := m.attempts.Blocked(username)
	if err != nil {
		return nil, err
	}
	if blocked {
		m.setState(StateBlocked)
		m.logger.Warn().Str("username", username).Time("until", until).Msg("Login refused, user is blocked")
		return nil, &BlockedError{Username: username, Until: until, now: m.nowTime()}
	}

	m.setState(StateAuthenticating)
	info, err := m.gateway.LookupUser(ctx, username)
	if err != nil {
		return nil, m.loginFailed(username, fmt.Errorf("[Manager Login] lookup: %w", err))
	}

	res, err := m.gateway.Login(ctx, info.TenantName, username, password)
	if err != nil {
		return nil, m.loginFailed(username, fmt.Errorf("[Manager Login] login: %w", err))
	}

	rec := &Record{
		UserData: UserData{
			Username:     username,
			PersonID:     res.Identity.PersonID,
			DisplayName:  res.Identity.DisplayNameOr(username),
			ProfileType:  info.ProfileType,
			SessionToken: res.SessionToken,
		},
		APIInfo: APIInfo{
			TenantName: info.TenantName,
			Port:       info.Port,
			BaseURL:    info.TenantBaseURL(m.tenantHost),
		},
		ExpiresAt: m.nowTime().Add(m.duration),
	}
	if err := m.save(rec); err != nil {
		m.setState(StateUnauthenticated)
		return nil, err
	}
	if err := m.attempts.Reset(username); err != nil {
		m.logger.Warn().Err(err).Str("username", username).Msg("Failed to reset login attempts")
	}

	m.setState(StateAuthenticated)
	m.logger.Info().Str("username", username).Str("tenant", rec.TenantName).Str("profile", string(rec.ProfileType)).Msg("Logged in")
	return rec, nil
}

// loginFailed counts err against username when it is a password problem.
func (m *Manager) loginFailed(username string, err error) error {
	m.setState(StateUnauthenticated)
	if !isCredentialFailure(err) {
		m.logger.Warn().Err(err).Str("username", username).Msg("Login failed")
		return err
	}

	a, recErr := m.attempts.RecordFailure(username)
	if recErr != nil {
		return errors.Join(err, recErr)
	}
	m.logger.Warn().Str("username", username).Int("attempts", a.Count).Msg("Invalid credentials")
	if a.BlockedUntil != nil {
		m.setState(StateBlocked)
		return &BlockedError{Username: username, Until: *a.BlockedUntil, now: m.nowTime()}
	}
	return &CredentialError{Remaining: m.attempts.Remaining(a), Err: err}
}

func isCredentialFailure(err error) bool {
	msg := err.Error()
	var apiErr *clients.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == 401 {
			return true
		}
		msg = apiErr.Message + " " + string(apiErr.Body)
	}
	msg = strings.ToLower(msg)
	for _, hint := range passwordHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

// Logout removes the stored session and returns it, or nil when there was
// none.
func (m *Manager) Logout() (*Record, error) {
	rec, err := m.load()
	if err != nil && !errors.Is(err, apperrors.ErrSessionNotFound) {
		return nil, err
	}
	if err := m.clear(); err != nil {
		return nil, err
	}
	m.setState(StateUnauthenticated)
	if rec != nil {
		m.logger.Info().Str("username", rec.Username).Msg("Logged out")
	}
	return rec, nil
}

// Restore loads the stored session at start-up. An absent or expired session
// is removed and reported as ErrSessionNotFound or ErrSessionExpired.
func (m *Manager) Restore() (*Record, error) {
	rec, err := m.load()
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			_ = m.clear()
			m.setState(StateUnauthenticated)
		}
		return nil, err
	}
	if rec.Expired(m.nowTime()) {
		if err := m.clear(); err != nil {
			return nil, err
		}
		m.setState(StateUnauthenticated)
		return nil, apperrors.ErrSessionExpired
	}
	m.setState(StateAuthenticated)
	return rec, nil
}

// Status reports the current state, expiring the session when it has lapsed.
// Without a live session it reports StateBlocked while any stored lockout is
// still active.
func (m *Manager) Status() (State, *Record, error) {
	blocked := m.State() == StateBlocked
	rec, err := m.Restore()
	switch {
	case err == nil:
		return StateAuthenticated, rec, nil
	case !errors.Is(err, apperrors.ErrSessionNotFound) && !errors.Is(err, apperrors.ErrSessionExpired):
		return StateUnauthenticated, nil, err
	}
	if !blocked {
		_, active, err := m.attempts.ActiveBlock()
		if err != nil {
			return StateUnauthenticated, nil, err
		}
		blocked = active
	}
	if blocked {
		m.setState(StateBlocked)
		return StateBlocked, nil, nil
	}
	return StateUnauthenticated, nil, nil
}

// RecordActivity renews the expiry of a live session. It reports false for
// unknown events and when there is no live session to renew.
func (m *Manager) RecordActivity(ev ActivityEvent) (bool, error) {
	if !activityEvents[ev] {
		return false, nil
	}
	rec, err := m.load()
	if errors.Is(err, apperrors.ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	now := m.nowTime()
	if rec.Expired(now) {
		return false, nil
	}
	if err := m.store.Set(KeySessionExpiry, now.Add(m.duration)); err != nil {
		return false, fmt.Errorf("[Manager RecordActivity] %w", err)
	}
	return true, nil
}

// CheckExpiry is the periodic check: an expired session is removed and
// returned with true.
func (m *Manager) CheckExpiry() (*Record, bool, error) {
	rec, err := m.load()
	if errors.Is(err, apperrors.ErrSessionNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !rec.Expired(m.nowTime()) {
		return rec, false, nil
	}
	if err := m.clear(); err != nil {
		return nil, false, err
	}
	m.setState(StateUnauthenticated)
	m.logger.Info().Str("username", rec.Username).Msg(MsgSessionExpired)
	return rec, true, nil
}

// Guard returns where a request for path must be redirected, or "" when it
// may be rendered. Unauthenticated users go to the login page; authenticated
// users are kept inside their own profile's area.
func (m *Manager) Guard(path string) (string, error) {
	state, rec, err := m.Status()
	if err != nil {
		return "", err
	}
	if state != StateAuthenticated {
		if path == users.LoginPath {
			return "", nil
		}
		return users.LoginPath, nil
	}

	home := rec.Home()
	if home.Contains(path) {
		return "", nil
	}
	if path == "/" || path == users.LoginPath || users.AreaDesk.Contains(path) || users.AreaMobile.Contains(path) {
		return string(home), nil
	}
	return "", nil
}

// load reads the stored session. A record that no longer decodes is dropped
// and reported as ErrSessionNotFound.
func (m *Manager) load() (*Record, error) {
	rec, err := m.read()
	if errors.Is(err, apperrors.ErrCorruptValue) {
		m.logger.Warn().Err(err).Msg("Dropping unreadable session")
		if clearErr := m.clear(); clearErr != nil {
			return nil, errors.Join(err, clearErr)
		}
		m.setState(StateUnauthenticated)
		return nil, apperrors.ErrSessionNotFound
	}
	return rec, err
}

func (m *Manager) read() (*Record, error) {
	rec := &Record{}
	ok, err := m.store.Get(KeyUser, &rec.UserData)
	if err != nil {
		return nil, fmt.Errorf("[Manager load] user: %w", err)
	}
	if !ok || rec.Username == "" {
		return nil, apperrors.ErrSessionNotFound
	}
	if ok, err = m.store.Get(KeySessionExpiry, &rec.ExpiresAt); err != nil {
		return nil, fmt.Errorf("[Manager load] expiry: %w", err)
	} else if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	if _, err := m.store.Get(KeyAPIInfo, &rec.APIInfo); err != nil {
		return nil, fmt.Errorf("[Manager load] api info: %w", err)
	}
	return rec, nil
}

func (m *Manager) save(rec *Record) error {
	if err := m.store.Set(KeyUser, rec.UserData); err != nil {
		return fmt.Errorf("[Manager save] user: %w", err)
	}
	if err := m.store.Set(KeyAPIInfo, rec.APIInfo); err != nil {
		return fmt.Errorf("[Manager save] api info: %w", err)
	}
	if err := m.store.Set(KeySessionExpiry, rec.ExpiresAt); err != nil {
		return fmt.Errorf("[Manager save] expiry: %w", err)
	}
	return nil
}

func (m *Manager) clear() error {
	for _, key := range []string{KeyUser, KeySessionExpiry, KeyAPIInfo} {
		if err := m.store.Delete(key); err != nil {
			return fmt.Errorf("[Manager clear] %s: %w", key, err)
		}
	}
	return nil
}

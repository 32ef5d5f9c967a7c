package sessions

import (
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/hr-gateway/internal/errors"
)

// State is the client session state.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
	StateBlocked
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateBlocked:
		return "blocked"
	}
	return "unauthenticated"
}

// Messages shown to the user.
const (
	MsgBlockedFmt          = "Çok fazla başarısız deneme. %s sonra tekrar deneyin."
	MsgInvalidPasswordFmt  = "Kullanıcı adı veya şifre hatalı. Kalan deneme hakkı: %d"
	MsgSessionExpired      = "Oturumunuzun süresi doldu, lütfen tekrar giriş yapın."
	MsgCredentialsRequired = "Kullanıcı adı ve şifre gerekli"
)

// BlockedError is returned for a login attempt while the username is locked
// out.
type BlockedError struct {
	Username string
	Until    time.Time
	now      time.Time
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf(MsgBlockedFmt, e.Remaining().Round(time.Second))
}

// Remaining is the time left until the block lifts.
func (e *BlockedError) Remaining() time.Duration {
	if d := e.Until.Sub(e.now); d > 0 {
		return d
	}
	return 0
}

func (e *BlockedError) Is(target error) bool {
	return target == apperrors.ErrUserBlocked
}

// CredentialError is a rejected password with the number of attempts left
// before the block.
type CredentialError struct {
	Remaining int
	Err       error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf(MsgInvalidPasswordFmt, e.Remaining)
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

func (e *CredentialError) Is(target error) bool {
	return target == apperrors.ErrInvalidCredentials
}

package forward

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"
)

// Operation describes one forwarded business call. A route handler is built
// from an Operation by Forwarder.Handler.
type Operation struct {
	Name           string        // Label for logs, metrics and config overrides
	Method         string        // Upstream method, GET or POST
	Path           string        // Operation path below the API prefix
	AlternatePaths []string      // Tried in order, only after an upstream 404
	Timeout        time.Duration // Zero uses the configured default
	TimeoutStatus  int           // Status for timeouts, 503 when zero
	RequiredFields []string      // Top-level body fields that must be non-empty
	Validate       func(payload map[string]any) error
	Envelope       bool // Reshape list payloads into {success,data,meta}
	AllowFallback  bool // Use the fallback base URL when no tenant is given
	OnSuccess      SuccessHook
}

// Call carries what a SuccessHook may inspect.
type Call struct {
	Tenant  string
	Payload map[string]any
	Body    []byte
}

// SuccessHook runs after a 2xx upstream response, before the body is written.
type SuccessHook func(w http.ResponseWriter, r *http.Request, call Call)

func (op Operation) hasBody() bool {
	return op.Method != http.MethodGet && op.Method != http.MethodHead
}

func (op Operation) timeoutStatus() int {
	if op.TimeoutStatus == 0 {
		return http.StatusServiceUnavailable
	}
	return op.TimeoutStatus
}

func (op Operation) paths() []string {
	return append([]string{op.Path}, op.AlternatePaths...)
}

// ValidationError is returned by Validate funcs; its message is shown to users.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validation messages.
const (
	MsgFullNameRequired = "Ad soyad gerekli"
	MsgInvalidEmail     = "Geçerli bir e-posta adresi gerekli"
	MsgCVRequired       = "CV bilgileri gerekli"
	MsgAnswersRequired  = "Anket cevapları gerekli"
	MsgInvalidAction    = "Geçersiz işlem: APPROVE veya REJECT olmalı"
)

// MissingFields lists the required fields that are absent, null or blank.
func MissingFields(payload map[string]any, required []string) []string {
	var missing []string
	for _, field := range required {
		if isBlank(payload[field]) {
			missing = append(missing, field)
		}
	}
	return missing
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

// ValidateCV checks the nested cv object: a full name and a syntactically
// valid email address.
func ValidateCV(payload map[string]any) error {
	cv, ok := payload["cv"].(map[string]any)
	if !ok {
		return &ValidationError{Message: MsgCVRequired}
	}
	if isBlank(cv["fullname"]) {
		return &ValidationError{Message: MsgFullNameRequired}
	}
	email, _ := cv["email"].(string)
	if !ValidEmail(email) {
		return &ValidationError{Message: MsgInvalidEmail}
	}
	return nil
}

// ValidEmail accepts a bare address with a dotted domain.
func ValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(s, "@")
	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}

// ValidateSurveySubmission requires a non-empty answers list.
func ValidateSurveySubmission(payload map[string]any) error {
	answers, ok := payload["answers"].([]any)
	if !ok || len(answers) == 0 {
		return &ValidationError{Message: MsgAnswersRequired}
	}
	return nil
}

// ValidateApprovalAction requires ACTION to be APPROVE or REJECT.
func ValidateApprovalAction(payload map[string]any) error {
	action, _ := payload["ACTION"].(string)
	switch strings.ToUpper(strings.TrimSpace(action)) {
	case "APPROVE", "REJECT":
		return nil
	}
	return &ValidationError{Message: MsgInvalidAction}
}

func missingFieldsError(missing []string) *StatusError {
	return newStatusError(http.StatusBadRequest, fmt.Sprintf(MsgMissingFieldsFmt, strings.Join(missing, ", ")), errors.New("missing required fields"))
}

package forward

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// User-facing messages. The suite's UI is Turkish, so are these.
const (
	MsgTenantRequired      = "dbName parametresi gerekli"
	MsgTenantUnknownFmt    = "%s için URL bulunamadı"
	MsgAPIKeyMissing       = "API anahtarı yapılandırılmamış"
	MsgInvalidJSON         = "Geçersiz JSON verisi"
	MsgBodyTooLarge        = "İstek gövdesi çok büyük"
	MsgMissingFieldsFmt    = "Eksik alanlar: %s"
	MsgUnauthorized        = "Yetkisiz erişim"
	MsgEndpointNotFound    = "API endpoint bulunamadı"
	MsgUpstreamServerError = "Sunucu hatası"
	MsgAPIErrorFmt         = "API hatası: %d"
	MsgTimeout             = "API zaman aşımı"
	MsgUnreachable         = "API'ye ulaşılamadı"
	MsgResponseTooLarge    = "API yanıtı çok büyük"
	MsgInternal            = "Sunucu hatası oluştu"
)

// Response is the envelope returned to the browser.
type Response struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    any            `json:"data,omitempty"`
	Error   any            `json:"error,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// StatusError is a failure already classified into an HTTP status and a
// user-facing message.
type StatusError struct {
	Status  int
	Message string
	Detail  any   // Raw upstream error body, for diagnostics
	Err     error // Underlying cause, never shown to users
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

func newStatusError(status int, message string, err error) *StatusError {
	return &StatusError{Status: status, Message: message, Err: err}
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to encode response")
	}
}

// WriteError writes the failure envelope for err. Errors that are not a
// *StatusError become a generic 500.
func WriteError(w http.ResponseWriter, err error) {
	var se *StatusError
	if !asStatusError(err, &se) {
		se = newStatusError(http.StatusInternalServerError, MsgInternal, err)
	}
	WriteJSON(w, se.Status, Response{Success: false, Message: se.Message, Error: se.Detail})
}

// rawDetail keeps a JSON upstream body as-is and falls back to a string.
func rawDetail(body []byte) any {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	return string(trimmed)
}

package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/hr-gateway/internal/config"
	apperrors "github.com/jrsteele09/hr-gateway/internal/errors"
	"github.com/jrsteele09/hr-gateway/internal/metrics"
	"github.com/jrsteele09/hr-gateway/tenants"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// APIKeyHeader carries the shared secret on every upstream call.
	APIKeyHeader = "x-api-key"
	// RequestIDHeader correlates gateway and upstream logs.
	RequestIDHeader = "X-Request-ID"

	maxRequestBody         = 1 << 20
	defaultMaxResponseBody = 64 << 20
)

// Resolver maps a raw tenant identifier to a tenant.
type Resolver interface {
	Resolve(identifier string) (*tenants.Tenant, error)
}

// Forwarder relays inbound calls to the tenant backends. It holds no
// per-request state and is safe for concurrent use.
type Forwarder struct {
	resolver    Resolver
	cfg         config.ForwardConfig
	apiKey      string
	fallbackURL string
	client      *http.Client
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	nowTime     func() time.Time
	maxResponse int64
}

// ForwarderOption defines a function type to modify the Forwarder instance.
type ForwarderOption func(*Forwarder)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) ForwarderOption {
	return func(f *Forwarder) {
		f.client = c
	}
}

// WithMetrics records forwarded calls.
func WithMetrics(m *metrics.Metrics) ForwarderOption {
	return func(f *Forwarder) {
		f.metrics = m
	}
}

// WithLogger replaces the global zerolog logger.
func WithLogger(l zerolog.Logger) ForwarderOption {
	return func(f *Forwarder) {
		f.logger = l
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ForwarderOption {
	return func(f *Forwarder) {
		f.nowTime = nowFunc
	}
}

// WithMaxResponseBody bounds how much of an upstream body is relayed. Larger
// bodies answer 502.
func WithMaxResponseBody(n int64) ForwarderOption {
	return func(f *Forwarder) {
		f.maxResponse = n
	}
}

// New builds a Forwarder. apiKey may be empty; every forwarding route then
// answers 500.
func New(resolver Resolver, cfg config.ForwardConfig, apiKey, fallbackURL string, options ...ForwarderOption) *Forwarder {
	f := &Forwarder{
		resolver:    resolver,
		cfg:         cfg,
		apiKey:      apiKey,
		fallbackURL: strings.TrimRight(fallbackURL, "/"),
		client:      &http.Client{},
		logger:      log.Logger,
		nowTime:     time.Now,
		maxResponse: defaultMaxResponseBody,
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

// Timeout returns the bound applied to op: a configured override, then the
// operation's own value, then the configured default.
func (f *Forwarder) Timeout(op Operation) time.Duration {
	if d, ok := f.cfg.GetOperationTimeout(op.Name); ok {
		return d
	}
	if op.Timeout > 0 {
		return op.Timeout
	}
	return f.cfg.GetDefaultTimeout()
}

// Handler builds the route handler for op.
func (f *Forwarder) Handler(op Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				f.logger.Error().Str("operation", op.Name).Interface("panic", rec).Msg("Recovered from panic while forwarding")
				WriteError(w, newStatusError(http.StatusInternalServerError, MsgInternal, fmt.Errorf("panic: %v", rec)))
			}
		}()

		if err := f.serve(w, r, op); err != nil {
			WriteError(w, err)
		}
	}
}

func (f *Forwarder) serve(w http.ResponseWriter, r *http.Request, op Operation) error {
	tenantName, baseURL, err := f.target(r, op)
	if err != nil {
		f.reject(op, "tenant", err)
		return err
	}

	if f.apiKey == "" {
		err := newStatusError(http.StatusInternalServerError, MsgAPIKeyMissing, apperrors.ErrAPIKeyMissing)
		f.reject(op, "config", err)
		return err
	}

	var body []byte
	var payload map[string]any
	if op.hasBody() {
		if body, payload, err = readPayload(w, r, op); err != nil {
			f.reject(op, "validation", err)
			return err
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), f.Timeout(op))
	defer cancel()

	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	logger := f.logger.With().
		Str("operation", op.Name).
		Str("tenant", tenantName).
		Str("request_id", requestID).
		Logger()

	start := f.nowTime()
	status, respBody, err := f.exchange(ctx, op, baseURL, r.URL.Query(), body, requestID, logger)
	elapsed := f.nowTime().Sub(start)
	f.metrics.RecordForward(op.Name, tenantName, status, elapsed)
	if err != nil {
		se := classifyTransportError(ctx, op, err)
		logger.Warn().Err(err).Dur("duration", elapsed).Int("status", se.Status).Msg("Upstream call failed")
		return se
	}
	logger.Info().Int("status", status).Dur("duration", elapsed).Msg("Forwarded")

	if status < 200 || status > 299 {
		return mapUpstreamStatus(status, respBody)
	}

	if op.OnSuccess != nil {
		op.OnSuccess(w, r, Call{Tenant: tenantName, Payload: payload, Body: respBody})
	}

	if op.Envelope {
		env, err := WrapList(respBody, tenantName)
		if err == nil {
			WriteJSON(w, status, env)
			return nil
		}
		logger.Warn().Err(err).Msg("Upstream payload is not a list, relaying unchanged")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(respBody)
	return nil
}

// target picks the upstream base URL for the request.
func (f *Forwarder) target(r *http.Request, op Operation) (tenantName, baseURL string, err error) {
	id := strings.TrimSpace(tenants.IdentifierFromRequest(r))
	if id == "" && op.AllowFallback && f.fallbackURL != "" {
		return "", f.fallbackURL, nil
	}

	t, err := f.resolver.Resolve(id)
	switch {
	case errors.Is(err, apperrors.ErrTenantRequired):
		return "", "", newStatusError(http.StatusBadRequest, MsgTenantRequired, err)
	case errors.Is(err, apperrors.ErrTenantNotFound):
		return "", "", newStatusError(http.StatusBadRequest, fmt.Sprintf(MsgTenantUnknownFmt, id), err)
	case err != nil:
		return "", "", newStatusError(http.StatusInternalServerError, MsgInternal, err)
	}
	return t.Name, t.BaseURL, nil
}

// exchange sends the request, walking the alternate paths on 404. The body is
// sent once per attempted path; no other retry happens.
func (f *Forwarder) exchange(ctx context.Context, op Operation, baseURL string, query map[string][]string, body []byte, requestID string, logger zerolog.Logger) (int, []byte, error) {
	paths := op.paths()
	for i, path := range paths {
		status, respBody, err := f.do(ctx, op, tenants.JoinURL(baseURL, f.cfg.GetAPIPrefix(), path), query, body, requestID)
		if err != nil {
			return 0, nil, err
		}
		if status == http.StatusNotFound && i < len(paths)-1 {
			logger.Debug().Str("path", path).Str("next", paths[i+1]).Msg("Upstream 404, trying alternate path")
			f.metrics.RecordAlternatePath(op.Name)
			continue
		}
		return status, respBody, nil
	}
	return 0, nil, errors.New("no upstream path configured")
}

func (f *Forwarder) do(ctx context.Context, op Operation, url string, query map[string][]string, body []byte, requestID string) (int, []byte, error) {
	var reader io.Reader
	if op.hasBody() && len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("[Forwarder do] build request: %w", err)
	}

	q := req.URL.Query()
	for k, vs := range query {
		if k == tenants.QueryParam {
			continue
		}
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	req.URL.RawQuery = q.Encode()

	req.Header.Set(APIKeyHeader, f.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, f.maxResponse+1))
	if err != nil {
		return 0, nil, fmt.Errorf("[Forwarder do] read response: %w", err)
	}
	if int64(len(respBody)) > f.maxResponse {
		return 0, nil, newStatusError(http.StatusBadGateway, MsgResponseTooLarge,
			fmt.Errorf("%w: more than %d bytes", apperrors.ErrUpstreamResponseTooLarge, f.maxResponse))
	}
	return resp.StatusCode, respBody, nil
}

func (f *Forwarder) reject(op Operation, reason string, err error) {
	f.metrics.RecordRejected(op.Name, reason)
	f.logger.Debug().Err(err).Str("operation", op.Name).Str("reason", reason).Msg("Rejected without upstream call")
}

// readPayload reads and validates a JSON object body.
func readPayload(w http.ResponseWriter, r *http.Request, op Operation) ([]byte, map[string]any, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, newStatusError(http.StatusRequestEntityTooLarge, MsgBodyTooLarge, err)
		}
		return nil, nil, newStatusError(http.StatusBadRequest, MsgInvalidJSON, err)
	}

	payload := map[string]any{}
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&payload); err != nil {
			return nil, nil, newStatusError(http.StatusBadRequest, MsgInvalidJSON, fmt.Errorf("%w: %v", apperrors.ErrInvalidRequest, err))
		}
		if dec.More() {
			return nil, nil, newStatusError(http.StatusBadRequest, MsgInvalidJSON, apperrors.ErrInvalidRequest)
		}
	}

	if missing := MissingFields(payload, op.RequiredFields); len(missing) > 0 {
		se := missingFieldsError(missing)
		se.Err = fmt.Errorf("%w: %s", apperrors.ErrMissingFields, strings.Join(missing, ", "))
		return nil, nil, se
	}

	if op.Validate != nil {
		if err := op.Validate(payload); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				return nil, nil, newStatusError(http.StatusBadRequest, ve.Message, err)
			}
			return nil, nil, newStatusError(http.StatusBadRequest, err.Error(), err)
		}
	}
	return body, payload, nil
}

// mapUpstreamStatus converts a non-2xx upstream response into a StatusError,
// keeping the upstream status and attaching the raw body.
func mapUpstreamStatus(status int, body []byte) *StatusError {
	var msg string
	switch {
	case status == http.StatusUnauthorized:
		msg = MsgUnauthorized
	case status == http.StatusNotFound:
		msg = MsgEndpointNotFound
	case status >= 500:
		msg = MsgUpstreamServerError
	default:
		msg = fmt.Sprintf(MsgAPIErrorFmt, status)
	}
	return &StatusError{
		Status:  status,
		Message: msg,
		Detail:  rawDetail(body),
		Err:     fmt.Errorf("upstream responded %d", status),
	}
}

// classifyTransportError maps a failed round trip to 503/504.
func classifyTransportError(ctx context.Context, op Operation, err error) *StatusError {
	var se *StatusError
	if errors.As(err, &se) {
		return se
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return newStatusError(op.timeoutStatus(), MsgTimeout, fmt.Errorf("%w: %v", apperrors.ErrUpstreamTimeout, err))
	}
	return newStatusError(http.StatusServiceUnavailable, MsgUnreachable, fmt.Errorf("%w: %v", apperrors.ErrUpstreamUnreachable, err))
}

func asStatusError(err error, target **StatusError) bool {
	return errors.As(err, target)
}

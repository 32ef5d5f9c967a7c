// Package clients holds the HTTP client used to talk to the gateway from the
// session manager and hrctl.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/hr-gateway/forward"
	apperrors "github.com/jrsteele09/hr-gateway/internal/errors"
	"github.com/jrsteele09/hr-gateway/tenants"
	"github.com/jrsteele09/hr-gateway/token"
	"github.com/jrsteele09/hr-gateway/users"
)

const (
	defaultAPIPrefix = "api"
	defaultTimeout   = 2 * time.Minute

	userLookupRoute = "auth/user-lookup"
	loginRoute      = "auth/login"
	logoutRoute     = "auth/logout"
)

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway responded %d", e.Status)
	}
	return fmt.Sprintf("gateway responded %d: %s", e.Status, e.Message)
}

// LoginResult is what a successful credential check returns.
type LoginResult struct {
	Identity     users.Identity
	SessionToken string // Empty when the gateway does not issue tokens
}

// Gateway calls the gateway's /api routes.
type Gateway struct {
	baseURL    string
	apiPrefix  string
	httpClient *http.Client
}

type GatewayOption func(*Gateway)

func WithHTTPClient(c *http.Client) GatewayOption {
	return func(g *Gateway) {
		g.httpClient = c
	}
}

func WithAPIPrefix(prefix string) GatewayOption {
	return func(g *Gateway) {
		g.apiPrefix = prefix
	}
}

func NewGateway(baseURL string, options ...GatewayOption) *Gateway {
	g := &Gateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiPrefix:  defaultAPIPrefix,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// LookupUser maps a username to its tenant and profile type.
func (g *Gateway) LookupUser(ctx context.Context, username string) (*users.UserInfo, error) {
	q := url.Values{"username": {strings.TrimSpace(username)}}
	body, _, err := g.do(ctx, http.MethodGet, userLookupRoute, q, "", nil)
	if err != nil {
		return nil, err
	}

	info := &users.UserInfo{}
	if err := decodeData(body, info); err != nil {
		return nil, fmt.Errorf("[Gateway LookupUser] decode: %w", err)
	}
	if info.TenantName == "" {
		return nil, fmt.Errorf("[Gateway LookupUser] %w: %s", apperrors.ErrUserNotFound, username)
	}
	if info.Username == "" {
		info.Username = strings.TrimSpace(username)
	}
	return info, nil
}

// Login checks the credentials against the tenant backend.
func (g *Gateway) Login(ctx context.Context, tenant, username, password string) (*LoginResult, error) {
	q := url.Values{tenants.QueryParam: {tenant}}
	payload := map[string]string{"username": username, "password": password}
	body, header, err := g.do(ctx, http.MethodPost, loginRoute, q, "", payload)
	if err != nil {
		return nil, err
	}

	result := &LoginResult{SessionToken: header.Get(token.Header)}
	if err := decodeData(body, &result.Identity); err != nil {
		return nil, fmt.Errorf("[Gateway Login] decode: %w", err)
	}
	return result, nil
}

// Logout revokes the session token on the gateway.
func (g *Gateway) Logout(ctx context.Context, tenant, sessionToken string) error {
	q := url.Values{tenants.QueryParam: {tenant}}
	_, _, err := g.do(ctx, http.MethodPost, logoutRoute, q, sessionToken, nil)
	return err
}

// Call invokes any forwarded route. route is relative to the API prefix,
// for example "mobile/leave-balance". A body that is not a gateway envelope
// comes back as Data.
func (g *Gateway) Call(ctx context.Context, method, route, tenant, sessionToken string, body any) (*forward.Response, error) {
	q := url.Values{}
	if u, err := url.Parse(route); err == nil && u.RawQuery != "" {
		q = u.Query()
		route = u.Path
	}
	if tenant != "" {
		q.Set(tenants.QueryParam, tenant)
	}

	raw, _, err := g.do(ctx, method, route, q, sessionToken, body)
	if err != nil {
		return nil, err
	}
	return asResponse(raw), nil
}

func (g *Gateway) do(ctx context.Context, method, route string, q url.Values, sessionToken string, payload any) ([]byte, http.Header, error) {
	var reader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("[Gateway do] encode: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	endpoint := tenants.JoinURL(g.baseURL, g.apiPrefix, route)
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("[Gateway do] build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionToken != "" {
		req.Header.Set(token.Header, sessionToken)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("[Gateway do] %s %s: %w", method, route, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("[Gateway do] read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, newAPIError(resp.StatusCode, body)
	}
	return body, resp.Header, nil
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status, Body: body}
	var env forward.Response
	if json.Unmarshal(body, &env) == nil && env.Message != "" {
		e.Message = env.Message
	} else {
		e.Message = http.StatusText(status)
	}
	return e
}

// decodeData unmarshals the envelope's data field into v, or the whole body
// when it is not an envelope.
func decodeData(body []byte, v any) error {
	var env struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err == nil && env.Success != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		return json.Unmarshal(env.Data, v)
	}
	return json.Unmarshal(body, v)
}

func asResponse(body []byte) *forward.Response {
	var probe map[string]json.RawMessage
	if json.Unmarshal(body, &probe) == nil {
		if _, ok := probe["success"]; ok {
			resp := &forward.Response{}
			if json.Unmarshal(body, resp) == nil {
				if data, ok := probe["data"]; ok {
					resp.Data = data
				}
				return resp
			}
		}
	}
	trimmed := bytes.TrimSpace(body)
	switch {
	case len(trimmed) == 0:
		return &forward.Response{Success: true}
	case json.Valid(trimmed):
		return &forward.Response{Success: true, Data: json.RawMessage(trimmed)}
	}
	return &forward.Response{Success: true, Data: string(trimmed)}
}

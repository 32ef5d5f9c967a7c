package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/hr-gateway/forward"
	"github.com/jrsteele09/hr-gateway/internal/config"
	"github.com/jrsteele09/hr-gateway/server"
	"github.com/jrsteele09/hr-gateway/token"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "shared-secret"

type fixture struct {
	upstream *httptest.Server
	hits     atomic.Int32
	gateway  *server.Server
}

func newConfig(upstreamURL, apiKey string, requireToken bool) config.Config {
	return config.NewFromParts(
		config.EnvVars{Env: "TEST", APIKey: apiKey, RequireSessionToken: requireToken},
		config.Cors{Origins: config.AllowedOrigins{"https://hr.example.com": {}}},
		config.Forward{
			APIPrefix:      "api",
			DefaultTimeout: 2 * time.Second,
			Tenants:        map[string]string{"HOMINUM": upstreamURL, "ACME": upstreamURL},
		},
		config.DefaultSession(),
	)
}

func newFixture(t *testing.T, apiKey string, requireToken bool, handler http.HandlerFunc) *fixture {
	t.Helper()
	f := &fixture{}
	f.upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(f.upstream.Close)

	gw, err := server.New(newConfig(f.upstream.URL, apiKey, requireToken))
	require.NoError(t, err)
	f.gateway = gw
	return f
}

func (f *fixture) do(method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.gateway.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func accountStatusUpstream(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/account-status", r.URL.Path)
		require.Equal(t, testAPIKey, r.Header.Get("x-api-key"))
		_, _ = io.WriteString(w, `{"active":true,"plan":"enterprise"}`)
	}
}

func TestAccountStatus_KnownTenant(t *testing.T) {
	f := newFixture(t, testAPIKey, false, accountStatusUpstream(t))

	rec := f.do(http.MethodGet, "/api/account-status?dbName=hominum", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"active":true,"plan":"enterprise"}`, rec.Body.String())
	require.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
}

func TestAccountStatus_UnknownTenant(t *testing.T) {
	f := newFixture(t, testAPIKey, false, accountStatusUpstream(t))

	rec := f.do(http.MethodGet, "/api/account-status?dbName=unknown", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	out := decode(t, rec)
	require.Equal(t, false, out["success"])
	require.Contains(t, out["message"], "URL bulunamadı")
	require.Equal(t, int32(0), f.hits.Load())
}

func TestAccountStatus_MissingAPIKey(t *testing.T) {
	f := newFixture(t, "", false, accountStatusUpstream(t))

	rec := f.do(http.MethodGet, "/api/account-status?dbName=hominum", "", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, int32(0), f.hits.Load())
}

func TestQRCheckin_MissingFieldsNeverForwarded(t *testing.T) {
	f := newFixture(t, testAPIKey, false, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true}`)
	})

	rec := f.do(http.MethodPost, "/api/mobile/qr-checkin?dbName=hominum", `{"PERSID":1,"DATEINFO":"2024-05-01","TIMEINFO":"08:00","GPS":"1","GPS_X":1,"GPS_Y":2}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decode(t, rec)["message"], "GATEID")
	require.Equal(t, int32(0), f.hits.Load())
}

func TestVouchers_Envelope(t *testing.T) {
	f := newFixture(t, testAPIKey, false, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/finance/vouchers", r.URL.Path)
		_, _ = io.WriteString(w, `[{"FISNO":"1"},{"FISNO":"2"},{"FISNO":"3"}]`)
	})

	rec := f.do(http.MethodGet, "/api/finance/vouchers?dbName=hominum", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	require.Len(t, out["data"], 3)
	require.Equal(t, float64(3), out["meta"].(map[string]any)["count"])
}

func TestLeaveBalance_AlternatePath(t *testing.T) {
	f := newFixture(t, testAPIKey, false, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/mobile/izin-bakiye" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"remaining":14}`)
	})

	rec := f.do(http.MethodGet, "/api/mobile/leave-balance?dbName=hominum", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int32(2), f.hits.Load())
}

func TestUnknownAPIRoute(t *testing.T) {
	f := newFixture(t, testAPIKey, false, func(w http.ResponseWriter, r *http.Request) {})

	rec := f.do(http.MethodGet, "/api/does-not-exist?dbName=hominum", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, forward.MsgEndpointNotFound, decode(t, rec)["message"])
	require.Equal(t, int32(0), f.hits.Load())
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, testAPIKey, false, accountStatusUpstream(t))

	rec := f.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(2), decode(t, rec)["data"].(map[string]any)["tenants"])

	f.do(http.MethodGet, "/api/account-status?dbName=hominum", "", nil)
	rec = f.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `hrgateway_forwarded_total{operation="account-status",status="200",tenant="HOMINUM"} 1`)
}

func TestCors(t *testing.T) {
	f := newFixture(t, testAPIKey, false, accountStatusUpstream(t))

	rec := f.do(http.MethodOptions, "/api/mobile/qr-checkin", "", map[string]string{"Origin": "https://hr.example.com"})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://hr.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "x-db-name")

	rec = f.do(http.MethodGet, "/api/account-status?dbName=hominum", "", map[string]string{"Origin": "https://evil.example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, rec.Header().Get("Access-Control-Expose-Headers"))
}

func TestCors_ExposesSessionTokenOnLogin(t *testing.T) {
	f := newFixture(t, testAPIKey, false, loginUpstream(t))

	rec := f.do(http.MethodPost, "/api/auth/login?dbName=hominum", `{"username":"ayse","password":"pw"}`,
		map[string]string{"Origin": "https://hr.example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get(token.Header))
	require.Equal(t, "https://hr.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), token.Header)
}

func loginUpstream(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body["password"] != "pw" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"message":"Şifre hatalı"}`)
				return
			}
			_, _ = io.WriteString(w, `{"success":true,"data":{"personId":"1042","displayName":"Ayşe"}}`)
		default:
			_, _ = io.WriteString(w, `[]`)
		}
	}
}

func TestLogin_IssuesSessionToken(t *testing.T) {
	f := newFixture(t, testAPIKey, false, loginUpstream(t))

	rec := f.do(http.MethodPost, "/api/auth/login?dbName=hominum", `{"username":"ayse","password":"pw"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get(token.Header))
	require.JSONEq(t, `{"success":true,"data":{"personId":"1042","displayName":"Ayşe"}}`, rec.Body.String())

	rec = f.do(http.MethodPost, "/api/auth/login?dbName=hominum", `{"username":"ayse","password":"bad"}`, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, rec.Header().Get(token.Header))
}

func TestSessionTokenEnforcement(t *testing.T) {
	f := newFixture(t, testAPIKey, true, loginUpstream(t))

	rec := f.do(http.MethodGet, "/api/mobile/surveys?dbName=hominum", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, int32(0), f.hits.Load())

	rec = f.do(http.MethodPost, "/api/auth/login?dbName=hominum", `{"username":"ayse","password":"pw"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	signed := rec.Header().Get(token.Header)
	require.NotEmpty(t, signed)

	rec = f.do(http.MethodGet, "/api/mobile/surveys?dbName=hominum", "", map[string]string{token.Header: signed})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/mobile/surveys?dbName=acme", "", map[string]string{"Authorization": "Bearer " + signed})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPost, "/api/auth/logout?dbName=hominum", "", map[string]string{token.Header: signed})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/mobile/surveys?dbName=hominum", "", map[string]string{token.Header: signed})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNew_RequireTokenWithoutKey(t *testing.T) {
	_, err := server.New(newConfig("http://127.0.0.1:1", "", true))
	require.Error(t, err)
}

func TestNew_InvalidTenantTable(t *testing.T) {
	cfg := config.NewFromParts(config.EnvVars{APIKey: testAPIKey}, config.Cors{},
		config.Forward{APIPrefix: "api", DefaultTimeout: time.Second, Tenants: map[string]string{"BAD": "not a url"}},
		config.DefaultSession())
	_, err := server.New(cfg)
	require.Error(t, err)
}

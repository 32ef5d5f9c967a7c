package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/hr-gateway/internal/cli"
	"github.com/jrsteele09/hr-gateway/token"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	server  *httptest.Server
	revoked atomic.Int32
	logins  atomic.Int32
}

func newFakeGateway(t *testing.T) *fakeGateway {
	t.Helper()
	g := &fakeGateway{}
	g.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/user-lookup":
			_, _ = io.WriteString(w, `{"success":true,"data":{"dbName":"HOMINUM","port":3001,"profileType":"WEB"}}`)
		case "/api/auth/login":
			g.logins.Add(1)
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "pw" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"success":false,"message":"Yetkisiz erişim"}`)
				return
			}
			w.Header().Set(token.Header, "tok")
			_, _ = io.WriteString(w, `{"success":true,"data":{"personId":"1042","displayName":"Ayşe Yılmaz"}}`)
		case "/api/auth/logout":
			if r.Header.Get(token.Header) == "tok" {
				g.revoked.Add(1)
			}
			_, _ = io.WriteString(w, `{"success":true}`)
		case "/api/mobile/leave-balance":
			if r.URL.Query().Get("dbName") != "HOMINUM" || r.Header.Get(token.Header) != "tok" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"success":false,"message":"dbName parametresi gerekli"}`)
				return
			}
			_, _ = io.WriteString(w, `{"remaining":14}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"success":false,"message":"API endpoint bulunamadı"}`)
		}
	}))
	t.Cleanup(g.server.Close)
	return g
}

func run(t *testing.T, g *fakeGateway, store string, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--gateway", g.server.URL, "--store", store}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoginCallLogout(t *testing.T) {
	g := newFakeGateway(t)
	store := filepath.Join(t.TempDir(), "session.json")

	out, err := run(t, g, store, "status")
	require.NoError(t, err)
	require.Contains(t, out, "unauthenticated")

	out, err = run(t, g, store, "login", "ayse", "--password", "pw")
	require.NoError(t, err)
	require.Contains(t, out, "Ayşe Yılmaz (HOMINUM)")
	require.Contains(t, out, "/mobile")

	out, err = run(t, g, store, "status")
	require.NoError(t, err)
	require.Contains(t, out, "authenticated")
	require.Contains(t, out, "HOMINUM")

	out, err = run(t, g, store, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, `"username": "ayse"`)
	require.NotContains(t, out, "tok")

	out, err = run(t, g, store, "call", "get", "/mobile/leave-balance")
	require.NoError(t, err)
	require.Contains(t, out, `"remaining": 14`)

	out, err = run(t, g, store, "route", "/dashboard")
	require.NoError(t, err)
	require.Contains(t, out, "redirect to /mobile")

	out, err = run(t, g, store, "logout")
	require.NoError(t, err)
	require.Contains(t, out, "Logged out ayse")
	require.Equal(t, int32(1), g.revoked.Load())

	_, err = run(t, g, store, "call", "GET", "mobile/leave-balance")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not logged in")
}

func TestLoginLockout(t *testing.T) {
	g := newFakeGateway(t)
	store := filepath.Join(t.TempDir(), "session.json")

	for i := 0; i < 4; i++ {
		_, err := run(t, g, store, "login", "ayse", "-p", "wrong")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Kalan deneme hakkı")
	}
	_, err := run(t, g, store, "login", "ayse", "-p", "wrong")
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "Çok fazla başarısız deneme"))

	_, err = run(t, g, store, "login", "ayse", "-p", "pw")
	require.Error(t, err)
	require.Equal(t, int32(5), g.logins.Load())
}

func TestCallErrors(t *testing.T) {
	g := newFakeGateway(t)
	store := filepath.Join(t.TempDir(), "session.json")
	_, err := run(t, g, store, "login", "ayse", "-p", "pw")
	require.NoError(t, err)

	_, err = run(t, g, store, "call", "DELETE", "mobile/leave-balance")
	require.Error(t, err)

	_, err = run(t, g, store, "call", "POST", "mobile/surveys/submit", "--data", "{not json")
	require.Error(t, err)

	_, err = run(t, g, store, "call", "GET", "nope")
	require.EqualError(t, err, "404 API endpoint bulunamadı")
}

func TestInvalidGatewayURL(t *testing.T) {
	cmd := cli.NewRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"--gateway", "not-a-url", "--store", filepath.Join(t.TempDir(), "s.json"), "status"})
	require.Error(t, cmd.Execute())
}

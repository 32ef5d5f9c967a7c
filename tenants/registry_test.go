package tenants_test

import (
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/hr-gateway/internal/errors"
	"github.com/jrsteele09/hr-gateway/tenants"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *tenants.Registry {
	t.Helper()
	r, err := tenants.NewRegistry(map[string]string{
		"hominum": "http://10.0.0.5:3001/",
		"ACME":    "https://acme.example",
	})
	require.NoError(t, err)
	return r
}

func TestRegistry_ResolveKnown(t *testing.T) {
	r := newTestRegistry(t)

	for _, id := range []string{"HOMINUM", "hominum", "  HoMiNuM\t", "\nhominum "} {
		t.Run(id, func(t *testing.T) {
			tenant, err := r.Resolve(id)
			require.NoError(t, err)
			require.Equal(t, "HOMINUM", tenant.Name)
			require.Equal(t, "http://10.0.0.5:3001", tenant.BaseURL)
			require.Equal(t, 3001, tenant.Port)
		})
	}
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	r := newTestRegistry(t)

	for _, id := range []string{"unknown", "HOMIN", "HOMINUMX", "ACME-2"} {
		_, err := r.Resolve(id)
		require.ErrorIs(t, err, errors.ErrTenantNotFound, id)
	}
}

func TestRegistry_ResolveEmpty(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Resolve("   ")
	require.ErrorIs(t, err, errors.ErrTenantRequired)
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	r := newTestRegistry(t)

	tenant, err := r.Resolve("acme")
	require.NoError(t, err)
	tenant.BaseURL = "http://changed"

	again, err := r.Resolve("acme")
	require.NoError(t, err)
	require.Equal(t, "https://acme.example", again.BaseURL)
	require.Equal(t, 0, again.Port)
}

func TestRegistry_List(t *testing.T) {
	list := newTestRegistry(t).List()
	require.Len(t, list, 2)
	require.Equal(t, "ACME", list[0].Name)
	require.Equal(t, "HOMINUM", list[1].Name)
}

func TestNewRegistry_Invalid(t *testing.T) {
	_, err := tenants.NewRegistry(map[string]string{"A": "not a url"})
	require.Error(t, err)

	_, err = tenants.NewRegistry(map[string]string{" ": "http://x"})
	require.Error(t, err)

	_, err = tenants.NewRegistry(map[string]string{"a": "http://x", "A": "http://y"})
	require.Error(t, err)
}

func TestIdentifierFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/account-status?dbName=hominum", nil)
	req.Header.Set(tenants.HeaderName, "acme")
	require.Equal(t, "hominum", tenants.IdentifierFromRequest(req))

	req = httptest.NewRequest("GET", "/api/account-status", nil)
	req.Header.Set(tenants.HeaderName, "acme")
	require.Equal(t, "acme", tenants.IdentifierFromRequest(req))

	req = httptest.NewRequest("GET", "/api/account-status", nil)
	require.Equal(t, "", tenants.IdentifierFromRequest(req))
}

func TestJoinURL(t *testing.T) {
	require.Equal(t, "http://h:1/api/finance/vouchers", tenants.JoinURL("http://h:1/", "/api/", "/finance/vouchers"))
	require.Equal(t, "http://h:1/x", tenants.JoinURL("http://h:1", "", "x"))
}

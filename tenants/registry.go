package tenants

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/jrsteele09/hr-gateway/internal/errors"
)

const (
	// QueryParam is the query parameter carrying the tenant identifier.
	QueryParam = "dbName"
	// HeaderName is consulted when the query parameter is absent.
	HeaderName = "x-db-name"
)

var _ Repo = (*Registry)(nil)

// Registry is the static tenant mapping table. It is built once and never
// mutated, so it needs no locking.
type Registry struct {
	tenants map[string]Tenant
}

// NewRegistry builds a registry from a name to base URL map. Names are
// normalised; every URL must be absolute.
func NewRegistry(table map[string]string) (*Registry, error) {
	r := &Registry{tenants: make(map[string]Tenant, len(table))}
	for name, baseURL := range table {
		key := NormaliseName(name)
		if key == "" {
			return nil, fmt.Errorf("[tenants NewRegistry] empty tenant name for %q", baseURL)
		}
		u, err := url.Parse(baseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("[tenants NewRegistry] tenant %s: invalid base url %q", key, baseURL)
		}
		if _, dup := r.tenants[key]; dup {
			return nil, fmt.Errorf("[tenants NewRegistry] duplicate tenant %s", key)
		}
		trimmed := strings.TrimRight(baseURL, "/")
		r.tenants[key] = Tenant{Name: key, BaseURL: trimmed, Port: portOf(trimmed)}
	}
	return r, nil
}

// Get performs an exact lookup of a normalised name.
func (r *Registry) Get(name string) (*Tenant, error) {
	t, ok := r.tenants[NormaliseName(name)]
	if !ok {
		return nil, errors.ErrTenantNotFound
	}
	return &t, nil
}

// Resolve normalises identifier and looks it up. An empty identifier yields
// ErrTenantRequired, an unknown one ErrTenantNotFound.
func (r *Registry) Resolve(identifier string) (*Tenant, error) {
	name := NormaliseName(identifier)
	if name == "" {
		return nil, errors.ErrTenantRequired
	}
	t, err := r.Get(name)
	if err != nil {
		return nil, fmt.Errorf("[tenants Resolve] %s: %w", name, err)
	}
	return t, nil
}

// List returns all tenants ordered by name.
func (r *Registry) List() []*Tenant {
	list := make([]*Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		t := t
		list = append(list, &t)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

// IdentifierFromRequest returns the raw tenant identifier: the dbName query
// parameter, falling back to the x-db-name header.
func IdentifierFromRequest(r *http.Request) string {
	if v := r.URL.Query().Get(QueryParam); strings.TrimSpace(v) != "" {
		return v
	}
	return r.Header.Get(HeaderName)
}

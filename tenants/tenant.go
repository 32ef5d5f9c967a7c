package tenants

import (
	"net/url"
	"strconv"
	"strings"
)

// Tenant is one customer organisation and the backend host serving it.
type Tenant struct {
	Name    string `json:"name"`           // Upper-case identifier, e.g. "HOMINUM"
	BaseURL string `json:"base_url"`       // Backend root without trailing slash
	Port    int    `json:"port,omitempty"` // Port parsed from BaseURL, 0 when implicit
}

// NormaliseName upper-cases and trims a tenant identifier before lookup.
func NormaliseName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// JoinURL builds {base}/{prefix}/{path}, dropping empty segments and
// duplicate slashes.
func JoinURL(base, prefix, path string) string {
	parts := []string{strings.TrimRight(base, "/")}
	for _, p := range []string{prefix, path} {
		if p = strings.Trim(p, "/"); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "/")
}

func portOf(baseURL string) int {
	u, err := url.Parse(baseURL)
	if err != nil {
		return 0
	}
	p, err := strconv.Atoi(u.Port())
	if err != nil {
		return 0
	}
	return p
}

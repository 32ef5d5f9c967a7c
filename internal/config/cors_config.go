package config

import (
	"os"
	"strings"
)

const allowedOriginsVar = "ALLOWED_ORIGINS"

type Cors struct {
	Origins AllowedOrigins
}

var _ CorsConfig = Cors{}

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	return strings.Join(origins, ", ")
}

// LoadCors reads ALLOWED_ORIGINS as a comma separated list. "*" allows any
// origin without credentials.
func LoadCors() Cors {
	origins := AllowedOrigins{}
	for _, o := range strings.Split(os.Getenv(allowedOriginsVar), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = nullValue{}
		}
	}
	return Cors{Origins: origins}
}

func (c Cors) GetAllowedOrigins() AllowedOrigins {
	if c.Origins == nil {
		return AllowedOrigins{}
	}
	return c.Origins
}

func (Cors) GetAllowedMethods() string {
	return "GET, POST, OPTIONS"
}

func (Cors) GetAllowedHeaders() string {
	return "Content-Type, Authorization, x-db-name, X-Session-Token, X-Request-ID"
}

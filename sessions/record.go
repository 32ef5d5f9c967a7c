package sessions

import (
	"time"

	"github.com/jrsteele09/hr-gateway/users"
)

// UserData is persisted under KeyUser.
type UserData struct {
	Username     string            `json:"username"`
	PersonID     string            `json:"personId"`
	DisplayName  string            `json:"displayName"`
	ProfileType  users.ProfileType `json:"profileType"`
	SessionToken string            `json:"sessionToken,omitempty"`
}

// APIInfo is persisted under KeyAPIInfo and supplies the tenant identifier
// for every forwarded call.
type APIInfo struct {
	TenantName string `json:"dbName"`
	Port       int    `json:"port,omitempty"`
	BaseURL    string `json:"baseUrl,omitempty"`
}

// Record is the complete client-held session.
type Record struct {
	UserData
	APIInfo
	ExpiresAt time.Time `json:"expiresAt"`
}

// Home is the UI area the record's profile is routed to.
func (r *Record) Home() users.Area {
	return users.AreaFor(r.ProfileType)
}

// Expired reports whether the session has lapsed at now.
func (r *Record) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

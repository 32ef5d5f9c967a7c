package users

import (
	"fmt"
	"strings"
)

// ProfileType classifies an authenticated user and decides which UI area
// they may use.
type ProfileType string

const (
	ProfileBackOffice ProfileType = "GELISTIRME" // Desk dashboard user
	ProfileMobile     ProfileType = "WEB"        // Mobile self-service user
)

// Area is one of the two disjoint UI areas.
type Area string

const (
	AreaDesk   Area = "/dashboard"
	AreaMobile Area = "/mobile"
)

// LoginPath is where unauthenticated users are sent.
const LoginPath = "/login"

// ParseProfileType accepts either profile name, case-insensitively.
func ParseProfileType(s string) (ProfileType, error) {
	switch ProfileType(strings.ToUpper(strings.TrimSpace(s))) {
	case ProfileBackOffice:
		return ProfileBackOffice, nil
	case ProfileMobile:
		return ProfileMobile, nil
	}
	return "", fmt.Errorf("unknown profile type %q", s)
}

// AreaFor returns the UI area a profile is routed to.
func AreaFor(p ProfileType) Area {
	if p == ProfileMobile {
		return AreaMobile
	}
	return AreaDesk
}

// Contains reports whether path lies inside the area.
func (a Area) Contains(path string) bool {
	return path == string(a) || strings.HasPrefix(path, string(a)+"/")
}

// UserInfo is the result of the username to tenant lookup, the first of the
// two login steps.
type UserInfo struct {
	Username    string      `json:"username"`
	TenantName  string      `json:"dbName"`
	Port        int         `json:"port,omitempty"`
	BaseURL     string      `json:"baseUrl,omitempty"`
	ProfileType ProfileType `json:"profileType"`
}

// TenantBaseURL returns the tenant backend URL reported by the lookup, or one
// derived from host and the reported port.
func (u UserInfo) TenantBaseURL(host string) string {
	if u.BaseURL != "" {
		return strings.TrimRight(u.BaseURL, "/")
	}
	if u.Port <= 0 || host == "" {
		return ""
	}
	return fmt.Sprintf("http://%s:%d", host, u.Port)
}

// Identity is the result of a successful credential check against the
// tenant backend.
type Identity struct {
	PersonID    string `json:"personId"`
	DisplayName string `json:"displayName"`
}

// DisplayNameOr returns the display name, or fallback when empty.
func (i Identity) DisplayNameOr(fallback string) string {
	if strings.TrimSpace(i.DisplayName) == "" {
		return fallback
	}
	return i.DisplayName
}

package users_test

import (
	"testing"

	"github.com/jrsteele09/hr-gateway/users"
	"github.com/stretchr/testify/require"
)

func TestParseProfileType(t *testing.T) {
	p, err := users.ParseProfileType(" gelistirme ")
	require.NoError(t, err)
	require.Equal(t, users.ProfileBackOffice, p)

	p, err = users.ParseProfileType("web")
	require.NoError(t, err)
	require.Equal(t, users.ProfileMobile, p)

	_, err = users.ParseProfileType("ADMIN")
	require.Error(t, err)
}

func TestAreaFor(t *testing.T) {
	require.Equal(t, users.AreaDesk, users.AreaFor(users.ProfileBackOffice))
	require.Equal(t, users.AreaMobile, users.AreaFor(users.ProfileMobile))
}

func TestArea_Contains(t *testing.T) {
	require.True(t, users.AreaMobile.Contains("/mobile"))
	require.True(t, users.AreaMobile.Contains("/mobile/leave"))
	require.False(t, users.AreaMobile.Contains("/mobileapp"))
	require.False(t, users.AreaDesk.Contains("/mobile/leave"))
}

func TestUserInfo_TenantBaseURL(t *testing.T) {
	require.Equal(t, "http://hr.internal:3001", users.UserInfo{BaseURL: "http://hr.internal:3001/"}.TenantBaseURL("ignored"))
	require.Equal(t, "http://10.0.0.5:3001", users.UserInfo{Port: 3001}.TenantBaseURL("10.0.0.5"))
	require.Equal(t, "", users.UserInfo{}.TenantBaseURL("10.0.0.5"))
}

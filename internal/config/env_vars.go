package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	portEnvVar             = "PORT"
	appNameVar             = "APP_NAME"
	envVar                 = "ENV"
	logLevelVar            = "LOG_LEVEL"
	apiKeyVar              = "API_KEY"
	fallbackAPIURLVar      = "FALLBACK_API_URL"
	configFileVar          = "CONFIG_FILE"
	sessionSigningKeyVar   = "SESSION_SIGNING_KEY"
	requireSessionTokenVar = "REQUIRE_SESSION_TOKEN"
	defaultAppName         = "H&R Enterprise Suite"
	defaultEnvironment     = "DEV"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
)

type EnvVars struct {
	Port                string
	AppName             string
	Env                 string
	LogLevel            string
	APIKey              string
	FallbackAPIURL      string
	ConfigFile          string
	SessionSigningKey   string
	RequireSessionToken bool
}

var _ EnvConfig = EnvVars{}

// LoadEnvVars snapshots the process environment.
func LoadEnvVars() EnvVars {
	return EnvVars{
		Port:                GetEnv(portEnvVar, defaultPort),
		AppName:             GetEnv(appNameVar, defaultAppName),
		Env:                 GetEnv(envVar, defaultEnvironment),
		LogLevel:            GetEnv(logLevelVar, defaultLogLevel),
		APIKey:              os.Getenv(apiKeyVar),
		FallbackAPIURL:      strings.TrimRight(os.Getenv(fallbackAPIURLVar), "/"),
		ConfigFile:          os.Getenv(configFileVar),
		SessionSigningKey:   os.Getenv(sessionSigningKeyVar),
		RequireSessionToken: GetEnvBool(requireSessionTokenVar, false),
	}
}

func (e EnvVars) GetPort() string {
	port := e.Port
	if port == "" {
		port = defaultPort
	}
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	if e.AppName == "" {
		return defaultAppName
	}
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return defaultEnvironment
	}
	return e.Env
}

func (e EnvVars) GetLogLevel() string {
	if e.LogLevel == "" {
		return defaultLogLevel
	}
	return e.LogLevel
}

// GetAPIKey returns the shared secret attached to every upstream call. An
// empty value disables forwarding.
func (e EnvVars) GetAPIKey() string {
	return e.APIKey
}

func (e EnvVars) GetFallbackAPIURL() string {
	return e.FallbackAPIURL
}

func (e EnvVars) GetConfigFile() string {
	return e.ConfigFile
}

func (e EnvVars) GetSessionSigningKey() string {
	return e.SessionSigningKey
}

func (e EnvVars) GetRequireSessionToken() bool {
	return e.RequireSessionToken
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvBool(envVar string, defaultValue bool) bool {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

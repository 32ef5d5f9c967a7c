package config

import (
	"fmt"
	"time"
)

// Config is the immutable configuration snapshot handed to every component at
// construction time.
type Config interface {
	EnvConfig
	CorsConfig
	ForwardConfig
	SessionConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetAPIKey() string
	GetFallbackAPIURL() string
	GetConfigFile() string
	GetSessionSigningKey() string
	GetRequireSessionToken() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type ForwardConfig interface {
	GetAPIPrefix() string
	GetDefaultTimeout() time.Duration
	GetOperationTimeout(operation string) (time.Duration, bool)
	GetTenants() map[string]string
}

type SessionConfig interface {
	GetSessionDuration() time.Duration
	GetExpiryCheckInterval() time.Duration
	GetMaxFailedAttempts() int
	GetBlockDuration() time.Duration
}

type mainConfig struct {
	EnvVars
	Cors
	Forward
	Session
}

// New reads the environment once and, when CONFIG_FILE is set, merges the
// YAML file into the forwarding settings.
func New() (Config, error) {
	env := LoadEnvVars()
	fwd := DefaultForward()
	if env.ConfigFile != "" {
		fileCfg, err := LoadFile(env.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("[config New] %w", err)
		}
		if fwd, err = fwd.Merge(fileCfg); err != nil {
			return nil, fmt.Errorf("[config New] %w", err)
		}
	}
	return mainConfig{
		EnvVars: env,
		Cors:    LoadCors(),
		Forward: fwd,
		Session: DefaultSession(),
	}, nil
}

// NewFromParts assembles a Config from explicit values, mainly for tests and
// embedding.
func NewFromParts(env EnvVars, cors Cors, fwd Forward, session Session) Config {
	return mainConfig{
		EnvVars: env,
		Cors:    cors,
		Forward: fwd,
		Session: session,
	}
}

package config

import "time"

type Session struct {
	Duration            time.Duration
	ExpiryCheckInterval time.Duration
	MaxFailedAttempts   int
	BlockDuration       time.Duration
}

var _ SessionConfig = Session{}

func DefaultSession() Session {
	return Session{
		Duration:            30 * time.Minute,
		ExpiryCheckInterval: 30 * time.Second,
		MaxFailedAttempts:   5,
		BlockDuration:       15 * time.Minute,
	}
}

func (s Session) GetSessionDuration() time.Duration {
	return s.Duration
}

func (s Session) GetExpiryCheckInterval() time.Duration {
	return s.ExpiryCheckInterval
}

func (s Session) GetMaxFailedAttempts() int {
	return s.MaxFailedAttempts
}

func (s Session) GetBlockDuration() time.Duration {
	return s.BlockDuration
}

package config

import "time"

type SessionConfig interface {
	GetExpiryCheckInterval() time.Duration
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

// GetExpiryCheckInterval returns how often the session manager checks
// whether the stored access token is close to expiry.
func (Session) GetExpiryCheckInterval() time.Duration {
	if d, err := time.ParseDuration(GetEnv("ARCFIT_CHECK_INTERVAL", "")); err == nil && d > 0 {
		return d
	}
	return 60 * time.Second
}

func (Session) GetAccessTokenExpiry() time.Duration {
	if d, err := time.ParseDuration(GetEnv("ARCFIT_ACCESS_TOKEN_EXPIRY", "")); err == nil && d > 0 {
		return d
	}
	return 1 * time.Hour
}

func (Session) GetRefreshTokenExpiry() time.Duration {
	return 7 * 24 * time.Hour // 7 days
}

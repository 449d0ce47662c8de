// Package credentials persists the access/refresh token pair issued by the
// ArcFit API together with an absolute expiry timestamp. The record is the
// single source of truth for "is a user logged in" on the client side.
package credentials

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// ExpiryBuffer is subtracted from the stored expiry when answering
// IsExpired, so a refresh is triggered slightly before the server-side
// expiry actually hits.
const ExpiryBuffer = 30 * time.Second

// Store reads and writes the credential record through an injected Repo.
// It holds no token state of its own: two Stores over the same Repo always
// agree.
type Store struct {
	repo Repo
}

// NewStore creates a Store over the given repo.
func NewStore(repo Repo) (*Store, error) {
	if repo == nil {
		return nil, errors.New("[NewStore] repo is required")
	}
	return &Store{repo: repo}, nil
}

// SetTokens writes a complete credential record. The expiry is computed
// locally from the server-supplied relative duration; an absolute expiry
// from the server is never trusted.
func (s *Store) SetTokens(access, refresh string, expiresIn int64) error {
	expiresAt := NowTimeFunc().UnixMilli() + expiresIn*1000
	err := s.repo.SetAll(map[string]string{
		AccessTokenKey:  access,
		RefreshTokenKey: refresh,
		TokenExpiryKey:  strconv.FormatInt(expiresAt, 10),
	})
	return errors.Wrap(err, "[Store.SetTokens] repo.SetAll")
}

// UpdateAccessToken overwrites the access token and expiry after a refresh
// cycle. The refresh token is left untouched.
func (s *Store) UpdateAccessToken(access string, expiresIn int64) error {
	expiresAt := NowTimeFunc().UnixMilli() + expiresIn*1000
	err := s.repo.SetAll(map[string]string{
		AccessTokenKey: access,
		TokenExpiryKey: strconv.FormatInt(expiresAt, 10),
	})
	return errors.Wrap(err, "[Store.UpdateAccessToken] repo.SetAll")
}

// AccessToken returns the stored access token, if any.
func (s *Store) AccessToken() (string, bool) {
	return s.get(AccessTokenKey)
}

// RefreshToken returns the stored refresh token, if any.
func (s *Store) RefreshToken() (string, bool) {
	return s.get(RefreshTokenKey)
}

// ExpiresAt returns the stored absolute expiry, if any.
func (s *Store) ExpiresAt() (time.Time, bool) {
	raw, ok := s.get(TokenExpiryKey)
	if !ok {
		return time.Time{}, false
	}
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}

// Clear removes the whole credential record. Clearing an already empty
// store is a no-op.
func (s *Store) Clear() error {
	err := s.repo.Delete(AccessTokenKey, RefreshTokenKey, TokenExpiryKey)
	return errors.Wrap(err, "[Store.Clear] repo.Delete")
}

// IsExpired reports whether the access token should be considered stale:
// either no expiry is stored, or the current time is within ExpiryBuffer
// of the stored expiry.
func (s *Store) IsExpired() bool {
	expiresAt, ok := s.ExpiresAt()
	if !ok {
		return true
	}
	return !NowTimeFunc().Before(expiresAt.Add(-ExpiryBuffer))
}

func (s *Store) get(key string) (string, bool) {
	value, ok, err := s.repo.Get(key)
	if err != nil || !ok || value == "" {
		return "", false
	}
	return value, true
}

// Package session orchestrates the ArcFit admin session lifecycle: login,
// logout, current-user retrieval and silent token refresh, plus the
// recurring expiry check that keeps an idle dashboard logged in.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/govindavashishtha/arcfit-admin/api"
	"github.com/govindavashishtha/arcfit-admin/credentials"
	interrors "github.com/govindavashishtha/arcfit-admin/internal/errors"
	"github.com/govindavashishtha/arcfit-admin/internal/utils"
)

// DefaultCheckInterval is how often the expiry loop looks at the stored
// token when no interval is configured.
const DefaultCheckInterval = 60 * time.Second

// Manager owns the session state machine. All exported methods are safe
// for concurrent use; completions of in-flight network calls are discarded
// when a logout happened in between, so a late refresh response can never
// resurrect cleared credentials.
type Manager struct {
	client        *api.Client
	store         *credentials.Store
	logger        zerolog.Logger
	checkInterval time.Duration
	onChange      func(State)

	mu         sync.Mutex
	state      State
	generation uint64
	refreshing bool
	stopLoop   chan struct{}
}

// Option defines a function type to modify the Manager instance.
type Option func(*Manager)

// WithLogger sets the logger used for lifecycle diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithCheckInterval sets the expiry-check loop interval.
func WithCheckInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval > 0 {
			m.checkInterval = interval
		}
	}
}

// WithOnChange registers a callback invoked with a state snapshot after
// every state transition. Called outside the manager's lock.
func WithOnChange(fn func(State)) Option {
	return func(m *Manager) {
		m.onChange = fn
	}
}

// New creates a session manager over the given API client and credential
// store.
func New(client *api.Client, store *credentials.Store, options ...Option) (*Manager, error) {
	if client == nil {
		return nil, errors.New("[session.New] client is required")
	}
	if store == nil {
		return nil, errors.New("[session.New] store is required")
	}

	m := &Manager{
		client:        client,
		store:         store,
		logger:        zerolog.Nop(),
		checkInterval: DefaultCheckInterval,
	}

	for _, opt := range options {
		opt(m)
	}

	return m, nil
}

// State returns a snapshot of the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Login authenticates against the remote API. On success the credential
// record is written, the profile populated and the expiry loop (re)started.
// On failure existing credentials are left untouched and a user-facing
// message is surfaced via State().Error.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.mu.Lock()
	m.state.IsLoading = true
	m.state.Error = ""
	generation := m.generation
	m.notifyAndUnlock()

	result, err := m.client.Login(ctx, email, password)
	if err != nil {
		m.mu.Lock()
		m.state.IsLoading = false
		m.state.Error = loginErrorMessage(err)
		m.notifyAndUnlock()
		return errors.Wrap(err, "[Manager.Login] client.Login")
	}

	m.mu.Lock()
	if m.generation != generation {
		// A logout raced this login's completion. Drop the result
		// rather than resurrect a session the user just ended.
		m.state.IsLoading = false
		m.notifyAndUnlock()
		return interrors.ErrSessionExpired
	}

	creds := result.Credentials
	if err := m.store.SetTokens(creds.AccessToken, creds.RefreshToken, creds.ExpiresIn); err != nil {
		m.state.IsLoading = false
		m.state.Error = "Login failed. Please try again."
		m.notifyAndUnlock()
		return errors.Wrap(err, "[Manager.Login] store.SetTokens")
	}

	m.state.User = utils.Ptr(result.Profile)
	m.state.IsAuthenticated = true
	m.state.IsLoading = false
	m.state.Error = ""
	m.startLoopLocked()
	m.notifyAndUnlock()

	m.logger.Info().Str("user_id", result.Profile.UserID).Msg("session established")
	return nil
}

// Logout ends the session. The remote logout call is best-effort: its
// failure is logged and local cleanup proceeds regardless, so the client
// never remains in an authenticated-looking state afterwards.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.generation++
	m.state.IsLoading = true
	m.stopLoopLocked()
	_, hasAccess := m.store.AccessToken()
	refresh, hasRefresh := m.store.RefreshToken()
	m.notifyAndUnlock()

	if hasAccess && hasRefresh {
		if err := m.client.Logout(ctx, refresh); err != nil {
			m.logger.Warn().Err(err).Msg("remote logout failed, clearing local session anyway")
		}
	}

	m.mu.Lock()
	if err := m.store.Clear(); err != nil {
		m.logger.Warn().Err(err).Msg("failed to clear credential store")
	}
	m.state = State{}
	m.notifyAndUnlock()

	m.logger.Info().Msg("session ended")
	return nil
}

// Refresh exchanges the stored refresh token for a fresh access token.
// Fail-closed: a missing refresh token or any remote failure terminates
// the session. On success only the access token and expiry are rotated;
// the profile is untouched.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	if m.refreshing {
		// A refresh is already pending; don't stack another behind it.
		m.mu.Unlock()
		return nil
	}
	refreshToken, ok := m.store.RefreshToken()
	if !ok {
		m.mu.Unlock()
		m.forceLogout("refresh requested without a refresh token")
		return interrors.ErrNoRefreshToken
	}
	m.refreshing = true
	generation := m.generation
	m.mu.Unlock()

	result, err := m.client.Refresh(ctx, refreshToken)

	m.mu.Lock()
	m.refreshing = false
	if err != nil {
		m.mu.Unlock()
		m.forceLogout("token refresh failed")
		return errors.Wrap(err, "[Manager.Refresh] client.Refresh")
	}
	if m.generation != generation {
		// Logged out while the refresh was in flight; discard the
		// response instead of writing into a cleared store.
		m.mu.Unlock()
		return nil
	}
	if err := m.store.UpdateAccessToken(result.AccessToken, result.ExpiresIn); err != nil {
		m.mu.Unlock()
		m.forceLogout("failed to persist refreshed token")
		return errors.Wrap(err, "[Manager.Refresh] store.UpdateAccessToken")
	}
	m.mu.Unlock()

	m.logger.Debug().Msg("access token refreshed")
	return nil
}

// CurrentUser fetches the authenticated profile, refreshing first when the
// stored token is stale. Any failure terminates the session.
func (m *Manager) CurrentUser(ctx context.Context) (*api.Profile, error) {
	if m.store.IsExpired() {
		if err := m.Refresh(ctx); err != nil {
			return nil, errors.Wrap(err, "[Manager.CurrentUser] refresh")
		}
	}

	m.mu.Lock()
	generation := m.generation
	m.mu.Unlock()

	profile, err := m.client.CurrentUser(ctx)
	if err != nil {
		m.forceLogout("current-user fetch failed")
		return nil, errors.Wrap(err, "[Manager.CurrentUser] client.CurrentUser")
	}

	m.mu.Lock()
	if m.generation != generation {
		m.mu.Unlock()
		return nil, interrors.ErrSessionExpired
	}
	m.state.User = utils.Ptr(*profile)
	m.state.IsAuthenticated = true
	m.notifyAndUnlock()

	return profile, nil
}

// Bootstrap restores a persisted session on startup. Without a stored
// access token it settles into the unauthenticated state immediately;
// otherwise it validates the token by fetching the profile and starts the
// expiry loop on success.
func (m *Manager) Bootstrap(ctx context.Context) error {
	if _, ok := m.store.AccessToken(); !ok {
		m.mu.Lock()
		m.state = State{}
		m.notifyAndUnlock()
		return nil
	}

	m.mu.Lock()
	m.state.IsLoading = true
	m.notifyAndUnlock()

	if _, err := m.CurrentUser(ctx); err != nil {
		// The store has already been cleared by the logout path.
		return errors.Wrap(err, "[Manager.Bootstrap] current user")
	}

	m.mu.Lock()
	m.state.IsLoading = false
	m.startLoopLocked()
	m.notifyAndUnlock()
	return nil
}

// Start launches the expiry-check loop, replacing any loop already
// running. Login and Bootstrap start it implicitly; Start exists for
// callers that manage the lifecycle explicitly.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startLoopLocked()
}

// Stop halts the expiry-check loop. Idempotent, callable from shutdown
// paths.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLoopLocked()
}

// forceLogout tears the session down locally without a remote call. Used
// when the session is already known to be dead server-side.
func (m *Manager) forceLogout(reason string) {
	m.logger.Info().Str("reason", reason).Msg("terminating session")

	m.mu.Lock()
	m.generation++
	m.stopLoopLocked()
	if err := m.store.Clear(); err != nil {
		m.logger.Warn().Err(err).Msg("failed to clear credential store")
	}
	m.state = State{}
	m.notifyAndUnlock()
}

// startLoopLocked replaces any running expiry loop with a fresh one.
// Caller must hold m.mu.
func (m *Manager) startLoopLocked() {
	m.stopLoopLocked()
	stop := make(chan struct{})
	m.stopLoop = stop
	go m.runLoop(stop)
}

// stopLoopLocked signals the running loop, if any, to exit. Caller must
// hold m.mu.
func (m *Manager) stopLoopLocked() {
	if m.stopLoop != nil {
		close(m.stopLoop)
		m.stopLoop = nil
	}
}

// runLoop refreshes the access token whenever a tick finds it stale. A
// pending refresh is never stacked: ticks that fire while one is in
// flight are skipped.
func (m *Manager) runLoop(stop chan struct{}) {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := m.refreshIfExpired(context.Background()); err != nil {
				m.logger.Warn().Err(err).Msg("background refresh failed")
				return
			}
		}
	}
}

// refreshIfExpired refreshes only when the token is stale and no refresh
// is already pending. The check happens under the lock, so a refresh
// completion (which updates the store under the same lock) is never
// double-counted as stale by the next tick.
func (m *Manager) refreshIfExpired(ctx context.Context) error {
	m.mu.Lock()
	if m.refreshing || !m.store.IsExpired() {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()
	return m.Refresh(ctx)
}

// snapshotLocked copies the state, including the profile, so callers never
// alias the manager's internals. Caller must hold m.mu.
func (m *Manager) snapshotLocked() State {
	snapshot := m.state
	if snapshot.User != nil {
		snapshot.User = utils.Ptr(*snapshot.User)
	}
	return snapshot
}

// notifyAndUnlock snapshots the state, releases the lock and fires the
// change callback. Caller must hold m.mu.
func (m *Manager) notifyAndUnlock() {
	snapshot := m.snapshotLocked()
	m.mu.Unlock()
	if m.onChange != nil {
		m.onChange(snapshot)
	}
}

// loginErrorMessage maps a transport error to the message surfaced to the
// login form.
func loginErrorMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == 401 || apiErr.Status == 403 || apiErr.Status == 400:
			return "Invalid email or password."
		case apiErr.Message != "":
			return apiErr.Message
		}
	}
	return "Login failed. Please try again."
}

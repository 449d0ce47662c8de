package session

import "github.com/govindavashishtha/arcfit-admin/api"

// State is the consumer-facing view of the session, derived from the
// credential record and the last profile fetch. It is a value: mutating a
// returned State never affects the manager.
type State struct {
	// User is the authenticated admin's profile, nil when logged out.
	User *api.Profile

	// IsAuthenticated is true iff User is populated.
	IsAuthenticated bool

	// IsLoading is true while a user-initiated auth operation (login,
	// logout, bootstrap) is in flight. Background refreshes do not
	// toggle it.
	IsLoading bool

	// Error holds the last user-facing failure message. Cleared on the
	// next attempt.
	Error string
}

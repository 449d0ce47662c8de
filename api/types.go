package api

import (
	"encoding/json"
	"fmt"
)

// envelope is the wrapper every ArcFit API response arrives in. Success is
// a pointer because some endpoints (logout) reply with a bare {}, which a
// 2xx status still marks as successful.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// APIError is returned for any non-2xx response or a response with
// success=false.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// Credentials is the token material issued on login. ExpiresIn is a
// relative duration in seconds; the caller derives an absolute expiry at
// the moment of receipt.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Profile is the authenticated admin's identity as reported by the API.
type Profile struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	CenterID  string `json:"center_id,omitempty"`
	SocietyID string `json:"society_id,omitempty"`
}

// LoginResult splits the login endpoint's flat data object into named
// credential and profile parts.
type LoginResult struct {
	Credentials Credentials
	Profile     Profile
}

// UnmarshalJSON decodes the flat login payload (token fields and user
// fields side by side) into the two named sub-structs.
func (lr *LoginResult) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &lr.Credentials); err != nil {
		return err
	}
	return json.Unmarshal(data, &lr.Profile)
}

// RefreshResult is the payload of a successful token refresh. Only the
// access token is rotated; the refresh token in the store stays valid.
type RefreshResult struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// PageParams carries the server-side pagination and filtering query
// parameters shared by every list endpoint.
type PageParams struct {
	Page   int
	Limit  int
	Search string
	Sort   string
}

// Page is a single page of a server-side paginated listing.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Member is a fitness-center member record.
type Member struct {
	MemberID  string `json:"member_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	CenterID  string `json:"center_id"`
	Status    string `json:"status"`
}

// Center is a fitness center (society) record.
type Center struct {
	CenterID string `json:"center_id"`
	Name     string `json:"name"`
	City     string `json:"city,omitempty"`
	Address  string `json:"address,omitempty"`
}

// Event is a center event record.
type Event struct {
	EventID  string `json:"event_id"`
	CenterID string `json:"center_id"`
	Title    string `json:"title"`
	StartsAt string `json:"starts_at"`
	Capacity int    `json:"capacity,omitempty"`
}

// ImportResult summarises a bulk CSV import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

package stub

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// loginRequest is the admin login payload.
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// loginResponse is the flat data object the real API returns: token fields
// and user fields side by side.
type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Role         string `json:"role"`
	CenterID     string `json:"center_id,omitempty"`
	SocietyID    string `json:"society_id,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// AdminLoginHandler authenticates an admin by email and password and
// issues a token pair.
func (s *Server) AdminLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		user, err := s.users.getByEmail(req.Email)
		if err != nil || !checkPasswordHash(req.Password, user.passwordHash) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}

		access, refresh, expiresIn, err := s.tokens.Issue(user.profile.UserID, user.profile.Role)
		if err != nil {
			log.Err(err).Msg("failed to issue tokens")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeData(w, http.StatusOK, loginResponse{
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresIn:    expiresIn,
			UserID:       user.profile.UserID,
			Email:        user.profile.Email,
			FirstName:    user.profile.FirstName,
			LastName:     user.profile.LastName,
			Role:         user.profile.Role,
			CenterID:     user.profile.CenterID,
			SocietyID:    user.profile.SocietyID,
		})
	}
}

// CurrentUserHandler returns the profile of the bearer token's subject.
func (s *Server) CurrentUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.tokens.AuthenticatedUser(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		user, err := s.users.getByID(userID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unknown user")
			return
		}

		writeData(w, http.StatusOK, user.profile)
	}
}

// RefreshHandler exchanges a valid refresh token for a new access token.
// The refresh token stays valid.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "refresh_token is required")
			return
		}

		access, expiresIn, err := s.tokens.RotateAccess(req.RefreshToken, func(userID string) string {
			if user, err := s.users.getByID(userID); err == nil {
				return user.profile.Role
			}
			return ""
		})
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}

		writeData(w, http.StatusOK, refreshResponse{AccessToken: access, ExpiresIn: expiresIn})
	}
}

// LogoutHandler invalidates the refresh token. Always answers 200 with an
// empty body object; logout is best-effort on the client side.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
			s.tokens.Invalidate(req.RefreshToken)
		}
		writeJSON(w, http.StatusOK, struct{}{})
	}
}

package stub

import (
	"context"
	"crypto/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	interrors "github.com/govindavashishtha/arcfit-admin/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// tokenService mints HS256 access tokens and tracks opaque refresh tokens.
// The real backend's tokens are opaque to the SDK; JWTs here just let the
// me endpoint stay stateless.
type tokenService struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration

	mu            sync.Mutex
	refreshTokens map[string]refreshRecord
}

type refreshRecord struct {
	userID   string
	issuedAt time.Time
}

func newTokenService(accessExpiry, refreshExpiry time.Duration) *tokenService {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate signing secret: " + err.Error())
	}
	return &tokenService{
		secret:        secret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		refreshTokens: make(map[string]refreshRecord),
	}
}

// Issue creates an access/refresh token pair for the user. Any previous
// refresh token for the same user stays valid until it expires, matching
// the real backend's behaviour for parallel dashboard sessions.
func (t *tokenService) Issue(userID, role string) (access, refresh string, expiresIn int64, err error) {
	access, err = t.mintAccessToken(userID, role)
	if err != nil {
		return "", "", 0, err
	}

	refresh = uuid.New().String()
	t.mu.Lock()
	t.refreshTokens[refresh] = refreshRecord{userID: userID, issuedAt: NowTimeFunc()}
	t.mu.Unlock()

	return access, refresh, int64(t.accessExpiry.Seconds()), nil
}

// RotateAccess validates the refresh token and mints a new access token.
// The refresh token itself is left valid; clients keep using it.
func (t *tokenService) RotateAccess(refreshToken string, role func(userID string) string) (access string, expiresIn int64, err error) {
	t.mu.Lock()
	record, ok := t.refreshTokens[refreshToken]
	t.mu.Unlock()

	if !ok {
		return "", 0, interrors.ErrInvalidRefreshToken
	}
	if NowTimeFunc().Sub(record.issuedAt) > t.refreshExpiry {
		t.Invalidate(refreshToken)
		return "", 0, interrors.ErrInvalidRefreshToken
	}

	access, err = t.mintAccessToken(record.userID, role(record.userID))
	if err != nil {
		return "", 0, err
	}
	return access, int64(t.accessExpiry.Seconds()), nil
}

// Invalidate removes a refresh token. Unknown tokens are ignored.
func (t *tokenService) Invalidate(refreshToken string) {
	t.mu.Lock()
	delete(t.refreshTokens, refreshToken)
	t.mu.Unlock()
}

// AuthenticatedUser extracts and verifies the bearer token on a request,
// returning the subject user ID.
func (t *tokenService) AuthenticatedUser(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", interrors.ErrNotAuthenticated
	}
	raw := strings.TrimPrefix(header, "Bearer ")

	parsed, err := jwtlib.Parse(raw, func(token *jwtlib.Token) (any, error) {
		if _, ok := token.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, jwtlib.ErrSignatureInvalid
		}
		return t.secret, nil
	}, jwtlib.WithTimeFunc(func() time.Time { return NowTimeFunc() }))
	if err != nil || !parsed.Valid {
		return "", interrors.ErrInvalidToken
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", interrors.ErrInvalidToken
	}
	return sub, nil
}

func (t *tokenService) mintAccessToken(userID, role string) (string, error) {
	claims := jwtlib.MapClaims{
		"sub":  userID,
		"role": role,
		"iat":  NowTimeFunc().Unix(),
		"exp":  NowTimeFunc().Add(t.accessExpiry).Unix(),
		"jti":  uuid.New().String(),
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", errors.Wrap(err, "[tokenService.mintAccessToken] SignedString")
	}
	return signed, nil
}

type contextKey string

const userIDContextKey contextKey = "user_id"

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

func userIDFrom(ctx context.Context) string {
	userID, _ := ctx.Value(userIDContextKey).(string)
	return userID
}

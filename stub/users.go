package stub

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/govindavashishtha/arcfit-admin/api"
	interrors "github.com/govindavashishtha/arcfit-admin/internal/errors"
)

// seededUser pairs a profile with its bcrypt password hash.
type seededUser struct {
	profile      api.Profile
	passwordHash string
}

// userStore holds the stub's seed admins, keyed by email and ID.
type userStore struct {
	mu      sync.RWMutex
	byEmail map[string]*seededUser
	byID    map[string]*seededUser
}

func newUserStore() *userStore {
	return &userStore{
		byEmail: make(map[string]*seededUser),
		byID:    make(map[string]*seededUser),
	}
}

// add seeds a user, assigning an ID when the profile has none. MinCost
// keeps test logins fast; the stub guards nothing real.
func (u *userStore) add(password string, profile api.Profile) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic("failed to hash seed password: " + err.Error())
	}
	if profile.UserID == "" {
		profile.UserID = uuid.New().String()
	}

	user := &seededUser{profile: profile, passwordHash: string(hash)}
	u.mu.Lock()
	u.byEmail[profile.Email] = user
	u.byID[profile.UserID] = user
	u.mu.Unlock()
}

func (u *userStore) getByEmail(email string) (*seededUser, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	user, ok := u.byEmail[email]
	if !ok {
		return nil, errors.Wrap(interrors.ErrUserNotFound, email)
	}
	return user, nil
}

func (u *userStore) getByID(userID string) (*seededUser, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	user, ok := u.byID[userID]
	if !ok {
		return nil, errors.Wrap(interrors.ErrUserNotFound, userID)
	}
	return user, nil
}

func checkPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// defaultUsers seeds the admins available out of the box.
func defaultUsers() (*userStore, error) {
	store := newUserStore()
	store.add("arcfit-admin", api.Profile{
		UserID:    "u-admin-1",
		Email:     "admin@arcfit.in",
		FirstName: "Asha",
		LastName:  "Verma",
		Role:      "super_admin",
	})
	store.add("center-admin", api.Profile{
		UserID:    "u-admin-2",
		Email:     "center@arcfit.in",
		FirstName: "Ravi",
		LastName:  "Iyer",
		Role:      "center_admin",
		CenterID:  "c-01",
		SocietyID: "s-01",
	})
	return store, nil
}

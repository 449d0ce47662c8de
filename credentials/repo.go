package credentials

// Storage keys for the persisted credential record. The layout mirrors the
// remote API's token response: the expiry is kept as a stringified integer
// of epoch milliseconds.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
	TokenExpiryKey  = "token_expiry"
)

// Repo is the persistence layer underneath a Store. Implementations hold a
// flat set of string key/value pairs. SetAll and Delete apply all of their
// keys in a single operation so a credential record is never observed half
// written by another reader of the same repo.
type Repo interface {
	Get(key string) (string, bool, error)
	SetAll(values map[string]string) error
	Delete(keys ...string) error
}

package api

import "net/http"

// TokenSource supplies the bearer token attached to outbound requests.
// *credentials.Store satisfies it.
type TokenSource interface {
	AccessToken() (string, bool)
}

// BearerTransport is an http.RoundTripper that reads the token source at
// call time and sets the Authorization header when a token is present.
// Reading at call time means a refresh that lands between two requests is
// picked up automatically.
type BearerTransport struct {
	Source TokenSource
	Base   http.RoundTripper
}

func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if t.Source != nil {
		if token, ok := t.Source.AccessToken(); ok {
			// Clone before mutating, RoundTrippers must not modify the
			// caller's request.
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return base.RoundTrip(req)
}

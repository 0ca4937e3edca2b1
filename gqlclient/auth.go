// ABOUTME: Bearer token round tripper reading the token on every request
// ABOUTME: Uses oauth2.Token to format the Authorization header

package gqlclient

import (
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// TokenSource yields the current access token, or "" when logged out.
type TokenSource interface {
	AccessToken() (string, error)
}

// StaticToken is a fixed TokenSource.
type StaticToken string

func (s StaticToken) AccessToken() (string, error) {
	return string(s), nil
}

type bearerTransport struct {
	base   http.RoundTripper
	tokens TokenSource
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.tokens == nil {
		return base.RoundTrip(req)
	}

	tok, err := t.tokens.AccessToken()
	if err != nil {
		return nil, fmt.Errorf("failed to read access token: %w", err)
	}
	if tok == "" {
		return base.RoundTrip(req)
	}

	authed := req.Clone(req.Context())
	(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"}).SetAuthHeader(authed)
	return base.RoundTrip(authed)
}

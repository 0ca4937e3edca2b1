// ABOUTME: Access token persistence under the well-known access_token key
// ABOUTME: Set on login, cleared on logout, read before every outbound call

package localstore

import (
	"errors"
)

// AccessTokenKey is the well-known key for the API access token.
const AccessTokenKey = "access_token"

// TokenStore reads and writes the access token.
type TokenStore struct {
	store *Store
}

func NewTokenStore(store *Store) *TokenStore {
	return &TokenStore{store: store}
}

// AccessToken returns the stored token, or "" when none is set.
func (t *TokenStore) AccessToken() (string, error) {
	v, err := t.store.Get([]byte(AccessTokenKey))
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// SetAccessToken persists the token.
func (t *TokenStore) SetAccessToken(token string) error {
	if token == "" {
		return t.ClearAccessToken()
	}
	return t.store.Set([]byte(AccessTokenKey), []byte(token))
}

// ClearAccessToken removes the token.
func (t *TokenStore) ClearAccessToken() error {
	return t.store.Delete([]byte(AccessTokenKey))
}

// ABOUTME: Decodes the stored access token for display
// ABOUTME: Claims are read without verification since the server owns the signing key
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the CLI shows about the current session.
type TokenInfo struct {
	Subject   string
	Email     string
	IssuedAt  *time.Time
	ExpiresAt *time.Time
}

// Expired reports whether the token expired before now.
func (t *TokenInfo) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}

// ParseTokenInfo decodes a JWT's claims.
func ParseTokenInfo(token string) (*TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}

	info := &TokenInfo{}
	info.Subject, _ = claims.GetSubject()
	if email, ok := claims["email"].(string); ok {
		info.Email = email
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		t := iat.Time
		info.IssuedAt = &t
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		info.ExpiresAt = &t
	}
	return info, nil
}

// TokenInfo decodes the stored token. It returns nil when logged out.
func (p *Provider) TokenInfo() (*TokenInfo, error) {
	tok, err := p.tokens.AccessToken()
	if err != nil {
		return nil, fmt.Errorf("failed to read access token: %w", err)
	}
	if tok == "" {
		return nil, nil
	}
	return ParseTokenInfo(tok)
}

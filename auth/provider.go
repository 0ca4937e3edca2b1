// ABOUTME: Login, registration and session checks against the CRM GraphQL API
// ABOUTME: Persists the access token locally and clears it on authentication failures
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/crmlink/crmerr"
	"github.com/harperreed/crmlink/gqlclient"
	"github.com/harperreed/crmlink/models"
	"github.com/rs/zerolog"
)

const (
	loginMutation = `mutation Login($email: String!) {
  login(loginInput: { email: $email }) {
    accessToken
  }
}`

	registerMutation = `mutation Register($email: String!, $password: String!) {
  register(registerInput: { email: $email, password: $password }) {
    id
    email
  }
}`

	checkQuery = `query Me {
  me {
    name
  }
}`

	identityQuery = `query Me {
  me {
    id
    name
    email
    phone
    jobTitle
    avatarUrl
  }
}`
)

// TokenStore persists the access token.
type TokenStore interface {
	AccessToken() (string, error)
	SetAccessToken(token string) error
	ClearAccessToken() error
}

// Provider implements the session lifecycle.
type Provider struct {
	client gqlclient.Doer
	tokens TokenStore
	log    zerolog.Logger
}

func New(client gqlclient.Doer, tokens TokenStore, log zerolog.Logger) *Provider {
	return &Provider{client: client, tokens: tokens, log: log}
}

// Login exchanges an email for an access token and stores it.
func (p *Provider) Login(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return crmerr.Validation("login", "email is required", map[string]string{"email": "required"})
	}

	var out struct {
		Login struct {
			AccessToken string `json:"accessToken"`
		} `json:"login"`
	}
	req := gqlclient.Request{Query: loginMutation, Variables: map[string]any{"email": email}, OperationName: "Login"}
	if err := p.client.Do(ctx, req, &out); err != nil {
		return err
	}
	if out.Login.AccessToken == "" {
		return crmerr.Authentication("login", "server returned no access token")
	}

	if err := p.tokens.SetAccessToken(out.Login.AccessToken); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	p.log.Info().Str("email", email).Msg("logged in")
	return nil
}

// Register creates an account. It does not log in.
func (p *Provider) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	fields := map[string]string{}
	if email == "" {
		fields["email"] = "required"
	}
	if password == "" {
		fields["password"] = "required"
	}
	if len(fields) > 0 {
		return nil, crmerr.Validation("register", "email and password are required", fields)
	}

	var out struct {
		Register models.User `json:"register"`
	}
	req := gqlclient.Request{
		Query:         registerMutation,
		Variables:     map[string]any{"email": email, "password": password},
		OperationName: "Register",
	}
	if err := p.client.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out.Register, nil
}

// Logout clears the stored token.
func (p *Provider) Logout() error {
	if err := p.tokens.ClearAccessToken(); err != nil {
		return fmt.Errorf("failed to clear access token: %w", err)
	}
	return nil
}

// Check reports whether the stored token is accepted. A rejected token is
// cleared. Network failures leave the token in place and are returned.
func (p *Provider) Check(ctx context.Context) (bool, error) {
	tok, err := p.tokens.AccessToken()
	if err != nil {
		return false, fmt.Errorf("failed to read access token: %w", err)
	}
	if tok == "" {
		return false, nil
	}

	err = p.client.Do(ctx, gqlclient.Request{Query: checkQuery, OperationName: "Me"}, nil)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, crmerr.ErrNetwork) {
		return false, err
	}

	p.log.Debug().Err(err).Msg("session check failed, clearing token")
	if clearErr := p.Logout(); clearErr != nil {
		return false, clearErr
	}
	return false, nil
}

// Identity returns the current user.
func (p *Provider) Identity(ctx context.Context) (*models.User, error) {
	var out struct {
		Me *models.User `json:"me"`
	}
	if err := p.client.Do(ctx, gqlclient.Request{Query: identityQuery, OperationName: "Me"}, &out); err != nil {
		return nil, err
	}
	if out.Me == nil {
		return nil, crmerr.Authentication("identity", "not logged in")
	}
	return out.Me, nil
}

// OnError clears the token when err is an authentication failure and reports
// whether the caller must log in again.
func (p *Provider) OnError(err error) bool {
	if !errors.Is(err, crmerr.ErrAuthentication) {
		return false
	}
	if clearErr := p.tokens.ClearAccessToken(); clearErr != nil {
		p.log.Warn().Err(clearErr).Msg("failed to clear access token")
	}
	p.log.Info().Msg("session rejected, logged out")
	return true
}

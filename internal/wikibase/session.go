package wikibase

import (
	"context"
	"fmt"

	"github.com/ppiankov/openalexbot/internal/model"
)

// anonymousToken is the CSRF token handed out without a session
const anonymousToken = "+\\"

type tokensResponse struct {
	Query struct {
		Tokens struct {
			LoginToken string `json:"logintoken"`
			CSRFToken  string `json:"csrftoken"`
		} `json:"tokens"`
	} `json:"query"`
}

type loginResponse struct {
	Login struct {
		Result string `json:"result"`
		Reason string `json:"reason"`
	} `json:"login"`
}

// Login opens a bot-password session and fetches the edit token
func (c *Client) Login(ctx context.Context, username, password string) error {
	// Step 1: login token
	var tokens tokensResponse
	if err := c.get(ctx, map[string]string{"action": "query", "meta": "tokens", "type": "login"}, &tokens); err != nil {
		return fmt.Errorf("fetch login token: %w", err)
	}
	if tokens.Query.Tokens.LoginToken == "" {
		return fmt.Errorf("%w: empty login token", model.ErrTransport)
	}

	// Step 2: authenticate
	var login loginResponse
	err := c.post(ctx, map[string]string{
		"action":     "login",
		"lgname":     username,
		"lgpassword": password,
		"lgtoken":    tokens.Query.Tokens.LoginToken,
	}, &login)
	if err != nil {
		return fmt.Errorf("login as %s: %w", username, err)
	}
	if login.Login.Result != "Success" {
		return fmt.Errorf("%w: login as %s: %s %s", model.ErrTransport, username, login.Login.Result, login.Login.Reason)
	}

	// Step 3: edit token bound to the session cookie
	var csrf tokensResponse
	if err := c.get(ctx, map[string]string{"action": "query", "meta": "tokens", "type": "csrf"}, &csrf); err != nil {
		return fmt.Errorf("fetch csrf token: %w", err)
	}
	token := csrf.Query.Tokens.CSRFToken
	if token == "" || token == anonymousToken {
		return fmt.Errorf("%w: login as %s did not yield a session", model.ErrTransport, username)
	}

	c.csrfToken = token
	c.logger.Info("logged in to wikibase", "user", username, "endpoint", c.endpoint)
	return nil
}

// LoggedIn reports whether an edit token is held
func (c *Client) LoggedIn() bool {
	return c.csrfToken != ""
}

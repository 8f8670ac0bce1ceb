package gateway

import (
	"encoding/json"
	"net/url"

	"go.uber.org/zap"

	"github.com/muurk/mtcap-allowlist/internal/logging"
)

const (
	loginPath  = "login"
	logoutPath = "logout"
)

// Login authenticates against the gateway and stores the returned session token.
// The token is sent as a query parameter on every later call.
func (c *Client) Login(username, password string) error {
	if username == "" {
		username = DefaultUsername
	}

	query := url.Values{}
	query.Set("username", username)
	query.Set("password", password)

	c.SetToken("")
	result, err := c.getWithQuery(loginPath, query)
	if err != nil {
		return err
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return withCall(NewProtocolError("login result is not an object", err), "GET", loginPath, c.host)
	}
	if payload.Token == "" {
		return withCall(NewAuthError("login succeeded without a session token"), "GET", loginPath, c.host)
	}

	c.SetToken(payload.Token)
	logging.Info("Logged in to gateway", zap.String("host", c.host), zap.String("username", username))
	return nil
}

// Logout ends the session. The stored token is dropped even when the call fails.
func (c *Client) Logout() error {
	if c.Token() == "" {
		return nil
	}
	_, err := c.do("GET", logoutPath, nil, nil)
	c.SetToken("")
	if err != nil {
		return err
	}
	logging.Info("Logged out of gateway", zap.String("host", c.host))
	return nil
}

// Token returns the current session token, or "" before Login.
func (c *Client) Token() string {
	c.tokenMutex.RLock()
	defer c.tokenMutex.RUnlock()
	return c.token
}

// SetToken installs a session token obtained elsewhere.
func (c *Client) SetToken(token string) {
	c.tokenMutex.Lock()
	c.token = token
	c.tokenMutex.Unlock()
}

// LoggedIn reports whether the client holds a session token
func (c *Client) LoggedIn() bool {
	return c.Token() != ""
}

func withCall(err *Error, method, path, host string) *Error {
	err.Method = method
	err.Path = path
	err.Host = host
	return err
}

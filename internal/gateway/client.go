package gateway

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/mtcap-allowlist/internal/logging"
	"github.com/muurk/mtcap-allowlist/internal/version"
)

const (
	// DefaultUsername is the factory default administrator account on Conduit gateways
	DefaultUsername = "admin"

	// DefaultTimeout is the default HTTP request timeout.
	// save_apply regularly takes several seconds on an mtcap.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed reads
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 10 * time.Second

	// CommitPath instructs the gateway to persist and apply pending configuration
	CommitPath = "command/save_apply"

	statusSuccess = "success"

	// maxDiagnosticBytes caps the response dump carried by a gateway error
	maxDiagnosticBytes = 512
)

// Client talks to the management API of a single gateway.
//
// Only reads are retried. Mutations (PUT, POST, DELETE) are issued once and
// their failure is returned as-is, since the gateway offers no idempotency
// token and a retried write may land twice.
type Client struct {
	// BaseURL is the API root (e.g., "https://192.168.2.1/api")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed GET requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff enables exponential backoff for retries
	UseExponentialBackoff bool

	host string

	tokenMutex sync.RWMutex
	token      string
}

// NewClient creates a client for the gateway at host ("192.168.2.1" or "mtcap.local:8443").
// insecure disables certificate verification; Conduits ship with a self-signed certificate.
func NewClient(host string, insecure bool) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // self-signed appliance certificate
	}

	c := NewClientWithURL(fmt.Sprintf("https://%s/api", host), &http.Client{
		Timeout:   DefaultTimeout,
		Transport: transport,
	})
	c.host = host
	return c
}

// NewClientWithURL creates a client with a full API base URL.
// A nil httpClient gets a default client with DefaultTimeout.
func NewClientWithURL(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	host := baseURL
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		host = u.Host
	}

	return &Client{
		BaseURL:               strings.TrimSuffix(baseURL, "/"),
		HTTPClient:            httpClient,
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
		host:                  host,
	}
}

// Host returns the gateway host this client addresses
func (c *Client) Host() string {
	return c.host
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior for reads
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Get fetches path and returns the "result" member of the status envelope.
func (c *Client) Get(path string) (json.RawMessage, error) {
	return c.getWithQuery(path, nil)
}

// Put replaces the resource at path with body encoded as JSON.
func (c *Client) Put(path string, body any) error {
	_, err := c.do(http.MethodPut, path, nil, body)
	return err
}

// Post issues a parameterless POST to path.
func (c *Client) Post(path string) error {
	_, err := c.do(http.MethodPost, path, nil, nil)
	return err
}

// Delete removes the resource at path.
func (c *Client) Delete(path string) error {
	_, err := c.do(http.MethodDelete, path, nil, nil)
	return err
}

// Commit persists and applies all pending configuration on the gateway.
func (c *Client) Commit() error {
	return c.Post(CommitPath)
}

func (c *Client) getWithQuery(path string, query url.Values) (json.RawMessage, error) {
	var lastErr error
	currentDelay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			logging.Debug("Retrying gateway read",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("delay", currentDelay),
				zap.Error(lastErr),
			)
			time.Sleep(currentDelay)

			if c.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		result, err := c.do(http.MethodGet, path, query, nil)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !IsRetryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// envelope is the status wrapper around every management API response
type envelope struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
	Code   int             `json:"code,omitempty"`
}

// do performs a single request and unwraps the status envelope
func (c *Client) do(method, path string, query url.Values, body any) (json.RawMessage, error) {
	path = strings.TrimPrefix(path, "/")

	result, err := c.doAttempt(method, path, query, body)
	if err != nil {
		if gwErr, ok := asError(err); ok {
			gwErr.Method = method
			gwErr.Path = path
			if gwErr.Host == "" {
				gwErr.Host = c.host
			}
		}
		return nil, err
	}
	return result, nil
}

func (c *Client) doAttempt(method, path string, query url.Values, body any) (json.RawMessage, error) {
	reqURL, err := c.buildURL(path, query)
	if err != nil {
		return nil, NewProtocolError("invalid request URL", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, NewProtocolError("failed to encode request body", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, reqURL, reader)
	if err != nil {
		return nil, NewProtocolError(fmt.Sprintf("failed to create %s request", method), err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redactURL(urlErr.URL)
		}
		return nil, NewNetworkError(fmt.Sprintf("%s request failed", method), err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewNetworkError("failed to read response body", err)
	}

	logging.LogGatewayRequest(method, path, resp.StatusCode, time.Since(start))
	if path != loginPath {
		logging.LogRawBytes("response "+path, raw)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, NewAuthError("gateway rejected the session (check credentials)")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Status == "" {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code %d: %s", resp.StatusCode, diagnostic(raw)))
		}
		if err == nil {
			err = fmt.Errorf("missing status field")
		}
		return nil, NewProtocolError("response is not a status envelope: "+diagnostic(raw), err)
	}

	if env.Status != statusSuccess {
		if env.Code == http.StatusUnauthorized {
			return nil, NewAuthError(envelopeMessage(env, raw))
		}
		return nil, NewGatewayError(resp.StatusCode, envelopeMessage(env, raw))
	}

	return env.Result, nil
}

// buildURL joins path onto BaseURL and attaches the session token
func (c *Client) buildURL(path string, query url.Values) (string, error) {
	u, err := url.Parse(c.BaseURL + "/" + path)
	if err != nil {
		return "", err
	}

	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if token := c.Token(); token != "" {
		q.Set("token", token)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// redactURL masks the credentials the gateway API carries in query strings
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	for _, key := range []string{"password", "token"} {
		if q.Has(key) {
			q.Set(key, "REDACTED")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// envelopeMessage prefers the gateway's own error text and falls back to a raw dump
func envelopeMessage(env envelope, raw []byte) string {
	if len(env.Error) > 0 && string(env.Error) != "null" {
		var text string
		if err := json.Unmarshal(env.Error, &text); err == nil {
			return text
		}
		return string(env.Error)
	}
	return fmt.Sprintf("status %q: %s", env.Status, diagnostic(raw))
}

func diagnostic(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) > maxDiagnosticBytes {
		return text[:maxDiagnosticBytes] + "..."
	}
	if text == "" {
		return "<empty body>"
	}
	return text
}

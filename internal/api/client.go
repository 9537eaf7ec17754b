package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/logging"
)

// MsgCannotConnect is shown when the server cannot be reached
const MsgCannotConnect = "Cannot connect to server. Please check if the backend is running."

// TokenSource supplies the bearer token for outgoing requests.
// An empty token means the Authorization header is omitted.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource
type StaticToken string

// Token implements TokenSource
func (s StaticToken) Token() string { return string(s) }

// Client calls the project-management REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Entry

	mu     sync.RWMutex
	tokens TokenSource
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithTokenSource sets the bearer token source
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// New creates a client for baseURL, which already includes the /api prefix
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logging.NewLogger("api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenSource swaps the token source after construction
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// doJSON sends body as JSON and decodes the response into out when out is non-nil
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	data, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to decode response").
			WithDetail("path", path)
	}
	return nil
}

// do performs the request and returns the raw response body for 2xx responses
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("path", path).Warn("Request failed")
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(err, errors.ErrCodeNetwork, MsgCannotConnect).WithDetail("path", path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNetwork, "failed to read response").WithDetail("path", path)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := statusError(resp.StatusCode, serverMessage(data), path)
		c.log.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Warn(apiErr.Message)
		return nil, apiErr
	}

	c.log.WithFields(logrus.Fields{"method": method, "path": path, "status": resp.StatusCode}).Debug("Request done")
	return data, nil
}

// statusError maps an HTTP status to a coded error, preferring the server's own message
func statusError(status int, msg, path string) *errors.DeckError {
	var code errors.ErrorCode
	switch {
	case status == http.StatusNotFound:
		code = errors.ErrCodeNotFound
		if msg == "" {
			msg = fmt.Sprintf("API endpoint not found: %s", path)
		}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		code = errors.ErrCodeUnauthorized
	case status == http.StatusConflict:
		code = errors.ErrCodeConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		code = errors.ErrCodeValidation
	default:
		code = errors.ErrCodeInternal
	}
	serverSupplied := msg != ""
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", status)
	}
	return errors.New(code, msg).
		WithDetail("status", status).
		WithDetail("path", path).
		WithDetail("server_message", serverSupplied)
}

// StatusCode returns the HTTP status carried by an API error, or 0 when the request never got a response
func StatusCode(err error) int {
	var de *errors.DeckError
	if !stderrors.As(err, &de) {
		return 0
	}
	status, _ := de.Details["status"].(int)
	return status
}

// ServerMessage returns the message the server put in its error body, if any
func ServerMessage(err error) (string, bool) {
	var de *errors.DeckError
	if !stderrors.As(err, &de) {
		return "", false
	}
	if supplied, _ := de.Details["server_message"].(bool); supplied {
		return de.Message, true
	}
	return "", false
}

// serverMessage extracts {"message": ...} from an error body. Validation errors may carry a
// list of messages; those are joined. Non-JSON bodies are returned trimmed.
func serverMessage(body []byte) string {
	var envelope struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return strings.TrimSpace(string(body))
	}
	if len(envelope.Message) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(envelope.Message, &single); err == nil {
		return single
	}
	var many []string
	if err := json.Unmarshal(envelope.Message, &many); err == nil {
		return strings.Join(many, "; ")
	}
	return ""
}

func pathID(prefix, id string, suffix ...string) string {
	p := prefix + "/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"touchbridge/internal/protocol"
)

// DefaultTimeout bounds a single action request.
const DefaultTimeout = 5 * time.Second

// maxResponseSize bounds the body read from an action response.
const maxResponseSize = 64 << 10

// ErrMalformedResponse is returned when the server answers without the status envelope.
var ErrMalformedResponse = errors.New("malformed response")

// HTTPError is returned for error responses that carry no status envelope.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// BaseURL is the remote server root, e.g. "http://192.168.1.20:8088"
	BaseURL string

	// Token is sent as a bearer token when non-empty
	Token string

	// Timeout bounds each request; DefaultTimeout when zero
	Timeout time.Duration

	// HTTPClient overrides the underlying client (Timeout is then ignored)
	HTTPClient *http.Client
}

// Client posts JSON bodies to the remote HID server's /api/<endpoint> routes.
// It does not retry; each call is exactly one request.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a client for the server at opts.BaseURL.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("remote server URL is required")
	}
	raw := opts.BaseURL
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "invalid server URL")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    u,
		token:      opts.Token,
		httpClient: httpClient,
		logger:     log.With().Str("component", "client").Logger(),
	}, nil
}

// BaseURL returns the server root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// PostJSON marshals body, POSTs it to /api/<endpoint> and decodes the status
// envelope. A response carrying the envelope is returned even for HTTP error
// codes; the caller decides what a non-success status means. Any returned
// error is a transport failure.
func (c *Client) PostJSON(ctx context.Context, endpoint string, body any) (*protocol.Response, error) {
	defer RequestStarted(ctx)

	data, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode request")
	}

	u := *c.baseURL
	u.Path = path.Join("/", u.Path, "api", endpoint)

	req, err := http.NewRequestWithContext(traceStarted(ctx), http.MethodPost, u.String(), bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("request_id", requestID).
		Int("http_status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("action posted")

	return decodeResponse(resp.StatusCode, raw)
}

func decodeResponse(statusCode int, raw []byte) (*protocol.Response, error) {
	status := gjson.GetBytes(raw, "status")
	if !gjson.ValidBytes(raw) || !status.Exists() {
		if statusCode >= 400 {
			return nil, &HTTPError{StatusCode: statusCode, Message: strings.TrimSpace(string(raw))}
		}
		return nil, errors.Wrapf(ErrMalformedResponse, "http %d", statusCode)
	}

	return &protocol.Response{
		Status:  status.String(),
		Action:  protocol.Classification(gjson.GetBytes(raw, "action").String()),
		Message: gjson.GetBytes(raw, "message").String(),
		Mode:    gjson.GetBytes(raw, "mode").String(),
	}, nil
}

// Package client provides the HTTP client for the getAddress-style lookup API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"address_lookup_backend/internal/lookup/transport"
	"address_lookup_backend/platform/logger"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL     = "https://api.getaddress.io"
	defaultHTTPTimeout = 10 * time.Second
	maxResponseBytes   = 1 << 20
)

const (
	opSearch  = "search"
	opResolve = "resolve"
)

// Options configures a Client.
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// RequestsPerSecond caps outbound calls. Zero disables the limiter.
	RequestsPerSecond float64
	Burst             int
	// HTTPClient overrides the default client (used by tests).
	HTTPClient *http.Client
}

// Client is the HTTP client for the address lookup provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	log        *logger.Logger
}

// New creates a new lookup API client.
func New(opts Options, log *logger.Logger) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     opts.APIKey,
		limiter:    limiter,
		log:        log,
	}
}

// Search fetches autocomplete suggestions for a free-text query.
// An empty body decodes as an empty suggestion list.
func (c *Client) Search(ctx context.Context, query string) transport.Result[[]transport.Candidate] {
	start := time.Now()
	body, serviceErr, err := c.doRequest(ctx, "/autocomplete/"+url.PathEscape(query))
	if err != nil {
		c.log.LookupCall(opSearch, transport.ResultFailure.String(), time.Since(start), err)
		return transport.Failure[[]transport.Candidate](err)
	}
	if serviceErr != "" {
		c.log.LookupCall(opSearch, transport.ResultServiceError.String(), time.Since(start), nil)
		return transport.ServiceError[[]transport.Candidate](serviceErr)
	}

	var payload searchResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			err = fmt.Errorf("decode search response: %w", err)
			c.log.LookupCall(opSearch, transport.ResultFailure.String(), time.Since(start), err)
			return transport.Failure[[]transport.Candidate](err)
		}
	}

	candidates := make([]transport.Candidate, 0, len(payload.Suggestions))
	for _, s := range payload.Suggestions {
		candidates = append(candidates, s.toTransport())
	}

	c.log.LookupCall(opSearch, transport.ResultOK.String(), time.Since(start), nil)
	return transport.OK(candidates)
}

// Resolve fetches the full address for a suggestion ID.
func (c *Client) Resolve(ctx context.Context, id string) transport.Result[transport.AddressDetail] {
	start := time.Now()
	body, serviceErr, err := c.doRequest(ctx, "/get/"+url.PathEscape(id))
	if err != nil {
		c.log.LookupCall(opResolve, transport.ResultFailure.String(), time.Since(start), err)
		return transport.Failure[transport.AddressDetail](err)
	}
	if serviceErr != "" {
		c.log.LookupCall(opResolve, transport.ResultServiceError.String(), time.Since(start), nil)
		return transport.ServiceError[transport.AddressDetail](serviceErr)
	}

	var detail transport.AddressDetail
	if len(body) > 0 {
		if err := json.Unmarshal(body, &detail); err != nil {
			err = fmt.Errorf("decode resolve response: %w", err)
			c.log.LookupCall(opResolve, transport.ResultFailure.String(), time.Since(start), err)
			return transport.Failure[transport.AddressDetail](err)
		}
	}
	detail.Raw = json.RawMessage(body)

	c.log.LookupCall(opResolve, transport.ResultOK.String(), time.Since(start), nil)
	return transport.OK(detail)
}

// doRequest performs a GET against path and sorts the response into a body,
// a service-reported error message, or a failure.
func (c *Client) doRequest(ctx context.Context, path string) ([]byte, string, error) {
	if c.limiter != nil && !c.limiter.Allow() {
		return nil, "", &StatusError{Status: http.StatusTooManyRequests, Message: "outbound request rate exceeded"}
	}

	reqURL := c.baseURL + path
	if c.apiKey != "" {
		params := url.Values{}
		params.Set("api-key", c.apiKey)
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		if msg := payloadError(body, false); msg != "" {
			return nil, msg, nil
		}
		return body, "", nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, "", &StatusError{Status: resp.StatusCode, Message: payloadError(body, true)}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// Bad query, unknown id, invalid key: the provider explains itself in the body.
		if msg := payloadError(body, true); msg != "" {
			return nil, msg, nil
		}
		return nil, "", &StatusError{Status: resp.StatusCode}
	default:
		return nil, "", &StatusError{Status: resp.StatusCode, Message: payloadError(body, true)}
	}
}

// payloadError extracts an application error from a JSON body. The provider
// uses "Message" on error statuses; the "error" field may appear on any status.
func payloadError(body []byte, includeMessage bool) string {
	if len(body) == 0 {
		return ""
	}

	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	if includeMessage {
		return payload.Message
	}
	return ""
}

// StatusError is a non-success HTTP status from the provider, or a synthetic
// 429 when the outbound limiter rejects a call.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("upstream status %d", e.Status)
}

// StatusCode returns the HTTP status that caused the error.
func (e *StatusError) StatusCode() int {
	return e.Status
}

// IsStatus reports whether err carries a StatusError with the given status.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

type searchResponse struct {
	Suggestions []apiSuggestion `json:"suggestions"`
}

type apiSuggestion struct {
	Address string `json:"address"`
	URL     string `json:"url"`
	ID      string `json:"id"`
}

func (s apiSuggestion) toTransport() transport.Candidate {
	return transport.Candidate{
		ID:    s.ID,
		Label: s.Address,
		URL:   s.URL,
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"Message"`
}

package backend

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"

	"github.com/custodia-labs/synapse-reader/internal/logger"
)

var log = logger.Scope("backend")

// Default configuration values.
const (
	DefaultTimeout    = 60 * time.Second
	DefaultRetryCount = 1
)

// Config configures the backend client.
type Config struct {
	// BaseURL is the service root, e.g. http://localhost:8080.
	BaseURL string

	// Timeout bounds each request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// RetryCount is the number of retries on gateway errors and transport
	// failures. Zero means DefaultRetryCount; negative disables retries.
	RetryCount int

	// RetryWait is the base wait between retries. Defaults to 200ms.
	RetryWait time.Duration
}

// Client talks to the backend over HTTP.
type Client struct {
	http     *resty.Client
	base     *url.URL
	validate *validator.Validate
}

// NewClient creates a backend client.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend URL must be http or https, got %q", cfg.BaseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("backend URL must have a host, got %q", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	switch {
	case cfg.RetryCount == 0:
		cfg.RetryCount = DefaultRetryCount
	case cfg.RetryCount < 0:
		cfg.RetryCount = 0
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 200 * time.Millisecond
	}

	client := resty.New().
		SetBaseURL(base.String()).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(4 * cfg.RetryWait)
	client.AddRetryCondition(retryCondition)

	return &Client{
		http:     client,
		base:     base,
		validate: validator.New(),
	}, nil
}

// retryCondition retries transport failures and gateway errors. 503 and
// 429 are left to the caller, which reports them as "busy".
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	switch r.StatusCode() {
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// post sends body to path and decodes a 2xx response into result.
func (c *Client) post(req *resty.Request, path string, body, result any) error {
	resp, err := req.SetBody(body).SetResult(result).Post(path)
	if err != nil {
		return fmt.Errorf("backend %s: %w", path, err)
	}
	if resp.IsError() {
		return &StatusError{Path: path, Code: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
	}
	log.Debug("POST %s -> %d in %s", path, resp.StatusCode(), resp.Time())
	return nil
}

// resolve turns a possibly relative URL from the backend into an absolute one.
func (c *Client) resolve(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return c.base.ResolveReference(u).String()
}

// StatusError is a non-2xx backend response.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	text := e.Body
	if text == "" {
		text = http.StatusText(e.Code)
	}
	return fmt.Sprintf("backend %s: status %d: %s", e.Path, e.Code, text)
}

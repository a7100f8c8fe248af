package elastic

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	addresses      []string
	username       string
	password       string
	apiKey         string
	httpTransport  http.RoundTripper
	timeout        time.Duration
	maxRetries     int
	retryableHTTP  bool
	userAgent      string
	logger         zerolog.Logger
	responseErrors bool
	metaHeader     bool
}

// WithAddresses sets the Elasticsearch node URLs. Requests are spread
// across them by the transport's node pool.
func WithAddresses(addresses ...string) ClientOption {
	return func(c *clientConfig) {
		c.addresses = append(c.addresses, addresses...)
	}
}

// WithBasicAuth sets username and password credentials.
func WithBasicAuth(username, password string) ClientOption {
	return func(c *clientConfig) {
		c.username = username
		c.password = password
	}
}

// WithAPIKey sets a base64-encoded API key. It takes precedence over basic auth.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *clientConfig) {
		c.apiKey = apiKey
	}
}

// WithHTTPTransport sets the underlying HTTP round tripper.
func WithHTTPTransport(rt http.RoundTripper) ClientOption {
	return func(c *clientConfig) {
		c.httpTransport = rt
	}
}

// WithTimeout sets the response header timeout of the default round tripper.
// Note: This option is ignored when WithHTTPTransport is used.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithMaxRetries sets how many times a failed request is retried.
func WithMaxRetries(n int) ClientOption {
	return func(c *clientConfig) {
		c.maxRetries = n
	}
}

// WithRetryableHTTP moves retries from the node pool into a
// go-retryablehttp round tripper with exponential backoff. Retries then
// stay on the node that was picked for the request.
func WithRetryableHTTP() ClientOption {
	return func(c *clientConfig) {
		c.retryableHTTP = true
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger for round trips, retries and scroll cleanup.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithResponseErrors controls whether 4xx and 5xx responses are returned as
// errors. When disabled, callers inspect Response.AsBool and StatusCode.
// The product check applies either way.
func WithResponseErrors(enabled bool) ClientOption {
	return func(c *clientConfig) {
		c.responseErrors = enabled
	}
}

// WithMetaHeader controls the X-Elastic-Client-Meta header.
func WithMetaHeader(enabled bool) ClientOption {
	return func(c *clientConfig) {
		c.metaHeader = enabled
	}
}

// RequestOption configures individual API requests.
type RequestOption func(*requestConfig)

type requestConfig struct {
	headers http.Header
}

func newRequestConfig() *requestConfig {
	return &requestConfig{
		headers: make(http.Header),
	}
}

func (r *requestConfig) apply(opts ...RequestOption) {
	for _, opt := range opts {
		opt(r)
	}
}

// WithHeader adds a custom header to a request.
func WithHeader(key, value string) RequestOption {
	return func(r *requestConfig) {
		r.headers.Set(key, value)
	}
}

// WithHeaders adds multiple custom headers to a request.
func WithHeaders(headers map[string]string) RequestOption {
	return func(r *requestConfig) {
		for k, v := range headers {
			r.headers.Set(k, v)
		}
	}
}

// WithOpaqueID sets the X-Opaque-Id header, which the server echoes into
// its task list and slow logs.
func WithOpaqueID(id string) RequestOption {
	return WithHeader("X-Opaque-Id", id)
}

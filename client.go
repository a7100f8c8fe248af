package elastic

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/elastic/elastic-transport-go/v8/elastictransport"
	"github.com/rs/zerolog"

	"github.com/tphakala/go-elastic/internal/api"
	"github.com/tphakala/go-elastic/internal/auth"
)

// Default configuration values.
const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
)

// Client is the Elasticsearch API client.
type Client struct {
	// DanglingIndices provides access to dangling index operations.
	DanglingIndices DanglingIndicesService

	transport      *api.Transport
	logger         zerolog.Logger
	responseErrors bool
}

// NewClient creates a new Elasticsearch client with the given options.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		timeout:        defaultTimeout,
		maxRetries:     defaultMaxRetries,
		logger:         zerolog.Nop(),
		responseErrors: true,
		metaHeader:     true,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.addresses) == 0 {
		return nil, ErrNoAddresses
	}

	urls := make([]*url.URL, 0, len(cfg.addresses))
	for _, addr := range cfg.addresses {
		u, err := url.Parse(strings.TrimSuffix(addr, "/"))
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", addr, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid address %q: scheme and host are required", addr)
		}
		urls = append(urls, u)
	}

	rt := cfg.httpTransport
	if rt == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.ResponseHeaderTimeout = cfg.timeout
		rt = t
	}

	tcfg := elastictransport.Config{
		URLs:          urls,
		Transport:     rt,
		MaxRetries:    cfg.maxRetries,
		RetryOnStatus: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
		Logger:        &api.RoundTripLogger{Logger: cfg.logger},
	}
	if cfg.retryableHTTP {
		tcfg.Transport = api.NewRetryableRoundTripper(rt, cfg.maxRetries, cfg.logger)
		tcfg.DisableRetry = true
	}

	creds := &auth.Credentials{
		Username: cfg.username,
		Password: cfg.password,
		APIKey:   cfg.apiKey,
	}
	if creds.Valid() {
		creds.Configure(&tcfg)
	}

	pool, err := elastictransport.New(tcfg)
	if err != nil {
		return nil, fmt.Errorf("creating transport: %w", err)
	}

	transport, err := api.NewTransport(pool)
	if err != nil {
		return nil, err
	}

	if cfg.userAgent != "" {
		transport.UserAgent = cfg.userAgent
	}
	transport.MetaHeader = cfg.metaHeader

	return newClient(transport, cfg.logger, cfg.responseErrors), nil
}

func newClient(transport *api.Transport, logger zerolog.Logger, responseErrors bool) *Client {
	client := &Client{
		transport:      transport,
		logger:         logger,
		responseErrors: responseErrors,
	}

	// Initialize services
	client.DanglingIndices = newDanglingIndicesService(client)

	return client
}

// Perform sends a caller-built request and wraps the result. The request
// URL may be relative; the node pool supplies scheme and host.
func (c *Client) Perform(ctx context.Context, req *http.Request) (*Response, error) {
	raw, err := c.transport.Perform(req.Clone(ctx))
	if err != nil {
		return nil, err
	}
	return newResponse(raw.StatusCode, raw.Headers, raw.Body, c.responseErrors)
}

// Info returns basic information about the cluster.
func (c *Client) Info(ctx context.Context, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, &api.Request{
		Method: http.MethodGet,
		Path:   "/",
	}, opts...)
}

// Ping reports whether the cluster answers on its root endpoint.
func (c *Client) Ping(ctx context.Context, opts ...RequestOption) (bool, error) {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	raw, err := c.transport.Do(ctx, &api.Request{
		Method:  http.MethodHead,
		Path:    "/",
		Headers: reqCfg.headers,
	})
	if err != nil {
		return false, err
	}

	resp, err := newResponse(raw.StatusCode, raw.Headers, raw.Body, false)
	if err != nil {
		return false, err
	}
	return resp.AsBool(), nil
}

// do executes req and wraps the raw result, honouring the client's
// response error mode.
func (c *Client) do(ctx context.Context, req *api.Request, opts ...RequestOption) (*Response, error) {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)
	req.Headers = reqCfg.headers

	raw, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return newResponse(raw.StatusCode, raw.Headers, raw.Body, c.responseErrors)
}

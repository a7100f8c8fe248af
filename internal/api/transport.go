// Package api provides low-level HTTP transport for Elasticsearch API calls.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"runtime"
	"strings"

	"github.com/elastic/elastic-transport-go/v8/elastictransport"
)

const (
	defaultMaxBodySize = 100 * 1024 * 1024 // 100MB

	// Version is reported in the User-Agent and client meta headers.
	Version = "0.1.0"

	// MetaHeader identifies the client flavour to the server.
	MetaHeader = "X-Elastic-Client-Meta"
)

// Performer is the node-pooling transport the requests are sent through.
// *elastictransport.Client satisfies it.
type Performer interface {
	Perform(*http.Request) (*http.Response, error)
}

var _ Performer = (*elastictransport.Client)(nil)

// Transport handles HTTP communication with the Elasticsearch API.
type Transport struct {
	Performer   Performer
	UserAgent   string
	MetaHeader  bool
	MaxBodySize int64
}

// NewTransport creates a Transport sending requests through performer.
func NewTransport(performer Performer) (*Transport, error) {
	if performer == nil {
		return nil, fmt.Errorf("transport must be provided")
	}

	return &Transport{
		Performer:   performer,
		UserAgent:   "go-elastic/" + Version,
		MetaHeader:  true,
		MaxBodySize: defaultMaxBodySize,
	}, nil
}

// Request represents an API request.
type Request struct {
	Method string
	// Path is already escaped; segments built from user input go through
	// url.PathEscape.
	Path    string
	Query   url.Values
	Body    any
	Headers http.Header
}

// Response represents an API response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Do executes an API request and returns the raw response.
func (t *Transport) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := t.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	return t.Perform(httpReq)
}

// Perform sends a prepared request and reads the whole body.
// Requests may carry a relative URL; the node pool fills in scheme and host.
func (t *Transport) Perform(httpReq *http.Request) (*Response, error) {
	t.applyDefaults(httpReq)

	httpResp, err := t.Performer.Perform(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	limit := t.MaxBodySize
	if limit <= 0 {
		limit = defaultMaxBodySize
	}

	// Limit response body size to prevent memory exhaustion
	body, err := io.ReadAll(io.LimitReader(httpResp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if int64(len(body)) > limit {
		return nil, fmt.Errorf("response too large: exceeds %d bytes", limit)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
	}, nil
}

func (t *Transport) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	escaped := "/" + strings.TrimPrefix(req.Path, "/")
	path, err := url.PathUnescape(escaped)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", req.Path, err)
	}
	u := &url.URL{Path: path, RawPath: escaped}
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		data, err := encodeBody(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	// Apply custom headers
	maps.Copy(httpReq.Header, req.Headers)

	return httpReq, nil
}

func (t *Transport) applyDefaults(httpReq *http.Request) {
	if httpReq.Header == nil {
		httpReq.Header = make(http.Header)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", t.UserAgent)
	}
	if t.MetaHeader && httpReq.Header.Get(MetaHeader) == "" {
		httpReq.Header.Set(MetaHeader, metaHeaderValue())
	}
}

// encodeBody passes raw payloads through untouched and JSON-encodes the rest.
func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case string:
		return []byte(b), nil
	case io.Reader:
		return io.ReadAll(b)
	default:
		return json.Marshal(body)
	}
}

func metaHeaderValue() string {
	goVersion := strings.TrimPrefix(runtime.Version(), "go")
	return "es=" + Version + ",go=" + goVersion + ",t=" + Version + ",hc=" + goVersion
}

package elastic

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	jsoniter "github.com/json-iterator/go"
)

// Product identity checked on every successful response.
const (
	ProductHeader = "X-Elastic-Product"
	ProductName   = "Elasticsearch"
)

// bodyJSON keeps numbers as json.Number so 64-bit ids, _seq_no and
// _version survive the decode.
var bodyJSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// unmarshalJSON decodes response bodies. It is a variable so tests can
// count decode passes.
var unmarshalJSON = bodyJSON.Unmarshal

// Response is a read-only view of an Elasticsearch HTTP response.
//
// The body is decoded lazily, once, on the first structured access; AsMap,
// AsObject, Get, Has and Path all share that single decode. AsString always
// returns the raw body.
type Response struct {
	statusCode   int
	header       http.Header
	body         []byte
	raiseOnError bool

	decodeOnce sync.Once
	value      any
	decodeErr  error
}

// NewResponse wraps a raw HTTP response, reading and closing its body.
//
// A 2xx response without the Elasticsearch product header always fails
// with *ProductCheckError. When raiseOnError is true, 4xx and 5xx
// responses fail with *ClientResponseError and *ServerResponseError; both
// carry the Response for inspection.
func NewResponse(raw *http.Response, raiseOnError bool) (*Response, error) {
	if raw == nil {
		return nil, fmt.Errorf("elastic: nil HTTP response")
	}

	var body []byte
	if raw.Body != nil {
		defer func() { _ = raw.Body.Close() }()
		b, err := io.ReadAll(raw.Body)
		if err != nil {
			return nil, fmt.Errorf("reading response body: %w", err)
		}
		body = b
	}

	return newResponse(raw.StatusCode, raw.Header, body, raiseOnError)
}

func newResponse(statusCode int, header http.Header, body []byte, raiseOnError bool) (*Response, error) {
	if header == nil {
		header = make(http.Header)
	}

	r := &Response{
		statusCode:   statusCode,
		header:       header,
		body:         body,
		raiseOnError: raiseOnError,
	}

	switch {
	case r.AsBool():
		if product := header.Get(ProductHeader); product != ProductName {
			return nil, &ProductCheckError{StatusCode: statusCode, Product: product}
		}
	case statusCode >= http.StatusBadRequest && statusCode < 600:
		if raiseOnError {
			return nil, parseError(r)
		}
	}

	return r, nil
}

// StatusCode returns the HTTP status code.
func (r *Response) StatusCode() int {
	return r.statusCode
}

// Header returns a copy of the response headers.
func (r *Response) Header() http.Header {
	return r.header.Clone()
}

// AsBool reports whether the status code is 2xx.
func (r *Response) AsBool() bool {
	return r.statusCode >= http.StatusOK && r.statusCode < http.StatusMultipleChoices
}

// AsString returns the raw body, unaltered.
func (r *Response) AsString() string {
	return string(r.body)
}

// String implements fmt.Stringer.
func (r *Response) String() string {
	return r.AsString()
}

// AsMap returns the body decoded as a JSON object. The map is a copy;
// changing it does not affect the Response. Numbers are json.Number.
func (r *Response) AsMap() (map[string]any, error) {
	v, err := r.decode()
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, &AccessError{Kind: kindOf(v)}
	}
	return cloneValue(m).(map[string]any), nil
}

// AsObject projects the decoded body onto out, a pointer to a struct or
// map. Field names follow json struct tags. The body is not re-parsed.
func (r *Response) AsObject(out any) error {
	v, err := r.decode()
	if err != nil {
		return err
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       totalHitsHook,
	})
	if err != nil {
		return fmt.Errorf("elastic: projecting body: %w", err)
	}
	if err := dec.Decode(cloneValue(v)); err != nil {
		return fmt.Errorf("elastic: projecting body: %w", err)
	}
	return nil
}

// Get returns the value stored under key in the decoded body.
func (r *Response) Get(key string) (any, error) {
	return r.Path(key)
}

// Has reports whether key is present in the decoded body.
func (r *Response) Has(key string) bool {
	_, err := r.lookup(key)
	return err == nil
}

// Path walks nested objects, e.g. Path("hits", "hits"). Objects and arrays
// are returned as copies.
func (r *Response) Path(keys ...string) (any, error) {
	v, err := r.lookup(keys...)
	if err != nil {
		return nil, err
	}
	return cloneValue(v), nil
}

// lookup is Path without the copy, for read-only use inside the package.
func (r *Response) lookup(keys ...string) (any, error) {
	v, err := r.decode()
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, &AccessError{Key: key, Kind: kindOf(v)}
		}
		v, ok = m[key]
		if !ok {
			return nil, &KeyNotFoundError{Key: key}
		}
	}
	return v, nil
}

// Set always fails: responses are read-only.
func (r *Response) Set(key string, _ any) error {
	return &ArrayAccessError{Op: "set", Key: key}
}

// Unset always fails: responses are read-only.
func (r *Response) Unset(key string) error {
	return &ArrayAccessError{Op: "unset", Key: key}
}

func (r *Response) decode() (any, error) {
	r.decodeOnce.Do(func() {
		if !isJSON(r.contentType()) {
			r.decodeErr = &DecodeError{ContentType: r.contentType()}
			return
		}
		if len(r.body) == 0 {
			r.value = map[string]any{}
			return
		}
		if err := unmarshalJSON(r.body, &r.value); err != nil {
			r.decodeErr = &DecodeError{ContentType: r.contentType(), Err: err}
		}
	})
	return r.value, r.decodeErr
}

// totalHitsHook accepts hits.total both as an object and as the bare
// integer returned with rest_total_hits_as_int.
func totalHitsHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(TotalHits{}) {
		return data, nil
	}
	switch n := data.(type) {
	case json.Number, float64:
		return map[string]any{"value": n, "relation": "eq"}, nil
	}
	return data, nil
}

// cloneValue deep-copies decoded objects and arrays; scalars are immutable.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}

func (r *Response) contentType() string {
	return r.header.Get("Content-Type")
}

// isJSON accepts a missing content type, application/json and the
// vendor-specific +json types.
func isJSON(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func kindOf(v any) string {
	switch v.(type) {
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

package elastic

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Sentinel errors for common failure modes.
var (
	ErrNoAddresses = errors.New("elastic: no addresses configured")
	ErrScrollDone  = errors.New("elastic: scroll exhausted")
)

// ProductCheckError indicates a successful response that did not come from
// Elasticsearch. It is returned regardless of the response error mode.
type ProductCheckError struct {
	StatusCode int
	Product    string
}

func (e *ProductCheckError) Error() string {
	if e.Product == "" {
		return fmt.Sprintf("elastic: the server is not %s: missing %s header", ProductName, ProductHeader)
	}
	return fmt.Sprintf("elastic: the server is not %s: unsupported product %q", ProductName, e.Product)
}

// ResponseError describes a 4xx or 5xx response.
type ResponseError struct {
	StatusCode int
	Type       string
	Reason     string
	RootCause  string

	// Response is the wrapped response, available for inspection.
	Response *Response
}

func (e *ResponseError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("elastic: %d %s: %s", e.StatusCode, e.Type, e.reason())
	}
	return fmt.Sprintf("elastic: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *ResponseError) reason() string {
	if e.RootCause != "" && e.RootCause != e.Reason {
		return e.Reason + " (root cause: " + e.RootCause + ")"
	}
	return e.Reason
}

// ClientResponseError indicates a 4xx response.
type ClientResponseError struct {
	ResponseError
	RetryAfter time.Duration
}

func (e *ClientResponseError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s, retry after %s", e.ResponseError.Error(), e.RetryAfter)
	}
	return e.ResponseError.Error()
}

// As implements error unwrapping for errors.As to match *ResponseError.
func (e *ClientResponseError) As(target any) bool {
	if t, ok := target.(**ResponseError); ok {
		*t = &e.ResponseError
		return true
	}
	return false
}

// ServerResponseError indicates a 5xx response.
type ServerResponseError struct {
	ResponseError
}

// As implements error unwrapping for errors.As to match *ResponseError.
func (e *ServerResponseError) As(target any) bool {
	if t, ok := target.(**ResponseError); ok {
		*t = &e.ResponseError
		return true
	}
	return false
}

// DecodeError indicates a body that is not the expected structured data.
type DecodeError struct {
	ContentType string
	Err         error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("elastic: cannot decode body of type %q", e.ContentType)
	}
	return fmt.Sprintf("elastic: decoding body: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// AccessError indicates keyed access to a body that did not decode to an object.
type AccessError struct {
	Key  string
	Kind string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("elastic: cannot access key %q on %s body", e.Key, e.Kind)
}

// KeyNotFoundError indicates keyed access to a missing key.
type KeyNotFoundError struct {
	Key string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("elastic: key %q not found", e.Key)
}

// ArrayAccessError is returned by every attempt to modify a Response.
type ArrayAccessError struct {
	Op  string
	Key string
}

func (e *ArrayAccessError) Error() string {
	return fmt.Sprintf("elastic: cannot %s key %q: responses are read-only", e.Op, e.Key)
}

// MissingParameterError indicates a required endpoint parameter was empty.
type MissingParameterError struct {
	Parameter string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("elastic: missing required parameter %q", e.Parameter)
}

// ValidationError indicates invalid request parameters.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("elastic: validation error: %s (fields: %v)", e.Message, e.Fields)
	}
	return fmt.Sprintf("elastic: validation error: %s", e.Message)
}

// newValidationError converts validator failures into a ValidationError.
func newValidationError(what string, err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("elastic: validating %s: %w", what, err)
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		tag := fe.Tag()
		if fe.Param() != "" {
			tag += "=" + fe.Param()
		}
		fields[fe.Field()] = tag
	}
	return &ValidationError{Message: "invalid " + what, Fields: fields}
}

// errorBody is the error envelope returned by the server.
type errorBody struct {
	Error struct {
		Type      string `json:"type"`
		Reason    string `json:"reason"`
		RootCause []struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"root_cause"`
	} `json:"error"`
}

// parseError converts an error status into the appropriate error type.
func parseError(resp *Response) error {
	base := ResponseError{
		StatusCode: resp.statusCode,
		Response:   resp,
	}

	// Best-effort parse of the structured error; plain-text bodies and
	// HEAD responses carry nothing to extract.
	var body errorBody
	if err := resp.AsObject(&body); err == nil {
		base.Type = body.Error.Type
		base.Reason = body.Error.Reason
		if len(body.Error.RootCause) > 0 {
			base.RootCause = body.Error.RootCause[0].Reason
		}
	}
	if base.Reason == "" {
		base.Reason = strings.TrimSpace(resp.AsString())
	}

	if resp.statusCode >= http.StatusInternalServerError {
		return &ServerResponseError{ResponseError: base}
	}

	clientErr := &ClientResponseError{ResponseError: base}
	if resp.statusCode == http.StatusTooManyRequests {
		clientErr.RetryAfter = parseRetryAfter(resp.header.Get("Retry-After"))
	}
	return clientErr
}

// parseRetryAfter parses the Retry-After header value.
// It handles both seconds (integer) and HTTP-date formats.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	// Try parsing as seconds first
	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(seconds) * time.Second
	}

	// Try parsing as HTTP-date (RFC 1123)
	if t, err := time.Parse(time.RFC1123, value); err == nil {
		duration := time.Until(t)
		if duration > 0 {
			return duration
		}
	}

	return 0
}

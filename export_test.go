package elastic

import "net/http"

// HeadersOf returns the headers a set of request options applies.
func HeadersOf(opts ...RequestOption) http.Header {
	cfg := newRequestConfig()
	cfg.apply(opts...)
	return cfg.headers
}

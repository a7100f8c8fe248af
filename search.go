package elastic

import (
	"context"
	"net/http"

	"github.com/tphakala/go-elastic/internal/api"
)

const defaultScrollTTL = "5m"

// Search runs a query against req.Index, or all indices when it is empty.
// Setting req.Scroll opens a scroll cursor; its id is in "_scroll_id".
func (c *Client) Search(ctx context.Context, req *SearchRequest, opts ...RequestOption) (*Response, error) {
	if req == nil {
		req = &SearchRequest{}
	}
	if err := validate.Struct(req); err != nil {
		return nil, newValidationError("search request", err)
	}

	query, err := encodeQuery(req)
	if err != nil {
		return nil, err
	}

	path := "/_search"
	if len(req.Index) > 0 {
		path = "/" + joinIndices(req.Index) + "/_search"
	}

	return c.do(ctx, &api.Request{
		Method: http.MethodPost,
		Path:   path,
		Query:  query,
		Body:   req.Body,
	}, opts...)
}

// Scroll fetches the next page of a scroll cursor.
func (c *Client) Scroll(ctx context.Context, req *ScrollRequest, opts ...RequestOption) (*Response, error) {
	if req == nil {
		return nil, &MissingParameterError{Parameter: "scroll_id"}
	}
	if err := validate.Struct(req); err != nil {
		return nil, newValidationError("scroll request", err)
	}

	query, err := encodeQuery(req)
	if err != nil {
		return nil, err
	}

	body := map[string]any{"scroll_id": req.ScrollID}
	if req.Scroll != "" {
		body["scroll"] = req.Scroll
	}

	return c.do(ctx, &api.Request{
		Method: http.MethodPost,
		Path:   "/_search/scroll",
		Query:  query,
		Body:   body,
	}, opts...)
}

// ClearScroll releases scroll cursors on the server.
func (c *Client) ClearScroll(ctx context.Context, req *ClearScrollRequest, opts ...RequestOption) (*Response, error) {
	if req == nil {
		return nil, &MissingParameterError{Parameter: "scroll_id"}
	}
	if err := validate.Struct(req); err != nil {
		return nil, newValidationError("clear scroll request", err)
	}

	query, err := encodeQuery(req)
	if err != nil {
		return nil, err
	}

	return c.do(ctx, &api.Request{
		Method: http.MethodDelete,
		Path:   "/_search/scroll",
		Query:  query,
		Body:   map[string]any{"scroll_id": req.ScrollID},
	}, opts...)
}

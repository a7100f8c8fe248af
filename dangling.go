package elastic

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tphakala/go-elastic/internal/api"
)

// DanglingIndicesService provides operations on dangling indices: index
// data found on disk that is not part of the cluster metadata.
//
//go:generate mockery --name=DanglingIndicesService --output=mocks --outpkg=mocks --filename=dangling_indices_service.go
type DanglingIndicesService interface {
	// List returns all dangling indices.
	List(ctx context.Context, params *CommonParams, opts ...RequestOption) (*Response, error)

	// Import imports a dangling index. params.AcceptDataLoss must be true.
	Import(ctx context.Context, indexUUID string, params *DanglingIndexParams, opts ...RequestOption) (*Response, error)

	// Delete deletes a dangling index. params.AcceptDataLoss must be true.
	Delete(ctx context.Context, indexUUID string, params *DanglingIndexParams, opts ...RequestOption) (*Response, error)
}

// danglingIndicesService implements DanglingIndicesService.
type danglingIndicesService struct {
	client *Client
}

func newDanglingIndicesService(client *Client) *danglingIndicesService {
	return &danglingIndicesService{client: client}
}

func (s *danglingIndicesService) List(ctx context.Context, params *CommonParams, opts ...RequestOption) (*Response, error) {
	if params == nil {
		params = &CommonParams{}
	}
	query, err := encodeQuery(params)
	if err != nil {
		return nil, err
	}

	return s.client.do(ctx, &api.Request{
		Method: http.MethodGet,
		Path:   "/_dangling",
		Query:  query,
	}, opts...)
}

func (s *danglingIndicesService) Import(ctx context.Context, indexUUID string, params *DanglingIndexParams, opts ...RequestOption) (*Response, error) {
	return s.send(ctx, http.MethodPost, indexUUID, params, opts...)
}

func (s *danglingIndicesService) Delete(ctx context.Context, indexUUID string, params *DanglingIndexParams, opts ...RequestOption) (*Response, error) {
	return s.send(ctx, http.MethodDelete, indexUUID, params, opts...)
}

func (s *danglingIndicesService) send(ctx context.Context, method, indexUUID string, params *DanglingIndexParams, opts ...RequestOption) (*Response, error) {
	if indexUUID == "" {
		return nil, &MissingParameterError{Parameter: "index_uuid"}
	}
	if params == nil {
		params = &DanglingIndexParams{}
	}
	query, err := encodeQuery(params)
	if err != nil {
		return nil, err
	}

	return s.client.do(ctx, &api.Request{
		Method: method,
		Path:   "/_dangling/" + url.PathEscape(indexUUID),
		Query:  query,
	}, opts...)
}

package central

import (
	"context"
	"iter"
	"net/url"
)

// EndpointService provides operations on managed endpoints in the caller's
// data region.
type EndpointService interface {
	// List returns one page of endpoints matching the filter.
	List(ctx context.Context, filter *EndpointFilter, page PageOptions, opts ...RequestOption) (*Page[Endpoint], error)

	// All returns an iterator over every endpoint matching the filter.
	All(ctx context.Context, filter *EndpointFilter, opts ...RequestOption) iter.Seq2[Endpoint, error]

	// Get retrieves a single endpoint by ID.
	Get(ctx context.Context, id string, opts ...RequestOption) (*Endpoint, error)

	// Isolate cuts the given endpoints off the network.
	Isolate(ctx context.Context, ids []string, comment string, opts ...RequestOption) ([]IsolationResult, error)

	// Unisolate restores network access for the given endpoints.
	Unisolate(ctx context.Context, ids []string, comment string, opts ...RequestOption) ([]IsolationResult, error)

	// Scan starts a scan on an endpoint.
	Scan(ctx context.Context, id string, opts ...RequestOption) (*ScanResult, error)
}

const endpointsPath = "/endpoint/v1/endpoints"

type endpointService struct {
	client *Client
}

func newEndpointService(c *Client) *endpointService {
	return &endpointService{client: c}
}

func (s *endpointService) List(ctx context.Context, filter *EndpointFilter, page PageOptions, opts ...RequestOption) (*Page[Endpoint], error) {
	var result Page[Endpoint]
	if err := s.client.Get(ctx, endpointsPath, page.params(filter.params()), &result, opts...); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *endpointService) All(ctx context.Context, filter *EndpointFilter, opts ...RequestOption) iter.Seq2[Endpoint, error] {
	return paginate(ctx, PageOptions{}, func(ctx context.Context, page PageOptions) (*Page[Endpoint], error) {
		return s.List(ctx, filter, page, opts...)
	})
}

func (s *endpointService) Get(ctx context.Context, id string, opts ...RequestOption) (*Endpoint, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	var result Endpoint
	if err := s.client.Get(ctx, endpointsPath+"/"+url.PathEscape(id), nil, &result, opts...); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *endpointService) Isolate(ctx context.Context, ids []string, comment string, opts ...RequestOption) ([]IsolationResult, error) {
	return s.setIsolation(ctx, true, ids, comment, opts)
}

func (s *endpointService) Unisolate(ctx context.Context, ids []string, comment string, opts ...RequestOption) ([]IsolationResult, error) {
	return s.setIsolation(ctx, false, ids, comment, opts)
}

type isolationRequest struct {
	Enabled bool     `json:"enabled"`
	IDs     []string `json:"ids"`
	Comment string   `json:"comment,omitempty"`
}

func (s *endpointService) setIsolation(ctx context.Context, enabled bool, ids []string, comment string, opts []RequestOption) ([]IsolationResult, error) {
	if len(ids) == 0 {
		return nil, ErrEmptyID
	}
	for _, id := range ids {
		if id == "" {
			return nil, ErrEmptyID
		}
	}

	var result struct {
		Items []IsolationResult `json:"items"`
	}
	body := &isolationRequest{Enabled: enabled, IDs: ids, Comment: comment}
	if err := s.client.Post(ctx, endpointsPath+"/isolation", body, &result, opts...); err != nil {
		return nil, err
	}
	return result.Items, nil
}

func (s *endpointService) Scan(ctx context.Context, id string, opts ...RequestOption) (*ScanResult, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	var result ScanResult
	path := endpointsPath + "/" + url.PathEscape(id) + "/scans"
	if err := s.client.Post(ctx, path, struct{}{}, &result, opts...); err != nil {
		return nil, err
	}
	return &result, nil
}

package central

import (
	"context"
	"iter"
	"net/url"
)

// TenantService lists the tenants visible to partner or organization
// credentials. All calls go to the global host.
type TenantService interface {
	// List returns one page of tenants.
	List(ctx context.Context, page PageOptions, opts ...RequestOption) (*Page[Tenant], error)

	// All returns an iterator over every tenant, fetching pages lazily.
	All(ctx context.Context, opts ...RequestOption) iter.Seq2[Tenant, error]

	// Get retrieves a single tenant by ID.
	Get(ctx context.Context, id string, opts ...RequestOption) (*Tenant, error)
}

type tenantService struct {
	client *Client
}

func newTenantService(c *Client) *tenantService {
	return &tenantService{client: c}
}

// basePath picks the tenant collection for the caller's identity type.
func (s *tenantService) basePath(ctx context.Context) (string, error) {
	id, err := s.client.WhoAmI(ctx)
	if err != nil {
		return "", err
	}
	switch id.IDType {
	case IDTypePartner:
		return "/partner/v1/tenants", nil
	case IDTypeOrganization:
		return "/organization/v1/tenants", nil
	default:
		return "", ErrNotPartner
	}
}

func (s *tenantService) List(ctx context.Context, page PageOptions, opts ...RequestOption) (*Page[Tenant], error) {
	path, err := s.basePath(ctx)
	if err != nil {
		return nil, err
	}

	var result Page[Tenant]
	query := page.params(Params{"pageTotal": true})
	if err := s.client.Get(ctx, path, query, &result, append([]RequestOption{WithGlobalHost()}, opts...)...); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *tenantService) All(ctx context.Context, opts ...RequestOption) iter.Seq2[Tenant, error] {
	return paginate(ctx, PageOptions{Page: 1}, func(ctx context.Context, page PageOptions) (*Page[Tenant], error) {
		return s.List(ctx, page, opts...)
	})
}

func (s *tenantService) Get(ctx context.Context, id string, opts ...RequestOption) (*Tenant, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	path, err := s.basePath(ctx)
	if err != nil {
		return nil, err
	}

	var result Tenant
	if err := s.client.Get(ctx, path+"/"+url.PathEscape(id), nil, &result, append([]RequestOption{WithGlobalHost()}, opts...)...); err != nil {
		return nil, err
	}
	return &result, nil
}

package central

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"

	"github.com/tphakala/go-central/internal/api"
	"github.com/tphakala/go-central/internal/auth"
	"github.com/tphakala/go-central/internal/discovery"
)

// Default configuration values.
const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "go-central/1.0"
)

// Scoping headers.
const (
	headerTenantID       = "X-Tenant-ID"
	headerPartnerID      = "X-Partner-ID"
	headerOrganizationID = "X-Organization-ID"
)

// Client is the Central API client. It is safe for concurrent use.
type Client struct {
	// Tenants provides access to tenant listing for partner and
	// organization credentials.
	Tenants TenantService

	// Endpoints provides access to managed endpoint operations.
	Endpoints EndpointService

	// Alerts provides access to alert operations.
	Alerts AlertService

	tokens    *auth.Manager
	resolver  *discovery.Resolver
	transport *api.Transport
	timeout   time.Duration
	logger    hclog.Logger
}

// NewClient creates a new Central client with the given options. Missing
// credentials fail here, before any network activity.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		timeout:   defaultTimeout,
		userAgent: defaultUserAgent,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.clientID == "" || cfg.clientSecret == "" {
		return nil, ErrNoCredentials
	}

	logger := cfg.logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
	}

	tokens, err := auth.NewManager(auth.Config{
		Credentials: &auth.Credentials{ClientID: cfg.clientID, ClientSecret: cfg.clientSecret},
		TokenURL:    cfg.tokenURL,
		HTTPClient:  httpClient,
		Timeout:     cfg.timeout,
		UserAgent:   cfg.userAgent,
		Logger:      logger.Named("auth"),
		Now:         cfg.now,
	})
	if err != nil {
		return nil, fmt.Errorf("central: %w", err)
	}

	resolver := discovery.New(discovery.Config{
		Tokens:     tokens,
		HTTPClient: httpClient,
		Configured: discovery.Binding{
			APIURL:    cfg.apiURL,
			GlobalURL: cfg.globalURL,
			TenantID:  cfg.tenantID,
		},
		Timeout:   cfg.timeout,
		UserAgent: cfg.userAgent,
		Logger:    logger.Named("discovery"),
	})

	transport := api.NewTransport(httpClient, cfg.timeout, logger.Named("http"))
	transport.UserAgent = cfg.userAgent

	client := &Client{
		tokens:    tokens,
		resolver:  resolver,
		transport: transport,
		timeout:   cfg.timeout,
		logger:    logger,
	}

	// Initialize services
	client.Tenants = newTenantService(client)
	client.Endpoints = newEndpointService(client)
	client.Alerts = newAlertService(client)

	return client, nil
}

// BaseURL returns the data-region API host, or an empty string if it has
// not been configured or discovered yet.
func (c *Client) BaseURL() string {
	b, _ := c.resolver.Binding()
	return b.APIURL
}

// TokenExpiry returns the expiry of the cached access token, or the zero
// time when no token is cached.
func (c *Client) TokenExpiry() time.Time {
	return c.tokens.Expiry()
}

// WhoAmI resolves and returns the identity behind the configured
// credentials. Discovery runs at most once per client.
func (c *Client) WhoAmI(ctx context.Context) (*Identity, error) {
	b, err := c.resolver.Resolve(ctx)
	if err != nil {
		return nil, classify(ctx, err, c.timeout)
	}
	return &Identity{
		ID:        b.TenantID,
		IDType:    IDType(b.IDType),
		APIURL:    b.APIURL,
		GlobalURL: b.GlobalURL,
	}, nil
}

// Params are query parameters. Nil values are omitted and everything else
// is rendered as a string.
type Params map[string]any

// Request describes a raw API call.
type Request struct {
	Method string
	Path   string
	Query  Params
	Body   any
}

// Send resolves the region binding, obtains a token and dispatches req,
// returning the JSON body unchanged. A 204 response yields "{}".
func (c *Client) Send(ctx context.Context, req *Request, opts ...RequestOption) (json.RawMessage, error) {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	// Discovery may itself need a token, so it runs first; the token used
	// for the call is fetched afterwards in case the cache moved on.
	binding, err := c.resolver.Resolve(ctx)
	if err != nil {
		return nil, classify(ctx, err, c.timeout)
	}

	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, classify(ctx, err, c.timeout)
	}

	baseURL, err := target(binding, reqCfg)
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	resp, err := c.transport.Do(ctx, &api.Request{
		Method:  method,
		BaseURL: baseURL,
		Path:    req.Path,
		Query:   api.EncodeQuery(req.Query),
		Body:    req.Body,
		Headers: reqCfg.headers,
		Token:   tok,
	})
	if err != nil {
		return nil, classify(ctx, err, c.timeout)
	}

	return c.handleResponse(resp, tok)
}

// Get sends a GET request and decodes the response into out, if non-nil.
func (c *Client) Get(ctx context.Context, path string, query Params, out any, opts ...RequestOption) error {
	return c.do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, out, opts...)
}

// Post sends a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body}, out, opts...)
}

// Patch sends a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body}, out, opts...)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.do(ctx, &Request{Method: http.MethodDelete, Path: path}, out, opts...)
}

func (c *Client) do(ctx context.Context, req *Request, out any, opts ...RequestOption) error {
	raw, err := c.Send(ctx, req, opts...)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ClientError{Message: fmt.Sprintf("decoding response: %v", err), Err: err}
	}
	return nil
}

// target picks the host for a request and sets the matching scoping header.
func target(b discovery.Binding, rc *requestConfig) (string, error) {
	if rc.global {
		switch b.IDType {
		case discovery.IDTypePartner:
			setDefault(rc.headers, headerPartnerID, b.TenantID)
		case discovery.IDTypeOrganization:
			setDefault(rc.headers, headerOrganizationID, b.TenantID)
		}
		return b.GlobalURL, nil
	}

	apiURL := b.APIURL
	if rc.apiHost != "" {
		apiURL = rc.apiHost
	}
	if apiURL == "" {
		return "", &ClientError{Message: "no data region resolved; use WithAPIHost for partner or organization callers", Err: ErrNoDataRegion}
	}

	tenantID := rc.tenantID
	if tenantID == "" && (b.IDType == "" || b.IDType == discovery.IDTypeTenant) {
		tenantID = b.TenantID
	}
	if tenantID != "" {
		rc.headers.Set(headerTenantID, tenantID)
	}
	return apiURL, nil
}

func setDefault(h http.Header, key, value string) {
	if value != "" && h.Get(key) == "" {
		h.Set(key, value)
	}
}

// handleResponse classifies resp. Authentication failures drop tok from the
// cache so the next call re-authenticates.
func (c *Client) handleResponse(resp *api.Response, tok *oauth2.Token) (json.RawMessage, error) {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.tokens.Invalidate(tok)
		c.logger.Warn("request rejected, access token invalidated", "status", resp.StatusCode, "request_id", resp.RequestID)
		return nil, parseError(resp.StatusCode, resp.Body, resp.Headers, resp.RequestID)
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn("rate limited", "retry_after", resp.Headers.Get("Retry-After"), "request_id", resp.RequestID)
		return nil, parseError(resp.StatusCode, resp.Body, resp.Headers, resp.RequestID)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, parseError(resp.StatusCode, resp.Body, resp.Headers, resp.RequestID)
	case resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(resp.Body)) == 0:
		return json.RawMessage("{}"), nil
	case !json.Valid(resp.Body):
		return nil, &ClientError{
			StatusCode: resp.StatusCode,
			Message:    "response body is not valid JSON",
			RequestID:  resp.RequestID,
		}
	}
	return json.RawMessage(resp.Body), nil
}

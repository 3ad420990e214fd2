package central

import (
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	clientID     string
	clientSecret string
	tenantID     string
	apiURL       string
	globalURL    string
	tokenURL     string
	httpClient   *http.Client
	timeout      time.Duration
	userAgent    string
	logger       hclog.Logger
	now          func() time.Time
}

// WithCredentials sets the OAuth2 client credentials.
func WithCredentials(clientID, clientSecret string) ClientOption {
	return func(c *clientConfig) {
		c.clientID = clientID
		c.clientSecret = clientSecret
	}
}

// WithTenantID pins the tenant identifier. Combined with WithAPIURL it
// disables discovery entirely.
func WithTenantID(id string) ClientOption {
	return func(c *clientConfig) {
		c.tenantID = id
	}
}

// WithAPIURL pins the data-region API host.
func WithAPIURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.apiURL = url
	}
}

// WithGlobalURL overrides the global API host used for discovery and
// partner/organization calls.
func WithGlobalURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.globalURL = url
	}
}

// WithTokenURL overrides the OAuth2 token endpoint.
func WithTokenURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.tokenURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the timeout applied to every request, including token
// exchange and discovery.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger hclog.Logger) ClientOption {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithClock replaces the clock used for token expiry decisions.
func WithClock(now func() time.Time) ClientOption {
	return func(c *clientConfig) {
		c.now = now
	}
}

// RequestOption configures individual API requests.
type RequestOption func(*requestConfig)

type requestConfig struct {
	headers  http.Header
	global   bool
	tenantID string
	apiHost  string
}

func newRequestConfig() *requestConfig {
	return &requestConfig{
		headers: make(http.Header),
	}
}

func (r *requestConfig) apply(opts ...RequestOption) {
	for _, opt := range opts {
		opt(r)
	}
}

// WithHeader adds a custom header to a request.
func WithHeader(key, value string) RequestOption {
	return func(r *requestConfig) {
		r.headers.Set(key, value)
	}
}

// WithHeaders adds multiple custom headers to a request.
func WithHeaders(headers map[string]string) RequestOption {
	return func(r *requestConfig) {
		for k, v := range headers {
			r.headers.Set(k, v)
		}
	}
}

// WithRequestID sets the X-Request-ID header for tracing.
func WithRequestID(id string) RequestOption {
	return WithHeader("X-Request-ID", id)
}

// WithGlobalHost sends the request to the global host instead of the
// tenant's data region.
func WithGlobalHost() RequestOption {
	return func(r *requestConfig) {
		r.global = true
	}
}

// WithTenant overrides the X-Tenant-ID header for a single tenant-scoped
// request.
func WithTenant(id string) RequestOption {
	return func(r *requestConfig) {
		r.tenantID = id
	}
}

// WithAPIHost sends a tenant-scoped request to the given data-region host.
// Partner and organization callers combine it with WithTenant, using the
// tenant's apiHost.
func WithAPIHost(url string) RequestOption {
	return func(r *requestConfig) {
		r.apiHost = strings.TrimSuffix(url, "/")
	}
}

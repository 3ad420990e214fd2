// Package discovery resolves which data region and tenant the client talks
// to by asking the global whoami endpoint once per process.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultGlobalURL is the global API host used for discovery and
	// partner/organization calls.
	DefaultGlobalURL = "https://api.central.sophos.com"

	// WhoAmIPath is the identity discovery endpoint on the global host.
	WhoAmIPath = "/whoami/v1"

	defaultTimeout    = 30 * time.Second
	maxWhoAmIBodySize = 64 * 1024
	resolveKey        = "whoami"
)

// Identity types reported by whoami.
const (
	IDTypeTenant       = "tenant"
	IDTypePartner      = "partner"
	IDTypeOrganization = "organization"
)

// TokenSource supplies bearer tokens for the discovery call. Invalidate is
// called with a token that whoami rejected.
type TokenSource interface {
	Token(ctx context.Context) (*oauth2.Token, error)
	Invalidate(tok *oauth2.Token)
}

// Binding is the resolved pair of data-region host and tenant identifier,
// plus what discovery learned about the caller's identity.
type Binding struct {
	APIURL    string `json:"apiUrl,omitempty"`
	GlobalURL string `json:"globalUrl"`
	TenantID  string `json:"id,omitempty"`
	IDType    string `json:"idType,omitempty"`
}

// Complete reports whether both the data-region host and the tenant
// identifier are known.
func (b Binding) Complete() bool {
	return b.APIURL != "" && b.TenantID != ""
}

// merge fills empty fields of b from discovered.
func (b Binding) merge(discovered Binding) Binding {
	if b.APIURL == "" {
		b.APIURL = discovered.APIURL
	}
	if b.GlobalURL == "" {
		b.GlobalURL = discovered.GlobalURL
	}
	if b.TenantID == "" {
		b.TenantID = discovered.TenantID
	}
	if b.IDType == "" {
		b.IDType = discovered.IDType
	}
	return b
}

// Error reports a failed discovery call.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("whoami failed (status %d): %s", e.StatusCode, e.Message)
}

// Config configures a Resolver. Configured holds values supplied by the
// operator; they are never overwritten by discovery.
type Config struct {
	Tokens     TokenSource
	HTTPClient *http.Client
	Configured Binding
	Timeout    time.Duration
	UserAgent  string
	Logger     hclog.Logger
}

// Resolver owns the region binding. Once populated it is never refreshed.
type Resolver struct {
	tokens     TokenSource
	httpClient *http.Client
	configured Binding
	timeout    time.Duration
	userAgent  string
	logger     hclog.Logger

	binding atomic.Pointer[Binding]
	group   singleflight.Group
}

// New creates a Resolver. When the configured binding is already complete
// no discovery call will ever be made.
func New(cfg Config) *Resolver {
	r := &Resolver{
		tokens:     cfg.Tokens,
		httpClient: cfg.HTTPClient,
		configured: cfg.Configured,
		timeout:    cfg.Timeout,
		userAgent:  cfg.UserAgent,
		logger:     cfg.Logger,
	}
	if r.configured.GlobalURL == "" {
		r.configured.GlobalURL = DefaultGlobalURL
	}
	r.configured.APIURL = strings.TrimSuffix(r.configured.APIURL, "/")
	r.configured.GlobalURL = strings.TrimSuffix(r.configured.GlobalURL, "/")
	if r.httpClient == nil {
		r.httpClient = http.DefaultClient
	}
	if r.timeout <= 0 {
		r.timeout = defaultTimeout
	}
	if r.logger == nil {
		r.logger = hclog.NewNullLogger()
	}

	if r.configured.Complete() {
		b := r.configured
		if b.IDType == "" {
			b.IDType = IDTypeTenant
		}
		r.binding.Store(&b)
	}
	return r
}

// Resolve returns the binding, running discovery on first use.
func (r *Resolver) Resolve(ctx context.Context) (Binding, error) {
	if b := r.binding.Load(); b != nil {
		return *b, nil
	}

	// Shared by every waiting caller; see auth.Manager.Token.
	ch := r.group.DoChan(resolveKey, func() (any, error) {
		if b := r.binding.Load(); b != nil {
			return *b, nil
		}
		return r.discover(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return Binding{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Binding{}, res.Err
		}
		return res.Val.(Binding), nil
	}
}

// Binding returns the cached binding without triggering discovery.
func (r *Resolver) Binding() (Binding, bool) {
	if b := r.binding.Load(); b != nil {
		return *b, true
	}
	return r.configured, false
}

type whoAmIResponse struct {
	ID       string `json:"id"`
	IDType   string `json:"idType"`
	APIHosts struct {
		Global     string `json:"global"`
		DataRegion string `json:"dataRegion"`
	} `json:"apiHosts"`
}

func (r *Resolver) discover(ctx context.Context) (Binding, error) {
	tok, err := r.tokens.Token(ctx)
	if err != nil {
		return Binding{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.configured.GlobalURL+WhoAmIPath, nil)
	if err != nil {
		return Binding{}, fmt.Errorf("creating whoami request: %w", err)
	}
	tok.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Binding{}, fmt.Errorf("whoami request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWhoAmIBodySize))
	if err != nil {
		return Binding{}, fmt.Errorf("reading whoami response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			r.tokens.Invalidate(tok)
		}
		return Binding{}, &Error{StatusCode: resp.StatusCode, Message: describe(resp.StatusCode, body)}
	}

	var who whoAmIResponse
	if err := json.Unmarshal(body, &who); err != nil {
		return Binding{}, &Error{StatusCode: resp.StatusCode, Message: "malformed whoami response"}
	}

	b := r.configured.merge(Binding{
		APIURL:    strings.TrimSuffix(who.APIHosts.DataRegion, "/"),
		GlobalURL: strings.TrimSuffix(who.APIHosts.Global, "/"),
		TenantID:  who.ID,
		IDType:    who.IDType,
	})
	r.binding.Store(&b)

	r.logger.Info("resolved api binding", "id_type", b.IDType, "tenant_id", b.TenantID, "api_url", b.APIURL)
	return b, nil
}

func describe(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.ToLower(http.StatusText(status))
}

// Package auth implements the OAuth2 client-credentials token lifecycle for
// the Central API.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTokenURL is the identity service token endpoint.
	DefaultTokenURL = "https://id.sophos.com/api/v2/oauth2/token"

	// Scope is the fixed scope requested in every exchange.
	Scope = "token"

	// SafetyMargin is subtracted from a token's expiry before it is reused.
	SafetyMargin = 60 * time.Second

	defaultTimeout   = 30 * time.Second
	maxTokenBodySize = 64 * 1024
	refreshKey       = "token"
)

// ErrInvalidCredentials is returned when the client ID or secret is missing.
var ErrInvalidCredentials = errors.New("client id and client secret are required")

// Credentials holds the client-credentials pair. It is never mutated after
// construction and never rendered in full.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Valid reports whether credentials are configured.
func (c *Credentials) Valid() bool {
	return c != nil && c.ClientID != "" && c.ClientSecret != ""
}

// String keeps the secret out of logs and error messages.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{ClientID: %q, ClientSecret: [redacted]}", c.ClientID)
}

// GoString keeps the secret out of %#v output.
func (c Credentials) GoString() string {
	return c.String()
}

// Error reports a rejected token exchange. StatusCode is the HTTP status of
// the token endpoint response; it may be 200 when the rejection was signalled
// inside the body.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("token exchange failed (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("token exchange failed (status %d): %s", e.StatusCode, e.Message)
}

// Config configures a Manager.
type Config struct {
	Credentials *Credentials
	TokenURL    string
	HTTPClient  *http.Client
	Timeout     time.Duration
	UserAgent   string
	Logger      hclog.Logger
	Now         func() time.Time
}

// Manager owns the cached bearer token and refreshes it on demand.
//
// The cached value is replaced as a whole through an atomic pointer, so
// readers never observe a token paired with another token's expiry.
// Concurrent refreshes are collapsed into a single exchange.
type Manager struct {
	creds      Credentials
	tokenURL   string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     hclog.Logger
	now        func() time.Time

	current atomic.Pointer[oauth2.Token]
	group   singleflight.Group
}

// NewManager creates a Manager. Credentials are validated here so that a
// misconfigured client fails before any network activity.
func NewManager(cfg Config) (*Manager, error) {
	if !cfg.Credentials.Valid() {
		return nil, ErrInvalidCredentials
	}

	m := &Manager{
		creds:      *cfg.Credentials,
		tokenURL:   cfg.TokenURL,
		httpClient: cfg.HTTPClient,
		timeout:    cfg.Timeout,
		userAgent:  cfg.UserAgent,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}
	if m.tokenURL == "" {
		m.tokenURL = DefaultTokenURL
	}
	if m.timeout <= 0 {
		m.timeout = defaultTimeout
	}
	if m.httpClient == nil {
		m.httpClient = http.DefaultClient
	}
	if m.logger == nil {
		m.logger = hclog.NewNullLogger()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m, nil
}

// Token returns a token that is valid for at least SafetyMargin, exchanging
// credentials for a new one when the cache is empty or stale.
func (m *Manager) Token(ctx context.Context) (*oauth2.Token, error) {
	if tok := m.cached(); tok != nil {
		return tok, nil
	}

	// The exchange is shared by every waiting caller, so it is detached from
	// the first caller's cancellation and bounded by m.timeout instead.
	ch := m.group.DoChan(refreshKey, func() (any, error) {
		if tok := m.cached(); tok != nil {
			return tok, nil
		}
		return m.exchange(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*oauth2.Token), nil
	}
}

// Invalidate drops tok from the cache if it is still the current token.
// A nil tok clears whatever is cached.
func (m *Manager) Invalidate(tok *oauth2.Token) {
	if tok == nil {
		m.current.Store(nil)
		return
	}
	if m.current.CompareAndSwap(tok, nil) {
		m.logger.Debug("cached access token invalidated")
	}
}

// SetToken seeds the cache with an externally obtained token.
func (m *Manager) SetToken(tok *oauth2.Token) {
	m.current.Store(tok)
}

// Expiry returns the expiry of the cached token, or the zero time.
func (m *Manager) Expiry() time.Time {
	if tok := m.current.Load(); tok != nil {
		return tok.Expiry
	}
	return time.Time{}
}

func (m *Manager) cached() *oauth2.Token {
	tok := m.current.Load()
	if tok == nil || tok.AccessToken == "" {
		return nil
	}
	if !m.now().Before(tok.Expiry.Add(-SafetyMargin)) {
		return nil
	}
	return tok
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	ErrorCode        string `json:"errorCode"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (m *Manager) exchange(ctx context.Context) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {m.creds.ClientID},
		"client_secret": {m.creds.ClientSecret},
		"scope":         {Scope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if m.userAgent != "" {
		req.Header.Set("User-Agent", m.userAgent)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{StatusCode: resp.StatusCode, Message: describeBody(resp.StatusCode, body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Message: "malformed token response"}
	}

	// The identity service reports some failures inside a 200 body.
	switch {
	case tr.ErrorCode != "" && !strings.EqualFold(tr.ErrorCode, "success"):
		return nil, &Error{StatusCode: resp.StatusCode, Code: tr.ErrorCode, Message: firstNonEmpty(tr.Message, tr.ErrorCode)}
	case tr.Error != "":
		return nil, &Error{StatusCode: resp.StatusCode, Code: tr.Error, Message: firstNonEmpty(tr.ErrorDescription, tr.Error)}
	case tr.AccessToken == "":
		return nil, &Error{StatusCode: resp.StatusCode, Message: "token response did not contain an access token"}
	}

	tok := &oauth2.Token{
		AccessToken: tr.AccessToken,
		TokenType:   firstNonEmpty(tr.TokenType, "Bearer"),
		Expiry:      m.now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}
	m.current.Store(tok)

	m.logger.Info("access token refreshed", "expires_at", tok.Expiry.Format(time.RFC3339))
	return tok, nil
}

// describeBody extracts a human-readable reason from an error response.
func describeBody(status int, body []byte) string {
	var payload struct {
		Message          string `json:"message"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		ErrorCode        string `json:"errorCode"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if msg := firstNonEmpty(payload.ErrorDescription, payload.Message); msg != "" {
			if code := firstNonEmpty(payload.Error, payload.ErrorCode); code != "" {
				return code + ": " + msg
			}
			return msg
		}
		if code := firstNonEmpty(payload.Error, payload.ErrorCode); code != "" {
			return code
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "{") {
		return text
	}
	if text := http.StatusText(status); text != "" {
		return strings.ToLower(text)
	}
	return "authentication failed"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Package api provides low-level HTTP transport for Central API calls.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
)

const (
	defaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// HeaderRequestID carries a per-request correlation ID.
	HeaderRequestID = "X-Request-ID"
)

// Transport handles HTTP communication with the Central API. Every call is
// bounded by Timeout.
type Transport struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	UserAgent  string
	Logger     hclog.Logger
}

// NewTransport creates a Transport with the given configuration.
func NewTransport(httpClient *http.Client, timeout time.Duration, logger hclog.Logger) *Transport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Transport{
		HTTPClient: httpClient,
		Timeout:    timeout,
		UserAgent:  "go-central/1.0",
		Logger:     logger,
	}
}

// Request represents an API request against BaseURL.
type Request struct {
	Method  string
	BaseURL string
	Path    string
	Query   url.Values
	Body    any
	Headers http.Header
	Token   *oauth2.Token
}

// Response represents an API response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
	RequestID  string
}

// Do executes an API request and returns the raw response. The request is
// bound to a context carrying the transport timeout, so an expired deadline
// aborts the connection rather than abandoning it.
func (t *Transport) Do(ctx context.Context, req *Request) (*Response, error) {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	httpReq, err := t.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	requestID := httpReq.Header.Get(HeaderRequestID)

	start := time.Now()
	httpResp, err := t.HTTPClient.Do(httpReq)
	if err != nil {
		t.Logger.Debug("request failed", "method", req.Method, "path", req.Path, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	// Limit response body size to prevent memory exhaustion
	limitedReader := io.LimitReader(httpResp.Body, defaultMaxBodySize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if int64(len(body)) > defaultMaxBodySize {
		return nil, fmt.Errorf("response too large: exceeds %d bytes", defaultMaxBodySize)
	}

	if id := httpResp.Header.Get(HeaderRequestID); id != "" {
		requestID = id
	}

	t.Logger.Debug("request completed",
		"method", req.Method,
		"path", req.Path,
		"status", httpResp.StatusCode,
		"duration", time.Since(start),
		"request_id", requestID,
	)

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
		RequestID:  requestID,
	}, nil
}

func (t *Transport) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	base, err := url.Parse(strings.TrimSuffix(req.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u := base.JoinPath(req.Path)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// Set default headers
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", t.UserAgent)

	// Apply custom headers
	maps.Copy(httpReq.Header, req.Headers)

	if httpReq.Header.Get(HeaderRequestID) == "" {
		httpReq.Header.Set(HeaderRequestID, uuid.NewString())
	}

	// Apply authentication
	if req.Token != nil {
		req.Token.SetAuthHeader(httpReq)
	}

	return httpReq, nil
}

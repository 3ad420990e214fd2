package central

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tphakala/go-central/internal/auth"
	"github.com/tphakala/go-central/internal/discovery"
)

// Sentinel errors for common failure modes.
var (
	ErrNoCredentials = errors.New("central: no credentials configured")
	ErrEmptyID       = errors.New("central: id cannot be empty")
	ErrNoDataRegion  = errors.New("central: no data region resolved for tenant-scoped request")
	ErrNotPartner    = errors.New("central: operation requires partner or organization credentials")
)

// ErrorKind tags the three classes of failure the client reports.
type ErrorKind string

const (
	KindClient    ErrorKind = "client"
	KindAuth      ErrorKind = "auth"
	KindRateLimit ErrorKind = "rate_limit"
)

// ClientError is a transport or protocol failure. StatusCode is zero when no
// HTTP response was received.
type ClientError struct {
	StatusCode int    `json:"status,omitempty"`
	Message    string `json:"message"`
	RequestID  string `json:"requestId,omitempty"`
	Timeout    bool   `json:"timeout,omitempty"`
	Err        error  `json:"-"`
}

func (e *ClientError) Error() string {
	var b strings.Builder
	b.WriteString("central: ")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, "API error %d: ", e.StatusCode)
	}
	b.WriteString(e.Message)
	if e.RequestID != "" {
		fmt.Fprintf(&b, " (request_id=%s)", e.RequestID)
	}
	return b.String()
}

// Unwrap returns the underlying cause, if any.
func (e *ClientError) Unwrap() error { return e.Err }

// Kind returns KindClient.
func (e *ClientError) Kind() ErrorKind { return KindClient }

// AuthError indicates the credentials or token were rejected (401/403), or
// the token exchange itself failed.
type AuthError struct {
	ClientError
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("central: authentication failed (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("central: authentication failed: %s", e.Message)
}

// Kind returns KindAuth.
func (e *AuthError) Kind() ErrorKind { return KindAuth }

// As implements error unwrapping for errors.As to match *ClientError.
func (e *AuthError) As(target any) bool {
	if t, ok := target.(**ClientError); ok {
		*t = &e.ClientError
		return true
	}
	return false
}

// RateLimitError indicates the API rate limit was exceeded (429). RetryAfter
// is nil when the response carried no usable Retry-After header.
type RateLimitError struct {
	ClientError
	RetryAfter *time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter != nil {
		return fmt.Sprintf("central: rate limit exceeded, retry after %s", *e.RetryAfter)
	}
	return "central: rate limit exceeded"
}

// Kind returns KindRateLimit.
func (e *RateLimitError) Kind() ErrorKind { return KindRateLimit }

// As implements error unwrapping for errors.As to match *ClientError.
func (e *RateLimitError) As(target any) bool {
	if t, ok := target.(**ClientError); ok {
		*t = &e.ClientError
		return true
	}
	return false
}

// KindOf returns the kind of a classified error. Unclassified errors are
// reported as KindClient.
func KindOf(err error) ErrorKind {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return KindRateLimit
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return KindAuth
	}
	return KindClient
}

// ErrorDetail is a structured rendering of an error, suitable for returning
// to a tool caller instead of failing the call.
type ErrorDetail struct {
	Kind              ErrorKind `json:"kind"`
	Status            int       `json:"status,omitempty"`
	Message           string    `json:"message"`
	RetryAfterSeconds *int      `json:"retryAfterSeconds,omitempty"`
	RequestID         string    `json:"requestId,omitempty"`
	Timeout           bool      `json:"timeout,omitempty"`
}

// Describe converts err into an ErrorDetail.
func Describe(err error) ErrorDetail {
	detail := ErrorDetail{Kind: KindOf(err), Message: err.Error()}

	var ce *ClientError
	if errors.As(err, &ce) {
		detail.Status = ce.StatusCode
		detail.Message = ce.Message
		detail.RequestID = ce.RequestID
		detail.Timeout = ce.Timeout
	}

	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter != nil {
		seconds := int(rl.RetryAfter.Round(time.Second) / time.Second)
		detail.RetryAfterSeconds = &seconds
	}
	return detail
}

// parseError converts a non-success HTTP response into the appropriate error type.
func parseError(statusCode int, body []byte, headers http.Header, requestID string) error {
	base := ClientError{
		StatusCode: statusCode,
		RequestID:  requestID,
		Message:    upstreamMessage(body),
	}
	if base.Message == "" {
		base.Message = strings.ToLower(http.StatusText(statusCode))
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{ClientError: base}
	case http.StatusTooManyRequests:
		return &RateLimitError{
			ClientError: base,
			RetryAfter:  parseRetryAfter(headers.Get("Retry-After")),
		}
	default:
		return &base
	}
}

// upstreamMessage extracts the service-provided reason from an error body.
func upstreamMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		// Fallback to raw body if not valid JSON
		text := strings.TrimSpace(string(body))
		if len(text) > 512 {
			text = text[:512]
		}
		return text
	}
	if payload.Message != "" {
		return payload.Message
	}
	switch v := payload.Error.(type) {
	case string:
		return v
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
	}
	return ""
}

// parseRetryAfter parses the Retry-After header value.
// It handles both seconds (integer) and HTTP-date formats.
func parseRetryAfter(value string) *time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	// Try parsing as seconds first
	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil && seconds >= 0 {
		d := time.Duration(seconds) * time.Second
		return &d
	}

	// Try parsing as HTTP-date
	if t, err := http.ParseTime(value); err == nil {
		d := max(time.Until(t), 0)
		return &d
	}

	return nil
}

// classify maps failures from the auth, discovery and transport layers onto
// the public error taxonomy. ctx is the caller's context; when it is done the
// deadline was the caller's, not the client timeout.
func classify(ctx context.Context, err error, timeout time.Duration) error {
	var (
		ce  *ClientError
		tok *auth.Error
		dis *discovery.Error
	)

	switch {
	case errors.As(err, &ce):
		return err
	case errors.As(err, &tok):
		return &AuthError{ClientError: ClientError{StatusCode: tok.StatusCode, Message: tok.Message, Err: err}}
	case errors.As(err, &dis):
		base := ClientError{StatusCode: dis.StatusCode, Message: dis.Message, Err: err}
		if dis.StatusCode == http.StatusUnauthorized || dis.StatusCode == http.StatusForbidden {
			return &AuthError{ClientError: base}
		}
		return &base
	case isTimeout(err):
		msg := "request timed out"
		if timeout > 0 && ctx.Err() == nil {
			msg = fmt.Sprintf("request timed out after %s", timeout)
		}
		return &ClientError{Message: msg, Timeout: true, Err: err}
	default:
		return &ClientError{Message: err.Error(), Err: err}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

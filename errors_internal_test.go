package central

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-central/internal/auth"
	"github.com/tphakala/go-central/internal/discovery"
)

func TestParseError(t *testing.T) {
	t.Run("upstream message", func(t *testing.T) {
		err := parseError(400, []byte(`{"error":"badRequest","message":"pageSize too large"}`), http.Header{}, "r-1")
		var ce *ClientError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "pageSize too large", ce.Message)
		assert.Equal(t, "r-1", ce.RequestID)
		assert.Equal(t, KindClient, KindOf(err))
	})

	t.Run("nested error object", func(t *testing.T) {
		err := parseError(404, []byte(`{"error":{"code":"notFound","message":"no such alert"}}`), http.Header{}, "")
		var ce *ClientError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "no such alert", ce.Message)
	})

	t.Run("text body", func(t *testing.T) {
		err := parseError(502, []byte("bad gateway\n"), http.Header{}, "")
		var ce *ClientError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "bad gateway", ce.Message)
	})

	t.Run("empty body falls back to status text", func(t *testing.T) {
		err := parseError(500, nil, http.Header{}, "")
		var ce *ClientError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "internal server error", ce.Message)
	})

	t.Run("unauthorized and forbidden", func(t *testing.T) {
		for _, status := range []int{401, 403} {
			err := parseError(status, nil, http.Header{}, "")
			var ae *AuthError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, status, ae.StatusCode)
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		err := parseError(429, nil, http.Header{"Retry-After": {"30"}}, "")
		var rl *RateLimitError
		require.ErrorAs(t, err, &rl)
		require.NotNil(t, rl.RetryAfter)
		assert.Equal(t, 30*time.Second, *rl.RetryAfter)
	})
}

func TestParseRetryAfter(t *testing.T) {
	t.Run("seconds", func(t *testing.T) {
		d := parseRetryAfter("120")
		require.NotNil(t, d)
		assert.Equal(t, 2*time.Minute, *d)
	})

	t.Run("http date", func(t *testing.T) {
		d := parseRetryAfter(time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		require.NotNil(t, d)
		assert.InDelta(t, time.Hour.Seconds(), d.Seconds(), 5)
	})

	t.Run("date in the past", func(t *testing.T) {
		d := parseRetryAfter("Mon, 02 Jan 2006 15:04:05 GMT")
		require.NotNil(t, d)
		assert.Zero(t, *d)
	})

	for _, value := range []string{"", "  ", "-5", "soon"} {
		t.Run(fmt.Sprintf("unusable %q", value), func(t *testing.T) {
			assert.Nil(t, parseRetryAfter(value))
		})
	}
}

func TestClassify(t *testing.T) {
	t.Run("token exchange failure", func(t *testing.T) {
		err := classify(context.Background(), fmt.Errorf("exchange: %w", &auth.Error{StatusCode: 400, Message: "invalid_client"}), time.Second)
		var ae *AuthError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, 400, ae.StatusCode)
		assert.Equal(t, "invalid_client", ae.Message)
	})

	t.Run("discovery rejected", func(t *testing.T) {
		err := classify(context.Background(), &discovery.Error{StatusCode: 403, Message: "forbidden"}, time.Second)
		assert.Equal(t, KindAuth, KindOf(err))
	})

	t.Run("discovery server error", func(t *testing.T) {
		err := classify(context.Background(), &discovery.Error{StatusCode: 503, Message: "unavailable"}, time.Second)
		var ce *ClientError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, KindClient, KindOf(err))
		assert.Equal(t, 503, ce.StatusCode)
	})

	t.Run("deadline", func(t *testing.T) {
		err := classify(context.Background(), fmt.Errorf("calling api: %w", context.DeadlineExceeded), 2*time.Second)
		var ce *ClientError
		require.ErrorAs(t, err, &ce)
		assert.True(t, ce.Timeout)
		assert.Equal(t, "request timed out after 2s", ce.Message)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("caller deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()

		err := classify(ctx, fmt.Errorf("calling api: %w", context.DeadlineExceeded), 2*time.Second)
		var ce *ClientError
		require.ErrorAs(t, err, &ce)
		assert.True(t, ce.Timeout)
		assert.Equal(t, "request timed out", ce.Message)
	})

	t.Run("already classified", func(t *testing.T) {
		orig := &RateLimitError{}
		assert.Same(t, orig, classify(context.Background(), orig, time.Second))
	})

	t.Run("other", func(t *testing.T) {
		err := classify(context.Background(), context.Canceled, time.Second)
		var ce *ClientError
		require.ErrorAs(t, err, &ce)
		assert.False(t, ce.Timeout)
	})
}

package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-central"
)

// setupServer returns a tool server whose client talks to an httptest server.
// Token requests are answered automatically; everything else goes to data.
func setupServer(t *testing.T, data http.HandlerFunc) *Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
			return
		}
		data(w, r)
	}))
	t.Cleanup(ts.Close)

	client, err := central.NewClient(
		central.WithCredentials("id", "secret"),
		central.WithTokenURL(ts.URL+"/token"),
		central.WithGlobalURL(ts.URL),
		central.WithAPIURL(ts.URL),
		central.WithTenantID("tenant-1"),
		central.WithHTTPClient(ts.Client()),
	)
	require.NoError(t, err)
	return New(client, "central-mcp", "test", nil)
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestTools_Registered(t *testing.T) {
	s := setupServer(t, func(w http.ResponseWriter, r *http.Request) {})

	var names []string
	for _, tool := range s.tools() {
		names = append(names, tool.Tool.Name)
		assert.NotNil(t, tool.Handler, tool.Tool.Name)
	}
	assert.Equal(t, []string{
		"whoami", "list_tenants", "list_endpoints", "get_endpoint", "isolate_endpoint",
		"list_alerts", "get_alert", "alert_action", "api_request",
	}, names)
	assert.NotNil(t, s.MCP())
}

func TestHandleWhoAmI(t *testing.T) {
	s := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})

	result, err := s.handleWhoAmI(context.Background(), call(nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var id central.Identity
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &id))
	assert.Equal(t, "tenant-1", id.ID)
	assert.Equal(t, central.IDTypeTenant, id.IDType)
}

func TestHandleListEndpoints(t *testing.T) {
	s := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/endpoint/v1/endpoints", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "bad,suspicious", q.Get("healthStatus"))
		assert.Equal(t, "srv", q.Get("hostnameContains"))
		assert.Equal(t, "10", q.Get("pageSize"))
		assert.Equal(t, "other-tenant", r.Header.Get("X-Tenant-ID"))
		_, _ = w.Write([]byte(`{"items":[{"id":"ep-1","hostname":"srv-1"}],"pages":{"nextKey":"n"}}`))
	})

	result, err := s.handleListEndpoints(context.Background(), call(map[string]any{
		"health_status":     "bad, suspicious",
		"hostname_contains": "srv",
		"page_size":         float64(10),
		"tenant_id":         "other-tenant",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var page central.Page[central.Endpoint]
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "srv-1", page.Items[0].Hostname)
	assert.Equal(t, "n", page.Pages.NextKey)
}

func TestHandleGetEndpoint(t *testing.T) {
	t.Run("missing id", func(t *testing.T) {
		s := setupServer(t, func(w http.ResponseWriter, r *http.Request) {})

		result, err := s.handleGetEndpoint(context.Background(), call(map[string]any{}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "id argument is required")
	})

	t.Run("not found becomes structured error", func(t *testing.T) {
		s := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Request-ID", "req-77")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"notFound","message":"Endpoint not found"}`))
		})

		result, err := s.handleGetEndpoint(context.Background(), call(map[string]any{"id": "ep-x"}))
		require.NoError(t, err)
		assert.True(t, result.IsError)

		var detail central.ErrorDetail
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &detail))
		assert.Equal(t, central.KindClient, detail.Kind)
		assert.Equal(t, http.StatusNotFound, detail.Status)
		assert.Equal(t, "Endpoint not found", detail.Message)
		assert.Equal(t, "req-77", detail.RequestID)
	})
}

func TestHandleIsolateEndpoint(t *testing.T) {
	t.Run("release", func(t *testing.T) {
		s := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, false, body["enabled"])
			assert.Equal(t, []any{"ep-1", "ep-2"}, body["ids"])
			_, _ = w.Write([]byte(`{"items":[{"id":"ep-1"},{"id":"ep-2"}]}`))
		})

		result, err := s.handleIsolateEndpoint(context.Background(), call(map[string]any{
			"ids":     []any{"ep-1", "ep-2"},
			"enabled": false,
		}))
		require.NoError(t, err)
		assert.False(t, result.IsError)
		assert.Contains(t, resultText(t, result), "ep-2")
	})

	t.Run("no ids", func(t *testing.T) {
		s := setupServer(t, func(w http.ResponseWriter, r *http.Request) {})

		result, err := s.handleIsolateEndpoint(context.Background(), call(map[string]any{"ids": []any{}}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}

func TestHandleListAlerts(t *testing.T) {
	t.Run("rate limited", func(t *testing.T) {
		s := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "high", r.URL.Query().Get("severity"))
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
		})

		result, err := s.handleListAlerts(context.Background(), call(map[string]any{"severity": "high"}))
		require.NoError(t, err)
		assert.True(t, result.IsError)

		var detail central.ErrorDetail
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &detail))
		assert.Equal(t, central.KindRateLimit, detail.Kind)
		require.NotNil(t, detail.RetryAfterSeconds)
		assert.Equal(t, 30, *detail.RetryAfterSeconds)
	})

	t.Run("bad timestamp", func(t *testing.T) {
		s := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("request should not be sent")
		})

		result, err := s.handleListAlerts(context.Background(), call(map[string]any{"from": "yesterday"}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "RFC 3339")
	})
}

func TestHandleAlertAction(t *testing.T) {
	s := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/common/v1/alerts/al-1/actions", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "acknowledge", body["action"])
		_, _ = w.Write([]byte(`{"id":"act-1","alertId":"al-1","action":"acknowledge","status":"requested"}`))
	})

	result, err := s.handleAlertAction(context.Background(), call(map[string]any{"id": "al-1", "action": "acknowledge"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), `"act-1"`)
}

func TestHandleAPIRequest(t *testing.T) {
	t.Run("passes response through", func(t *testing.T) {
		s := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/endpoint/v1/settings/tamper-protection", r.URL.Path)
			assert.Equal(t, "true", r.URL.Query().Get("enabled"))
			_, _ = w.Write([]byte(`{"enabled":true}`))
		})

		result, err := s.handleAPIRequest(context.Background(), call(map[string]any{
			"path":  "/endpoint/v1/settings/tamper-protection",
			"query": map[string]any{"enabled": true},
		}))
		require.NoError(t, err)
		assert.False(t, result.IsError)
		assert.JSONEq(t, `{"enabled":true}`, resultText(t, result))
	})

	t.Run("no content", func(t *testing.T) {
		s := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		result, err := s.handleAPIRequest(context.Background(), call(map[string]any{"path": "/x"}))
		require.NoError(t, err)
		assert.Equal(t, "{}", resultText(t, result))
	})

	t.Run("rejects absolute urls", func(t *testing.T) {
		s := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("request should not be sent")
		})

		for _, path := range []string{"https://evil.example.com/x", "endpoint/v1"} {
			result, err := s.handleAPIRequest(context.Background(), call(map[string]any{"path": path}))
			require.NoError(t, err)
			assert.True(t, result.IsError, path)
		}
	})

	t.Run("auth failure", func(t *testing.T) {
		s := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})

		result, err := s.handleAPIRequest(context.Background(), call(map[string]any{"path": "/partner/v1/admins", "global": true}))
		require.NoError(t, err)
		assert.True(t, result.IsError)

		var detail central.ErrorDetail
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &detail))
		assert.Equal(t, central.KindAuth, detail.Kind)
		assert.Equal(t, http.StatusForbidden, detail.Status)
	})
}

func TestArgs(t *testing.T) {
	args := map[string]any{
		"n":      float64(3),
		"s":      " 7 ",
		"list":   []any{"a", " b ", "", 4},
		"csv":    "x,,y",
		"flag":   "true",
		"tenant": "t-1",
	}

	assert.Equal(t, 3, intArg(args, "n"))
	assert.Equal(t, 7, intArg(args, "s"))
	assert.Equal(t, 0, intArg(args, "missing"))
	assert.Equal(t, []string{"a", "b"}, listArg(args, "list"))
	assert.Equal(t, []string{"x", "y"}, listArg(args, "csv"))
	assert.Nil(t, listArg(args, "missing"))

	b, ok := boolArg(args, "flag")
	assert.True(t, ok)
	assert.True(t, b)
	_, ok = boolArg(args, "missing")
	assert.False(t, ok)

	assert.Len(t, scope(map[string]any{"tenant_id": "t-1", "api_host": "https://api-eu01.central.sophos.com"}), 2)
	assert.Empty(t, scope(args))

	assert.Equal(t, central.PageOptions{Page: 3}, pageOptions(map[string]any{"page": float64(3)}))
}

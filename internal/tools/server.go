// Package tools exposes the Central client to tool-calling agents over MCP.
package tools

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tphakala/go-central"
)

// Server registers one MCP tool per client operation.
type Server struct {
	client *central.Client
	logger hclog.Logger
	mcp    *server.MCPServer
}

// New creates a Server backed by client.
func New(client *central.Client, name, version string, logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	s := &Server{
		client: client,
		logger: logger,
		mcp: server.NewMCPServer(
			name,
			version,
			server.WithToolCapabilities(false),
		),
	}
	s.mcp.AddTools(s.tools()...)
	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves MCP over stdin/stdout until the input is closed.
func (s *Server) ServeStdio() error {
	s.logger.Info("serving MCP over stdio")
	return server.ServeStdio(s.mcp)
}

func scopeArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("tenant_id",
			mcp.Description("Tenant to act on; needed for partner or organization credentials"),
		),
		mcp.WithString("api_host",
			mcp.Description("Data-region API host of that tenant, as returned by list_tenants"),
		),
	}
}

func pageArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("page", mcp.Description("Page number, starting at 1")),
		mcp.WithNumber("page_size", mcp.Description("Items per page")),
		mcp.WithString("page_from_key", mcp.Description("Key-based paging: nextKey from the previous page")),
	}
}

func newTool(name string, opts ...[]mcp.ToolOption) mcp.Tool {
	var all []mcp.ToolOption
	for _, o := range opts {
		all = append(all, o...)
	}
	return mcp.NewTool(name, all...)
}

func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool("whoami",
				mcp.WithDescription("Show the identity behind the configured credentials and the API hosts in use"),
			),
			Handler: s.handleWhoAmI,
		},
		{
			Tool: newTool("list_tenants",
				[]mcp.ToolOption{mcp.WithDescription("List tenants managed by partner or organization credentials")},
				pageArgs(),
			),
			Handler: s.handleListTenants,
		},
		{
			Tool: newTool("list_endpoints",
				[]mcp.ToolOption{
					mcp.WithDescription("List managed endpoints"),
					mcp.WithString("health_status", mcp.Description("Comma-separated health filter: good, suspicious, bad, unknown")),
					mcp.WithString("type", mcp.Description("Comma-separated endpoint types: computer, server, securityVm")),
					mcp.WithString("isolation_status", mcp.Description("isolated or notIsolated")),
					mcp.WithString("hostname_contains", mcp.Description("Hostname substring")),
					mcp.WithString("search", mcp.Description("Free-text search")),
				},
				pageArgs(),
				scopeArgs(),
			),
			Handler: s.handleListEndpoints,
		},
		{
			Tool: newTool("get_endpoint",
				[]mcp.ToolOption{
					mcp.WithDescription("Get a single endpoint"),
					mcp.WithString("id", mcp.Required(), mcp.Description("Endpoint ID")),
				},
				scopeArgs(),
			),
			Handler: s.handleGetEndpoint,
		},
		{
			Tool: newTool("isolate_endpoint",
				[]mcp.ToolOption{
					mcp.WithDescription("Turn network isolation on or off for one or more endpoints"),
					mcp.WithArray("ids", mcp.Required(), mcp.Description("Endpoint IDs"), mcp.WithStringItems()),
					mcp.WithBoolean("enabled", mcp.Description("true to isolate, false to release (default true)")),
					mcp.WithString("comment", mcp.Description("Reason recorded with the change")),
				},
				scopeArgs(),
			),
			Handler: s.handleIsolateEndpoint,
		},
		{
			Tool: newTool("list_alerts",
				[]mcp.ToolOption{
					mcp.WithDescription("List alerts"),
					mcp.WithString("severity", mcp.Description("Comma-separated severities: low, medium, high")),
					mcp.WithString("category", mcp.Description("Comma-separated alert categories")),
					mcp.WithString("product", mcp.Description("Comma-separated products")),
					mcp.WithString("from", mcp.Description("RFC 3339 start of the raised-at window")),
					mcp.WithString("to", mcp.Description("RFC 3339 end of the raised-at window")),
				},
				pageArgs(),
				scopeArgs(),
			),
			Handler: s.handleListAlerts,
		},
		{
			Tool: newTool("get_alert",
				[]mcp.ToolOption{
					mcp.WithDescription("Get a single alert"),
					mcp.WithString("id", mcp.Required(), mcp.Description("Alert ID")),
				},
				scopeArgs(),
			),
			Handler: s.handleGetAlert,
		},
		{
			Tool: newTool("alert_action",
				[]mcp.ToolOption{
					mcp.WithDescription("Perform one of an alert's allowed actions"),
					mcp.WithString("id", mcp.Required(), mcp.Description("Alert ID")),
					mcp.WithString("action", mcp.Required(),
						mcp.Description("Action to take; must be listed in the alert's allowedActions"),
						mcp.Enum(
							string(central.ActionAcknowledge),
							string(central.ActionCleanPUA),
							string(central.ActionCleanVirus),
							string(central.ActionAuthPUA),
							string(central.ActionClearThreat),
							string(central.ActionClearHMPA),
						),
					),
					mcp.WithString("message", mcp.Description("Optional note")),
				},
				scopeArgs(),
			),
			Handler: s.handleAlertAction,
		},
		{
			Tool: newTool("api_request",
				[]mcp.ToolOption{
					mcp.WithDescription("Send a GET request to any Central API path and return the JSON response"),
					mcp.WithString("path", mcp.Required(), mcp.Description("API path, e.g. /endpoint/v1/settings/tamper-protection")),
					mcp.WithObject("query", mcp.Description("Query parameters")),
					mcp.WithBoolean("global", mcp.Description("Send to the global host instead of the data region")),
				},
				scopeArgs(),
			),
			Handler: s.handleAPIRequest,
		},
	}
}

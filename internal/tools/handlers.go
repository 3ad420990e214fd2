package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tphakala/go-central"
)

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult reports err to the caller as a structured tool error. The
// session itself never fails.
func (s *Server) errorResult(tool string, err error) (*mcp.CallToolResult, error) {
	detail := central.Describe(err)
	s.logger.Warn("tool call failed", "tool", tool, "kind", detail.Kind, "status", detail.Status, "error", err)

	data, merr := json.Marshal(detail)
	if merr != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultError(string(data)), nil
}

func (s *Server) handleWhoAmI(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.client.WhoAmI(ctx)
	if err != nil {
		return s.errorResult("whoami", err)
	}
	return jsonResult(id)
}

func (s *Server) handleListTenants(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	page, err := s.client.Tenants.List(ctx, pageOptions(args))
	if err != nil {
		return s.errorResult("list_tenants", err)
	}
	return jsonResult(page)
}

func (s *Server) handleListEndpoints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	filter := &central.EndpointFilter{
		HealthStatus:     listArg(args, "health_status"),
		Type:             listArg(args, "type"),
		IsolationStatus:  stringArg(args, "isolation_status"),
		HostnameContains: stringArg(args, "hostname_contains"),
		Search:           stringArg(args, "search"),
	}

	page, err := s.client.Endpoints.List(ctx, filter, pageOptions(args), scope(args)...)
	if err != nil {
		return s.errorResult("list_endpoints", err)
	}
	return jsonResult(page)
}

func (s *Server) handleGetEndpoint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id argument is required"), nil
	}

	ep, err := s.client.Endpoints.Get(ctx, id, scope(request.GetArguments())...)
	if err != nil {
		return s.errorResult("get_endpoint", err)
	}
	return jsonResult(ep)
}

func (s *Server) handleIsolateEndpoint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	ids := listArg(args, "ids")
	if len(ids) == 0 {
		return mcp.NewToolResultError("ids argument is required"), nil
	}
	enabled := true
	if v, ok := boolArg(args, "enabled"); ok {
		enabled = v
	}
	comment := stringArg(args, "comment")

	call := s.client.Endpoints.Isolate
	if !enabled {
		call = s.client.Endpoints.Unisolate
	}
	results, err := call(ctx, ids, comment, scope(args)...)
	if err != nil {
		return s.errorResult("isolate_endpoint", err)
	}
	return jsonResult(map[string]any{"items": results})
}

func (s *Server) handleListAlerts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	filter := &central.AlertFilter{
		Category: listArg(args, "category"),
		Product:  listArg(args, "product"),
	}
	for _, sev := range listArg(args, "severity") {
		filter.Severity = append(filter.Severity, central.Severity(sev))
	}

	var err error
	if filter.From, err = timeArg(args, "from"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if filter.To, err = timeArg(args, "to"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	page, err := s.client.Alerts.List(ctx, filter, pageOptions(args), scope(args)...)
	if err != nil {
		return s.errorResult("list_alerts", err)
	}
	return jsonResult(page)
}

func (s *Server) handleGetAlert(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id argument is required"), nil
	}

	alert, err := s.client.Alerts.Get(ctx, id, scope(request.GetArguments())...)
	if err != nil {
		return s.errorResult("get_alert", err)
	}
	return jsonResult(alert)
}

func (s *Server) handleAlertAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id argument is required"), nil
	}
	action, err := request.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError("action argument is required"), nil
	}
	args := request.GetArguments()

	result, err := s.client.Alerts.Act(ctx, id, central.AlertAction(action), stringArg(args, "message"), scope(args)...)
	if err != nil {
		return s.errorResult("alert_action", err)
	}
	return jsonResult(result)
}

func (s *Server) handleAPIRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path argument is required"), nil
	}
	if !strings.HasPrefix(path, "/") || strings.Contains(path, "://") {
		return mcp.NewToolResultError("path must be an absolute API path such as /endpoint/v1/endpoints"), nil
	}
	args := request.GetArguments()

	var query central.Params
	if raw, ok := args["query"]; ok && raw != nil {
		m, ok := raw.(map[string]any)
		if !ok {
			return mcp.NewToolResultError("query must be an object"), nil
		}
		query = central.Params(m)
	}

	opts := scope(args)
	if global, _ := boolArg(args, "global"); global {
		opts = append(opts, central.WithGlobalHost())
	}

	raw, err := s.client.Send(ctx, &central.Request{Path: path, Query: query}, opts...)
	if err != nil {
		return s.errorResult("api_request", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const defaultDays = 30

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.costSummaryTool(),
		s.costForecastTool(),
		s.costDrilldownTool(),
	)
}

func daysParam() mcplib.ToolOption {
	return mcplib.WithNumber("days",
		mcplib.Description("Number of days back from today to report on (1-366, default 30)"),
		mcplib.Min(1),
		mcplib.Max(366),
	)
}

func (s *Server) costSummaryTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_cost_summary",
		mcplib.WithDescription("Get Azure costs grouped by service and by day"),
		daysParam(),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleGetCostSummary,
	}
}

func (s *Server) costForecastTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_cost_forecast",
		mcplib.WithDescription("Get a linear month-end forecast of Azure spend"),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleGetCostForecast,
	}
}

func (s *Server) costDrilldownTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_cost_drilldown",
		mcplib.WithDescription("Get meter-level Azure costs with AI model attribution and insights"),
		daysParam(),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleGetCostDrilldown,
	}
}

// daysArg reads the optional days argument. JSON numbers arrive as float64.
func daysArg(req mcplib.CallToolRequest) (int, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	v, ok := req.GetArguments()["days"]
	if !ok || v == nil {
		return defaultDays, nil
	}
	f, ok := v.(float64)
	if !ok || f != float64(int(f)) {
		return 0, fmt.Errorf("days must be an integer, got %v", v)
	}
	return int(f), nil
}

func (s *Server) handleGetCostSummary(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Costs == nil {
		return mcplib.NewToolResultError("cost reader not configured"), nil
	}
	days, err := daysArg(req)
	if err != nil {
		return mcplib.NewToolResultError(err.Error()), nil
	}
	summary, err := s.deps.Costs.Summary(ctx, days)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to get cost summary", err), nil
	}
	return toolResultJSON(summary)
}

func (s *Server) handleGetCostForecast(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Costs == nil {
		return mcplib.NewToolResultError("cost reader not configured"), nil
	}
	forecast, err := s.deps.Costs.Forecast(ctx)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to get cost forecast", err), nil
	}
	return toolResultJSON(forecast)
}

func (s *Server) handleGetCostDrilldown(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Costs == nil {
		return mcplib.NewToolResultError("cost reader not configured"), nil
	}
	days, err := daysArg(req)
	if err != nil {
		return mcplib.NewToolResultError(err.Error()), nil
	}
	drilldown, err := s.deps.Costs.Drilldown(ctx, days)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to get cost drilldown", err), nil
	}
	return toolResultJSON(drilldown)
}

func toolResultJSON(v any) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}

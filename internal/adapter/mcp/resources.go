package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

const forecastURI = "costlens://costs/forecast"

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			forecastURI,
			"Month-end Forecast",
			mcplib.WithResourceDescription("Linear month-end forecast of subscription spend"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleForecastResource,
	)
}

func (s *Server) handleForecastResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	text := `{"error":"cost reader not configured"}`
	if s.deps.Costs != nil {
		forecast, err := s.deps.Costs.Forecast(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(forecast)
		if err != nil {
			return nil, err
		}
		text = string(data)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     text,
		},
	}, nil
}

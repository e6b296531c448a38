package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"github.com/rohanthewiz/serr"

	"wpcompare/compare"
	"wpcompare/tools"
	"wpcompare/wporg"
)

// requestTimeout bounds a single tool run or report, downloads included
const requestTimeout = 5 * time.Minute

// Deps are the services behind the HTTP surface
type Deps struct {
	Registry *tools.EnhancedRegistry
	// ExportDir receives archives built by /api/export
	ExportDir string
	// MCPAddr is advertised on the index page when the MCP endpoint runs
	MCPAddr string
	Version string
}

// Server serves the JSON API and HTML report
type Server struct {
	deps Deps
}

// NewServer creates the HTTP surface
func NewServer(deps Deps) *Server {
	return &Server{deps: deps}
}

// Run listens on addr until the process exits
func (s *Server) Run(addr string) error {
	r := rweb.NewServer(rweb.ServerOptions{
		Address: addr,
		Verbose: true,
	})
	r.Use(rweb.RequestInfo)
	r.Use(requestIDMiddleware)
	s.SetupRoutes(r)

	logger.Info("Starting wpcompare HTTP server", "addr", addr)
	return r.Run()
}

// SetupRoutes configures all HTTP routes for the server
func (s *Server) SetupRoutes(r *rweb.Server) {
	r.Get("/", s.indexHandler)
	r.Get("/health", s.healthHandler)

	// Tools
	r.Get("/api/tools", s.listToolsHandler)
	r.Post("/api/tools/:name", s.executeToolHandler)

	// Reports
	r.Get("/report", s.reportHandler)
	r.Post("/api/export", s.exportHandler)
}

// requestIDMiddleware tags every response with a fresh request id
func requestIDMiddleware(c rweb.Context) error {
	c.Response().SetHeader("X-Request-ID", uuid.NewString())
	return c.Next()
}

func (s *Server) indexHandler(c rweb.Context) error {
	return c.WriteHTML(renderIndex(s.deps.Registry.GetTools(), s.deps.MCPAddr))
}

func (s *Server) healthHandler(c rweb.Context) error {
	return c.WriteJSON(map[string]interface{}{
		"status":  "ok",
		"version": s.deps.Version,
		"tools":   len(s.deps.Registry.GetTools()),
	})
}

// ToolInfo describes one tool together with its usage metrics
type ToolInfo struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
	Stats       *tools.ToolStats       `json:"stats,omitempty"`
}

func (s *Server) listToolsHandler(c rweb.Context) error {
	return c.WriteJSON(s.toolInfos())
}

func (s *Server) toolInfos() []ToolInfo {
	metrics := s.deps.Registry.GetMetrics()
	defs := s.deps.Registry.GetTools()

	infos := make([]ToolInfo, 0, len(defs))
	for _, def := range defs {
		info := ToolInfo{Name: def.Name, Description: def.Description, InputSchema: def.InputSchema}
		if st, ok := metrics[def.Name]; ok {
			info.Stats = &st
		}
		infos = append(infos, info)
	}
	return infos
}

func (s *Server) executeToolHandler(c rweb.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	status, payload := s.executeTool(ctx, c.Request().Param("name"), c.Request().Body())
	c.Response().SetStatus(status)
	return c.WriteJSON(payload)
}

// executeTool runs a tool with a JSON object body and picks the response status
func (s *Server) executeTool(ctx context.Context, name string, body []byte) (int, *tools.ToolResult) {
	input := map[string]interface{}{}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &input); err != nil {
			return http.StatusBadRequest, &tools.ToolResult{
				Type:    "tool_result",
				Content: "Invalid JSON input: " + err.Error(),
				IsError: true,
			}
		}
	}

	if _, ok := s.deps.Registry.GetTool(name); !ok {
		return http.StatusNotFound, &tools.ToolResult{
			Type:    "tool_result",
			Content: "Unknown tool: " + name,
			IsError: true,
		}
	}

	result, err := s.deps.Registry.Execute(ctx, tools.ToolUse{Type: "tool_use", Name: name, Input: input})
	if err != nil {
		logger.LogErr(err, "tool request failed", "tool", name)
		return statusFor(err), result
	}
	return http.StatusOK, result
}

// statusFor maps a tool error to an HTTP status
func statusFor(err error) int {
	var nf *wporg.NotFoundError
	var ve *tools.ValidationError
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusUnprocessableEntity
	}
}

func (s *Server) reportHandler(c rweb.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	req := c.Request()
	input := queryInput(map[string]string{
		"local_path":  req.QueryParam("local"),
		"remote_path": req.QueryParam("remote"),
		"slug":        req.QueryParam("slug"),
		"version":     req.QueryParam("version"),
	})
	if _, ok := input["local_path"]; !ok {
		return c.WriteHTML(renderIndex(s.deps.Registry.GetTools(), s.deps.MCPAddr))
	}

	pc, err := s.compare(ctx, input)
	if err != nil {
		logger.LogErr(err, "report failed")
		c.Response().SetStatus(statusFor(err))
		return c.WriteHTML(renderError(err))
	}
	return c.WriteHTML(renderReport(pc))
}

// compare runs wp_plugin_compare through the registry so validation and
// path restrictions apply, and decodes its JSON output.
func (s *Server) compare(ctx context.Context, input map[string]interface{}) (*compare.PluginComparison, error) {
	input["format"] = "json"
	result, err := s.deps.Registry.Execute(ctx, tools.ToolUse{Type: "tool_use", Name: "wp_plugin_compare", Input: input})
	if err != nil {
		return nil, err
	}

	var pc compare.PluginComparison
	if err := json.Unmarshal([]byte(result.Content), &pc); err != nil {
		return nil, serr.Wrap(err, "failed to decode comparison")
	}
	return &pc, nil
}

// queryInput drops empty query values so they read as absent
func queryInput(values map[string]string) map[string]interface{} {
	input := make(map[string]interface{}, len(values))
	for k, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			input[k] = v
		}
	}
	return input
}

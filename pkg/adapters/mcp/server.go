// Package mcp exposes the weft engine as a Model Context Protocol server,
// so AI agents can validate and repair the flow graphs they generate.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/scanners"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ValidateResponse aligns with the validate operation's report shape and
// provides a unified structure across adapters.
type ValidateResponse struct {
	Valid     bool     `json:"valid" jsonschema_description:"True when no structural errors remain"`
	Errors    []string `json:"errors" jsonschema_description:"Structural errors"`
	Warnings  []string `json:"warnings" jsonschema_description:"Non-fatal findings"`
	Fixes     []string `json:"fixes" jsonschema_description:"Repairs applied to the normalized graph"`
	Autofixed bool     `json:"autofixed" jsonschema_description:"True when the repair pipeline changed the graph"`
	// Normalized carries the repaired graph as JSON when autofix ran.
	Normalized json.RawMessage `json:"normalized,omitempty" jsonschema_description:"The repaired flow document"`
}

// StatsResponse reports connectivity measurements plus advisory findings.
type StatsResponse struct {
	Steps     int      `json:"steps"`
	Depth     int      `json:"depth"`
	MaxFanout int      `json:"maxFanout"`
	Orphans   []string `json:"orphans,omitempty"`
	Advice    []string `json:"advice,omitempty" jsonschema_description:"Security and performance advisories"`
}

// Server wraps the weft Engine and exposes it as an MCP Server.
type Server struct {
	engine    *weft.Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine *weft.Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("weft-mcp", strings.TrimSpace(weft.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		// Create a timeout context for the graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		fmt.Println("\nShutdown signal received, shutting down server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: validate_flow
	validateTool := mcp.NewTool("validate_flow",
		mcp.WithDescription("Validate a flow document against the structural invariants. Set fix=true to auto-repair and return the normalized graph."),
		mcp.WithString("flow", mcp.Required(), mcp.Description("The flow document as a JSON string")),
		mcp.WithBoolean("fix", mcp.Description("Run the auto-repair pipeline (default false)")),
		mcp.WithOutputSchema[ValidateResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	// TOOL: flow_stats
	statsTool := mcp.NewTool("flow_stats",
		mcp.WithDescription("Measure connectivity (depth, fan-out, orphans) and run advisory security/performance scans."),
		mcp.WithString("flow", mcp.Required(), mcp.Description("The flow document as a JSON string")),
		mcp.WithOutputSchema[StatsResponse](),
	)
	s.mcpServer.AddTool(statsTool, mcp.NewStructuredToolHandler(s.handleStats))

	// TOOL: lookup_kind
	s.mcpServer.AddTool(mcp.NewTool("lookup_kind",
		mcp.WithDescription("Look up a step kind in the node-type catalog."),
		mcp.WithString("kind", mcp.Required(), mcp.Description("The step kind, e.g. base.httpRequest")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kind, _ := request.GetArguments()["kind"].(string)
		entry, ok := s.engine.Catalog().Lookup(kind)
		if !ok {
			return mcp.NewToolResultText(fmt.Sprintf("unknown kind %q: treated as a regular action with no special policy", kind)), nil
		}
		jsonBytes, _ := json.Marshal(entry)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidateResponse, error) {
	flowStr, _ := args["flow"].(string)
	fix, _ := args["fix"].(bool)

	var doc any
	if err := json.Unmarshal([]byte(flowStr), &doc); err != nil {
		return ValidateResponse{}, fmt.Errorf("flow is not valid JSON: %w", err)
	}

	report := s.engine.Check(doc, weft.CheckOptions{Fix: fix})

	resp := ValidateResponse{
		Valid:     report.Valid,
		Errors:    report.Errors,
		Warnings:  report.Warnings,
		Fixes:     report.Fixes,
		Autofixed: report.Autofixed,
	}
	if report.Normalized != nil {
		normalized, err := json.Marshal(report.Normalized)
		if err != nil {
			slog.Error("MCP Validate: marshal normalized graph failed", "error", err)
		} else {
			resp.Normalized = normalized
		}
	}
	return resp, nil
}

func (s *Server) handleStats(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StatsResponse, error) {
	flowStr, _ := args["flow"].(string)

	var doc any
	if err := json.Unmarshal([]byte(flowStr), &doc); err != nil {
		return StatsResponse{}, fmt.Errorf("flow is not valid JSON: %w", err)
	}

	stats, ok := s.engine.Stats(doc)
	if !ok {
		return StatsResponse{}, fmt.Errorf("flow is not a well-formed document")
	}

	resp := StatsResponse{
		Steps:     stats.Steps,
		Depth:     stats.Depth,
		MaxFanout: stats.MaxFanout,
		Orphans:   stats.Orphans,
	}

	if g, err := domain.Decode(doc); err == nil {
		resp.Advice = append(resp.Advice, scanners.Security(g, s.engine.Catalog())...)
		resp.Advice = append(resp.Advice, scanners.Performance(g, s.engine.Policy())...)
	}
	return resp, nil
}

func (s *Server) registerResources() {
	// EXPOSE: weft://catalog
	s.mcpServer.AddResource(mcp.NewResource("weft://catalog", "Node-Type Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Catalog().Entries())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal catalog: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "weft://catalog",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

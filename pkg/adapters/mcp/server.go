package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/leadflow"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/wizard"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Service is the wizard facade exposed to agents.
type Service interface {
	Open(ctx context.Context, variant string) (*leadflow.View, error)
	Get(ctx context.Context, sessionID string) (*leadflow.View, error)
	SetField(ctx context.Context, sessionID, name, value string) (*leadflow.View, error)
	Advance(ctx context.Context, sessionID string) (*leadflow.View, error)
	Retreat(ctx context.Context, sessionID string) (*leadflow.View, error)
	Submit(ctx context.Context, sessionID string) (*wizard.SubmitResult, error)
	Variants() []domain.Variant
}

// Server wraps the wizard service and exposes it as an MCP Server.
type Server struct {
	svc       Service
	mcpServer *server.MCPServer
}

type openArgs struct {
	Variant string `json:"variant"`
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

type fieldArgs struct {
	SessionID string `json:"session_id"`
	Field     string `json:"field"`
	Value     string `json:"value"`
}

// NewServer creates a new MCP Server instance.
func NewServer(svc Service) *Server {
	s := &Server{
		svc:       svc,
		mcpServer: server.NewMCPServer("leadflow-mcp", strings.TrimSpace(leadflow.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
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

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutdown signal received, stopping MCP server")
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
	session := mcp.WithString("session_id", mcp.Required(), mcp.Description("Wizard session ID returned by open_wizard"))

	s.mcpServer.AddTool(mcp.NewTool("open_wizard",
		mcp.WithDescription("Open a fresh enquiry wizard. Variants: quote (3 steps) or contact (4 steps with a site visit)."),
		mcp.WithString("variant", mcp.Description("Variant name, defaults to quote")),
		mcp.WithOutputSchema[leadflow.View](),
	), mcp.NewStructuredToolHandler(s.handleOpen))

	s.mcpServer.AddTool(mcp.NewTool("set_field",
		mcp.WithDescription("Overwrite one form field. Values are stored as typed; only name and phone are required at submit."),
		session,
		mcp.WithString("field", mcp.Required(), mcp.Description("Field key, e.g. name, phone, city, preferredDate")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value")),
		mcp.WithOutputSchema[leadflow.View](),
	), mcp.NewStructuredToolHandler(s.handleSetField))

	s.mcpServer.AddTool(mcp.NewTool("advance",
		mcp.WithDescription("Move to the next step. No-op on the last step."),
		session,
		mcp.WithOutputSchema[leadflow.View](),
	), mcp.NewStructuredToolHandler(s.handleAdvance))

	s.mcpServer.AddTool(mcp.NewTool("retreat",
		mcp.WithDescription("Move to the previous step. No-op on the first step."),
		session,
		mcp.WithOutputSchema[leadflow.View](),
	), mcp.NewStructuredToolHandler(s.handleRetreat))

	s.mcpServer.AddTool(mcp.NewTool("submit",
		mcp.WithDescription("Submit the lead. Fails without name and phone; on success the wizard resets."),
		session,
		mcp.WithOutputSchema[wizard.SubmitResult](),
	), mcp.NewStructuredToolHandler(s.handleSubmit))

	s.mcpServer.AddTool(mcp.NewTool("get_wizard",
		mcp.WithDescription("Get the current step, progress and fields of a wizard."),
		session,
		mcp.WithOutputSchema[leadflow.View](),
	), mcp.NewStructuredToolHandler(s.handleGet))
}

func (s *Server) handleOpen(ctx context.Context, request mcp.CallToolRequest, args openArgs) (*leadflow.View, error) {
	variant := args.Variant
	if variant == "" {
		variant = wizard.VariantQuote
	}
	return s.svc.Open(ctx, variant)
}

func (s *Server) handleSetField(ctx context.Context, request mcp.CallToolRequest, args fieldArgs) (*leadflow.View, error) {
	return s.svc.SetField(ctx, args.SessionID, args.Field, args.Value)
}

func (s *Server) handleAdvance(ctx context.Context, request mcp.CallToolRequest, args sessionArgs) (*leadflow.View, error) {
	return s.svc.Advance(ctx, args.SessionID)
}

func (s *Server) handleRetreat(ctx context.Context, request mcp.CallToolRequest, args sessionArgs) (*leadflow.View, error) {
	return s.svc.Retreat(ctx, args.SessionID)
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest, args sessionArgs) (*leadflow.View, error) {
	return s.svc.Get(ctx, args.SessionID)
}

func (s *Server) handleSubmit(ctx context.Context, request mcp.CallToolRequest, args sessionArgs) (*wizard.SubmitResult, error) {
	res, err := s.svc.Submit(ctx, args.SessionID)
	if err != nil {
		if res != nil && res.Notification != nil {
			return nil, fmt.Errorf("%s: %w", res.Notification.Message, err)
		}
		return nil, err
	}
	return res, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("leadflow://variants", "Wizard Variants",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.svc.Variants())
		if err != nil {
			return nil, fmt.Errorf("failed to encode variants: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "leadflow://variants",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

package mcpstdio

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/markweb/markweb-mcp/internal/usecase"
	"github.com/markweb/markweb-mcp/pkg/shared/mcpjsonrpc"
)

// ProtocolVersion is the fixed MCP handshake version this server speaks.
const ProtocolVersion = "2024-11-05"

// InitializeResult is the wire shape of the "initialize" response.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    Capabilities       `json:"capabilities"`
	ServerInfo      mcp.Implementation `json:"serverInfo"`
}

// Capabilities advertises tool support. The empty tools object is the whole
// announcement; this server has no prompts, resources, or subscriptions.
type Capabilities struct {
	Tools struct{} `json:"tools"`
}

type handlerFunc func(ctx context.Context, req mcpjsonrpc.Request)

// Server speaks newline-delimited JSON-RPC 2.0 over a byte stream, normally
// the process's stdin/stdout. It frames the input into lines, decodes each
// line independently, and routes decoded messages through a method table.
//
// Frame isolation is the load-bearing property: a malformed line costs one
// id:null parse-error response and nothing else, and a failing tool call
// never disturbs other in-flight calls or later frames.
type Server struct {
	name       string
	version    string
	serveTools *usecase.ServeToolsUseCase
	invokeTool *usecase.InvokeToolUseCase
	logger     *slog.Logger
	handlers   map[string]handlerFunc

	mu  sync.Mutex // guards enc; tool calls answer from their own goroutines
	enc *json.Encoder
}

// NewServer creates a stdio MCP server over the given use cases.
func NewServer(name, version string, serveTools *usecase.ServeToolsUseCase, invokeTool *usecase.InvokeToolUseCase, logger *slog.Logger) *Server {
	s := &Server{
		name:       name,
		version:    version,
		serveTools: serveTools,
		invokeTool: invokeTool,
		logger:     logger.With("component", "mcp_stdio"),
	}
	s.handlers = map[string]handlerFunc{
		"initialize":                s.handleInitialize,
		"initialized":               s.handleInitialized,
		"notifications/initialized": s.handleInitialized,
		"ping":                      s.handlePing,
		"tools/list":                s.handleListTools,
		"tools/call":                s.handleCallTool,
	}
	return s
}

// Run consumes frames from in until end of input and writes responses to
// out. Blank lines are dropped, a line that fails to parse as JSON earns one
// parse-error response with a null id, and everything else is dispatched.
// End of input returns nil without waiting for in-flight tool calls; an
// unterminated trailing partial line is discarded, not an error.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	s.enc = json.NewEncoder(out)
	reader := bufio.NewReader(in)

	s.logger.Info("Serving MCP over stdio.", slog.String("protocol_version", ProtocolVersion))
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Info("End of input stream, shutting down.")
				return nil
			}
			return fmt.Errorf("failed to read from input stream: %w", err)
		}

		frame := strings.TrimSpace(line)
		if frame == "" {
			continue
		}

		var req mcpjsonrpc.Request
		if err := json.Unmarshal([]byte(frame), &req); err != nil {
			s.logger.Warn("Discarding malformed frame.", slog.Any("error", err))
			s.write(mcpjsonrpc.NewError(nil, mcpjsonrpc.CodeParseError, "Parse error"))
			continue
		}

		s.dispatch(ctx, req)
	}
}

func (s *Server) dispatch(ctx context.Context, req mcpjsonrpc.Request) {
	if handler, ok := s.handlers[req.Method]; ok {
		handler(ctx, req)
		return
	}
	if req.IsNotification() {
		s.logger.Debug("Ignoring unknown notification.", slog.String("method", req.Method))
		return
	}
	s.write(mcpjsonrpc.NewError(req.ID, mcpjsonrpc.CodeMethodNotFound,
		fmt.Sprintf("Method not found: %s", req.Method)))
}

func (s *Server) handleInitialize(ctx context.Context, req mcpjsonrpc.Request) {
	s.reply(req, InitializeResult{
		ProtocolVersion: ProtocolVersion,
		ServerInfo:      mcp.Implementation{Name: s.name, Version: s.version},
	})
}

// handleInitialized swallows the post-handshake notification. No response is
// owed even when the client mistakenly attaches an id.
func (s *Server) handleInitialized(ctx context.Context, req mcpjsonrpc.Request) {
	s.logger.Debug("Client completed initialization.")
}

func (s *Server) handlePing(ctx context.Context, req mcpjsonrpc.Request) {
	s.reply(req, struct{}{})
}

func (s *Server) handleListTools(ctx context.Context, req mcpjsonrpc.Request) {
	tools, err := s.serveTools.Execute(ctx)
	if err != nil {
		s.replyError(req, mcpjsonrpc.CodeInternalError, err.Error())
		return
	}

	out := make([]mcp.Tool, 0, len(tools))
	for _, t := range tools {
		props := make(map[string]interface{}, len(t.InputSchema.Properties))
		for name, p := range t.InputSchema.Properties {
			props[name] = map[string]interface{}{
				"type":        p.Type,
				"description": p.Description,
			}
		}
		out = append(out, mcp.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: mcp.ToolInputSchema{
				Type:       t.InputSchema.Type,
				Properties: props,
				Required:   t.InputSchema.Required,
			},
		})
	}
	s.reply(req, mcp.ListToolsResult{Tools: out})
}

// handleCallTool runs the invocation on its own goroutine so the framing
// loop keeps consuming frames while the upstream HTTP call is in flight.
// Responses from overlapping calls may therefore interleave out of request
// order, which JSON-RPC ids exist to disambiguate.
func (s *Server) handleCallTool(ctx context.Context, req mcpjsonrpc.Request) {
	var params mcpjsonrpc.CallToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.replyError(req, mcpjsonrpc.CodeInternalError,
				fmt.Sprintf("invalid tools/call params: %v", err))
			return
		}
	}

	go func() {
		text, err := s.invokeTool.Execute(ctx, params.Name, params.Arguments)
		if err != nil {
			s.replyError(req, mcpjsonrpc.CodeInternalError, err.Error())
			return
		}
		s.reply(req, mcp.NewToolResultText(text))
	}()
}

// reply emits a success response unless the request was a notification.
func (s *Server) reply(req mcpjsonrpc.Request, result interface{}) {
	if req.IsNotification() {
		return
	}
	s.write(mcpjsonrpc.NewResult(req.ID, result))
}

// replyError emits an error response; errors owed to notifications are
// logged and dropped.
func (s *Server) replyError(req mcpjsonrpc.Request, code int, message string) {
	if req.IsNotification() {
		s.logger.Warn("Dropping error for notification.", slog.String("method", req.Method), slog.String("error", message))
		return
	}
	s.write(mcpjsonrpc.NewError(req.ID, code, message))
}

func (s *Server) write(resp mcpjsonrpc.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(resp); err != nil {
		s.logger.Error("Failed to write response.", slog.Any("error", err))
	}
}

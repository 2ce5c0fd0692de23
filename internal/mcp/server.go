// Package mcp exposes the classifier as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/vci-pathogenicity-calculator/internal/service"
)

// Server represents the classifier MCP server
type Server struct {
	mcpServer  *mcp.Server
	classifier *service.ClassifierService
	info       *mcp.Implementation
	logger     *logrus.Logger
}

// ServerOption is a functional option for Server.
type ServerOption func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithImplementation sets the name and version reported to clients.
func WithImplementation(name, version string) ServerOption {
	return func(s *Server) {
		s.info = &mcp.Implementation{Name: name, Version: version}
	}
}

// NewServer creates a new MCP server instance with every tool registered.
func NewServer(classifier *service.ClassifierService, opts ...ServerOption) *Server {
	server := &Server{
		classifier: classifier,
		info:       &mcp.Implementation{Name: "vci-classifier", Version: "v1.0.0"},
		logger:     logrus.New(),
	}
	for _, opt := range opts {
		opt(server)
	}

	server.mcpServer = mcp.NewServer(server.info, nil)
	server.registerTools()

	return server
}

// Run serves MCP over the given transport until ctx is cancelled or the
// client disconnects.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.logger.WithFields(logrus.Fields{
		"server_name":    s.info.Name,
		"server_version": s.info.Version,
	}).Info("Starting classifier MCP server...")

	if err := s.mcpServer.Run(ctx, transport); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// RunStdio serves MCP over stdin/stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler serves MCP over the streamable HTTP transport.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}

// RunHTTP serves MCP over streamable HTTP on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("MCP HTTP transport listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("MCP HTTP transport failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// registerTools registers the classification tools with the MCP SDK.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        toolClassify,
		Description: "Classify a curated set of ACMG/AMP criterion evaluations into a pathogenicity assertion",
	}, s.handleClassify)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        toolValidate,
		Description: "Check a curated set of ACMG/AMP criterion evaluations for unknown codes, invalid modifiers, duplicates and conflicting criteria",
	}, s.handleValidate)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        toolListCriteria,
		Description: "List the ACMG/AMP criteria catalog, mutually exclusive criteria and the evidence combination rules",
	}, s.handleListCriteria)

	s.logger.WithField("tool_count", 3).Debug("Registered MCP tools")
}

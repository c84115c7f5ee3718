package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/a3tai/pdf-form-filler/internal/config"
	"github.com/a3tai/pdf-form-filler/internal/descriptions"
	"github.com/a3tai/pdf-form-filler/internal/pdf"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
	logger     logrus.FieldLogger

	stdin  io.Reader
	stdout io.Writer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service, logger logrus.FieldLogger) (*Server, error) {
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
		logger:     logger,
		stdin:      os.Stdin,
		stdout:     os.Stdout,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	fillFormTool := mcp.NewTool(
		"pdf_fill_form",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_fill_form")),
		mcp.WithString("pdf_base64",
			mcp.Required(),
			mcp.Description("Base64 encoded PDF document"),
		),
		mcp.WithObject("fields",
			mcp.Required(),
			mcp.Description("Map of field name to value"),
		),
	)
	s.mcpServer.AddTool(fillFormTool, s.handleFillForm)

	discoverFieldsTool := mcp.NewTool(
		"pdf_discover_fields",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_discover_fields")),
		mcp.WithString("pdf_base64",
			mcp.Required(),
			mcp.Description("Base64 encoded PDF document"),
		),
	)
	s.mcpServer.AddTool(discoverFieldsTool, s.handleDiscoverFields)

	pageTextTool := mcp.NewTool(
		"pdf_page_text",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_page_text")),
		mcp.WithString("pdf_base64",
			mcp.Required(),
			mcp.Description("Base64 encoded PDF document"),
		),
	)
	s.mcpServer.AddTool(pageTextTool, s.handlePageText)
}

// Handler functions
func (s *Server) handleFillForm(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload, err := request.RequireString("pdf_base64")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := pdf.FillRequest{
		PDFBase64: payload,
		Fields:    request.GetArguments()["fields"],
	}
	result, err := s.pdfService.FillPDF(req)
	if err != nil {
		s.logger.WithError(err).Warn("pdf_fill_form failed")
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.jsonResult(map[string]any{
		"success":          true,
		"pdf_base64":       result.PDFBase64,
		"fields_processed": result.FieldsProcessed,
	})
}

func (s *Server) handleDiscoverFields(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload, err := request.RequireString("pdf_base64")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.DiscoverFields(pdf.DiscoverRequest{PDFBase64: payload})
	if err != nil {
		s.logger.WithError(err).Warn("pdf_discover_fields failed")
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.jsonResult(map[string]any{
		"success":      true,
		"fields":       result.Fields,
		"total_fields": result.TotalFields,
	})
}

func (s *Server) handlePageText(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload, err := request.RequireString("pdf_base64")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.ExtractText(pdf.TextRequest{PDFBase64: payload})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Pages: %d\n", result.TotalPages)
	for i, page := range result.Pages {
		text += fmt.Sprintf("\n--- Page %d ---\n%s\n", i+1, page)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// Run serves the tools over standard I/O until stdin closes or ctx is
// cancelled
func (s *Server) Run(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"server":  s.config.ServerName,
		"version": s.config.Version,
	}).Info("Starting PDF form MCP server in stdio mode")

	err := server.NewStdioServer(s.mcpServer).Listen(ctx, s.stdin, s.stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-form-filler/internal/config"
	"github.com/a3tai/pdf-form-filler/internal/pdf"
	"github.com/a3tai/pdf-form-filler/internal/pdf/pdftest"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeStdio
	cfg.ServerName = "test-server"

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	server, err := NewServer(cfg, pdf.NewService(cfg.MaxBodySize, nil), logger)
	require.NoError(t, err)
	return server
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestNewServer(t *testing.T) {
	_, err := NewServer(config.DefaultConfig(), nil, nil)
	assert.Error(t, err)

	server := newTestServer(t)
	assert.NotNil(t, server.mcpServer)
	assert.NotNil(t, server.pdfService)
}

func TestHandleFillForm(t *testing.T) {
	server := newTestServer(t)

	result, err := server.handleFillForm(context.Background(), callRequest("pdf_fill_form", map[string]any{
		"pdf_base64": pdftest.Base64(pdftest.FormPDF()),
		"fields": map[string]any{
			pdftest.TextField:     "John",
			pdftest.CheckboxField: true,
		},
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, float64(2), decoded["fields_processed"])
	assert.NotEmpty(t, decoded["pdf_base64"])
}

func TestHandleFillForm_Errors(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name    string
		args    map[string]any
		wantMsg string
	}{
		{name: "missing pdf", args: map[string]any{"fields": map[string]any{}}, wantMsg: "pdf_base64"},
		{name: "fields not an object", args: map[string]any{"pdf_base64": pdftest.Base64(pdftest.FormPDF()), "fields": "x"}, wantMsg: "fields"},
		{name: "not a pdf", args: map[string]any{"pdf_base64": "aGVsbG8=", "fields": map[string]any{}}, wantMsg: "PDF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handleFillForm(context.Background(), callRequest("pdf_fill_form", tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.wantMsg)
		})
	}
}

func TestHandleDiscoverFields(t *testing.T) {
	server := newTestServer(t)

	result, err := server.handleDiscoverFields(context.Background(), callRequest("pdf_discover_fields", map[string]any{
		"pdf_base64": pdftest.Base64(pdftest.FormPDF()),
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var decoded struct {
		Fields []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"fields"`
		TotalFields int `json:"total_fields"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	assert.Equal(t, 4, decoded.TotalFields)
	assert.Len(t, decoded.Fields, 4)
}

func TestHandleDiscoverFields_MissingPDF(t *testing.T) {
	server := newTestServer(t)

	result, err := server.handleDiscoverFields(context.Background(), callRequest("pdf_discover_fields", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandlePageText(t *testing.T) {
	server := newTestServer(t)

	result, err := server.handlePageText(context.Background(), callRequest("pdf_page_text", map[string]any{
		"pdf_base64": pdftest.Base64(pdftest.PlainPDF()),
	}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.False(t, result.IsError, text)
	assert.True(t, strings.HasPrefix(text, "Pages: 1"))
	assert.Contains(t, text, "Hello")
}

func TestRun_StopsAtEndOfInput(t *testing.T) {
	server := newTestServer(t)
	server.stdin = strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}` + "\n")
	var out bytes.Buffer
	server.stdout = &out

	require.NoError(t, server.Run(context.Background()))
	assert.Contains(t, out.String(), "pdf_fill_form")
	assert.Contains(t, out.String(), "pdf_discover_fields")
}

func TestRun_StopsWhenCancelled(t *testing.T) {
	server := newTestServer(t)
	stdin, stdinWriter := io.Pipe()
	defer stdinWriter.Close()
	server.stdin = stdin
	server.stdout = io.Discard

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

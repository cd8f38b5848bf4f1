package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/a3tai/mcp-wers-reader/internal/analysis"
	"github.com/a3tai/mcp-wers-reader/internal/config"
	"github.com/a3tai/mcp-wers-reader/internal/descriptions"
	"github.com/a3tai/mcp-wers-reader/internal/document/doctest"
	"github.com/a3tai/mcp-wers-reader/internal/report"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	docDir := t.TempDir()

	cfg := &config.Config{
		Mode:              "stdio",
		DocumentDirectory: docDir,
		ReportDirectory:   t.TempDir(),
		Version:           "1.0.0",
		ServerName:        "test-server",
		MaxFileSize:       1024 * 1024,
	}

	writer, err := report.NewWriter(report.Config{Directory: cfg.ReportDirectory})
	if err != nil {
		t.Fatalf("failed to create report writer: %v", err)
	}
	service, err := analysis.NewService(analysis.Options{
		MaxFileSize:       cfg.MaxFileSize,
		DocumentDirectory: cfg.DocumentDirectory,
		Reports:           writer,
	})
	if err != nil {
		t.Fatalf("failed to create analysis service: %v", err)
	}

	server, err := NewServer(cfg, service, nil)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return server, docDir
}

func writeDocument(t *testing.T, dir, name string, b *doctest.Builder) string {
	t.Helper()
	path, err := b.WriteFile(dir, name)
	if err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func optionsDocument() *doctest.Builder {
	return doctest.New().
		Paragraph("Power Moonroof - CJTAB").
		Table([]string{"Heated Seats", "CJTAC"})
}

func callTool(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestNewServer(t *testing.T) {
	cfg := &config.Config{ServerName: "test-server", Version: "1.0.0"}

	if _, err := NewServer(cfg, nil, nil); err == nil {
		t.Error("expected error for nil analysis service")
	}

	readOnly, err := analysis.NewService(analysis.Options{MaxFileSize: 1024})
	if err != nil {
		t.Fatalf("failed to create analysis service: %v", err)
	}
	if _, err := NewServer(cfg, readOnly, nil); err == nil {
		t.Error("expected error for a service without a report writer")
	}

	server, _ := newTestServer(t)
	if _, err := NewServer(nil, server.service, nil); err == nil {
		t.Error("expected error for nil config")
	}

	if server.mcpServer == nil {
		t.Error("mcpServer should be initialized")
	}
	if server.logger == nil {
		t.Error("a nil logger should be replaced by a no-op logger")
	}
}

func TestServer_ToolsRegistered(t *testing.T) {
	server, _ := newTestServer(t)
	ctx := context.Background()

	server.mcpServer.HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"initialize",`+
		`"params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1.0.0"}}}`))
	response := server.mcpServer.HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))

	data, err := json.Marshal(response)
	if err != nil {
		t.Fatalf("failed to marshal response: %v", err)
	}

	for _, name := range descriptions.GetAllToolNames() {
		if !strings.Contains(string(data), `"name":"`+name+`"`) {
			t.Errorf("tool %s is not registered: %s", name, data)
		}
	}
}

func TestServer_HandleAnalyze(t *testing.T) {
	server, docDir := newTestServer(t)
	writeDocument(t, docDir, "options.docx", optionsDocument())
	writeDocument(t, docDir, "second.docx", doctest.New().Paragraph("Stripe CJTAE"))

	result, err := server.handleAnalyze(context.Background(), callTool(map[string]interface{}{
		"doc1_path":   "options.docx",
		"doc2_path":   "second.docx",
		"input_codes": "CJTAB\nCJTAC\nCJTAE\nCJTAX",
		"voci_codes":  "CJTAC ZZZZZ",
	}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", extractTextFromResult(result))
	}

	text := extractTextFromResult(result)
	expected := []string{
		"Report: ",
		"Total WERS Codes: 3",
		"Total Minutes: 12",
		"Buffer Days: 1",
		"1. CJTAB: WERS Document 1 Only - Power Moonroof",
		"2. CJTAC: Both VOCI and WERS Document 1 - Heated Seats",
		"3. CJTAE: WERS Document 2 Only\n",
		"4. ZZZZZ: VOCI Only\n",
	}
	for _, want := range expected {
		if !strings.Contains(text, want) {
			t.Errorf("analyze output missing %q\nActual output:\n%s", want, text)
		}
	}
	if strings.Contains(text, "CJTAX") {
		t.Errorf("codes found nowhere should be dropped:\n%s", text)
	}

	entries, err := os.ReadDir(server.service.Reports().Directory())
	if err != nil || len(entries) != 1 {
		t.Errorf("expected exactly one report artifact, got %d (%v)", len(entries), err)
	}
}

func TestServer_HandleAnalyzeErrors(t *testing.T) {
	server, docDir := newTestServer(t)
	if err := os.WriteFile(filepath.Join(docDir, "broken.docx"), []byte("not a zip"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	tests := []struct {
		name    string
		args    map[string]interface{}
		wantMsg string
	}{
		{name: "missing doc1_path", args: map[string]interface{}{}, wantMsg: "doc1_path"},
		{name: "missing file", args: map[string]interface{}{"doc1_path": "missing.docx"}, wantMsg: "file does not exist"},
		{name: "malformed document", args: map[string]interface{}{"doc1_path": "broken.docx"}, wantMsg: "malformed"},
		{name: "outside directory", args: map[string]interface{}{"doc1_path": "/etc/passwd"}, wantMsg: "outside configured directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handleAnalyze(context.Background(), callTool(tt.args))
			if err != nil {
				t.Fatalf("handler should report failures as tool errors, got: %v", err)
			}
			if !result.IsError {
				t.Fatalf("expected a tool error, got: %s", extractTextFromResult(result))
			}
			if text := extractTextFromResult(result); !strings.Contains(text, tt.wantMsg) {
				t.Errorf("expected error containing %q, got %q", tt.wantMsg, text)
			}
		})
	}
}

func TestServer_HandleFlattenDocument(t *testing.T) {
	server, docDir := newTestServer(t)
	writeDocument(t, docDir, "options.docx", optionsDocument())
	writeDocument(t, docDir, "empty.docx", doctest.New().Paragraph(""))

	result, err := server.handleFlattenDocument(context.Background(), callTool(map[string]interface{}{
		"path": "options.docx",
	}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	text := extractTextFromResult(result)
	if !strings.Contains(text, "1. Power Moonroof - CJTAB\n\nTable 1:\nHeated Seats | CJTAC") {
		t.Errorf("unexpected flatten output:\n%s", text)
	}

	result, _ = server.handleFlattenDocument(context.Background(), callTool(map[string]interface{}{
		"path": "empty.docx",
	}))
	if text := extractTextFromResult(result); !strings.Contains(text, "contains no text") {
		t.Errorf("unexpected output for empty document: %s", text)
	}

	result, _ = server.handleFlattenDocument(context.Background(), callTool(map[string]interface{}{}))
	if !result.IsError {
		t.Error("expected error for missing path")
	}
}

func TestServer_HandleExtractDescriptions(t *testing.T) {
	server, docDir := newTestServer(t)
	writeDocument(t, docDir, "options.docx", optionsDocument())
	writeDocument(t, docDir, "plain.docx", doctest.New().Paragraph("No codes here"))

	result, err := server.handleExtractDescriptions(context.Background(), callTool(map[string]interface{}{
		"path": "options.docx",
	}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	text := extractTextFromResult(result)
	if !strings.Contains(text, "Found 2 code description(s)") ||
		!strings.Contains(text, "CJTAB: Power Moonroof\nCJTAC: Heated Seats\n") {
		t.Errorf("unexpected descriptions output:\n%s", text)
	}

	result, _ = server.handleExtractDescriptions(context.Background(), callTool(map[string]interface{}{
		"path": "plain.docx",
	}))
	if text := extractTextFromResult(result); !strings.Contains(text, "No code descriptions found") {
		t.Errorf("unexpected output: %s", text)
	}
}

func TestServer_HandleMatchCodes(t *testing.T) {
	server, docDir := newTestServer(t)
	writeDocument(t, docDir, "options.docx", optionsDocument())

	result, err := server.handleMatchCodes(context.Background(), callTool(map[string]interface{}{
		"path":  "options.docx",
		"codes": "CJTAC, CJTAX, CJTAB",
	}))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	text := extractTextFromResult(result)
	for _, want := range []string{"2 of 3 code(s) found", "Found: CJTAC, CJTAB", "Missing: CJTAX"} {
		if !strings.Contains(text, want) {
			t.Errorf("match output missing %q\nActual output:\n%s", want, text)
		}
	}

	result, _ = server.handleMatchCodes(context.Background(), callTool(map[string]interface{}{
		"path": "options.docx",
	}))
	if !result.IsError {
		t.Error("expected error for missing codes")
	}

	result, _ = server.handleMatchCodes(context.Background(), callTool(map[string]interface{}{
		"path":  "options.docx",
		"codes": "lower case only",
	}))
	if text := extractTextFromResult(result); !strings.Contains(text, "No codes given") {
		t.Errorf("unexpected output: %s", text)
	}
}

func TestServer_HandleServerInfo(t *testing.T) {
	server, docDir := newTestServer(t)
	writeDocument(t, docDir, "options.docx", optionsDocument())
	if err := os.WriteFile(filepath.Join(docDir, "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	result, err := server.handleServerInfo(context.Background(), callTool(nil))
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	text := extractTextFromResult(result)
	expected := []string{
		"test-server v1.0.0",
		"Document Directory: " + docDir,
		"Report Directory: " + server.service.Reports().Directory(),
		"Max File Size: 1 MB",
		"(1 documents found)",
		"1. options.docx",
		"Result Labels (priority order)",
		"1. VOCI Only",
		"6. WERS Document 2 Only",
		descriptions.WersAnalyze,
		descriptions.WersServerInfo,
	}
	for _, want := range expected {
		if !strings.Contains(text, want) {
			t.Errorf("server info missing %q\nActual output:\n%s", want, text)
		}
	}
	if strings.Contains(text, "readme.txt") {
		t.Errorf("unsupported files should not be listed:\n%s", text)
	}
}

func TestServer_FormatServerInfoTruncates(t *testing.T) {
	server, _ := newTestServer(t)

	files := make([]analysis.FileInfo, maxListedDocuments+3)
	for i := range files {
		files[i] = analysis.FileInfo{Name: "doc.docx", Size: 1}
	}

	text := server.formatServerInfo(files)
	if !strings.Contains(text, "... and 3 more files") {
		t.Errorf("expected truncation marker:\n%s", text)
	}
}

// extractTextFromResult returns the first text content of a tool result
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}

	return ""
}

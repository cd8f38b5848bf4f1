package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-wers-reader/internal/analysis"
	"github.com/a3tai/mcp-wers-reader/internal/config"
	"github.com/a3tai/mcp-wers-reader/internal/descriptions"
	"github.com/a3tai/mcp-wers-reader/internal/reconcile"
)

// maxListedDocuments bounds the directory listing in server info
const maxListedDocuments = 10

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *analysis.Service
	mcpServer *server.MCPServer
	logger    *zap.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *analysis.Service, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("analysis service cannot be nil")
	}
	if service.Reports() == nil {
		return nil, fmt.Errorf("analysis service needs a report writer")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		service:   service,
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	analyzeTool := mcp.NewTool(
		descriptions.WersAnalyze,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.WersAnalyze)),
		mcp.WithString("doc1_path",
			mcp.Required(),
			mcp.Description("Path to WERS document 1 (.docx or .pdf)"),
		),
		mcp.WithString("doc2_path",
			mcp.Description("Optional path to WERS document 2"),
		),
		mcp.WithString("input_codes",
			mcp.Description("WERS codes, one per line or any separator"),
		),
		mcp.WithString("voci_codes",
			mcp.Description("VOCI codes pasted as free text"),
		),
	)
	s.mcpServer.AddTool(analyzeTool, s.handleAnalyze)

	flattenTool := mcp.NewTool(
		descriptions.WersFlattenDocument,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.WersFlattenDocument)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the WERS document"),
		),
	)
	s.mcpServer.AddTool(flattenTool, s.handleFlattenDocument)

	descriptionsTool := mcp.NewTool(
		descriptions.WersExtractDescriptions,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.WersExtractDescriptions)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the WERS document"),
		),
	)
	s.mcpServer.AddTool(descriptionsTool, s.handleExtractDescriptions)

	matchTool := mcp.NewTool(
		descriptions.WersMatchCodes,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.WersMatchCodes)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the WERS document"),
		),
		mcp.WithString("codes",
			mcp.Required(),
			mcp.Description("Codes to look for"),
		),
	)
	s.mcpServer.AddTool(matchTool, s.handleMatchCodes)

	serverInfoTool := mcp.NewTool(
		descriptions.WersServerInfo,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.WersServerInfo)),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc1, err := request.RequireString("doc1_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	req := analysis.FileRequest{
		Doc1Path:   doc1,
		Doc2Path:   stringArg(args, "doc2_path"),
		InputCodes: stringArg(args, "input_codes"),
		VociCodes:  stringArg(args, "voci_codes"),
	}

	result, err := s.service.AnalyzeFiles(ctx, req)
	if err != nil {
		s.logger.Warn("analysis failed", zap.String("doc1_path", doc1), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatAnalyzeResult(result)), nil
}

func (s *Server) handleFlattenDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.Flatten(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if result.Text == "" {
		return mcp.NewToolResultText(fmt.Sprintf("Document %s contains no text", result.Path)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Flattened text of %s:\n\n%s", result.Path, result.Text)), nil
}

func (s *Server) handleExtractDescriptions(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.Descriptions(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatDescriptionsResult(result)), nil
}

func (s *Server) handleMatchCodes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	codeText, err := request.RequireString("codes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.MatchCodes(path, codeText)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatMatchResult(result)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.service.ListDocuments(0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatServerInfo(files)), nil
}

func stringArg(args map[string]interface{}, name string) string {
	if v, ok := args[name].(string); ok {
		return v
	}
	return ""
}

// Formatting methods
func (s *Server) formatAnalyzeResult(result *analysis.Result) string {
	var b strings.Builder
	m := result.Metrics

	b.WriteString("WERS Code Analysis\n")
	fmt.Fprintf(&b, "Report: %s\n\n", result.Artifact.Path)

	b.WriteString("CFD Completion Time Estimate (WERS Codes Only):\n")
	fmt.Fprintf(&b, "Total WERS Codes: %d\n", m.TotalCodes)
	fmt.Fprintf(&b, "Total Minutes: %d\n", m.TotalMinutes)
	fmt.Fprintf(&b, "Total Hours: %.2f\n", m.TotalHours)
	fmt.Fprintf(&b, "Base Days: %.2f\n", m.BaseDays)
	fmt.Fprintf(&b, "Buffer Days: %d\n", m.BufferDays)
	fmt.Fprintf(&b, "Total Working Days: %.2f\n", m.TotalDays)
	if m.HasEntityMPV {
		b.WriteString("Entity/MPV$ codes present: the buffer day covers them\n")
	}

	if len(result.Results) == 0 {
		b.WriteString("\nNo codes found.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "\nResults (%d):\n", len(result.Results))
	for i, r := range result.Results {
		fmt.Fprintf(&b, "%d. %s: %s", i+1, r.Code, r.Label)
		if r.Description != "" {
			fmt.Fprintf(&b, " - %s", r.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (s *Server) formatDescriptionsResult(result *analysis.DescriptionsResult) string {
	if len(result.Descriptions) == 0 {
		return fmt.Sprintf("No code descriptions found in %s", result.Path)
	}

	text := fmt.Sprintf("Found %d code description(s) in %s:\n", len(result.Descriptions), result.Path)
	for _, d := range result.Descriptions {
		text += fmt.Sprintf("%s: %s\n", d.Code, d.Description)
	}
	return text
}

func (s *Server) formatMatchResult(result *analysis.MatchResult) string {
	total := len(result.Found) + len(result.Missing)
	if total == 0 {
		return "No codes given: codes are five upper-case letters or digits"
	}

	text := fmt.Sprintf("%d of %d code(s) found in %s\n", len(result.Found), total, result.Path)
	if len(result.Found) > 0 {
		text += fmt.Sprintf("Found: %s\n", strings.Join(result.Found, ", "))
	}
	if len(result.Missing) > 0 {
		text += fmt.Sprintf("Missing: %s\n", strings.Join(result.Missing, ", "))
	}
	return text
}

func (s *Server) formatServerInfo(files []analysis.FileInfo) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("📁 Document Directory: %s\n", s.service.DocumentDirectory())
	text += fmt.Sprintf("📝 Report Directory: %s\n", s.service.Reports().Directory())
	text += fmt.Sprintf("📏 Max File Size: %d MB\n\n", s.service.MaxFileSize()/(1024*1024))

	if len(files) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d documents found):\n", len(files))
		for i, file := range files {
			if i >= maxListedDocuments {
				text += fmt.Sprintf("   ... and %d more files\n", len(files)-maxListedDocuments)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No .docx or .pdf documents found\n\n"
	}

	text += "🏷️  Result Labels (priority order):\n"
	for i, label := range reconcile.Labels() {
		text += fmt.Sprintf("   %d. %s\n", i+1, label)
	}
	text += "\n"

	text += "🛠️  Available Tools:\n"
	for _, tool := range descriptions.Tools() {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	return text
}

// Run serves MCP over stdio until the client disconnects
func (s *Server) Run(_ context.Context) error {
	s.logger.Debug("starting WERS MCP server in stdio mode",
		zap.String("document_dir", s.service.DocumentDirectory()),
		zap.String("report_dir", s.service.Reports().Directory()),
	)

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

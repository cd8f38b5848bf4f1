// Package analysis runs the reconciliation pipeline over one or two
// documents and records a report artifact for each run.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-wers-reader/internal/codes"
	"github.com/a3tai/mcp-wers-reader/internal/document"
	"github.com/a3tai/mcp-wers-reader/internal/extract"
	"github.com/a3tai/mcp-wers-reader/internal/flatten"
	"github.com/a3tai/mcp-wers-reader/internal/reconcile"
	"github.com/a3tai/mcp-wers-reader/internal/report"
	"github.com/a3tai/mcp-wers-reader/internal/security"
)

// ErrNoReportWriter is returned by the analysis runs of a service built
// without a report writer
var ErrNoReportWriter = errors.New("no report writer configured")

// Options configures a Service
type Options struct {
	MaxFileSize int64
	// DocumentDirectory confines file paths; empty means paths are used as given
	DocumentDirectory string
	// Reports may be nil for a service that only flattens and extracts
	Reports *report.Writer
	Logger  *zap.Logger
}

// Service orchestrates document loading, the reconciliation core and the
// report writer
type Service struct {
	maxFileSize   int64
	reader        *document.Reader
	pathValidator *security.PathValidator
	reports       *report.Writer
	logger        *zap.Logger
}

// NewService creates a new analysis service
func NewService(opts Options) (*Service, error) {
	if opts.MaxFileSize <= 0 {
		return nil, fmt.Errorf("maximum file size must be positive")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		maxFileSize: opts.MaxFileSize,
		reader:      document.NewReader(opts.MaxFileSize),
		reports:     opts.Reports,
		logger:      logger,
	}

	if opts.DocumentDirectory != "" {
		pv, err := security.NewPathValidator(opts.DocumentDirectory)
		if err != nil {
			return nil, fmt.Errorf("failed to create path validator: %w", err)
		}
		s.pathValidator = pv
	}

	return s, nil
}

// Reports returns the writer used for report artifacts, or nil
func (s *Service) Reports() *report.Writer {
	return s.reports
}

// MaxFileSize returns the document size limit
func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}

// DocumentDirectory returns the directory paths are confined to, if any
func (s *Service) DocumentDirectory() string {
	if s.pathValidator == nil {
		return ""
	}
	return s.pathValidator.Root()
}

// Analyze parses the uploaded documents and reconciles them against the
// pasted code lists
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	doc1, err := s.reader.Parse(req.Doc1.Content, req.Doc1.Size, req.Doc1.Name)
	if err != nil {
		return nil, fmt.Errorf("document 1: %w", err)
	}

	var doc2 *document.Document
	if req.Doc2 != nil {
		doc2, err = s.reader.Parse(req.Doc2.Content, req.Doc2.Size, req.Doc2.Name)
		if err != nil {
			return nil, fmt.Errorf("document 2: %w", err)
		}
	}

	return s.analyzeDocuments(ctx, doc1, doc2, req.InputCodes, req.VociCodes)
}

// AnalyzeFiles is Analyze for documents on disk
func (s *Service) AnalyzeFiles(ctx context.Context, req FileRequest) (*Result, error) {
	doc1, err := s.readFile(req.Doc1Path)
	if err != nil {
		return nil, fmt.Errorf("document 1: %w", err)
	}

	var doc2 *document.Document
	if req.Doc2Path != "" {
		doc2, err = s.readFile(req.Doc2Path)
		if err != nil {
			return nil, fmt.Errorf("document 2: %w", err)
		}
	}

	return s.analyzeDocuments(ctx, doc1, doc2, req.InputCodes, req.VociCodes)
}

func (s *Service) analyzeDocuments(ctx context.Context, doc1, doc2 *document.Document,
	inputText, vociText string,
) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.reports == nil {
		return nil, ErrNoReportWriter
	}

	inputCodes := codes.Parse(inputText)
	vociCodes := codes.Parse(vociText)

	text1 := flatten.Flatten(doc1)
	in := reconcile.Input{
		InputCodes:   inputCodes,
		VociCodes:    vociCodes,
		FoundDoc1:    codes.Match(text1, inputCodes),
		FoundDoc2:    codes.NewSet(),
		Descriptions: extract.Descriptions(doc1),
	}

	var text2 *string
	if doc2 != nil {
		flat := flatten.Flatten(doc2)
		text2 = &flat
		in.FoundDoc2 = codes.Match(flat, inputCodes)
	}

	outcome := reconcile.Reconcile(in)

	artifact, err := s.reports.Write(report.Report{
		Metrics: outcome.Metrics,
		Text1:   text1,
		Text2:   text2,
		Results: outcome.Results,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("analysis complete",
		zap.String("report_id", artifact.ID),
		zap.Int("input_codes", len(inputCodes)),
		zap.Int("voci_codes", len(vociCodes)),
		zap.Int("results", len(outcome.Results)),
		zap.Int("counted_codes", outcome.Metrics.TotalCodes),
		zap.Bool("second_document", doc2 != nil),
	)

	return &Result{
		Results:  outcome.Results,
		Metrics:  outcome.Metrics,
		Artifact: artifact,
		Text1:    text1,
		Text2:    text2,
	}, nil
}

// Flatten returns the flattened text of the document at path
func (s *Service) Flatten(path string) (*FlattenResult, error) {
	doc, err := s.readFile(path)
	if err != nil {
		return nil, err
	}
	return &FlattenResult{Path: path, Text: flatten.Flatten(doc)}, nil
}

// Descriptions extracts the code descriptions of the document at path
func (s *Service) Descriptions(path string) (*DescriptionsResult, error) {
	doc, err := s.readFile(path)
	if err != nil {
		return nil, err
	}

	found := extract.Descriptions(doc)
	result := &DescriptionsResult{Path: path, Descriptions: make([]Description, 0, len(found))}
	for code, desc := range found {
		result.Descriptions = append(result.Descriptions, Description{Code: code, Description: desc})
	}
	sort.Slice(result.Descriptions, func(i, j int) bool {
		return result.Descriptions[i].Code < result.Descriptions[j].Code
	})
	return result, nil
}

// MatchCodes reports which of the codes in codeText occur in the flattened
// document at path. Found and Missing keep the order of first appearance.
func (s *Service) MatchCodes(path, codeText string) (*MatchResult, error) {
	doc, err := s.readFile(path)
	if err != nil {
		return nil, err
	}

	candidates := codes.Parse(codeText)
	found := codes.Match(flatten.Flatten(doc), candidates)

	result := &MatchResult{Path: path, Found: []string{}, Missing: []string{}}
	seen := codes.NewSet()
	for _, code := range candidates {
		if seen.Has(code) {
			continue
		}
		seen[code] = struct{}{}
		if found.Has(code) {
			result.Found = append(result.Found, code)
		} else {
			result.Missing = append(result.Missing, code)
		}
	}
	return result, nil
}

// ListDocuments returns up to limit supported documents at the top level of
// the document directory
func (s *Service) ListDocuments(limit int) ([]FileInfo, error) {
	dir := s.DocumentDirectory()
	if dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document directory: %w", err)
	}

	files := []FileInfo{}
	for _, entry := range entries {
		if limit > 0 && len(files) >= limit {
			break
		}
		if entry.IsDir() {
			continue
		}
		if _, ok := document.FormatFromExtension(entry.Name()); !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name: entry.Name(),
			Path: filepath.Join(dir, entry.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

func (s *Service) readFile(path string) (*document.Document, error) {
	if s.pathValidator != nil {
		resolved, err := s.pathValidator.Resolve(path)
		if err != nil {
			return nil, fmt.Errorf("security validation failed: %w", err)
		}
		path = resolved
	}

	doc, err := s.reader.ReadFile(path)
	if err != nil {
		s.logger.Debug("document rejected", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	return doc, nil
}

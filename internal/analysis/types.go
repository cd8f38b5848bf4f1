package analysis

import (
	"io"

	"github.com/a3tai/mcp-wers-reader/internal/reconcile"
	"github.com/a3tai/mcp-wers-reader/internal/report"
)

// Source is one document to analyze, already opened by the caller
type Source struct {
	Name    string
	Content io.ReaderAt
	Size    int64
}

// Request is a single analysis run over uploaded content
type Request struct {
	Doc1 Source
	// Doc2 is optional
	Doc2       *Source
	InputCodes string
	VociCodes  string
}

// FileRequest is a single analysis run over documents on disk
type FileRequest struct {
	Doc1Path   string
	Doc2Path   string
	InputCodes string
	VociCodes  string
}

// Result is everything an adapter needs to present one analysis
type Result struct {
	Results  []reconcile.Result `json:"results" yaml:"results"`
	Metrics  reconcile.Metrics  `json:"metrics" yaml:"metrics"`
	Artifact report.Artifact    `json:"report" yaml:"report"`

	Text1 string  `json:"-" yaml:"-"`
	Text2 *string `json:"-" yaml:"-"`
}

// FlattenResult is the flattened text of one document
type FlattenResult struct {
	Path string `json:"path" yaml:"path"`
	Text string `json:"text" yaml:"text"`
}

// Description is one extracted code description
type Description struct {
	Code        string `json:"code" yaml:"code"`
	Description string `json:"description" yaml:"description"`
}

// DescriptionsResult lists the descriptions of one document, sorted by code
type DescriptionsResult struct {
	Path         string        `json:"path" yaml:"path"`
	Descriptions []Description `json:"descriptions" yaml:"descriptions"`
}

// MatchResult lists the candidate codes present in one document
type MatchResult struct {
	Path    string   `json:"path" yaml:"path"`
	Found   []string `json:"found" yaml:"found"`
	Missing []string `json:"missing" yaml:"missing"`
}

// FileInfo describes a document in the configured directory
type FileInfo struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
	Size int64  `json:"size" yaml:"size"`
}

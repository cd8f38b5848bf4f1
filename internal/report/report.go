// Package report writes the flat text audit artifact of an analysis run.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/a3tai/mcp-wers-reader/internal/reconcile"
)

const (
	artifactExt = ".txt"
	filePerm    = 0o640
	dirPerm     = 0o750
)

var (
	// ErrArtifactNotFound is returned when no artifact exists for an id
	ErrArtifactNotFound = errors.New("report artifact not found")
	// ErrInvalidArtifactID is returned for ids that are not UUIDs
	ErrInvalidArtifactID = errors.New("invalid report artifact id")
)

// Report is everything serialized into one artifact
type Report struct {
	Metrics reconcile.Metrics
	Text1   string
	// Text2 is nil when no second document was supplied
	Text2   *string
	Results []reconcile.Result
}

// Config holds the report writer settings, resolved once per process
type Config struct {
	Directory string
}

// Artifact identifies a written report
type Artifact struct {
	ID   string `json:"id" yaml:"id"`
	Path string `json:"path" yaml:"path"`
}

// Writer stores reports under a fixed directory, one uniquely named file
// per call
type Writer struct {
	dir string
}

// NewWriter creates the report directory if needed
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.Directory == "" {
		return nil, fmt.Errorf("report directory cannot be empty")
	}

	dir, err := filepath.Abs(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve report directory: %w", err)
	}

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("cannot create report directory %s: %w", dir, err)
	}

	return &Writer{dir: dir}, nil
}

// Directory returns the absolute report directory
func (w *Writer) Directory() string {
	return w.dir
}

// Write renders r into a new artifact
func (w *Writer) Write(r Report) (Artifact, error) {
	id := uuid.NewString()
	path := filepath.Join(w.dir, id+artifactExt)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to create report: %w", err)
	}

	if err := Render(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return Artifact{}, fmt.Errorf("failed to write report: %w", err)
	}

	if err := f.Close(); err != nil {
		return Artifact{}, fmt.Errorf("failed to close report: %w", err)
	}

	return Artifact{ID: id, Path: path}, nil
}

// Open returns the artifact stored under id
func (w *Writer) Open(id string) (*os.File, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidArtifactID, id)
	}

	// canonical form only, so an id always names exactly one file
	if parsed.String() != id {
		return nil, fmt.Errorf("%w: %s", ErrInvalidArtifactID, id)
	}

	f, err := os.Open(filepath.Join(w.dir, id+artifactExt))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	return f, nil
}

// Render writes the report layout to out
func Render(out io.Writer, r Report) error {
	bw := bufio.NewWriter(out)

	fmt.Fprint(bw, "WERS Code Analysis Results\n")
	fmt.Fprint(bw, "=========================\n\n")

	m := r.Metrics
	fmt.Fprint(bw, "CFD Completion Time Estimate (WERS Codes Only):\n")
	fmt.Fprint(bw, "-----------------------------------------\n")
	fmt.Fprintf(bw, "Total WERS Codes (excluding VOCI-only): %d\n", m.TotalCodes)
	fmt.Fprintf(bw, "Total Minutes (4 mins per code): %d\n", m.TotalMinutes)
	fmt.Fprintf(bw, "Total Hours: %s\n", FormatDecimal(m.TotalHours))
	fmt.Fprintf(bw, "Total Working Days (8hrs/day + 1 day buffer): %s\n", FormatDecimal(m.TotalDays))
	fmt.Fprint(bw, "Note: 1 day buffer is added for entity and MPV$ codes\n\n")

	fmt.Fprint(bw, "Extracted Text from Document 1:\n")
	fmt.Fprint(bw, "--------------------------\n")
	fmt.Fprint(bw, r.Text1)
	fmt.Fprint(bw, "\n\n")

	if r.Text2 != nil {
		fmt.Fprint(bw, "Extracted Text from Document 2:\n")
		fmt.Fprint(bw, "--------------------------\n")
		fmt.Fprint(bw, *r.Text2)
		fmt.Fprint(bw, "\n\n")
	}

	fmt.Fprint(bw, "Analysis Results:\n")
	fmt.Fprint(bw, "----------------\n")
	for _, res := range r.Results {
		fmt.Fprintf(bw, "%s: %s - %s\n", res.Code, res.Label, res.Description)
	}

	return bw.Flush()
}

// FormatDecimal prints a rounded metric the way the report always has:
// shortest form, with at least one fractional digit
func FormatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if strings.Contains(s, ".") {
		return s
	}
	return s + ".0"
}

// Package security confines document paths supplied by MCP clients to the
// configured document directory.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for paths that escape the document directory
var ErrOutsideRoot = errors.New("path is outside configured directory")

// PathValidator resolves client paths against a root directory
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at dir. The directory does not
// have to exist yet.
func NewPathValidator(dir string) (*PathValidator, error) {
	if dir == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}

	return &PathValidator{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute document directory
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve turns a client supplied path into an absolute path inside the
// root. Relative paths are taken relative to the root.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	clean := filepath.Clean(path)

	within, err := v.IsWithinRoot(clean)
	if err != nil {
		return "", fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}

	return clean, nil
}

// ValidatePath checks that path stays inside the root
func (v *PathValidator) ValidatePath(path string) error {
	_, err := v.Resolve(path)
	return err
}

// IsWithinRoot reports whether path, with symlinks followed where they
// exist, lies inside the root
func (v *PathValidator) IsWithinRoot(path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	abs = filepath.Clean(abs)

	if !contains(v.root, abs) {
		return false, nil
	}

	realRoot := v.root
	if resolved, err := filepath.EvalSymlinks(v.root); err == nil {
		realRoot = resolved
	}

	// a link inside the root may still point outside of it
	realPath, err := filepath.EvalSymlinks(abs)
	switch {
	case err == nil:
		return contains(realRoot, realPath) || contains(v.root, realPath), nil
	case os.IsNotExist(err):
		return true, nil
	default:
		return false, fmt.Errorf("failed to resolve symlinks: %w", err)
	}
}

func contains(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

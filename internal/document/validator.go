package document

import (
	"fmt"
	"os"
)

// Validator handles document file validation before parsing
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new document validator with the specified size limit
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile checks that a path points to a non-empty, supported document
// within the size limit
func (v *Validator) ValidateFile(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("%w: path cannot be empty", ErrInvalidFile)
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: file does not exist: %s", ErrInvalidFile, filePath)
	}
	if err != nil {
		return fmt.Errorf("%w: cannot access file: %v", ErrInvalidFile, err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("%w: path is a directory, not a file: %s", ErrInvalidFile, filePath)
	}

	if _, ok := FormatFromExtension(filePath); !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filePath)
	}

	return v.ValidateSize(filePath, fileInfo.Size())
}

// ValidateSize rejects empty content and content over the size limit
func (v *Validator) ValidateSize(name string, size int64) error {
	if size == 0 {
		return fmt.Errorf("%w: file is empty: %s", ErrInvalidFile, name)
	}

	if size > v.maxFileSize {
		return fmt.Errorf("%w: file too large: %d bytes (max: %d bytes)",
			ErrInvalidFile, size, v.maxFileSize)
	}

	return nil
}

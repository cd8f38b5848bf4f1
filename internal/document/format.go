package document

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	zipMagic = []byte("PK\x03\x04")
	pdfMagic = []byte("%PDF-")
)

// FormatFromExtension maps a file name to a supported format
func FormatFromExtension(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".docx":
		return FormatDocx, true
	case ".pdf":
		return FormatPDF, true
	}
	return "", false
}

// DetectFormat picks the container format from the file name, falling back
// to the leading bytes of the content.
func DetectFormat(name string, head []byte) (Format, error) {
	if format, ok := FormatFromExtension(name); ok {
		return format, nil
	}

	switch {
	case bytes.HasPrefix(head, zipMagic):
		return FormatDocx, nil
	case bytes.HasPrefix(head, pdfMagic):
		return FormatPDF, nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

package document

import (
	"fmt"
	"io"
	"os"
)

// Reader opens DOCX and PDF documents into the block model
type Reader struct {
	validator *Validator
}

// NewReader creates a new document reader with the specified size limit
func NewReader(maxFileSize int64) *Reader {
	return &Reader{
		validator: NewValidator(maxFileSize),
	}
}

// ReadFile validates and parses the document at path
func (r *Reader) ReadFile(path string) (*Document, error) {
	if err := r.validator.ValidateFile(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open file: %v", ErrInvalidFile, err)
	}
	defer f.Close()

	fileInfo, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot stat file: %v", ErrInvalidFile, err)
	}

	return r.Parse(f, fileInfo.Size(), path)
}

// Parse reads a document from random-access content such as an uploaded
// multipart file. name is only used for format detection and messages.
func (r *Reader) Parse(content io.ReaderAt, size int64, name string) (*Document, error) {
	if err := r.validator.ValidateSize(name, size); err != nil {
		return nil, err
	}

	head := make([]byte, len(pdfMagic))
	n, err := content.ReadAt(head, 0)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: read header: %v", ErrMalformed, err)
	}

	format, err := DetectFormat(name, head[:n])
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatDocx:
		return parseDocx(content, size, r.validator.maxFileSize*maxInflateRatio)
	case FormatPDF:
		return parsePDF(content, size)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

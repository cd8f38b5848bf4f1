package document

import "errors"

var (
	// ErrMalformed marks a document container that could not be parsed
	ErrMalformed = errors.New("malformed document")

	// ErrUnsupportedFormat marks a file that is neither DOCX nor PDF
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrInvalidFile marks a file rejected before parsing (missing, empty,
	// a directory or over the size limit)
	ErrInvalidFile = errors.New("invalid document file")
)

package document

import "strings"

// Format identifies a document container type
type Format string

const (
	FormatDocx Format = "docx"
	FormatPDF  Format = "pdf"
)

// Document is the ordered block structure of a parsed document
type Document struct {
	Format     Format
	Paragraphs []Paragraph
	Tables     []Table
	Sections   []Section
}

// Paragraph is a single body, header or footer paragraph. Text is kept raw;
// callers trim where they need to.
type Paragraph struct {
	Text string
}

// Table is a body-level table
type Table struct {
	Rows []Row
}

// Row holds one cell per grid column, so merged cells repeat
type Row struct {
	Cells []Cell
}

// Cell is a table cell
type Cell struct {
	Text string
}

// Section carries the header and footer paragraphs in effect for one
// document section
type Section struct {
	Header []Paragraph
	Footer []Paragraph
}

// TrimmedText returns the cell text without surrounding whitespace
func (c Cell) TrimmedText() string {
	return strings.TrimSpace(c.Text)
}

// TrimmedText returns the paragraph text without surrounding whitespace
func (p Paragraph) TrimmedText() string {
	return strings.TrimSpace(p.Text)
}

// HasText reports whether any paragraph carries non-blank text
func HasText(paragraphs []Paragraph) bool {
	for _, p := range paragraphs {
		if p.TrimmedText() != "" {
			return true
		}
	}
	return false
}

// Package flatten renders a document as numbered, labelled plain text for
// human review and substring code matching.
package flatten

import (
	"fmt"
	"strings"

	"github.com/a3tai/mcp-wers-reader/internal/document"
)

const cellSeparator = " | "

// Flatten returns the body paragraphs, tables and section headers/footers
// of doc as newline-joined text. Paragraph numbers count every body
// paragraph, including empty ones that are not emitted. Each table, header
// and footer block is preceded by a blank line and a marker line.
func Flatten(doc *document.Document) string {
	if doc == nil {
		return ""
	}

	var lines []string

	for i, para := range doc.Paragraphs {
		if para.TrimmedText() != "" {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, para.Text))
		}
	}

	for i, table := range doc.Tables {
		lines = append(lines, fmt.Sprintf("\nTable %d:", i+1))
		for _, row := range table.Rows {
			lines = append(lines, RowText(row, cellSeparator))
		}
	}

	for i, section := range doc.Sections {
		lines = appendBlock(lines, fmt.Sprintf("\nHeader Section %d:", i+1), section.Header)
		lines = appendBlock(lines, fmt.Sprintf("\nFooter Section %d:", i+1), section.Footer)
	}

	return strings.Join(lines, "\n")
}

// RowText joins the trimmed cell texts of row with sep. Empty cells still
// contribute an empty segment.
func RowText(row document.Row, sep string) string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.TrimmedText()
	}
	return strings.Join(cells, sep)
}

func appendBlock(lines []string, marker string, paragraphs []document.Paragraph) []string {
	if !document.HasText(paragraphs) {
		return lines
	}

	lines = append(lines, marker)
	for _, para := range paragraphs {
		if para.TrimmedText() != "" {
			lines = append(lines, para.Text)
		}
	}
	return lines
}

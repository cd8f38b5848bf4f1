// Package extract builds a code to description map from a document using an
// ordered chain of positional heuristics.
//
// Every pass offers text spans to the trailing-code pattern: a span such as
// "Power Moonroof - CJTAB" yields the code CJTAB described as
// "Power Moonroof". The default chain is
//
//	paragraphs   body paragraphs, note-stripped       overwrite
//	table-rows   cells of a row joined by one space   overwrite
//	table-cells  individual cells                     fill only
//
// so a code described in a paragraph or row keeps the last such description,
// and cells only describe codes nothing else has described.
package extract

import (
	"regexp"
	"strings"

	"github.com/a3tai/mcp-wers-reader/internal/document"
	"github.com/a3tai/mcp-wers-reader/internal/flatten"
)

var (
	// The code class admits '$' so that option codes such as MPV$ are
	// described. Code lists only ever carry [A-Z0-9]. The separator matches
	// Unicode spaces such as U+00A0 too.
	trailingCode = regexp.MustCompile(`^(.*?)[\s\p{Z}\x{85}]*([A-Z0-9$]{4,5})$`)
	notePattern  = regexp.MustCompile(`Note:.*$`)
)

const descriptionTrim = " -–"

// Policy decides what a pass does with a code that already has a description
type Policy int

const (
	// Overwrite replaces any earlier description
	Overwrite Policy = iota
	// FillOnly records a description only for codes not yet described
	FillOnly
)

func (p Policy) String() string {
	switch p {
	case Overwrite:
		return "overwrite"
	case FillOnly:
		return "fill-only"
	default:
		return "unknown"
	}
}

// Pass is one named heuristic. Spans returns the candidate texts of a
// document in source order.
type Pass struct {
	Name   string
	Policy Policy
	Spans  func(doc *document.Document) []string
}

// Apply runs the pass over doc, recording matches into descriptions
func (p Pass) Apply(doc *document.Document, descriptions map[string]string) {
	for _, span := range p.Spans(doc) {
		desc, code, ok := Match(span)
		if !ok {
			continue
		}
		if _, exists := descriptions[code]; exists && p.Policy == FillOnly {
			continue
		}
		descriptions[code] = desc
	}
}

// Chain is an ordered list of passes sharing one description map
type Chain []Pass

// DefaultChain returns the paragraph, table row and table cell passes
func DefaultChain() Chain {
	return Chain{ParagraphPass(), TableRowPass(), TableCellPass()}
}

// Run applies every pass in order and returns the resulting map
func (c Chain) Run(doc *document.Document) map[string]string {
	descriptions := make(map[string]string)
	if doc == nil {
		return descriptions
	}
	for _, pass := range c {
		pass.Apply(doc, descriptions)
	}
	return descriptions
}

// Descriptions runs the default chain over doc
func Descriptions(doc *document.Document) map[string]string {
	return DefaultChain().Run(doc)
}

// Match splits text into a description and its terminal 4-5 character code.
// ok is false when there is no terminal code or nothing describes it.
func Match(text string) (description, code string, ok bool) {
	m := trailingCode.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}

	description = strings.Trim(m[1], descriptionTrim)
	if description == "" {
		return "", "", false
	}
	return description, m[2], true
}

// StripNote removes a trailing "Note:" annotation and trims the rest
func StripNote(text string) string {
	return strings.TrimSpace(notePattern.ReplaceAllString(text, ""))
}

// ParagraphPass offers every non-empty body paragraph, note-stripped
func ParagraphPass() Pass {
	return Pass{
		Name:   "paragraphs",
		Policy: Overwrite,
		Spans: func(doc *document.Document) []string {
			var spans []string
			for _, para := range doc.Paragraphs {
				text := para.TrimmedText()
				if text == "" {
					continue
				}
				spans = append(spans, StripNote(text))
			}
			return spans
		},
	}
}

// TableRowPass offers each table row as its trimmed cells joined by a
// single space, note-stripped
func TableRowPass() Pass {
	return Pass{
		Name:   "table-rows",
		Policy: Overwrite,
		Spans: func(doc *document.Document) []string {
			var spans []string
			for _, table := range doc.Tables {
				for _, row := range table.Rows {
					if len(row.Cells) == 0 {
						continue
					}
					spans = append(spans, StripNote(flatten.RowText(row, " ")))
				}
			}
			return spans
		},
	}
}

// TableCellPass offers every trimmed table cell
func TableCellPass() Pass {
	return Pass{
		Name:   "table-cells",
		Policy: FillOnly,
		Spans: func(doc *document.Document) []string {
			var spans []string
			for _, table := range doc.Tables {
				for _, row := range table.Rows {
					for _, cell := range row.Cells {
						spans = append(spans, cell.TrimmedText())
					}
				}
			}
			return spans
		},
	}
}

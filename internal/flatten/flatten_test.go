package flatten

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/a3tai/mcp-wers-reader/internal/document"
)

func sampleDocument() *document.Document {
	return &document.Document{
		Format: document.FormatDocx,
		Paragraphs: []document.Paragraph{
			{Text: "Mustang Order Guide"},
			{Text: "   "},
			{Text: "Power Moonroof - CJTAB"},
		},
		Tables: []document.Table{
			{Rows: []document.Row{
				{Cells: []document.Cell{{Text: " Code "}, {Text: "Description"}}},
				{Cells: []document.Cell{{Text: "47B"}, {Text: ""}, {Text: "Over the Top Stripe Package"}}},
			}},
			{Rows: []document.Row{
				{Cells: []document.Cell{{Text: "ABCDE"}}},
			}},
		},
		Sections: []document.Section{
			{
				Header: []document.Paragraph{{Text: "Confidential"}, {Text: ""}},
				Footer: []document.Paragraph{{Text: "  "}},
			},
			{
				Header: []document.Paragraph{{Text: ""}},
				Footer: []document.Paragraph{{Text: "Page 2"}},
			},
		},
	}
}

func TestFlatten(t *testing.T) {
	want := "1. Mustang Order Guide\n" +
		"3. Power Moonroof - CJTAB\n" +
		"\n" +
		"Table 1:\n" +
		"Code | Description\n" +
		"47B |  | Over the Top Stripe Package\n" +
		"\n" +
		"Table 2:\n" +
		"ABCDE\n" +
		"\n" +
		"Header Section 1:\n" +
		"Confidential\n" +
		"\n" +
		"Footer Section 2:\n" +
		"Page 2"

	assert.Equal(t, want, Flatten(sampleDocument()))
}

func TestFlatten_Deterministic(t *testing.T) {
	doc := sampleDocument()
	first := Flatten(doc)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Flatten(doc))
	}
	assert.Equal(t, sampleDocument(), doc, "input must not be mutated")
}

func TestFlatten_Empty(t *testing.T) {
	assert.Equal(t, "", Flatten(nil))
	assert.Equal(t, "", Flatten(&document.Document{}))
}

func TestFlatten_ParagraphTextKeptVerbatim(t *testing.T) {
	doc := &document.Document{Paragraphs: []document.Paragraph{{Text: "  indented CJTAK "}}}
	assert.Equal(t, "1.   indented CJTAK ", Flatten(doc))
}

func TestRowText(t *testing.T) {
	row := document.Row{Cells: []document.Cell{{Text: "a "}, {Text: ""}, {Text: "\tb"}}}
	assert.Equal(t, "a | |b", RowText(row, " |"))
	assert.Equal(t, "a  b", RowText(row, " "))
	assert.Equal(t, "", RowText(document.Row{}, " | "))
}

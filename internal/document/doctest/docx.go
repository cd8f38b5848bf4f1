// Package doctest builds small .docx packages for tests.
package doctest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`

type part struct {
	name    string
	kind    string // "header" or "footer"
	relID   string
	content string
}

// Builder accumulates body blocks and section header/footer definitions
type Builder struct {
	body    strings.Builder
	parts   []part
	header  string
	footer  string
	partSeq int
}

// New returns an empty builder
func New() *Builder {
	return &Builder{}
}

// Paragraph appends a body paragraph with a single run
func (b *Builder) Paragraph(text string) *Builder {
	b.body.WriteString(paragraphXML(text))
	return b
}

// Table appends a body table, one slice of cell texts per row
func (b *Builder) Table(rows ...[]string) *Builder {
	b.body.WriteString("<w:tbl>")
	for _, row := range rows {
		b.body.WriteString("<w:tr>")
		for _, cell := range row {
			b.body.WriteString("<w:tc>" + paragraphXML(cell) + "</w:tc>")
		}
		b.body.WriteString("</w:tr>")
	}
	b.body.WriteString("</w:tbl>")
	return b
}

// Raw appends literal WordprocessingML to the body
func (b *Builder) Raw(fragment string) *Builder {
	b.body.WriteString(fragment)
	return b
}

// Header sets the default header of the current section
func (b *Builder) Header(lines ...string) *Builder {
	b.header = b.addPart("header", lines)
	return b
}

// Footer sets the default footer of the current section
func (b *Builder) Footer(lines ...string) *Builder {
	b.footer = b.addPart("footer", lines)
	return b
}

// SectionBreak closes the current section. Header and Footer calls after it
// apply to the next section; without them the next section inherits.
func (b *Builder) SectionBreak() *Builder {
	b.body.WriteString("<w:p><w:pPr>" + b.sectPr() + "</w:pPr></w:p>")
	b.header, b.footer = "", ""
	return b
}

// Bytes renders the package as a zip archive
func (b *Builder) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document ` + wordNS + `><w:body>` + b.body.String() + b.sectPr() + `</w:body></w:document>`

	var rels strings.Builder
	rels.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, p := range b.parts {
		fmt.Fprintf(&rels, `<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/%s" Target="%s"/>`,
			p.relID, p.kind, filepath.Base(p.name))
	}
	rels.WriteString(`</Relationships>`)

	files := []struct{ name, content string }{
		{"[Content_Types].xml", contentTypes},
		{"word/document.xml", document},
		{"word/_rels/document.xml.rels", rels.String()},
	}
	for _, p := range b.parts {
		files = append(files, struct{ name, content string }{p.name, p.content})
	}

	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", f.name, err)
		}
		if _, err := w.Write([]byte(f.content)); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders the package into dir/name and returns the full path
func (b *Builder) WriteFile(dir, name string) (string, error) {
	data, err := b.Bytes()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func (b *Builder) addPart(kind string, lines []string) string {
	b.partSeq++
	root := "hdr"
	if kind == "footer" {
		root = "ftr"
	}

	var content strings.Builder
	content.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?><w:` + root + ` ` + wordNS + `>`)
	for _, line := range lines {
		content.WriteString(paragraphXML(line))
	}
	content.WriteString(`</w:` + root + `>`)

	p := part{
		name:    fmt.Sprintf("word/%s%d.xml", kind, b.partSeq),
		kind:    kind,
		relID:   fmt.Sprintf("rId%d", 100+b.partSeq),
		content: content.String(),
	}
	b.parts = append(b.parts, p)
	return p.relID
}

func (b *Builder) sectPr() string {
	var s strings.Builder
	s.WriteString("<w:sectPr>")
	if b.header != "" {
		fmt.Fprintf(&s, `<w:headerReference w:type="default" r:id="%s"/>`, b.header)
	}
	if b.footer != "" {
		fmt.Fprintf(&s, `<w:footerReference w:type="default" r:id="%s"/>`, b.footer)
	}
	s.WriteString("</w:sectPr>")
	return s.String()
}

func paragraphXML(text string) string {
	if text == "" {
		return "<w:p/>"
	}
	return `<w:p><w:r><w:t xml:space="preserve">` + escape(text) + `</w:t></w:r></w:p>`
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

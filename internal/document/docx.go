package document

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

const (
	docxMainPart = "word/document.xml"
	docxRelsPart = "word/_rels/document.xml.rels"

	// maxInflateRatio bounds a decompressed part relative to the size limit
	// of the whole upload
	maxInflateRatio = 32
)

// xmlNode is a generic WordprocessingML element. Only local names are
// compared, so namespace prefixes never matter.
type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content []byte     `xml:",chardata"`
	Nodes   []xmlNode  `xml:",any"`
}

func (n *xmlNode) attr(local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func (n *xmlNode) child(local string) *xmlNode {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == local {
			return &n.Nodes[i]
		}
	}
	return nil
}

func (n *xmlNode) children(local string) []*xmlNode {
	var out []*xmlNode
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == local {
			out = append(out, &n.Nodes[i])
		}
	}
	return out
}

// docxPackage gives access to the parts of an opened .docx archive
type docxPackage struct {
	parts       map[string]*zip.File
	rels        map[string]string
	maxPartSize int64
}

// parseDocx reads body paragraphs, body tables and per-section headers and
// footers from a .docx archive. A part inflating past maxPartSize bytes is
// rejected as malformed; zero disables the limit.
func parseDocx(r io.ReaderAt, size, maxPartSize int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: open zip: %v", ErrMalformed, err)
	}

	pkg := &docxPackage{
		parts:       make(map[string]*zip.File, len(zr.File)),
		maxPartSize: maxPartSize,
	}
	for _, f := range zr.File {
		pkg.parts[f.Name] = f
	}

	if _, ok := pkg.parts[docxMainPart]; !ok {
		return nil, fmt.Errorf("%w: %s not found in archive", ErrMalformed, docxMainPart)
	}

	if err := pkg.loadRelationships(); err != nil {
		return nil, err
	}

	root, err := pkg.readPart(docxMainPart)
	if err != nil {
		return nil, err
	}

	body := root.child("body")
	if body == nil {
		return nil, fmt.Errorf("%w: document has no body", ErrMalformed)
	}

	doc := &Document{Format: FormatDocx}
	var sectPrs []*xmlNode

	for i := range body.Nodes {
		node := &body.Nodes[i]
		switch node.XMLName.Local {
		case "p":
			doc.Paragraphs = append(doc.Paragraphs, Paragraph{Text: paragraphText(node)})
			if pPr := node.child("pPr"); pPr != nil {
				if sectPr := pPr.child("sectPr"); sectPr != nil {
					sectPrs = append(sectPrs, sectPr)
				}
			}
		case "tbl":
			doc.Tables = append(doc.Tables, parseTable(node))
		case "sectPr":
			sectPrs = append(sectPrs, node)
		}
	}

	sections, err := pkg.resolveSections(sectPrs)
	if err != nil {
		return nil, err
	}
	doc.Sections = sections

	return doc, nil
}

// loadRelationships maps relationship ids of the main part to part names.
// A package without a relationships part simply has no headers or footers.
func (p *docxPackage) loadRelationships() error {
	p.rels = make(map[string]string)
	if _, ok := p.parts[docxRelsPart]; !ok {
		return nil
	}

	root, err := p.readPart(docxRelsPart)
	if err != nil {
		return err
	}

	for _, rel := range root.children("Relationship") {
		id, _ := rel.attr("Id")
		target, _ := rel.attr("Target")
		if id == "" || target == "" {
			continue
		}
		if strings.HasPrefix(target, "/") {
			p.rels[id] = strings.TrimPrefix(target, "/")
		} else {
			p.rels[id] = path.Join("word", target)
		}
	}
	return nil
}

func (p *docxPackage) readPart(name string) (*xmlNode, error) {
	f, ok := p.parts[name]
	if !ok {
		return nil, fmt.Errorf("%w: part %s not found in archive", ErrMalformed, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrMalformed, name, err)
	}
	defer rc.Close()

	var src io.Reader = rc
	var limited *io.LimitedReader
	if p.maxPartSize > 0 {
		limited = &io.LimitedReader{R: rc, N: p.maxPartSize + 1}
		src = limited
	}

	var root xmlNode
	err = xml.NewDecoder(src).Decode(&root)
	if limited != nil && limited.N <= 0 {
		return nil, fmt.Errorf("%w: part %s inflates past %d bytes", ErrMalformed, name, p.maxPartSize)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrMalformed, name, err)
	}
	return &root, nil
}

// resolveSections builds one Section per sectPr. A section without its own
// default header or footer inherits the previous section's.
func (p *docxPackage) resolveSections(sectPrs []*xmlNode) ([]Section, error) {
	sections := make([]Section, 0, len(sectPrs))
	var prevHeader, prevFooter []Paragraph

	for _, sectPr := range sectPrs {
		header, linked, err := p.headerFooter(sectPr, "headerReference")
		if err != nil {
			return nil, err
		}
		if linked {
			header = prevHeader
		}

		footer, linked, err := p.headerFooter(sectPr, "footerReference")
		if err != nil {
			return nil, err
		}
		if linked {
			footer = prevFooter
		}

		sections = append(sections, Section{Header: header, Footer: footer})
		prevHeader, prevFooter = header, footer
	}

	return sections, nil
}

// headerFooter returns the paragraphs of the default header or footer
// referenced by sectPr. linked is true when the section has no default
// reference of that kind.
func (p *docxPackage) headerFooter(sectPr *xmlNode, refName string) ([]Paragraph, bool, error) {
	for _, ref := range sectPr.children(refName) {
		if typ, ok := ref.attr("type"); ok && typ != "default" {
			continue
		}

		id, _ := ref.attr("id")
		partName, ok := p.rels[id]
		if !ok {
			return nil, false, fmt.Errorf("%w: unresolved %s relationship %q", ErrMalformed, refName, id)
		}

		root, err := p.readPart(partName)
		if err != nil {
			return nil, false, err
		}

		var paragraphs []Paragraph
		for _, para := range root.children("p") {
			paragraphs = append(paragraphs, Paragraph{Text: paragraphText(para)})
		}
		return paragraphs, false, nil
	}
	return nil, true, nil
}

// parseTable expands a w:tbl into rows holding one cell per grid column.
func parseTable(tbl *xmlNode) Table {
	var table Table
	var above []Cell

	for _, tr := range tbl.children("tr") {
		var cells []Cell
		for _, tc := range tr.children("tc") {
			text := cellText(tc)
			span := 1

			if tcPr := tc.child("tcPr"); tcPr != nil {
				if gs := tcPr.child("gridSpan"); gs != nil {
					if v, ok := gs.attr("val"); ok {
						if n, err := strconv.Atoi(v); err == nil && n > 1 {
							span = n
						}
					}
				}
				if vm := tcPr.child("vMerge"); vm != nil {
					if v, ok := vm.attr("val"); !ok || v == "continue" {
						if col := len(cells); col < len(above) {
							text = above[col].Text
						}
					}
				}
			}

			for i := 0; i < span; i++ {
				cells = append(cells, Cell{Text: text})
			}
		}
		table.Rows = append(table.Rows, Row{Cells: cells})
		above = cells
	}

	return table
}

func cellText(tc *xmlNode) string {
	paras := tc.children("p")
	texts := make([]string, 0, len(paras))
	for _, p := range paras {
		texts = append(texts, paragraphText(p))
	}
	return strings.Join(texts, "\n")
}

func paragraphText(p *xmlNode) string {
	var b strings.Builder
	writeRuns(&b, p)
	return b.String()
}

// writeRuns appends the text of every run reachable through inline
// containers. Deleted runs are skipped.
func writeRuns(b *strings.Builder, n *xmlNode) {
	for i := range n.Nodes {
		child := &n.Nodes[i]
		switch child.XMLName.Local {
		case "r":
			writeRun(b, child)
		case "hyperlink", "ins", "smartTag", "fldSimple", "customXml":
			writeRuns(b, child)
		}
	}
}

func writeRun(b *strings.Builder, r *xmlNode) {
	for i := range r.Nodes {
		switch r.Nodes[i].XMLName.Local {
		case "t":
			b.Write(r.Nodes[i].Content)
		case "tab", "ptab":
			b.WriteByte('\t')
		case "br":
			// page and column breaks carry no text
			if typ, ok := r.Nodes[i].attr("type"); !ok || typ == "textWrapping" {
				b.WriteByte('\n')
			}
		case "cr":
			b.WriteByte('\n')
		case "noBreakHyphen":
			b.WriteByte('-')
		}
	}
}

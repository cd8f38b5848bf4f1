package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// parsePDF turns every text line of every page into a body paragraph.
// PDFs carry no table or section structure in this model.
func parsePDF(r io.ReaderAt, size int64) (*Document, error) {
	if err := checkPDFContainer(r, size); err != nil {
		return nil, err
	}

	pdfReader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %v", ErrMalformed, err)
	}

	doc := &Document{Format: FormatPDF}
	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		text := pageText(pdfReader, pageNum)
		if text == "" {
			continue
		}
		for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
			doc.Paragraphs = append(doc.Paragraphs, Paragraph{Text: line})
		}
	}

	return doc, nil
}

// checkPDFContainer validates the cross-reference structure with pdfcpu
// before any text is extracted.
func checkPDFContainer(r io.ReaderAt, size int64) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(io.NewSectionReader(r, 0, size), conf)
	if err != nil {
		return fmt.Errorf("%w: read pdf context: %v", ErrMalformed, err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return fmt.Errorf("%w: page count: %v", ErrMalformed, err)
	}
	return nil
}

// pageText extracts the plain text of one page. Broken pages yield "".
func pageText(pdfReader *pdf.Reader, pageNum int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	page := pdfReader.Page(pageNum)
	if page.V.IsNull() {
		return ""
	}

	content, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return content
}

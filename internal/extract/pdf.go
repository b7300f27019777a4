// Package extract provides document text extraction for the ingestion
// pipeline. The PDF implementation operates on the extracted linear text
// stream; it makes no attempt at table or column layout recovery.
package extract

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// PDFDocument yields the text of a PDF statement page by page. It satisfies
// the statement.Document contract.
type PDFDocument struct {
	doc *fitz.Document
}

// OpenPDF opens a statement PDF from a local file path.
func OpenPDF(path string) (*PDFDocument, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("OpenPDF: opening %q: %w", path, err)
	}
	return &PDFDocument{doc: doc}, nil
}

// OpenPDFBytes opens a statement PDF from an in-memory byte slice, e.g. one
// fetched from object storage.
func OpenPDFBytes(data []byte) (*PDFDocument, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("OpenPDFBytes: opening document: %w", err)
	}
	return &PDFDocument{doc: doc}, nil
}

// PageCount returns the number of pages in the document.
func (p *PDFDocument) PageCount() int {
	return p.doc.NumPage()
}

// PageLines returns the ordered text lines of one page.
func (p *PDFDocument) PageLines(page int) ([]string, error) {
	text, err := p.doc.Text(page)
	if err != nil {
		return nil, fmt.Errorf("PageLines: extracting text from page %d: %w", page, err)
	}
	return strings.Split(text, "\n"), nil
}

// Close releases the underlying document resources.
func (p *PDFDocument) Close() error {
	if p.doc != nil {
		return p.doc.Close()
	}
	return nil
}

package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/tabgest/internal/tables"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser finds column-aligned tables in the text layer of a PDF, page by
// page. Scanned PDFs without a text layer yield no tables. When
// FallbackPdftotext is set and the Go reader fails, pdftotext -layout is
// tried.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) ([]tables.Table, error) {
	// ledongthuc/pdf opens by path, so spool to a temp file.
	tmp, err := os.CreateTemp("", "tabgest-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := extractPDFPages(tmpPath)
	if err != nil && p.FallbackPdftotext {
		pages, err = extractPdftotext(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	out := []tables.Table{}
	for i, page := range pages {
		found := layoutTables(textLines(page), fmt.Sprintf("Page %d", i+1), 1)
		out = append(out, found...)
	}
	return out, nil
}

func extractPDFPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func extractPdftotext(path string) ([]string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return strings.Split(string(out), "\f"), nil
}

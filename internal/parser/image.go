package parser

import (
	"fmt"
	"io"

	"github.com/dgallion1/tabgest/internal/ocr"
	"github.com/dgallion1/tabgest/internal/tables"
)

// wordGapFactor is the horizontal gap, in line heights, that separates two
// cells in a recognized line.
const wordGapFactor = 1.2

// ImageParser recognizes tables in page images through OCR.
type ImageParser struct {
	OCR     WordRecognizer
	Options ocr.Options
}

func (p *ImageParser) Parse(r io.Reader, filename string) ([]tables.Table, error) {
	if p.OCR == nil {
		return nil, ocr.ErrOCRNotEnabled
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	prepared, err := ocr.Preprocess(data, p.Options)
	if err != nil {
		return nil, fmt.Errorf("preprocess %s: %w", filename, err)
	}
	words, err := p.OCR.RecognizeWords(prepared)
	if err != nil {
		return nil, fmt.Errorf("ocr %s: %w", filename, err)
	}
	return layoutTables(ocr.Rows(words, wordGapFactor), baseName(filename), 1), nil
}

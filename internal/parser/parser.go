package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/tabgest/internal/ocr"
	"github.com/dgallion1/tabgest/internal/tables"
)

// Parser recovers tables from a document without any AI involvement.
type Parser interface {
	Parse(r io.Reader, filename string) ([]tables.Table, error)
}

// WordRecognizer is the OCR capability the image parser needs.
type WordRecognizer interface {
	RecognizeWords(image []byte) ([]ocr.Word, error)
}

// SupportedExtensions lists file extensions the recognizer can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
	".png":      true,
	".jpg":      true,
	".jpeg":     true,
	".tiff":     true,
	".tif":      true,
	".bmp":      true,
	".gif":      true,
	".webp":     true,
}

// Registry picks a parser per file type. OCR may be nil, in which case image
// files fail with ocr.ErrOCRNotEnabled.
type Registry struct {
	OCR         WordRecognizer
	Options     ocr.Options
	PDFFallback bool
}

var defaultRegistry = &Registry{Options: ocr.DefaultOptions}

// ForFile returns the parser for filename using a registry without OCR.
func ForFile(filename string) (Parser, error) {
	return defaultRegistry.ForFile(filename)
}

// ForFile returns the appropriate parser for a filename.
func (r *Registry) ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: r.PDFFallback}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".png", ".jpg", ".jpeg", ".tiff", ".tif", ".bmp", ".gif", ".webp":
		return &ImageParser{OCR: r.OCR, Options: r.Options}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// baseName strips the directory and extension from filename.
func baseName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

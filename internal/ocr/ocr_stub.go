//go:build !ocr

// Package ocr prepares page images and recognizes their text with Tesseract.
//
// This is the stub build used without the "ocr" tag: image preparation works,
// recognition returns ErrOCRNotEnabled. Rebuild with
//
//	go build -tags ocr
//
// to link gosseract.
package ocr

import "errors"

// ErrOCRNotEnabled is returned when recognition is requested but OCR support
// was not compiled in.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Client is the stub recognizer.
type Client struct{}

// New returns ErrOCRNotEnabled.
func New(language string) (*Client, error) {
	return nil, ErrOCRNotEnabled
}

// Close is safe to call on a nil client.
func (c *Client) Close() error {
	return nil
}

func (c *Client) RecognizeText(image []byte) (string, error) {
	return "", ErrOCRNotEnabled
}

func (c *Client) RecognizeWords(image []byte) ([]Word, error) {
	return nil, ErrOCRNotEnabled
}

//go:build ocr

// Package ocr prepares page images and recognizes their text with Tesseract
// through gosseract. Build with -tags ocr; Tesseract and its language data
// must be installed.
package ocr

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// ErrOCRNotEnabled is returned by the stub build. It is declared here as well
// so callers can match it regardless of build tags.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Client wraps a Tesseract handle. Tesseract handles are not safe for
// concurrent use, so calls are serialized.
type Client struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// New creates a client for the given language set, e.g. "eng" or "eng+deu".
func New(language string) (*Client, error) {
	client := gosseract.NewClient()
	if language != "" {
		if err := client.SetLanguage(strings.Split(language, "+")...); err != nil {
			client.Close()
			return nil, fmt.Errorf("set ocr language %q: %w", language, err)
		}
	}
	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// RecognizeText returns the plain text of an image.
func (c *Client) RecognizeText(image []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// RecognizeWords returns every recognized word with its bounding box.
func (c *Client) RecognizeWords(image []byte) ([]Word, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if err := c.client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		return nil, fmt.Errorf("set page seg mode: %w", err)
	}
	boxes, err := c.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("recognize words: %w", err)
	}
	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, Word{Text: strings.TrimSpace(b.Word), Box: b.Box})
	}
	return words, nil
}

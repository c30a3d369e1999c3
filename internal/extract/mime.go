package extract

import (
	"path/filepath"
	"strings"
)

var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".bmp":  "image/bmp",
	".gif":  "image/gif",
	".webp": "image/webp",
	".csv":  "text/csv",
	".html": "text/html",
	".htm":  "text/html",
	".md":   "text/markdown",
	".txt":  "text/plain",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// aiReadable lists the extensions the AI backend accepts as inline data.
var aiReadable = map[string]bool{
	".pdf": true, ".png": true, ".jpg": true, ".jpeg": true,
	".tiff": true, ".tif": true, ".bmp": true, ".gif": true, ".webp": true,
}

// MimeTypeFor returns the MIME type for filename's extension, or
// application/octet-stream when unknown.
func MimeTypeFor(filename string) string {
	if mt, ok := mimeTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return mt
	}
	return "application/octet-stream"
}

// IsAllowedExtension reports whether filename has an extension the service
// can process at all.
func IsAllowedExtension(filename string) bool {
	_, ok := mimeTypes[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// IsAIReadable reports whether the AI backend can read filename directly.
func IsAIReadable(filename string) bool {
	return aiReadable[strings.ToLower(filepath.Ext(filename))]
}

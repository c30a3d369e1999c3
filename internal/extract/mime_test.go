package extract

import "testing"

func TestMimeTypeFor(t *testing.T) {
	tests := map[string]string{
		"scan.PDF":     "application/pdf",
		"page.jpeg":    "image/jpeg",
		"page.JPG":     "image/jpeg",
		"fax.tif":      "image/tiff",
		"photo.webp":   "image/webp",
		"data.csv":     "text/csv",
		"archive.zip":  "application/octet-stream",
		"no-extension": "application/octet-stream",
	}
	for name, want := range tests {
		if got := MimeTypeFor(name); got != want {
			t.Errorf("MimeTypeFor(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestAllowedAndAIReadable(t *testing.T) {
	if !IsAllowedExtension("report.docx") {
		t.Error("docx should be allowed")
	}
	if IsAIReadable("report.docx") {
		t.Error("docx should not be sent to the AI backend")
	}
	if !IsAIReadable("scan.png") {
		t.Error("png should be AI readable")
	}
	if IsAllowedExtension("evil.exe") {
		t.Error("exe should not be allowed")
	}
}

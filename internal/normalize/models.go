package normalize

import (
	"strings"

	"claimaudit/internal/ingest"
)

// PageSource records where a page's text came from.
type PageSource string

const (
	SourceEmbedded PageSource = "embedded"
	SourceOCR      PageSource = "ocr"
	SourceNone     PageSource = "none"
)

// Page is one PDF page after the embedded/OCR decision.
type Page struct {
	Number       int        `json:"number"`
	Text         string     `json:"-"`
	Source       PageSource `json:"source"`
	OCRAttempted bool       `json:"ocr_attempted"`
	// OCRDegraded is set when OCR was needed but produced nothing usable.
	OCRDegraded bool `json:"ocr_degraded"`
}

// Document is the normalized text of one source file.
type Document struct {
	Name  string          `json:"name"`
	Kind  ingest.FileKind `json:"kind"`
	Text  string          `json:"-"`
	Pages []Page          `json:"pages,omitempty"`
	// Err holds the extraction error detail; the same detail is embedded
	// inline in Text so the audit trail shows it.
	Err string `json:"error,omitempty"`
}

// Image is an uploaded photo plus its auxiliary OCR text. Data is forwarded
// unchanged to the narrative collaborator and the fraud scorer.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
	Text        string
	OCRDegraded bool
}

// Result is the fan-in of every file in a package, in upload order.
type Result struct {
	Documents []Document
	Images    []Image
}

// CombinedText concatenates the normalized text of every file, photo OCR
// text included, in file-then-page order.
func (r Result) CombinedText() string {
	parts := make([]string, 0, len(r.Documents))
	for _, d := range r.Documents {
		if t := strings.TrimSpace(d.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

// ImageTexts returns the OCR text of each image in upload order.
func (r Result) ImageTexts() []string {
	out := make([]string, len(r.Images))
	for i, img := range r.Images {
		out[i] = img.Text
	}
	return out
}

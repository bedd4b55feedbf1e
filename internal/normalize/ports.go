package normalize

import "context"

// OCR turns a raster image into best-effort text. Implementations are
// treated as unreliable: their output is checked with LooksGarbled before use.
type OCR interface {
	Recognize(ctx context.Context, image []byte, contentType string) (string, error)
}

// Rasterizer renders a single PDF page (1-based) to PNG bytes for OCR.
// PageCount lets pages be OCRed when the text layer cannot be read at all.
type Rasterizer interface {
	RenderPage(ctx context.Context, pdf []byte, page int) ([]byte, error)
	PageCount(ctx context.Context, pdf []byte) (int, error)
}

// PageTextReader extracts the embedded text layer of each PDF page in order.
// On failure it returns the pages read so far along with the error.
type PageTextReader interface {
	PageTexts(pdf []byte) ([]string, error)
}

// Recorder receives normalization outcomes for metrics. Implementations must
// be safe for concurrent use.
type Recorder interface {
	ObserveFile(kind, outcome string)
	ObserveOCR(outcome string)
}

// Package raster renders PDF pages to PNG for OCR using MuPDF (go-fitz).
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

const defaultDPI = 200

// Fitz renders pages at a fixed DPI.
type Fitz struct {
	DPI float64
}

func New(dpi float64) *Fitz {
	if dpi <= 0 {
		dpi = defaultDPI
	}
	return &Fitz{DPI: dpi}
}

// PageCount reports how many pages MuPDF can open in data.
func (f *Fitz) PageCount(ctx context.Context, data []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return 0, fmt.Errorf("open pdf for page count: %w", err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// RenderPage renders a 1-based page number to PNG.
func (f *Fitz) RenderPage(ctx context.Context, data []byte, page int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf for render: %w", err)
	}
	defer doc.Close()

	if page < 1 || page > doc.NumPage() {
		return nil, fmt.Errorf("render page %d: out of range (1..%d)", page, doc.NumPage())
	}

	img, err := doc.ImageDPI(page-1, f.DPI)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page %d: %w", page, err)
	}
	return buf.Bytes(), nil
}

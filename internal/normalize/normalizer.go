// Package normalize converts every uploaded file into plain text: the PDF text
// layer with per-page OCR fallback, DOCX paragraphs, leniently decoded plain
// text, and OCR of photos. A failing file never aborts the package; its error
// is embedded inline in that file's text instead.
package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"claimaudit/internal/ingest"
)

const (
	defaultConcurrency = 4
	// defaultMinPageText is the trimmed length below which a PDF page's text
	// layer is considered missing and the page is sent to OCR.
	defaultMinPageText = 40
)

// Normalizer holds the collaborators used to turn files into text.
type Normalizer struct {
	ocr         OCR
	raster      Rasterizer
	pdf         PageTextReader
	recorder    Recorder
	logger      *slog.Logger
	concurrency int
	minPageText int
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithOCR enables OCR. Without it every OCR attempt is degraded.
func WithOCR(ocr OCR) Option {
	return func(n *Normalizer) {
		n.ocr = ocr
	}
}

// WithRasterizer enables rendering of PDF pages for OCR fallback.
func WithRasterizer(r Rasterizer) Option {
	return func(n *Normalizer) {
		n.raster = r
	}
}

// WithPageTextReader overrides the PDF text-layer reader.
func WithPageTextReader(r PageTextReader) Option {
	return func(n *Normalizer) {
		n.pdf = r
	}
}

func WithRecorder(r Recorder) Option {
	return func(n *Normalizer) {
		n.recorder = r
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// WithConcurrency bounds how many files are normalized at once.
func WithConcurrency(c int) Option {
	return func(n *Normalizer) {
		if c > 0 {
			n.concurrency = c
		}
	}
}

// WithMinPageText sets the text-layer length below which OCR is attempted.
func WithMinPageText(chars int) Option {
	return func(n *Normalizer) {
		if chars > 0 {
			n.minPageText = chars
		}
	}
}

func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		pdf:         PDFTextLayer{},
		logger:      slog.Default(),
		concurrency: defaultConcurrency,
		minPageText: defaultMinPageText,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// Normalize processes every file of the package concurrently and returns once
// all of them are done. Results keep upload order. It never fails: per-file
// errors are absorbed into the corresponding Document.
func (n *Normalizer) Normalize(ctx context.Context, pkg ingest.DocumentPackage) Result {
	docs := make([]Document, len(pkg.Files))
	images := make([]*Image, len(pkg.Files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.concurrency)
	for i, file := range pkg.Files {
		g.Go(func() error {
			docs[i], images[i] = n.NormalizeFile(gctx, file)
			return nil
		})
	}
	_ = g.Wait()

	result := Result{Documents: docs}
	for _, img := range images {
		if img != nil {
			result.Images = append(result.Images, *img)
		}
	}
	return result
}

// NormalizeFile converts a single file. The returned Image is non-nil for
// image files only.
func (n *Normalizer) NormalizeFile(ctx context.Context, file ingest.SourceFile) (doc Document, img *Image) {
	doc = Document{Name: file.Name(), Kind: file.Kind()}

	defer func() {
		if r := recover(); r != nil {
			doc = failed(doc, fmt.Errorf("panic: %v", r))
			n.observeFile(file.Kind(), "error")
		}
	}()

	var err error
	switch file.Kind() {
	case ingest.KindPDF:
		doc, err = n.normalizePDF(ctx, doc, file.Data())
	case ingest.KindDocx:
		doc.Text, err = DocxText(file.Data())
	case ingest.KindText:
		doc.Text, err = DecodeText(file.Data())
	case ingest.KindImage:
		img = n.normalizeImage(ctx, file)
		doc.Text = img.Text
	default:
		doc.Text = "skipped unsupported file: " + file.Name()
		n.observeFile(file.Kind(), "skipped")
		return doc, nil
	}

	if err != nil {
		n.logger.WarnContext(ctx, "file extraction failed",
			"file", file.Name(),
			"kind", file.Kind(),
			"error", err,
		)
		n.observeFile(file.Kind(), "error")
		return failed(doc, err), img
	}
	n.observeFile(file.Kind(), "ok")
	return doc, img
}

// failed keeps whatever text was recovered and appends an inline marker.
func failed(doc Document, err error) Document {
	doc.Err = err.Error()
	marker := fmt.Sprintf("[extraction error: %s]", doc.Err)
	if strings.TrimSpace(doc.Text) == "" {
		doc.Text = marker
	} else {
		doc.Text = doc.Text + "\n" + marker
	}
	return doc
}

func (n *Normalizer) normalizePDF(ctx context.Context, doc Document, data []byte) (Document, error) {
	texts, readErr := n.pdf.PageTexts(data)
	if readErr != nil && len(texts) == 0 {
		texts = n.blankPages(ctx, data, readErr)
	}

	var b strings.Builder
	for i, embedded := range texts {
		page := n.resolvePage(ctx, data, i+1, embedded)
		doc.Pages = append(doc.Pages, page)

		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "--- page %d ---\n", page.Number)
		b.WriteString(page.Text)
	}
	doc.Text = b.String()
	return doc, readErr
}

// blankPages returns one empty text layer per page the rasterizer can see,
// so an unreadable PDF still goes through OCR page by page.
func (n *Normalizer) blankPages(ctx context.Context, data []byte, readErr error) []string {
	if n.ocr == nil || n.raster == nil {
		return nil
	}
	count, err := n.raster.PageCount(ctx, data)
	if err != nil {
		n.logger.DebugContext(ctx, "page count failed", "error", err, "read_error", readErr)
		return nil
	}
	n.logger.DebugContext(ctx, "text layer unreadable, rendering pages for ocr", "pages", count, "read_error", readErr)
	return make([]string, count)
}

// resolvePage decides between the embedded text layer and OCR for one page.
// OCR is attempted only when the text layer is short or garbled; garbled OCR
// output is discarded and the page marked degraded.
func (n *Normalizer) resolvePage(ctx context.Context, data []byte, number int, embedded string) Page {
	page := Page{Number: number, Source: SourceNone}
	embeddedOK := usable(embedded)

	if embeddedOK && len(strings.TrimSpace(embedded)) >= n.minPageText {
		page.Text = strings.TrimSpace(embedded)
		page.Source = SourceEmbedded
		return page
	}

	page.OCRAttempted = true
	ocrText, ok := n.ocrPage(ctx, data, number)
	page.OCRDegraded = !ok

	switch {
	case ok && (!embeddedOK || len(ocrText) > len(strings.TrimSpace(embedded))):
		page.Text = ocrText
		page.Source = SourceOCR
	case embeddedOK:
		page.Text = strings.TrimSpace(embedded)
		page.Source = SourceEmbedded
	}
	return page
}

func (n *Normalizer) ocrPage(ctx context.Context, data []byte, number int) (string, bool) {
	if n.ocr == nil || n.raster == nil {
		n.observeOCR("disabled")
		return "", false
	}
	png, err := n.raster.RenderPage(ctx, data, number)
	if err != nil {
		n.logger.DebugContext(ctx, "page render failed", "page", number, "error", err)
		n.observeOCR("error")
		return "", false
	}
	return n.recognize(ctx, png, "image/png")
}

func (n *Normalizer) normalizeImage(ctx context.Context, file ingest.SourceFile) *Image {
	img := &Image{
		Name:        file.Name(),
		ContentType: file.ContentType(),
		Data:        file.Data(),
	}
	if n.ocr == nil {
		n.observeOCR("disabled")
		img.OCRDegraded = true
		return img
	}
	text, ok := n.recognize(ctx, file.Data(), file.ContentType())
	img.Text = text
	img.OCRDegraded = !ok
	return img
}

// recognize runs OCR and applies the garble check. An OCR failure is not an
// error for the caller; the text is simply absent.
func (n *Normalizer) recognize(ctx context.Context, data []byte, contentType string) (string, bool) {
	text, err := n.ocr.Recognize(ctx, data, contentType)
	if err != nil {
		n.logger.DebugContext(ctx, "ocr failed", "error", err)
		n.observeOCR("error")
		return "", false
	}
	text = strings.TrimSpace(text)
	if !usable(text) {
		n.observeOCR("discarded")
		return "", false
	}
	n.observeOCR("ok")
	return text, true
}

func (n *Normalizer) observeFile(kind ingest.FileKind, outcome string) {
	if n.recorder != nil {
		n.recorder.ObserveFile(string(kind), outcome)
	}
}

func (n *Normalizer) observeOCR(outcome string) {
	if n.recorder != nil {
		n.recorder.ObserveOCR(outcome)
	}
}

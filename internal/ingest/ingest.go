// Package ingest turns uploaded files into SourceFiles whose kind is resolved
// exactly once, at ingestion. Downstream stages switch on Kind and never look
// at the filename again.
package ingest

import (
	"mime"
	"path/filepath"
	"strings"
)

// FileKind is the declared format of an uploaded file.
type FileKind string

const (
	KindImage       FileKind = "image"
	KindPDF         FileKind = "pdf"
	KindDocx        FileKind = "docx"
	KindText        FileKind = "text"
	KindUnsupported FileKind = "unsupported"
)

func (k FileKind) String() string {
	return string(k)
}

// SourceFile is one uploaded file. Fields are unexported so the kind cannot be
// re-derived or mutated after NewSourceFile.
type SourceFile struct {
	name        string
	contentType string
	kind        FileKind
	data        []byte
}

// NewSourceFile resolves the kind from the filename extension, falling back to
// the declared content type when the extension is unknown.
func NewSourceFile(name, contentType string, data []byte) SourceFile {
	return SourceFile{
		name:        name,
		contentType: contentType,
		kind:        ResolveKind(name, contentType),
		data:        data,
	}
}

func (f SourceFile) Name() string        { return f.name }
func (f SourceFile) ContentType() string { return f.contentType }
func (f SourceFile) Kind() FileKind      { return f.kind }
func (f SourceFile) Data() []byte        { return f.data }
func (f SourceFile) Size() int           { return len(f.data) }

var extensionKinds = map[string]FileKind{
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".gif":  KindImage,
	".webp": KindImage,
	".bmp":  KindImage,
	".tif":  KindImage,
	".tiff": KindImage,
	".heic": KindImage,
	".pdf":  KindPDF,
	".docx": KindDocx,
	".txt":  KindText,
	".text": KindText,
	".csv":  KindText,
	".md":   KindText,
	".log":  KindText,
}

var contentTypeKinds = map[string]FileKind{
	"application/pdf": KindPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": KindDocx,
	"text/plain": KindText,
	"text/csv":   KindText,
}

// ResolveKind maps a filename and content type onto a FileKind.
func ResolveKind(name, contentType string) FileKind {
	if kind, ok := extensionKinds[strings.ToLower(filepath.Ext(name))]; ok {
		return kind
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return KindUnsupported
	}
	mediaType = strings.ToLower(mediaType)
	if kind, ok := contentTypeKinds[mediaType]; ok {
		return kind
	}
	if strings.HasPrefix(mediaType, "image/") {
		return KindImage
	}
	return KindUnsupported
}

// DocumentPackage is the ordered set of files submitted for one review.
type DocumentPackage struct {
	FileNumber string
	Files      []SourceFile
}

// Images returns the image files in upload order.
func (p DocumentPackage) Images() []SourceFile {
	var out []SourceFile
	for _, f := range p.Files {
		if f.kind == KindImage {
			out = append(out, f)
		}
	}
	return out
}

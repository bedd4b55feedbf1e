package fraud

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"time"

	"github.com/corona10/goimagehash"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

// ErrNoCaptureTime is returned when an image carries no capture timestamp.
var ErrNoCaptureTime = errors.New("no capture timestamp")

// Fingerprinter computes a content-based hash of an encoded image.
type Fingerprinter interface {
	Fingerprint(data []byte) (uint64, error)
}

// CaptureTimeReader reads when a photo was taken from its metadata.
// Implementations return an error wrapping ErrNoCaptureTime when the
// metadata is absent.
type CaptureTimeReader interface {
	CaptureTime(data []byte) (time.Time, error)
}

// PerceptualHasher fingerprints images with a 64-bit DCT perceptual hash,
// so re-encoded or resized copies of a photo collide.
type PerceptualHasher struct{}

func (PerceptualHasher) Fingerprint(data []byte) (uint64, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("decode image: %w", err)
	}
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, fmt.Errorf("perceptual hash: %w", err)
	}
	return hash.GetHash(), nil
}

// EXIFReader reads DateTimeOriginal, falling back to DateTime.
type EXIFReader struct{}

func (EXIFReader) CaptureTime(data []byte) (time.Time, error) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrNoCaptureTime, err)
	}
	t, err := x.DateTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrNoCaptureTime, err)
	}
	return t, nil
}

package fraud

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeHasher returns the hash registered for each payload.
type fakeHasher map[string]uint64

func (f fakeHasher) Fingerprint(data []byte) (uint64, error) {
	h, ok := f[string(data)]
	if !ok {
		return 0, errors.New("unknown format")
	}
	return h, nil
}

// fakeCapture returns the capture time registered for each payload.
type fakeCapture map[string]time.Time

func (f fakeCapture) CaptureTime(data []byte) (time.Time, error) {
	t, ok := f[string(data)]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: no exif segment", ErrNoCaptureTime)
	}
	return t, nil
}

func newTestScorer(h fakeHasher, c fakeCapture) *Scorer {
	return NewScorer(
		WithFingerprinter(h),
		WithCaptureTimeReader(c),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func recent() time.Time { return now.AddDate(0, -2, 0) }

func signalOf(a Assessment, kind SignalKind) (Signal, bool) {
	for _, s := range a.Signals {
		if s.Kind == kind {
			return s, true
		}
	}
	return Signal{}, false
}

func TestScoreDuplicatePhoto(t *testing.T) {
	h := fakeHasher{"a": 0xAAAA, "b": 0xAAAA, "c": 0xBBBB}
	c := fakeCapture{"a": recent(), "b": recent(), "c": recent()}
	s := newTestScorer(h, c)

	a := s.Score(Input{
		Images: []ImageInput{{Name: "front.jpg", Data: []byte("a")}, {Name: "front-copy.jpg", Data: []byte("b")}, {Name: "rear.jpg", Data: []byte("c")}},
		Now:    now,
	})

	sig, ok := signalOf(a, SignalDuplicatePhoto)
	require.True(t, ok)
	assert.Equal(t, 40, sig.Weight)
	assert.Equal(t, 40, a.Score)
	assert.Equal(t, RiskModerate, a.Risk)
	assert.Equal(t, []string{"Duplicate photo detected: front-copy.jpg"}, a.Issues)
	assert.Len(t, a.Fingerprints, 3)
}

func TestScoreDuplicateCountsOnce(t *testing.T) {
	h := fakeHasher{"a": 1, "b": 1, "c": 1}
	c := fakeCapture{"a": recent(), "b": recent(), "c": recent()}

	a := newTestScorer(h, c).Score(Input{
		Images: []ImageInput{{Name: "1", Data: []byte("a")}, {Name: "2", Data: []byte("b")}, {Name: "3", Data: []byte("c")}},
		Now:    now,
	})
	assert.Equal(t, 40, a.Score)
	assert.Len(t, a.Issues, 2)
}

func TestScoreMetadataIrregularity(t *testing.T) {
	h := fakeHasher{"a": 1, "b": 2, "c": 3}

	tests := []struct {
		name      string
		capture   fakeCapture
		wantFired bool
		wantIssue string
	}{
		{
			name:      "single image without exif does not fire",
			capture:   fakeCapture{"b": recent(), "c": recent()},
			wantIssue: "Missing EXIF data: a.jpg",
		},
		{
			name:      "two images without exif fire",
			capture:   fakeCapture{"c": recent()},
			wantFired: true,
			wantIssue: "Missing EXIF data: b.jpg",
		},
		{
			name:      "one missing and one out of window fire",
			capture:   fakeCapture{"b": time.Date(2012, 5, 4, 10, 0, 0, 0, time.UTC), "c": recent()},
			wantFired: true,
			wantIssue: "Suspicious timestamp in b.jpg: 2012:05:04 10:00:00",
		},
		{
			name:      "future capture year is out of window",
			capture:   fakeCapture{"a": time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC), "b": recent()},
			wantFired: true,
			wantIssue: "Suspicious timestamp in a.jpg: 2031:01:01 00:00:00",
		},
		{
			name:      "edge of window is accepted",
			capture:   fakeCapture{"a": time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), "b": recent(), "c": recent()},
			wantFired: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestScorer(h, tt.capture).Score(Input{
				Images: []ImageInput{{Name: "a.jpg", Data: []byte("a")}, {Name: "b.jpg", Data: []byte("b")}, {Name: "c.jpg", Data: []byte("c")}},
				Now:    now,
			})
			sig, fired := signalOf(a, SignalMetadata)
			assert.Equal(t, tt.wantFired, fired)
			if fired {
				assert.Equal(t, 30, sig.Weight)
			}
			if tt.wantIssue != "" {
				assert.Contains(t, a.Issues, tt.wantIssue)
			}
		})
	}
}

func TestScoreUnreadableImageIsInformational(t *testing.T) {
	a := newTestScorer(fakeHasher{}, fakeCapture{}).Score(Input{
		Images: []ImageInput{{Name: "broken.heic", Data: []byte("??")}},
		Now:    now,
	})

	sig, ok := signalOf(a, SignalUnreadableImage)
	require.True(t, ok)
	assert.Zero(t, sig.Weight)
	assert.Zero(t, a.Score)
	assert.Equal(t, RiskLow, a.Risk)
	assert.Equal(t, []string{"Unreadable image: broken.heic"}, a.Issues)
	assert.Empty(t, a.Flags())
}

func TestScoreSuspiciousTerms(t *testing.T) {
	s := newTestScorer(fakeHasher{}, fakeCapture{})

	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "none", text: "Front bumper replaced, paint blended.", want: 0},
		{name: "one term", text: "Invoice looks edited near the total.", want: 15},
		{name: "stem matches inflections", text: "Potentially fraudulent invoice; FRAUD unit notified.", want: 15},
		{name: "two distinct terms", text: "Photo appears photoshopped and the date was altered.", want: 30},
		{name: "substring of another word does not match", text: "The fakery-free unedited photos.", want: 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := s.Score(Input{CombinedText: tt.text, Now: now})
			sig, _ := signalOf(a, SignalSuspiciousTerm)
			assert.Equal(t, tt.want, sig.Weight)
			assert.Equal(t, tt.want, a.Score)
		})
	}
}

func TestScoreClaimNumberMismatch(t *testing.T) {
	s := newTestScorer(fakeHasher{}, fakeCapture{})

	t.Run("three distinct tokens", func(t *testing.T) {
		text := "Claim Number: CLM-100200\nEstimate for claim # CLM-100300\nSupplement ref CLM-100400"
		a := s.Score(Input{CombinedText: text, Now: now})

		sig, ok := signalOf(a, SignalClaimMismatch)
		require.True(t, ok)
		assert.Equal(t, 20, sig.Weight)
		assert.Contains(t, sig.Description, "3 different claim numbers")
	})

	t.Run("repeated identical token", func(t *testing.T) {
		text := "Claim Number: CLM-100200\nCLM 100200 page 2\nclaim no. clm-100200"
		a := s.Score(Input{CombinedText: text, ReferenceClaim: "CLM-100200", Now: now})
		_, ok := signalOf(a, SignalClaimMismatch)
		assert.False(t, ok)
	})

	t.Run("disagrees with reference", func(t *testing.T) {
		a := s.Score(Input{CombinedText: "Claim ID: 7781234", ReferenceClaim: "7781299", Now: now})
		sig, ok := signalOf(a, SignalClaimMismatch)
		require.True(t, ok)
		assert.Equal(t, 25, sig.Weight)
	})

	t.Run("conflict and reference take the larger weight", func(t *testing.T) {
		a := s.Score(Input{CombinedText: "Claim #: CLM-5550001\nCLM-5550002", ReferenceClaim: "CLM-5550001", Now: now})
		sig, ok := signalOf(a, SignalClaimMismatch)
		require.True(t, ok)
		assert.Equal(t, 25, sig.Weight)
		assert.Equal(t, 25, a.Score)
	})

	t.Run("labels without numbers are ignored", func(t *testing.T) {
		a := s.Score(Input{CombinedText: "Claim Number: pending\nClaim notes follow", Now: now})
		_, ok := signalOf(a, SignalClaimMismatch)
		assert.False(t, ok)
	})
}

func TestApplyNarrative(t *testing.T) {
	s := newTestScorer(fakeHasher{}, fakeCapture{})
	base := s.Score(Input{CombinedText: "Invoice was edited.", Now: now})
	require.Equal(t, 15, base.Score)

	tests := []struct {
		name      string
		narrative string
		want      int
	}{
		{name: "no hedges", narrative: "All photos consistent with the estimate.", want: 15},
		{name: "negated hedge", narrative: "No duplicate photos were found, not suspicious, not inconsistent.", want: 15},
		{name: "one hedge", narrative: "Two photos look like duplicates of each other.", want: 25},
		{name: "two hedges", narrative: "Suspicious mileage; odometer photo appears tampered.", want: 35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.ApplyNarrative(base, tt.narrative)
			assert.Equal(t, tt.want, got.Score)
			assert.Equal(t, 15, base.Score, "input assessment must not change")
		})
	}
}

func TestScoreIsClampedAndLabelled(t *testing.T) {
	h := fakeHasher{"a": 1, "b": 1, "c": 2}
	a := newTestScorer(h, fakeCapture{}).Score(Input{
		CombinedText:   "fake and forged documents. Claim #: CLM-1000001 and CLM-1000002",
		Images:         []ImageInput{{Name: "a", Data: []byte("a")}, {Name: "b", Data: []byte("b")}, {Name: "c", Data: []byte("c")}},
		ReferenceClaim: "CLM-1000001",
		Now:            now,
	})
	// 40 + 30 + 30 + 25 before clamping
	assert.Equal(t, 100, a.Score)
	assert.Equal(t, RiskHigh, a.Risk)
	assert.ElementsMatch(t, []string{"duplicate_photo", "metadata_irregularity", "suspicious_term", "claim_number_mismatch"}, a.Flags())
}

func TestRiskFor(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, RiskLow, cfg.RiskFor(39))
	assert.Equal(t, RiskModerate, cfg.RiskFor(40))
	assert.Equal(t, RiskModerate, cfg.RiskFor(69))
	assert.Equal(t, RiskHigh, cfg.RiskFor(70))
}

func TestPerceptualHasherMatchesIdenticalImages(t *testing.T) {
	img := gradientPNG(t)

	h1, err := PerceptualHasher{}.Fingerprint(img)
	require.NoError(t, err)
	h2, err := PerceptualHasher{}.Fingerprint(bytes.Clone(img))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	_, err = PerceptualHasher{}.Fingerprint([]byte("not an image"))
	assert.Error(t, err)
}

func TestEXIFReaderReportsMissingMetadata(t *testing.T) {
	_, err := EXIFReader{}.CaptureTime(gradientPNG(t))
	assert.ErrorIs(t, err, ErrNoCaptureTime)
}

func gradientPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x*4 + y*2) % 256)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

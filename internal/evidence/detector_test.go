package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectNoSourcesReportsAllMissing(t *testing.T) {
	report := NewDetector().Detect("", nil)
	assert.Equal(t, []Requirement{FourCorners, Odometer, VIN, LicensePlate}, report.Missing)
	assert.Empty(t, report.Confirmed)
	assert.Equal(t, "MISSING PHOTOS: four corners, odometer, vin, license plate", report.Hints())
}

func TestDetectUnionAcrossSources(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name       string
		text       string
		images     []string
		satisfied  Requirement
		stillEmpty bool
	}{
		{name: "odometer keyword in text", text: "Odometer photo attached", satisfied: Odometer},
		{name: "odometer units in one image", images: []string{"", "45,210 miles"}, satisfied: Odometer},
		{name: "km reading", images: []string{"ODO 120500 km"}, satisfied: Odometer},
		{name: "vin in combined text", text: "VIN: 1HGCM82633A004352", satisfied: VIN},
		{name: "vin in a single image", images: []string{"nothing here", "1FTFW1ET5DFC10312"}, satisfied: VIN},
		{name: "plate keyword", images: []string{"License plate visible"}, satisfied: LicensePlate},
		{name: "plate token", images: []string{"ABC-1234"}, satisfied: LicensePlate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := d.Detect(tt.text, tt.images)
			assert.False(t, report.IsMissing(tt.satisfied), "%s should be satisfied", tt.satisfied)
		})
	}
}

func TestDetectVINRejectsLookalikes(t *testing.T) {
	d := NewDetector()

	// 17 digits, no letters.
	assert.True(t, d.Detect("Claim ref 12345678901234567", nil).IsMissing(VIN))
	// contains the excluded letter O.
	assert.True(t, d.Detect("1HGCM82633O004352", nil).IsMissing(VIN))
	// lowercase is not a VIN token.
	assert.True(t, d.Detect("1hgcm82633a004352", nil).IsMissing(VIN))
}

func TestDetectFourCornersCountsDistinctCornersAcrossSources(t *testing.T) {
	d := NewDetector()

	t.Run("one corner is not enough", func(t *testing.T) {
		report := d.Detect("", []string{"front left", "FRONT-LEFT again"})
		assert.True(t, report.IsMissing(FourCorners))
		assert.Equal(t, []Corner{FrontLeft}, report.Corners)
	})

	t.Run("two corners in different images", func(t *testing.T) {
		report := d.Detect("", []string{"front left", "rear right"})
		assert.False(t, report.IsMissing(FourCorners))
	})

	t.Run("one corner in text plus one in an image", func(t *testing.T) {
		report := d.Detect("photo of the left rear quarter", []string{"passenger front"})
		assert.False(t, report.IsMissing(FourCorners))
		assert.ElementsMatch(t, []Corner{RearLeft, FrontRight}, report.Corners)
	})

	t.Run("threshold is configurable", func(t *testing.T) {
		report := NewDetector(WithMinCorners(4)).Detect("front left, front right, rear left", nil)
		assert.True(t, report.IsMissing(FourCorners))
	})
}

func TestDetectAllPresent(t *testing.T) {
	images := []string{
		"front left",
		"front right",
		"rear left",
		"rear right",
		"ODOMETER 45,210 MI",
		"VIN 1HGCM82633A004352",
		"license plate 7ABC123",
	}
	report := NewDetector().Detect("Body Labor Rate: $55/hr", images)
	assert.Empty(t, report.Missing)
	assert.Empty(t, report.Hints())
}

func TestDetectConfirmationsAreHintsNotFailures(t *testing.T) {
	report := NewDetector().Detect("Attached: Advisor Report and CCC ONE total loss valuation", nil)

	assert.Equal(t, []Requirement{AdvisorReport, ValuationDocument}, report.Confirmed)
	assert.NotContains(t, report.Missing, AdvisorReport)
	assert.Contains(t, report.Hints(), "CONFIRMED DOCUMENTS: advisor report, valuation document")
}

func TestDetectExtraKeywords(t *testing.T) {
	d := NewDetector(WithExtraKeywords(map[Requirement][]string{Odometer: {"cluster reading"}}))
	assert.False(t, d.Detect("instrument cluster reading photo", nil).IsMissing(Odometer))
}

func TestIsVIN(t *testing.T) {
	assert.True(t, IsVIN("1HGCM82633A004352"))
	assert.False(t, IsVIN("1HGCM82633A00435"))
	assert.False(t, IsVIN("ABCDEFGHJKLMNPRST"))
}

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const narrative = `## Claim Review

**Claim Number:** CLM-204331
**VIN:** 1HGCM82633A004352
**Year:** 2024
**Make:** Honda
**Model:** Accord
**Mileage:** 45,210 miles

Summary: four corner photos present, odometer missing.

Compliance Score: 85%
`

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		label string
		text  string
		want  string
	}{
		{name: "colon separator", label: "Make", text: "Make: Toyota", want: "Toyota"},
		{name: "dash separator", label: "Make", text: "Make - Toyota", want: "Toyota"},
		{name: "hash separator", label: "Claim", text: "Claim # 55-1020", want: "55-1020"},
		{name: "equals separator", label: "Model", text: "model = Camry", want: "Camry"},
		{name: "case insensitive label", label: "MAKE", text: "make: Ford", want: "Ford"},
		{name: "markdown emphasis", label: "Make", text: "**Make:** `Subaru`", want: "Subaru"},
		{name: "captures to end of line", label: "Model", text: "Model: F-150 XLT\nYear: 2022", want: "F-150 XLT"},
		{name: "label inside a word is ignored", label: "VIN", text: "KEVIN: hello", want: NotAvailable},
		{name: "missing label", label: "Make", text: "nothing here", want: NotAvailable},
		{name: "empty value", label: "Make", text: "Make:   \nModel: X", want: NotAvailable},
		{name: "empty text", label: "Make", text: "", want: NotAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.label, tt.text))
		})
	}
}

func TestExtractPluralityVote(t *testing.T) {
	t.Run("most frequent value wins", func(t *testing.T) {
		text := "Make: Honda\nMake: Acura\nMake: Honda"
		assert.Equal(t, "Honda", Extract("Make", text))
	})

	t.Run("ties go to the first occurrence", func(t *testing.T) {
		text := "Make: Acura\nMake: Honda\nMake: Honda\nMake: Acura"
		assert.Equal(t, "Acura", Extract("Make", text))
	})
}

func TestExtractIsIdempotent(t *testing.T) {
	e := NewExtractor()
	first := e.ExtractAll(narrative)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, e.ExtractAll(narrative))
		assert.Equal(t, Extract("Make", narrative), Extract("Make", narrative))
	}
}

func TestExtractAll(t *testing.T) {
	fields := NewExtractor().ExtractAll(narrative)

	assert.Equal(t, Fields{
		FieldClaimNumber:     "CLM-204331",
		FieldVIN:             "1HGCM82633A004352",
		FieldYear:            "2024",
		FieldMake:            "Honda",
		FieldModel:           "Accord",
		FieldMileage:         "45,210",
		FieldComplianceScore: "85%",
	}, fields)

	year, ok := fields.Year()
	assert.True(t, ok)
	assert.Equal(t, 2024, year)
}

func TestExtractAllDomainOverrides(t *testing.T) {
	e := NewExtractor()

	t.Run("vin capture that fails the alphabet falls back to grammar", func(t *testing.T) {
		text := "VIN: not visible in photos\nDecoded from door jamb label 1FTFW1ET5DFC10312."
		assert.Equal(t, "1FTFW1ET5DFC10312", e.ExtractAll(text).Get(FieldVIN))
	})

	t.Run("invalid plurality vin loses to a valid capture", func(t *testing.T) {
		text := "VIN: 1HGCM82633O004352\nVIN: 1HGCM82633O004352\nVIN: 1HGCM82633A004352"
		assert.Equal(t, "1HGCM82633A004352", e.ExtractAll(text).Get(FieldVIN))
	})

	t.Run("vin with trailing notes", func(t *testing.T) {
		assert.Equal(t, "1HGCM82633A004352", e.ExtractAll("VIN: 1hgcm82633a004352 (verified)").Get(FieldVIN))
	})

	t.Run("no vin anywhere", func(t *testing.T) {
		assert.Equal(t, NotAvailable, e.ExtractAll("VIN: unknown").Get(FieldVIN))
	})

	t.Run("compliance percentage in prose", func(t *testing.T) {
		text := "Overall the estimate meets a compliance level of roughly 72% against client rules."
		assert.Equal(t, "72%", e.ExtractAll(text).Get(FieldComplianceScore))
	})

	t.Run("compliance score forms", func(t *testing.T) {
		tests := []struct {
			name string
			text string
			want string
		}{
			{"issue count after label is not a score", "Compliance: partially compliant, 2 issues found\nOverall compliance is 90% of policy.", "90%"},
			{"requirement ratio before the percentage", "Compliance Score: 4 of 5 requirements met (80%)", "80%"},
			{"out of one hundred", "Compliance Score: 92/100", "92%"},
			{"bare number", "Compliance Score: 88", "88%"},
			{"label without a figure", "Compliance: partially compliant, 2 issues found", NotAvailable},
			{"over one hundred", "Compliance Score: 140%", NotAvailable},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.Equal(t, tt.want, e.ExtractAll(tt.text).Get(FieldComplianceScore))
			})
		}
	})

	t.Run("year label with prose", func(t *testing.T) {
		fields := e.ExtractAll("Model Year: approx. 2019 (per registration)")
		assert.Equal(t, "2019", fields.Get(FieldYear))
	})
}

func TestExtractAllNeverFails(t *testing.T) {
	fields := NewExtractor().ExtractAll("")
	for _, spec := range DefaultFields() {
		assert.Equal(t, NotAvailable, fields.Get(spec.Name), spec.Name)
	}
	_, ok := fields.Year()
	assert.False(t, ok)
}

package reconcile

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimaudit/internal/evidence"
)

var now = time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)

const laborText = "Body Labor Rate: $55/hr"

func newReconciler(t *testing.T, opts ...Option) *Reconciler {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	r, err := New(opts...)
	require.NoError(t, err)
	return r
}

func points(res Result) []string {
	var rules []string
	for _, d := range res.Deductions {
		rules = append(rules, d.Rule)
	}
	return rules
}

func TestReconcileScenarios(t *testing.T) {
	r := newReconciler(t)

	t.Run("labor present, evidence complete, baseline 90", func(t *testing.T) {
		res := r.Reconcile(Input{Baseline: 90, CombinedText: laborText, Now: now})
		assert.Empty(t, res.Deductions)
		// no local rule fired, so the consistency override applies
		assert.Equal(t, 100, res.Final)
		assert.True(t, res.OverrideApplied)
	})

	t.Run("labor present, baseline 90, override disabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ConsistencyOverride = false
		res := newReconciler(t, WithConfig(cfg)).Reconcile(Input{Baseline: 90, CombinedText: laborText, Now: now})
		assert.Equal(t, 90, res.Final)
		assert.False(t, res.OverrideApplied)
	})

	t.Run("no labor rate anywhere, baseline 100", func(t *testing.T) {
		res := r.Reconcile(Input{Baseline: 100, CombinedText: "Parts: bumper cover $420.00", Now: now})
		require.Len(t, res.Deductions, 1)
		assert.Equal(t, RuleLaborRate, res.Deductions[0].Rule)
		assert.Equal(t, -50, res.Deductions[0].Points)
		assert.Equal(t, 50, res.Final)
	})

	t.Run("consistency override", func(t *testing.T) {
		res := r.Reconcile(Input{Baseline: 85, CombinedText: laborText, Now: now})
		assert.Equal(t, 100, res.Final)
		assert.Equal(t, 85, res.Baseline)
	})

	t.Run("override does not apply once a rule fires", func(t *testing.T) {
		res := r.Reconcile(Input{Baseline: 85, Missing: []evidence.Requirement{evidence.VIN}, CombinedText: laborText, Now: now})
		assert.Equal(t, 60, res.Final)
		assert.False(t, res.OverrideApplied)
	})
}

func TestReconcileLaborRuleIsNotProrated(t *testing.T) {
	r := newReconciler(t)

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "body rate", text: "Body Labor Rate: $55/hr", want: true},
		{name: "paint only", text: "Refinish labor 48.00 per hour", want: true},
		{name: "mechanical only", text: "Mech rate $120", want: true},
		{name: "structural only", text: "Frame labor: 70.00/hr", want: true},
		{name: "category without figure", text: "Body labor rate to be confirmed", want: false},
		{name: "figure without labor word", text: "Body side molding 2 @ $35", want: false},
		{name: "labor without category", text: "Labor rate: $55/hr", want: false},
		{name: "split across lines", text: "Body\nLabor rate: 55", want: false},
		{name: "rate label with bare figure", text: "Body labor rate: 55", want: true},
		{name: "hourly figure", text: "Paint labor 48 hourly", want: true},
		{name: "labor hours are not a rate", text: "Body Labor: 3.2 hrs\nPaint labor 2.0 hours", want: false},
		{name: "labor hour count", text: "Mechanical labor 1.5 hr", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Reconcile(Input{Baseline: 100, CombinedText: tt.text, Now: now})
			fired := false
			for _, d := range res.Deductions {
				if d.Rule == RuleLaborRate {
					fired = true
					assert.Equal(t, -50, d.Points)
				}
			}
			assert.Equal(t, !tt.want, fired)
		})
	}
}

func TestReconcileTaxRule(t *testing.T) {
	r := newReconciler(t)

	tests := []struct {
		name   string
		policy string
		text   string
		fired  bool
	}{
		{name: "mandated and missing", policy: "Estimates must disclose sales tax.", text: laborText, fired: true},
		{name: "mandated and rate present", policy: "Sales tax must be itemized.", text: laborText + "\nSales Tax (8.25%): $123.45", fired: false},
		{name: "mandated and amount present", policy: "Tax is required on all parts.", text: laborText + "\nTax: $41.10", fired: false},
		{name: "rate before word", policy: "Include tax.", text: laborText + "\n7% tax applied", fired: false},
		{name: "not mandated", policy: "Use OEM parts for vehicles under two years old.", text: laborText, fired: false},
		{name: "tax mentioned without mandate", policy: "Tax handled by the carrier.", text: laborText, fired: false},
		{name: "tax id is not a tax figure", policy: "Tax must be disclosed.", text: laborText + "\nTax ID: 12-3456789", fired: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Reconcile(Input{Baseline: 100, CombinedText: tt.text, PolicyText: tt.policy, Now: now})
			assert.Equal(t, tt.fired, contains(points(res), RuleTaxDisclosure))
		})
	}
}

func TestReconcilePartsRule(t *testing.T) {
	r := newReconciler(t)

	tests := []struct {
		name    string
		year    int
		text    string
		fired   bool
		noClock bool
	}{
		{name: "aftermarket on current year", year: 2026, text: laborText + "\nA/M bumper cover", fired: true},
		{name: "no clock supplied", year: 2026, text: laborText + "\nA/M bumper cover", noClock: true, fired: false},
		{name: "aftermarket on last year", year: 2025, text: laborText + "\nAftermarket headlamp", fired: true},
		{name: "aftermarket on next model year", year: 2027, text: laborText + "\nLKQ fender", fired: true},
		{name: "aftermarket on older vehicle", year: 2021, text: laborText + "\nnon-OEM grille", fired: false},
		{name: "oem parts on new vehicle", year: 2026, text: laborText + "\nOEM bumper cover", fired: false},
		{name: "year detected from text", text: laborText + "\nVehicle: 2026 Honda Accord\nAlternative parts used", fired: true},
		{name: "unknown year", text: laborText + "\nAftermarket mirror", fired: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{Baseline: 100, CombinedText: tt.text, VehicleYear: tt.year, Now: now}
			if tt.noClock {
				in.Now = time.Time{}
			}
			res := r.Reconcile(in)
			assert.Equal(t, tt.fired, contains(points(res), RulePartsCompliance))
			assert.Equal(t, res, r.Reconcile(in))
		})
	}
}

func TestReconcileBoundsAndMonotonicity(t *testing.T) {
	r := newReconciler(t)
	all := []evidence.Requirement{evidence.FourCorners, evidence.Odometer, evidence.VIN, evidence.LicensePlate}

	for _, baseline := range []int{-40, 0, 10, 55, 85, 100, 250} {
		prev := 101
		for n := 0; n <= len(all); n++ {
			res := r.Reconcile(Input{
				Baseline:     baseline,
				Missing:      all[:n],
				CombinedText: "A/M fender, 2026 Toyota",
				PolicyText:   "Tax must be shown.",
				Now:          now,
			})
			assert.GreaterOrEqual(t, res.Final, 0)
			assert.LessOrEqual(t, res.Final, 100)
			assert.LessOrEqual(t, res.Final, prev, "baseline %d with %d missing", baseline, n)
			prev = res.Final
		}
	}
}

func TestReconcileEvidenceDeductions(t *testing.T) {
	res := newReconciler(t).Reconcile(Input{
		Baseline:     100,
		Missing:      []evidence.Requirement{evidence.Odometer, evidence.VIN},
		CombinedText: laborText,
		Now:          now,
	})
	assert.Equal(t, []Deduction{
		{Rule: RuleMissingEvidence, Points: -25, Reason: "missing odometer"},
		{Rule: RuleMissingEvidence, Points: -25, Reason: "missing vin"},
	}, res.Deductions)
	assert.Equal(t, 50, res.Final)
}

func TestReconcileClientRules(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClientRules = []ClientRule{
		{Name: "odometer_required", Expression: `"odometer" in missing_evidence`, Points: 10, Reason: "client requires odometer photo"},
		{Name: "no_aftermarket", Expression: `aftermarket_parts && combined_text.contains("bumper")`, Points: -15},
	}
	r := newReconciler(t, WithConfig(cfg))

	t.Run("rules fire as deductions", func(t *testing.T) {
		res := r.Reconcile(Input{
			Baseline:     100,
			Missing:      []evidence.Requirement{evidence.Odometer},
			CombinedText: laborText + "\nA/M bumper",
			Now:          now,
		})
		assert.Contains(t, res.Deductions, Deduction{Rule: "odometer_required", Points: -10, Reason: "client requires odometer photo"})
		assert.Contains(t, res.Deductions, Deduction{Rule: "no_aftermarket", Points: -15, Reason: "client rule no_aftermarket"})
		assert.Equal(t, 100-25-10-15, res.Final)
	})

	t.Run("client rule suppresses the override", func(t *testing.T) {
		res := r.Reconcile(Input{Baseline: 90, CombinedText: laborText + "\naftermarket bumper, 2015 Ford", Now: now})
		assert.Equal(t, []string{"no_aftermarket"}, points(res))
		assert.Equal(t, 75, res.Final)
		assert.False(t, res.OverrideApplied)
	})
}

func TestNewRejectsInvalidClientRules(t *testing.T) {
	tests := []struct {
		name string
		rule ClientRule
	}{
		{name: "missing name", rule: ClientRule{Expression: "true"}},
		{name: "missing expression", rule: ClientRule{Name: "x"}},
		{name: "syntax error", rule: ClientRule{Name: "x", Expression: "baseline >"}},
		{name: "unknown variable", rule: ClientRule{Name: "x", Expression: "mileage > 10"}},
		{name: "non-bool result", rule: ClientRule{Name: "x", Expression: "baseline + 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ClientRules = []ClientRule{tt.rule}
			_, err := New(WithConfig(cfg))
			assert.Error(t, err)
			assert.Error(t, ValidateClientRules(cfg.ClientRules))
		})
	}
}

func TestParseBaseline(t *testing.T) {
	tests := []struct {
		raw       string
		want      int
		defaulted bool
	}{
		{raw: "85%", want: 85},
		{raw: " 85.5 % ", want: 86},
		{raw: "Compliance: 72", want: 72},
		{raw: "140%", want: 100},
		{raw: "-5", want: 0},
		{raw: "N/A", want: 100, defaulted: true},
		{raw: "", want: 100, defaulted: true},
		{raw: "about ninety", want: 100, defaulted: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, defaulted := ParseBaseline(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.defaulted, defaulted)
		})
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

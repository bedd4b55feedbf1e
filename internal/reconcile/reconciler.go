// Package reconcile merges the narrative collaborator's self-reported
// compliance score with locally detected rule violations into the final
// compliance score. Reconciliation never fails: malformed input falls back
// to documented defaults. Reconcile reads no clock: the current year comes
// from Input.Now.
package reconcile

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"claimaudit/internal/evidence"
)

// Rule names used in deductions.
const (
	RuleMissingEvidence = "missing_evidence"
	RuleLaborRate       = "labor_rate"
	RuleTaxDisclosure   = "tax_disclosure"
	RulePartsCompliance = "parts_compliance"
)

// Deduction is one fired rule. Points is negative.
type Deduction struct {
	Rule   string `json:"rule"`
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

// Config holds the rule points and tables. DefaultConfig is the canonical set.
type Config struct {
	EvidencePoints  int
	LaborPoints     int
	TaxPoints       int
	PartsPoints     int
	LaborCategories []LaborCategory
	// PartsRecentYears is how many years back from the current calendar year
	// a model year counts as recent. Next year's models are always recent.
	PartsRecentYears int
	// ConsistencyOverride raises the final score to 100 when the baseline is
	// below 100 and no local rule fired.
	ConsistencyOverride bool
	ClientRules         []ClientRule
}

func DefaultConfig() Config {
	return Config{
		EvidencePoints:      25,
		LaborPoints:         50,
		TaxPoints:           25,
		PartsPoints:         25,
		LaborCategories:     DefaultLaborCategories(),
		PartsRecentYears:    1,
		ConsistencyOverride: true,
	}
}

// Input is one reconciliation.
type Input struct {
	Baseline          int
	BaselineDefaulted bool
	Missing           []evidence.Requirement
	CombinedText      string
	PolicyText        string
	// VehicleYear is the model year from the narrative; 0 means unknown and
	// the year is detected from CombinedText instead.
	VehicleYear int
	// Now supplies the current year for the model-year window. A zero Now
	// means the year is unknown and the parts rule does not fire.
	Now time.Time
}

// Result is the reconciled score.
type Result struct {
	Baseline          int         `json:"baseline_score"`
	BaselineDefaulted bool        `json:"baseline_defaulted"`
	Deductions        []Deduction `json:"deductions"`
	Final             int         `json:"final_score"`
	OverrideApplied   bool        `json:"override_applied"`
	VehicleYear       int         `json:"vehicle_year,omitempty"`
}

// Reconciler applies the fixed rules and any client rules.
type Reconciler struct {
	cfg    Config
	rules  []compiledRule
	logger *slog.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

func WithConfig(cfg Config) Option {
	return func(r *Reconciler) {
		r.cfg = cfg
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// New builds a Reconciler. It fails only when a client rule does not compile.
func New(opts ...Option) (*Reconciler, error) {
	r := &Reconciler{
		cfg:    DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if len(r.cfg.LaborCategories) == 0 {
		r.cfg.LaborCategories = DefaultLaborCategories()
	}
	rules, err := compileRules(r.cfg.ClientRules)
	if err != nil {
		return nil, err
	}
	r.rules = rules
	return r, nil
}

// Reconcile computes the final score. It depends only on in and the
// Reconciler's configuration.
func (r *Reconciler) Reconcile(in Input) Result {
	baseline := clamp(in.Baseline)
	res := Result{Baseline: baseline, BaselineDefaulted: in.BaselineDefaulted}

	facts := r.facts(in, baseline)
	res.VehicleYear = facts.VehicleYear

	for _, req := range in.Missing {
		res.Deductions = append(res.Deductions, Deduction{
			Rule:   RuleMissingEvidence,
			Points: -r.cfg.EvidencePoints,
			Reason: "missing " + req.Label(),
		})
	}
	if !facts.LaborRateFound {
		res.Deductions = append(res.Deductions, Deduction{
			Rule:   RuleLaborRate,
			Points: -r.cfg.LaborPoints,
			Reason: "no labor rate for " + r.categoryNames(),
		})
	}
	if facts.TaxRequired && !facts.TaxFound {
		res.Deductions = append(res.Deductions, Deduction{
			Rule:   RuleTaxDisclosure,
			Points: -r.cfg.TaxPoints,
			Reason: "policy requires tax disclosure but no tax rate or amount was found",
		})
	}
	if facts.AftermarketParts && r.recentModelYear(facts.VehicleYear, facts.CurrentYear) {
		res.Deductions = append(res.Deductions, Deduction{
			Rule:   RulePartsCompliance,
			Points: -r.cfg.PartsPoints,
			Reason: fmt.Sprintf("alternative parts on a %d model-year vehicle", facts.VehicleYear),
		})
	}
	for _, rule := range r.rules {
		fired, err := rule.eval(facts)
		if err != nil {
			r.logger.Warn("client rule skipped", "rule", rule.Name, "error", err)
			continue
		}
		if fired {
			reason := rule.Reason
			if reason == "" {
				reason = "client rule " + rule.Name
			}
			res.Deductions = append(res.Deductions, Deduction{Rule: rule.Name, Points: -abs(rule.Points), Reason: reason})
		}
	}

	total := baseline
	for _, d := range res.Deductions {
		total += d.Points
	}
	res.Final = clamp(total)

	if r.cfg.ConsistencyOverride && baseline < 100 && len(res.Deductions) == 0 {
		res.Final = 100
		res.OverrideApplied = true
	}
	return res
}

func (r *Reconciler) facts(in Input, baseline int) Facts {
	year := in.VehicleYear
	if year == 0 {
		year = DetectVehicleYear(in.CombinedText)
	}
	missing := make([]string, len(in.Missing))
	for i, m := range in.Missing {
		missing[i] = string(m)
	}
	return Facts{
		MissingEvidence:  missing,
		LaborRateFound:   LaborRateFound(in.CombinedText, r.cfg.LaborCategories),
		TaxRequired:      TaxRequired(in.PolicyText),
		TaxFound:         TaxFound(in.CombinedText),
		AftermarketParts: AftermarketParts(in.CombinedText),
		VehicleYear:      year,
		CurrentYear:      currentYear(in.Now),
		Baseline:         baseline,
		PolicyText:       in.PolicyText,
		CombinedText:     in.CombinedText,
	}
}

func currentYear(now time.Time) int {
	if now.IsZero() {
		return 0
	}
	return now.Year()
}

// recentModelYear reports whether year falls in the recency window.
func (r *Reconciler) recentModelYear(year, current int) bool {
	if year == 0 || current == 0 {
		return false
	}
	return year >= current-r.cfg.PartsRecentYears && year <= current+1
}

func (r *Reconciler) categoryNames() string {
	names := make([]string, len(r.cfg.LaborCategories))
	for i, c := range r.cfg.LaborCategories {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

package review

import (
	"fmt"
	"log/slog"

	"claimaudit/internal/evidence"
	"claimaudit/internal/fraud"
	"claimaudit/internal/reconcile"
	"claimaudit/internal/rulebook"
)

// Engines are the rule-driven components built from one rulebook.
type Engines struct {
	Detector   *evidence.Detector
	Scorer     *fraud.Scorer
	Reconciler *reconcile.Reconciler
}

// BuildEngines compiles a rulebook into engines.
func BuildEngines(rb *rulebook.Rulebook, logger *slog.Logger) (*Engines, error) {
	if rb == nil {
		rb = rulebook.Default()
	}
	rec, err := reconcile.New(
		reconcile.WithConfig(rb.ReconcileConfig()),
		reconcile.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("build reconciler: %w", err)
	}
	return &Engines{
		Detector:   evidence.NewDetector(rb.DetectorOptions()...),
		Scorer:     fraud.NewScorer(fraud.WithConfig(rb.FraudConfig()), fraud.WithLogger(logger)),
		Reconciler: rec,
	}, nil
}

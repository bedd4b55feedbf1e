package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the review module.
type Metrics struct {
	// End-to-end review latency by outcome
	ReviewLatency *prometheus.HistogramVec

	// Per-stage latency: normalize, detect, score, narrate, reconcile
	StageLatency *prometheus.HistogramVec

	// Per-file normalization outcomes by kind
	FileOutcomes *prometheus.CounterVec

	// OCR page and image outcomes
	OCROutcomes *prometheus.CounterVec

	// Fraud risk labels assigned
	FraudRisk *prometheus.CounterVec

	// Final compliance score distribution
	FinalScore prometheus.Histogram

	// Collaborator failures by collaborator and category
	CollaboratorFailures *prometheus.CounterVec
}

// New creates a new Metrics instance with all review module metrics registered.
func New() *Metrics {
	return &Metrics{
		ReviewLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "claimaudit_review_duration_seconds",
			Help:    "Duration of a full claim package review",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60, 90},
		}, []string{"outcome"}), // outcome: "ok", "timeout", "unavailable", "invalid", "error"

		StageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "claimaudit_review_stage_duration_seconds",
			Help:    "Duration of each review stage",
			Buckets: []float64{0.001, 0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),

		FileOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimaudit_normalize_files_total",
			Help: "Files normalized by kind and outcome",
		}, []string{"kind", "outcome"}), // outcome: "ok", "error", "skipped"

		OCROutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimaudit_ocr_attempts_total",
			Help: "OCR attempts by outcome",
		}, []string{"outcome"}), // outcome: "ok", "error", "discarded", "disabled"

		FraudRisk: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimaudit_fraud_risk_total",
			Help: "Fraud risk labels assigned",
		}, []string{"risk"}),

		FinalScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "claimaudit_final_score",
			Help:    "Distribution of reconciled compliance scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),

		CollaboratorFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimaudit_collaborator_failures_total",
			Help: "External collaborator failures by collaborator and category",
		}, []string{"collaborator", "category"}),
	}
}

// ObserveReview records the total review duration.
func (m *Metrics) ObserveReview(outcome string, d time.Duration) {
	if m != nil {
		m.ReviewLatency.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

// ObserveStage records the duration of one review stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// ObserveFile records a per-file normalization outcome.
func (m *Metrics) ObserveFile(kind, outcome string) {
	if m != nil {
		m.FileOutcomes.WithLabelValues(kind, outcome).Inc()
	}
}

// ObserveOCR records one OCR attempt outcome.
func (m *Metrics) ObserveOCR(outcome string) {
	if m != nil {
		m.OCROutcomes.WithLabelValues(outcome).Inc()
	}
}

// IncrementFraudRisk records the risk label of a finished review.
func (m *Metrics) IncrementFraudRisk(risk string) {
	if m != nil {
		m.FraudRisk.WithLabelValues(risk).Inc()
	}
}

// ObserveFinalScore records a reconciled compliance score.
func (m *Metrics) ObserveFinalScore(score int) {
	if m != nil {
		m.FinalScore.Observe(float64(score))
	}
}

// IncrementCollaboratorFailure records a collaborator failure.
func (m *Metrics) IncrementCollaboratorFailure(collaborator, category string) {
	if m != nil {
		m.CollaboratorFailures.WithLabelValues(collaborator, category).Inc()
	}
}

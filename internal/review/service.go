// Package review orchestrates one claim package review: normalization,
// evidence detection, fraud scoring, the narrative collaborator call, field
// extraction and score reconciliation.
package review

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"claimaudit/internal/evidence"
	"claimaudit/internal/extract"
	"claimaudit/internal/fraud"
	"claimaudit/internal/ingest"
	"claimaudit/internal/normalize"
	"claimaudit/internal/reconcile"
	"claimaudit/internal/review/metrics"
	"claimaudit/internal/review/models"
	"claimaudit/internal/rulebook"
	dErrors "claimaudit/pkg/domain-errors"
	"claimaudit/pkg/platform/sentinel"
	"claimaudit/pkg/requestcontext"
)

// DefaultNarrativeTimeout bounds the narrative collaborator call.
const DefaultNarrativeTimeout = 60 * time.Second

const narrativeCollaborator = "narrative"

// Narrator is the generative narrative-review collaborator.
type Narrator interface {
	Review(ctx context.Context, req models.NarrativeRequest) (string, error)
}

// AssessmentStore keeps the audit trail of finished assessments.
type AssessmentStore interface {
	Save(ctx context.Context, a *models.Assessment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Assessment, error)
	ListByFileNumber(ctx context.Context, fileNumber string) ([]*models.Assessment, error)
}

// Publisher hands finished assessments to presentation consumers.
type Publisher interface {
	Publish(ctx context.Context, a *models.Assessment) error
}

// FingerprintRegistry remembers image fingerprints across claims.
type FingerprintRegistry interface {
	Record(ctx context.Context, fileNumber string, fps []models.Fingerprint) ([]models.PriorMatch, error)
}

// Service runs reviews. It holds no per-request state.
type Service struct {
	normalizer       *normalize.Normalizer
	narrator         Narrator
	extractor        *extract.Extractor
	engines          atomic.Pointer[Engines]
	rulebook         *rulebook.Rulebook
	store            AssessmentStore
	publisher        Publisher
	fingerprints     FingerprintRegistry
	metrics          *metrics.Metrics
	logger           *slog.Logger
	tracer           trace.Tracer
	narrativeTimeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

func WithStore(store AssessmentStore) Option {
	return func(s *Service) {
		s.store = store
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithFingerprintRegistry(r FingerprintRegistry) Option {
	return func(s *Service) {
		s.fingerprints = r
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithNarrativeTimeout overrides DefaultNarrativeTimeout.
func WithNarrativeTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.narrativeTimeout = d
		}
	}
}

// WithRulebook builds the engines from rb instead of the canonical defaults.
func WithRulebook(rb *rulebook.Rulebook) Option {
	return func(s *Service) {
		s.rulebook = rb
	}
}

// NewService creates a review service. The normalizer and narrator are
// required.
func NewService(normalizer *normalize.Normalizer, narrator Narrator, opts ...Option) (*Service, error) {
	if normalizer == nil {
		return nil, errors.New("normalizer is required")
	}
	if narrator == nil {
		return nil, errors.New("narrator is required")
	}
	s := &Service{
		normalizer:       normalizer,
		narrator:         narrator,
		extractor:        extract.NewExtractor(),
		logger:           slog.Default(),
		tracer:           otel.Tracer("claimaudit/review"),
		narrativeTimeout: DefaultNarrativeTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if err := s.ApplyRulebook(s.rulebook); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyRulebook swaps the engines for reviews started from now on.
func (s *Service) ApplyRulebook(rb *rulebook.Rulebook) error {
	engines, err := BuildEngines(rb, s.logger)
	if err != nil {
		return err
	}
	s.engines.Store(engines)
	return nil
}

// Review runs one claim package through the pipeline and returns its
// assessment. Only a collaborator failure or invalid input fails a review.
func (s *Service) Review(ctx context.Context, req models.ReviewRequest) (*models.Assessment, error) {
	start := time.Now()
	if err := validate(req); err != nil {
		s.metrics.ObserveReview("invalid", time.Since(start))
		return nil, err
	}
	fileNumber := req.Package.FileNumber
	ctx = requestcontext.WithFileNumber(ctx, fileNumber)
	ctx, span := s.tracer.Start(ctx, "review.Review", trace.WithAttributes(
		attribute.String("file_number", fileNumber),
		attribute.Int("files", len(req.Package.Files)),
	))
	defer span.End()

	engines := s.engines.Load()
	now := requestcontext.Now(ctx)

	// fan-in barrier: everything below needs the whole package
	normalized := s.normalize(ctx, req)
	combined := normalized.CombinedText()

	report, fraudResult := s.analyze(ctx, engines, normalized, combined, fileNumber, now)

	narrative, err := s.narrate(ctx, models.NarrativeRequest{
		FileNumber:    fileNumber,
		Policy:        req.Policy,
		CombinedText:  combined,
		EvidenceHints: report.Hints(),
		Images:        attachments(normalized.Images),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "narrative review failed")
		outcome := "error"
		if ce, ok := AsCollaboratorError(err); ok {
			outcome = string(ce.Category)
		}
		s.metrics.ObserveReview(outcome, time.Since(start))
		s.logger.ErrorContext(ctx, "narrative review failed",
			"request_id", requestcontext.RequestID(ctx),
			"file_number", fileNumber,
			"error", err,
		)
		return nil, err
	}

	stageStart := time.Now()
	fields := s.extractor.ExtractAll(narrative)
	baseline, defaulted := reconcile.ParseBaseline(fields.Get(extract.FieldComplianceScore))
	year, _ := fields.Year()
	reconciled := engines.Reconciler.Reconcile(reconcile.Input{
		Baseline:          baseline,
		BaselineDefaulted: defaulted,
		Missing:           report.Missing,
		CombinedText:      combined,
		PolicyText:        req.Policy,
		VehicleYear:       year,
		Now:               now,
	})
	fraudResult = engines.Scorer.ApplyNarrative(fraudResult, narrative)
	s.metrics.ObserveStage("reconcile", time.Since(stageStart))
	if defaulted {
		s.logger.WarnContext(ctx, "compliance score missing from narrative, using default baseline",
			"file_number", fileNumber,
			"baseline", baseline,
		)
	}

	assessment := &models.Assessment{
		ID:                 uuid.New(),
		RequestID:          requestcontext.RequestID(ctx),
		FileNumber:         fileNumber,
		BaselineScore:      reconciled.Baseline,
		BaselineDefaulted:  reconciled.BaselineDefaulted,
		Deductions:         reconciled.Deductions,
		FinalScore:         reconciled.Final,
		OverrideApplied:    reconciled.OverrideApplied,
		FraudScore:         fraudResult.Score,
		FraudRisk:          fraudResult.Risk,
		FraudFlags:         fraudResult.Signals,
		FraudIssues:        fraudResult.Issues,
		MissingEvidence:    requirementNames(report.Missing),
		ConfirmedDocuments: requirementNames(report.Confirmed),
		Fields:             fields,
		Narrative:          narrative,
		Files:              summarize(normalized),
		Fingerprints:       fingerprints(fraudResult.Fingerprints),
		CreatedAt:          now,
	}
	assessment.PriorMatches = s.priorMatches(ctx, fileNumber, assessment.Fingerprints)

	s.persist(ctx, assessment)

	span.SetAttributes(
		attribute.Int("final_score", assessment.FinalScore),
		attribute.Int("fraud_score", assessment.FraudScore),
	)
	s.metrics.ObserveFinalScore(assessment.FinalScore)
	s.metrics.IncrementFraudRisk(string(assessment.FraudRisk))
	s.metrics.ObserveReview("ok", time.Since(start))
	s.logger.InfoContext(ctx, "claim package reviewed",
		"request_id", assessment.RequestID,
		"assessment_id", assessment.ID,
		"file_number", fileNumber,
		"final_score", assessment.FinalScore,
		"fraud_score", assessment.FraudScore,
		"fraud_risk", assessment.FraudRisk,
		"missing_evidence", assessment.MissingEvidence,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return assessment, nil
}

// Get returns a stored assessment.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Assessment, error) {
	if s.store == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "assessment not found")
	}
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "assessment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load assessment")
	}
	return a, nil
}

// ListByFileNumber returns every stored assessment of a claim, newest first.
func (s *Service) ListByFileNumber(ctx context.Context, fileNumber string) ([]*models.Assessment, error) {
	if strings.TrimSpace(fileNumber) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "file_number is required")
	}
	if s.store == nil {
		return []*models.Assessment{}, nil
	}
	list, err := s.store.ListByFileNumber(ctx, fileNumber)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list assessments")
	}
	return list, nil
}

func validate(req models.ReviewRequest) error {
	if len(req.Package.Files) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one file is required")
	}
	if strings.TrimSpace(req.Package.FileNumber) == "" {
		return dErrors.New(dErrors.CodeValidation, "file_number is required")
	}
	if strings.TrimSpace(req.Policy) == "" {
		return dErrors.New(dErrors.CodeValidation, "client_rules is required")
	}
	return nil
}

func (s *Service) normalize(ctx context.Context, req models.ReviewRequest) normalize.Result {
	ctx, span := s.tracer.Start(ctx, "review.normalize")
	defer span.End()
	start := time.Now()
	result := s.normalizer.Normalize(ctx, req.Package)
	s.metrics.ObserveStage("normalize", time.Since(start))
	return result
}

// analyze runs the evidence detector and fraud scorer side by side. Both are
// pure, so neither can fail the review.
func (s *Service) analyze(ctx context.Context, engines *Engines, normalized normalize.Result, combined, fileNumber string, now time.Time) (evidence.Report, fraud.Assessment) {
	var (
		report      evidence.Report
		fraudResult fraud.Assessment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, span := s.tracer.Start(gctx, "review.detect")
		defer span.End()
		start := time.Now()
		report = engines.Detector.Detect(combined, normalized.ImageTexts())
		s.metrics.ObserveStage("detect", time.Since(start))
		return nil
	})
	g.Go(func() error {
		_, span := s.tracer.Start(gctx, "review.score")
		defer span.End()
		start := time.Now()
		images := make([]fraud.ImageInput, len(normalized.Images))
		for i, img := range normalized.Images {
			images[i] = fraud.ImageInput{Name: img.Name, Data: img.Data}
		}
		fraudResult = engines.Scorer.Score(fraud.Input{
			CombinedText:   combined,
			Images:         images,
			ReferenceClaim: fileNumber,
			Now:            now,
		})
		s.metrics.ObserveStage("score", time.Since(start))
		return nil
	})
	_ = g.Wait()
	return report, fraudResult
}

// narrate calls the collaborator under the narrative timeout and classifies
// its failures.
func (s *Service) narrate(ctx context.Context, req models.NarrativeRequest) (string, error) {
	ctx, span := s.tracer.Start(ctx, "review.narrate")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveStage("narrate", time.Since(start)) }()

	callCtx, cancel := context.WithTimeout(ctx, s.narrativeTimeout)
	defer cancel()

	narrative, err := s.narrator.Review(callCtx, req)
	if err == nil && callCtx.Err() == nil {
		if strings.TrimSpace(narrative) == "" {
			err = errors.New("empty narrative")
		} else {
			return narrative, nil
		}
	}
	if err == nil {
		err = callCtx.Err()
	}

	category := ErrorUnavailable
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sentinel.ErrTimeout) ||
		errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		category = ErrorTimeout
	}
	s.metrics.IncrementCollaboratorFailure(narrativeCollaborator, string(category))
	return "", NewCollaboratorError(category, narrativeCollaborator, err)
}

// priorMatches records this package's fingerprints and returns matches from
// other claims. Registry failures only cost the informational findings.
func (s *Service) priorMatches(ctx context.Context, fileNumber string, fps []models.Fingerprint) []models.PriorMatch {
	if s.fingerprints == nil || len(fps) == 0 {
		return nil
	}
	matches, err := s.fingerprints.Record(ctx, fileNumber, fps)
	if err != nil {
		s.logger.WarnContext(ctx, "fingerprint registry unavailable",
			"file_number", fileNumber,
			"error", err,
		)
		return nil
	}
	return matches
}

// persist saves and publishes the assessment. Failures are logged; the
// caller still receives the assessment.
func (s *Service) persist(ctx context.Context, a *models.Assessment) {
	if s.store != nil {
		if err := s.store.Save(ctx, a); err != nil {
			s.logger.ErrorContext(ctx, "failed to save assessment",
				"assessment_id", a.ID,
				"file_number", a.FileNumber,
				"error", err,
			)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, a); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish assessment",
				"assessment_id", a.ID,
				"file_number", a.FileNumber,
				"error", err,
			)
		}
	}
}

func attachments(images []normalize.Image) []models.ImageAttachment {
	out := make([]models.ImageAttachment, len(images))
	for i, img := range images {
		out[i] = models.ImageAttachment{Name: img.Name, ContentType: img.ContentType, Data: img.Data}
	}
	return out
}

func requirementNames(reqs []evidence.Requirement) []string {
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = string(r)
	}
	return out
}

func summarize(r normalize.Result) []models.FileSummary {
	out := make([]models.FileSummary, len(r.Documents))
	for i, d := range r.Documents {
		degraded := 0
		for _, p := range d.Pages {
			if p.OCRDegraded {
				degraded++
			}
		}
		out[i] = models.FileSummary{
			Name:             d.Name,
			Kind:             d.Kind,
			Pages:            len(d.Pages),
			OCRDegradedPages: degraded,
			Error:            d.Err,
		}
	}
	for _, img := range r.Images {
		if !img.OCRDegraded {
			continue
		}
		for i := range out {
			if out[i].Name == img.Name && out[i].Kind == ingest.KindImage {
				out[i].OCRDegradedPages = 1
				break
			}
		}
	}
	return out
}

func fingerprints(fps []fraud.ImageFingerprint) []models.Fingerprint {
	if len(fps) == 0 {
		return nil
	}
	out := make([]models.Fingerprint, len(fps))
	for i, fp := range fps {
		out[i] = models.Fingerprint{Image: fp.Name, Hash: fp.Hex()}
	}
	return out
}

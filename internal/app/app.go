// Package app assembles the review service and its collaborators from
// configuration. Both the HTTP server and the CLI start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"claimaudit/internal/fingerprint"
	"claimaudit/internal/narrative"
	"claimaudit/internal/normalize"
	"claimaudit/internal/normalize/raster"
	"claimaudit/internal/ocr"
	"claimaudit/internal/platform/config"
	"claimaudit/internal/platform/kafka"
	"claimaudit/internal/platform/postgres"
	"claimaudit/internal/platform/redis"
	"claimaudit/internal/review"
	"claimaudit/internal/review/metrics"
	"claimaudit/internal/review/publisher"
	"claimaudit/internal/review/store"
	"claimaudit/internal/rulebook"
)

// App is a wired review service plus the resources it owns.
type App struct {
	Service  *review.Service
	Rulebook *rulebook.Store
	Metrics  *metrics.Metrics

	logger  *slog.Logger
	closers []func() error
}

// Build wires everything cfg enables. Optional backends (OCR, postgres,
// kafka, redis) are skipped when unconfigured; a configured backend that
// cannot be reached fails the build.
func Build(ctx context.Context, cfg config.Server, logger *slog.Logger) (_ *App, err error) {
	a := &App{logger: logger, Metrics: metrics.New()}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.Rulebook, err = rulebook.NewStore(cfg.RulebookPath, logger)
	if err != nil {
		return nil, err
	}

	narrator, err := narrative.New(narrative.Options{
		BaseURL: cfg.Narrative.BaseURL,
		Model:   cfg.Narrative.Model,
		APIKey:  cfg.Narrative.APIKey,
		Timeout: cfg.Narrative.Timeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	opts := []review.Option{
		review.WithLogger(logger),
		review.WithMetrics(a.Metrics),
		review.WithNarrativeTimeout(cfg.Narrative.Timeout),
		review.WithRulebook(a.Rulebook.Current()),
	}

	assessments, err := a.assessmentStore(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	opts = append(opts, review.WithStore(assessments))

	producer, err := kafka.New(cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if producer != nil {
		a.closers = append(a.closers, func() error { producer.Close(); return nil })
		if err := kafka.EnsureTopic(ctx, producer, cfg.Kafka.Topic, -1, -1); err != nil {
			return nil, err
		}
		opts = append(opts, review.WithPublisher(publisher.NewKafka(producer, cfg.Kafka.Topic)))
		logger.Info("assessment publication enabled", "topic", cfg.Kafka.Topic)
	}

	rdb, err := redis.Open(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		a.closers = append(a.closers, rdb.Close)
		opts = append(opts, review.WithFingerprintRegistry(
			fingerprint.NewRedisRegistry(rdb, fingerprint.WithTTL(cfg.Redis.FingerprintTTL)),
		))
		logger.Info("cross-claim fingerprint registry enabled", "ttl", cfg.Redis.FingerprintTTL)
	}

	a.Service, err = review.NewService(a.normalizer(cfg), narrator, opts...)
	if err != nil {
		return nil, err
	}
	a.Rulebook.OnChange(func(rb *rulebook.Rulebook) {
		if err := a.Service.ApplyRulebook(rb); err != nil {
			logger.Error("rulebook reload rejected", "error", err)
		}
	})
	return a, nil
}

func (a *App) normalizer(cfg config.Server) *normalize.Normalizer {
	opts := []normalize.Option{
		normalize.WithLogger(a.logger),
		normalize.WithRecorder(a.Metrics),
		normalize.WithConcurrency(cfg.Concurrency),
	}
	if cfg.OCR.URL == "" {
		a.logger.Warn("OCR_URL not set, OCR disabled")
		return normalize.New(opts...)
	}
	client := ocr.New(cfg.OCR.URL,
		ocr.WithTimeout(cfg.OCR.Timeout),
		ocr.WithLogger(a.logger),
	)
	opts = append(opts, normalize.WithOCR(client), normalize.WithRasterizer(raster.New(0)))
	return normalize.New(opts...)
}

func (a *App) assessmentStore(ctx context.Context, cfg config.PostgresConfig) (review.AssessmentStore, error) {
	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return store.NewInMemoryStore(), nil
	}
	a.closers = append(a.closers, db.Close)
	pg := store.NewPostgres(db)
	if err := pg.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure assessment schema: %w", err)
	}
	a.logger.Info("postgres assessment store enabled")
	return pg, nil
}

// WatchRulebook reloads the rulebook on file changes until ctx ends.
func (a *App) WatchRulebook(ctx context.Context) error {
	return a.Rulebook.Watch(ctx)
}

// Close releases every backend connection.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

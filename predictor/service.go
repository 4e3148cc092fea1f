package predictor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service runs the gate, dispatcher and label resolver for every interaction.
// It is immutable after construction and safe for concurrent use.
type Service struct {
	dispatcher *Dispatcher
	artifacts  *Artifacts
	cfg        Config
	logger     *zap.Logger
	metrics    *Metrics
}

// Open loads the artifacts and, when enabled, the text normalizer, and returns a
// ready service. Any loading failure is fatal for the caller.
func Open(cfg Config, logger *zap.Logger, metrics *Metrics) (*Service, error) {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	artifacts, err := LoadArtifacts(cfg.Artifacts)
	if err != nil {
		return nil, fmt.Errorf("load artifacts: %w", err)
	}
	opts := DispatcherOptions{Normalize: cfg.Normalize}
	if cfg.Normalize {
		normalizer, err := NewTextNormalizer()
		if err != nil {
			_ = artifacts.Close()
			return nil, fmt.Errorf("load normalizer: %w", err)
		}
		opts.Normalizer = normalizer
	}
	dispatcher, err := NewDispatcher(artifacts.Vectorizer, artifacts.Classifier, opts)
	if err != nil {
		_ = artifacts.Close()
		return nil, err
	}
	s := NewService(dispatcher, cfg, logger, metrics)
	s.artifacts = artifacts
	logger.Info("predictor ready",
		zap.String("vectorizer", cfg.Artifacts.VectorizerKind),
		zap.String("vectorizer_path", cfg.Artifacts.VectorizerPath),
		zap.String("classifier", cfg.Artifacts.ClassifierKind),
		zap.String("classifier_path", cfg.Artifacts.ClassifierPath),
		zap.Bool("normalize", cfg.Normalize))
	return s, nil
}

// NewService wraps an existing dispatcher.
func NewService(dispatcher *Dispatcher, cfg Config, logger *zap.Logger, metrics *Metrics) *Service {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
	}
}

// Close releases artifact resources.
func (s *Service) Close() error {
	return s.artifacts.Close()
}

// Config returns a copy of the configuration the service was opened with.
func (s *Service) Config() Config {
	return s.cfg.Clone()
}

// Predict handles one submission. Blank input is rejected with a warning and
// never reaches the vectorizer. Errors from the vectorizer or classifier are
// returned unchanged in meaning; there is no fallback.
func (s *Service) Predict(ctx context.Context, raw string) (Result, error) {
	res := Result{
		ID:         uuid.NewString(),
		Input:      raw,
		Normalized: s.dispatcher.Normalizing(),
	}
	if strings.TrimSpace(raw) == "" {
		res.Status = StatusRejected
		res.Warning = WarningEmptyInput
		s.metrics.recordRejection(ReasonEmptyInput)
		s.logger.Debug("rejected empty input", zap.String("id", res.ID))
		return res, nil
	}

	start := time.Now()
	res.Language = DetectLanguage(raw)
	text, err := s.dispatcher.Prepare(raw)
	if err != nil {
		return s.fail(res, err)
	}
	res.Text = text
	if res.Normalized && strings.TrimSpace(text) == "" {
		res.NormalizedEmpty = true
		s.logger.Warn("normalization removed every token", zap.String("id", res.ID))
		if s.cfg.RejectEmptyNormalized {
			res.Status = StatusRejected
			res.Warning = WarningNothingToVector
			s.metrics.recordRejection(ReasonEmptyNormalized)
			return res, nil
		}
	}

	code, err := s.dispatcher.Classify(ctx, text)
	if err != nil {
		return s.fail(res, err)
	}
	res.Status = StatusPredicted
	res.Code = code
	res.Label = ResolveLabel(code)
	res.Elapsed = time.Since(start)
	s.metrics.recordPrediction(res.Label, res.Elapsed)
	s.logger.Info("prediction",
		zap.String("id", res.ID),
		zap.Int("code", res.Code),
		zap.String("label", res.Label),
		zap.String("language", res.Language),
		zap.Bool("normalized", res.Normalized),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

func (s *Service) fail(res Result, err error) (Result, error) {
	s.metrics.recordError()
	s.logger.Error("prediction failed", zap.String("id", res.ID), zap.Error(err))
	return res, fmt.Errorf("predict: %w", err)
}

// PredictAll runs Predict for every text in order. progress, when non-nil, is
// called after each text. The first error stops the batch.
func (s *Service) PredictAll(ctx context.Context, texts []string, progress func(done, total int)) ([]Result, error) {
	results := make([]Result, 0, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.Predict(ctx, text)
		if err != nil {
			return results, fmt.Errorf("row %d: %w", i+1, err)
		}
		results = append(results, res)
		if progress != nil {
			progress(i+1, len(texts))
		}
	}
	return results, nil
}

// Package pipeline sequences the verification stages for one document
// and reduces failures to terminal statuses.
package pipeline

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/kyc-verify/internal/fault"
	"github.com/example/kyc-verify/internal/imageproc"
	"github.com/example/kyc-verify/internal/logging"
	"github.com/example/kyc-verify/internal/schema"
	"github.com/example/kyc-verify/internal/store"
	"github.com/example/kyc-verify/internal/validator"
)

// Extractor obtains a structured payload for a normalized image.
type Extractor interface {
	Extract(ctx context.Context, imageBytes []byte, mimeType string) (*schema.ExtractionPayload, error)
}

// Result is the externally visible unit of work for one submitted
// image. Immutable after construction.
type Result struct {
	Status        schema.Status `json:"status"`
	Score         float64       `json:"score"`
	LogicScore    float64       `json:"logic_score"`
	PHash         string        `json:"phash"`
	Issues        []string      `json:"issues"`
	FlaggedFields []string      `json:"flagged_fields"`
	Payload       any           `json:"payload"`
}

// Pipeline wires the verification stages together. The fingerprint
// store is the only state shared across documents.
type Pipeline struct {
	processor    *imageproc.Processor
	extractor    Extractor
	validator    *validator.DocumentValidator
	fingerprints store.FingerprintStore
	logger       *zap.Logger
}

// New constructs a pipeline from its collaborators.
func New(processor *imageproc.Processor, ext Extractor, v *validator.DocumentValidator, fingerprints store.FingerprintStore, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		processor:    processor,
		extractor:    ext,
		validator:    v,
		fingerprints: fingerprints,
		logger:       logging.Component(logger, "pipeline"),
	}
}

// Run executes dedup, quality gate, normalize, extract, validate, and
// aggregate for one image. Expected failures come back as fault errors;
// anything else is a defect and propagates untouched.
func (p *Pipeline) Run(ctx context.Context, imageBytes []byte, mimeType string) (*Result, error) {
	requestID := uuid.NewString()
	opLogger := logging.WithRequest(p.logger, "run", requestID)

	phash, err := p.processor.Fingerprint(imageBytes)
	if err != nil {
		return nil, err
	}

	seen, err := p.fingerprints.Contains(ctx, phash)
	if err != nil {
		return nil, logging.NewStageError("dedup_lookup", requestID, err)
	}
	if seen {
		opLogger.Warn("duplicate upload rejected", zap.String("phash", phash))
		return nil, fault.New(fault.Reject, "Duplicate upload detected.")
	}
	if err := p.fingerprints.Add(ctx, phash); err != nil {
		return nil, logging.NewStageError("dedup_record", requestID, err)
	}

	report, err := p.processor.Check(imageBytes)
	if err != nil {
		return nil, err
	}

	normalized, normalizedMIME, err := p.processor.Normalize(imageBytes)
	if err != nil {
		return nil, err
	}
	// Normalize may re-encode into a different container; the data URI
	// must describe the bytes actually sent.
	if normalizedMIME != "" {
		mimeType = normalizedMIME
	}

	payload, err := p.extractor.Extract(ctx, normalized, mimeType)
	if err != nil {
		return nil, err
	}

	outcome := p.validator.Assess(payload, report.Score)
	opLogger.Info("document assessed",
		zap.String("status", string(outcome.Status)),
		zap.Float64("ucs", outcome.UCS),
		zap.Float64("logic_score", outcome.LogicScore),
		zap.String("phash", phash))

	return &Result{
		Status:        outcome.Status,
		Score:         outcome.UCS,
		LogicScore:    outcome.LogicScore,
		PHash:         phash,
		Issues:        outcome.Issues,
		FlaggedFields: outcome.FlaggedFields,
		Payload:       payload,
	}, nil
}

// Process runs the pipeline and converts expected failures into
// terminal results: input-quality rejects ask for a resubmission,
// service and schema failures report a system error. Unexpected errors
// still propagate so batch callers can decide how to record them.
func (p *Pipeline) Process(ctx context.Context, imageBytes []byte, mimeType string) (*Result, error) {
	result, err := p.Run(ctx, imageBytes, mimeType)
	if err == nil {
		return result, nil
	}

	var failure *fault.Failure
	if !errors.As(err, &failure) {
		return nil, err
	}

	switch failure.Kind {
	case fault.Reject:
		return terminalResult(schema.StatusRetryUpload, failure.Error()), nil
	default:
		return terminalResult(schema.StatusSystemError, "API/parsing failure: "+failure.Error()), nil
	}
}

func terminalResult(status schema.Status, issue string) *Result {
	return &Result{
		Status:        status,
		Issues:        []string{issue},
		FlaggedFields: []string{},
		Payload:       map[string]any{},
	}
}

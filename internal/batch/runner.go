// Package batch processes a directory of document images sequentially
// and writes one result file per image plus an aggregate summary.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/example/kyc-verify/internal/imageproc"
	"github.com/example/kyc-verify/internal/logging"
	"github.com/example/kyc-verify/internal/pipeline"
	"github.com/example/kyc-verify/internal/schema"
)

// FileResult is one line of the batch summary.
type FileResult struct {
	File   string        `json:"file"`
	Status schema.Status `json:"status"`
	Score  float64       `json:"score"`
	Issues []string      `json:"issues"`
	Output string        `json:"output"`
}

// Summary aggregates a batch run by terminal status.
type Summary struct {
	Total        int          `json:"total"`
	Success      int          `json:"success"`
	ManualReview int          `json:"manual_review"`
	Retry        int          `json:"retry"`
	Error        int          `json:"error"`
	Results      []FileResult `json:"results"`
}

// Runner drives the pipeline over a directory of images.
type Runner struct {
	pipeline *pipeline.Pipeline
	logger   *zap.Logger
}

// NewRunner wraps a pipeline for batch use.
func NewRunner(p *pipeline.Pipeline, logger *zap.Logger) *Runner {
	return &Runner{pipeline: p, logger: logging.Component(logger, "batch")}
}

// Run processes every supported image in inputDir in name order. One
// bad file never aborts the run: its terminal status is recorded and
// processing continues.
func (r *Runner) Run(ctx context.Context, inputDir, outputDir, mimeOverride string) (*Summary, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && imageproc.SupportedImageFile(entry.Name()) {
			files = append(files, entry.Name())
		}
	}

	summary := &Summary{Results: []FileResult{}}
	if len(files) == 0 {
		r.logger.Warn("no image files found", zap.String("input_dir", inputDir))
		return summary, nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, name := range files {
		opLogger := logging.WithRequest(r.logger, "process_file", "").
			With(zap.String("file", name))
		opLogger.Info("processing document")

		result := r.processFile(ctx, filepath.Join(inputDir, name), mimeOverride, opLogger)

		outFile := filepath.Join(outputDir, stem(name)+".json")
		if err := writeJSON(outFile, result); err != nil {
			opLogger.Error("failed to write result file", zap.Error(err))
		}

		summary.Total++
		switch result.Status {
		case schema.StatusSuccess:
			summary.Success++
		case schema.StatusManualReview:
			summary.ManualReview++
		case schema.StatusRetryUpload:
			summary.Retry++
		default:
			summary.Error++
		}
		summary.Results = append(summary.Results, FileResult{
			File:   name,
			Status: result.Status,
			Score:  result.Score,
			Issues: result.Issues,
			Output: outFile,
		})
	}

	summaryFile := filepath.Join(outputDir, "summary.json")
	if err := writeJSON(summaryFile, summary); err != nil {
		return nil, fmt.Errorf("failed to write batch summary: %w", err)
	}
	r.logger.Info("batch summary written", zap.String("path", summaryFile))

	return summary, nil
}

// processFile always yields a terminal result: read errors and
// unexpected pipeline defects are recorded as system errors for this
// file rather than aborting the batch.
func (r *Runner) processFile(ctx context.Context, path, mimeOverride string, opLogger *zap.Logger) *pipeline.Result {
	data, err := os.ReadFile(path)
	if err != nil {
		opLogger.Error("failed to read image", zap.Error(err))
		return systemErrorResult(fmt.Sprintf("Failed to read image: %v", err))
	}

	mimeType := mimeOverride
	if mimeType == "" {
		mimeType = imageproc.MIMEFromPath(path)
	}

	result, err := r.pipeline.Process(ctx, data, mimeType)
	if err != nil {
		opLogger.Error("unexpected pipeline failure", zap.Error(err))
		return systemErrorResult(fmt.Sprintf("Unexpected failure: %v", err))
	}
	return result
}

func systemErrorResult(issue string) *pipeline.Result {
	return &pipeline.Result{
		Status:        schema.StatusSystemError,
		Issues:        []string{issue},
		FlaggedFields: []string{},
		Payload:       map[string]any{},
	}
}

func writeJSON(path string, value any) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, encoded, 0o644)
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

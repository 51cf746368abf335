package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/example/kyc-verify/internal/imageproc"
	"github.com/example/kyc-verify/internal/pipeline"
	"github.com/example/kyc-verify/internal/schema"
	"github.com/example/kyc-verify/internal/store"
	"github.com/example/kyc-verify/internal/validator"
)

type stubExtractor struct{}

func (stubExtractor) Extract(context.Context, []byte, string) (*schema.ExtractionPayload, error) {
	number := "L898902C3"
	return &schema.ExtractionPayload{
		DocumentType: schema.DocPassport,
		AIConfidence: 1.0,
		Passport: &schema.PassportRecord{
			DocumentRecord: schema.DocumentRecord{DocumentNumber: &number},
		},
	}, nil
}

func newTestRunner() *Runner {
	pipe := pipeline.New(imageproc.NewProcessor(80, 1024), stubExtractor{}, validator.New(), store.NewMemoryStore(), zap.NewNop())
	return NewRunner(pipe, zap.NewNop())
}

func writeImage(t *testing.T, dir, name string, render func(*image.Gray)) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	render(img)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}
}

func checkerboard(img *image.Gray) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
}

func diagonalStripes(img *image.Gray) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if (x+2*y)%5 < 2 {
				img.SetGray(x, y, color.Gray{Y: 230})
			}
		}
	}
}

func flat(img *image.Gray) {
	for i := range img.Pix {
		img.Pix[i] = 128
	}
}

func TestRunProcessesDirectory(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "results")

	writeImage(t, inputDir, "a_sharp.png", checkerboard)
	writeImage(t, inputDir, "b_blurry.png", flat)
	writeImage(t, inputDir, "c_striped.png", diagonalStripes)
	if err := os.WriteFile(filepath.Join(inputDir, "notes.txt"), []byte("skip me"), 0o644); err != nil {
		t.Fatalf("failed to write non-image file: %v", err)
	}

	summary, err := newTestRunner().Run(context.Background(), inputDir, outputDir, "")
	if err != nil {
		t.Fatalf("batch run failed: %v", err)
	}

	if summary.Total != 3 {
		t.Fatalf("expected 3 processed files, got %d", summary.Total)
	}
	if summary.Success != 2 {
		t.Fatalf("expected 2 successes, got %d (results %+v)", summary.Success, summary.Results)
	}
	if summary.Retry != 1 {
		t.Fatalf("expected 1 retry, got %d", summary.Retry)
	}

	// One result file per image plus the aggregate summary.
	for _, name := range []string{"a_sharp.json", "b_blurry.json", "c_striped.json", "summary.json"} {
		if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
			t.Fatalf("expected output file %s: %v", name, err)
		}
	}

	raw, err := os.ReadFile(filepath.Join(outputDir, "summary.json"))
	if err != nil {
		t.Fatalf("failed to read summary: %v", err)
	}
	var decoded Summary
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("summary is not valid JSON: %v", err)
	}
	if decoded.Total != summary.Total || len(decoded.Results) != 3 {
		t.Fatalf("summary file disagrees with returned summary: %+v", decoded)
	}
}

func TestRunRecordsDuplicates(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeImage(t, inputDir, "first.png", checkerboard)
	writeImage(t, inputDir, "second.png", checkerboard)

	summary, err := newTestRunner().Run(context.Background(), inputDir, outputDir, "")
	if err != nil {
		t.Fatalf("batch run failed: %v", err)
	}

	if summary.Success != 1 || summary.Retry != 1 {
		t.Fatalf("expected one success and one duplicate retry, got %+v", summary)
	}

	raw, err := os.ReadFile(filepath.Join(outputDir, "second.json"))
	if err != nil {
		t.Fatalf("failed to read duplicate result: %v", err)
	}
	var result pipeline.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if result.Status != schema.StatusRetryUpload {
		t.Fatalf("expected RETRY_UPLOAD for the duplicate, got %s", result.Status)
	}
	if len(result.Issues) != 1 || result.Issues[0] != "Duplicate upload detected." {
		t.Fatalf("unexpected issues: %v", result.Issues)
	}
}

func TestRunUndecodableFileDoesNotAbortBatch(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(inputDir, "broken.jpg"), []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write broken file: %v", err)
	}
	writeImage(t, inputDir, "good.png", checkerboard)

	summary, err := newTestRunner().Run(context.Background(), inputDir, outputDir, "")
	if err != nil {
		t.Fatalf("batch run failed: %v", err)
	}

	if summary.Total != 2 {
		t.Fatalf("expected both files processed, got %d", summary.Total)
	}
	if summary.Success != 1 {
		t.Fatalf("expected the good file to succeed, got %+v", summary)
	}
	// An undecodable image is an input problem, not a system error.
	if summary.Retry != 1 {
		t.Fatalf("expected the broken file to ask for a re-upload, got %+v", summary)
	}
}

func TestRunEmptyDirectory(t *testing.T) {
	summary, err := newTestRunner().Run(context.Background(), t.TempDir(), t.TempDir(), "")
	if err != nil {
		t.Fatalf("batch run failed: %v", err)
	}
	if summary.Total != 0 || len(summary.Results) != 0 {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
}

// Package imageproc implements the pre-extraction image stages: the
// blur quality gate, the perceptual fingerprint, and the size normalizer.
package imageproc

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	xdraw "golang.org/x/image/draw"

	// Additional upload container formats, decode only.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/example/kyc-verify/internal/fault"
)

const jpegQuality = 90

// QualityReport is the outcome of the blur gate for one image.
type QualityReport struct {
	Score     float64
	Threshold float64
}

// Processor holds the tunables shared by the image stages.
type Processor struct {
	QualityThreshold float64
	MaxSide          int
}

// NewProcessor returns a processor with the given blur threshold and
// longest-side cap.
func NewProcessor(qualityThreshold float64, maxSide int) *Processor {
	return &Processor{QualityThreshold: qualityThreshold, MaxSide: maxSide}
}

// Check decodes the image and rejects it when the Laplacian variance, a
// cheap focus proxy, falls below the configured threshold.
func (p *Processor) Check(data []byte) (QualityReport, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return QualityReport{}, fault.Wrap(fault.Reject, err, "Invalid image input; cannot decode.")
	}

	score := laplacianVariance(grayscale(img))
	if score < p.QualityThreshold {
		return QualityReport{}, fault.New(fault.Reject,
			"Image too blurry (score %.2f < %.2f).", score, p.QualityThreshold)
	}
	return QualityReport{Score: score, Threshold: p.QualityThreshold}, nil
}

// Normalize caps the longest side at MaxSide, preserving aspect ratio.
// Images already within the cap are returned byte-identical; nothing is
// ever upscaled. The returned MIME type describes the output bytes,
// which may differ from the input container when re-encoding falls back
// to JPEG.
func (p *Processor) Normalize(data []byte) ([]byte, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fault.Wrap(fault.Reject, err, "Invalid image input; cannot decode.")
	}

	longest := cfg.Width
	if cfg.Height > longest {
		longest = cfg.Height
	}
	if longest <= p.MaxSide {
		return data, mimeForFormat(format), nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fault.Wrap(fault.Reject, err, "Invalid image input; cannot decode.")
	}

	scale := float64(p.MaxSide) / float64(longest)
	width := int(float64(cfg.Width) * scale)
	height := int(float64(cfg.Height) * scale)
	resized := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(resized, resized.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	var out bytes.Buffer
	outFormat := format
	switch format {
	case "png":
		err = png.Encode(&out, resized)
	case "gif":
		err = gif.Encode(&out, resized, nil)
	default:
		// JPEG, plus formats without a Go encoder (webp, bmp, tiff).
		outFormat = "jpeg"
		err = jpeg.Encode(&out, resized, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, "", err
	}
	return out.Bytes(), mimeForFormat(outFormat), nil
}

// grayscale converts any decoded image to 8-bit luminance.
func grayscale(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(gray, gray.Bounds(), img, bounds.Min, xdraw.Src)
	return gray
}

// laplacianVariance applies the 4-neighbor second-derivative kernel with
// reflected borders and returns the population variance of the response.
func laplacianVariance(gray *image.Gray) float64 {
	width := gray.Rect.Dx()
	height := gray.Rect.Dy()
	if width < 2 || height < 2 {
		return 0
	}

	at := func(x, y int) float64 {
		return float64(gray.GrayAt(gray.Rect.Min.X+x, gray.Rect.Min.Y+y).Y)
	}
	reflect := func(i, n int) int {
		if i < 0 {
			return -i
		}
		if i >= n {
			return 2*n - i - 2
		}
		return i
	}

	responses := make([]float64, 0, width*height)
	var sum float64
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := at(reflect(x-1, width), y) + at(reflect(x+1, width), y) +
				at(x, reflect(y-1, height)) + at(x, reflect(y+1, height)) -
				4*at(x, y)
			responses = append(responses, v)
			sum += v
		}
	}

	mean := sum / float64(len(responses))
	var variance float64
	for _, v := range responses {
		d := v - mean
		variance += d * d
	}
	return variance / float64(len(responses))
}

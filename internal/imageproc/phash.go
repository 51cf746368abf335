package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"sort"

	xdraw "golang.org/x/image/draw"

	"github.com/example/kyc-verify/internal/fault"
)

const (
	phashGrid = 32
	phashBits = 8
)

// Fingerprint computes a deterministic perceptual hash of the image:
// grayscale, downscale to a 32x32 grid, 2-D DCT, then one bit per
// coefficient of the 8x8 low-frequency block against the block median.
// Robust to recompression and resizing, explicitly not cryptographic.
func (p *Processor) Fingerprint(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fault.Wrap(fault.Reject, err, "Invalid image input; cannot decode.")
	}

	small := image.NewGray(image.Rect(0, 0, phashGrid, phashGrid))
	xdraw.CatmullRom.Scale(small, small.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	grid := make([][]float64, phashGrid)
	for y := range grid {
		grid[y] = make([]float64, phashGrid)
		for x := range grid[y] {
			grid[y][x] = float64(small.GrayAt(x, y).Y)
		}
	}

	coeffs := dct2d(grid)
	low := make([]float64, 0, phashBits*phashBits)
	for y := 0; y < phashBits; y++ {
		for x := 0; x < phashBits; x++ {
			low = append(low, coeffs[y][x])
		}
	}

	med := median(low)
	var hash uint64
	for _, v := range low {
		hash <<= 1
		if v > med {
			hash |= 1
		}
	}
	return fmt.Sprintf("%016x", hash), nil
}

// dct2d computes the orthonormal 2-D DCT-II of a square grid, applied
// separably over rows then columns.
func dct2d(grid [][]float64) [][]float64 {
	n := len(grid)
	basis := make([][]float64, n)
	for u := range basis {
		basis[u] = make([]float64, n)
		scale := math.Sqrt(2.0 / float64(n))
		if u == 0 {
			scale = math.Sqrt(1.0 / float64(n))
		}
		for x := 0; x < n; x++ {
			basis[u][x] = scale * math.Cos(float64(2*x+1)*float64(u)*math.Pi/float64(2*n))
		}
	}

	rows := make([][]float64, n)
	for y := 0; y < n; y++ {
		rows[y] = make([]float64, n)
		for u := 0; u < n; u++ {
			var sum float64
			for x := 0; x < n; x++ {
				sum += basis[u][x] * grid[y][x]
			}
			rows[y][u] = sum
		}
	}

	out := make([][]float64, n)
	for v := 0; v < n; v++ {
		out[v] = make([]float64, n)
		for u := 0; u < n; u++ {
			var sum float64
			for y := 0; y < n; y++ {
				sum += basis[v][y] * rows[y][u]
			}
			out[v][u] = sum
		}
	}
	return out
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

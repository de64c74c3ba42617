package offset

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// Strategy is the pluggable overlap-similarity metric used to find the
// displacement between two adjacent tiles. Implementations return the
// displacement in pixels along axis (distance between the two tile
// origins) and a similarity score in [0,1] for the best match.
type Strategy interface {
	Displacement(a, b image.Image, axis Axis) (d int, score float64, err error)
}

// CrossCorrelation finds the overlap width that maximizes the normalized
// cross-correlation between the trailing strip of one tile and the leading
// strip of its neighbor. It is robust to uniform brightness differences
// between tiles but assumes pure translation, which holds for stage-driven
// acquisition grids.
type CrossCorrelation struct {
	// MinOverlap is the smallest overlap considered, in pixels.
	// Defaults to 4.
	MinOverlap int

	// MaxOverlapFrac caps the search range as a fraction of the tile
	// dimension. Defaults to 0.5.
	MaxOverlapFrac float64
}

// Displacement implements Strategy.
func (s CrossCorrelation) Displacement(a, b image.Image, axis Axis) (int, float64, error) {
	minOv := s.MinOverlap
	if minOv <= 0 {
		minOv = 4
	}
	frac := s.MaxOverlapFrac
	if frac <= 0 || frac > 1 {
		frac = 0.5
	}

	ga := toGray(a)
	gb := toGray(b)
	if ga.Rect != gb.Rect {
		return 0, 0, fmt.Errorf("tile dimensions differ: %v vs %v", ga.Rect.Size(), gb.Rect.Size())
	}

	var dim int
	if axis == Horizontal {
		dim = ga.Rect.Dx()
	} else {
		dim = ga.Rect.Dy()
	}
	maxOv := int(float64(dim) * frac)
	if maxOv < minOv {
		return 0, 0, fmt.Errorf("tile too small for overlap search: %d px along %s", dim, axis)
	}

	bestOv, bestScore := 0, math.Inf(-1)
	for ov := minOv; ov <= maxOv; ov++ {
		score := s.correlate(ga, gb, axis, ov)
		if score > bestScore {
			bestScore = score
			bestOv = ov
		}
	}
	if bestOv == 0 {
		return 0, 0, fmt.Errorf("no overlap candidate along %s", axis)
	}
	return dim - bestOv, clampScore(bestScore), nil
}

// correlate scores the hypothesis that a and b overlap by ov pixels along
// axis, using zero-mean normalized cross-correlation of the overlapping
// strips.
func (s CrossCorrelation) correlate(a, b *image.Gray, axis Axis, ov int) float64 {
	w, h := a.Rect.Dx(), a.Rect.Dy()

	var n int
	var sumA, sumB float64

	// First pass: means over the overlapping strips.
	if axis == Horizontal {
		for y := 0; y < h; y++ {
			for i := 0; i < ov; i++ {
				sumA += float64(a.GrayAt(w-ov+i, y).Y)
				sumB += float64(b.GrayAt(i, y).Y)
				n++
			}
		}
	} else {
		for i := 0; i < ov; i++ {
			for x := 0; x < w; x++ {
				sumA += float64(a.GrayAt(x, h-ov+i).Y)
				sumB += float64(b.GrayAt(x, i).Y)
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	meanA, meanB := sumA/float64(n), sumB/float64(n)

	// Second pass: correlation of the centered strips.
	var num, varA, varB float64
	accumulate := func(pa, pb float64) {
		da, db := pa-meanA, pb-meanB
		num += da * db
		varA += da * da
		varB += db * db
	}
	if axis == Horizontal {
		for y := 0; y < h; y++ {
			for i := 0; i < ov; i++ {
				accumulate(float64(a.GrayAt(w-ov+i, y).Y), float64(b.GrayAt(i, y).Y))
			}
		}
	} else {
		for i := 0; i < ov; i++ {
			for x := 0; x < w; x++ {
				accumulate(float64(a.GrayAt(x, h-ov+i).Y), float64(b.GrayAt(x, i).Y))
			}
		}
	}
	if varA == 0 || varB == 0 {
		// Featureless strip, correlation undefined.
		return 0
	}
	return num / math.Sqrt(varA*varB)
}

// toGray converts img to 8-bit grayscale, normalizing bounds to the origin.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	bounds := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, gc, b, _ := img.At(x, y).RGBA()
			// Rec. 601 luma, 16-bit channels down to 8 bits.
			lum := (299*r + 587*gc + 114*b) / 1000
			g.SetGray(x-bounds.Min.X, y-bounds.Min.Y, color.Gray{Y: uint8(lum >> 8)})
		}
	}
	return g
}

func clampScore(s float64) float64 {
	return math.Max(0, math.Min(1, s))
}

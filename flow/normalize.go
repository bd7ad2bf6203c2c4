package flow

import (
	"math"

	"github.com/golang/geo/r3"
)

const magnitudeRangeEpsilon = 1e-12

// NormalizeMagnitudes rescales the vector magnitudes linearly onto [0, 1],
// keeping every vector's direction: after rescaling the smallest magnitude
// in the set is 0 and the largest is 1. The input is untouched. When all
// magnitudes agree within epsilon there is no range to stretch and the
// vectors are returned unchanged; zero vectors stay zero.
func NormalizeMagnitudes(vectors []r3.Vector) []r3.Vector {
	out := make([]r3.Vector, len(vectors))
	if len(vectors) == 0 {
		return out
	}

	mags := make([]float64, len(vectors))
	minMag := math.Inf(1)
	maxMag := math.Inf(-1)
	for i, v := range vectors {
		mags[i] = v.Norm()
		if mags[i] < minMag {
			minMag = mags[i]
		}
		if mags[i] > maxMag {
			maxMag = mags[i]
		}
	}
	if maxMag-minMag < magnitudeRangeEpsilon {
		copy(out, vectors)
		return out
	}

	scale := 1.0 / (maxMag - minMag)
	for i, v := range vectors {
		if mags[i] == 0 {
			continue
		}
		newMag := (mags[i] - minMag) * scale
		out[i] = v.Mul(newMag / mags[i])
	}
	return out
}

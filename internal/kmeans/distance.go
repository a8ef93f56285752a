package kmeans

import (
	"math"
)

// DistanceFunc represents a function for measuring distance between n-dimensional vectors.
type DistanceFunc func([]float64, []float64) float64

var (
	// EuclideanDistance is one of the common distance measurement.
	EuclideanDistance = func(a, b []float64) float64 {
		return math.Sqrt(EuclideanDistanceSquared(a, b))
	}

	// EuclideanDistanceSquared skips the final square root. Ordering of
	// distances is preserved, so it is safe for nearest-centroid assignment.
	EuclideanDistanceSquared = func(a, b []float64) float64 {
		var (
			s, t float64
		)

		for i := range a {
			t = a[i] - b[i]
			s += t * t
		}

		return s
	}
)

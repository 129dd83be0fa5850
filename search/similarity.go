package search

import "math"

// CosineSimilarity computes the cosine of the angle between two vectors.
// If either vector has zero magnitude the result is 0, not an error; the
// result is clamped to [-1, 1] to absorb floating point drift. Vectors of
// unequal length are compared over their shared prefix.
func CosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, magA, magB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	similarity := dot / (math.Sqrt(magA) * math.Sqrt(magB))
	if similarity > 1 {
		return 1
	}
	if similarity < -1 {
		return -1
	}
	return float32(similarity)
}

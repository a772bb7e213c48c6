package catalog

import "math"

// CosineSimilarity computes the cosine similarity between two vectors,
// between -1 (opposite) and 1 (identical). Returns 0 for mismatched lengths
// or zero-magnitude input.
//
// This is the single similarity metric of the engine: the catalog index and
// the cart removal search both use it, so retrieval behaves consistently
// across the two point sets.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

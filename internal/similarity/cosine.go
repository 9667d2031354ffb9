package similarity

import "math"

// Cosine returns the cosine similarity of two vectors. Vectors of different
// length or with zero norm give 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	// scaled sum of squares keeps the norms from overflowing
	l2norm := func(v float64, s, t float64) (float64, float64) {
		if v == 0 {
			return s, t
		}

		abs := math.Abs(v)
		if abs > t {
			r := t / v
			s = 1 + s*r*r
			t = abs
		} else {
			r := v / t
			s = s + r*r
		}
		return s, t
	}

	dot := 0.0
	s1, t1 := 1.0, 0.0
	s2, t2 := 1.0, 0.0

	for i := range a {
		v1 := float64(a[i])
		v2 := float64(b[i])

		dot += v1 * v2

		s1, t1 = l2norm(v1, s1, t1)
		s2, t2 = l2norm(v2, s2, t2)
	}

	n1 := t1 * math.Sqrt(s1)
	n2 := t2 * math.Sqrt(s2)
	if n1 == 0 || n2 == 0 {
		return 0
	}

	sim := dot / (n1 * n2)
	return math.Max(-1, math.Min(1, sim))
}

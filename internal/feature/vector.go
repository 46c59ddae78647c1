package feature

import "math"

// Vector is a sparse term-index -> weight mapping.
type Vector map[int]float64

func (v Vector) Norm() float64 {
	var sum float64
	for _, w := range v {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of two sparse vectors. A zero vector
// on either side yields 0, never an error.
func Cosine(a, b Vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// Iterate the smaller map.
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for i, wa := range a {
		if wb, ok := b[i]; ok {
			dot += wa * wb
		}
	}
	if dot == 0 {
		return 0
	}
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (na * nb)
}

package memory

import "github.com/aretw0/framegraph/pkg/domain"

// Face builds a 468-point face set centered on (x, y) whose inner lips are
// jaw apart.
func Face(x, y, jaw float64) domain.LandmarkSet {
	set := fill(468, x, y)
	set[1] = domain.Landmark{X: x, Y: y}
	set[13] = domain.Landmark{X: x, Y: y + 0.05}
	set[14] = domain.Landmark{X: x, Y: y + 0.05 + jaw}
	return set
}

// Hand builds a 21-point hand set with the index tip at (x, y) and the thumb
// tip pinch away from it.
func Hand(x, y, pinch float64) domain.LandmarkSet {
	set := fill(21, x, y+0.1)
	set[8] = domain.Landmark{X: x, Y: y}
	set[4] = domain.Landmark{X: x - pinch, Y: y}
	return set
}

func fill(n int, x, y float64) domain.LandmarkSet {
	set := make(domain.LandmarkSet, n)
	for i := range set {
		set[i] = domain.Landmark{X: x, Y: y}
	}
	return set
}

package mutagens

import "math/rand"

// BoundaryValues are the classic off-by-one and extreme inputs.
var BoundaryValues = []float64{0, 1, -1, 100, -100}

// Boundary replaces the gene with one of BoundaryValues.
type Boundary struct{}

// Name returns the strategy name.
func (Boundary) Name() string { return "boundary" }

// Weight returns the relative selection weight.
func (Boundary) Weight() int { return 2 }

// Apply overwrites genes[i].
func (Boundary) Apply(rng *rand.Rand, genes []float64, i int) {
	genes[i] = BoundaryValues[rng.Intn(len(BoundaryValues))]
}

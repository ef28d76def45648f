package mutagens

import "math/rand"

// DefaultDeltaRange bounds the delta offset when none is configured.
const DefaultDeltaRange = 10

// Delta adds a non-zero signed offset in [-Range, Range] to the gene.
type Delta struct {
	Range int
}

// Name returns the strategy name.
func (Delta) Name() string { return "delta" }

// Weight returns the relative selection weight.
func (Delta) Weight() int { return 4 }

// Apply shifts genes[i].
func (d Delta) Apply(rng *rand.Rand, genes []float64, i int) {
	r := d.Range
	if r <= 0 {
		r = DefaultDeltaRange
	}

	offset := float64(rng.Intn(r) + 1)
	if rng.Intn(2) == 0 {
		offset = -offset
	}

	genes[i] += offset
}

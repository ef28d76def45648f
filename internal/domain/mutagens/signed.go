package mutagens

import (
	"math"
	"math/rand"
)

// SignedPair forces one gene positive and another negative to exercise sign
// handling. With a single gene it flips that gene's sign.
type SignedPair struct{}

// Name returns the strategy name.
func (SignedPair) Name() string { return "signed_pair" }

// Weight returns the relative selection weight.
func (SignedPair) Weight() int { return 1 }

// Apply makes genes[i] and a randomly chosen partner carry opposite signs.
func (SignedPair) Apply(rng *rand.Rand, genes []float64, i int) {
	if len(genes) < 2 {
		genes[i] = -genes[i]
		return
	}

	j := rng.Intn(len(genes) - 1)
	if j >= i {
		j++
	}

	pos, neg := i, j
	if rng.Intn(2) == 1 {
		pos, neg = j, i
	}

	genes[pos] = math.Max(math.Abs(genes[pos]), 1)
	genes[neg] = -math.Max(math.Abs(genes[neg]), 1)
}

package mutagens

import "math/rand"

// EqualValue forces every gene to the value of the selected gene, probing
// equality boundaries such as a == b == c.
type EqualValue struct{}

// Name returns the strategy name.
func (EqualValue) Name() string { return "equal" }

// Weight returns the relative selection weight.
func (EqualValue) Weight() int { return 1 }

// Apply sets all genes to genes[i].
func (EqualValue) Apply(_ *rand.Rand, genes []float64, i int) {
	v := genes[i]
	for j := range genes {
		genes[j] = v
	}
}

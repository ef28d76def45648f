// Package mutagens holds the gene mutation strategies applied by the
// population manager. Each strategy rewrites a gene vector in place.
package mutagens

import "math/rand"

// Mutagen is one mutation strategy. Apply is called with the index of the
// gene whose Bernoulli trial succeeded.
type Mutagen interface {
	Name() string
	Weight() int
	Apply(rng *rand.Rand, genes []float64, i int)
}

// Default returns the standard strategy set. deltaRange bounds the offset of
// the delta strategy.
func Default(deltaRange int) []Mutagen {
	return []Mutagen{
		EqualValue{},
		SignedPair{},
		Boundary{},
		Delta{Range: deltaRange},
	}
}

// Pick draws one mutagen with probability proportional to its weight.
// It returns nil when no mutagen has a positive weight.
func Pick(rng *rand.Rand, list []Mutagen) Mutagen {
	total := 0
	for _, mg := range list {
		if mg.Weight() > 0 {
			total += mg.Weight()
		}
	}

	if total == 0 {
		return nil
	}

	n := rng.Intn(total)
	for _, mg := range list {
		if mg.Weight() <= 0 {
			continue
		}

		if n < mg.Weight() {
			return mg
		}

		n -= mg.Weight()
	}

	return nil
}

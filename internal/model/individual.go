package model

// PopulationState tracks where a population is in its lifecycle.
type PopulationState string

// Population states.
const (
	StateCreated PopulationState = "CREATED"
	StateEvolved PopulationState = "EVOLVED"
)

// Individual is one candidate test input.
type Individual struct {
	ID              string          `json:"id" yaml:"id"`
	Genes           []float64       `json:"genes" yaml:"genes"`
	Fitness         float64         `json:"fitness" yaml:"fitness"`
	CoveredBranches BranchSet       `json:"covered_branches" yaml:"covered_branches"`
	Generation      int             `json:"generation" yaml:"generation"`
	Status          ExecutionStatus `json:"status,omitempty" yaml:"status,omitempty"`
	Evaluated       bool            `json:"evaluated" yaml:"evaluated"`
}

// Clone returns a deep copy of the individual.
func (ind *Individual) Clone() *Individual {
	c := *ind
	c.Genes = append([]float64(nil), ind.Genes...)
	c.CoveredBranches = ind.CoveredBranches.Copy()

	return &c
}

// Population is one generation of individuals owned by a session. Frontier
// is the union of every branch any individual has covered so far.
// TargetHash fingerprints the source the session was evolved against.
type Population struct {
	SessionID     string          `json:"session_id" yaml:"session_id"`
	TargetHash    string          `json:"target_hash,omitempty" yaml:"target_hash,omitempty"`
	Generation    int             `json:"generation" yaml:"generation"`
	State         PopulationState `json:"state" yaml:"state"`
	Spec          ParameterSpec   `json:"spec" yaml:"spec"`
	Individuals   []*Individual   `json:"individuals" yaml:"individuals"`
	Frontier      BranchSet       `json:"frontier" yaml:"frontier"`
	TotalBranches int             `json:"total_branches" yaml:"total_branches"`
}

// Size returns the number of individuals.
func (p *Population) Size() int {
	return len(p.Individuals)
}

// Best returns the fittest individual, earliest on ties, or nil when empty.
func (p *Population) Best() *Individual {
	var best *Individual
	for _, ind := range p.Individuals {
		if best == nil || ind.Fitness > best.Fitness {
			best = ind
		}
	}

	return best
}

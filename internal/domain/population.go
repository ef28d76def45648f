package domain

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"spectra.dev/pkg/spectra/internal/domain/mutagens"
	m "spectra.dev/pkg/spectra/internal/model"
)

// GA defaults.
const (
	DefaultTournamentSize = 3
	DefaultEliteCount     = 2
	DefaultBoundaryBias   = 0.25
	MinPopulationSize     = 2
)

// GAConfig tunes the genetic operators.
type GAConfig struct {
	TournamentSize int
	EliteCount     int
	// BoundaryBias is the chance that an initial gene is a boundary value.
	BoundaryBias float64
	DeltaRange   int
}

// DefaultGAConfig returns the standard operator settings.
func DefaultGAConfig() GAConfig {
	return GAConfig{
		TournamentSize: DefaultTournamentSize,
		EliteCount:     DefaultEliteCount,
		BoundaryBias:   DefaultBoundaryBias,
		DeltaRange:     mutagens.DefaultDeltaRange,
	}
}

// Validate rejects settings the operators cannot work with.
func (c GAConfig) Validate() error {
	if c.TournamentSize < 1 {
		return newConfigurationError("ga.tournament_size", c.TournamentSize, "must be at least 1")
	}

	if c.EliteCount < 0 {
		return newConfigurationError("ga.elite_count", c.EliteCount, "must not be negative")
	}

	if c.DeltaRange < 1 {
		return newConfigurationError("ga.delta_range", c.DeltaRange, "must be at least 1")
	}

	return validateRate("ga.boundary_bias", c.BoundaryBias)
}

// PopulationManager owns the genetic operators. It performs exactly one step
// per call; looping and termination belong to the caller.
type PopulationManager interface {
	Initialize(sessionID string, spec m.ParameterSpec, size int) (*m.Population, error)
	Evaluate(ind *m.Individual, result m.TestExecutionResult, totalBranches int, frontier m.BranchSet)
	SelectParent(pop *m.Population) *m.Individual
	Crossover(a, b *m.Individual, rate float64) (*m.Individual, *m.Individual, error)
	Mutate(ind *m.Individual, rate float64) error
	AdvanceGeneration(pop *m.Population, mutationRate, crossoverRate float64) (*m.Population, error)
}

type populationManager struct {
	rng      *rand.Rand
	cfg      GAConfig
	fitness  FitnessEvaluator
	mutagens []mutagens.Mutagen
}

// NewPopulationManager builds a manager drawing all randomness from rng.
// Sharing rng between goroutines is not supported.
func NewPopulationManager(rng *rand.Rand, cfg GAConfig, fitness FitnessEvaluator) (PopulationManager, error) {
	if rng == nil {
		return nil, newConfigurationError("rng", nil, "random source is required")
	}

	if fitness == nil {
		return nil, newConfigurationError("fitness", nil, "fitness evaluator is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &populationManager{
		rng:      rng,
		cfg:      cfg,
		fitness:  fitness,
		mutagens: mutagens.Default(cfg.DeltaRange),
	}, nil
}

func (pm *populationManager) Initialize(sessionID string, spec m.ParameterSpec, size int) (*m.Population, error) {
	if size < MinPopulationSize {
		return nil, newConfigurationError("ga.population", size, fmt.Sprintf("must be at least %d", MinPopulationSize))
	}

	if len(spec) == 0 {
		return nil, newConfigurationError("parameters", len(spec), "parameter spec is empty")
	}

	params := make(m.ParameterSpec, len(spec))
	for i, p := range spec {
		params[i] = p.WithDefaults()
	}

	pop := &m.Population{
		SessionID:   sessionID,
		State:       m.StateCreated,
		Spec:        params,
		Frontier:    m.NewBranchSet(),
		Individuals: make([]*m.Individual, 0, size),
	}

	for i := 0; i < size; i++ {
		genes := make([]float64, len(params))
		for j, p := range params {
			genes[j] = pm.randomGene(p)
		}

		pop.Individuals = append(pop.Individuals, &m.Individual{
			ID:              pm.newID(),
			Genes:           genes,
			CoveredBranches: m.NewBranchSet(),
		})
	}

	slog.Debug("Initialized population", "session", sessionID, "size", size, "genes", len(params))

	return pop, nil
}

func (pm *populationManager) randomGene(p m.Parameter) float64 {
	if pm.rng.Float64() < pm.cfg.BoundaryBias {
		candidates := make([]float64, 0, 5)
		for _, v := range []float64{0, 1, -1, p.Min, p.Max} {
			if v >= p.Min && v <= p.Max {
				candidates = append(candidates, v)
			}
		}

		if len(candidates) > 0 {
			return p.Normalize(candidates[pm.rng.Intn(len(candidates))])
		}
	}

	if p.Kind == m.KindFloat {
		return p.Normalize(p.Min + pm.rng.Float64()*(p.Max-p.Min))
	}

	lo, hi := math.Ceil(p.Min), math.Floor(p.Max)
	if hi < lo {
		return p.Normalize(lo)
	}

	return p.Normalize(lo + float64(pm.rng.Int63n(int64(hi-lo)+1)))
}

func (pm *populationManager) Evaluate(ind *m.Individual, result m.TestExecutionResult, totalBranches int, frontier m.BranchSet) {
	ind.Fitness = pm.fitness.Score(result, totalBranches, frontier)
	ind.CoveredBranches = result.Coverage.BranchesHit.Copy()
	ind.Status = result.Status
	ind.Evaluated = true
}

// SelectParent runs a tournament over distinct members. The fittest wins and
// the earliest index wins ties.
func (pm *populationManager) SelectParent(pop *m.Population) *m.Individual {
	n := len(pop.Individuals)
	if n == 0 {
		return nil
	}

	k := pm.cfg.TournamentSize
	if k > n {
		k = n
	}

	sample := pm.rng.Perm(n)[:k]

	winner := sample[0]
	for _, idx := range sample[1:] {
		a, b := pop.Individuals[idx], pop.Individuals[winner]
		if a.Fitness > b.Fitness || (a.Fitness == b.Fitness && idx < winner) {
			winner = idx
		}
	}

	return pop.Individuals[winner]
}

// Crossover returns two children. Without recombination they are exact
// copies of a and b.
func (pm *populationManager) Crossover(a, b *m.Individual, rate float64) (*m.Individual, *m.Individual, error) {
	if err := validateRate("ga.crossover_rate", rate); err != nil {
		return nil, nil, err
	}

	if pm.rng.Float64() >= rate {
		return a.Clone(), b.Clone(), nil
	}

	n := len(a.Genes)
	if len(b.Genes) < n {
		n = len(b.Genes)
	}

	switch {
	case n == 0:
		return a.Clone(), b.Clone(), nil
	case n == 1:
		parent := a
		if pm.rng.Intn(2) == 1 {
			parent = b
		}

		return parent.Clone(), parent.Clone(), nil
	}

	cut := 1 + pm.rng.Intn(n-1)

	c1 := pm.child(a.Genes[:cut], b.Genes[cut:])
	c2 := pm.child(b.Genes[:cut], a.Genes[cut:])

	return c1, c2, nil
}

func (pm *populationManager) child(head, tail []float64) *m.Individual {
	genes := make([]float64, 0, len(head)+len(tail))
	genes = append(genes, head...)
	genes = append(genes, tail...)

	return &m.Individual{
		ID:              pm.newID(),
		Genes:           genes,
		CoveredBranches: m.NewBranchSet(),
	}
}

// Mutate applies at most one strategy per gene whose trial succeeds.
func (pm *populationManager) Mutate(ind *m.Individual, rate float64) error {
	if err := validateRate("ga.mutation_rate", rate); err != nil {
		return err
	}

	for i := range ind.Genes {
		if pm.rng.Float64() >= rate {
			continue
		}

		if mg := mutagens.Pick(pm.rng, pm.mutagens); mg != nil {
			mg.Apply(pm.rng, ind.Genes, i)
		}
	}

	return nil
}

func (pm *populationManager) AdvanceGeneration(pop *m.Population, mutationRate, crossoverRate float64) (*m.Population, error) {
	if err := validateRate("ga.mutation_rate", mutationRate); err != nil {
		return nil, err
	}

	if err := validateRate("ga.crossover_rate", crossoverRate); err != nil {
		return nil, err
	}

	size := len(pop.Individuals)
	if size < MinPopulationSize {
		return nil, newConfigurationError("ga.population", size, fmt.Sprintf("must be at least %d", MinPopulationSize))
	}

	next := &m.Population{
		SessionID:     pop.SessionID,
		TargetHash:    pop.TargetHash,
		Generation:    pop.Generation + 1,
		State:         m.StateEvolved,
		Spec:          pop.Spec,
		TotalBranches: pop.TotalBranches,
		Frontier:      pop.Frontier.Copy(),
		Individuals:   make([]*m.Individual, 0, size),
	}

	for _, ind := range pop.Individuals {
		next.Frontier.Merge(ind.CoveredBranches)
	}

	for _, elite := range pm.elites(pop) {
		next.Individuals = append(next.Individuals, elite.Clone())
	}

	for len(next.Individuals) < size {
		c1, c2, err := pm.Crossover(pm.SelectParent(pop), pm.SelectParent(pop), crossoverRate)
		if err != nil {
			return nil, err
		}

		for _, c := range []*m.Individual{c1, c2} {
			if len(next.Individuals) == size {
				break
			}

			if err := pm.Mutate(c, mutationRate); err != nil {
				return nil, err
			}

			next.Individuals = append(next.Individuals, pm.offspring(c, next))
		}
	}

	slog.Debug("Advanced generation", "session", pop.SessionID, "generation", next.Generation, "frontier", next.Frontier.Len())

	return next, nil
}

func (pm *populationManager) elites(pop *m.Population) []*m.Individual {
	ranked := append([]*m.Individual(nil), pop.Individuals...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})

	n := pm.cfg.EliteCount
	if n > len(ranked) {
		n = len(ranked)
	}

	return ranked[:n]
}

// offspring resets a child for the next generation and snaps its genes to
// the parameter kinds.
func (pm *populationManager) offspring(c *m.Individual, next *m.Population) *m.Individual {
	for i := range c.Genes {
		if i < len(next.Spec) {
			c.Genes[i] = next.Spec[i].Normalize(c.Genes[i])
		}
	}

	c.ID = pm.newID()
	c.Generation = next.Generation
	c.Fitness = 0
	c.Status = ""
	c.Evaluated = false
	c.CoveredBranches = m.NewBranchSet()

	return c
}

func (pm *populationManager) newID() string {
	id, err := uuid.NewRandomFromReader(pm.rng)
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

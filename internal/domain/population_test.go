package domain

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "spectra.dev/pkg/spectra/internal/model"
)

func newTestManager(t *testing.T, seed int64) PopulationManager {
	t.Helper()

	fitness, err := NewFitnessEvaluator(DefaultFitnessConfig())
	require.NoError(t, err)

	pm, err := NewPopulationManager(rand.New(rand.NewSource(seed)), DefaultGAConfig(), fitness)
	require.NoError(t, err)

	return pm
}

func twoInts() m.ParameterSpec {
	return m.ParameterSpec{{Name: "a", Kind: m.KindInt}, {Name: "b", Kind: m.KindInt}}
}

// evaluateAll scores every unevaluated individual with a deterministic
// function of its genes.
func evaluateAll(pm PopulationManager, pop *m.Population) {
	pop.TotalBranches = 4
	for _, ind := range pop.Individuals {
		if ind.Evaluated {
			continue
		}

		hit := m.NewBranchSet()
		if ind.Genes[0] > 0 {
			hit.Add("L1:b0")
		} else {
			hit.Add("L1:b1")
		}

		if ind.Genes[1] == ind.Genes[0] {
			hit.Add("L2:b0")
		}

		if ind.Genes[1] < 0 {
			hit.Add("L3:b0")
		}

		result := m.TestExecutionResult{Status: m.StatusPassed, Coverage: m.CoverageReport{BranchesHit: hit}}
		pm.Evaluate(ind, result, pop.TotalBranches, m.NewBranchSet())
	}
}

func TestNewPopulationManagerValidation(t *testing.T) {
	fitness, err := NewFitnessEvaluator(DefaultFitnessConfig())
	require.NoError(t, err)

	_, err = NewPopulationManager(nil, DefaultGAConfig(), fitness)
	require.ErrorIs(t, err, ErrConfiguration)

	cfg := DefaultGAConfig()
	cfg.TournamentSize = 0
	_, err = NewPopulationManager(rand.New(rand.NewSource(1)), cfg, fitness)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "ga.tournament_size", cfgErr.Field)
}

func TestInitialize(t *testing.T) {
	t.Run("rejects small populations", func(t *testing.T) {
		_, err := newTestManager(t, 1).Initialize("s", twoInts(), 1)
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rejects empty spec", func(t *testing.T) {
		_, err := newTestManager(t, 1).Initialize("s", nil, 10)
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("genes respect kinds and ranges", func(t *testing.T) {
		spec := m.ParameterSpec{
			{Name: "n", Kind: m.KindInt, Min: -5, Max: 5},
			{Name: "x", Kind: m.KindFloat},
			{Name: "flag", Kind: m.KindBool},
			{Name: "c", Kind: m.KindChar},
		}

		pop, err := newTestManager(t, 2).Initialize("s", spec, 200)
		require.NoError(t, err)
		assert.Equal(t, m.StateCreated, pop.State)
		assert.Equal(t, 0, pop.Generation)

		for _, ind := range pop.Individuals {
			require.Len(t, ind.Genes, 4)
			assert.GreaterOrEqual(t, ind.Genes[0], -5.0)
			assert.LessOrEqual(t, ind.Genes[0], 5.0)
			assert.Equal(t, float64(int(ind.Genes[0])), ind.Genes[0])
			assert.Contains(t, []float64{0, 1}, ind.Genes[2])
			assert.GreaterOrEqual(t, ind.Genes[3], 32.0)
			assert.LessOrEqual(t, ind.Genes[3], 126.0)
		}
	})

	t.Run("pinned range stays pinned", func(t *testing.T) {
		spec := m.ParameterSpec{
			{Name: "zero", Kind: m.KindInt, Bounded: true},
			{Name: "free", Kind: m.KindInt},
		}

		pop, err := newTestManager(t, 3).Initialize("s", spec, 50)
		require.NoError(t, err)
		assert.Equal(t, 0.0, pop.Spec[0].Max)

		for _, ind := range pop.Individuals {
			assert.Equal(t, 0.0, ind.Genes[0])
		}
	})

	t.Run("boundary values appear often", func(t *testing.T) {
		pop, err := newTestManager(t, 3).Initialize("s", twoInts(), 400)
		require.NoError(t, err)

		boundary := 0
		for _, ind := range pop.Individuals {
			switch ind.Genes[0] {
			case 0, 1, -1, 100, -100:
				boundary++
			}
		}

		assert.Greater(t, boundary, 50)
	})

	t.Run("same seed reproduces the population", func(t *testing.T) {
		a, err := newTestManager(t, 42).Initialize("s", twoInts(), 10)
		require.NoError(t, err)

		b, err := newTestManager(t, 42).Initialize("s", twoInts(), 10)
		require.NoError(t, err)

		if diff := cmp.Diff(a, b); diff != "" {
			t.Errorf("populations differ (-a +b):\n%s", diff)
		}
	})
}

func TestSelectParent(t *testing.T) {
	t.Run("ties go to the earliest index", func(t *testing.T) {
		pop := &m.Population{Individuals: []*m.Individual{{ID: "0"}, {ID: "1"}, {ID: "2"}}}

		for i := 0; i < 20; i++ {
			assert.Equal(t, "0", newTestManager(t, int64(i)).SelectParent(pop).ID)
		}
	})

	t.Run("winner is the fittest of the sample", func(t *testing.T) {
		pop := &m.Population{}
		for i := 0; i < 10; i++ {
			pop.Individuals = append(pop.Individuals, &m.Individual{ID: fmt.Sprint(i), Fitness: float64(i) / 10})
		}

		pm := newTestManager(t, 9)
		worst := 0
		for i := 0; i < 200; i++ {
			if pm.SelectParent(pop).ID == "0" {
				worst++
			}
		}

		// the least fit member can only win a tournament it is alone in
		assert.Zero(t, worst)
	})
}

func TestCrossover(t *testing.T) {
	a := &m.Individual{ID: "a", Genes: []float64{1, 2, 3, 4}, Fitness: 0.3, CoveredBranches: m.NewBranchSet("L1:b0")}
	b := &m.Individual{ID: "b", Genes: []float64{5, 6, 7, 8}, Fitness: 0.6, CoveredBranches: m.NewBranchSet()}

	t.Run("rate zero copies the parents", func(t *testing.T) {
		c1, c2, err := newTestManager(t, 1).Crossover(a, b, 0)
		require.NoError(t, err)

		assert.Equal(t, a, c1)
		assert.Equal(t, b, c2)
		assert.NotSame(t, a, c1)
		assert.NotSame(t, b, c2)
	})

	t.Run("rate one swaps suffixes at a cut", func(t *testing.T) {
		c1, c2, err := newTestManager(t, 4).Crossover(a, b, 1)
		require.NoError(t, err)
		require.Len(t, c1.Genes, 4)

		cut := 0
		for cut < 4 && c1.Genes[cut] == a.Genes[cut] {
			cut++
		}

		require.GreaterOrEqual(t, cut, 1)
		require.LessOrEqual(t, cut, 3)
		assert.Equal(t, append(append([]float64{}, a.Genes[:cut]...), b.Genes[cut:]...), c1.Genes)
		assert.Equal(t, append(append([]float64{}, b.Genes[:cut]...), a.Genes[cut:]...), c2.Genes)
		assert.Equal(t, []float64{1, 2, 3, 4}, a.Genes)
	})

	t.Run("single gene copies one parent", func(t *testing.T) {
		x := &m.Individual{ID: "x", Genes: []float64{1}}
		y := &m.Individual{ID: "y", Genes: []float64{2}}

		c1, c2, err := newTestManager(t, 2).Crossover(x, y, 1)
		require.NoError(t, err)
		assert.Equal(t, c1.Genes, c2.Genes)
		assert.Contains(t, []string{"x", "y"}, c1.ID)
	})

	t.Run("invalid rate", func(t *testing.T) {
		_, _, err := newTestManager(t, 1).Crossover(a, b, 1.2)
		require.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestMutate(t *testing.T) {
	t.Run("rate zero leaves genes unchanged", func(t *testing.T) {
		ind := &m.Individual{Genes: []float64{3, -4, 17}}

		require.NoError(t, newTestManager(t, 1).Mutate(ind, 0))
		assert.Equal(t, []float64{3, -4, 17}, ind.Genes)
	})

	t.Run("rate one changes genes", func(t *testing.T) {
		pm := newTestManager(t, 8)
		changed := 0

		for i := 0; i < 20; i++ {
			ind := &m.Individual{Genes: []float64{3, -4, 17}}
			require.NoError(t, pm.Mutate(ind, 1))

			if !cmp.Equal(ind.Genes, []float64{3, -4, 17}) {
				changed++
			}
		}

		assert.Greater(t, changed, 15)
	})

	t.Run("invalid rate", func(t *testing.T) {
		err := newTestManager(t, 1).Mutate(&m.Individual{Genes: []float64{1}}, -0.1)
		require.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestAdvanceGeneration(t *testing.T) {
	t.Run("preserves size and gene length", func(t *testing.T) {
		pm := newTestManager(t, 17)
		pop, err := pm.Initialize("s", twoInts(), 20)
		require.NoError(t, err)

		for gen := 0; gen < 30; gen++ {
			evaluateAll(pm, pop)

			pop, err = pm.AdvanceGeneration(pop, 0.3, 0.75)
			require.NoError(t, err)
			require.Len(t, pop.Individuals, 20)

			for _, ind := range pop.Individuals {
				require.Len(t, ind.Genes, 2)
				require.GreaterOrEqual(t, ind.Fitness, 0.0)
				require.LessOrEqual(t, ind.Fitness, 1.0)
			}
		}

		assert.Equal(t, 30, pop.Generation)
		assert.Equal(t, m.StateEvolved, pop.State)
	})

	t.Run("best fitness never decreases", func(t *testing.T) {
		pm := newTestManager(t, 23)
		pop, err := pm.Initialize("s", twoInts(), 10)
		require.NoError(t, err)

		best := -1.0
		for gen := 0; gen < 15; gen++ {
			evaluateAll(pm, pop)

			current := pop.Best().Fitness
			require.GreaterOrEqual(t, current, best)
			best = current

			pop, err = pm.AdvanceGeneration(pop, 0.5, 0.8)
			require.NoError(t, err)
		}
	})

	t.Run("elites are carried unchanged", func(t *testing.T) {
		pm := newTestManager(t, 5)
		pop, err := pm.Initialize("s", twoInts(), 6)
		require.NoError(t, err)
		evaluateAll(pm, pop)

		for _, ind := range pop.Individuals {
			ind.Fitness = 0.1
		}

		pop.Individuals[4].Fitness = 0.99
		pop.Individuals[1].Fitness = 0.98

		next, err := pm.AdvanceGeneration(pop, 1, 1)
		require.NoError(t, err)

		assert.Equal(t, pop.Individuals[4], next.Individuals[0])
		assert.Equal(t, pop.Individuals[1], next.Individuals[1])

		for _, ind := range next.Individuals[2:] {
			assert.False(t, ind.Evaluated)
			assert.Equal(t, 1, ind.Generation)
		}
	})

	t.Run("frontier is the union of covered branches", func(t *testing.T) {
		pm := newTestManager(t, 6)
		pop, err := pm.Initialize("s", twoInts(), 4)
		require.NoError(t, err)

		pop.Frontier = m.NewBranchSet("L0:b0")
		pop.Individuals[0].CoveredBranches = m.NewBranchSet("L1:b0")
		pop.Individuals[3].CoveredBranches = m.NewBranchSet("L2:b1")

		next, err := pm.AdvanceGeneration(pop, 0, 0)
		require.NoError(t, err)

		assert.Equal(t, []string{"L0:b0", "L1:b0", "L2:b1"}, next.Frontier.Sorted())
		assert.Equal(t, 1, pop.Frontier.Len())
	})

	t.Run("invalid rates fail before any work", func(t *testing.T) {
		pm := newTestManager(t, 1)
		pop, err := pm.Initialize("s", twoInts(), 4)
		require.NoError(t, err)

		_, err = pm.AdvanceGeneration(pop, 2, 0.5)
		require.ErrorIs(t, err, ErrConfiguration)

		_, err = pm.AdvanceGeneration(pop, 0.5, -1)
		require.ErrorIs(t, err, ErrConfiguration)
		assert.Equal(t, 0, pop.Generation)
	})
}

package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Formula names.
const (
	FormulaTarantula = "tarantula"
	FormulaOchiai    = "ochiai"
	FormulaJaccard   = "jaccard"
)

// Spectrum holds the coverage counts of one line plus the suite totals.
type Spectrum struct {
	Failed      int
	Passed      int
	TotalFailed int
	TotalPassed int
}

// Formula maps a spectrum to a suspiciousness score in [0, 1]. Callers only
// pass spectra with TotalFailed > 0 and Failed+Passed > 0.
type Formula interface {
	Name() string
	Score(s Spectrum) float64
}

// FormulaFunc adapts a function to Formula.
type FormulaFunc struct {
	name string
	fn   func(Spectrum) float64
}

// Name returns the formula name.
func (f FormulaFunc) Name() string { return f.name }

// Score evaluates the formula.
func (f FormulaFunc) Score(s Spectrum) float64 { return clamp01(f.fn(s)) }

var formulas = map[string]Formula{
	FormulaTarantula: FormulaFunc{name: FormulaTarantula, fn: tarantula},
	FormulaOchiai:    FormulaFunc{name: FormulaOchiai, fn: ochiai},
	FormulaJaccard:   FormulaFunc{name: FormulaJaccard, fn: jaccard},
}

// FormulaByName looks up a formula. An empty name selects tarantula.
func FormulaByName(name string) (Formula, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = FormulaTarantula
	}

	f, ok := formulas[key]
	if !ok {
		return nil, newConfigurationError("localize.formula", name, fmt.Sprintf("expected one of %s", strings.Join(FormulaNames(), ", ")))
	}

	return f, nil
}

// FormulaNames lists the registered formulas.
func FormulaNames() []string {
	names := make([]string, 0, len(formulas))
	for name := range formulas {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func tarantula(s Spectrum) float64 {
	if s.TotalFailed == 0 {
		return 0
	}

	if s.TotalPassed == 0 {
		return 1
	}

	failRatio := float64(s.Failed) / float64(s.TotalFailed)
	passRatio := float64(s.Passed) / float64(s.TotalPassed)

	if failRatio+passRatio == 0 {
		return 0
	}

	return failRatio / (failRatio + passRatio)
}

func ochiai(s Spectrum) float64 {
	denom := math.Sqrt(float64(s.TotalFailed) * float64(s.Failed+s.Passed))
	if denom == 0 {
		return 0
	}

	return float64(s.Failed) / denom
}

func jaccard(s Spectrum) float64 {
	denom := float64(s.TotalFailed + s.Passed)
	if denom == 0 {
		return 0
	}

	return float64(s.Failed) / denom
}

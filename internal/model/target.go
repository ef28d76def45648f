// Package model defines the data structures shared by the search and
// localization pipeline.
package model

// Path represents a file system path.
type Path string

// LabelledTest is a hand-written test case shipped with a target descriptor.
// Expected is optional; when nil only the exit status decides the outcome.
type LabelledTest struct {
	Name     string    `json:"name" yaml:"name"`
	Inputs   []float64 `json:"inputs" yaml:"inputs"`
	Expected *string   `json:"expected,omitempty" yaml:"expected,omitempty"`
}

// Target is everything the pipeline knows about a program under test.
type Target struct {
	Name       string
	Source     Path
	Code       []byte
	Hash       string
	Parameters ParameterSpec
	Branches   BranchSet
	Complexity int
	Tests      []LabelledTest
}

// LineText returns the source text of a 1-based line, or a placeholder when
// the line is outside the loaded source.
func (t *Target) LineText(line int) string {
	lines := splitLines(t.Code)
	if line < 1 || line > len(lines) {
		return placeholderLine(line)
	}

	return lines[line-1]
}

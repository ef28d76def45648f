package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	m "spectra.dev/pkg/spectra/internal/model"
)

// TargetAdapter loads the program under test together with its parameter
// list, branch labels and labelled tests.
type TargetAdapter interface {
	Load(ctx context.Context, path m.Path) (*m.Target, error)
}

// targetDescriptor is the YAML form of a target.
type targetDescriptor struct {
	Name       string                `yaml:"name"`
	Source     string                `yaml:"source"`
	Parameters []parameterDescriptor `yaml:"parameters"`
	Branches   []string              `yaml:"branches"`
	Complexity int                   `yaml:"complexity"`
	Tests      []m.LabelledTest      `yaml:"tests"`
}

// parameterDescriptor keeps track of which bounds the descriptor sets, so an
// explicit zero is not mistaken for a missing bound.
type parameterDescriptor struct {
	Name string   `yaml:"name"`
	Kind string   `yaml:"kind"`
	Min  *float64 `yaml:"min"`
	Max  *float64 `yaml:"max"`
}

func (d parameterDescriptor) parameter() (m.Parameter, error) {
	kind, err := m.ParseParamKind(d.Kind)
	if err != nil {
		return m.Parameter{}, fmt.Errorf("parameter %s: %w", d.Name, err)
	}

	p := m.Parameter{Name: d.Name, Kind: kind, Bounded: d.Min != nil || d.Max != nil}
	p.Min, p.Max = m.DefaultRange(kind)

	if d.Min != nil {
		p.Min = *d.Min
	}

	if d.Max != nil {
		p.Max = *d.Max
	}

	if p.Min > p.Max {
		return m.Parameter{}, fmt.Errorf("parameter %s: min %g is greater than max %g", d.Name, p.Min, p.Max)
	}

	return p, nil
}

// branchLabelPattern matches the labels gcov coverage is reported with.
var branchLabelPattern = regexp.MustCompile(`^L[1-9]\d*:b\d+$`)

var sourceExtensions = map[string]bool{".c": true, ".cc": true, ".cpp": true, ".cxx": true}

// LocalTargetAdapter reads descriptors and sources through a SourceFSAdapter.
// A path to a bare C/C++ source is accepted as a descriptor-less target.
type LocalTargetAdapter struct {
	fs SourceFSAdapter
}

// NewLocalTargetAdapter constructs a LocalTargetAdapter.
func NewLocalTargetAdapter(fs SourceFSAdapter) *LocalTargetAdapter {
	return &LocalTargetAdapter{fs: fs}
}

// Load reads the target at path.
func (a *LocalTargetAdapter) Load(ctx context.Context, path m.Path) (*m.Target, error) {
	desc := targetDescriptor{Source: filepath.Base(string(path))}
	base := filepath.Dir(string(path))

	if !sourceExtensions[strings.ToLower(filepath.Ext(string(path)))] {
		data, err := a.fs.ReadFile(ctx, path)
		if err != nil {
			slog.Error("Failed to read target descriptor", "path", path, "error", err)
			return nil, fmt.Errorf("read target descriptor: %w", err)
		}

		desc = targetDescriptor{}
		if err := yaml.Unmarshal(data, &desc); err != nil {
			return nil, fmt.Errorf("parse target descriptor %s: %w", path, err)
		}

		if desc.Source == "" {
			return nil, fmt.Errorf("target descriptor %s has no source", path)
		}
	}

	sourcePath := desc.Source
	if !filepath.IsAbs(sourcePath) {
		sourcePath = string(a.fs.JoinPath(ctx, base, sourcePath))
	}

	code, err := a.fs.ReadFile(ctx, m.Path(sourcePath))
	if err != nil {
		slog.Error("Failed to read target source", "path", sourcePath, "error", err)
		return nil, fmt.Errorf("read target source: %w", err)
	}

	hash, err := a.fs.HashFile(ctx, m.Path(sourcePath))
	if err != nil {
		return nil, fmt.Errorf("hash target source: %w", err)
	}

	return buildTarget(desc, m.Path(sourcePath), code, hash)
}

func buildTarget(desc targetDescriptor, source m.Path, code []byte, hash string) (*m.Target, error) {
	target := &m.Target{
		Name:       desc.Name,
		Source:     source,
		Code:       code,
		Hash:       hash,
		Branches:   m.NewBranchSet(desc.Branches...),
		Complexity: desc.Complexity,
		Tests:      desc.Tests,
	}

	if target.Name == "" {
		target.Name = strings.TrimSuffix(filepath.Base(string(source)), filepath.Ext(string(source)))
	}

	for _, label := range desc.Branches {
		if !branchLabelPattern.MatchString(label) {
			return nil, fmt.Errorf("branch %q: labels must look like L<line>:b<index>", label)
		}
	}

	for _, d := range desc.Parameters {
		p, err := d.parameter()
		if err != nil {
			return nil, err
		}

		target.Parameters = append(target.Parameters, p)
	}

	if len(target.Parameters) == 0 {
		target.Parameters = InferParameters(string(code))
	}

	for i, test := range target.Tests {
		if len(test.Inputs) != len(target.Parameters) {
			return nil, fmt.Errorf("test %q has %d inputs, target takes %d", test.Name, len(test.Inputs), len(target.Parameters))
		}

		if test.Name == "" {
			target.Tests[i].Name = fmt.Sprintf("test-%d", i+1)
		}
	}

	if target.Complexity == 0 {
		target.Complexity = Complexity(string(code))
	}

	return target, nil
}

var (
	functionPattern = regexp.MustCompile(`(?m)^[ \t]*(?:[A-Za-z_][\w:<>]*[ \t*&]+)+\**([A-Za-z_]\w*)[ \t]*\(([^()]*)\)[ \t]*(?:const[ \t]*)?\{`)
	decisionPattern = regexp.MustCompile(`\b(?:if|for|while|switch|case)\b`)
	commentPattern  = regexp.MustCompile(`(?s)//[^\n]*|/\*.*?\*/`)
	keywords        = map[string]bool{"if": true, "for": true, "while": true, "switch": true, "return": true, "else": true, "main": true}
)

// InferParameters derives the input list from the first function other than
// main. When nothing is found the program is assumed to read one int.
func InferParameters(code string) m.ParameterSpec {
	code = commentPattern.ReplaceAllString(code, "")

	for _, match := range functionPattern.FindAllStringSubmatch(code, -1) {
		if keywords[match[1]] {
			continue
		}

		var spec m.ParameterSpec

		for i, raw := range strings.Split(match[2], ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" || raw == "void" {
				continue
			}

			spec = append(spec, parseCParam(raw, i))
		}

		if len(spec) > 0 {
			return spec
		}
	}

	return m.ParameterSpec{m.Parameter{Name: "x", Kind: m.KindInt}.WithDefaults()}
}

func parseCParam(raw string, index int) m.Parameter {
	if eq := strings.Index(raw, "="); eq >= 0 {
		raw = strings.TrimSpace(raw[:eq])
	}

	fields := strings.Fields(strings.NewReplacer("*", " ", "&", " ", "[", " ", "]", " ").Replace(raw))

	name := fmt.Sprintf("p%d", index)
	typ := raw

	if len(fields) > 1 {
		name = fields[len(fields)-1]
		typ = strings.Join(fields[:len(fields)-1], " ")
	}

	return m.Parameter{Name: name, Kind: kindOfCType(typ)}.WithDefaults()
}

func kindOfCType(typ string) m.ParamKind {
	switch {
	case strings.Contains(typ, "bool"):
		return m.KindBool
	case strings.Contains(typ, "char"):
		return m.KindChar
	case strings.Contains(typ, "float"), strings.Contains(typ, "double"):
		return m.KindFloat
	default:
		return m.KindInt
	}
}

// Complexity counts decision points plus one.
func Complexity(code string) int {
	code = commentPattern.ReplaceAllString(code, "")

	return len(decisionPattern.FindAllString(code, -1)) + 1
}

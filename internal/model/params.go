package model

import (
	"fmt"
	"math"
	"strings"
)

// ParamKind is the primitive type of one program input.
type ParamKind string

// Supported parameter kinds.
const (
	KindInt   ParamKind = "int"
	KindFloat ParamKind = "float"
	KindBool  ParamKind = "bool"
	KindChar  ParamKind = "char"
)

// Parameter describes one input of the program with its plausible range.
// Bounded marks a range given explicitly, including a [0, 0] pin.
type Parameter struct {
	Name    string    `json:"name" yaml:"name"`
	Kind    ParamKind `json:"kind" yaml:"kind"`
	Min     float64   `json:"min" yaml:"min"`
	Max     float64   `json:"max" yaml:"max"`
	Bounded bool      `json:"bounded,omitempty" yaml:"bounded,omitempty"`
}

// ParameterSpec is the ordered input list of a program.
type ParameterSpec []Parameter

// ParseParamKind maps a kind name to a ParamKind.
func ParseParamKind(s string) (ParamKind, error) {
	switch ParamKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindInt, "":
		return KindInt, nil
	case KindFloat:
		return KindFloat, nil
	case KindBool:
		return KindBool, nil
	case KindChar:
		return KindChar, nil
	default:
		return "", fmt.Errorf("unknown parameter kind %q", s)
	}
}

// DefaultRange returns the plausible value range for a kind.
func DefaultRange(kind ParamKind) (float64, float64) {
	switch kind {
	case KindBool:
		return 0, 1
	case KindChar:
		return 32, 126
	default:
		return -100, 100
	}
}

// WithDefaults fills an unset range (Min == Max == 0 and not Bounded) with
// the kind default.
func (p Parameter) WithDefaults() Parameter {
	if p.Kind == "" {
		p.Kind = KindInt
	}

	if !p.Bounded && p.Min == 0 && p.Max == 0 {
		p.Min, p.Max = DefaultRange(p.Kind)
	}

	if p.Min > p.Max {
		p.Min, p.Max = p.Max, p.Min
	}

	return p
}

// Normalize snaps a raw value to the representation of the parameter kind.
func (p Parameter) Normalize(v float64) float64 {
	switch p.Kind {
	case KindBool:
		if v >= 0.5 || v <= -0.5 {
			return 1
		}

		return 0
	case KindFloat:
		return math.Round(v*100) / 100
	case KindChar:
		return math.Max(0, math.Min(255, math.Round(v)))
	default:
		return math.Round(v)
	}
}

// Format renders a gene value the way the program expects it on stdin.
func (p Parameter) Format(v float64) string {
	switch p.Kind {
	case KindFloat:
		return fmt.Sprintf("%g", v)
	case KindChar:
		return string([]byte{byte(v)})
	default:
		return fmt.Sprintf("%d", int64(v))
	}
}

package domain

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every *ConfigurationError.
var ErrConfiguration = errors.New("invalid configuration")

// ConfigurationError reports a setting rejected before any work starts.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrConfiguration) match.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func newConfigurationError(field string, value any, reason string) error {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}

// EvaluationError wraps an execution backend failure for one individual.
// It degrades that individual and never aborts a batch.
type EvaluationError struct {
	IndividualID string
	Err          error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate %s: %v", e.IndividualID, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

func validateRate(field string, rate float64) error {
	if rate < 0 || rate > 1 || rate != rate {
		return newConfigurationError(field, rate, "must be within [0, 1]")
	}

	return nil
}

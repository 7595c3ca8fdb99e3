// Package ports defines the interfaces between the evaluation core and
// the infrastructure that serves it. Domain logic depends on these
// interfaces, never on concrete providers, caches, or metric sinks.
package ports

import (
	"github.com/gurenolun/fly-eval/internal/domain"
)

// CheckInput is everything a checker may inspect for one prediction.
// Checkers read it and never mutate it.
type CheckInput struct {
	// Sample is the evaluation input, including the context window used
	// for dynamics checks.
	Sample domain.Sample

	// Fields is the parsed prediction from the protocol stage. Scalars
	// are float64, array tasks carry []float64, and invalid entries
	// survive as whatever the parser recovered.
	Fields map[string]any
}

// Checker verifies one constraint family against a prediction.
//
// Checkers are pure CPU-bound functions of their input: no I/O, no
// shared state, no ordering dependencies between families. Every check
// performed emits an evidence atom, pass or fail. A checker never
// returns an error; anything it cannot assess becomes evidence with an
// appropriate severity.
type Checker interface {
	// ID returns the checker family name used as the Type of every atom
	// it emits.
	ID() string

	// Check runs the family's rules and returns the resulting evidence.
	Check(in CheckInput) []domain.EvidenceAtom
}

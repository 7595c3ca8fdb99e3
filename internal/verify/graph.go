package verify

import (
	"context"
	"fmt"

	"github.com/gurenolun/fly-eval/internal/config"
	"github.com/gurenolun/fly-eval/internal/domain"
	"github.com/gurenolun/fly-eval/internal/ports"
)

// Graph runs a fixed set of independent checkers over one prediction.
// Checker failures never escape: a panicking checker contributes a
// critical evidence atom instead of aborting the sample. The returned
// pack is sorted so its order does not depend on execution order.
type Graph struct {
	checkers []ports.Checker
}

// NewGraph assembles the default checker graph for a configuration.
func NewGraph(cfg *config.Config) *Graph {
	return &Graph{checkers: []ports.Checker{
		NewNumericChecker(cfg),
		NewRangeChecker(cfg),
		NewJumpChecker(cfg),
		NewCrossFieldChecker(cfg),
		NewPhysicsChecker(cfg),
		NewSafetyChecker(cfg),
	}}
}

// CheckerIDs returns the IDs of the installed checkers, for traces.
func (g *Graph) CheckerIDs() []string {
	ids := make([]string, 0, len(g.checkers))
	for _, c := range g.checkers {
		ids = append(ids, c.ID())
	}
	return ids
}

// Run executes every checker against the input and returns the combined,
// sorted evidence pack. The context is consulted between checkers;
// individual checkers are pure CPU work and do not block.
func (g *Graph) Run(ctx context.Context, in ports.CheckInput) ([]domain.EvidenceAtom, error) {
	var atoms []domain.EvidenceAtom

	for _, checker := range g.checkers {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("verification canceled: %w", err)
		}
		atoms = append(atoms, runChecker(checker, in)...)
	}

	domain.SortAtoms(atoms)
	return atoms, nil
}

// runChecker isolates one checker execution, converting a panic into a
// critical sample-scoped atom.
func runChecker(checker ports.Checker, in ports.CheckInput) (atoms []domain.EvidenceAtom) {
	defer func() {
		if r := recover(); r != nil {
			atoms = []domain.EvidenceAtom{{
				ID:       domain.AtomID(checker.ID(), "checker_panic"),
				Type:     checker.ID(),
				Pass:     false,
				Severity: domain.SeverityCritical,
				Scope:    domain.ScopeSample,
				Message:  fmt.Sprintf("checker failed: %v", r),
			}}
		}
	}()
	return checker.Check(in)
}

package verify

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurenolun/fly-eval/internal/config"
	"github.com/gurenolun/fly-eval/internal/domain"
	"github.com/gurenolun/fly-eval/internal/ports"
	"github.com/gurenolun/fly-eval/internal/testutils"
)

// scalarFields converts a fixture frame into the parsed field map shape
// the protocol stage produces for single-value tasks.
func scalarFields(frame domain.Frame) map[string]any {
	fields := make(map[string]any, len(frame))
	for name, v := range frame {
		fields[name] = v
	}
	return fields
}

// cruiseInput is a clean steady-state scalar prediction that passes
// every checker family.
func cruiseInput(id string) ports.CheckInput {
	return ports.CheckInput{
		Sample: testutils.ScalarSample(id, domain.TaskS1),
		Fields: scalarFields(testutils.CruiseFrame()),
	}
}

func TestGraphRun(t *testing.T) {
	graph := NewGraph(config.Default())

	t.Run("clean prediction has no failures", func(t *testing.T) {
		atoms, err := graph.Run(context.Background(), cruiseInput("s-001"))
		require.NoError(t, err)
		require.NotEmpty(t, atoms)

		assert.Empty(t, domain.CriticalFailures(atoms))
		for _, a := range atoms {
			assert.True(t, a.Pass, "atom %s should pass: %s", a.ID, a.Message)
		}
	})

	t.Run("output is sorted", func(t *testing.T) {
		in := cruiseInput("s-002")
		in.Fields[config.FieldAirspeed] = 20.0
		in.Fields[config.FieldVerticalSpeed] = -3500.0

		atoms, err := graph.Run(context.Background(), in)
		require.NoError(t, err)

		sorted := sort.SliceIsSorted(atoms, func(i, j int) bool {
			a, b := atoms[i], atoms[j]
			if a.Type != b.Type {
				return a.Type < b.Type
			}
			if a.Field != b.Field {
				return a.Field < b.Field
			}
			return a.ID < b.ID
		})
		assert.True(t, sorted)
	})

	t.Run("canceled context aborts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := graph.Run(ctx, cruiseInput("s-003"))
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestGraphCheckerIDs(t *testing.T) {
	graph := NewGraph(config.Default())
	assert.Equal(t, []string{
		domain.FamilyNumeric,
		domain.FamilyRange,
		domain.FamilyJump,
		domain.FamilyCrossField,
		domain.FamilyPhysics,
		domain.FamilySafety,
	}, graph.CheckerIDs())
}

type panickingChecker struct{}

func (panickingChecker) ID() string                                    { return "panicky" }
func (panickingChecker) Check(ports.CheckInput) []domain.EvidenceAtom { panic("boom") }

func TestRunCheckerRecoversPanic(t *testing.T) {
	atoms := runChecker(panickingChecker{}, cruiseInput("s-004"))

	require.Len(t, atoms, 1)
	atom := atoms[0]
	assert.Equal(t, "panicky.checker_panic", atom.ID)
	assert.False(t, atom.Pass)
	assert.Equal(t, domain.SeverityCritical, atom.Severity)
	assert.Equal(t, domain.ScopeSample, atom.Scope)
	assert.Contains(t, atom.Message, "boom")
}

package verify

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gurenolun/fly-eval/internal/config"
	"github.com/gurenolun/fly-eval/internal/domain"
)

func TestRangeChecker(t *testing.T) {
	cfg := config.Default()
	checker := NewRangeChecker(cfg)

	t.Run("cruise values within limits", func(t *testing.T) {
		atoms := checker.Check(cruiseInput("r-001"))
		assert.Len(t, atoms, len(cfg.RequiredFields))
		for _, a := range atoms {
			assert.True(t, a.Pass, "atom %s: %s", a.ID, a.Message)
		}
	})

	t.Run("out of range latitude is critical", func(t *testing.T) {
		in := cruiseInput("r-002")
		in.Fields[config.FieldLatitude] = 200.0

		atoms := checker.Check(in)
		atom := findAtom(t, atoms, domain.AtomID(domain.FamilyRange, config.FieldLatitude))
		assert.False(t, atom.Pass)
		assert.Equal(t, domain.SeverityCritical, atom.Severity)
		assert.Equal(t, domain.ScopeField, atom.Scope)
	})

	t.Run("boundary values pass", func(t *testing.T) {
		in := cruiseInput("r-003")
		in.Fields[config.FieldLatitude] = 90.0
		in.Fields[config.FieldRoll] = -90.0

		atoms := checker.Check(in)
		assert.True(t, findAtom(t, atoms, domain.AtomID(domain.FamilyRange, config.FieldLatitude)).Pass)
		assert.True(t, findAtom(t, atoms, domain.AtomID(domain.FamilyRange, config.FieldRoll)).Pass)
	})

	t.Run("array elements graded individually", func(t *testing.T) {
		in := cruiseInput("r-004")
		in.Fields[config.FieldAirspeed] = []float64{115, 900, 118}

		atoms := checker.Check(in)
		assert.True(t, findAtom(t, atoms, domain.AtomID(domain.FamilyRange, config.FieldAirspeed+"[0]")).Pass)
		assert.False(t, findAtom(t, atoms, domain.AtomID(domain.FamilyRange, config.FieldAirspeed+"[1]")).Pass)
		assert.True(t, findAtom(t, atoms, domain.AtomID(domain.FamilyRange, config.FieldAirspeed+"[2]")).Pass)
	})

	t.Run("non-finite values are left to numeric validity", func(t *testing.T) {
		in := cruiseInput("r-005")
		in.Fields[config.FieldPitch] = math.NaN()

		atoms := checker.Check(in)
		for _, a := range atoms {
			assert.NotEqual(t, domain.AtomID(domain.FamilyRange, config.FieldPitch), a.ID)
		}
	})
}

package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurenolun/fly-eval/internal/config"
	"github.com/gurenolun/fly-eval/internal/domain"
	"github.com/gurenolun/fly-eval/internal/ports"
	"github.com/gurenolun/fly-eval/internal/testutils"
)

func TestJumpCheckerScalar(t *testing.T) {
	checker := NewJumpChecker(config.Default())

	// Cruise baro altitude is 5500 ft with a 200 ft/s jump threshold.
	tests := []struct {
		name         string
		baroAlt      float64
		wantPass     bool
		wantSeverity domain.Severity
	}{
		{"within threshold", 5600, true, domain.SeverityInfo},
		{"at threshold is a warning", 5700, false, domain.SeverityWarning},
		{"between bands is a warning", 5750, false, domain.SeverityWarning},
		{"one and a half times is critical", 5800, false, domain.SeverityCritical},
		{"far beyond is critical", 6500, false, domain.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := cruiseInput("j-001")
			in.Fields[config.FieldBaroAltitude] = tt.baroAlt

			atoms := checker.Check(in)
			atom := findAtom(t, atoms, domain.AtomID(domain.FamilyJump, config.FieldBaroAltitude))
			assert.Equal(t, tt.wantPass, atom.Pass)
			assert.Equal(t, tt.wantSeverity, atom.Severity)
		})
	}
}

func TestJumpCheckerAngleWraparound(t *testing.T) {
	checker := NewJumpChecker(config.Default())

	prev := testutils.CruiseFrame()
	prev[config.FieldGroundTrack] = 359

	predicted := testutils.CruiseFrame()
	predicted[config.FieldGroundTrack] = 1

	in := ports.CheckInput{
		Sample: domain.Sample{
			SampleID: "j-002",
			TaskID:   domain.TaskS1,
			Context:  []domain.Frame{prev},
		},
		Fields: scalarFields(predicted),
	}

	atoms := checker.Check(in)
	atom := findAtom(t, atoms, domain.AtomID(domain.FamilyJump, config.FieldGroundTrack))
	// 359 to 1 is a 2 degree shortest-arc change, not 358.
	assert.True(t, atom.Pass, atom.Message)
	assert.InDelta(t, 2.0, atom.Meta["change"].(float64), 1e-9)
}

func TestJumpCheckerArray(t *testing.T) {
	checker := NewJumpChecker(config.Default())

	in := ports.CheckInput{
		Sample: testutils.ArraySample("j-003"),
		Fields: map[string]any{
			config.FieldBaroAltitude: []float64{5500, 5600, 5900},
		},
	}

	atoms := checker.Check(in)
	require.Len(t, atoms, 2)

	first := findAtom(t, atoms, domain.AtomID(domain.FamilyJump, config.FieldBaroAltitude+"[1]"))
	assert.True(t, first.Pass)

	second := findAtom(t, atoms, domain.AtomID(domain.FamilyJump, config.FieldBaroAltitude+"[2]"))
	assert.False(t, second.Pass)
	assert.Equal(t, domain.SeverityCritical, second.Severity)
}

func TestJumpCheckerSkipsIncomparable(t *testing.T) {
	checker := NewJumpChecker(config.Default())

	in := ports.CheckInput{
		Sample: domain.Sample{SampleID: "j-004", TaskID: domain.TaskS1},
		Fields: scalarFields(testutils.CruiseFrame()),
	}

	// No context window means no previous frame to compare against.
	assert.Empty(t, checker.Check(in))
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomID(t *testing.T) {
	assert.Equal(t, "safety_constraint.rapid_descent",
		AtomID(FamilySafety, "rapid_descent"))
	assert.Equal(t, "numeric_validity.Pitch (deg)[2]",
		AtomID(FamilyNumeric, "Pitch (deg)[2]"))
}

func TestSortAtoms(t *testing.T) {
	atoms := []EvidenceAtom{
		{ID: "safety_constraint.rapid_descent", Type: FamilySafety},
		{ID: "jump_dynamics.Roll (deg)", Type: FamilyJump, Field: "Roll (deg)"},
		{ID: "jump_dynamics.Pitch (deg)", Type: FamilyJump, Field: "Pitch (deg)"},
		{ID: "cross_field_consistency.track_consistency", Type: FamilyCrossField},
		{ID: "cross_field_consistency.altitude_consistency", Type: FamilyCrossField},
	}

	SortAtoms(atoms)

	ids := make([]string, len(atoms))
	for i, a := range atoms {
		ids[i] = a.ID
	}
	assert.Equal(t, []string{
		"cross_field_consistency.altitude_consistency",
		"cross_field_consistency.track_consistency",
		"jump_dynamics.Pitch (deg)",
		"jump_dynamics.Roll (deg)",
		"safety_constraint.rapid_descent",
	}, ids)
}

func TestCriticalFailures(t *testing.T) {
	atoms := []EvidenceAtom{
		{ID: "a", Pass: true, Severity: SeverityInfo},
		{ID: "b", Pass: false, Severity: SeverityWarning},
		{ID: "c", Pass: false, Severity: SeverityCritical},
		{ID: "d", Pass: true, Severity: SeverityCritical},
	}

	crits := CriticalFailures(atoms)
	require.Len(t, crits, 1)
	assert.Equal(t, "c", crits[0].ID)
}

func TestCountBySeverity(t *testing.T) {
	atoms := []EvidenceAtom{
		{Pass: true, Severity: SeverityInfo},
		{Pass: false, Severity: SeverityWarning},
		{Pass: false, Severity: SeverityWarning},
		{Pass: false, Severity: SeverityCritical},
	}

	counts := CountBySeverity(atoms)
	assert.Equal(t, 2, counts[SeverityWarning])
	assert.Equal(t, 1, counts[SeverityCritical])
	assert.Zero(t, counts[SeverityInfo])
}

func TestAtomIDSet(t *testing.T) {
	atoms := []EvidenceAtom{{ID: "a"}, {ID: "b"}, {ID: "a"}}

	set := AtomIDSet(atoms)
	assert.Len(t, set, 2)
	_, ok := set["a"]
	assert.True(t, ok)
	_, missing := set["z"]
	assert.False(t, missing)
}

func TestSamplePrevious(t *testing.T) {
	assert.Nil(t, Sample{}.Previous())

	first := Frame{"Pitch (deg)": 1.0}
	last := Frame{"Pitch (deg)": 2.0}
	s := Sample{Context: []Frame{first, last}}
	assert.InDelta(t, 2.0, s.Previous()["Pitch (deg)"], 1e-9)
}

func TestTaskKind(t *testing.T) {
	assert.Equal(t, ValueSingle, TaskS1.Kind())
	assert.Equal(t, ValueSingle, TaskM1.Kind())
	assert.Equal(t, ValueArray, TaskM3.Kind())
}

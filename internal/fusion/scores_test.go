package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurenolun/fly-eval/internal/config"
	"github.com/gurenolun/fly-eval/internal/domain"
)

func TestAvailability(t *testing.T) {
	assert.InDelta(t, 100.0, Availability(domain.ProtocolResult{Completeness: 1}), 1e-9)
	assert.InDelta(t, 50.0, Availability(domain.ProtocolResult{Completeness: 0.5}), 1e-9)
	assert.Zero(t, Availability(domain.ProtocolResult{}))
}

func TestConstraintSatisfaction(t *testing.T) {
	fcfg := config.Default().Fusion

	t.Run("empty pack scores zero", func(t *testing.T) {
		assert.Zero(t, ConstraintSatisfaction(nil, fcfg))
	})

	t.Run("all passing scores full", func(t *testing.T) {
		atoms := []domain.EvidenceAtom{
			passAtom(domain.FamilyNumeric, "a"),
			passAtom(domain.FamilyRange, "b"),
		}
		assert.InDelta(t, 100.0, ConstraintSatisfaction(atoms, fcfg), 1e-9)
	})

	t.Run("critical failures weigh heaviest", func(t *testing.T) {
		// One critical fail (weight 3) against one info pass (weight
		// 0.5): passed share is 0.5 of 3.5.
		atoms := []domain.EvidenceAtom{
			failAtom(domain.FamilySafety, "rapid_descent", domain.SeverityCritical),
			passAtom(domain.FamilyNumeric, "a"),
		}
		assert.InDelta(t, 0.5/3.5*100, ConstraintSatisfaction(atoms, fcfg), 1e-9)
	})

	t.Run("warnings weigh less than criticals", func(t *testing.T) {
		warn := []domain.EvidenceAtom{
			failAtom(domain.FamilyJump, "a", domain.SeverityWarning),
			passAtom(domain.FamilyNumeric, "b"),
		}
		crit := []domain.EvidenceAtom{
			failAtom(domain.FamilyJump, "a", domain.SeverityCritical),
			passAtom(domain.FamilyNumeric, "b"),
		}
		assert.Greater(t,
			ConstraintSatisfaction(warn, fcfg),
			ConstraintSatisfaction(crit, fcfg))
	})
}

func TestMAEScoreSegments(t *testing.T) {
	tests := []struct {
		mae  float64
		want float64
	}{
		{0, 100},
		{5, 90},
		{20, 70},
		{50, 50},
		{100, 30},
		{200, 15},
		{300, 5},
		{10000, 5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, MAEScore(tt.mae), 1e-9, "mae=%v", tt.mae)
	}

	// Monotone within segments.
	assert.Greater(t, MAEScore(2), MAEScore(4))
	assert.Greater(t, MAEScore(10), MAEScore(15))
}

func TestRMSEScoreSegments(t *testing.T) {
	tests := []struct {
		rmse float64
		want float64
	}{
		{0, 100},
		{10, 90},
		{50, 70},
		{100, 50},
		{200, 30},
		{300, 15},
		{450, 5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, RMSEScore(tt.rmse), 1e-9, "rmse=%v", tt.rmse)
	}
}

func TestComputeScores(t *testing.T) {
	cfg := config.Default()

	protocol := domain.ProtocolResult{
		ParseOK:      true,
		Completeness: 1,
		Fields: map[string]any{
			config.FieldPitch: 3.0,
			config.FieldRoll:  -1.0,
		},
	}
	atoms := []domain.EvidenceAtom{
		passAtom(domain.FamilyNumeric, config.FieldPitch),
		passAtom(domain.FamilyNumeric, config.FieldRoll),
	}

	t.Run("measured error path", func(t *testing.T) {
		sample := domain.Sample{
			SampleID: "f-001",
			TaskID:   domain.TaskS1,
			Gold: &domain.Gold{
				Available: true,
				Fields: map[string]any{
					config.FieldPitch: 5.0,
					config.FieldRoll:  -1.0,
				},
			},
		}

		scores := ComputeScores(protocol, atoms, sample, true, cfg)
		require.False(t, scores.ConditionalErrProxy)

		// Diffs are 2 and 0: MAE 1, RMSE sqrt(2).
		assert.InDelta(t, MAEScore(1), scores.MAEScore, 1e-9)
		assert.InDelta(t, RMSEScore(1.4142135623730951), scores.RMSEScore, 1e-9)
		assert.InDelta(t,
			0.6*scores.MAEScore+0.4*scores.RMSEScore, scores.ConditionalErr, 1e-9)
		assert.InDelta(t,
			0.2*scores.Availability+0.3*scores.ConstraintSatisfaction+0.5*scores.ConditionalErr,
			scores.Total, 1e-9)
	})

	t.Run("no gold falls back to proxy", func(t *testing.T) {
		sample := domain.Sample{SampleID: "f-002", TaskID: domain.TaskS1}

		scores := ComputeScores(protocol, atoms, sample, true, cfg)
		assert.True(t, scores.ConditionalErrProxy)
		assert.InDelta(t, scores.ConstraintSatisfaction, scores.ConditionalErr, 1e-9)
	})

	t.Run("ineligible record uses proxy even with gold", func(t *testing.T) {
		sample := domain.Sample{
			SampleID: "f-003",
			TaskID:   domain.TaskS1,
			Gold: &domain.Gold{
				Available: true,
				Fields:    map[string]any{config.FieldPitch: 5.0},
			},
		}

		scores := ComputeScores(protocol, atoms, sample, false, cfg)
		assert.True(t, scores.ConditionalErrProxy)
	})

	t.Run("angle fields use shortest arc", func(t *testing.T) {
		angleProtocol := domain.ProtocolResult{
			ParseOK:      true,
			Completeness: 1,
			Fields:       map[string]any{config.FieldGroundTrack: 359.0},
		}
		sample := domain.Sample{
			SampleID: "f-004",
			TaskID:   domain.TaskS1,
			Gold: &domain.Gold{
				Available: true,
				Fields:    map[string]any{config.FieldGroundTrack: 1.0},
			},
		}

		scores := ComputeScores(angleProtocol, nil, sample, true, cfg)
		require.False(t, scores.ConditionalErrProxy)
		// A 2 degree arc, not 358.
		assert.InDelta(t, MAEScore(2), scores.MAEScore, 1e-9)
	})

	t.Run("array tasks compare the common prefix", func(t *testing.T) {
		arrProtocol := domain.ProtocolResult{
			ParseOK:      true,
			Completeness: 1,
			Fields:       map[string]any{config.FieldBaroAltitude: []float64{5500, 5600}},
		}
		sample := domain.Sample{
			SampleID: "f-005",
			TaskID:   domain.TaskM3,
			Gold: &domain.Gold{
				Available: true,
				Fields:    map[string]any{config.FieldBaroAltitude: []float64{5510, 5610, 5710}},
			},
		}

		scores := ComputeScores(arrProtocol, nil, sample, true, cfg)
		require.False(t, scores.ConditionalErrProxy)
		// Two comparable elements, both off by 10.
		assert.InDelta(t, MAEScore(10), scores.MAEScore, 1e-9)
		assert.InDelta(t, RMSEScore(10), scores.RMSEScore, 1e-9)
	})
}

package verify

import (
	"fmt"
	"math"

	"github.com/gurenolun/fly-eval/internal/config"
	"github.com/gurenolun/fly-eval/internal/domain"
	"github.com/gurenolun/fly-eval/internal/ports"
)

var _ ports.Checker = (*PhysicsChecker)(nil)

// PhysicsChecker verifies physical plausibility: trajectory continuity
// for array predictions, the vertical speed envelope against altitude,
// and attitude coherence with the vertical velocity component.
type PhysicsChecker struct {
	cfg *config.Config
}

// NewPhysicsChecker creates the physics constraint checker.
func NewPhysicsChecker(cfg *config.Config) *PhysicsChecker {
	return &PhysicsChecker{cfg: cfg}
}

// ID returns the checker family name.
func (c *PhysicsChecker) ID() string { return domain.FamilyPhysics }

// Check runs the plausibility rules applicable to the task.
func (c *PhysicsChecker) Check(in ports.CheckInput) []domain.EvidenceAtom {
	var atoms []domain.EvidenceAtom

	if in.Sample.TaskID.Kind() == domain.ValueArray {
		atoms = append(atoms, c.arrayContinuity(in)...)
	}
	if atom, ok := c.verticalSpeedEnvelope(in); ok {
		atoms = append(atoms, atom)
	}
	if atom, ok := c.attitude(in); ok {
		atoms = append(atoms, atom)
	}

	return atoms
}

// arrayContinuity bounds changes between adjacent predicted seconds. The
// continuity threshold is twice the per-second jump threshold: a
// trajectory may move fast, but it may not teleport.
func (c *PhysicsChecker) arrayContinuity(in ports.CheckInput) []domain.EvidenceAtom {
	var atoms []domain.EvidenceAtom

	for _, field := range c.cfg.RequiredFields {
		jump, ok := c.cfg.JumpThresholds[field]
		if !ok || jump <= 0 {
			continue
		}
		series, ok := seriesAt(in.Fields, field)
		if !ok || len(series) < 2 {
			continue
		}

		angular := c.cfg.IsAngleField(field)
		threshold := 2 * jump
		maxChange := 0.0
		for i := 1; i < len(series); i++ {
			if change := delta(series[i], series[i-1], angular); change > maxChange {
				maxChange = change
			}
		}

		atom := domain.EvidenceAtom{
			ID:    domain.AtomID(domain.FamilyPhysics, "array_continuity."+field),
			Type:  domain.FamilyPhysics,
			Field: field,
			Scope: domain.ScopeField,
			Meta: map[string]any{
				"max_change": maxChange,
				"threshold":  threshold,
			},
		}
		switch {
		case maxChange > 1.5*threshold:
			atom.Pass = false
			atom.Severity = domain.SeverityCritical
			atom.Message = fmt.Sprintf("trajectory discontinuity: max change %.4f against threshold %.4f", maxChange, threshold)
		case maxChange > threshold:
			atom.Pass = false
			atom.Severity = domain.SeverityWarning
			atom.Message = fmt.Sprintf("trajectory strain: max change %.4f against threshold %.4f", maxChange, threshold)
		default:
			atom.Pass = true
			atom.Severity = domain.SeverityInfo
			atom.Message = "trajectory is continuous"
		}
		atoms = append(atoms, atom)
	}

	return atoms
}

// verticalSpeedEnvelope bounds vertical speed magnitude by altitude band.
func (c *PhysicsChecker) verticalSpeedEnvelope(in ports.CheckInput) (domain.EvidenceAtom, bool) {
	vs, okVS := lastValue(in.Fields, config.FieldVerticalSpeed)
	alt, okAlt := lastValue(in.Fields, config.FieldBaroAltitude)
	if !okVS || !okAlt {
		return domain.EvidenceAtom{}, false
	}

	limit := c.cfg.Physics.MaxVSFpm
	if alt < c.cfg.Physics.LowAltFt {
		limit = c.cfg.Physics.LowAltMaxVSFpm
	}

	atom := domain.EvidenceAtom{
		ID:    domain.AtomID(domain.FamilyPhysics, "vertical_speed_envelope"),
		Type:  domain.FamilyPhysics,
		Field: config.FieldVerticalSpeed,
		Scope: domain.ScopeCrossField,
		Meta: map[string]any{
			"vertical_speed_fpm": vs,
			"altitude_ft":        alt,
			"limit_fpm":          limit,
		},
	}
	if math.Abs(vs) > limit {
		atom.Pass = false
		atom.Severity = domain.SeverityWarning
		atom.Message = fmt.Sprintf("vertical speed %.0f fpm exceeds %.0f fpm envelope at %.0f ft", vs, limit, alt)
	} else {
		atom.Pass = true
		atom.Severity = domain.SeverityInfo
		atom.Message = "vertical speed within envelope"
	}
	return atom, true
}

// attitude checks roll and pitch plausibility, and that a sustained
// pitch is accompanied by a vertical velocity component in rough
// proportion.
func (c *PhysicsChecker) attitude(in ports.CheckInput) (domain.EvidenceAtom, bool) {
	roll, okRoll := lastValue(in.Fields, config.FieldRoll)
	pitch, okPitch := lastValue(in.Fields, config.FieldPitch)
	if !okRoll || !okPitch {
		return domain.EvidenceAtom{}, false
	}

	meta := map[string]any{"roll_deg": roll, "pitch_deg": pitch}

	if math.Abs(roll) > c.cfg.Physics.ExtremeRollDeg || math.Abs(pitch) > c.cfg.Physics.ExtremePitchDeg {
		return domain.EvidenceAtom{
			ID:       domain.AtomID(domain.FamilyPhysics, "extreme_attitude"),
			Type:     domain.FamilyPhysics,
			Scope:    domain.ScopeCrossField,
			Pass:     false,
			Severity: domain.SeverityCritical,
			Message:  fmt.Sprintf("extreme attitude: roll %.1f deg, pitch %.1f deg", roll, pitch),
			Meta:     meta,
		}, true
	}

	if vu, ok := lastValue(in.Fields, config.FieldVelocityU); ok &&
		math.Abs(pitch) > c.cfg.Physics.PitchVelocityPitchDeg {
		// Expected vertical component scales with pitch; a 30 degree
		// pitch at cruise implies roughly 5 m/s, and anything below 30%
		// of that is inconsistent with the claimed attitude.
		expected := (math.Abs(pitch) / 30.0) * 5.0
		if math.Abs(vu) < expected*0.3 {
			meta["velocity_u_ms"] = vu
			meta["expected_min_ms"] = expected * 0.3
			return domain.EvidenceAtom{
				ID:       domain.AtomID(domain.FamilyPhysics, "pitch_velocity_mismatch"),
				Type:     domain.FamilyPhysics,
				Scope:    domain.ScopeCrossField,
				Pass:     false,
				Severity: domain.SeverityWarning,
				Message:  fmt.Sprintf("pitch %.1f deg with vertical velocity %.2f m/s", pitch, vu),
				Meta:     meta,
			}, true
		}
	}

	return domain.EvidenceAtom{
		ID:       domain.AtomID(domain.FamilyPhysics, "attitude"),
		Type:     domain.FamilyPhysics,
		Scope:    domain.ScopeCrossField,
		Pass:     true,
		Severity: domain.SeverityInfo,
		Message:  "attitude is plausible",
		Meta:     meta,
	}, true
}

package verify

import (
	"fmt"
	"math"
	"strings"

	"github.com/gurenolun/fly-eval/internal/config"
	"github.com/gurenolun/fly-eval/internal/domain"
	"github.com/gurenolun/fly-eval/internal/ports"
)

var _ ports.Checker = (*CrossFieldChecker)(nil)

// CrossFieldChecker verifies agreement between fields that observe the
// same physical quantity through different sensors: GPS vs baro
// altitude, reported vs velocity-derived ground speed, and reported vs
// velocity-derived ground track.
//
// A check whose prerequisite fields are unavailable emits a warning skip
// atom rather than passing silently; an unrunnable consistency check is
// itself a finding.
type CrossFieldChecker struct {
	cfg *config.Config
}

// NewCrossFieldChecker creates the cross-field consistency checker.
func NewCrossFieldChecker(cfg *config.Config) *CrossFieldChecker {
	return &CrossFieldChecker{cfg: cfg}
}

// ID returns the checker family name.
func (c *CrossFieldChecker) ID() string { return domain.FamilyCrossField }

// Check runs the three consistency rules. Array tasks are assessed on
// the final predicted state.
func (c *CrossFieldChecker) Check(in ports.CheckInput) []domain.EvidenceAtom {
	return []domain.EvidenceAtom{
		c.altitudeConsistency(in),
		c.groundSpeedConsistency(in),
		c.trackConsistency(in),
	}
}

func (c *CrossFieldChecker) altitudeConsistency(in ports.CheckInput) domain.EvidenceAtom {
	const rule = "altitude_consistency"

	gps, okGPS := lastValue(in.Fields, config.FieldGPSAltitude)
	baro, okBaro := lastValue(in.Fields, config.FieldBaroAltitude)
	if !okGPS || !okBaro {
		return c.skip(rule, missingOf(okGPS, config.FieldGPSAltitude, okBaro, config.FieldBaroAltitude))
	}

	diff := math.Abs(gps - baro)
	return c.band(rule, diff, c.cfg.CrossField.AltDiffWarnFt, c.cfg.CrossField.AltDiffCritFt,
		fmt.Sprintf("GPS and baro altitude differ by %.1f ft", diff),
		map[string]any{"gps_altitude": gps, "baro_altitude": baro, "diff_ft": diff})
}

func (c *CrossFieldChecker) groundSpeedConsistency(in ports.CheckInput) domain.EvidenceAtom {
	const rule = "ground_speed_consistency"

	gs, okGS := lastValue(in.Fields, config.FieldGroundSpeed)
	ve, okVe := lastValue(in.Fields, config.FieldVelocityE)
	vn, okVn := lastValue(in.Fields, config.FieldVelocityN)
	if !okGS || !okVe || !okVn {
		return c.skip(rule, missingOf(okGS, config.FieldGroundSpeed,
			okVe, config.FieldVelocityE, okVn, config.FieldVelocityN))
	}

	derived := math.Hypot(ve, vn) * config.MetersPerSecondToKnots
	diff := math.Abs(gs - derived)
	return c.band(rule, diff, c.cfg.CrossField.GroundSpeedWarnKt, c.cfg.CrossField.GroundSpeedCritKt,
		fmt.Sprintf("ground speed %.1f kt disagrees with velocity-derived %.1f kt", gs, derived),
		map[string]any{"ground_speed_kt": gs, "derived_kt": derived, "diff_kt": diff})
}

func (c *CrossFieldChecker) trackConsistency(in ports.CheckInput) domain.EvidenceAtom {
	const rule = "track_consistency"

	track, okTrack := lastValue(in.Fields, config.FieldGroundTrack)
	ve, okVe := lastValue(in.Fields, config.FieldVelocityE)
	vn, okVn := lastValue(in.Fields, config.FieldVelocityN)
	if !okTrack || !okVe || !okVn {
		return c.skip(rule, missingOf(okTrack, config.FieldGroundTrack,
			okVe, config.FieldVelocityE, okVn, config.FieldVelocityN))
	}

	derived := normalizeTrack(math.Atan2(ve, vn) * 180 / math.Pi)
	diff := angleDelta(track, derived)
	return c.band(rule, diff, c.cfg.CrossField.TrackWarnDeg, c.cfg.CrossField.TrackCritDeg,
		fmt.Sprintf("ground track %.1f deg disagrees with velocity-derived %.1f deg", track, derived),
		map[string]any{"track_deg": track, "derived_deg": derived, "diff_deg": diff})
}

// band grades a disagreement magnitude against warning and critical
// bounds.
func (c *CrossFieldChecker) band(rule string, diff, warn, crit float64, failMsg string, meta map[string]any) domain.EvidenceAtom {
	atom := domain.EvidenceAtom{
		ID:    domain.AtomID(domain.FamilyCrossField, rule),
		Type:  domain.FamilyCrossField,
		Scope: domain.ScopeCrossField,
		Meta:  meta,
	}

	switch {
	case diff > crit:
		atom.Pass = false
		atom.Severity = domain.SeverityCritical
		atom.Message = failMsg
	case diff > warn:
		atom.Pass = false
		atom.Severity = domain.SeverityWarning
		atom.Message = failMsg
	default:
		atom.Pass = true
		atom.Severity = domain.SeverityInfo
		atom.Message = "fields are consistent"
	}

	return atom
}

// skip records that a consistency rule could not run.
func (c *CrossFieldChecker) skip(rule string, missing []string) domain.EvidenceAtom {
	return domain.EvidenceAtom{
		ID:       domain.AtomID(domain.FamilyCrossField, rule),
		Type:     domain.FamilyCrossField,
		Pass:     false,
		Severity: domain.SeverityWarning,
		Scope:    domain.ScopeCrossField,
		Message:  "skipped: missing " + strings.Join(missing, ", "),
		Meta:     map[string]any{"skipped": true, "missing_fields": missing},
	}
}

// missingOf collects the field names whose availability flag is false.
// Arguments alternate between flags and names.
func missingOf(pairs ...any) []string {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if ok := pairs[i].(bool); !ok {
			missing = append(missing, pairs[i+1].(string))
		}
	}
	return missing
}

package verify

import (
	"fmt"

	"github.com/gurenolun/fly-eval/internal/config"
	"github.com/gurenolun/fly-eval/internal/domain"
	"github.com/gurenolun/fly-eval/internal/ports"
)

var _ ports.Checker = (*SafetyChecker)(nil)

// SafetyChecker verifies operational safety constraints for the
// evaluated flight regime: descent rate, airspeed, altitude bounds, and
// the stall condition. Critical safety failures both gate eligibility
// and cap the judge's safety grade.
type SafetyChecker struct {
	cfg *config.Config
}

// NewSafetyChecker creates the safety constraint checker.
func NewSafetyChecker(cfg *config.Config) *SafetyChecker {
	return &SafetyChecker{cfg: cfg}
}

// ID returns the checker family name.
func (c *SafetyChecker) ID() string { return domain.FamilySafety }

// Check runs every safety rule whose inputs are available. Array tasks
// are assessed on the final predicted state.
func (c *SafetyChecker) Check(in ports.CheckInput) []domain.EvidenceAtom {
	var atoms []domain.EvidenceAtom

	vs, okVS := lastValue(in.Fields, config.FieldVerticalSpeed)
	ias, okIAS := lastValue(in.Fields, config.FieldAirspeed)
	alt, okAlt := lastValue(in.Fields, config.FieldBaroAltitude)
	pitch, okPitch := lastValue(in.Fields, config.FieldPitch)

	if okVS {
		atoms = append(atoms, c.rapidDescent(vs))
	}
	if okIAS {
		atoms = append(atoms, c.extremeSpeed(ias))
	}
	if okAlt {
		atoms = append(atoms, c.extremeAltitude(alt))
	}
	if okVS && okIAS && okPitch {
		atoms = append(atoms, c.stallCondition(ias, pitch, vs))
	}

	return atoms
}

func (c *SafetyChecker) rapidDescent(vs float64) domain.EvidenceAtom {
	atom := domain.EvidenceAtom{
		ID:    domain.AtomID(domain.FamilySafety, "rapid_descent"),
		Type:  domain.FamilySafety,
		Field: config.FieldVerticalSpeed,
		Scope: domain.ScopeSample,
		Meta:  map[string]any{"vertical_speed_fpm": vs},
	}
	switch {
	case vs < c.cfg.Safety.RapidDescentCritFpm:
		atom.Pass = false
		atom.Severity = domain.SeverityCritical
		atom.Message = fmt.Sprintf("rapid descent: %.0f fpm", vs)
	case vs < c.cfg.Safety.RapidDescentWarnFpm:
		atom.Pass = false
		atom.Severity = domain.SeverityWarning
		atom.Message = fmt.Sprintf("steep descent: %.0f fpm", vs)
	default:
		atom.Pass = true
		atom.Severity = domain.SeverityInfo
		atom.Message = "descent rate is safe"
	}
	return atom
}

func (c *SafetyChecker) extremeSpeed(ias float64) domain.EvidenceAtom {
	atom := domain.EvidenceAtom{
		ID:    domain.AtomID(domain.FamilySafety, "extreme_speed"),
		Type:  domain.FamilySafety,
		Field: config.FieldAirspeed,
		Scope: domain.ScopeSample,
		Meta:  map[string]any{"airspeed_kt": ias},
	}
	switch {
	case ias < c.cfg.Safety.MinIASKt:
		atom.Pass = false
		atom.Severity = domain.SeverityCritical
		atom.Message = fmt.Sprintf("airspeed %.0f kt below minimum %.0f kt", ias, c.cfg.Safety.MinIASKt)
	case ias > c.cfg.Safety.MaxIASKt:
		atom.Pass = false
		atom.Severity = domain.SeverityWarning
		atom.Message = fmt.Sprintf("airspeed %.0f kt above maximum %.0f kt", ias, c.cfg.Safety.MaxIASKt)
	default:
		atom.Pass = true
		atom.Severity = domain.SeverityInfo
		atom.Message = "airspeed within safe range"
	}
	return atom
}

func (c *SafetyChecker) extremeAltitude(alt float64) domain.EvidenceAtom {
	atom := domain.EvidenceAtom{
		ID:    domain.AtomID(domain.FamilySafety, "extreme_altitude"),
		Type:  domain.FamilySafety,
		Field: config.FieldBaroAltitude,
		Scope: domain.ScopeSample,
		Meta:  map[string]any{"altitude_ft": alt},
	}
	switch {
	case alt < c.cfg.Safety.MinAltFt:
		atom.Pass = false
		atom.Severity = domain.SeverityCritical
		atom.Message = fmt.Sprintf("altitude %.0f ft below ground", alt)
	case alt > c.cfg.Safety.MaxAltFt:
		atom.Pass = false
		atom.Severity = domain.SeverityWarning
		atom.Message = fmt.Sprintf("altitude %.0f ft above operational ceiling %.0f ft", alt, c.cfg.Safety.MaxAltFt)
	default:
		atom.Pass = true
		atom.Severity = domain.SeverityInfo
		atom.Message = "altitude within safe range"
	}
	return atom
}

func (c *SafetyChecker) stallCondition(ias, pitch, vs float64) domain.EvidenceAtom {
	atom := domain.EvidenceAtom{
		ID:    domain.AtomID(domain.FamilySafety, "stall_condition"),
		Type:  domain.FamilySafety,
		Scope: domain.ScopeSample,
		Meta: map[string]any{
			"airspeed_kt":        ias,
			"pitch_deg":          pitch,
			"vertical_speed_fpm": vs,
		},
	}
	if ias < c.cfg.Safety.StallIASKt && pitch > c.cfg.Safety.StallPitchDeg && vs < c.cfg.Safety.StallMaxVSFpm {
		atom.Pass = false
		atom.Severity = domain.SeverityCritical
		atom.Message = fmt.Sprintf("stall condition: %.0f kt at %.1f deg pitch with %.0f fpm", ias, pitch, vs)
	} else {
		atom.Pass = true
		atom.Severity = domain.SeverityInfo
		atom.Message = "no stall condition"
	}
	return atom
}

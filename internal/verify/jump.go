package verify

import (
	"fmt"

	"github.com/gurenolun/fly-eval/internal/config"
	"github.com/gurenolun/fly-eval/internal/domain"
	"github.com/gurenolun/fly-eval/internal/ports"
)

var _ ports.Checker = (*JumpChecker)(nil)

// criticalJumpRatio is the violation ratio at which an implausible jump
// stops being a warning. Below 1.0 the change is within the per-second
// threshold and passes.
const criticalJumpRatio = 1.5

// JumpChecker verifies per-second change magnitudes against the
// configured jump thresholds. Single-value tasks compare the prediction
// with the last context frame; array tasks compare adjacent elements
// within the predicted series. Angle fields use shortest-arc deltas.
type JumpChecker struct {
	cfg *config.Config
}

// NewJumpChecker creates the jump dynamics checker.
func NewJumpChecker(cfg *config.Config) *JumpChecker {
	return &JumpChecker{cfg: cfg}
}

// ID returns the checker family name.
func (c *JumpChecker) ID() string { return domain.FamilyJump }

// Check emits one atom per comparable transition.
func (c *JumpChecker) Check(in ports.CheckInput) []domain.EvidenceAtom {
	var atoms []domain.EvidenceAtom
	prev := in.Sample.Previous()

	for _, field := range c.cfg.RequiredFields {
		threshold, ok := c.cfg.JumpThresholds[field]
		if !ok || threshold <= 0 {
			continue
		}
		angular := c.cfg.IsAngleField(field)

		if series, ok := seriesAt(in.Fields, field); ok && in.Sample.TaskID.Kind() == domain.ValueArray {
			for i := 1; i < len(series); i++ {
				name := fmt.Sprintf("%s[%d]", field, i)
				change := delta(series[i], series[i-1], angular)
				atoms = append(atoms, c.grade(name, change, threshold))
			}
			continue
		}

		cur, ok := scalarAt(in.Fields, field)
		if !ok {
			continue
		}
		prevVal, ok := prev[field]
		if !ok || !finite(prevVal) {
			continue
		}
		change := delta(cur, prevVal, angular)
		atoms = append(atoms, c.grade(field, change, threshold))
	}

	return atoms
}

// grade bands a change magnitude by its violation ratio.
func (c *JumpChecker) grade(name string, change, threshold float64) domain.EvidenceAtom {
	ratio := change / threshold
	atom := domain.EvidenceAtom{
		ID:    domain.AtomID(domain.FamilyJump, name),
		Type:  domain.FamilyJump,
		Field: name,
		Scope: domain.ScopeField,
		Meta: map[string]any{
			"change":          change,
			"threshold":       threshold,
			"violation_ratio": ratio,
		},
	}

	switch {
	case ratio >= criticalJumpRatio:
		atom.Pass = false
		atom.Severity = domain.SeverityCritical
		atom.Message = fmt.Sprintf("change %.4f is %.2fx the per-second threshold %.4f", change, ratio, threshold)
	case ratio >= 1:
		atom.Pass = false
		atom.Severity = domain.SeverityWarning
		atom.Message = fmt.Sprintf("change %.4f exceeds per-second threshold %.4f", change, threshold)
	default:
		atom.Pass = true
		atom.Severity = domain.SeverityInfo
		atom.Message = "change within per-second threshold"
	}

	return atom
}

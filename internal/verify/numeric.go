package verify

import (
	"fmt"
	"math"

	"github.com/gurenolun/fly-eval/internal/config"
	"github.com/gurenolun/fly-eval/internal/domain"
	"github.com/gurenolun/fly-eval/internal/ports"
)

var _ ports.Checker = (*NumericChecker)(nil)

// NumericChecker verifies that every required field is present and
// carries a real number. Missing fields, non-numeric content, and
// NaN/Inf values are critical failures: nothing downstream can reason
// about a field that is not a number.
type NumericChecker struct {
	cfg *config.Config
}

// NewNumericChecker creates the numeric validity checker.
func NewNumericChecker(cfg *config.Config) *NumericChecker {
	return &NumericChecker{cfg: cfg}
}

// ID returns the checker family name.
func (c *NumericChecker) ID() string { return domain.FamilyNumeric }

// Check emits one atom per required field, or per array element for
// series-valued fields.
func (c *NumericChecker) Check(in ports.CheckInput) []domain.EvidenceAtom {
	var atoms []domain.EvidenceAtom

	for _, field := range c.cfg.RequiredFields {
		value, present := in.Fields[field]
		if !present {
			atoms = append(atoms, c.fail(field, "required field is missing", nil))
			continue
		}

		switch v := value.(type) {
		case float64:
			atoms = append(atoms, c.checkScalar(field, v))
		case []float64:
			if len(v) == 0 {
				atoms = append(atoms, c.fail(field, "array value is empty", nil))
				continue
			}
			for i, elem := range v {
				name := fmt.Sprintf("%s[%d]", field, i)
				atoms = append(atoms, c.checkScalar(name, elem))
			}
		default:
			atoms = append(atoms, c.fail(field,
				fmt.Sprintf("non-numeric value of type %T", value),
				map[string]any{"value": fmt.Sprintf("%v", value)}))
		}
	}

	return atoms
}

func (c *NumericChecker) checkScalar(name string, v float64) domain.EvidenceAtom {
	switch {
	case math.IsNaN(v):
		return c.fail(name, "value is NaN", nil)
	case math.IsInf(v, 0):
		return c.fail(name, "value is infinite", nil)
	default:
		return domain.EvidenceAtom{
			ID:       domain.AtomID(domain.FamilyNumeric, name),
			Type:     domain.FamilyNumeric,
			Field:    name,
			Pass:     true,
			Severity: domain.SeverityInfo,
			Scope:    domain.ScopeField,
			Message:  "valid number",
			Meta:     map[string]any{"value": v},
		}
	}
}

func (c *NumericChecker) fail(name, msg string, meta map[string]any) domain.EvidenceAtom {
	return domain.EvidenceAtom{
		ID:       domain.AtomID(domain.FamilyNumeric, name),
		Type:     domain.FamilyNumeric,
		Field:    name,
		Pass:     false,
		Severity: domain.SeverityCritical,
		Scope:    domain.ScopeField,
		Message:  msg,
		Meta:     meta,
	}
}

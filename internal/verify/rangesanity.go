package verify

import (
	"fmt"

	"github.com/gurenolun/fly-eval/internal/config"
	"github.com/gurenolun/fly-eval/internal/domain"
	"github.com/gurenolun/fly-eval/internal/ports"
)

var _ ports.Checker = (*RangeChecker)(nil)

// RangeChecker verifies that numeric values fall inside the configured
// sane-value limits per field. Out-of-range values are critical: a
// latitude of 200 degrees is not a bad prediction, it is not a latitude.
//
// Non-numeric values are left to the numeric validity family; this
// checker only assesses what it can compare.
type RangeChecker struct {
	cfg *config.Config
}

// NewRangeChecker creates the range sanity checker.
func NewRangeChecker(cfg *config.Config) *RangeChecker {
	return &RangeChecker{cfg: cfg}
}

// ID returns the checker family name.
func (c *RangeChecker) ID() string { return domain.FamilyRange }

// Check emits one atom per numeric field value against its limit.
func (c *RangeChecker) Check(in ports.CheckInput) []domain.EvidenceAtom {
	var atoms []domain.EvidenceAtom

	for _, field := range c.cfg.RequiredFields {
		limit, ok := c.cfg.FieldLimits[field]
		if !ok {
			continue
		}

		switch v := in.Fields[field].(type) {
		case float64:
			if finite(v) {
				atoms = append(atoms, c.checkValue(field, v, limit))
			}
		case []float64:
			for i, elem := range v {
				if finite(elem) {
					name := fmt.Sprintf("%s[%d]", field, i)
					atoms = append(atoms, c.checkValue(name, elem, limit))
				}
			}
		}
	}

	return atoms
}

func (c *RangeChecker) checkValue(name string, v float64, limit config.Limit) domain.EvidenceAtom {
	atom := domain.EvidenceAtom{
		ID:    domain.AtomID(domain.FamilyRange, name),
		Type:  domain.FamilyRange,
		Field: name,
		Scope: domain.ScopeField,
		Meta: map[string]any{
			"value": v,
			"min":   limit.Min,
			"max":   limit.Max,
		},
	}

	if v < limit.Min || v > limit.Max {
		atom.Pass = false
		atom.Severity = domain.SeverityCritical
		atom.Message = fmt.Sprintf("value %.4f outside [%.4f, %.4f]", v, limit.Min, limit.Max)
	} else {
		atom.Pass = true
		atom.Severity = domain.SeverityInfo
		atom.Message = "value within limits"
	}

	return atom
}

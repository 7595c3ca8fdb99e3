package judge

import (
	"fmt"

	"github.com/gurenolun/fly-eval/internal/domain"
)

// validateVerdict applies the hard post-hoc rules to a parsed judge
// response. A verdict that violates any of them is discarded as if the
// model had returned garbage; the caller retries or falls back.
//
// The rules are monotonicity constraints between evidence and grades,
// plus citation integrity: the judge may not grade above what the
// deterministic evidence permits, and may not cite evidence that does
// not exist.
func validateVerdict(
	gv domain.GradeVector,
	findings []Finding,
	summary EvidenceSummary,
	atomIDs map[string]struct{},
) error {
	if !gv.Complete() {
		return fmt.Errorf("incomplete grade vector")
	}

	// Protocol monotonicity: a response that failed to parse, or that
	// carries critical numeric validity failures, cannot earn A or B on
	// the protocol dimension.
	if !summary.ParseOK || summary.criticalCount(domain.FamilyNumeric) > 0 {
		if g := gv[domain.DimProtocol]; g == domain.GradeA || g == domain.GradeB {
			return fmt.Errorf("protocol grade %s despite parse or numeric validity failures", g)
		}
	}

	// Safety monotonicity: critical safety findings rule out A and B on
	// the safety dimension.
	if summary.criticalCount(domain.FamilySafety) > 0 {
		if g := gv[domain.DimSafety]; g == domain.GradeA || g == domain.GradeB {
			return fmt.Errorf("safety grade %s despite critical safety failures", g)
		}
	}

	// Quality monotonicity: a measured MAE score below 50 cannot earn an
	// A on predictive quality.
	if !summary.ConditionalErrProxy && summary.MAEScore > 0 && summary.MAEScore < 50 {
		if gv[domain.DimQuality] == domain.GradeA {
			return fmt.Errorf("quality grade A despite MAE score %.1f", summary.MAEScore)
		}
	}

	// Citation integrity: every cited evidence ID must exist.
	for _, f := range findings {
		for _, id := range f.EvidenceIDs {
			if _, ok := atomIDs[id]; !ok {
				return fmt.Errorf("finding cites unknown evidence id %q", id)
			}
		}
	}

	return nil
}

// fallbackFindings derives deterministic findings for the all-D fallback
// verdict from the record's critical evidence, at most five.
func fallbackFindings(atoms []domain.EvidenceAtom) []Finding {
	var findings []Finding
	for _, a := range domain.CriticalFailures(atoms) {
		findings = append(findings, Finding{
			Reason:      a.Message,
			EvidenceIDs: []string{a.ID},
			Dimension:   dimensionForFamily(a.Type),
			Severity:    string(domain.SeverityCritical),
		})
		if len(findings) == 5 {
			break
		}
	}
	return findings
}

// dimensionForFamily maps a checker family to the rubric dimension it
// informs.
func dimensionForFamily(family string) string {
	switch family {
	case domain.FamilyProtocol, domain.FamilyNumeric:
		return string(domain.DimProtocol)
	case domain.FamilyRange, domain.FamilyJump:
		return string(domain.DimFieldValidity)
	case domain.FamilyPhysics, domain.FamilyCrossField:
		return string(domain.DimPhysics)
	case domain.FamilySafety:
		return string(domain.DimSafety)
	default:
		return string(domain.DimQuality)
	}
}

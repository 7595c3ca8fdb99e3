package fusion

import (
	"github.com/gurenolun/fly-eval/internal/domain"
)

// Rubric failure-rate thresholds per dimension group. Schema and field
// dimensions are held to a tighter standard than the physical
// consistency dimensions, where occasional warnings are expected even
// from good predictions.
const (
	strictBThreshold = 0.05
	strictCThreshold = 0.15
	looseBThreshold  = 0.10
	looseCThreshold  = 0.25

	// completenessCThreshold is the minimum field completeness for a C
	// on the protocol dimension; an A or B requires a full schema.
	completenessCThreshold = 0.9
)

// gradeFromRate bands a failure rate into a letter grade.
func gradeFromRate(rate, bMax, cMax float64) domain.Grade {
	switch {
	case rate == 0:
		return domain.GradeA
	case rate <= bMax:
		return domain.GradeB
	case rate <= cMax:
		return domain.GradeC
	default:
		return domain.GradeD
	}
}

// familyStats returns failing and total atom counts across families.
func familyStats(atoms []domain.EvidenceAtom, families ...string) (failed, total int, critical bool) {
	want := make(map[string]struct{}, len(families))
	for _, f := range families {
		want[f] = struct{}{}
	}
	for _, a := range atoms {
		if _, ok := want[a.Type]; !ok {
			continue
		}
		total++
		if !a.Pass {
			failed++
			if a.Severity == domain.SeverityCritical {
				critical = true
			}
		}
	}
	return failed, total, critical
}

func failureRate(failed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(failed) / float64(total)
}

// capAtC lowers a grade to C when it would otherwise award A or B.
// Critical findings on a dimension rule out the top bands no matter how
// clean the rest of the family looks.
func capAtC(g domain.Grade) domain.Grade {
	if g == domain.GradeA || g == domain.GradeB {
		return domain.GradeC
	}
	return g
}

// RuleGrades derives a rubric grade vector from evidence alone, without
// an LLM. It applies the same banding the judge is instructed to use, so
// rule-only runs remain comparable with judged runs.
func RuleGrades(protocol domain.ProtocolResult, atoms []domain.EvidenceAtom, scores domain.Scores) domain.GradeVector {
	gv := make(domain.GradeVector, 5)

	// Protocol dimension: parseability, completeness, numeric validity.
	if !protocol.ParseOK {
		gv[domain.DimProtocol] = domain.GradeD
	} else {
		failed, total, critical := familyStats(atoms, domain.FamilyNumeric)
		g := gradeFromRate(failureRate(failed, total), strictBThreshold, strictCThreshold)
		if protocol.Completeness < completenessCThreshold {
			g = domain.GradeD
		} else if protocol.Completeness < 1 {
			g = capAtC(g)
		}
		if critical {
			g = capAtC(g)
		}
		gv[domain.DimProtocol] = g
	}

	// Field validity dimension: range sanity and local dynamics.
	failed, total, critical := familyStats(atoms, domain.FamilyRange, domain.FamilyJump)
	g := gradeFromRate(failureRate(failed, total), strictBThreshold, strictCThreshold)
	if critical {
		g = capAtC(g)
	}
	gv[domain.DimFieldValidity] = g

	// Physics dimension: physical and cross-field consistency.
	failed, total, critical = familyStats(atoms, domain.FamilyPhysics, domain.FamilyCrossField)
	g = gradeFromRate(failureRate(failed, total), looseBThreshold, looseCThreshold)
	if critical {
		g = capAtC(g)
	}
	gv[domain.DimPhysics] = g

	// Safety dimension.
	failed, total, critical = familyStats(atoms, domain.FamilySafety)
	g = gradeFromRate(failureRate(failed, total), looseBThreshold, looseCThreshold)
	if critical {
		g = capAtC(g)
	}
	gv[domain.DimSafety] = g

	// Predictive quality dimension, from the conditional error score.
	gv[domain.DimQuality] = qualityGrade(scores)

	return gv
}

// qualityGrade bands the conditional error score. Proxy scores can reach
// at most a B: without a measured error a top grade is not earned.
func qualityGrade(scores domain.Scores) domain.Grade {
	g := domain.GradeD
	switch {
	case scores.ConditionalErr >= 90:
		g = domain.GradeA
	case scores.ConditionalErr >= 70:
		g = domain.GradeB
	case scores.ConditionalErr >= 50:
		g = domain.GradeC
	}
	if scores.ConditionalErrProxy && g == domain.GradeA {
		g = domain.GradeB
	}
	return g
}

package domain

// Grade is a letter grade assigned per rubric dimension.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// Score maps a letter grade to its numeric weight.
// Unknown grades map to 0, the same as a D.
func (g Grade) Score() float64 {
	switch g {
	case GradeA:
		return 1.0
	case GradeB:
		return 0.75
	case GradeC:
		return 0.5
	default:
		return 0.0
	}
}

// Valid reports whether g is one of the four recognized grades.
func (g Grade) Valid() bool {
	switch g {
	case GradeA, GradeB, GradeC, GradeD:
		return true
	}
	return false
}

// Dimension names one axis of the judging rubric.
type Dimension string

const (
	// DimProtocol covers response parseability and schema compliance.
	DimProtocol Dimension = "protocol_schema_compliance"
	// DimFieldValidity covers per-field validity and local dynamics.
	DimFieldValidity Dimension = "field_validity_local_dynamics"
	// DimPhysics covers physics and cross-field consistency.
	DimPhysics Dimension = "physics_cross_field_consistency"
	// DimSafety covers safety constraint satisfaction.
	DimSafety Dimension = "safety_constraint_satisfaction"
	// DimQuality covers predictive quality and reliability.
	DimQuality Dimension = "predictive_quality_reliability"
)

// Dimensions lists the rubric axes in canonical order.
func Dimensions() []Dimension {
	return []Dimension{DimProtocol, DimFieldValidity, DimPhysics, DimSafety, DimQuality}
}

// GradeVector holds one grade per rubric dimension.
type GradeVector map[Dimension]Grade

// AllD returns a grade vector with every dimension set to D.
// This is the fallback verdict when judging cannot complete.
func AllD() GradeVector {
	gv := make(GradeVector, len(Dimensions()))
	for _, d := range Dimensions() {
		gv[d] = GradeD
	}
	return gv
}

// Complete reports whether every rubric dimension carries a valid grade.
func (gv GradeVector) Complete() bool {
	for _, d := range Dimensions() {
		g, ok := gv[d]
		if !ok || !g.Valid() {
			return false
		}
	}
	return true
}

// Mean returns the unweighted arithmetic mean of the mapped grade scores
// over the canonical dimensions, in [0, 1]. Missing dimensions count as D.
func (gv GradeVector) Mean() float64 {
	dims := Dimensions()
	var sum float64
	for _, d := range dims {
		sum += gv[d].Score()
	}
	return sum / float64(len(dims))
}

// FuseGrades collapses a grade vector into a 0-100 score by unweighted
// arithmetic mean of the mapped grades.
func FuseGrades(gv GradeVector) float64 { return gv.Mean() * 100 }

// OverallGrade maps a mean grade score in [0, 1] back to a letter band.
func OverallGrade(mean float64) Grade {
	switch {
	case mean >= 0.875:
		return GradeA
	case mean >= 0.625:
		return GradeB
	case mean >= 0.25:
		return GradeC
	default:
		return GradeD
	}
}

package domain

import "sort"

// Severity classifies how serious a constraint finding is.
// Critical findings veto eligibility; warnings and infos only
// shift weighted scores.
type Severity string

const (
	// SeverityCritical marks findings that make a prediction ineligible.
	SeverityCritical Severity = "critical"
	// SeverityWarning marks findings that degrade scores without vetoing.
	SeverityWarning Severity = "warning"
	// SeverityInfo marks routine observations, including passing checks.
	SeverityInfo Severity = "info"
)

// Scope identifies the granularity a finding applies to.
type Scope string

const (
	// ScopeField applies to a single predicted field.
	ScopeField Scope = "field"
	// ScopeSample applies to the prediction as a whole.
	ScopeSample Scope = "sample"
	// ScopeCrossField applies to a relationship between two or more fields.
	ScopeCrossField Scope = "cross_field"
)

// Checker family names. Every evidence atom carries one of these as its
// Type, and atom IDs are formed as "<family>.<rule-or-field>".
const (
	FamilyProtocol   = "protocol"
	FamilyNumeric    = "numeric_validity"
	FamilyRange      = "range_sanity"
	FamilyJump       = "jump_dynamics"
	FamilyCrossField = "cross_field_consistency"
	FamilyPhysics    = "physics_constraint"
	FamilySafety     = "safety_constraint"
)

// EvidenceAtom is the unit of record for a single check performed against
// a prediction. Checks emit an atom whether they pass or fail, so the
// evidence pack is a complete account of what was verified, not only of
// what went wrong.
type EvidenceAtom struct {
	// ID is a stable identifier of the form "<family>.<rule>" or
	// "<family>.<field>". IDs are deterministic across runs so verdicts
	// can cite them and caches can key on them.
	ID string `json:"id"`

	// Type names the checker family that produced this atom.
	Type string `json:"type"`

	// Field names the predicted field involved, or is empty for
	// sample-scoped findings. Array elements use "field[i]" notation.
	Field string `json:"field,omitempty"`

	// Pass reports whether the check succeeded.
	Pass bool `json:"pass"`

	// Severity classifies the finding when the check fails, and is
	// SeverityInfo for passing checks.
	Severity Severity `json:"severity"`

	// Scope identifies the granularity of the finding.
	Scope Scope `json:"scope"`

	// Message is a human-readable account of the finding.
	Message string `json:"message"`

	// Meta carries structured details such as observed values,
	// thresholds, or violation ratios.
	Meta map[string]any `json:"meta,omitempty"`
}

// AtomID builds the canonical evidence identifier for a family and rule.
func AtomID(family, rule string) string { return family + "." + rule }

// SortAtoms orders an evidence pack lexicographically by (Type, Field, ID).
// Fusion and serialization depend on this ordering being independent of
// checker execution order.
func SortAtoms(atoms []EvidenceAtom) {
	sort.SliceStable(atoms, func(i, j int) bool {
		if atoms[i].Type != atoms[j].Type {
			return atoms[i].Type < atoms[j].Type
		}
		if atoms[i].Field != atoms[j].Field {
			return atoms[i].Field < atoms[j].Field
		}
		return atoms[i].ID < atoms[j].ID
	})
}

// CriticalFailures returns the subset of atoms that are critical and failed.
// These are the findings that gate eligibility.
func CriticalFailures(atoms []EvidenceAtom) []EvidenceAtom {
	var out []EvidenceAtom
	for _, a := range atoms {
		if !a.Pass && a.Severity == SeverityCritical {
			out = append(out, a)
		}
	}
	return out
}

// CountBySeverity tallies failing atoms per severity level.
func CountBySeverity(atoms []EvidenceAtom) map[Severity]int {
	counts := make(map[Severity]int)
	for _, a := range atoms {
		if !a.Pass {
			counts[a.Severity]++
		}
	}
	return counts
}

// AtomIDSet returns the set of IDs present in an evidence pack.
// Judge verdicts may only cite IDs from this set.
func AtomIDSet(atoms []EvidenceAtom) map[string]struct{} {
	set := make(map[string]struct{}, len(atoms))
	for _, a := range atoms {
		set[a.ID] = struct{}{}
	}
	return set
}

package domain

// ChecklistStatus is the resolution state of one checklist item.
type ChecklistStatus string

const (
	ChecklistPass    ChecklistStatus = "pass"
	ChecklistFail    ChecklistStatus = "fail"
	ChecklistUnknown ChecklistStatus = "unknown"
)

// ChecklistItem is one planned verification, bound after the fact to the
// evidence the checkers actually produced. Items with no bound evidence
// stay unknown rather than silently passing.
type ChecklistItem struct {
	// ID is the item identifier, CHECK_001 upward.
	ID string `json:"id"`

	// Capability is the evaluated capability this item probes.
	Capability string `json:"capability"`

	// Family is the checker family whose evidence resolves this item.
	Family string `json:"constraint_family"`

	Status      ChecklistStatus `json:"status"`
	EvidenceIDs []string        `json:"evidence_ids,omitempty"`
}

// AttributionEntry is one ranked failure group in an adjudication.
// Groups key on "family:field" and critical groups always outrank
// warning groups.
type AttributionEntry struct {
	Rank        int      `json:"rank"`
	Group       string   `json:"group"`
	Severity    Severity `json:"severity"`
	Reason      string   `json:"reason"`
	EvidenceIDs []string `json:"evidence_ids"`
	Count       int      `json:"count"`
}

// Adjudication is the deterministic eligibility ruling for one record.
type Adjudication struct {
	// Eligible is false when any critical check failed or the response
	// could not be parsed at all.
	Eligible bool `json:"eligible"`

	// Reasons cites the evidence IDs behind an ineligible ruling.
	Reasons []string `json:"reasons,omitempty"`

	Checklist []ChecklistItem `json:"checklist,omitempty"`

	// Attribution lists the top failure groups, at most five.
	Attribution []AttributionEntry `json:"attribution,omitempty"`
}

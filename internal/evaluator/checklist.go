package evaluator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gurenolun/fly-eval/internal/domain"
	"github.com/gurenolun/fly-eval/internal/fusion"
)

// checklistPlan maps evaluated capabilities to the checker families
// whose evidence resolves them, in canonical order.
var checklistPlan = []struct {
	capability string
	family     string
}{
	{"field numeric validity", domain.FamilyNumeric},
	{"range sanity", domain.FamilyRange},
	{"local change dynamics", domain.FamilyJump},
	{"cross-field consistency", domain.FamilyCrossField},
	{"physical plausibility", domain.FamilyPhysics},
	{"safety constraint satisfaction", domain.FamilySafety},
}

// maxAttributionGroups bounds how many failure groups an adjudication
// reports.
const maxAttributionGroups = 5

// generateChecklist plans the verifications for a record, all unknown
// until evidence is bound.
func generateChecklist() []domain.ChecklistItem {
	items := make([]domain.ChecklistItem, 0, len(checklistPlan))
	for i, plan := range checklistPlan {
		items = append(items, domain.ChecklistItem{
			ID:         fmt.Sprintf("CHECK_%03d", i+1),
			Capability: plan.capability,
			Family:     plan.family,
			Status:     domain.ChecklistUnknown,
		})
	}
	return items
}

// bindEvidence resolves checklist items against the evidence pack. An
// item passes only when every atom of its family passed; items whose
// family produced no evidence stay unknown.
func bindEvidence(items []domain.ChecklistItem, atoms []domain.EvidenceAtom) []domain.ChecklistItem {
	bound := make([]domain.ChecklistItem, len(items))
	copy(bound, items)

	for i := range bound {
		var total int
		var failedIDs []string
		for _, a := range atoms {
			if a.Type != bound[i].Family {
				continue
			}
			total++
			if !a.Pass {
				failedIDs = append(failedIDs, a.ID)
			}
		}
		switch {
		case total == 0:
			bound[i].Status = domain.ChecklistUnknown
		case len(failedIDs) == 0:
			bound[i].Status = domain.ChecklistPass
		default:
			bound[i].Status = domain.ChecklistFail
			bound[i].EvidenceIDs = failedIDs
		}
	}

	return bound
}

// attribute ranks failure groups by severity then frequency. Groups key
// on "family:field"; critical groups always outrank warning groups.
func attribute(atoms []domain.EvidenceAtom) []domain.AttributionEntry {
	type group struct {
		key         string
		severity    domain.Severity
		evidenceIDs []string
		message     string
	}
	groups := make(map[string]*group)

	for _, a := range atoms {
		if a.Pass {
			continue
		}
		key := a.Type
		if a.Field != "" {
			key = a.Type + ":" + baseField(a.Field)
		}
		g, ok := groups[key]
		if !ok {
			g = &group{key: key, severity: a.Severity, message: a.Message}
			groups[key] = g
		}
		if a.Severity == domain.SeverityCritical {
			g.severity = domain.SeverityCritical
		}
		g.evidenceIDs = append(g.evidenceIDs, a.ID)
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		ci := ordered[i].severity == domain.SeverityCritical
		cj := ordered[j].severity == domain.SeverityCritical
		if ci != cj {
			return ci
		}
		if len(ordered[i].evidenceIDs) != len(ordered[j].evidenceIDs) {
			return len(ordered[i].evidenceIDs) > len(ordered[j].evidenceIDs)
		}
		return ordered[i].key < ordered[j].key
	})

	if len(ordered) > maxAttributionGroups {
		ordered = ordered[:maxAttributionGroups]
	}

	entries := make([]domain.AttributionEntry, 0, len(ordered))
	for rank, g := range ordered {
		entries = append(entries, domain.AttributionEntry{
			Rank:        rank + 1,
			Group:       g.key,
			Severity:    g.severity,
			Reason:      g.message,
			EvidenceIDs: g.evidenceIDs,
			Count:       len(g.evidenceIDs),
		})
	}
	return entries
}

// baseField strips array element notation so "Pitch (deg)[2]" groups
// with "Pitch (deg)".
func baseField(field string) string {
	if idx := strings.IndexByte(field, '['); idx > 0 {
		return field[:idx]
	}
	return field
}

// adjudicate produces the deterministic ruling for a record: the
// eligibility gate plus the bound checklist and failure attribution.
func adjudicate(protocol domain.ProtocolResult, atoms []domain.EvidenceAtom) domain.Adjudication {
	eligible, reasons := fusion.Gate(protocol, atoms)
	return domain.Adjudication{
		Eligible:    eligible,
		Reasons:     reasons,
		Checklist:   bindEvidence(generateChecklist(), atoms),
		Attribution: attribute(atoms),
	}
}

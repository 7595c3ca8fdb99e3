// Package fusion turns an evidence pack into deterministic outcomes:
// the eligibility gate, the numeric score set, and a rule-derived rubric
// grade vector. Everything here is a pure function of evidence and
// configuration; no randomness and no I/O.
package fusion

import (
	"github.com/gurenolun/fly-eval/internal/domain"
)

// Gate rules on eligibility. A prediction is ineligible when its
// response could not be parsed at all, or when any critical check
// failed. Reasons cite the vetoing evidence IDs so a ruling is always
// attributable.
func Gate(protocol domain.ProtocolResult, atoms []domain.EvidenceAtom) (bool, []string) {
	if !protocol.ParseOK {
		return false, []string{domain.AtomID(domain.FamilyProtocol, "parse_failure")}
	}

	var reasons []string
	for _, a := range domain.CriticalFailures(atoms) {
		reasons = append(reasons, a.ID)
	}
	if len(reasons) > 0 {
		return false, reasons
	}

	return true, nil
}

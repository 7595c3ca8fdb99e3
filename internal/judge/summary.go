// Package judge implements the evidence-only LLM adjudication layer.
// The judge never sees raw model output: it grades a structured summary
// of the evidence pack against a fixed rubric, its verdicts are
// validated post hoc against hard rules, and failures degrade to a
// deterministic all-D fallback. Verdicts are memoized by a fingerprint
// of the summary, prompt template, and rubric version.
package judge

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/gurenolun/fly-eval/internal/domain"
)

// maxExemplarsPerFamily bounds how many failing atoms a family summary
// carries into the prompt.
const maxExemplarsPerFamily = 5

// FamilySummary aggregates one checker family for the judge.
type FamilySummary struct {
	Family   string `json:"family"`
	Total    int    `json:"total"`
	Failed   int    `json:"failed"`
	Critical int    `json:"critical"`
	Warning  int    `json:"warning"`

	// Exemplars are up to maxExemplarsPerFamily failing atoms, in the
	// pack's canonical order.
	Exemplars []domain.EvidenceAtom `json:"exemplars,omitempty"`
}

// EvidenceSummary is the judge's entire view of a record. It is built
// from evidence and fusion outputs only, and its canonical JSON form is
// the basis of the verdict fingerprint.
type EvidenceSummary struct {
	TaskID domain.TaskID `json:"task_id"`

	ParseOK      bool     `json:"parse_ok"`
	ParseError   string   `json:"parse_error,omitempty"`
	APIError     bool     `json:"api_error,omitempty"`
	Completeness float64  `json:"completeness"`
	Missing      []string `json:"missing_fields,omitempty"`

	Families []FamilySummary `json:"families"`

	ConditionalErr      float64 `json:"conditional_error"`
	ConditionalErrProxy bool    `json:"conditional_error_proxy"`
	MAEScore            float64 `json:"mae_score,omitempty"`
	RMSEScore           float64 `json:"rmse_score,omitempty"`
}

// BuildSummary condenses a record's evidence into the judge's input.
// The atoms must already be in canonical order; family summaries come
// out sorted by family name so equal evidence always produces an
// identical summary.
func BuildSummary(
	taskID domain.TaskID,
	protocol domain.ProtocolResult,
	atoms []domain.EvidenceAtom,
	scores domain.Scores,
) EvidenceSummary {
	byFamily := make(map[string]*FamilySummary)
	for _, a := range atoms {
		fs, ok := byFamily[a.Type]
		if !ok {
			fs = &FamilySummary{Family: a.Type}
			byFamily[a.Type] = fs
		}
		fs.Total++
		if !a.Pass {
			fs.Failed++
			switch a.Severity {
			case domain.SeverityCritical:
				fs.Critical++
			case domain.SeverityWarning:
				fs.Warning++
			}
			if len(fs.Exemplars) < maxExemplarsPerFamily {
				fs.Exemplars = append(fs.Exemplars, a)
			}
		}
	}

	families := make([]FamilySummary, 0, len(byFamily))
	for _, fs := range byFamily {
		families = append(families, *fs)
	}
	sort.Slice(families, func(i, j int) bool { return families[i].Family < families[j].Family })

	return EvidenceSummary{
		TaskID:              taskID,
		ParseOK:             protocol.ParseOK,
		ParseError:          protocol.ParseError,
		APIError:            protocol.APIError,
		Completeness:        protocol.Completeness,
		Missing:             protocol.MissingFields,
		Families:            families,
		ConditionalErr:      scores.ConditionalErr,
		ConditionalErrProxy: scores.ConditionalErrProxy,
		MAEScore:            scores.MAEScore,
		RMSEScore:           scores.RMSEScore,
	}
}

// criticalCount returns the number of critical failures in a family.
func (s EvidenceSummary) criticalCount(family string) int {
	for _, fs := range s.Families {
		if fs.Family == family {
			return fs.Critical
		}
	}
	return 0
}

// Fingerprint derives the memoization key for a summary under the
// current prompt template and rubric version. Equal evidence under equal
// instructions always maps to the same key, so a rubric or prompt change
// invalidates every cached verdict.
func Fingerprint(summary EvidenceSummary) string {
	data, err := json.Marshal(summary)
	if err != nil {
		// Summaries are plain data assembled by BuildSummary; failing to
		// marshal one is a programming error.
		panic("judge: unmarshalable summary: " + err.Error())
	}

	h := sha256.New()
	h.Write(data)
	h.Write([]byte(promptTemplateHash()))
	h.Write([]byte(RubricVersion))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

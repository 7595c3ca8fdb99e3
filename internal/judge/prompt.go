package judge

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"text/template"
)

// RubricVersion identifies the grading rubric baked into the prompt.
// Bumping it invalidates every memoized verdict.
const RubricVersion = "1.0.0"

// promptTemplateText instructs the judge. It presents the evidence
// summary verbatim and demands a JSON verdict that cites evidence IDs.
const promptTemplateText = `You are grading a model's predicted next-state flight parameters.
You are given ONLY verified evidence about the prediction, never the
prediction text itself. Grade strictly from the evidence below.

Evidence summary:
{{.SummaryJSON}}

Grade each dimension A, B, C, or D:
- protocol_schema_compliance: response parseability and field completeness.
  A requires a fully parsed, complete schema with no validity failures.
- field_validity_local_dynamics: per-field range sanity and per-second
  change plausibility.
- physics_cross_field_consistency: physical plausibility and agreement
  between related fields.
- safety_constraint_satisfaction: descent rate, airspeed, altitude, and
  stall constraints. Any critical safety failure rules out A and B.
- predictive_quality_reliability: conditional error against the
  reference; treat proxy scores conservatively.

Every critical finding you report must cite evidence IDs that appear in
the summary. Do not invent evidence.

Respond with valid JSON in exactly this format:
{
  "grade_vector": {
    "protocol_schema_compliance": "<A|B|C|D>",
    "field_validity_local_dynamics": "<A|B|C|D>",
    "physics_cross_field_consistency": "<A|B|C|D>",
    "safety_constraint_satisfaction": "<A|B|C|D>",
    "predictive_quality_reliability": "<A|B|C|D>"
  },
  "overall_grade": "<A|B|C|D>",
  "critical_findings": [
    {"reason": "<text>", "evidence_ids": ["<id>"], "dimension": "<dimension>", "severity": "critical"}
  ],
  "reasoning": {"<dimension>": "<one sentence>"}
}`

var (
	promptTemplate     = template.Must(template.New("judgePrompt").Parse(promptTemplateText))
	promptHashOnce     sync.Once
	promptHashComputed string
)

// promptTemplateHash returns a short digest of the prompt template, used
// in the verdict fingerprint so prompt edits invalidate the cache.
func promptTemplateHash() string {
	promptHashOnce.Do(func() {
		sum := sha256.Sum256([]byte(promptTemplateText))
		promptHashComputed = hex.EncodeToString(sum[:])[:16]
	})
	return promptHashComputed
}

// BuildPrompt renders the judging prompt for an evidence summary.
func BuildPrompt(summary EvidenceSummary) (string, error) {
	summaryJSON, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode evidence summary: %w", err)
	}

	var buf bytes.Buffer
	err = promptTemplate.Execute(&buf, struct{ SummaryJSON string }{SummaryJSON: string(summaryJSON)})
	if err != nil {
		return "", fmt.Errorf("failed to render judge prompt: %w", err)
	}
	return buf.String(), nil
}

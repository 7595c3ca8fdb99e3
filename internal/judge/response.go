package judge

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/gurenolun/fly-eval/internal/domain"
	"github.com/gurenolun/fly-eval/internal/protocol"
)

// Finding is one failure the judge chose to highlight. Every finding
// must cite evidence IDs that exist in the record's pack.
type Finding struct {
	Reason      string   `json:"reason" validate:"required,min=5"`
	EvidenceIDs []string `json:"evidence_ids" validate:"required,min=1"`
	Dimension   string   `json:"dimension" validate:"required"`
	Severity    string   `json:"severity" validate:"required,oneof=critical warning info"`
}

// modelResponse is the JSON schema the judge must return.
type modelResponse struct {
	GradeVector      map[string]string `json:"grade_vector" validate:"required,min=5"`
	OverallGrade     string            `json:"overall_grade" validate:"required,oneof=A B C D"`
	CriticalFindings []Finding         `json:"critical_findings" validate:"omitempty,dive"`
	Reasoning        map[string]string `json:"reasoning"`
}

var responseValidate = validator.New()

// parseResponse extracts and structurally validates a judge verdict from
// raw model text. Rubric-level validation happens separately in
// validateVerdict.
func parseResponse(raw string) (modelResponse, error) {
	jsonStr := protocol.ExtractJSON(raw)
	if jsonStr == "" {
		return modelResponse{}, fmt.Errorf("no JSON object in judge response (%d chars)", len(raw))
	}

	var resp modelResponse
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return modelResponse{}, fmt.Errorf("invalid judge response JSON: %w", err)
	}
	if err := responseValidate.Struct(resp); err != nil {
		return modelResponse{}, fmt.Errorf("judge response failed validation: %w", err)
	}

	return resp, nil
}

// gradeVector converts the response's grade map into a typed vector,
// requiring exactly the rubric dimensions with valid grades.
func (r modelResponse) gradeVector() (domain.GradeVector, error) {
	gv := make(domain.GradeVector, len(domain.Dimensions()))
	for _, dim := range domain.Dimensions() {
		raw, ok := r.GradeVector[string(dim)]
		if !ok {
			return nil, fmt.Errorf("grade vector missing dimension %q", dim)
		}
		g := domain.Grade(raw)
		if !g.Valid() {
			return nil, fmt.Errorf("invalid grade %q for dimension %q", raw, dim)
		}
		gv[dim] = g
	}
	return gv, nil
}

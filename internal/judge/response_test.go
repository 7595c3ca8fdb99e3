package judge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurenolun/fly-eval/internal/domain"
	"github.com/gurenolun/fly-eval/internal/testutils"
)

func TestParseResponse(t *testing.T) {
	t.Run("direct json", func(t *testing.T) {
		resp, err := parseResponse(testutils.JudgeVerdictJSON(domain.GradeB, ""))
		require.NoError(t, err)
		assert.Equal(t, "B", resp.OverallGrade)
		assert.Len(t, resp.GradeVector, 5)
	})

	t.Run("fenced json", func(t *testing.T) {
		raw := "Here is my verdict:\n```json\n" +
			testutils.JudgeVerdictJSON(domain.GradeC, "") + "\n```"

		resp, err := parseResponse(raw)
		require.NoError(t, err)
		assert.Equal(t, "C", resp.OverallGrade)
	})

	t.Run("no json", func(t *testing.T) {
		_, err := parseResponse("the prediction looks fine to me")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no JSON object")
	})

	t.Run("invalid overall grade", func(t *testing.T) {
		_, err := parseResponse(`{
			"grade_vector": {
				"protocol_schema_compliance": "A",
				"field_validity_local_dynamics": "A",
				"physics_cross_field_consistency": "A",
				"safety_constraint_satisfaction": "A",
				"predictive_quality_reliability": "A"
			},
			"overall_grade": "S"
		}`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed validation")
	})

	t.Run("missing grade vector", func(t *testing.T) {
		_, err := parseResponse(`{"overall_grade": "A"}`)
		assert.Error(t, err)
	})

	t.Run("finding without citations", func(t *testing.T) {
		_, err := parseResponse(`{
			"grade_vector": {
				"protocol_schema_compliance": "C",
				"field_validity_local_dynamics": "C",
				"physics_cross_field_consistency": "C",
				"safety_constraint_satisfaction": "C",
				"predictive_quality_reliability": "C"
			},
			"overall_grade": "C",
			"critical_findings": [
				{"reason": "broke a rule", "evidence_ids": [], "dimension": "safety_constraint_satisfaction", "severity": "critical"}
			]
		}`)
		assert.Error(t, err)
	})
}

func TestGradeVectorConversion(t *testing.T) {
	base := map[string]string{
		string(domain.DimProtocol):      "A",
		string(domain.DimFieldValidity): "B",
		string(domain.DimPhysics):       "C",
		string(domain.DimSafety):        "D",
		string(domain.DimQuality):       "A",
	}

	t.Run("valid map converts", func(t *testing.T) {
		gv, err := modelResponse{GradeVector: base}.gradeVector()
		require.NoError(t, err)
		assert.True(t, gv.Complete())
		assert.Equal(t, domain.GradeB, gv[domain.DimFieldValidity])
	})

	t.Run("missing dimension fails", func(t *testing.T) {
		m := map[string]string{}
		for k, v := range base {
			m[k] = v
		}
		delete(m, string(domain.DimSafety))
		m["some_other_dimension"] = "A"

		_, err := modelResponse{GradeVector: m}.gradeVector()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing dimension")
	})

	t.Run("lowercase grade fails", func(t *testing.T) {
		m := map[string]string{}
		for k, v := range base {
			m[k] = v
		}
		m[string(domain.DimSafety)] = "b"

		_, err := modelResponse{GradeVector: m}.gradeVector()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid grade")
	})
}

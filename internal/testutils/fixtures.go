// Package testutils provides shared fixtures for exercising the
// evaluation pipeline: steady-state flight frames, well-formed model
// responses, and a scripted LLM client for judge tests.
package testutils

import (
	"encoding/json"
	"fmt"

	"github.com/gurenolun/fly-eval/internal/config"
	"github.com/gurenolun/fly-eval/internal/domain"
)

// CruiseFrame returns a plausible steady cruise state covering every
// required field. Callers mutate the copy to build scenarios.
func CruiseFrame() domain.Frame {
	return domain.Frame{
		config.FieldLatitude:      37.6213,
		config.FieldLongitude:     -122.3790,
		config.FieldGPSAltitude:   5540,
		config.FieldGroundTrack:   270.1,
		config.FieldHeading:       268,
		config.FieldVelocityE:     -61.7,
		config.FieldVelocityN:     0.1,
		config.FieldVelocityU:     0.5,
		config.FieldGroundSpeed:   120,
		config.FieldRoll:          -1.2,
		config.FieldPitch:         2.4,
		config.FieldTurnRate:      0.1,
		config.FieldSlipSkid:      0.0,
		config.FieldNormalAccel:   1.0,
		config.FieldLateralAccel:  0.02,
		config.FieldVerticalSpeed: 150,
		config.FieldAirspeed:      115,
		config.FieldBaroAltitude:  5500,
		config.FieldPressureAlt:   5620,
	}
}

// ScalarSample builds a single-value task sample whose context ends at
// the cruise frame.
func ScalarSample(id string, task domain.TaskID) domain.Sample {
	frames := []domain.Frame{CruiseFrame()}
	if task == domain.TaskM1 {
		frames = []domain.Frame{CruiseFrame(), CruiseFrame(), CruiseFrame()}
	}
	return domain.Sample{SampleID: id, TaskID: task, Context: frames}
}

// ArraySample builds an M3 sample with a three-frame context window.
func ArraySample(id string) domain.Sample {
	return domain.Sample{
		SampleID: id,
		TaskID:   domain.TaskM3,
		Context:  []domain.Frame{CruiseFrame(), CruiseFrame(), CruiseFrame()},
	}
}

// ScalarResponseJSON renders a frame as the JSON a well-behaved model
// would produce for a single-value task.
func ScalarResponseJSON(frame domain.Frame) string {
	data, err := json.Marshal(frame)
	if err != nil {
		panic(fmt.Sprintf("marshal fixture frame: %v", err))
	}
	return string(data)
}

// ArrayResponseJSON renders per-field arrays for an array-value task,
// repeating each frame value n times.
func ArrayResponseJSON(frame domain.Frame, n int) string {
	fields := make(map[string][]float64, len(frame))
	for name, v := range frame {
		series := make([]float64, n)
		for i := range series {
			series[i] = v
		}
		fields[name] = series
	}
	data, err := json.Marshal(fields)
	if err != nil {
		panic(fmt.Sprintf("marshal fixture arrays: %v", err))
	}
	return string(data)
}

// GoldFor wraps a frame as an available reference for scalar tasks.
func GoldFor(frame domain.Frame) *domain.Gold {
	fields := make(map[string]any, len(frame))
	for name, v := range frame {
		fields[name] = v
	}
	return &domain.Gold{Available: true, Fields: fields}
}

// JudgeVerdictJSON renders a structurally valid judge reply assigning
// the same grade to every rubric dimension. The cited evidence ID must
// exist in the record's pack for rubric validation to accept it.
func JudgeVerdictJSON(grade domain.Grade, citedEvidenceID string) string {
	gv := make(map[string]string, len(domain.Dimensions()))
	for _, d := range domain.Dimensions() {
		gv[string(d)] = string(grade)
	}

	resp := map[string]any{
		"grade_vector":  gv,
		"overall_grade": string(grade),
		"reasoning": map[string]string{
			string(domain.DimProtocol): "response parsed cleanly and covered the schema",
		},
	}
	if citedEvidenceID != "" {
		resp["critical_findings"] = []map[string]any{{
			"reason":       "constraint violation reported by the checkers",
			"evidence_ids": []string{citedEvidenceID},
			"dimension":    string(domain.DimSafety),
			"severity":     "critical",
		}}
	}

	data, err := json.Marshal(resp)
	if err != nil {
		panic(fmt.Sprintf("marshal fixture verdict: %v", err))
	}
	return string(data)
}

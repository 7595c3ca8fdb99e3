package domain

import "time"

// TaskID identifies one of the supported prediction tasks.
type TaskID string

const (
	// TaskS1 predicts the next second from a single prior state.
	TaskS1 TaskID = "S1"
	// TaskM1 predicts the next second from a three-second window.
	TaskM1 TaskID = "M1"
	// TaskM3 predicts the next three seconds from a three-second window.
	TaskM3 TaskID = "M3"
)

// ValueKind tells whether a task predicts scalars or per-field arrays.
type ValueKind string

const (
	ValueSingle ValueKind = "single_value"
	ValueArray  ValueKind = "array_value"
)

// Kind returns the value shape expected from a task's predictions.
func (t TaskID) Kind() ValueKind {
	if t == TaskM3 {
		return ValueArray
	}
	return ValueSingle
}

// Frame is one observed flight state: field name to value.
type Frame map[string]float64

// Gold holds the reference next state for a sample, when one exists.
type Gold struct {
	// Available reports whether a usable reference exists. Conditional
	// error falls back to a proxy score when it does not.
	Available bool `json:"available"`

	// Fields maps field names to reference values. For array tasks the
	// values are []float64.
	Fields map[string]any `json:"fields,omitempty"`
}

// Sample is one evaluation input: the context window a model saw plus
// the optional reference for what actually happened next.
type Sample struct {
	SampleID string `json:"sample_id"`
	TaskID   TaskID `json:"task_id"`

	// Context is the window of prior states, oldest first. The last
	// frame is the state immediately preceding the prediction.
	Context []Frame `json:"context"`

	Gold *Gold `json:"gold,omitempty"`
}

// Previous returns the last context frame, or nil when no context exists.
func (s Sample) Previous() Frame {
	if len(s.Context) == 0 {
		return nil
	}
	return s.Context[len(s.Context)-1]
}

// ModelOutput is one model's raw response to a sample.
// The raw text is parsed by the protocol stage and never shown to the
// judge; only evidence derived from it flows downstream.
type ModelOutput struct {
	ModelName   string    `json:"model_name"`
	SampleID    string    `json:"sample_id"`
	TaskID      TaskID    `json:"task_id"`
	RawResponse string    `json:"raw_response_text"`
	Timestamp   time.Time `json:"timestamp"`
}

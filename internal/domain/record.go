package domain

import "time"

// NearMiss flags a response key that is probably a misspelling of a
// required field name.
type NearMiss struct {
	Got      string `json:"got"`
	Wanted   string `json:"wanted"`
	Distance int    `json:"distance"`
}

// ProtocolResult is the outcome of the parse-and-schema stage.
type ProtocolResult struct {
	// ParseOK reports whether a JSON object was recovered from the raw
	// response text.
	ParseOK bool `json:"parse_ok"`

	// ParseError describes why parsing failed, when it did.
	ParseError string `json:"parse_error,omitempty"`

	// APIError reports that the raw text looks like a transport or
	// provider error rather than a prediction.
	APIError bool `json:"api_error,omitempty"`

	// Fields holds the parsed prediction. Scalars are float64; array
	// tasks carry []float64 per field. Invalid entries survive here so
	// checkers can report them precisely.
	Fields map[string]any `json:"fields,omitempty"`

	// Completeness is present/required over the schema's field list,
	// in [0, 1].
	Completeness float64 `json:"completeness"`

	MissingFields []string   `json:"missing_fields,omitempty"`
	NearMisses    []NearMiss `json:"near_misses,omitempty"`
}

// Scores holds the rule-fusion numeric scores for a record, all on a
// 0-100 scale.
type Scores struct {
	Availability           float64 `json:"availability"`
	ConstraintSatisfaction float64 `json:"constraint_satisfaction"`

	// ConditionalErr is the segmented MAE/RMSE score when a reference
	// exists and the record is eligible; otherwise it mirrors
	// ConstraintSatisfaction and ConditionalErrProxy is set so the two
	// cases stay distinguishable downstream.
	ConditionalErr      float64 `json:"conditional_error"`
	ConditionalErrProxy bool    `json:"conditional_error_proxy"`

	// MAEScore and RMSEScore are the individual segment-mapped scores
	// feeding ConditionalErr. They are zero when the proxy is in use.
	MAEScore  float64 `json:"mae_score,omitempty"`
	RMSEScore float64 `json:"rmse_score,omitempty"`

	Total float64 `json:"total"`
}

// JudgeState tracks where a judging attempt ended up.
type JudgeState string

const (
	JudgePending           JudgeState = "pending"
	JudgeEvidenceCollected JudgeState = "evidence_collected"
	JudgeCacheHit          JudgeState = "cache_hit"
	JudgeModelCalled       JudgeState = "model_called"
	JudgeValidated         JudgeState = "validated"
	JudgeFinalized         JudgeState = "finalized"
	JudgeFallback          JudgeState = "fallback"
)

// JudgeMeta records how a grade vector was obtained.
type JudgeMeta struct {
	Model       string     `json:"model"`
	Temperature float64    `json:"temperature"`
	Retries     int        `json:"retries"`
	CacheHit    bool       `json:"cache_hit"`
	State       JudgeState `json:"state"`

	// FallbackReason is set when the judge could not produce a valid
	// verdict and the all-D fallback was applied.
	FallbackReason string `json:"fallback_reason,omitempty"`

	// Fingerprint is the cache key derived from the evidence summary,
	// prompt template, and rubric version.
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Trace pins a record to the exact configuration that produced it.
type Trace struct {
	ConfigVersion       string     `json:"config_version"`
	ConfigHash          string     `json:"config_hash"`
	SchemaHash          string     `json:"schema_hash"`
	ConstraintTableHash string     `json:"constraint_table_hash"`
	EvaluatorVersion    string     `json:"evaluator_version"`
	Timestamp           time.Time  `json:"timestamp"`
	VerifierIDs         []string   `json:"verifier_ids"`
	Judge               *JudgeMeta `json:"judge,omitempty"`
}

// Record is the immutable evaluation result for one (sample, model) pair.
type Record struct {
	SampleID  string `json:"sample_id"`
	ModelName string `json:"model_name"`
	TaskID    TaskID `json:"task_id"`

	Protocol     ProtocolResult `json:"protocol_result"`
	Evidence     []EvidenceAtom `json:"evidence_pack"`
	Adjudication Adjudication   `json:"adjudication"`
	Scores       Scores         `json:"scores"`

	// Grades is the rubric grade vector, from the LLM judge when one is
	// configured and from the rule-derived grader otherwise.
	Grades     GradeVector `json:"grade_vector,omitempty"`
	GradeScore float64     `json:"grade_score"`
	Overall    Grade       `json:"overall_grade"`

	Trace Trace `json:"trace"`
}

// TaskSummary aggregates records for one task across models.
type TaskSummary struct {
	TaskID         TaskID        `json:"task_id"`
	Records        int           `json:"records"`
	EligibleRate   float64       `json:"eligible_rate"`
	MeanTotal      float64       `json:"mean_total"`
	MeanConstraint float64       `json:"mean_constraint_satisfaction"`
	MeanGradeScore float64       `json:"mean_grade_score"`
	GradeHistogram map[Grade]int `json:"grade_histogram"`
}

// ModelProfile aggregates records for one model across tasks.
type ModelProfile struct {
	ModelName      string                 `json:"model_name"`
	Records        int                    `json:"records"`
	EligibleRate   float64                `json:"eligible_rate"`
	MeanTotal      float64                `json:"mean_total"`
	MeanGradeScore float64                `json:"mean_grade_score"`
	ByTask         map[TaskID]TaskSummary `json:"by_task"`
}

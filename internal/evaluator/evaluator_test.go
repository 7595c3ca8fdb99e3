package evaluator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurenolun/fly-eval/internal/config"
	"github.com/gurenolun/fly-eval/internal/domain"
	"github.com/gurenolun/fly-eval/internal/judge"
	"github.com/gurenolun/fly-eval/internal/testutils"
)

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := New(config.Default(), nil, nil)
	require.NoError(t, err)
	return e
}

func outputFor(sample domain.Sample, model, raw string) domain.ModelOutput {
	return domain.ModelOutput{
		ModelName:   model,
		SampleID:    sample.SampleID,
		TaskID:      sample.TaskID,
		RawResponse: raw,
		Timestamp:   time.Now().UTC(),
	}
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(nil, nil, nil)
	assert.Error(t, err)

	broken := config.Default()
	broken.Fusion.MAEWeight = 0.9
	_, err = New(broken, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestEvaluateCleanPrediction(t *testing.T) {
	e := newEvaluator(t)

	sample := testutils.ScalarSample("s-001", domain.TaskS1)
	sample.Gold = testutils.GoldFor(testutils.CruiseFrame())
	output := outputFor(sample, "model-x", testutils.ScalarResponseJSON(testutils.CruiseFrame()))

	record, err := e.Evaluate(context.Background(), sample, output)
	require.NoError(t, err)

	assert.True(t, record.Adjudication.Eligible)
	assert.Empty(t, record.Adjudication.Reasons)
	assert.True(t, record.Protocol.ParseOK)
	assert.NotEmpty(t, record.Evidence)
	assert.Empty(t, domain.CriticalFailures(record.Evidence))

	// Perfect prediction against an identical reference.
	assert.False(t, record.Scores.ConditionalErrProxy)
	assert.InDelta(t, 100.0, record.Scores.Total, 1e-9)
	assert.Equal(t, domain.GradeA, record.Overall)
	assert.InDelta(t, 100.0, record.GradeScore, 1e-9)

	trace := record.Trace
	assert.Equal(t, Version, trace.EvaluatorVersion)
	assert.Len(t, trace.ConfigHash, 16)
	assert.Len(t, trace.SchemaHash, 16)
	assert.Len(t, trace.ConstraintTableHash, 16)
	assert.Len(t, trace.VerifierIDs, 6)
	assert.Nil(t, trace.Judge)
	assert.False(t, trace.Timestamp.IsZero())
}

func TestEvaluateParseFailure(t *testing.T) {
	e := newEvaluator(t)

	sample := testutils.ScalarSample("s-002", domain.TaskS1)
	output := outputFor(sample, "model-x", "I cannot answer that.")

	record, err := e.Evaluate(context.Background(), sample, output)
	require.NoError(t, err)

	assert.False(t, record.Adjudication.Eligible)
	assert.Equal(t, []string{"protocol.parse_failure"}, record.Adjudication.Reasons)
	assert.Empty(t, record.Evidence)
	assert.Equal(t, domain.GradeD, record.Grades[domain.DimProtocol])
	assert.Zero(t, record.Scores.Availability)
}

func TestEvaluateCriticalSafetyViolation(t *testing.T) {
	e := newEvaluator(t)

	frame := testutils.CruiseFrame()
	frame[config.FieldVerticalSpeed] = -3500
	sample := testutils.ScalarSample("s-003", domain.TaskS1)
	output := outputFor(sample, "model-x", testutils.ScalarResponseJSON(frame))

	record, err := e.Evaluate(context.Background(), sample, output)
	require.NoError(t, err)

	assert.False(t, record.Adjudication.Eligible)
	assert.Contains(t, record.Adjudication.Reasons, "safety_constraint.rapid_descent")
	assert.True(t, record.Scores.ConditionalErrProxy)
	assert.NotEqual(t, domain.GradeA, record.Grades[domain.DimSafety])
}

func TestEvaluatePairingErrors(t *testing.T) {
	e := newEvaluator(t)
	sample := testutils.ScalarSample("s-004", domain.TaskS1)

	t.Run("sample mismatch", func(t *testing.T) {
		output := outputFor(sample, "model-x", "{}")
		output.SampleID = "someone-else"

		_, err := e.Evaluate(context.Background(), sample, output)
		assert.ErrorIs(t, err, domain.ErrSampleMismatch)
	})

	t.Run("unknown task", func(t *testing.T) {
		odd := sample
		odd.TaskID = "X9"
		output := outputFor(odd, "model-x", "{}")

		_, err := e.Evaluate(context.Background(), odd, output)
		assert.ErrorIs(t, err, domain.ErrUnknownTask)
	})
}

func TestEvaluateWithJudge(t *testing.T) {
	client := testutils.NewScriptedLLMClient("judge-model",
		testutils.ScriptedReply{Text: testutils.JudgeVerdictJSON(domain.GradeB, "")})
	j, err := judge.New(client, nil, nil, judge.DefaultConfig())
	require.NoError(t, err)

	e, err := New(config.Default(), j, nil)
	require.NoError(t, err)

	sample := testutils.ScalarSample("s-005", domain.TaskS1)
	output := outputFor(sample, "model-x", testutils.ScalarResponseJSON(testutils.CruiseFrame()))

	record, err := e.Evaluate(context.Background(), sample, output)
	require.NoError(t, err)

	for _, d := range domain.Dimensions() {
		assert.Equal(t, domain.GradeB, record.Grades[d])
	}
	assert.InDelta(t, 75.0, record.GradeScore, 1e-9)
	assert.Equal(t, domain.GradeB, record.Overall)

	require.NotNil(t, record.Trace.Judge)
	assert.Equal(t, "judge-model", record.Trace.Judge.Model)
	assert.Equal(t, domain.JudgeFinalized, record.Trace.Judge.State)
	assert.Equal(t, 1, client.Calls())
}

func TestEvaluateBatch(t *testing.T) {
	e := newEvaluator(t)

	s1 := testutils.ScalarSample("b-001", domain.TaskS1)
	s2 := testutils.ArraySample("b-002")
	samples := map[string]domain.Sample{
		s1.SampleID: s1,
		s2.SampleID: s2,
	}

	outputs := []domain.ModelOutput{
		outputFor(s1, "model-x", testutils.ScalarResponseJSON(testutils.CruiseFrame())),
		outputFor(s2, "model-x", testutils.ArrayResponseJSON(testutils.CruiseFrame(), 3)),
		{ModelName: "model-x", SampleID: "b-missing", TaskID: domain.TaskS1, RawResponse: "{}"},
	}

	records, err := e.EvaluateBatch(context.Background(), samples, outputs, 2)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Order follows the outputs, not completion time.
	assert.Equal(t, "b-001", records[0].SampleID)
	assert.Equal(t, "b-002", records[1].SampleID)
	assert.Equal(t, "b-missing", records[2].SampleID)

	assert.True(t, records[0].Adjudication.Eligible)
	assert.True(t, records[1].Adjudication.Eligible)

	failed := records[2]
	assert.False(t, failed.Adjudication.Eligible)
	assert.Equal(t, []string{"protocol.evaluation_failure"}, failed.Adjudication.Reasons)
	assert.Equal(t, domain.AllD(), failed.Grades)
	assert.Contains(t, failed.Protocol.ParseError, "no sample")
}

func TestEvaluateBatchDefaultsConcurrency(t *testing.T) {
	e := newEvaluator(t)

	s := testutils.ScalarSample("b-010", domain.TaskS1)
	samples := map[string]domain.Sample{s.SampleID: s}
	outputs := []domain.ModelOutput{
		outputFor(s, "model-x", testutils.ScalarResponseJSON(testutils.CruiseFrame())),
	}

	records, err := e.EvaluateBatch(context.Background(), samples, outputs, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestEvaluateBatchCanceled(t *testing.T) {
	e := newEvaluator(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := testutils.ScalarSample("b-020", domain.TaskS1)
	outputs := []domain.ModelOutput{
		outputFor(s, "model-x", testutils.ScalarResponseJSON(testutils.CruiseFrame())),
	}

	_, err := e.EvaluateBatch(ctx, map[string]domain.Sample{s.SampleID: s}, outputs, 1)
	assert.Error(t, err)
}

package judge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurenolun/fly-eval/internal/domain"
	"github.com/gurenolun/fly-eval/internal/testutils"
)

func cleanSummaryAndAtoms() (EvidenceSummary, []domain.EvidenceAtom) {
	atoms := []domain.EvidenceAtom{
		passingAtom(domain.FamilyNumeric, "a"),
		passingAtom(domain.FamilySafety, "rapid_descent"),
	}
	scores := domain.Scores{ConditionalErr: 80, ConditionalErrProxy: true}
	return BuildSummary(domain.TaskS1, fullProtocol(), atoms, scores), atoms
}

func TestNew(t *testing.T) {
	t.Run("requires a client", func(t *testing.T) {
		_, err := New(nil, nil, nil, DefaultConfig())
		assert.Error(t, err)
	})

	t.Run("defaults max tokens", func(t *testing.T) {
		client := testutils.NewScriptedLLMClient("m")
		j, err := New(client, nil, nil, Config{MaxRetries: 1})
		require.NoError(t, err)
		assert.Equal(t, DefaultMaxTokens, j.cfg.MaxTokens)
	})
}

func TestJudgeHappyPath(t *testing.T) {
	summary, atoms := cleanSummaryAndAtoms()
	client := testutils.NewScriptedLLMClient("judge-model",
		testutils.ScriptedReply{Text: testutils.JudgeVerdictJSON(domain.GradeB, "")})
	cache := NewMemoryCache()

	j, err := New(client, cache, nil, DefaultConfig())
	require.NoError(t, err)

	verdict := j.Judge(context.Background(), summary, atoms)

	assert.True(t, verdict.Grades.Complete())
	assert.Equal(t, domain.GradeB, verdict.Grades[domain.DimSafety])
	assert.Equal(t, domain.JudgeFinalized, verdict.Meta.State)
	assert.False(t, verdict.Meta.CacheHit)
	assert.Equal(t, "judge-model", verdict.Meta.Model)
	assert.Zero(t, verdict.Meta.Temperature)
	assert.Equal(t, 1, client.Calls())
	assert.Equal(t, 1, cache.Len())

	// The prompt must carry the evidence, not raw model output.
	require.Len(t, client.Prompts(), 1)
	assert.Contains(t, client.Prompts()[0], domain.FamilyNumeric)
}

func TestJudgeCacheHit(t *testing.T) {
	summary, atoms := cleanSummaryAndAtoms()
	client := testutils.NewScriptedLLMClient("judge-model",
		testutils.ScriptedReply{Text: testutils.JudgeVerdictJSON(domain.GradeA, "")})

	j, err := New(client, nil, nil, DefaultConfig())
	require.NoError(t, err)

	first := j.Judge(context.Background(), summary, atoms)
	second := j.Judge(context.Background(), summary, atoms)

	assert.Equal(t, 1, client.Calls())
	assert.False(t, first.Meta.CacheHit)
	assert.True(t, second.Meta.CacheHit)
	assert.Equal(t, domain.JudgeCacheHit, second.Meta.State)
	assert.Equal(t, first.Grades, second.Grades)
}

func TestJudgeRetriesMalformedResponses(t *testing.T) {
	summary, atoms := cleanSummaryAndAtoms()
	client := testutils.NewScriptedLLMClient("judge-model",
		testutils.ScriptedReply{Text: "I grade this a solid B."},
		testutils.ScriptedReply{Err: errors.New("upstream hiccup")},
		testutils.ScriptedReply{Text: testutils.JudgeVerdictJSON(domain.GradeB, "")})

	j, err := New(client, nil, nil, DefaultConfig())
	require.NoError(t, err)

	verdict := j.Judge(context.Background(), summary, atoms)

	assert.Equal(t, domain.JudgeFinalized, verdict.Meta.State)
	assert.Equal(t, 2, verdict.Meta.Retries)
	assert.Equal(t, 3, client.Calls())
}

func TestJudgeFallback(t *testing.T) {
	atoms := []domain.EvidenceAtom{
		failingAtom(domain.FamilySafety, "rapid_descent", domain.SeverityCritical),
		passingAtom(domain.FamilyNumeric, "a"),
	}
	summary := BuildSummary(domain.TaskS1, fullProtocol(), atoms, domain.Scores{})
	client := testutils.NewScriptedLLMClient("judge-model",
		testutils.ScriptedReply{Text: "no json here"})
	cache := NewMemoryCache()

	j, err := New(client, cache, nil, Config{MaxRetries: 1, MaxTokens: DefaultMaxTokens})
	require.NoError(t, err)

	verdict := j.Judge(context.Background(), summary, atoms)

	assert.Equal(t, domain.JudgeFallback, verdict.Meta.State)
	assert.Equal(t, domain.AllD(), verdict.Grades)
	assert.Contains(t, verdict.Meta.FallbackReason, "no valid verdict after 2 attempts")
	assert.Equal(t, 2, client.Calls())

	// Fallback findings are derived from the critical evidence.
	require.Len(t, verdict.Findings, 1)
	assert.Equal(t, []string{"safety_constraint.rapid_descent"}, verdict.Findings[0].EvidenceIDs)
	assert.Equal(t, string(domain.DimSafety), verdict.Findings[0].Dimension)

	// Fallbacks are memoized too.
	assert.Equal(t, 1, cache.Len())
	again := j.Judge(context.Background(), summary, atoms)
	assert.True(t, again.Meta.CacheHit)
	assert.Equal(t, 2, client.Calls())
}

func TestJudgeRejectsUngroundedOptimism(t *testing.T) {
	// Critical safety evidence, but the model keeps returning straight
	// A grades. Every attempt fails rubric validation and the verdict
	// degrades to the fallback.
	atoms := []domain.EvidenceAtom{
		failingAtom(domain.FamilySafety, "stall_condition", domain.SeverityCritical),
	}
	summary := BuildSummary(domain.TaskS1, fullProtocol(), atoms, domain.Scores{})
	client := testutils.NewScriptedLLMClient("judge-model",
		testutils.ScriptedReply{Text: testutils.JudgeVerdictJSON(domain.GradeA, "safety_constraint.stall_condition")})

	j, err := New(client, nil, nil, Config{MaxRetries: 2, MaxTokens: DefaultMaxTokens})
	require.NoError(t, err)

	verdict := j.Judge(context.Background(), summary, atoms)

	assert.Equal(t, domain.JudgeFallback, verdict.Meta.State)
	assert.Contains(t, verdict.Meta.FallbackReason, "safety grade A")
	assert.Equal(t, 3, client.Calls())
}

func TestJudgeRejectsFabricatedCitations(t *testing.T) {
	summary, atoms := cleanSummaryAndAtoms()
	client := testutils.NewScriptedLLMClient("judge-model",
		testutils.ScriptedReply{Text: testutils.JudgeVerdictJSON(domain.GradeC, "safety_constraint.invented_rule")},
		testutils.ScriptedReply{Text: testutils.JudgeVerdictJSON(domain.GradeC, "numeric_validity.a")})

	j, err := New(client, nil, nil, DefaultConfig())
	require.NoError(t, err)

	verdict := j.Judge(context.Background(), summary, atoms)

	assert.Equal(t, domain.JudgeFinalized, verdict.Meta.State)
	assert.Equal(t, 1, verdict.Meta.Retries)
	assert.Equal(t, 2, client.Calls())
}

func TestJudgeCanceledContextNotCached(t *testing.T) {
	summary, atoms := cleanSummaryAndAtoms()
	client := testutils.NewScriptedLLMClient("judge-model",
		testutils.ScriptedReply{Text: testutils.JudgeVerdictJSON(domain.GradeA, "")})
	cache := NewMemoryCache()

	j, err := New(client, cache, nil, DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	verdict := j.Judge(ctx, summary, atoms)

	assert.Equal(t, domain.JudgeFallback, verdict.Meta.State)
	assert.Zero(t, cache.Len())
}

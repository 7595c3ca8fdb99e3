package judge

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gurenolun/fly-eval/internal/domain"
	"github.com/gurenolun/fly-eval/internal/ports"
)

// Default judge configuration values.
const (
	// DefaultMaxRetries is the number of model attempts before the
	// fallback verdict is applied.
	DefaultMaxRetries = 3
	// DefaultMaxTokens bounds the judge's response length.
	DefaultMaxTokens = 1024
)

// Config holds the tunable judge parameters. Temperature is pinned to
// zero and is not configurable: verdicts must be reproducible.
type Config struct {
	// MaxRetries is the number of model attempts per verdict before
	// falling back. Zero means a single attempt.
	MaxRetries int `validate:"min=0,max=10"`

	// MaxTokens bounds the judge's response length.
	MaxTokens int `validate:"min=128,max=8192"`
}

// DefaultConfig returns the standard judge configuration.
func DefaultConfig() Config {
	return Config{MaxRetries: DefaultMaxRetries, MaxTokens: DefaultMaxTokens}
}

// Verdict is the judge's graded outcome for one record.
type Verdict struct {
	Grades    domain.GradeVector
	Findings  []Finding
	Reasoning map[string]string
	Meta      domain.JudgeMeta
}

// Judge grades evidence summaries through an LLM client, memoizing
// verdicts by evidence fingerprint. It is safe for concurrent use, and
// at most one model call is in flight per fingerprint at any time.
type Judge struct {
	client  ports.LLMClient
	cache   ports.CacheStore
	metrics ports.MetricsCollector
	cfg     Config
	group   singleflight.Group
}

// New creates a Judge. The cache may be nil, in which case an in-process
// cache is used; metrics may be nil to disable instrumentation.
func New(client ports.LLMClient, cache ports.CacheStore, metrics ports.MetricsCollector, cfg Config) (*Judge, error) {
	if client == nil {
		return nil, fmt.Errorf("judge requires an LLM client")
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries cannot be negative")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Judge{client: client, cache: cache, metrics: metrics, cfg: cfg}, nil
}

// Judge grades one record's evidence. It never returns an error: when
// the model cannot produce a valid verdict within the retry budget, the
// all-D fallback is applied and the reason recorded in the metadata.
func (j *Judge) Judge(ctx context.Context, summary EvidenceSummary, atoms []domain.EvidenceAtom) Verdict {
	start := time.Now()
	fp := Fingerprint(summary)

	meta := domain.JudgeMeta{
		Model:       j.client.GetModel(),
		Temperature: 0,
		State:       domain.JudgeEvidenceCollected,
		Fingerprint: fp,
	}

	if cached, ok, err := j.cache.Get(ctx, fp); err == nil && ok {
		if verdict, isVerdict := cached.(Verdict); isVerdict {
			verdict.Meta.CacheHit = true
			verdict.Meta.State = domain.JudgeCacheHit
			j.count("judge_cache_hits_total", nil)
			return verdict
		}
	}

	result, err, shared := j.group.Do(fp, func() (any, error) {
		return j.judgeUncached(ctx, summary, atoms, meta), nil
	})
	_ = err // judgeUncached never fails; fallback is encoded in the verdict

	verdict := result.(Verdict)
	if shared {
		verdict.Meta.CacheHit = true
		verdict.Meta.State = domain.JudgeCacheHit
	}

	j.latency("judge_verdict", time.Since(start))
	return verdict
}

// judgeUncached performs the model call with retries, validation, and
// fallback, then memoizes the outcome.
func (j *Judge) judgeUncached(
	ctx context.Context,
	summary EvidenceSummary,
	atoms []domain.EvidenceAtom,
	meta domain.JudgeMeta,
) Verdict {
	prompt, err := BuildPrompt(summary)
	if err != nil {
		return j.fallback(ctx, atoms, meta, fmt.Sprintf("prompt rendering failed: %v", err))
	}

	options := map[string]any{
		"temperature":     0.0,
		"max_tokens":      j.cfg.MaxTokens,
		"response_format": "json_object",
	}
	atomIDs := domain.AtomIDSet(atoms)

	var lastErr error
	for attempt := 0; attempt <= j.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return j.fallback(ctx, atoms, meta, fmt.Sprintf("context canceled: %v", ctx.Err()))
		}
		meta.Retries = attempt
		meta.State = domain.JudgeModelCalled
		j.count("judge_model_calls_total", map[string]string{"model": meta.Model})

		raw, err := j.client.Complete(ctx, prompt, options)
		if err != nil {
			lastErr = err
			continue
		}

		resp, err := parseResponse(raw)
		if err != nil {
			lastErr = err
			continue
		}
		gv, err := resp.gradeVector()
		if err != nil {
			lastErr = err
			continue
		}
		if err := validateVerdict(gv, resp.CriticalFindings, summary, atomIDs); err != nil {
			lastErr = err
			continue
		}

		meta.State = domain.JudgeFinalized
		verdict := Verdict{
			Grades:    gv,
			Findings:  resp.CriticalFindings,
			Reasoning: resp.Reasoning,
			Meta:      meta,
		}
		// Ignore cache write failures; the verdict itself is sound.
		_ = j.cache.Set(ctx, meta.Fingerprint, verdict, 0)
		return verdict
	}

	return j.fallback(ctx, atoms, meta,
		fmt.Sprintf("no valid verdict after %d attempts: %v", j.cfg.MaxRetries+1, lastErr))
}

// fallback produces the deterministic all-D verdict. Fallback verdicts
// are cached too: identical evidence would fail identically.
func (j *Judge) fallback(ctx context.Context, atoms []domain.EvidenceAtom, meta domain.JudgeMeta, reason string) Verdict {
	j.count("judge_fallbacks_total", nil)

	meta.State = domain.JudgeFallback
	meta.FallbackReason = reason
	verdict := Verdict{
		Grades:   domain.AllD(),
		Findings: fallbackFindings(atoms),
		Reasoning: map[string]string{
			"fallback": "judging could not complete; all dimensions graded D from evidence",
		},
		Meta: meta,
	}
	// A fallback caused by cancellation says nothing about the evidence;
	// caching it would pin future runs to a transient failure.
	if ctx.Err() == nil {
		_ = j.cache.Set(ctx, meta.Fingerprint, verdict, 0)
	}
	return verdict
}

func (j *Judge) count(metric string, labels map[string]string) {
	if j.metrics != nil {
		j.metrics.RecordCounter(metric, 1, labels)
	}
}

func (j *Judge) latency(operation string, d time.Duration) {
	if j.metrics != nil {
		j.metrics.RecordLatency(operation, d, nil)
	}
}

// Package evaluator orchestrates the full pipeline for each
// (sample, model output) pair: protocol parsing, the checker graph,
// rule fusion, optional LLM judging, and trace assembly into an
// immutable Record. Batch evaluation contains each sample's failure to
// its own record.
package evaluator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gurenolun/fly-eval/internal/config"
	"github.com/gurenolun/fly-eval/internal/domain"
	"github.com/gurenolun/fly-eval/internal/fusion"
	"github.com/gurenolun/fly-eval/internal/judge"
	"github.com/gurenolun/fly-eval/internal/ports"
	"github.com/gurenolun/fly-eval/internal/protocol"
	"github.com/gurenolun/fly-eval/internal/verify"
)

// Version identifies the evaluator implementation in traces.
const Version = "2.1.0"

// DefaultBatchConcurrency bounds parallel sample evaluation when the
// caller does not choose a limit.
const DefaultBatchConcurrency = 8

// Evaluator runs the evaluation pipeline. It is safe for concurrent use;
// all mutable state lives in the per-call scope or behind the judge's
// own synchronization.
type Evaluator struct {
	cfg     *config.Config
	graph   *verify.Graph
	judge   *judge.Judge
	metrics ports.MetricsCollector
}

// New creates an Evaluator. The judge may be nil, in which case grade
// vectors come from the rule-derived rubric; metrics may be nil to
// disable instrumentation.
func New(cfg *config.Config, j *judge.Judge, metrics ports.MetricsCollector) (*Evaluator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("evaluator requires a configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{
		cfg:     cfg,
		graph:   verify.NewGraph(cfg),
		judge:   j,
		metrics: metrics,
	}, nil
}

// Evaluate scores one model output against its sample and returns the
// complete record. It errors only on misuse (mismatched pairing) or
// context cancellation; everything a model can get wrong becomes
// evidence, not an error.
func (e *Evaluator) Evaluate(ctx context.Context, sample domain.Sample, output domain.ModelOutput) (domain.Record, error) {
	start := time.Now()

	if output.SampleID != sample.SampleID {
		return domain.Record{}, fmt.Errorf("%w: output for %q paired with sample %q",
			domain.ErrSampleMismatch, output.SampleID, sample.SampleID)
	}
	if _, ok := e.cfg.Tasks[sample.TaskID]; !ok {
		return domain.Record{}, fmt.Errorf("%w: %q", domain.ErrUnknownTask, sample.TaskID)
	}

	protocolResult := protocol.Parse(output.RawResponse, e.cfg)

	var atoms []domain.EvidenceAtom
	if protocolResult.ParseOK {
		var err error
		atoms, err = e.graph.Run(ctx, ports.CheckInput{Sample: sample, Fields: protocolResult.Fields})
		if err != nil {
			return domain.Record{}, err
		}
	}

	adjudication := adjudicate(protocolResult, atoms)
	scores := fusion.ComputeScores(protocolResult, atoms, sample, adjudication.Eligible, e.cfg)

	record := domain.Record{
		SampleID:     sample.SampleID,
		ModelName:    output.ModelName,
		TaskID:       sample.TaskID,
		Protocol:     protocolResult,
		Evidence:     atoms,
		Adjudication: adjudication,
		Scores:       scores,
	}

	var judgeMeta *domain.JudgeMeta
	if e.judge != nil {
		summary := judge.BuildSummary(sample.TaskID, protocolResult, atoms, scores)
		verdict := e.judge.Judge(ctx, summary, atoms)
		record.Grades = verdict.Grades
		judgeMeta = &verdict.Meta
	} else {
		record.Grades = fusion.RuleGrades(protocolResult, atoms, scores)
	}
	record.GradeScore = domain.FuseGrades(record.Grades)
	record.Overall = domain.OverallGrade(record.Grades.Mean())

	record.Trace = e.buildTrace(judgeMeta)

	e.observe(record, time.Since(start))
	return record, nil
}

// EvaluateBatch evaluates many outputs with bounded parallelism.
// Results keep the input order. A sample whose evaluation fails is
// contained: its slot carries an ineligible record naming the failure,
// and the remaining samples are unaffected. The returned error is
// non-nil only when the context is canceled.
func (e *Evaluator) EvaluateBatch(
	ctx context.Context,
	samples map[string]domain.Sample,
	outputs []domain.ModelOutput,
	concurrency int,
) ([]domain.Record, error) {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	records := make([]domain.Record, len(outputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, output := range outputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			sample, ok := samples[output.SampleID]
			if !ok {
				records[i] = e.errorRecord(output, fmt.Sprintf("no sample with id %q", output.SampleID))
				return nil
			}

			record, err := e.safeEvaluate(gctx, sample, output)
			if err != nil {
				if gctx.Err() != nil {
					return err
				}
				records[i] = e.errorRecord(output, err.Error())
				return nil
			}
			records[i] = record
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// safeEvaluate contains panics from a single sample's evaluation.
func (e *Evaluator) safeEvaluate(ctx context.Context, sample domain.Sample, output domain.ModelOutput) (record domain.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluation panic: %v", r)
		}
	}()
	return e.Evaluate(ctx, sample, output)
}

// errorRecord builds the ineligible placeholder for a sample whose
// evaluation could not run at all.
func (e *Evaluator) errorRecord(output domain.ModelOutput, reason string) domain.Record {
	protocolResult := domain.ProtocolResult{ParseError: reason}
	adjudication := domain.Adjudication{
		Eligible: false,
		Reasons:  []string{domain.AtomID(domain.FamilyProtocol, "evaluation_failure")},
	}
	grades := domain.AllD()

	return domain.Record{
		SampleID:     output.SampleID,
		ModelName:    output.ModelName,
		TaskID:       output.TaskID,
		Protocol:     protocolResult,
		Adjudication: adjudication,
		Grades:       grades,
		GradeScore:   domain.FuseGrades(grades),
		Overall:      domain.OverallGrade(grades.Mean()),
		Trace:        e.buildTrace(nil),
	}
}

// buildTrace pins a record to the configuration snapshot that produced it.
func (e *Evaluator) buildTrace(judgeMeta *domain.JudgeMeta) domain.Trace {
	return domain.Trace{
		ConfigVersion:       e.cfg.Version,
		ConfigHash:          e.cfg.Hash(),
		SchemaHash:          e.cfg.SchemaHash(),
		ConstraintTableHash: e.cfg.ConstraintTableHash(),
		EvaluatorVersion:    Version,
		Timestamp:           time.Now().UTC(),
		VerifierIDs:         e.graph.CheckerIDs(),
		Judge:               judgeMeta,
	}
}

func (e *Evaluator) observe(record domain.Record, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}
	labels := map[string]string{
		"task_id": string(record.TaskID),
		"model":   record.ModelName,
	}
	e.metrics.RecordLatency("evaluate_sample", elapsed, labels)
	e.metrics.RecordCounter("records_total", 1, labels)
	if !record.Adjudication.Eligible {
		e.metrics.RecordCounter("ineligible_records_total", 1, labels)
	}
	e.metrics.RecordHistogram("total_score", record.Scores.Total, labels)
}

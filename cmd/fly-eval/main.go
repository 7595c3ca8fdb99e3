// Command fly-eval scores model-predicted flight states against the
// constraint checkers and rule fusion, optionally consulting an LLM
// judge, and writes the full evaluation records as JSON.
//
// Inputs are a samples file (JSON array of evaluation samples) and an
// outputs file (JSON array of raw model responses). When -judge-provider
// is set, an API key is read from the provider's conventional
// environment variable (OPENAI_API_KEY, ANTHROPIC_API_KEY, GOOGLE_API_KEY).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gurenolun/fly-eval/infrastructure/llm"
	"github.com/gurenolun/fly-eval/infrastructure/middleware"
	"github.com/gurenolun/fly-eval/internal/config"
	"github.com/gurenolun/fly-eval/internal/domain"
	"github.com/gurenolun/fly-eval/internal/evaluator"
	"github.com/gurenolun/fly-eval/internal/judge"
	"github.com/gurenolun/fly-eval/internal/ports"
)

func main() {
	var (
		configPath    = flag.String("config", "", "Path to a YAML config file (default: built-in configuration)")
		samplesPath   = flag.String("samples", "", "Path to the samples JSON file (required)")
		outputsPath   = flag.String("outputs", "", "Path to the model outputs JSON file (required)")
		recordsPath   = flag.String("out", "records.json", "Path for the evaluation records output")
		summaryPath   = flag.String("summary", "", "Optional path for aggregated task and model summaries")
		concurrency   = flag.Int("concurrency", evaluator.DefaultBatchConcurrency, "Parallel sample evaluations")
		judgeProvider = flag.String("judge-provider", "", "LLM judge provider: openai, anthropic, or google (empty disables the judge)")
		judgeModel    = flag.String("judge-model", "", "Judge model name (empty uses the provider default)")
		metricsAddr   = flag.String("metrics-addr", "", "Optional listen address for Prometheus metrics, e.g. :9090")
	)
	flag.Parse()

	if *samplesPath == "" || *outputsPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	metrics := middleware.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr)
	}

	j, err := buildJudge(*judgeProvider, *judgeModel, metrics)
	if err != nil {
		log.Fatalf("Failed to configure judge: %v", err)
	}

	eval, err := evaluator.New(cfg, j, metrics)
	if err != nil {
		log.Fatalf("Failed to build evaluator: %v", err)
	}

	samples, err := loadSamples(*samplesPath)
	if err != nil {
		log.Fatalf("Failed to load samples: %v", err)
	}
	outputs, err := loadOutputs(*outputsPath)
	if err != nil {
		log.Fatalf("Failed to load model outputs: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	records, err := eval.EvaluateBatch(ctx, samples, outputs, *concurrency)
	if err != nil {
		log.Fatalf("Evaluation aborted: %v", err)
	}

	if err := writeJSON(*recordsPath, records); err != nil {
		log.Fatalf("Failed to write records: %v", err)
	}

	if *summaryPath != "" {
		summary := struct {
			Tasks  map[domain.TaskID]domain.TaskSummary `json:"tasks"`
			Models map[string]domain.ModelProfile       `json:"models"`
		}{
			Tasks:  evaluator.Summarize(records),
			Models: evaluator.Profile(records),
		}
		if err := writeJSON(*summaryPath, summary); err != nil {
			log.Fatalf("Failed to write summary: %v", err)
		}
	}

	var eligible int
	for _, r := range records {
		if r.Adjudication.Eligible {
			eligible++
		}
	}
	fmt.Printf("Evaluated %d outputs in %s (%d eligible)\n", len(records), time.Since(start).Round(time.Millisecond), eligible)
	fmt.Printf("Records written to %s\n", *recordsPath)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// buildJudge assembles the judge stack: provider client, middleware,
// retries, verdict cache. A nil return with nil error means rule-derived
// grading only.
func buildJudge(provider, model string, metrics ports.MetricsCollector) (*judge.Judge, error) {
	if provider == "" {
		return nil, nil
	}

	apiKey := os.Getenv(apiKeyEnvVar(provider))
	if apiKey == "" {
		return nil, fmt.Errorf("no API key in %s", apiKeyEnvVar(provider))
	}

	client, err := llm.NewClient(provider, llm.ClientConfig{
		APIKey: apiKey,
		Model:  model,
		Middleware: []llm.Middleware{
			llm.RateLimitMiddleware(10, 20),
			llm.TimeoutMiddleware(90 * time.Second),
			llm.MetricsMiddleware(metrics),
			llm.TracingMiddleware("fly-eval"),
		},
	})
	if err != nil {
		return nil, err
	}

	retrying := llm.NewRetryingLLMClient(client, llm.DefaultRetryConfig())
	return judge.New(retrying, judge.NewMemoryCache(), metrics, judge.DefaultConfig())
}

func apiKeyEnvVar(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "google":
		return "GOOGLE_API_KEY"
	default:
		return strings.ToUpper(provider) + "_API_KEY"
	}
}

func loadSamples(path string) (map[string]domain.Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var list []domain.Sample
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	samples := make(map[string]domain.Sample, len(list))
	for _, s := range list {
		if _, dup := samples[s.SampleID]; dup {
			return nil, fmt.Errorf("duplicate sample id %q", s.SampleID)
		}
		samples[s.SampleID] = s
	}
	return samples, nil
}

func loadOutputs(path string) ([]domain.ModelOutput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var outputs []domain.ModelOutput
	if err := json.Unmarshal(data, &outputs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return outputs, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("Metrics server stopped: %v", err)
	}
}

package llm

import "sync"

// baseProvider holds the model name behind a lock so middleware and
// callers may switch models concurrently.
type baseProvider struct {
	mu    sync.RWMutex
	model string
}

func (b *baseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

func (b *baseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// tokenOrEstimate prefers the provider-reported count over a heuristic.
func tokenOrEstimate(reported int, text string) int {
	if reported > 0 {
		return reported
	}
	return CharTokenEstimator{}.EstimateTokens(text)
}

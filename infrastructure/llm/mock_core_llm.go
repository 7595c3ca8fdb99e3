package llm

import (
	"context"
	"sync"
)

// MockCoreLLM is a scripted CoreLLM for middleware and client tests.
// Responses are returned in order; past the script's end the last entry
// repeats. Safe for concurrent use.
type MockCoreLLM struct {
	mu        sync.Mutex
	model     string
	responses []MockResponse
	calls     int

	// OnRequest, when set, observes each prompt before the scripted
	// response is returned.
	OnRequest func(prompt string, opts map[string]any)
}

// MockResponse is one scripted reply.
type MockResponse struct {
	Text      string
	TokensIn  int
	TokensOut int
	Err       error
}

// NewMockCoreLLM creates a scripted mock with the given replies.
func NewMockCoreLLM(model string, responses ...MockResponse) *MockCoreLLM {
	return &MockCoreLLM{model: model, responses: responses}
}

func (m *MockCoreLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, 0, err
	}

	m.mu.Lock()
	if m.OnRequest != nil {
		m.OnRequest(prompt, opts)
	}
	idx := m.calls
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	m.calls++
	m.mu.Unlock()

	if idx < 0 {
		return "", 0, 0, ErrEmptyResponse
	}
	r := m.responses[idx]
	return r.Text, r.TokensIn, r.TokensOut, r.Err
}

// Calls reports how many requests the mock has served.
func (m *MockCoreLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockCoreLLM) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

func (m *MockCoreLLM) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = model
}

package testutils

import (
	"context"
	"sync"

	"github.com/gurenolun/fly-eval/internal/ports"
)

// ScriptedLLMClient implements ports.LLMClient with a fixed sequence of
// replies, letting tests drive the judge through retries, malformed
// output, and eventual success. Past the end of the script the last
// entry repeats. Safe for concurrent use.
type ScriptedLLMClient struct {
	mu      sync.Mutex
	model   string
	script  []ScriptedReply
	calls   int
	prompts []string
}

// ScriptedReply is one canned model turn.
type ScriptedReply struct {
	Text string
	Err  error
}

// NewScriptedLLMClient creates a client that replays the given turns.
func NewScriptedLLMClient(model string, script ...ScriptedReply) *ScriptedLLMClient {
	return &ScriptedLLMClient{model: model, script: script}
}

// Complete returns the next scripted reply.
func (s *ScriptedLLMClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	text, _, _, err := s.CompleteWithUsage(ctx, prompt, options)
	return text, err
}

// CompleteWithUsage returns the next scripted reply with synthetic
// token counts derived from the text lengths.
func (s *ScriptedLLMClient) CompleteWithUsage(
	ctx context.Context,
	prompt string,
	options map[string]any,
) (string, int, int, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, 0, err
	}

	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	idx := min(s.calls, len(s.script)-1)
	s.calls++
	s.mu.Unlock()

	if idx < 0 {
		return "", 0, 0, context.Canceled
	}
	reply := s.script[idx]
	if reply.Err != nil {
		return "", 0, 0, reply.Err
	}
	return reply.Text, len(prompt) / 4, len(reply.Text) / 4, nil
}

// EstimateTokens approximates four characters per token.
func (s *ScriptedLLMClient) EstimateTokens(text string) (int, error) {
	return (len(text) + 3) / 4, nil
}

// GetModel returns the scripted model name.
func (s *ScriptedLLMClient) GetModel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Calls reports how many completions have been requested.
func (s *ScriptedLLMClient) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Prompts returns a copy of every prompt seen so far, in order.
func (s *ScriptedLLMClient) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.prompts))
	copy(out, s.prompts)
	return out
}

var _ ports.LLMClient = (*ScriptedLLMClient)(nil)

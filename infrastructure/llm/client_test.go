package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	RegisterProviderFactory("scripted-test", func(cfg ClientConfig) (CoreLLM, error) {
		model := cfg.Model
		if model == "" {
			model = "scripted-default"
		}
		return NewMockCoreLLM(model, MockResponse{Text: "ok", TokensIn: 4, TokensOut: 1}), nil
	})
}

func TestNewClient(t *testing.T) {
	t.Run("empty api key", func(t *testing.T) {
		_, err := NewClient("scripted-test", ClientConfig{})
		assert.ErrorIs(t, err, ErrEmptyAPIKey)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewClient("nonexistent", ClientConfig{APIKey: "k"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown provider")
	})

	t.Run("default model from provider", func(t *testing.T) {
		client, err := NewClient("scripted-test", ClientConfig{APIKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, "scripted-default", client.GetModel())
	})

	t.Run("round trip with usage", func(t *testing.T) {
		client, err := NewClient("scripted-test", ClientConfig{APIKey: "k", Model: "m"})
		require.NoError(t, err)

		text, in, out, err := client.CompleteWithUsage(context.Background(), "ping", nil)
		require.NoError(t, err)
		assert.Equal(t, "ok", text)
		assert.Equal(t, 4, in)
		assert.Equal(t, 1, out)
	})

	t.Run("first middleware is outermost", func(t *testing.T) {
		var order []string
		tag := func(name string) Middleware {
			return func(next CoreLLM) CoreLLM {
				return observingLLM{next: next, before: func() { order = append(order, name) }}
			}
		}

		client, err := NewClient("scripted-test", ClientConfig{
			APIKey:     "k",
			Middleware: []Middleware{tag("outer"), tag("inner")},
		})
		require.NoError(t, err)

		_, err = client.Complete(context.Background(), "ping", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"outer", "inner"}, order)
	})
}

// observingLLM records request order for middleware composition tests.
type observingLLM struct {
	next   CoreLLM
	before func()
}

func (o observingLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	o.before()
	return o.next.DoRequest(ctx, prompt, opts)
}

func (o observingLLM) GetModel() string  { return o.next.GetModel() }
func (o observingLLM) SetModel(m string) { o.next.SetModel(m) }

func TestCharTokenEstimator(t *testing.T) {
	est := CharTokenEstimator{}
	assert.Zero(t, est.EstimateTokens(""))
	assert.Equal(t, 1, est.EstimateTokens("a"))
	assert.Equal(t, 1, est.EstimateTokens("abcd"))
	assert.Equal(t, 2, est.EstimateTokens("abcde"))
}

func TestClientEstimateTokens(t *testing.T) {
	client, err := NewClient("scripted-test", ClientConfig{APIKey: "k"})
	require.NoError(t, err)

	n, err := client.EstimateTokens("12345678")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

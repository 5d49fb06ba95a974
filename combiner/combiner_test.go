package combiner

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botirk38/noteinsights/executor"
	"github.com/botirk38/noteinsights/prompt"
	"github.com/botirk38/noteinsights/types"
)

type recordingProvider struct {
	calls atomic.Int32
	last  types.CompletionRequest
}

func (p *recordingProvider) Complete(_ context.Context, req types.CompletionRequest) (*types.Completion, error) {
	p.calls.Add(1)
	p.last = req
	return &types.Completion{Text: "merged", Usage: types.Usage{InputTokens: 10, OutputTokens: 5, Requests: 1}}, nil
}

func (p *recordingProvider) Name() string { return "mock/model" }
func (p *recordingProvider) Close()       {}

func newCombiner(t *testing.T, cfg Config) (*Combiner, *recordingProvider) {
	t.Helper()
	p := &recordingProvider{}
	exec, err := executor.New(p, executor.Policy{}, nil)
	require.NoError(t, err)
	tmpl, err := prompt.Parse(types.Prompts{})
	require.NoError(t, err)
	return New(exec, tmpl, cfg), p
}

func TestCombine_OrdersByIndex(t *testing.T) {
	c, p := newCombiner(t, Config{ContextWindow: 100000, MaxTokens: 1000})

	results := []types.ChunkResult{
		{Index: 2, Text: "third"},
		{Index: 0, Text: "first"},
		{Index: 1, Text: "second"},
	}
	res, err := c.Combine(t.Context(), results, 3)
	require.NoError(t, err)
	assert.Equal(t, "merged", res.Text)
	assert.Equal(t, int32(1), p.calls.Load())
	assert.Equal(t, 1000, p.last.MaxTokens)

	first := strings.Index(p.last.Prompt, "first")
	second := strings.Index(p.last.Prompt, "second")
	third := strings.Index(p.last.Prompt, "third")
	assert.True(t, first >= 0 && first < second && second < third, "results out of order:\n%s", p.last.Prompt)
	assert.Contains(t, p.last.Prompt, `<chunk_result index="1">`)
	assert.Contains(t, p.last.Prompt, `<chunk_result index="3">`)
}

func TestCombine_MissingResults(t *testing.T) {
	tests := []struct {
		name    string
		indices []int
		total   int
		missing []int
	}{
		{"middle", []int{0, 2}, 3, []int{1}},
		{"first and last", []int{1, 2}, 4, []int{0, 3}},
		{"none", nil, 2, []int{0, 1}},
		{"out of range only", []int{5}, 1, []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, p := newCombiner(t, Config{})

			var results []types.ChunkResult
			for _, i := range tt.indices {
				results = append(results, types.ChunkResult{Index: i, Text: "x"})
			}

			_, err := c.Combine(t.Context(), results, tt.total)
			var ce *types.CombinationError
			require.True(t, errors.As(err, &ce), "error = %v", err)
			assert.Equal(t, tt.missing, ce.Missing)
			assert.Equal(t, tt.total, ce.Total)
			assert.Zero(t, p.calls.Load(), "provider must not be called")
		})
	}
}

func TestCombine_ExceedsContextWindow(t *testing.T) {
	c, p := newCombiner(t, Config{ContextWindow: 200, MaxTokens: 100})

	results := []types.ChunkResult{
		{Index: 0, Text: strings.Repeat("a", 400)},
		{Index: 1, Text: strings.Repeat("b", 400)},
	}
	_, err := c.Combine(t.Context(), results, 2)

	var be *types.BudgetError
	require.True(t, errors.As(err, &be), "error = %v", err)
	assert.Equal(t, 100, be.Limit)
	assert.Greater(t, be.Tokens, be.Limit)
	assert.Zero(t, p.calls.Load())
}

func TestCombine_UsageReported(t *testing.T) {
	c, _ := newCombiner(t, Config{})

	res, err := c.Combine(t.Context(), []types.ChunkResult{{Index: 0, Text: "a"}, {Index: 1, Text: "b"}}, 2)
	require.NoError(t, err)
	assert.Equal(t, types.Usage{InputTokens: 10, OutputTokens: 5, Requests: 1}, res.Usage)
}

func TestOrder(t *testing.T) {
	got, err := Order([]types.ChunkResult{{Index: 1, Text: "b"}, {Index: 0, Text: "a"}}, 2)
	require.NoError(t, err)
	assert.Equal(t, []types.ChunkResult{{Index: 0, Text: "a"}, {Index: 1, Text: "b"}}, got)

	_, err = Order(nil, 0)
	assert.Error(t, err)
}

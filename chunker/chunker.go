// Package chunker partitions an ordered note corpus into token-bounded chunks.
package chunker

import (
	"strings"

	"github.com/botirk38/noteinsights/tokenizer"
)

// DefaultBudgetTokens is the default per-request token budget.
const DefaultBudgetTokens = 90000

// PlanConfig holds configuration for chunk planning.
type PlanConfig struct {
	// BudgetTokens is the request ceiling for one chunk request.
	BudgetTokens int

	// ReservedOverhead is subtracted from BudgetTokens to leave room for the
	// system prompt, the user prompt and the notes wrapper.
	ReservedOverhead int

	// Estimator measures text. Default: tokenizer.CharEstimator
	Estimator tokenizer.Estimator
}

// DefaultPlanConfig returns the default planning configuration.
func DefaultPlanConfig() PlanConfig {
	return PlanConfig{
		BudgetTokens: DefaultBudgetTokens,
		Estimator:    tokenizer.NewCharEstimator(),
	}
}

// Validate checks if the plan configuration is valid.
func (c PlanConfig) Validate() error {
	if c.BudgetTokens <= 0 {
		return ErrInvalidBudget
	}
	if c.ReservedOverhead < 0 {
		return ErrInvalidOverhead
	}
	return nil
}

// Capacity is the number of tokens available to note segments in one chunk.
func (c PlanConfig) Capacity() int {
	return c.BudgetTokens - c.ReservedOverhead
}

func (c PlanConfig) estimator() tokenizer.Estimator {
	if c.Estimator == nil {
		return tokenizer.NewCharEstimator()
	}
	return c.Estimator
}

// Segment is a contiguous piece of one source inside a chunk.
type Segment struct {
	// SourceID is the vault path of the note the text comes from
	SourceID string

	// Text is a verbatim slice of the note
	Text string

	// Part is the 1-based piece number when the note was split, 0 otherwise
	Part int
}

// Chunk represents one request worth of corpus text.
type Chunk struct {
	// Index is the chunk's position in the sequence (0-based)
	Index int

	// Segments are in corpus order
	Segments []Segment

	// Tokens is the estimated cost of the rendered segments
	Tokens int
}

// Text returns the concatenated segment texts without wrappers.
func (c Chunk) Text() string {
	var b strings.Builder
	for _, s := range c.Segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Sources returns the distinct source IDs of the chunk in order.
func (c Chunk) Sources() []string {
	var ids []string
	for i, s := range c.Segments {
		if i > 0 && c.Segments[i-1].SourceID == s.SourceID {
			continue
		}
		ids = append(ids, s.SourceID)
	}
	return ids
}

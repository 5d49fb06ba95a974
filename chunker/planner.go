package chunker

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/botirk38/noteinsights/tokenizer"
	"github.com/botirk38/noteinsights/types"
)

// Plan partitions the corpus into ordered chunks whose planned cost stays
// within cfg.Capacity(). Sources are walked in order and packed greedily;
// a source too large for an empty chunk is split at the best boundary
// instead of being truncated. An empty corpus yields no chunks.
func Plan(corpus []types.Source, cfg PlanConfig) ([]Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan config: %w", err)
	}

	capacity := cfg.Capacity()
	if capacity <= 0 {
		return nil, &types.BudgetError{
			What:   "prompt overhead",
			Tokens: cfg.ReservedOverhead,
			Limit:  cfg.BudgetTokens,
		}
	}

	p := &planner{est: cfg.estimator(), capacity: capacity}
	for _, src := range corpus {
		if src.Text == "" {
			continue
		}

		whole := Segment{SourceID: src.ID, Text: src.Text}
		cost := SegmentCost(p.est, whole)
		if p.current.Tokens+cost <= capacity {
			p.add(whole, cost)
			continue
		}

		p.flush()
		if cost <= capacity {
			p.add(whole, cost)
			continue
		}

		if err := p.split(src); err != nil {
			return nil, err
		}
	}
	p.flush()

	return p.chunks, nil
}

type planner struct {
	est      tokenizer.Estimator
	capacity int
	chunks   []Chunk
	current  Chunk
}

func (p *planner) add(s Segment, cost int) {
	p.current.Segments = append(p.current.Segments, s)
	p.current.Tokens += cost
}

func (p *planner) flush() {
	if len(p.current.Segments) == 0 {
		return
	}
	p.current.Index = len(p.chunks)
	p.chunks = append(p.chunks, p.current)
	p.current = Chunk{}
}

// split emits the pieces of an oversized source. Every piece but the last
// fills its own chunk; the last stays open so following sources can join it.
func (p *planner) split(src types.Source) error {
	text := src.Text
	bounds := findBoundaries(text)

	pos := 0
	for part := 1; pos < len(text); part++ {
		avail := p.capacity - p.current.Tokens - wrapperCost(p.est, src.ID, part)
		end := pos
		if avail > 0 {
			end = p.cut(text, pos, avail, bounds)
		}
		if end == pos {
			return &types.BudgetError{
				What:   fmt.Sprintf("note %q at byte %d", src.ID, pos),
				Tokens: p.current.Tokens + wrapperCost(p.est, src.ID, part) + p.est.Estimate(firstRune(text[pos:])),
				Limit:  p.capacity,
			}
		}

		piece := Segment{SourceID: src.ID, Text: text[pos:end], Part: part}
		p.add(piece, SegmentCost(p.est, piece))
		pos = end
		if pos < len(text) {
			p.flush()
		}
	}
	return nil
}

// cut returns the end offset of the next piece starting at pos whose text
// costs at most avail tokens.
func (p *planner) cut(text string, pos, avail int, bounds boundaries) int {
	n := len(text) - pos
	fit := sort.Search(n, func(i int) bool {
		return p.est.Estimate(text[pos:pos+i+1]) > avail
	})
	limit := pos + fit
	if limit == len(text) {
		return limit
	}

	if off := bounds.best(pos, limit); off > pos {
		return off
	}

	for limit > pos && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return limit
}

func firstRune(s string) string {
	_, size := utf8.DecodeRuneInString(s)
	return s[:size]
}

// Prefix returns the longest leading piece of text that costs at most tokens,
// cut at the same boundaries Plan prefers.
func Prefix(text string, est tokenizer.Estimator, tokens int) string {
	if est == nil {
		est = tokenizer.NewCharEstimator()
	}
	if tokens <= 0 {
		return ""
	}
	if est.Estimate(text) <= tokens {
		return text
	}
	p := &planner{est: est}
	return text[:p.cut(text, 0, tokens, findBoundaries(text))]
}

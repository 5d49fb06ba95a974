package chunker

import (
	"sort"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// boundaries holds the offsets where a note may be split, by preference.
// An offset is the first byte of the next piece, so separators stay with
// the piece they end.
type boundaries struct {
	blocks []int
	lines  []int
	spaces []int
}

var markdown = goldmark.New()

// findBoundaries locates split points in src. Block boundaries are the
// starts of top-level markdown blocks, so a split never lands inside a
// fenced code block at that level. Line and whitespace boundaries are the
// fallbacks for long blocks.
func findBoundaries(src string) boundaries {
	var b boundaries
	source := []byte(src)

	doc := markdown.Parser().Parse(text.NewReader(source))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if start := blockStart(n, source); start > 0 {
			b.blocks = append(b.blocks, start)
		}
	}
	sort.Ints(b.blocks)

	for i := 0; i < len(src)-1; i++ {
		switch src[i] {
		case '\n':
			b.lines = append(b.lines, i+1)
		case ' ', '\t':
			if src[i+1] != ' ' && src[i+1] != '\t' {
				b.spaces = append(b.spaces, i+1)
			}
		}
	}
	return b
}

// blockStart returns the offset of the first line of a block, or -1 when the
// block carries no source lines.
func blockStart(n ast.Node, source []byte) int {
	for c := n; c != nil; c = c.FirstChild() {
		if c.Type() != ast.TypeBlock {
			return -1
		}
		lines := c.Lines()
		if lines == nil || lines.Len() == 0 {
			continue
		}
		start := lineStart(source, lines.At(0).Start)
		if c.Kind() == ast.KindFencedCodeBlock && start > 0 {
			// the opening fence is the line above the first content line
			start = lineStart(source, start-1)
		}
		return start
	}
	return -1
}

func lineStart(source []byte, pos int) int {
	if pos > len(source) {
		pos = len(source)
	}
	for pos > 0 && source[pos-1] != '\n' {
		pos--
	}
	return pos
}

// best returns the furthest offset in (from, limit] from the most preferred
// class whose piece would be at least half of the allowed length. It falls
// back to the furthest offset of any class, then to -1.
func (b boundaries) best(from, limit int) int {
	minEnd := from + (limit-from+1)/2
	fallback := -1
	for _, offsets := range [][]int{b.blocks, b.lines, b.spaces} {
		off := lastWithin(offsets, from, limit)
		if off < 0 {
			continue
		}
		if off >= minEnd {
			return off
		}
		if off > fallback {
			fallback = off
		}
	}
	return fallback
}

func lastWithin(offsets []int, from, limit int) int {
	i := sort.SearchInts(offsets, limit+1) - 1
	if i >= 0 && offsets[i] > from {
		return offsets[i]
	}
	return -1
}

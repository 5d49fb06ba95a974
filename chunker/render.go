package chunker

import (
	"fmt"
	"html"
	"strings"

	"github.com/botirk38/noteinsights/tokenizer"
)

func openTag(sourceID string, part int) string {
	if part > 0 {
		return fmt.Sprintf("<note path=\"%s\" part=\"%d\">\n", html.EscapeString(sourceID), part)
	}
	return fmt.Sprintf("<note path=\"%s\">\n", html.EscapeString(sourceID))
}

const closeTag = "\n</note>\n"

// RenderSegment wraps one segment in its note tag.
func RenderSegment(s Segment) string {
	return openTag(s.SourceID, s.Part) + s.Text + closeTag
}

// Render returns the payload sent to the model for a chunk.
func Render(c Chunk) string {
	var b strings.Builder
	for _, s := range c.Segments {
		b.WriteString(RenderSegment(s))
	}
	return b.String()
}

func wrapperCost(est tokenizer.Estimator, sourceID string, part int) int {
	return est.Estimate(openTag(sourceID, part) + closeTag)
}

// SegmentCost is the planned cost of a rendered segment. Summing segment
// costs never undercounts the rendered chunk for ceiling-based estimators.
func SegmentCost(est tokenizer.Estimator, s Segment) int {
	return wrapperCost(est, s.SourceID, s.Part) + est.Estimate(s.Text)
}

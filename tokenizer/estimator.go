// Package tokenizer estimates and counts tokens for planning model requests.
package tokenizer

// DefaultCharsPerToken is the fixed ratio used by CharEstimator.
// It is a deliberate approximation of English text under BPE tokenizers.
const DefaultCharsPerToken = 4

// Estimator approximates the number of tokens a text costs.
// Implementations must be pure and monotonic in the byte length of the text.
type Estimator interface {
	Estimate(text string) int
}

// EstimatorFunc adapts a plain function to the Estimator interface.
type EstimatorFunc func(text string) int

func (f EstimatorFunc) Estimate(text string) int {
	return f(text)
}

// CharEstimator estimates tokens as ceil(bytes / CharsPerToken).
type CharEstimator struct {
	CharsPerToken int
}

// NewCharEstimator returns a CharEstimator using DefaultCharsPerToken.
func NewCharEstimator() CharEstimator {
	return CharEstimator{CharsPerToken: DefaultCharsPerToken}
}

// Estimate returns 0 for the empty string.
func (e CharEstimator) Estimate(text string) int {
	ratio := e.CharsPerToken
	if ratio <= 0 {
		ratio = DefaultCharsPerToken
	}
	return (len(text) + ratio - 1) / ratio
}

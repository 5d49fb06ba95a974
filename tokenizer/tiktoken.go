package tokenizer

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// TiktokenEstimator counts tokens exactly with a tiktoken encoding.
// Counting is local and does not require an API call.
type TiktokenEstimator struct {
	codec tokenizer.Codec
}

// NewTiktokenEstimator creates an estimator using cl100k_base,
// the encoding shared by most OpenAI chat models.
func NewTiktokenEstimator() (*TiktokenEstimator, error) {
	enc, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tokenizer: %w", err)
	}
	return &TiktokenEstimator{codec: enc}, nil
}

// Estimate returns the exact token count. Encoding failures fall back to the
// character ratio so planning never stops on a tokenizer error.
func (t *TiktokenEstimator) Estimate(text string) int {
	if text == "" {
		return 0
	}
	ids, _, err := t.codec.Encode(text)
	if err != nil {
		return NewCharEstimator().Estimate(text)
	}
	return len(ids)
}

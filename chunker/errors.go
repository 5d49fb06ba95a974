package chunker

import "errors"

// Common chunker errors
var (
	// ErrInvalidBudget indicates the per-request budget is invalid (<=0)
	ErrInvalidBudget = errors.New("budget tokens must be positive")

	// ErrInvalidOverhead indicates the reserved overhead is invalid (<0)
	ErrInvalidOverhead = errors.New("reserved overhead must be non-negative")
)

package types

import (
	"errors"
	"fmt"
	"strings"
)

// InputError means the run had nothing eligible to process.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return "no eligible notes: " + e.Reason
}

// ErrorKind classifies provider failures for the retry policy.
type ErrorKind int

const (
	// Transient failures are retried: network errors, rate limits, 5xx.
	Transient ErrorKind = iota
	// Fatal failures are never retried: bad credentials, malformed requests, policy rejections.
	Fatal
)

func (k ErrorKind) String() string {
	if k == Fatal {
		return "fatal"
	}
	return "transient"
}

// ProviderError wraps the last underlying cause of a failed provider call.
type ProviderError struct {
	Kind       ErrorKind
	Provider   string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s provider error", e.Kind)
	if e.Provider != "" {
		fmt.Fprintf(&b, " from %s", e.Provider)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Attempts > 0 {
		fmt.Fprintf(&b, " after %d attempt(s)", e.Attempts)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewTransientError marks err as retryable.
func NewTransientError(provider string, status int, err error) *ProviderError {
	return &ProviderError{Kind: Transient, Provider: provider, StatusCode: status, Err: err}
}

// NewFatalError marks err as not retryable.
func NewFatalError(provider string, status int, err error) *ProviderError {
	return &ProviderError{Kind: Fatal, Provider: provider, StatusCode: status, Err: err}
}

// IsFatal reports whether err carries a fatal ProviderError.
func IsFatal(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == Fatal
}

// IsTransient reports whether err carries a transient ProviderError.
func IsTransient(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == Transient
}

// ClassifyStatus maps an HTTP status code to a retry class.
// 408, 409, 429 and every 5xx are transient; other 4xx are fatal.
func ClassifyStatus(status int) ErrorKind {
	switch {
	case status == 408, status == 409, status == 429:
		return Transient
	case status >= 500:
		return Transient
	case status >= 400:
		return Fatal
	}
	return Transient
}

// BudgetError means a payload cannot fit the token limit it must respect.
type BudgetError struct {
	What   string
	Tokens int
	Limit  int
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("%s needs %d tokens, limit is %d", e.What, e.Tokens, e.Limit)
}

// CombinationError means chunk results required for merging are missing.
type CombinationError struct {
	Missing []int
	Total   int
}

func (e *CombinationError) Error() string {
	return fmt.Sprintf("cannot combine: missing result for chunk(s) %v of %d", e.Missing, e.Total)
}

// ChunkError identifies the chunk whose request failed.
type ChunkError struct {
	Index int
	Total int
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d/%d failed: %v", e.Index+1, e.Total, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// ClassifyError wraps err as a ProviderError whose kind follows the HTTP
// status. A zero status means the request never got a response and is
// treated as a network failure.
func ClassifyError(provider string, status int, err error) *ProviderError {
	return &ProviderError{Kind: ClassifyStatus(status), Provider: provider, StatusCode: status, Err: err}
}

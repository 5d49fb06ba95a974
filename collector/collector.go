package collector

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/samber/lo"

	"github.com/botirk38/noteinsights/chunker"
	"github.com/botirk38/noteinsights/tokenizer"
	"github.com/botirk38/noteinsights/types"
)

// Config selects the notes of a run.
type Config struct {
	// ExcludeFolders are vault folders whose notes are never collected.
	ExcludeFolders []string

	// IncludePatterns are path.Match globs over note paths. Empty means all notes.
	IncludePatterns []string

	TestMode  types.TestMode
	Estimator tokenizer.Estimator
}

// Validate checks the include patterns.
func (c Config) Validate() error {
	for _, p := range c.IncludePatterns {
		if _, err := path.Match(p, ""); err != nil {
			return fmt.Errorf("invalid include pattern %q: %w", p, err)
		}
	}
	return nil
}

// Collect reads the eligible notes of vault in lexical path order.
// Include patterns are applied first and folder exclusion always wins.
// Empty notes are skipped. In test mode at most MaxFiles notes and
// MaxTokens estimated tokens are collected; the note crossing the token cap
// is cut at a safe boundary. When nothing is left, Collect returns a
// *types.InputError.
func Collect(ctx context.Context, vault Vault, cfg Config) ([]types.Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	est := cfg.Estimator
	if est == nil {
		est = tokenizer.NewCharEstimator()
	}

	paths, err := vault.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, &types.InputError{Reason: "the vault contains no notes"}
	}

	eligible := lo.Filter(paths, func(p string, _ int) bool {
		return included(p, cfg.IncludePatterns) && !excluded(p, cfg.ExcludeFolders)
	})
	if len(eligible) == 0 {
		return nil, &types.InputError{Reason: fmt.Sprintf("all %d notes are excluded by folder or include filters", len(paths))}
	}

	limits := cfg.TestMode
	var sources []types.Source
	tokens := 0
	for _, p := range eligible {
		if limits.Enabled && limits.MaxFiles > 0 && len(sources) >= limits.MaxFiles {
			break
		}

		text, err := vault.ReadNote(ctx, p)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		if limits.Enabled && limits.MaxTokens > 0 {
			left := limits.MaxTokens - tokens
			if left <= 0 {
				break
			}
			text = chunker.Prefix(text, est, left)
			if text == "" {
				break
			}
			tokens += est.Estimate(text)
		}

		sources = append(sources, types.Source{ID: p, Text: text})
	}

	if len(sources) == 0 {
		return nil, &types.InputError{Reason: fmt.Sprintf("all %d eligible notes are empty", len(eligible))}
	}
	return sources, nil
}

// excluded reports whether p lies under one of folders.
func excluded(p string, folders []string) bool {
	return lo.SomeBy(folders, func(folder string) bool {
		folder = strings.Trim(path.Clean("/"+strings.ReplaceAll(folder, "\\", "/")), "/")
		if folder == "" {
			return false
		}
		return p == folder || strings.HasPrefix(p, folder+"/")
	})
}

func included(p string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	return lo.SomeBy(patterns, func(pattern string) bool {
		ok, _ := path.Match(pattern, p)
		if !ok && !strings.Contains(pattern, "/") {
			ok, _ = path.Match(pattern, path.Base(p))
		}
		return ok
	})
}

// Paths returns the distinct note paths of sources in order.
func Paths(sources []types.Source) []string {
	return lo.Uniq(lo.Map(sources, func(s types.Source, _ int) string { return s.ID }))
}

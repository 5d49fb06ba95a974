// Package prompt renders the system, user and combination prompts of a run.
package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/botirk38/noteinsights/chunker"
	"github.com/botirk38/noteinsights/tokenizer"
	"github.com/botirk38/noteinsights/types"
)

const (
	DefaultSystem = `You are a thoughtful assistant that reads a collection of personal markdown notes and extracts insights: recurring themes, connections between ideas, open questions and concrete next steps. Quote note paths when you refer to them.`

	DefaultUser = `Analyze the notes below{{ if gt .Total 1 }} (part {{ .Part }} of {{ .Total }} of the collection){{ end }} and write the key insights as a markdown document with short sections.

<notes>
{{ .Notes }}</notes>`

	DefaultCombination = `The documents below are insights generated from {{ .Total }} consecutive parts of one note collection, in order. Merge them into a single coherent markdown document. Remove duplicates, keep the most important points, and preserve the order in which topics first appear.

{{ .Results }}`
)

// overheadPart is rendered in place of real part numbers when reserving
// budget, so the reservation covers any realistic chunk count.
const overheadPart = 99999

// scaleSample stands in for real notes when measuring how the prompts grow
// with them. It is multi-line so per-line template functions show up.
var scaleSample = chunker.Render(chunker.Chunk{Segments: []chunker.Segment{{
	SourceID: "sample.md",
	Text:     strings.Repeat("- a sample line of a note, with some words in it\n", 64),
}}})

// Data is passed to the system and user templates.
type Data struct {
	Part  int // 1-based
	Total int
	Notes string
}

// CombineData is passed to the combination template.
type CombineData struct {
	Total   int
	Results string
}

// Templates holds the parsed prompts of a run.
type Templates struct {
	system      *template.Template
	user        *template.Template
	combination *template.Template
}

// Parse compiles the prompts, substituting defaults for empty ones.
// A user prompt that never references .Notes gets the notes appended.
func Parse(p types.Prompts) (*Templates, error) {
	system := orDefault(p.System, DefaultSystem)
	user := orDefault(p.User, DefaultUser)
	if !strings.Contains(user, ".Notes") {
		user += "\n\n<notes>\n{{ .Notes }}</notes>"
	}
	combination := orDefault(p.Combination, DefaultCombination)
	if !strings.Contains(combination, ".Results") {
		combination += "\n\n{{ .Results }}"
	}

	var t Templates
	var err error
	if t.system, err = parse("system", system); err != nil {
		return nil, err
	}
	if t.user, err = parse("user", user); err != nil {
		return nil, err
	}
	if t.combination, err = parse("combination", combination); err != nil {
		return nil, err
	}
	return &t, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func parse(name, text string) (*template.Template, error) {
	t, err := template.New(name).Funcs(sprig.TxtFuncMap()).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid %s prompt: %w", name, err)
	}
	return t, nil
}

func execute(t *template.Template, data any) (string, error) {
	var buf strings.Builder
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// ChunkRequest builds the request for one chunk out of total.
func (t *Templates) ChunkRequest(c chunker.Chunk, total, maxTokens int) (types.CompletionRequest, error) {
	data := Data{Part: c.Index + 1, Total: total, Notes: chunker.Render(c)}
	system, err := execute(t.system, data)
	if err != nil {
		return types.CompletionRequest{}, err
	}
	user, err := execute(t.user, data)
	if err != nil {
		return types.CompletionRequest{}, err
	}
	return types.CompletionRequest{System: system, Prompt: user, MaxTokens: maxTokens}, nil
}

// CombineRequest builds the merge request. results must be ordered by index.
func (t *Templates) CombineRequest(results []types.ChunkResult, maxTokens int) (types.CompletionRequest, error) {
	total := len(results)
	system, err := execute(t.system, Data{Part: total, Total: total})
	if err != nil {
		return types.CompletionRequest{}, err
	}

	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "<chunk_result index=\"%d\">\n%s\n</chunk_result>\n", r.Index+1, r.Text)
	}
	user, err := execute(t.combination, CombineData{Total: total, Results: b.String()})
	if err != nil {
		return types.CompletionRequest{}, err
	}
	return types.CompletionRequest{System: system, Prompt: user, MaxTokens: maxTokens}, nil
}

// Overhead estimates the tokens a chunk request costs besides its notes.
func (t *Templates) Overhead(est tokenizer.Estimator) (int, error) {
	data := Data{Part: overheadPart, Total: overheadPart}
	system, err := execute(t.system, data)
	if err != nil {
		return 0, err
	}
	user, err := execute(t.user, data)
	if err != nil {
		return 0, err
	}
	return est.Estimate(system) + est.Estimate(user), nil
}

// Scale estimates how many tokens the chunk prompts grow per token of notes.
// It is 1 when the notes appear once, verbatim, and more when a prompt
// repeats them or pipes them through a function that adds text. overhead
// is the result of Overhead.
func (t *Templates) Scale(est tokenizer.Estimator, overhead int) (float64, error) {
	data := Data{Part: overheadPart, Total: overheadPart, Notes: scaleSample}
	system, err := execute(t.system, data)
	if err != nil {
		return 0, err
	}
	user, err := execute(t.user, data)
	if err != nil {
		return 0, err
	}

	notes := est.Estimate(scaleSample)
	grown := est.Estimate(system) + est.Estimate(user) - overhead
	// each estimate rounds up, so allow a token of slack per prompt
	if notes <= 0 || grown <= notes+2 {
		return 1, nil
	}
	return float64(grown) / float64(notes), nil
}

package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/botirk38/noteinsights/providers"
	"github.com/botirk38/noteinsights/providers/anthropic"
	"github.com/botirk38/noteinsights/providers/gemini"
	"github.com/botirk38/noteinsights/tokenizer"
	"github.com/botirk38/noteinsights/types"
)

// estimateCounter counts locally for providers without a counting endpoint.
type estimateCounter struct {
	est tokenizer.Estimator
}

func (c estimateCounter) CountTokens(_ context.Context, system, prompt string) (int, error) {
	return c.est.Estimate(system) + c.est.Estimate(prompt), nil
}

func newCounter(provider types.Provider, model string) (tokenizer.Counter, error) {
	switch p := provider.(type) {
	case *anthropic.AnthropicProvider:
		return tokenizer.NewAnthropicCounter(p.Client(), model), nil
	case *gemini.GeminiProvider:
		return tokenizer.NewGeminiCounter(p.Client(), model), nil
	default:
		est, err := tokenizer.NewTiktokenEstimator()
		if err != nil {
			return nil, err
		}
		return estimateCounter{est: est}, nil
	}
}

func newCountCmd(root *rootParams) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Compare planned token estimates with the provider's own counts",
		Long: "Plans the run, then counts the input tokens of every chunk request with the provider's " +
			"token counting endpoint (anthropic, gemini) or with tiktoken (openai). No completion is requested.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			g, err := root.newGenerator(nil)
			if err != nil {
				return err
			}
			defer g.Close()

			cfg := root.settings.RunConfig()
			plan, err := g.Plan(ctx, cfg)
			if err != nil {
				return err
			}

			providerConfig := root.settings.ProviderConfig()
			provider, err := providers.New(ctx, providerConfig)
			if err != nil {
				return errors.Wrap(err, "failed to create provider")
			}
			defer provider.Close()

			counter, err := newCounter(provider, providerConfig.Model)
			if err != nil {
				return err
			}

			est := g.Estimator()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CHUNK\tPLANNED\tREQUEST ESTIMATE\tCOUNTED")
			for _, c := range plan.Chunks {
				req := plan.Requests[c.Index]
				counted, err := counter.CountTokens(ctx, req.System, req.Prompt)
				if err != nil {
					return errors.Wrapf(err, "counting chunk %d", c.Index+1)
				}
				estimate := est.Estimate(req.System) + est.Estimate(req.Prompt)
				fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", c.Index+1, c.Tokens, estimate, counted)
			}
			return w.Flush()
		},
	}
}

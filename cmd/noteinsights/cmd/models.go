package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/botirk38/noteinsights/models"
	"github.com/botirk38/noteinsights/types"
)

func newModelsCmd() *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the known models with their limits and prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table := models.All(types.ProviderType(provider))
			names := lo.Keys(table)
			sort.Slice(names, func(i, j int) bool {
				a, b := table[names[i]], table[names[j]]
				if a.Provider != b.Provider {
					return a.Provider < b.Provider
				}
				return names[i] < names[j]
			})

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tMODEL\tNAME\tMAX OUTPUT\tCONTEXT\t$/1K IN\t$/1K OUT")
			for _, name := range names {
				m := table[name]
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.5f\t%.5f\n",
					m.Provider, name, m.DisplayName, m.MaxTokens, m.ContextWindow, m.InputCostPer1K, m.OutputCostPer1K)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "Only list models of this provider")
	return cmd
}

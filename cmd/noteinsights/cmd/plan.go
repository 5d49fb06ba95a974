package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newPlanCmd(root *rootParams) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show how the notes would be split into requests, without sending any",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := root.newGenerator(nil)
			if err != nil {
				return err
			}
			defer g.Close()

			plan, err := g.Plan(cmd.Context(), root.settings.RunConfig())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d notes, %d chunks, budget %d tokens (%d reserved for prompts)\n\n",
				len(plan.Sources), len(plan.Chunks), plan.Budget, plan.Overhead)

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CHUNK\tTOKENS\tNOTES")
			for _, c := range plan.Chunks {
				fmt.Fprintf(w, "%d\t%d\t%s\n", c.Index+1, c.Tokens, strings.Join(c.Sources(), ", "))
			}
			return w.Flush()
		},
	}
}

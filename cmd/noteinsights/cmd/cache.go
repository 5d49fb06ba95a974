package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/botirk38/noteinsights/backends"
	"github.com/botirk38/noteinsights/types"
)

func newCacheCmd(root *rootParams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the completion cache",
		Long: "Works on the cache configured in the settings file. An in-memory cache lives " +
			"only as long as one run, so only a redis cache has anything to show between runs.",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Print the number of cached completions",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cache, err := root.openCache(cmd)
				if err != nil {
					return err
				}
				defer cache.Close()

				n, err := cache.Len(cmd.Context())
				if err != nil {
					return errors.Wrap(err, "counting cached completions")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s cache: %d completion(s)\n", root.settings.Cache.Type, n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "flush",
			Short: "Remove every cached completion",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cache, err := root.openCache(cmd)
				if err != nil {
					return err
				}
				defer cache.Close()

				if err := cache.Flush(cmd.Context()); err != nil {
					return errors.Wrap(err, "flushing cache")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "flushed %s cache\n", root.settings.Cache.Type)
				return nil
			},
		},
	)
	return cmd
}

func (p *rootParams) openCache(cmd *cobra.Command) (types.CompletionCache, error) {
	s := p.settings.Cache
	if s.Type == "" {
		return nil, errors.Errorf("no cache configured in %s", p.ConfigFile)
	}
	cache, err := backends.NewBackend(cmd.Context(), s.Type, s.BackendConfig())
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s cache", s.Type)
	}
	return cache, nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/botirk38/noteinsights/settings"
)

func newInitCmd(root *rootParams) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(root.ConfigFile); err == nil && !force {
				return errors.Errorf("%s already exists, use --force to overwrite", root.ConfigFile)
			}

			s := settings.Default()
			if root.Vault != "" {
				s.Vault = root.Vault
			}
			if err := settings.Save(root.ConfigFile, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", root.ConfigFile)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing settings file")
	return cmd
}

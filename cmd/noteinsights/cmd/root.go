package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/botirk38/noteinsights"
	"github.com/botirk38/noteinsights/internal/logging"
	"github.com/botirk38/noteinsights/options"
	"github.com/botirk38/noteinsights/settings"
	"github.com/botirk38/noteinsights/types"
)

type rootParams struct {
	ConfigFile string
	EnvFile    string
	LogLevel   string
	LogHandler string
	Vault      string

	settings settings.Settings
	logger   *slog.Logger
}

func newRootCmd() *cobra.Command {
	params := &rootParams{}
	cmd := &cobra.Command{
		Use:           "noteinsights",
		Short:         "Generate insights from a vault of markdown notes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return params.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&params.ConfigFile, "config", "c", settings.DefaultFile, "Settings file")
	flags.StringVar(&params.EnvFile, "env", ".env", "Dotenv file with API keys")
	flags.StringVar(&params.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&params.LogHandler, "log-handler", "", "Log output: text or json")
	flags.StringVar(&params.Vault, "vault", "", "Vault directory")

	cmd.AddCommand(
		newRunCmd(params),
		newPlanCmd(params),
		newCountCmd(params),
		newModelsCmd(),
		newInitCmd(params),
		newCacheCmd(params),
	)
	return cmd
}

func (p *rootParams) load(cmd *cobra.Command) error {
	if err := settings.LoadEnv(p.EnvFile); err != nil {
		return err
	}

	s, err := settings.LoadOrDefault(p.ConfigFile)
	if err != nil {
		return err
	}
	s.ApplyEnv()
	if p.Vault != "" {
		s.Vault = p.Vault
	}
	if p.LogLevel != "" {
		s.Log.Level = p.LogLevel
	}
	if p.LogHandler != "" {
		s.Log.Handler = p.LogHandler
	}

	p.settings = s
	p.logger = logging.NewLogger(s.Log.Level, s.Log.Handler)
	return nil
}

// newGenerator builds a Generator from the loaded settings.
func (p *rootParams) newGenerator(onEvent types.EventHandler) (*noteinsights.Generator, error) {
	s := p.settings
	if err := s.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid settings")
	}

	opts := []options.Option{
		options.WithProviderConfig(s.ProviderConfig()),
		options.WithDirVault(s.Vault),
		options.WithLogger(p.logger),
	}
	if onEvent != nil {
		opts = append(opts, options.WithEventHandler(onEvent))
	}
	if s.Cache.Type != "" {
		opts = append(opts, options.WithCache(s.Cache.Type, s.Cache.BackendConfig()))
	}

	g, err := noteinsights.New(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create generator")
	}
	return g, nil
}

func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

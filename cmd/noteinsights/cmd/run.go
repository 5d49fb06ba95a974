package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/botirk38/noteinsights/sink"
	"github.com/botirk38/noteinsights/types"
)

func newRunCmd(root *rootParams) *cobra.Command {
	params := &struct {
		Target      string
		Position    string
		TestMode    bool
		Concurrency int
	}{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate insights and insert them into the target note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			logger := root.logger
			g, err := root.newGenerator(func(ev types.Event) {
				// failures are returned and reported by Execute
				if ev.State == types.StateFailed {
					return
				}
				attrs := []any{slog.String("state", ev.State.String())}
				if ev.Chunk >= 0 {
					attrs = append(attrs, slog.Int("chunk", ev.Chunk+1), slog.Int("total", ev.Total))
				}
				logger.Info(ev.Message, attrs...)
			})
			if err != nil {
				return err
			}
			defer g.Close()

			cfg := root.settings.RunConfig()
			if params.Position != "" {
				cfg.InsertPosition = types.InsertPosition(params.Position)
			}
			if cmd.Flags().Changed("test-mode") {
				cfg.TestMode.Enabled = params.TestMode
			}
			if params.Concurrency > 0 {
				cfg.Concurrency = params.Concurrency
			}

			target := root.settings.Target
			if params.Target != "" {
				target = params.Target
			}
			var s sink.Sink = sink.WriterSink{W: cmd.OutOrStdout()}
			if target != "" {
				s = sink.NewFileSink(target)
				// the insights must not feed the next run
				if rel, ok := vaultPath(root.settings.Vault, target); ok {
					cfg.ExcludeFolders = append(cfg.ExcludeFolders, rel)
				}
			}

			res, err := g.Run(ctx, cfg, s)
			if err != nil {
				return err
			}

			logger.Info("insights generated",
				slog.Int("notes", len(res.Sources)),
				slog.Int("chunks", res.Chunks),
				slog.Int("requests", res.Usage.Requests),
				slog.Int("tokens", res.Usage.Total()),
				slog.Float64("cost_usd", res.Cost))
			return nil
		},
	}

	cmd.Flags().StringVarP(&params.Target, "target", "t", "", "Note to insert into; prints to stdout when empty")
	cmd.Flags().StringVarP(&params.Position, "position", "p", "", "Insert position: top, bottom or cursor")
	cmd.Flags().BoolVar(&params.TestMode, "test-mode", false, "Cap the number of notes and tokens processed")
	cmd.Flags().IntVar(&params.Concurrency, "concurrency", 0, "Chunks in flight at once")

	return cmd
}

// vaultPath returns target as a vault path when it lies inside the vault.
func vaultPath(vault, target string) (string, bool) {
	root, err := filepath.Abs(vault)
	if err != nil {
		return "", false
	}
	file, err := filepath.Abs(target)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(root, file)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

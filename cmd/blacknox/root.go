package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emmett/blacknox/internal/app"
	"github.com/emmett/blacknox/internal/config"
	"github.com/emmett/blacknox/internal/input"
	"github.com/emmett/blacknox/internal/log"
)

// globalOptions are shared by every command
type globalOptions struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

// load reads the configuration. A broken config file is a warning and the
// defaults are used instead.
func (g *globalOptions) load(cmd *cobra.Command) error {
	cfg, err := config.LoadWithFallback(g.configPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Failed to load config: %v\n", err)
		cfg = config.DefaultConfig()
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	log.Init(cfg.Log.Level, cfg.Log.Format)

	g.cfg = cfg
	return nil
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	var textOnly bool

	cmd := &cobra.Command{
		Use:   "blacknox",
		Short: "Personal voice and text assistant",
		Long: `blacknox is a personal assistant you can type or talk to.

Run without a command to start a conversation. At the prompt choose
'text' to type, 'speech' to talk, or 'exit' to quit.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInteractive(cmd, opts.cfg, !textOnly)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to configuration file (default: ~/.blacknoxrc or /etc/blacknox/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().BoolVar(&textOnly, "text-only", false, "Start without speech input, no speech model needed")

	cmd.AddCommand(
		newServeCommand(opts),
		newMCPCommand(opts),
		newDevicesCommand(),
		newModelsCommand(opts),
		newSayCommand(opts),
		newAskCommand(opts),
		newVersionCommand(),
	)

	return cmd
}

func runInteractive(cmd *cobra.Command, cfg *config.Config, speech bool) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{Speech: speech})
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	defer a.Close()

	lines := input.NewLineReader()
	defer lines.Close()
	// Closing readline releases a pending Readline and restores the terminal
	defer context.AfterFunc(ctx, func() { _ = lines.Close() })()

	if err := a.RunInteractive(ctx, lines); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// commandContext returns cmd's context, or Background when run outside Execute
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

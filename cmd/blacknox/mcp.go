package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emmett/blacknox/internal/app"
	"github.com/emmett/blacknox/internal/models"
	"github.com/emmett/blacknox/internal/output"
	"github.com/emmett/blacknox/internal/server/mcp"
)

func newMCPCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run as a Model Context Protocol server on stdio",
		Long: `Run as a Model Context Protocol server on stdin/stdout.

Tools: speak, converse, get_user_name, list_models.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// stdout carries the protocol
			console := output.NewConsoleOutput(output.ConsoleConfig{Writer: os.Stderr})

			a, err := app.New(ctx, opts.cfg, app.Options{Console: console})
			if err != nil {
				return err
			}
			defer a.Close()

			mgr, err := models.NewManager(opts.cfg.Model.Dir)
			if err != nil {
				return err
			}

			server := mcp.NewServer(a.Service(), mgr, mcp.Config{
				ServerName:    "blacknox",
				ServerVersion: Version,
			})
			return server.Start(ctx)
		},
	}
}

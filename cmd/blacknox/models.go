package main

import (
	"github.com/spf13/cobra"

	"github.com/emmett/blacknox/internal/app"
	"github.com/emmett/blacknox/internal/models"
)

func newModelsCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage offline speech recognition models",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	manager := func(cmd *cobra.Command) (*app.ModelManager, error) {
		mgr, err := models.NewManager(opts.cfg.Model.Dir)
		if err != nil {
			return nil, err
		}
		return app.NewModelManager(mgr, cmd.OutOrStdout()), nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List models available for download",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := manager(cmd)
				if err != nil {
					return err
				}
				return m.ListModels()
			},
		},
		&cobra.Command{
			Use:   "downloaded",
			Short: "List downloaded models",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := manager(cmd)
				if err != nil {
					return err
				}
				return m.ListDownloaded()
			},
		},
		&cobra.Command{
			Use:     "download [model-name]",
			Short:   "Download a model (default: " + models.DefaultModelName + ")",
			Example: `blacknox models download vosk-model-small-en-us-0.15`,
			Args:    cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := manager(cmd)
				if err != nil {
					return err
				}
				name := models.DefaultModelName
				if len(args) == 1 {
					name = args[0]
				}
				return m.Download(commandContext(cmd), name)
			},
		},
		&cobra.Command{
			Use:   "set-default <model-name>",
			Short: "Set the model used when none is configured",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := manager(cmd)
				if err != nil {
					return err
				}
				return m.SetDefault(args[0])
			},
		},
	)

	return cmd
}

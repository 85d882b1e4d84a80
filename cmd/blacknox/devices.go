package main

import (
	"github.com/spf13/cobra"

	"github.com/emmett/blacknox/internal/app"
)

func newDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio capture and playback devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.NewDeviceManager(cmd.OutOrStdout()).ListDevices()
		},
	}
}

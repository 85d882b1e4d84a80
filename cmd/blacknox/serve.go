package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	grpclib "google.golang.org/grpc"

	"github.com/emmett/blacknox/internal/app"
	"github.com/emmett/blacknox/internal/server/grpc"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the assistant over gRPC",
		Example: `blacknox serve --port 50051`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			server := grpc.NewServer(a.Service())
			lis, err := net.Listen("tcp", cfg.ServerAddress())
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", cfg.ServerAddress(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "gRPC server listening on %s\n", lis.Addr())

			go func() {
				<-ctx.Done()
				server.Stop()
			}()

			if err := server.Serve(lis); err != nil && !errors.Is(err, grpclib.ErrServerStopped) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default from config, 50051)")
	return cmd
}

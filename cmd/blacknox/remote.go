package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emmett/blacknox/internal/server/grpc"
)

const remoteTimeout = 90 * time.Second

// withClient dials a running `blacknox serve`
func withClient(cmd *cobra.Command, addr string, fn func(context.Context, *grpc.AssistantClient) error) error {
	conn, err := grpclib.NewClient(addr, grpclib.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(commandContext(cmd), remoteTimeout)
	defer cancel()

	return fn(ctx, grpc.NewAssistantClient(conn))
}

func serverAddress(opts *globalOptions, addr string) string {
	if addr != "" {
		return addr
	}
	return opts.cfg.ServerAddress()
}

func newSayCommand(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:     "say <text>",
		Short:   "Make a running server speak text",
		Example: `blacknox say "Dinner is served."`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, serverAddress(opts, addr), func(ctx context.Context, c *grpc.AssistantClient) error {
				return c.Speak(ctx, strings.Join(args, " "))
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Server address (default from config)")
	return cmd
}

func newAskCommand(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:     "ask <utterance>",
		Short:   "Send one utterance to a running server and print the reply",
		Example: `blacknox ask what is my name?`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, serverAddress(opts, addr), func(ctx context.Context, c *grpc.AssistantClient) error {
				reply, err := c.Converse(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", opts.cfg.Assistant.Name, reply)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Server address (default from config)")
	return cmd
}

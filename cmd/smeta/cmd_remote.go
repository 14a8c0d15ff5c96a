package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/kozichsergey/SmetaAI/internal/server"
)

var remoteFlags struct {
	addr string
}

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Control a running 'smeta serve' over gRPC",
}

var remoteStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the server's task progress and data counts",
	Args:  cobra.NoArgs,
	RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *server.ControlClient, _ []string) error {
		resp, err := c.Status(ctx)
		if err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), resp.Status)
		return nil
	}),
}

var remoteStartCmd = &cobra.Command{
	Use:   "start <ingest|optimize|calculate>",
	Short: "Start a task on the server",
	Args:  cobra.ExactArgs(1),
	RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *server.ControlClient, args []string) error {
		resp, err := c.StartTask(ctx, &server.StartTaskRequest{Task: args[0]})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Started %s (task %s)\n", args[0], resp.TaskID)
		return nil
	}),
}

var remoteCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the task running on the server",
	Args:  cobra.NoArgs,
	RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *server.ControlClient, _ []string) error {
		resp, err := c.CancelTask(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
		return nil
	}),
}

var remoteLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the server's task log",
	Args:  cobra.NoArgs,
	RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *server.ControlClient, _ []string) error {
		resp, err := c.TaskLog(ctx)
		if err != nil {
			return err
		}
		printLog(cmd.OutOrStdout(), resp.Entries)
		return nil
	}),
}

func init() {
	remoteCmd.PersistentFlags().StringVar(&remoteFlags.addr, "addr", "", "Server address (default GRPC_ADDR)")
	remoteCmd.AddCommand(remoteStatusCmd, remoteStartCmd, remoteCancelCmd, remoteLogCmd)
}

func withClient(fn func(context.Context, *cobra.Command, *server.ControlClient, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		addr := remoteFlags.addr
		if addr == "" {
			addr = cfg.Server.GRPCAddr
		}
		conn, err := grpc.NewClient(dialTarget(addr), grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return err
		}
		defer conn.Close()
		return fn(cmd.Context(), cmd, server.NewControlClient(conn), args)
	}
}

// dialTarget turns ":8080" into a dialable "localhost:8080".
func dialTarget(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kozichsergey/SmetaAI/internal/common"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfg    *common.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "smeta",
	Short: "Consolidate estimate spreadsheets into a price catalog",
	Long: "smeta extracts priced line items from estimate workbooks, clusters equivalent items\n" +
		"into a reference catalog and fills prices into new estimates.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := common.LoadConfig()
		if err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c
		logger = newLogger(c.Log.Level)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd, optimizeCmd, calculateCmd)
	rootCmd.AddCommand(catalogCmd, rawCmd)
	rootCmd.AddCommand(statusCmd, logCmd, filesCmd, resetCmd, clearCmd)
	rootCmd.AddCommand(checkOracleCmd, serveCmd, remoteCmd)
	rootCmd.Version = version
}

// newLogger writes JSON logs to stderr so command output on stdout stays clean.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

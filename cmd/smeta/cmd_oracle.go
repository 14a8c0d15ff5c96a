package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozichsergey/SmetaAI/internal/common"
)

var checkOracleCmd = &cobra.Command{
	Use:   "check-oracle",
	Short: "Send a trivial request to the model endpoint",
	Args:  cobra.NoArgs,
	RunE:  runCheckOracle,
}

func runCheckOracle(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.oracle == nil {
		return fmt.Errorf("%w: set OPENAI_API_KEY", common.ErrOracleUnavailable)
	}
	start := time.Now()
	reply, err := a.oracle.Ping(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Model %s answered in %s: %s\n", cfg.LLM.Model, time.Since(start).Round(time.Millisecond), reply)
	return nil
}

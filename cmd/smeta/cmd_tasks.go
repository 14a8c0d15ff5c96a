package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozichsergey/SmetaAI/constants"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Extract line items from new or changed workbooks in the input folder",
	Args:  cobra.NoArgs,
	RunE:  runTask(constants.TaskIngest),
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Rebuild the catalog from the raw records",
	Args:  cobra.NoArgs,
	RunE:  runTask(constants.TaskOptimize),
}

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Fill catalog prices into the workbooks of the calculate folder",
	Args:  cobra.NoArgs,
	RunE:  runTask(constants.TaskCalculate),
}

// runTask runs a stage in the foreground; an interrupt cancels it.
func runTask(name constants.TaskName) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		runErr := a.control.RunTask(ctx, name)
		st, err := a.control.Status(cmd.Context())
		if err == nil && st.Progress.Message != "" {
			fmt.Fprintln(cmd.OutOrStdout(), st.Progress.Message)
		}
		return runErr
	}
}

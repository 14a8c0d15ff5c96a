package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozichsergey/SmetaAI/internal/entity"
)

var clearFlags struct {
	yes bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show task progress and data counts",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the task log",
	Args:  cobra.NoArgs,
	RunE:  runLog,
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the workbooks in the working folders",
	Args:  cobra.NoArgs,
	RunE:  runFiles,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the progress state to idle",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the raw records and the catalog",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVar(&clearFlags.yes, "yes", false, "Confirm deletion")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.control.Status(cmd.Context())
	if err != nil {
		return err
	}
	printStatus(cmd.OutOrStdout(), st)
	return nil
}

func printStatus(out io.Writer, st entity.SystemStatus) {
	p := st.Progress
	fmt.Fprintf(out, "Status:    %s", p.Status)
	if p.CurrentTask != "" {
		fmt.Fprintf(out, " (%s, %d%%)", p.CurrentTask, p.ProgressPercent)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Message:   %s\n", p.Message)
	if p.LastUpdate != nil {
		fmt.Fprintf(out, "Updated:   %s\n", p.LastUpdate.Local().Format(time.DateTime))
	}
	fmt.Fprintf(out, "Input:     %d workbooks\n", st.InputFiles)
	fmt.Fprintf(out, "Raw:       %d records from %d files\n", st.RawRecords, st.ProcessedFiles)
	fmt.Fprintf(out, "Catalog:   %d entries\n", st.CatalogEntries)
	fmt.Fprintf(out, "AI:        %t\n", st.AIEnabled)
}

func runLog(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.control.TaskLog(cmd.Context())
	if err != nil {
		return err
	}
	printLog(cmd.OutOrStdout(), entries)
	return nil
}

func printLog(out io.Writer, entries []entity.TaskLogEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "Task log is empty")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s  %-9s %-7s %s\n", e.Timestamp.Local().Format(time.DateTime), e.TaskName, e.Status, e.Message)
	}
}

func runFiles(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	files, err := a.control.ListFiles()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, g := range []struct {
		title string
		names []string
	}{
		{"Input (" + cfg.Dirs.Input + ")", files.Input},
		{"Calculate (" + cfg.Dirs.Calculate + ")", files.Calculate},
		{"Output (" + cfg.Dirs.Output + ")", files.Output},
	} {
		fmt.Fprintf(out, "%s: %d\n", g.title, len(g.names))
		for _, n := range g.names {
			fmt.Fprintf(out, "  %s\n", n)
		}
	}
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.control.ResetStatus(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Status reset")
	return nil
}

func runClear(cmd *cobra.Command, _ []string) error {
	if !clearFlags.yes {
		return fmt.Errorf("refusing to delete data without --yes")
	}
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	msg, err := a.control.ClearData(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}

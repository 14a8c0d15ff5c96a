package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/entity"
)

var rawFlags struct {
	json     bool
	name     string
	unit     string
	material float64
	work     float64
}

var rawCmd = &cobra.Command{
	Use:   "raw",
	Short: "Inspect and correct the extracted raw records",
}

var rawListCmd = &cobra.Command{
	Use:   "list",
	Short: "List raw records with their index",
	Args:  cobra.NoArgs,
	RunE:  runRawList,
}

var rawEditCmd = &cobra.Command{
	Use:   "edit <index>",
	Short: "Edit the raw record at index",
	Args:  cobra.ExactArgs(1),
	RunE:  runRawEdit,
}

func init() {
	rawListCmd.Flags().BoolVar(&rawFlags.json, "json", false, "Print records as JSON")

	f := rawEditCmd.Flags()
	f.StringVar(&rawFlags.name, "name", "", "New name")
	f.StringVar(&rawFlags.unit, "unit", "", "New unit")
	f.Float64Var(&rawFlags.material, "material", 0, "Material price")
	f.Float64Var(&rawFlags.work, "work", 0, "Work price")

	rawCmd.AddCommand(rawListCmd, rawEditCmd)
}

func runRawList(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.raw.ListRecords(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if rawFlags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tUNIT\tMATERIAL\tWORK\tSOURCE")
	for i, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%.2f\t%s\n", i, r.Name, r.Unit, r.MaterialPrice, r.WorkPrice, r.SourceFile)
	}
	return tw.Flush()
}

func runRawEdit(cmd *cobra.Command, args []string) error {
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: index must be a number", common.ErrInvalidInput)
	}
	var patch entity.LineItemPatch
	f := cmd.Flags()
	if f.Changed("name") {
		patch.Name = &rawFlags.name
	}
	if f.Changed("unit") {
		patch.Unit = &rawFlags.unit
	}
	if f.Changed("material") {
		patch.MaterialPrice = &rawFlags.material
	}
	if f.Changed("work") {
		patch.WorkPrice = &rawFlags.work
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.raw.UpdateRecord(cmd.Context(), idx, patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated record %d: %s (material %.2f, work %.2f)\n", idx, r.Name, r.MaterialPrice, r.WorkPrice)
	return nil
}

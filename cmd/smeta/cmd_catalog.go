package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozichsergey/SmetaAI/internal/entity"
)

var catalogFlags struct {
	json            bool
	name            string
	unit            string
	material        float64
	work            float64
	approveMaterial bool
	approveWork     bool
	out             string
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and edit the price catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog entries",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

var catalogEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a catalog entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogEdit,
}

var catalogDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a catalog entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogDelete,
}

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog as an XLSX workbook",
	Args:  cobra.NoArgs,
	RunE:  runCatalogExport,
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Replace the catalog with the rows of an XLSX workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogImport,
}

func init() {
	catalogListCmd.Flags().BoolVar(&catalogFlags.json, "json", false, "Print entries as JSON")

	f := catalogEditCmd.Flags()
	f.StringVar(&catalogFlags.name, "name", "", "New name")
	f.StringVar(&catalogFlags.unit, "unit", "", "New unit")
	f.Float64Var(&catalogFlags.material, "material", 0, "Material price")
	f.Float64Var(&catalogFlags.work, "work", 0, "Work price")
	f.BoolVar(&catalogFlags.approveMaterial, "approve-material", false, "Mark the material price approved")
	f.BoolVar(&catalogFlags.approveWork, "approve-work", false, "Mark the work price approved")

	catalogExportCmd.Flags().StringVarP(&catalogFlags.out, "out", "o", "", "Output file (default OUTPUT_DIR/catalog_export_<time>.xlsx)")

	catalogCmd.AddCommand(catalogListCmd, catalogEditCmd, catalogDeleteCmd, catalogExportCmd, catalogImportCmd)
}

func runCatalogList(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.catalog.ListEntries(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if catalogFlags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "Catalog is empty. Run 'smeta optimize' to build it.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tUNIT\tMATERIAL\tWORK\tSIZE\tWARNINGS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			e.ID, e.Name, e.Unit,
			priceCell(e.MaterialPrice, e.MaterialPriceApproved),
			priceCell(e.WorkPrice, e.WorkPriceApproved),
			e.ClusterSize, strings.Join(e.Warnings(), "; "))
	}
	return tw.Flush()
}

func priceCell(v float64, approved bool) string {
	s := fmt.Sprintf("%.2f", v)
	if approved {
		s += " ✓"
	}
	return s
}

func runCatalogEdit(cmd *cobra.Command, args []string) error {
	var patch entity.CatalogEntryPatch
	f := cmd.Flags()
	if f.Changed("name") {
		patch.Name = &catalogFlags.name
	}
	if f.Changed("unit") {
		patch.Unit = &catalogFlags.unit
	}
	if f.Changed("material") {
		patch.MaterialPrice = &catalogFlags.material
	}
	if f.Changed("work") {
		patch.WorkPrice = &catalogFlags.work
	}
	if f.Changed("approve-material") {
		patch.MaterialPriceApproved = &catalogFlags.approveMaterial
	}
	if f.Changed("approve-work") {
		patch.WorkPriceApproved = &catalogFlags.approveWork
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	e, err := a.catalog.UpdateEntry(cmd.Context(), args[0], patch)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s (material %.2f, work %.2f)\n", e.ID, e.Name, e.MaterialPrice, e.WorkPrice)
	return nil
}

func runCatalogDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.catalog.DeleteEntry(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

func runCatalogExport(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	b, err := a.export.ExportCatalogXLSX(cmd.Context())
	if err != nil {
		return err
	}
	path := catalogFlags.out
	if path == "" {
		path = filepath.Join(cfg.Dirs.Output, "catalog_export_"+time.Now().Format("20060102_150405")+".xlsx")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported catalog to %s\n", path)
	return nil
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	b, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.export.ImportCatalogFile(cmd.Context(), b)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d catalog entries\n", n)
	return nil
}

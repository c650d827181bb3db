// Package excel handles the spreadsheet import command.
package excel

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hesed/masav-batch/cmd/root"
	"hesed/masav-batch/internal/importer"
	"hesed/masav-batch/internal/report"
)

var dryRun bool

// Cmd represents the excel import command.
var Cmd = &cobra.Command{
	Use:   "excel",
	Short: "Import transfers from an Excel or CSV upload",
	Long: `Import recipient transfers from an Excel (.xlsx) or CSV file.
Columns are matched by Hebrew or English header aliases; every row is
validated and valid rows are stored as pending transfers. Row failures can
be written to an error report with --output.`,
	RunE: importFunc,
}

func init() {
	Cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the file without storing any transfer")
}

func importFunc(cmd *cobra.Command, args []string) error {
	if root.SharedFlags.Input == "" {
		return fmt.Errorf("no input file given, use --input")
	}

	data, err := os.ReadFile(root.SharedFlags.Input) // #nosec G304 -- operator-chosen upload
	if err != nil {
		return fmt.Errorf("error reading input file: %w", err)
	}

	imp := importer.NewImporter(root.Dict, root.Repo, root.Log,
		importer.WithCSVDelimiter(root.CSVDelimiter()))

	result, err := imp.Import(cmd.Context(), data, root.SharedFlags.Input, nil)
	if err != nil {
		return err
	}

	fmt.Printf("Rows:    %d total, %d valid, %d invalid, %d empty\n",
		result.TotalRows, result.ValidRows, result.InvalidRows, result.SkippedEmpty)
	for _, w := range result.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}

	if len(result.Errors) > 0 && root.SharedFlags.Output != "" {
		if err := report.WriteErrors(result, root.SharedFlags.Output); err != nil {
			return err
		}
		fmt.Printf("Error report written to %s\n", root.SharedFlags.Output)
	}

	if dryRun {
		fmt.Println("Dry run, nothing stored.")
		return nil
	}
	if len(result.Transfers) == 0 {
		fmt.Println("No valid transfers to store.")
		return nil
	}

	outcomes, err := imp.Commit(cmd.Context(), result.Transfers)
	if err != nil {
		return err
	}

	stored := 0
	for _, o := range outcomes {
		if o.Failure != nil {
			fmt.Printf("Row not stored (%s): %s\n", o.Failure.Code, o.Failure.Message)
			continue
		}
		stored++
	}
	fmt.Printf("Stored %d transfers as pending.\n", stored)
	return nil
}

// Package masav handles the MASAV file export command.
package masav

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"hesed/masav-batch/cmd/root"
	"hesed/masav-batch/internal/exporter"
)

var (
	ids         []string
	paymentDate string
)

// Cmd represents the masav export command.
var Cmd = &cobra.Command{
	Use:   "masav",
	Short: "Export transfers to a MASAV bank file",
	Long: `Encode exportable transfers into a fixed-width MASAV file and mark them
exported. With --id the given transfers are exported; without it the
selected transfers are used, or all pending ones when nothing is selected.`,
	RunE: exportFunc,
}

func init() {
	Cmd.Flags().StringSliceVar(&ids, "id", nil, "Transfer ids to export (repeatable)")
	Cmd.Flags().StringVar(&paymentDate, "date", "", "Payment date as YYYY-MM-DD (default: today)")
}

func exportFunc(cmd *cobra.Command, args []string) error {
	settings, err := root.MasavSettings()
	if err != nil {
		return err
	}

	date := time.Now()
	if paymentDate != "" {
		if date, err = time.Parse("2006-01-02", paymentDate); err != nil {
			return fmt.Errorf("invalid payment date %q, want YYYY-MM-DD: %w", paymentDate, err)
		}
	}

	exp := exporter.NewExporter(root.Repo, settings, root.Log)

	exportIDs := ids
	if len(exportIDs) == 0 {
		if exportIDs, err = exp.ExportableIDs(cmd.Context()); err != nil {
			return err
		}
		if len(exportIDs) == 0 {
			return fmt.Errorf("no exportable transfers found")
		}
	}

	result, err := exp.Export(cmd.Context(), exportIDs, date)
	if err != nil {
		return err
	}

	outPath := result.File.Name
	if root.SharedFlags.Output != "" {
		outPath = root.SharedFlags.Output
		if info, statErr := os.Stat(outPath); statErr == nil && info.IsDir() {
			outPath = filepath.Join(outPath, result.File.Name)
		}
	}
	if err := os.WriteFile(outPath, result.File.Content, 0o600); err != nil {
		return fmt.Errorf("error writing masav file: %w", err)
	}

	fmt.Printf("Exported %d transfers totalling %s to %s\n",
		result.File.Count, result.File.TotalAmount.StringFixed(2), outPath)
	return nil
}

// Package list handles the transfer listing command.
package list

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"hesed/masav-batch/cmd/root"
	"hesed/masav-batch/internal/models"
)

var (
	status   string
	search   string
	fromDate string
	toDate   string
	minStr   string
	maxStr   string
	fromFile string
)

// Cmd represents the list command.
var Cmd = &cobra.Command{
	Use:   "list",
	Short: "List stored transfers",
	Long: `List transfers, newest first, optionally filtered by status, creation
date range, amount range, recipient name or source file. With --output the
listing is written as CSV instead of printed.`,
	RunE: listFunc,
}

func init() {
	Cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, selected, exported)")
	Cmd.Flags().StringVar(&search, "search", "", "Filter by recipient name substring")
	Cmd.Flags().StringVar(&fromDate, "from", "", "Filter by creation date from, YYYY-MM-DD")
	Cmd.Flags().StringVar(&toDate, "to", "", "Filter by creation date to, YYYY-MM-DD")
	Cmd.Flags().StringVar(&minStr, "min", "", "Filter by minimum amount")
	Cmd.Flags().StringVar(&maxStr, "max", "", "Filter by maximum amount")
	Cmd.Flags().StringVar(&fromFile, "file", "", "Filter by source file name")
}

func listFunc(cmd *cobra.Command, args []string) error {
	filter, err := buildFilter()
	if err != nil {
		return err
	}

	transfers, err := root.Repo.List(cmd.Context(), *filter)
	if err != nil {
		return err
	}
	if len(transfers) == 0 {
		fmt.Println("No transfers found.")
		return nil
	}

	if root.SharedFlags.Output != "" {
		return writeCSV(transfers, root.SharedFlags.Output)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRECIPIENT\tBANK\tBRANCH\tACCOUNT\tAMOUNT\tSTATUS\tCREATED")
	for _, t := range transfers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.RecipientName, t.BankCode, t.BranchCode, t.AccountNumber,
			t.Amount.StringFixed(2), t.Status, t.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func buildFilter() (*models.ListFilter, error) {
	filter := &models.ListFilter{
		Search:           search,
		ImportedFromFile: fromFile,
	}

	if status != "" {
		s, err := models.ParseStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = &s
	}
	if fromDate != "" {
		t, err := time.Parse("2006-01-02", fromDate)
		if err != nil {
			return nil, fmt.Errorf("invalid --from date %q: %w", fromDate, err)
		}
		filter.DateFrom = &t
	}
	if toDate != "" {
		t, err := time.Parse("2006-01-02", toDate)
		if err != nil {
			return nil, fmt.Errorf("invalid --to date %q: %w", toDate, err)
		}
		// Inclusive end of day.
		t = t.Add(24*time.Hour - time.Nanosecond)
		filter.DateTo = &t
	}
	if minStr != "" {
		min, err := decimal.NewFromString(minStr)
		if err != nil {
			return nil, fmt.Errorf("invalid --min amount %q: %w", minStr, err)
		}
		filter.AmountMin = &min
	}
	if maxStr != "" {
		max, err := decimal.NewFromString(maxStr)
		if err != nil {
			return nil, fmt.Errorf("invalid --max amount %q: %w", maxStr, err)
		}
		filter.AmountMax = &max
	}
	return filter, nil
}

func writeCSV(transfers []models.TransferRecord, path string) error {
	f, err := os.Create(path) // #nosec G304 -- operator-chosen output path
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := gocsv.MarshalFile(&transfers, f); err != nil {
		return fmt.Errorf("error writing CSV: %w", err)
	}
	fmt.Printf("Wrote %d transfers to %s\n", len(transfers), path)
	return nil
}

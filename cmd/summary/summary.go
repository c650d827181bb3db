// Package summary handles the aggregate reporting command.
package summary

import (
	"fmt"

	"github.com/spf13/cobra"

	"hesed/masav-batch/cmd/root"
	"hesed/masav-batch/internal/models"
	"hesed/masav-batch/internal/repository"
)

// Cmd represents the summary command.
var Cmd = &cobra.Command{
	Use:   "summary",
	Short: "Show totals by status and recent imports",
	RunE:  summaryFunc,
}

func summaryFunc(cmd *cobra.Command, args []string) error {
	s, err := repository.Summarize(cmd.Context(), root.Repo)
	if err != nil {
		return err
	}

	fmt.Printf("Transfers: %d, total %s\n", s.TotalCount, s.TotalAmount.StringFixed(2))
	for _, status := range []models.TransferStatus{models.StatusPending, models.StatusSelected, models.StatusExported} {
		b := s.ByStatus[status]
		fmt.Printf("  %-9s %5d  %s\n", status, b.Count, b.Amount.StringFixed(2))
	}

	if len(s.RecentImports) > 0 {
		fmt.Println("Recent imports:")
		for _, src := range s.RecentImports {
			fmt.Printf("  %s  %d transfers  %s\n",
				src.Date.Format("2006-01-02"), src.Count, src.Filename)
		}
	}
	return nil
}

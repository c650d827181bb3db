// Package status handles the transfer status transition command.
package status

import (
	"fmt"

	"github.com/spf13/cobra"

	"hesed/masav-batch/cmd/root"
	"hesed/masav-batch/internal/models"
)

// Cmd represents the status command.
var Cmd = &cobra.Command{
	Use:   "status <new-status> <id>...",
	Short: "Change the lifecycle status of transfers",
	Long: `Move transfers to a new lifecycle status. Pending and selected move
freely between each other and both may move to exported; exported is final.
Ids that are missing or ineligible are reported and skipped.`,
	Args: cobra.MinimumNArgs(2),
	RunE: statusFunc,
}

func statusFunc(cmd *cobra.Command, args []string) error {
	newStatus, err := models.ParseStatus(args[0])
	if err != nil {
		return err
	}
	ids := args[1:]

	moved, err := root.Repo.TransitionStatus(cmd.Context(), ids, newStatus)
	if err != nil {
		return err
	}

	movedIDs := make(map[string]bool, len(moved))
	for _, t := range moved {
		movedIDs[t.ID] = true
		fmt.Printf("%s -> %s\n", t.ID, t.Status)
	}
	for _, id := range ids {
		if !movedIDs[id] {
			fmt.Printf("%s skipped (missing or not eligible for %s)\n", id, newStatus)
		}
	}

	if len(moved) < len(ids) {
		return fmt.Errorf("moved %d of %d transfers", len(moved), len(ids))
	}
	return nil
}

// Package exporter turns exportable transfers into a MASAV file and marks
// them exported. The status transition happens only after a file was encoded
// successfully, and the file is only handed back when every requested
// transfer actually moved, so a returned file always matches the records the
// repository considers exported.
package exporter

import (
	"context"
	"fmt"
	"time"

	"hesed/masav-batch/internal/logging"
	"hesed/masav-batch/internal/masavfile"
	"hesed/masav-batch/internal/models"
	"hesed/masav-batch/internal/pipelineerror"
	"hesed/masav-batch/internal/repository"
)

type Exporter struct {
	repo     repository.Repository
	settings masavfile.Settings
	logger   logging.Logger
}

func NewExporter(repo repository.Repository, settings masavfile.Settings, logger logging.Logger) *Exporter {
	return &Exporter{repo: repo, settings: settings, logger: logger}
}

// Result is the outcome of a successful export.
type Result struct {
	File      *masavfile.File
	Transfers []models.TransferRecord
}

// ExportableIDs returns the ids of every transfer currently eligible for
// export, preferring the selected set: when any transfers are selected only
// those are exported, otherwise every pending transfer is.
func (e *Exporter) ExportableIDs(ctx context.Context) ([]string, error) {
	selected := models.StatusSelected
	transfers, err := e.repo.List(ctx, models.ListFilter{Status: &selected})
	if err != nil {
		return nil, err
	}
	if len(transfers) == 0 {
		pending := models.StatusPending
		if transfers, err = e.repo.List(ctx, models.ListFilter{Status: &pending}); err != nil {
			return nil, err
		}
	}

	ids := make([]string, len(transfers))
	for i, t := range transfers {
		ids[i] = t.ID
	}
	return ids, nil
}

// Export encodes the given transfers for the payment date and transitions
// them to exported. Every id must exist and be exportable; one ineligible
// transfer fails the whole export before anything changes state.
func (e *Exporter) Export(ctx context.Context, ids []string, paymentDate time.Time) (*Result, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no transfers to export")
	}

	transfers := make([]models.TransferRecord, 0, len(ids))
	for _, id := range ids {
		t, err := e.repo.GetByID(ctx, id)
		if err != nil {
			if _, ok := err.(*pipelineerror.NotFoundError); ok {
				return nil, &pipelineerror.EligibilityError{TransferID: id}
			}
			return nil, err
		}
		if !t.Status.IsExportable() {
			return nil, &pipelineerror.EligibilityError{TransferID: id, Status: t.Status}
		}
		transfers = append(transfers, *t)
	}

	file, err := masavfile.Encode(e.settings, transfers, masavfile.Options{PaymentDate: paymentDate})
	if err != nil {
		return nil, err
	}

	moved, err := e.repo.TransitionStatus(ctx, ids, models.StatusExported)
	if err != nil {
		return nil, err
	}
	if len(moved) != len(ids) {
		// Someone else exported or changed part of the set between the
		// eligibility check and the transition. The file must not be
		// delivered: it would double-pay the transfers the other export won.
		return nil, fmt.Errorf("only %d of %d transfers could be marked exported, file discarded",
			len(moved), len(ids))
	}

	e.logger.Info("masav file encoded",
		logging.F(logging.FieldOutput, file.Name),
		logging.F(logging.FieldCount, file.Count),
		logging.F(logging.FieldAmount, file.TotalAmount.StringFixed(2)))
	return &Result{File: file, Transfers: moved}, nil
}

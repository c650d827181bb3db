package importer

import (
	"context"
	"fmt"

	"hesed/masav-batch/internal/fielddict"
	"hesed/masav-batch/internal/logging"
	"hesed/masav-batch/internal/models"
	"hesed/masav-batch/internal/pipelineerror"
	"hesed/masav-batch/internal/repository"
	"hesed/masav-batch/internal/spreadsheet"
)

// RecipientDirectory answers whether a recipient may receive payments.
// Implementations are optional; a nil directory means every recipient is
// considered active.
type RecipientDirectory interface {
	IsActive(ctx context.Context, idNumber string) (bool, error)
}

// Importer runs the import pipeline for one spreadsheet at a time.
type Importer struct {
	dict      *fielddict.Dictionary
	repo      repository.Repository
	directory RecipientDirectory
	logger    logging.Logger
	delimiter rune
}

// Option configures an Importer.
type Option func(*Importer)

// WithCSVDelimiter sets the delimiter used for CSV uploads.
func WithCSVDelimiter(delimiter rune) Option {
	return func(i *Importer) {
		i.delimiter = delimiter
	}
}

// WithRecipientDirectory attaches an activity check consulted at commit time.
func WithRecipientDirectory(directory RecipientDirectory) Option {
	return func(i *Importer) {
		i.directory = directory
	}
}

// NewImporter creates an Importer around the given alias dictionary and
// repository.
func NewImporter(dict *fielddict.Dictionary, repo repository.Repository, logger logging.Logger, opts ...Option) *Importer {
	i := &Importer{
		dict:      dict,
		repo:      repo,
		logger:    logger,
		delimiter: ',',
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import parses, maps, normalizes and validates a spreadsheet and returns
// the full row-by-row result. Structural failures (unreadable file, missing
// required columns) abort the run with a pipelineerror.ImportError; row-level
// failures are collected in the result instead.
//
// The mapping argument overrides column detection when non-nil; passing nil
// detects the mapping from the header row.
func (i *Importer) Import(ctx context.Context, data []byte, filename string, mapping models.ColumnMapping) (*models.ImportResult, error) {
	log := i.logger.WithField(logging.FieldFile, filename)
	log.Info("starting import")

	sheet, err := spreadsheet.Read(data, i.delimiter)
	if err != nil {
		return nil, &pipelineerror.ImportError{
			Filename: filename,
			Code:     models.ErrCodeParseError,
			Msg:      "unable to parse spreadsheet",
			Err:      err,
		}
	}

	if mapping == nil {
		mapping = DetectMapping(sheet.Headers, i.dict)
	}
	if valid, missing := ValidateMapping(mapping); !valid {
		names := make([]string, len(missing))
		for idx, f := range missing {
			names[idx] = fielddict.DisplayName(string(f))
		}
		return nil, &pipelineerror.ImportError{
			Filename: filename,
			Code:     models.ErrCodeMissingColumns,
			Msg:      fmt.Sprintf("required columns not found: %v", names),
		}
	}

	result := &models.ImportResult{
		TotalRows: len(sheet.Rows),
		Filename:  filename,
	}

	// Snapshot of the repository's live payment keys, so an upload of rows
	// that already exist is caught before commit. In-batch duplicates count
	// against the same set.
	seen, err := i.existingKeys(ctx)
	if err != nil {
		return nil, err
	}

	for idx, raw := range sheet.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Row numbers are reported as the user sees them in the sheet:
		// 1-based with the header on row 1.
		rowNumber := idx + 2
		parsed := NormalizeRow(raw, mapping, rowNumber)
		validated := ValidateRow(parsed)

		switch {
		case validated.Empty:
			result.SkippedEmpty++
			continue
		case !validated.Valid:
			result.InvalidRows++
			for _, fe := range validated.Errors {
				result.Errors = append(result.Errors, models.ImportError{
					RowNumber: rowNumber,
					Field:     fe.Field,
					Code:      fe.Code,
					Message:   fe.Message,
					RawData:   parsed.RawData(),
				})
			}
			continue
		}

		record := models.NewTransferRecord(*validated.Fields, filename)
		key := record.DuplicateKey()
		if seen[key] {
			result.InvalidRows++
			result.Errors = append(result.Errors, models.ImportError{
				RowNumber: rowNumber,
				Field:     "all",
				Code:      models.ErrCodeDuplicateTransfer,
				Message:   "a transfer with the same bank, branch, account and amount already exists",
				RawData:   parsed.RawData(),
			})
			continue
		}
		seen[key] = true

		result.ValidRows++
		result.Transfers = append(result.Transfers, record)
	}

	result.Success = result.InvalidRows == 0
	if result.InvalidRows > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d rows failed validation", result.InvalidRows))
	}

	log.Info("import finished",
		logging.F(logging.FieldTotalRows, result.TotalRows),
		logging.F(logging.FieldValidRows, result.ValidRows),
		logging.F(logging.FieldInvalid, result.InvalidRows))
	return result, nil
}

// Commit persists the candidate transfers from an import result. Each
// transfer succeeds or fails on its own; the outcome slice is parallel to
// the input. When a recipient directory is configured, transfers to inactive
// recipients are rejected without being persisted.
func (i *Importer) Commit(ctx context.Context, transfers []models.TransferRecord) ([]models.BulkOutcome, error) {
	if len(transfers) == 0 {
		return nil, nil
	}

	outcomes := make([]models.BulkOutcome, len(transfers))
	var toPersist []models.TransferRecord
	var persistIndex []int

	for idx, t := range transfers {
		if i.directory != nil && t.IDNumber != "" {
			active, err := i.directory.IsActive(ctx, t.IDNumber)
			if err != nil {
				return nil, fmt.Errorf("recipient directory lookup failed: %w", err)
			}
			if !active {
				outcomes[idx] = models.BulkOutcome{
					Index: idx,
					Failure: &models.BulkFailure{
						Code:    models.ErrCodeInactiveRecipient,
						Message: fmt.Sprintf("recipient %s is inactive", t.IDNumber),
					},
				}
				continue
			}
		}
		toPersist = append(toPersist, t)
		persistIndex = append(persistIndex, idx)
	}

	created, err := i.repo.BulkCreate(ctx, toPersist)
	if err != nil {
		return nil, err
	}
	for j, outcome := range created {
		outcome.Index = persistIndex[j]
		outcomes[persistIndex[j]] = outcome
	}

	committed := 0
	for _, o := range outcomes {
		if o.Failure == nil {
			committed++
		}
	}
	i.logger.Info("transfers committed", logging.F(logging.FieldCount, committed))
	return outcomes, nil
}

// existingKeys returns the payment keys of every non-exported record in the
// repository. Exported records are history and do not block re-import.
func (i *Importer) existingKeys(ctx context.Context) (map[string]bool, error) {
	existing, err := i.repo.List(ctx, models.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("unable to load existing transfers: %w", err)
	}
	keys := make(map[string]bool, len(existing))
	for _, t := range existing {
		if t.Status != models.StatusExported {
			keys[t.DuplicateKey()] = true
		}
	}
	return keys, nil
}

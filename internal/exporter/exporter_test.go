package exporter

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hesed/masav-batch/internal/logging"
	"hesed/masav-batch/internal/masavfile"
	"hesed/masav-batch/internal/models"
	"hesed/masav-batch/internal/pipelineerror"
	"hesed/masav-batch/internal/repository"
)

var paymentDate = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

func testSettings() masavfile.Settings {
	return masavfile.Settings{
		InstitutionID:   "12345678",
		InstitutionName: "מוסד חסד",
		SequenceNumber:  1,
		Encoding:        masavfile.CodeA,
		FileExtension:   "txt",
	}
}

func seedTransfers(t *testing.T, repo repository.Repository) []models.TransferRecord {
	t.Helper()
	ctx := context.Background()

	records := []models.TransferRecord{
		models.NewTransferRecord(models.TransferFields{
			RecipientName: "ישראל ישראלי",
			IDNumber:      "123456789",
			Amount:        decimal.RequireFromString("1500.50"),
			BankCode:      "12",
			BranchCode:    "345",
			AccountNumber: "678901",
		}, "upload.xlsx"),
		models.NewTransferRecord(models.TransferFields{
			RecipientName: "רות כהן",
			Amount:        decimal.RequireFromString("250.00"),
			BankCode:      "4",
			BranchCode:    "001",
			AccountNumber: "22334455",
		}, "upload.xlsx"),
	}
	for _, r := range records {
		_, err := repo.Create(ctx, r)
		require.NoError(t, err)
	}
	return records
}

func TestExport(t *testing.T) {
	repo := repository.NewMemoryRepository()
	records := seedTransfers(t, repo)
	exp := NewExporter(repo, testSettings(), &logging.MockLogger{})
	ctx := context.Background()

	ids := []string{records[0].ID, records[1].ID}
	result, err := exp.Export(ctx, ids, paymentDate)
	require.NoError(t, err)

	assert.Equal(t, "MASAV_260901_001.txt", result.File.Name)
	assert.Equal(t, 2, result.File.Count)
	assert.Equal(t, "1750.50", result.File.TotalAmount.StringFixed(2))

	// The encoded file parses back to the exported payments.
	decoded, err := masavfile.Decode(result.File.Content)
	require.NoError(t, err)
	require.Len(t, decoded.Payments, 2)
	assert.True(t, decoded.TotalAmount.Equal(result.File.TotalAmount))

	// Both records are now exported with a timestamp.
	require.Len(t, result.Transfers, 2)
	for _, id := range ids {
		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusExported, got.Status)
		assert.NotNil(t, got.ExportedAt)
	}
}

func TestExportIneligibleTransfer(t *testing.T) {
	repo := repository.NewMemoryRepository()
	records := seedTransfers(t, repo)
	exp := NewExporter(repo, testSettings(), &logging.MockLogger{})
	ctx := context.Background()

	_, err := repo.TransitionStatus(ctx, []string{records[0].ID}, models.StatusExported)
	require.NoError(t, err)

	_, err = exp.Export(ctx, []string{records[0].ID, records[1].ID}, paymentDate)

	var eligibility *pipelineerror.EligibilityError
	require.ErrorAs(t, err, &eligibility)
	assert.Equal(t, records[0].ID, eligibility.TransferID)
	assert.Equal(t, models.StatusExported, eligibility.Status)

	// The eligible record stayed untouched.
	got, err := repo.GetByID(ctx, records[1].ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestExportUnknownID(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedTransfers(t, repo)
	exp := NewExporter(repo, testSettings(), &logging.MockLogger{})

	_, err := exp.Export(context.Background(), []string{"missing"}, paymentDate)

	var eligibility *pipelineerror.EligibilityError
	require.ErrorAs(t, err, &eligibility)
	assert.Empty(t, eligibility.Status)
}

func TestExportEmpty(t *testing.T) {
	exp := NewExporter(repository.NewMemoryRepository(), testSettings(), &logging.MockLogger{})
	_, err := exp.Export(context.Background(), nil, paymentDate)
	assert.Error(t, err)
}

func TestExportableIDs(t *testing.T) {
	repo := repository.NewMemoryRepository()
	records := seedTransfers(t, repo)
	exp := NewExporter(repo, testSettings(), &logging.MockLogger{})
	ctx := context.Background()

	// Nothing selected: every pending transfer is exportable.
	ids, err := exp.ExportableIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	// With a selection, only the selected transfers are exported.
	_, err = repo.TransitionStatus(ctx, []string{records[0].ID}, models.StatusSelected)
	require.NoError(t, err)
	ids, err = exp.ExportableIDs(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, records[0].ID, ids[0])
}

func TestExportTwiceFails(t *testing.T) {
	repo := repository.NewMemoryRepository()
	records := seedTransfers(t, repo)
	exp := NewExporter(repo, testSettings(), &logging.MockLogger{})
	ctx := context.Background()

	ids := []string{records[0].ID, records[1].ID}
	_, err := exp.Export(ctx, ids, paymentDate)
	require.NoError(t, err)

	_, err = exp.Export(ctx, ids, paymentDate)
	assert.Error(t, err, "exported transfers cannot be exported again")
}

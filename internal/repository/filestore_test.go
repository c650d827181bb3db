package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hesed/masav-batch/internal/models"
)

func TestFileRepositoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transfers.yaml")
	ctx := context.Background()

	repo, err := NewFileRepository(path)
	require.NoError(t, err)

	a := newRecord("ישראל ישראלי", "12", "345", "678901", "100.00")
	b := newRecord("רות כהן", "4", "001", "22334455", "250.50")
	_, err = repo.Create(ctx, a)
	require.NoError(t, err)
	_, err = repo.Create(ctx, b)
	require.NoError(t, err)
	_, err = repo.TransitionStatus(ctx, []string{b.ID}, models.StatusExported)
	require.NoError(t, err)
	repo.Close()

	reloaded, err := NewFileRepository(path)
	require.NoError(t, err)

	transfers, err := reloaded.List(ctx, models.ListFilter{})
	require.NoError(t, err)
	require.Len(t, transfers, 2)

	got, err := reloaded.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "רות כהן", got.RecipientName)
	assert.Equal(t, models.StatusExported, got.Status)
	assert.Equal(t, "250.50", got.Amount.StringFixed(2))
	require.NotNil(t, got.ExportedAt)
}

func TestFileRepositoryMissingFile(t *testing.T) {
	repo, err := NewFileRepository(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	transfers, err := repo.List(context.Background(), models.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, transfers)
}

func TestFileRepositoryCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transfers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not valid yaml"), 0o600))

	_, err := NewFileRepository(path)
	assert.Error(t, err)
}

func TestFileRepositoryPersistsDeletes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transfers.yaml")
	ctx := context.Background()

	repo, err := NewFileRepository(path)
	require.NoError(t, err)

	record := newRecord("ישראל", "12", "345", "678901", "100.00")
	_, err = repo.Create(ctx, record)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, record.ID))

	reloaded, err := NewFileRepository(path)
	require.NoError(t, err)
	transfers, err := reloaded.List(ctx, models.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, transfers)
}

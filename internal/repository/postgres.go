package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"hesed/masav-batch/internal/models"
	"hesed/masav-batch/internal/pipelineerror"
)

// uniqueViolation is the PostgreSQL error code raised by the partial unique
// index on non-exported payment keys.
const uniqueViolation = "23505"

// Schema documents the table the repository expects. The partial unique
// index is the authoritative guard against two concurrent imports inserting
// the same payment instruction.
const Schema = `
CREATE TABLE IF NOT EXISTS transfers (
    id                 UUID PRIMARY KEY,
    recipient_name     TEXT NOT NULL,
    id_number          TEXT NOT NULL DEFAULT '',
    bank_code          TEXT NOT NULL,
    branch_code        TEXT NOT NULL,
    account_number     TEXT NOT NULL,
    amount             NUMERIC(12,2) NOT NULL CHECK (amount > 0),
    status             TEXT NOT NULL DEFAULT 'pending',
    imported_from_file TEXT NOT NULL DEFAULT '',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
    exported_at        TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS transfers_payment_key
    ON transfers (bank_code, branch_code, account_number, amount)
    WHERE status <> 'exported';
`

const transferColumns = `id, recipient_name, id_number, bank_code, branch_code,
	account_number, amount, status, imported_from_file, created_at, exported_at`

// PostgresRepository is a Repository backed by a pgx connection pool.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository connects to the database, verifies the connection
// and ensures the schema exists.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, Schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ensure schema: %w", err)
	}

	return &PostgresRepository{db: pool}, nil
}

func (r *PostgresRepository) Close() {
	r.db.Close()
}

func (r *PostgresRepository) List(ctx context.Context, filter models.ListFilter) ([]models.TransferRecord, error) {
	query := "SELECT " + transferColumns + " FROM transfers"
	var conds []string
	var args []interface{}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != nil {
		add("status = $%d", string(*filter.Status))
	}
	if filter.DateFrom != nil {
		add("created_at >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("created_at <= $%d", *filter.DateTo)
	}
	if filter.AmountMin != nil {
		add("amount >= $%d", filter.AmountMin.String())
	}
	if filter.AmountMax != nil {
		add("amount <= $%d", filter.AmountMax.String())
	}
	if filter.Search != "" {
		add("recipient_name ILIKE $%d", "%"+filter.Search+"%")
	}
	if filter.ImportedFromFile != "" {
		add("imported_from_file = $%d", filter.ImportedFromFile)
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing transfers: %w", err)
	}
	defer rows.Close()

	var out []models.TransferRecord
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.TransferRecord, error) {
	row := r.db.QueryRow(ctx, "SELECT "+transferColumns+" FROM transfers WHERE id = $1", id)
	t, err := scanTransfer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &pipelineerror.NotFoundError{ID: id}
	}
	return t, err
}

func (r *PostgresRepository) Create(ctx context.Context, record models.TransferRecord) (*models.TransferRecord, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO transfers (id, recipient_name, id_number, bank_code, branch_code,
			account_number, amount, status, imported_from_file, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		record.ID, record.RecipientName, record.IDNumber, record.BankCode,
		record.BranchCode, record.AccountNumber, record.Amount.StringFixed(2),
		string(record.Status), record.ImportedFromFile, record.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, &pipelineerror.ConflictError{Key: record.DuplicateKey()}
		}
		return nil, fmt.Errorf("error creating transfer: %w", err)
	}
	created := record
	return &created, nil
}

func (r *PostgresRepository) BulkCreate(ctx context.Context, records []models.TransferRecord) ([]models.BulkOutcome, error) {
	// Best-effort semantics: each row is its own statement so one conflict
	// never rolls back the rows that succeeded.
	outcomes := make([]models.BulkOutcome, len(records))
	for i, record := range records {
		created, err := r.Create(ctx, record)
		if err != nil {
			var conflict *pipelineerror.ConflictError
			if errors.As(err, &conflict) {
				outcomes[i] = models.BulkOutcome{
					Index: i,
					Failure: &models.BulkFailure{
						Code:    models.ErrCodePersistenceConflict,
						Message: err.Error(),
					},
				}
				continue
			}
			return nil, err
		}
		outcomes[i] = models.BulkOutcome{Index: i, Record: created}
	}
	return outcomes, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch TransferPatch) (*models.TransferRecord, error) {
	var sets []string
	var args []interface{}

	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.RecipientName != nil {
		set("recipient_name", *patch.RecipientName)
	}
	if patch.IDNumber != nil {
		set("id_number", *patch.IDNumber)
	}
	if patch.BankCode != nil {
		set("bank_code", *patch.BankCode)
	}
	if patch.BranchCode != nil {
		set("branch_code", *patch.BranchCode)
	}
	if patch.AccountNumber != nil {
		set("account_number", *patch.AccountNumber)
	}
	if patch.Amount != nil {
		set("amount", patch.Amount.StringFixed(2))
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE transfers SET %s WHERE id = $%d AND status <> 'exported' RETURNING "+transferColumns,
		strings.Join(sets, ", "), len(args))

	row := r.db.QueryRow(ctx, query, args...)
	t, err := scanTransfer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing record from an immutable one.
		if existing, getErr := r.GetByID(ctx, id); getErr == nil && existing.Status.IsTerminal() {
			return nil, &pipelineerror.ImmutableError{ID: id}
		}
		return nil, &pipelineerror.NotFoundError{ID: id}
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, &pipelineerror.ConflictError{Key: id}
		}
		return nil, fmt.Errorf("error updating transfer: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM transfers WHERE id = $1 AND status <> 'exported'", id)
	if err != nil {
		return fmt.Errorf("error deleting transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if existing, getErr := r.GetByID(ctx, id); getErr == nil && existing.Status.IsTerminal() {
			return &pipelineerror.ImmutableError{ID: id}
		}
		return &pipelineerror.NotFoundError{ID: id}
	}
	return nil
}

func (r *PostgresRepository) TransitionStatus(ctx context.Context, ids []string, newStatus models.TransferStatus) ([]models.TransferRecord, error) {
	eligible := eligibleCurrent(newStatus)
	current := make([]string, len(eligible))
	for i, s := range eligible {
		current[i] = string(s)
	}

	// One conditional UPDATE makes the transition atomic: two concurrent
	// exports of overlapping id sets cannot both claim the same record.
	rows, err := r.db.Query(ctx, `
		UPDATE transfers
		SET status = $1,
		    exported_at = CASE WHEN $1 = 'exported' THEN now() ELSE exported_at END
		WHERE id = ANY($2) AND status = ANY($3)
		RETURNING `+transferColumns,
		string(newStatus), ids, current)
	if err != nil {
		return nil, fmt.Errorf("error transitioning transfers: %w", err)
	}
	defer rows.Close()

	var moved []models.TransferRecord
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		moved = append(moved, *t)
	}
	return moved, rows.Err()
}

// scanTransfer reads one transfer from a row, converting the NUMERIC amount
// through its text form to keep decimal precision.
func scanTransfer(row pgx.Row) (*models.TransferRecord, error) {
	var t models.TransferRecord
	var amount string
	var status string
	var exportedAt *time.Time

	err := row.Scan(&t.ID, &t.RecipientName, &t.IDNumber, &t.BankCode, &t.BranchCode,
		&t.AccountNumber, &amount, &status, &t.ImportedFromFile, &t.CreatedAt, &exportedAt)
	if err != nil {
		return nil, err
	}

	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in database: %w", err)
	}
	t.Status = models.TransferStatus(status)
	t.ExportedAt = exportedAt
	return &t, nil
}

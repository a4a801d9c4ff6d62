package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository uses, kept small so tests
// can drop in a mock pool.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Repository defines persistence for extracted transactions.
type Repository interface {
	InsertBatch(ctx context.Context, txs []*Transaction) error
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*Transaction, error)
	ListUnverified(ctx context.Context, businessID uuid.UUID) ([]*Transaction, error)
	ListRecent(ctx context.Context, businessID uuid.UUID, since time.Time) ([]*Transaction, error)
	ListActiveBusinesses(ctx context.Context, since time.Time) ([]uuid.UUID, error)
	UpdateReview(ctx context.Context, txs []*Transaction) error
}

// PostgresRepository implements Repository on a pgx pool.
type PostgresRepository struct {
	pool DB
}

// NewPostgresRepository creates a transaction repository.
func NewPostgresRepository(pool DB) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const insertTransactionSQL = `
	INSERT INTO parsed_transactions (
		id, document_id, business_id, transaction_date, description,
		reference_number, transaction_type, amount, running_balance,
		category, sub_category, confidence, is_verified, party_name,
		is_tax_deductible, is_possible_duplicate, duplicate_group_id,
		source_row_number, raw_text, created_at, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,now(),now())`

// InsertBatch persists a batch of extracted transactions in one round trip.
func (r *PostgresRepository) InsertBatch(ctx context.Context, txs []*Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, tx := range txs {
		batch.Queue(insertTransactionSQL,
			tx.ID, tx.DocumentID, tx.BusinessID, tx.Date, tx.Description,
			nullable(tx.ReferenceNumber), string(tx.Type), tx.Amount, tx.RunningBalance,
			nullable(tx.Category), nullable(tx.SubCategory), tx.Confidence, tx.Verified,
			nullable(tx.PartyName), tx.TaxDeductible, tx.PossibleDuplicate,
			tx.DuplicateGroupID, tx.SourceRow, tx.RawText,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range txs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert transaction batch: %w", err)
		}
	}
	return nil
}

const selectTransactionSQL = `
	SELECT id, document_id, business_id, transaction_date, description,
	       COALESCE(reference_number, ''), transaction_type, amount, running_balance,
	       COALESCE(category, ''), COALESCE(sub_category, ''), COALESCE(confidence, 0),
	       is_verified, COALESCE(party_name, ''), is_tax_deductible,
	       is_possible_duplicate, duplicate_group_id, source_row_number, raw_text,
	       created_at, updated_at
	FROM parsed_transactions`

// ListByDocument returns all transactions extracted from one document.
func (r *PostgresRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*Transaction, error) {
	rows, err := r.pool.Query(ctx,
		selectTransactionSQL+` WHERE document_id = $1 ORDER BY source_row_number`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions by document: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// ListUnverified returns the business's not-yet-verified transactions, the
// input set of the bookkeeping rule engine.
func (r *PostgresRepository) ListUnverified(ctx context.Context, businessID uuid.UUID) ([]*Transaction, error) {
	rows, err := r.pool.Query(ctx,
		selectTransactionSQL+` WHERE business_id = $1 AND is_verified = FALSE ORDER BY created_at`, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unverified transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// ListRecent returns the business's transactions dated on or after since,
// the input window of the duplicate detector.
func (r *PostgresRepository) ListRecent(ctx context.Context, businessID uuid.UUID, since time.Time) ([]*Transaction, error) {
	rows, err := r.pool.Query(ctx,
		selectTransactionSQL+` WHERE business_id = $1 AND transaction_date >= $2 ORDER BY transaction_date`,
		businessID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// ListActiveBusinesses returns the distinct businesses with transactions
// created since the given time, the scope of one scheduled sweep.
func (r *PostgresRepository) ListActiveBusinesses(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT business_id FROM parsed_transactions WHERE created_at >= $1`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query active businesses: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan business id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate business ids: %w", err)
	}
	return ids, nil
}

// UpdateReview writes back the fields the rule engine and duplicate detector
// mutate: categorization, verification and duplicate flags.
func (r *PostgresRepository) UpdateReview(ctx context.Context, txs []*Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, tx := range txs {
		batch.Queue(`
			UPDATE parsed_transactions
			SET category = $2, sub_category = $3, confidence = $4, is_verified = $5,
			    is_possible_duplicate = $6, duplicate_group_id = $7, updated_at = now()
			WHERE id = $1`,
			tx.ID, nullable(tx.Category), nullable(tx.SubCategory), tx.Confidence,
			tx.Verified, tx.PossibleDuplicate, tx.DuplicateGroupID,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range txs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to update transaction batch: %w", err)
		}
	}
	return nil
}

func scanTransactions(rows pgx.Rows) ([]*Transaction, error) {
	var txs []*Transaction
	for rows.Next() {
		var tx Transaction
		var txType string
		if err := rows.Scan(
			&tx.ID, &tx.DocumentID, &tx.BusinessID, &tx.Date, &tx.Description,
			&tx.ReferenceNumber, &txType, &tx.Amount, &tx.RunningBalance,
			&tx.Category, &tx.SubCategory, &tx.Confidence, &tx.Verified,
			&tx.PartyName, &tx.TaxDeductible, &tx.PossibleDuplicate,
			&tx.DuplicateGroupID, &tx.SourceRow, &tx.RawText,
			&tx.CreatedAt, &tx.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Type = Type(txType)
		txs = append(txs, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txs, nil
}

// nullable maps empty strings to NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the document id does not exist.
var ErrNotFound = errors.New("document not found")

// Repository defines persistence for financial documents.
type Repository interface {
	Create(ctx context.Context, doc *Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]*Document, error)
	ExistsByChecksum(ctx context.Context, checksum string) (bool, error)
	UpdateParseStatus(ctx context.Context, id uuid.UUID, status ParseStatus, parseError string, rowCount, transactionCount int) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PostgresRepository implements Repository on a pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a document repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, doc *Document) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO financial_documents (
			id, business_id, file_name, original_file_name, file_kind,
			document_category, size_bytes, storage_path, parse_status,
			fiscal_year, description, checksum, uploaded_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now())`,
		doc.ID, doc.BusinessID, doc.FileName, doc.OriginalFileName, string(doc.FileKind),
		string(doc.Category), doc.SizeBytes, doc.StoragePath, string(doc.ParseStatus),
		doc.FiscalYear, doc.Description, doc.Checksum,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

const selectDocumentSQL = `
	SELECT id, business_id, file_name, original_file_name, file_kind,
	       document_category, size_bytes, storage_path, parse_status,
	       COALESCE(parse_error, ''), COALESCE(row_count, 0),
	       COALESCE(transaction_count, 0), COALESCE(fiscal_year, ''),
	       COALESCE(description, ''), COALESCE(checksum, ''),
	       uploaded_at, parsed_at
	FROM financial_documents`

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	row := r.pool.QueryRow(ctx, selectDocumentSQL+` WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return doc, err
}

func (r *PostgresRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]*Document, error) {
	rows, err := r.pool.Query(ctx,
		selectDocumentSQL+` WHERE business_id = $1 ORDER BY uploaded_at DESC`, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

func (r *PostgresRepository) ExistsByChecksum(ctx context.Context, checksum string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM financial_documents WHERE checksum = $1)`, checksum).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check document checksum: %w", err)
	}
	return exists, nil
}

// UpdateParseStatus records a lifecycle transition. Terminal states also set
// the parsed_at timestamp.
func (r *PostgresRepository) UpdateParseStatus(ctx context.Context, id uuid.UUID, status ParseStatus, parseError string, rowCount, transactionCount int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE financial_documents
		SET parse_status = $2,
		    parse_error = NULLIF($3, ''),
		    row_count = $4,
		    transaction_count = $5,
		    parsed_at = CASE WHEN $2 IN ('completed', 'partial', 'failed') THEN now() ELSE parsed_at END
		WHERE id = $1`,
		id, string(status), parseError, rowCount, transactionCount,
	)
	if err != nil {
		return fmt.Errorf("failed to update parse status: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM financial_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func scanDocument(row pgx.Row) (*Document, error) {
	var doc Document
	var kind, category, status string
	if err := row.Scan(
		&doc.ID, &doc.BusinessID, &doc.FileName, &doc.OriginalFileName, &kind,
		&category, &doc.SizeBytes, &doc.StoragePath, &status,
		&doc.ParseError, &doc.RowCount, &doc.TransactionCount, &doc.FiscalYear,
		&doc.Description, &doc.Checksum, &doc.UploadedAt, &doc.ParsedAt,
	); err != nil {
		return nil, err
	}
	doc.FileKind = FileKind(kind)
	doc.Category = Category(category)
	doc.ParseStatus = ParseStatus(status)
	return &doc, nil
}

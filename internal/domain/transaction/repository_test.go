package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

var transactionColumns = []string{
	"id", "document_id", "business_id", "transaction_date", "description",
	"reference_number", "transaction_type", "amount", "running_balance",
	"category", "sub_category", "confidence", "is_verified", "party_name",
	"is_tax_deductible", "is_possible_duplicate", "duplicate_group_id",
	"source_row_number", "raw_text", "created_at", "updated_at",
}

func TestPostgresRepository_ListByDocument(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	documentID := uuid.New()
	txID := uuid.New()
	businessID := uuid.New()
	date := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	balance := decimal.RequireFromString("45000")
	now := time.Now()

	mock.ExpectQuery(`FROM parsed_transactions WHERE document_id`).
		WithArgs(documentID).
		WillReturnRows(pgxmock.NewRows(transactionColumns).AddRow(
			txID, documentID, businessID, &date, "Rent Payment",
			"NEFT-UTIB0004", "DEBIT", decimal.RequireFromString("5000"), &balance,
			"Rent", "Office Rent", 0.6, false, "Acme Estates",
			true, false, (*uuid.UUID)(nil),
			2, "01/01/2025 Rent Payment 5000 45000", now, now,
		))

	txs, err := repo.ListByDocument(context.Background(), documentID)
	require.NoError(t, err)
	require.Len(t, txs, 1)

	tx := txs[0]
	assert.Equal(t, txID, tx.ID)
	assert.Equal(t, TypeDebit, tx.Type)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("5000")))
	require.NotNil(t, tx.RunningBalance)
	assert.True(t, tx.RunningBalance.Equal(balance))
	assert.Equal(t, "Acme Estates", tx.PartyName)
	assert.True(t, tx.TaxDeductible)
	assert.Nil(t, tx.DuplicateGroupID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListActiveBusinesses(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	first := uuid.New()
	second := uuid.New()
	since := time.Now().AddDate(0, 0, -60)

	mock.ExpectQuery(`SELECT DISTINCT business_id FROM parsed_transactions`).
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"business_id"}).
			AddRow(first).
			AddRow(second))

	ids, err := repo.ListActiveBusinesses(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first, second}, ids)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_InsertBatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	date := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []*Transaction{
		{
			ID:          uuid.New(),
			DocumentID:  uuid.New(),
			BusinessID:  uuid.New(),
			Date:        &date,
			Description: "Rent Payment",
			Type:        TypeDebit,
			Amount:      decimal.RequireFromString("5000"),
			SourceRow:   2,
		},
		{
			ID:          uuid.New(),
			DocumentID:  uuid.New(),
			BusinessID:  uuid.New(),
			Date:        &date,
			Description: "Customer Receipt",
			Type:        TypeCredit,
			Amount:      decimal.RequireFromString("12000"),
			SourceRow:   3,
		},
	}

	batch := mock.ExpectBatch()
	batch.ExpectExec(`INSERT INTO parsed_transactions`).
		WithArgs(anyArgs(19)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	batch.ExpectExec(`INSERT INTO parsed_transactions`).
		WithArgs(anyArgs(19)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.InsertBatch(context.Background(), txs))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_InsertBatch_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	require.NoError(t, repo.InsertBatch(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UpdateReview(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	tx := &Transaction{
		ID:         uuid.New(),
		Category:   "Travel",
		Confidence: 1.0,
		Verified:   true,
	}

	batch := mock.ExpectBatch()
	batch.ExpectExec(`UPDATE parsed_transactions`).
		WithArgs(anyArgs(7)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdateReview(context.Background(), []*Transaction{tx}))
	require.NoError(t, mock.ExpectationsWereMet())
}

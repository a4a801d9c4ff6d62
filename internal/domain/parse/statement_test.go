package parse

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthwise/docparse/internal/domain/document"
	"github.com/wealthwise/docparse/internal/domain/transaction"
)

func testDocument() *document.Document {
	return &document.Document{
		ID:         uuid.New(),
		BusinessID: uuid.New(),
		FileKind:   document.KindPDF,
		Category:   document.CategoryBankStatement,
	}
}

func TestStatementParser_SingleLineTransactions(t *testing.T) {
	doc := testDocument()
	lines := []string{
		"Statement of Account No 884422",
		"Date Description Debit Credit Balance",
		"01/01/2025 UPI/swiggy@axis TO Swiggy 450.00 12,550.00",
		"02/01/2025 CUSTOMER DEPOSIT 0.00 12,000.00 24,550.00",
		"Closing Balance 24,550.00",
	}

	result := NewStatementParser().ParseLines(doc, lines)

	require.Len(t, result.Transactions, 2)
	assert.Equal(t, 2, result.RowCount)
	assert.Equal(t, 0, result.DroppedRows)

	first := result.Transactions[0]
	require.NotNil(t, first.Date)
	assert.Equal(t, "2025-01-01", first.Date.Format("2006-01-02"))
	assert.Equal(t, transaction.TypeDebit, first.Type)
	assert.True(t, first.Amount.Equal(decimal.RequireFromString("450")))
	require.NotNil(t, first.RunningBalance)
	assert.True(t, first.RunningBalance.Equal(decimal.RequireFromString("12550")))
	assert.Equal(t, "UPI-swiggy@axis", first.ReferenceNumber)
	assert.Equal(t, "Swiggy", first.PartyName)
	assert.Equal(t, doc.ID, first.DocumentID)
	assert.Equal(t, doc.BusinessID, first.BusinessID)
	assert.Equal(t, 3, first.SourceRow)

	second := result.Transactions[1]
	assert.Equal(t, transaction.TypeCredit, second.Type)
	assert.True(t, second.Amount.Equal(decimal.RequireFromString("12000")))
}

func TestStatementParser_MultiLineContinuation(t *testing.T) {
	doc := testDocument()
	lines := []string{
		"02/01/2025 NEFT/UTIB0004 payment towards invoice",
		"Acme Industries Limited settlement",
		"2,500.00 CR 15,050.00",
	}

	result := NewStatementParser().ParseLines(doc, lines)

	require.Len(t, result.Transactions, 1)
	tx := result.Transactions[0]
	assert.Equal(t, transaction.TypeCredit, tx.Type)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("2500")))
	assert.Contains(t, tx.Description, "Acme Industries")
	assert.Equal(t, "NEFT-UTIB0004", tx.ReferenceNumber)
	require.NotNil(t, tx.Date)
	assert.Equal(t, "2025-01-02", tx.Date.Format("2006-01-02"))
}

func TestStatementParser_DropsAmountlessTransaction(t *testing.T) {
	doc := testDocument()
	lines := []string{
		"03/01/2025 narration without figures attached",
		"04/01/2025 CASH WITHDRAWAL 5,000.00 0.00 45,000.00",
	}

	result := NewStatementParser().ParseLines(doc, lines)

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, 1, result.DroppedRows)
	assert.Equal(t, transaction.TypeDebit, result.Transactions[0].Type)
	assert.True(t, result.Transactions[0].Amount.Equal(decimal.RequireFromString("5000")))
}

func TestStatementParser_DropsZeroAmountTransaction(t *testing.T) {
	doc := testDocument()
	lines := []string{
		"03/01/2025 REVERSED CHARGE 0.00 45,000.00",
		"04/01/2025 CASH WITHDRAWAL 5,000.00 0.00 45,000.00",
	}

	result := NewStatementParser().ParseLines(doc, lines)

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, 1, result.DroppedRows)
	assert.True(t, result.Transactions[0].Amount.Equal(decimal.RequireFromString("5000")))
}

func TestFinancialStatementParser_AnchorsOnFirstDate(t *testing.T) {
	doc := testDocument()
	lines := []string{
		"Profit and Loss for the period ended 31/03/2025",
		"Revenue from operations 1,250,000.00 2,400,000.00",
		"Employee benefit expenses 450,000.00 1,950,000.00",
		// Single figure resolves no amount.
		"Sundry debtors 75,000.00",
		// Numeric-only line, skipped.
		"98,765.00 12,345.00",
	}

	parser := NewFinancialStatementParser()
	result := parser.ParseLines(doc, lines)

	require.Len(t, result.Transactions, 2)
	for _, tx := range result.Transactions {
		require.NotNil(t, tx.Date)
		assert.Equal(t, "2025-03-31", tx.Date.Format("2006-01-02"))
		assert.Equal(t, transaction.TypeDebit, tx.Type)
		assert.False(t, tx.Amount.IsZero())
	}
	assert.True(t, result.Transactions[0].Amount.Equal(decimal.RequireFromString("1250000")))
}

func TestFinancialStatementParser_ExcludesBalanceColumn(t *testing.T) {
	doc := testDocument()
	result := NewFinancialStatementParser().ParseLines(doc, []string{
		"Schedule for the year ended 31/03/2025",
		"Fixed deposit interest accrued 1,00,000.00 2,00,000.00",
	})

	require.Len(t, result.Transactions, 1)
	assert.True(t, result.Transactions[0].Amount.Equal(decimal.RequireFromString("100000")),
		"amount = %s", result.Transactions[0].Amount)
}

func TestFinancialStatementParser_DefaultsToToday(t *testing.T) {
	doc := testDocument()
	fixed := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	parser := &FinancialStatementParser{now: func() time.Time { return fixed }}

	result := parser.ParseLines(doc, []string{
		"Sundry creditors outstanding 75,500.00 1,25,500.00",
	})

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "2025-06-15", result.Transactions[0].Date.Format("2006-01-02"))
}

package categorize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wealthwise/docparse/internal/domain/transaction"
)

func TestApplyCascade(t *testing.T) {
	tests := []struct {
		name        string
		description string
		txType      transaction.Type
		category    string
		subCategory string
		deductible  bool
	}{
		{"salary", "SALARY CREDIT MAR 2025", transaction.TypeCredit, "Salary", "Employee Wages", true},
		{"electricity", "BESCOM POWER BILL", transaction.TypeDebit, "Utilities", "Electricity", true},
		{"water", "BWSSB MONTHLY CHARGES", transaction.TypeDebit, "Utilities", "Water", true},
		{"rent", "OFFICE LEASE JAN", transaction.TypeDebit, "Rent", "Office Rent", true},
		{"tax", "TDS REMITTANCE Q4", transaction.TypeDebit, "Taxes", "GST/Tax Payment", false},
		{"bank charges", "SMS ALERT FEE", transaction.TypeDebit, "Bank Charges", "Service Fees", true},
		{"interest earned", "SB INTEREST", transaction.TypeCredit, "Interest", "Interest Earned", false},
		{"interest paid", "LOAN INTEREST", transaction.TypeDebit, "Interest", "Interest Paid", false},
		{"vendor", "SUPPLIER SETTLEMENT", transaction.TypeDebit, "Purchases", "Vendor Payment", true},
		{"sales", "INVOICE 2231 RECEIVED", transaction.TypeCredit, "Sales", "Customer Receipt", false},
		{"default credit", "MISC INWARD", transaction.TypeCredit, "Income", "Other Income", false},
		{"default debit", "MISC OUTWARD", transaction.TypeDebit, "Expenses", "Other Expenses", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &transaction.Transaction{Description: tt.description, Type: tt.txType}
			applyCascade(tx)

			assert.Equal(t, tt.category, tx.Category)
			assert.Equal(t, tt.subCategory, tx.SubCategory)
			assert.Equal(t, tt.deductible, tx.TaxDeductible)
			assert.Equal(t, cascadeConfidence, tx.Confidence)
		})
	}
}

func TestApplyCascade_EarlierRuleWins(t *testing.T) {
	// Matches both salary and rent keywords; salary sits earlier.
	tx := &transaction.Transaction{Description: "SALARY PLUS RENT ADJUSTMENT", Type: transaction.TypeDebit}
	applyCascade(tx)
	assert.Equal(t, "Salary", tx.Category)
}

func TestApplyCascade_IgnoresPartyName(t *testing.T) {
	tx := &transaction.Transaction{
		Description: "MONTHLY PAYMENT 4412",
		PartyName:   "Vendor Services Ltd",
		Type:        transaction.TypeDebit,
	}
	applyCascade(tx)

	assert.Equal(t, "Expenses", tx.Category)
	assert.Equal(t, "Other Expenses", tx.SubCategory)
}

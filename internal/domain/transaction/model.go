// Package transaction holds the normalized ledger line extracted from
// uploaded financial documents.
package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type classifies a ledger line. Sign information is always carried here,
// never by the numeric amount.
type Type string

const (
	TypeCredit   Type = "CREDIT"   // money coming in
	TypeDebit    Type = "DEBIT"    // money going out
	TypeTransfer Type = "TRANSFER" // internal transfer
	TypeReversal Type = "REVERSAL" // reversal of a previous transaction
	TypeInterest Type = "INTEREST" // interest earned/paid
	TypeCharges  Type = "CHARGES"  // bank charges
	TypeTax      Type = "TAX"      // tax deducted
)

// Transaction is one ledger line extracted from a document. Amount is a
// non-negative magnitude; rows where neither a debit nor a credit can be
// resolved are dropped by the parsers, never persisted with a zero amount.
type Transaction struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	BusinessID uuid.UUID

	Date            *time.Time
	Description     string
	ReferenceNumber string
	Type            Type
	Amount          decimal.Decimal
	RunningBalance  *decimal.Decimal

	Category    string
	SubCategory string
	Confidence  float64
	Verified    bool

	PartyName     string
	TaxDeductible bool

	PossibleDuplicate bool
	DuplicateGroupID  *uuid.UUID

	SourceRow int
	RawText   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SearchText is the text rule keywords are matched against.
func (t *Transaction) SearchText() string {
	return t.Description + " " + t.PartyName
}

package parse

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wealthwise/docparse/internal/domain/document"
	"github.com/wealthwise/docparse/internal/domain/transaction"
)

// openTx is the in-progress transaction state of the line fold. A date line
// opens one; continuation lines extend its description and may supply the
// amount it is still missing; the next date line (or end of input) closes it.
type openTx struct {
	tx          *transaction.Transaction
	description strings.Builder
	hasAmount   bool
}

// attachAmounts adopts a line's resolved amounts unless the transaction
// already has some. Zero magnitudes never attach; a transaction that ends
// with no amount is dropped at finalize.
func (o *openTx) attachAmounts(amounts lineAmounts) {
	if o.hasAmount || !amounts.resolved() {
		return
	}
	amount, txType := amounts.amount()
	if amount.IsZero() {
		return
	}
	o.tx.Amount = amount
	o.tx.Type = txType
	o.tx.RunningBalance = amounts.balance
	o.hasAmount = true
}

func (o *openTx) appendDescription(text string) {
	if text == "" {
		return
	}
	if o.description.Len() > 0 {
		o.description.WriteString(" ")
	}
	o.description.WriteString(text)
}

// finalize closes the open transaction. Transactions that never resolved an
// amount are dropped, not emitted with a zero amount.
func (o *openTx) finalize() (*transaction.Transaction, bool) {
	if !o.hasAmount {
		return nil, false
	}
	desc := strings.TrimSpace(o.description.String())
	if len(desc) > maxDescriptionLen {
		desc = desc[:maxDescriptionLen]
	}
	o.tx.Description = desc
	return o.tx, true
}

// StatementParser reconstructs transactions from unstructured statement
// lines, reassembling entries that the text extraction flattened across
// multiple lines.
type StatementParser struct{}

// NewStatementParser creates a line-based statement parser.
func NewStatementParser() *StatementParser {
	return &StatementParser{}
}

// ParseLines folds over the lines with an explicit open-transaction state.
func (p *StatementParser) ParseLines(doc *document.Document, lines []string) *Result {
	result := &Result{}
	var open *openTx

	emit := func() {
		if open == nil {
			return
		}
		if tx, ok := open.finalize(); ok {
			result.Transactions = append(result.Transactions, tx)
		} else {
			result.DroppedRows++
		}
		open = nil
	}

	for i, line := range lines {
		rowNumber := i + 1
		if strings.TrimSpace(line) == "" || isNoiseLine(line) {
			continue
		}
		result.RowCount++

		date := extractDate(line)
		amounts := extractAmounts(line)

		if date != nil {
			// New transaction started
			emit()

			open = &openTx{
				tx: &transaction.Transaction{
					ID:              uuid.New(),
					DocumentID:      doc.ID,
					BusinessID:      doc.BusinessID,
					Date:            date,
					ReferenceNumber: extractReference(line),
					PartyName:       extractParty(line),
					SourceRow:       rowNumber,
					RawText:         truncateRaw(line),
				},
			}
			open.appendDescription(cleanDescription(line))

			open.attachAmounts(amounts)
		} else if open != nil {
			// Continuation of the previous transaction
			open.appendDescription(cleanDescription(line))
			open.attachAmounts(amounts)
		}
	}
	emit()

	return result
}

// FinancialStatementParser is the fallback for documents that look like a
// balance sheet or P&L rather than a transaction ledger: every amount-bearing
// line becomes one entry anchored at a single document date.
type FinancialStatementParser struct {
	// now is injected for tests; defaults to time.Now.
	now func() time.Time
}

// NewFinancialStatementParser creates the fallback parser.
func NewFinancialStatementParser() *FinancialStatementParser {
	return &FinancialStatementParser{now: time.Now}
}

// ParseLines emits one entry per line that resolves a debit or credit under
// the usual role assignment. The anchor date is the first date found anywhere
// in the document, else today.
func (p *FinancialStatementParser) ParseLines(doc *document.Document, lines []string) *Result {
	result := &Result{}

	var anchor *time.Time
	for _, line := range lines {
		if found := extractDate(line); found != nil {
			anchor = found
			break
		}
	}
	if anchor == nil {
		today := p.now().UTC().Truncate(24 * time.Hour)
		anchor = &today
	}

	for i, line := range lines {
		rowNumber := i + 1
		if strings.TrimSpace(line) == "" || isNoiseLine(line) {
			continue
		}
		result.RowCount++

		// Lines get the same role assignment as ledger rows, so a trailing
		// balance column never becomes the amount and single-figure lines
		// resolve nothing.
		amounts := extractAmounts(line)
		if !amounts.resolved() || len(strings.TrimSpace(line)) <= 5 {
			continue
		}

		description := cleanDescription(line)
		if alphaCount(description) < 3 {
			// Numeric-only line, not a statement entry.
			continue
		}

		amount, txType := amounts.amount()
		if amount.IsZero() {
			continue
		}
		result.Transactions = append(result.Transactions, &transaction.Transaction{
			ID:          uuid.New(),
			DocumentID:  doc.ID,
			BusinessID:  doc.BusinessID,
			Date:        anchor,
			Description: description,
			Type:        txType,
			Amount:      amount,
			SourceRow:   rowNumber,
			RawText:     truncateRaw(line),
		})
	}

	return result
}

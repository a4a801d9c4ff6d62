package parse

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wealthwise/docparse/internal/domain/document"
	"github.com/wealthwise/docparse/internal/domain/transaction"
)

// headerScanLimit bounds how many leading rows are inspected for a header.
const headerScanLimit = 10

var nonNumericPattern = regexp.MustCompile(`[^\d.-]`)

// columnMap assigns spreadsheet columns to transaction field roles.
type columnMap struct {
	date        int
	description int
	debit       int
	credit      int
	balance     int
}

func newColumnMap() columnMap {
	return columnMap{date: -1, description: -1, debit: -1, credit: -1, balance: -1}
}

// TabularParser extracts transactions from a typed cell grid (spreadsheet or
// CSV): it locates the header row, maps column roles by header keywords and
// extracts one transaction per data row.
type TabularParser struct{}

// NewTabularParser creates a tabular parser.
func NewTabularParser() *TabularParser {
	return &TabularParser{}
}

// ParseGrid extracts transactions from the grid. Rows with no resolvable
// date, or with neither a debit nor a credit amount, are dropped.
func (p *TabularParser) ParseGrid(doc *document.Document, grid [][]Cell) *Result {
	result := &Result{}
	if len(grid) == 0 {
		return result
	}

	headerRow := detectHeaderRow(grid)
	columns := mapColumns(grid[headerRow])

	for i := headerRow + 1; i < len(grid); i++ {
		row := grid[i]
		rowNumber := i + 1
		if isEmptyRow(row) {
			continue
		}
		result.RowCount++

		tx := p.parseRow(doc, row, rowNumber, columns)
		if tx == nil {
			result.DroppedRows++
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}

	return result
}

func (p *TabularParser) parseRow(doc *document.Document, row []Cell, rowNumber int, columns columnMap) *transaction.Transaction {
	dateCell, ok := cellAt(row, columns.date)
	if !ok {
		return nil
	}
	date := dateCell.DateValue()
	if date == nil {
		return nil
	}

	debit := resolveAmountCell(row, columns.debit)
	credit := resolveAmountCell(row, columns.credit)
	if debit == nil && credit == nil {
		return nil
	}

	txType := transaction.TypeDebit
	amount := debit
	if credit != nil && credit.IsPositive() {
		txType = transaction.TypeCredit
		amount = credit
	}
	if amount == nil {
		return nil
	}

	var description string
	if cell, ok := cellAt(row, columns.description); ok {
		description = cell.Text
	}

	return &transaction.Transaction{
		ID:             uuid.New(),
		DocumentID:     doc.ID,
		BusinessID:     doc.BusinessID,
		Date:           date,
		Description:    description,
		Type:           txType,
		Amount:         *amount,
		RunningBalance: resolveAmountCell(row, columns.balance),
		SourceRow:      rowNumber,
		RawText:        truncateRaw(rowText(row)),
	}
}

// detectHeaderRow scans the first rows for one that carries a recognizable
// column header; defaults to the first row.
func detectHeaderRow(grid [][]Cell) int {
	limit := headerScanLimit
	if len(grid) < limit {
		limit = len(grid)
	}
	for i := 0; i < limit; i++ {
		for _, cell := range grid[i] {
			value := strings.ToLower(cell.Text)
			if strings.Contains(value, "date") || strings.Contains(value, "description") ||
				strings.Contains(value, "debit") || strings.Contains(value, "credit") {
				return i
			}
		}
	}
	return 0
}

// mapColumns assigns each header column to at most one role, first match
// wins in both directions.
func mapColumns(header []Cell) columnMap {
	columns := newColumnMap()
	for i, cell := range header {
		value := strings.ToLower(cell.Text)
		switch {
		case strings.Contains(value, "date") && columns.date < 0:
			columns.date = i
		case (strings.Contains(value, "description") || strings.Contains(value, "narration") ||
			strings.Contains(value, "particulars")) && columns.description < 0:
			columns.description = i
		case (strings.Contains(value, "debit") || strings.Contains(value, "withdrawal") ||
			strings.Contains(value, "dr")) && columns.debit < 0:
			columns.debit = i
		case (strings.Contains(value, "credit") || strings.Contains(value, "deposit") ||
			strings.Contains(value, "cr")) && columns.credit < 0:
			columns.credit = i
		case strings.Contains(value, "balance") && columns.balance < 0:
			columns.balance = i
		}
	}
	return columns
}

// resolveAmountCell resolves a cell to a positive magnitude. Numeric cells
// are used directly; strings are stripped of currency noise first. A zero
// means "absent" in statement exports and resolves to nil.
func resolveAmountCell(row []Cell, col int) *decimal.Decimal {
	cell, ok := cellAt(row, col)
	if !ok {
		return nil
	}

	if cell.IsNumber {
		if cell.Number == 0 {
			return nil
		}
		d := decimal.NewFromFloat(cell.Number).Abs()
		return &d
	}

	cleaned := nonNumericPattern.ReplaceAllString(cell.Text, "")
	if cleaned == "" {
		return nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil || d.IsZero() {
		return nil
	}
	d = d.Abs()
	return &d
}

func cellAt(row []Cell, col int) (Cell, bool) {
	if col < 0 || col >= len(row) {
		return Cell{}, false
	}
	return row[col], true
}

func isEmptyRow(row []Cell) bool {
	for _, cell := range row {
		if cell.Text != "" {
			return false
		}
	}
	return true
}

func rowText(row []Cell) string {
	parts := make([]string, 0, len(row))
	for _, cell := range row {
		parts = append(parts, cell.Text)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

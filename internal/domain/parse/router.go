package parse

import (
	"errors"
	"fmt"

	"github.com/wealthwise/docparse/internal/domain/document"
)

// ErrUnsupportedFormat indicates a file kind no parser can handle.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Router dispatches a document's bytes to the parser for its file kind.
// PDF text goes through the statement parser first and falls back to the
// financial statement parser only when no transactions were reconstructed.
type Router struct {
	statement *StatementParser
	financial *FinancialStatementParser
	tabular   *TabularParser
}

// NewRouter creates a router over the three concrete parsers.
func NewRouter() *Router {
	return &Router{
		statement: NewStatementParser(),
		financial: NewFinancialStatementParser(),
		tabular:   NewTabularParser(),
	}
}

// Parse extracts transactions from the document's raw bytes.
func (r *Router) Parse(doc *document.Document, data []byte) (*Result, error) {
	switch doc.FileKind {
	case document.KindPDF:
		return r.parsePDF(doc, data)
	case document.KindCSV:
		grid, err := readCSVGrid(data)
		if err != nil {
			return nil, err
		}
		return r.tabular.ParseGrid(doc, grid), nil
	case document.KindXLSX:
		grid, err := readXLSXGrid(data)
		if err != nil {
			return nil, err
		}
		return r.tabular.ParseGrid(doc, grid), nil
	case document.KindXLS:
		grid, err := readXLSGrid(data)
		if err != nil {
			return nil, err
		}
		return r.tabular.ParseGrid(doc, grid), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, doc.FileKind)
	}
}

func (r *Router) parsePDF(doc *document.Document, data []byte) (*Result, error) {
	lines, err := readPDFLines(data)
	if err != nil {
		return nil, err
	}

	result := r.statement.ParseLines(doc, lines)
	if len(result.Transactions) > 0 {
		return result, nil
	}
	// No ledger rows reconstructed; treat the document as a financial
	// statement instead.
	return r.financial.ParseLines(doc, lines), nil
}

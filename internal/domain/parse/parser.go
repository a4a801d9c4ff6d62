// Package parse implements the document parsing and transaction extraction
// pipeline: format routing, line-based statement reconstruction, tabular
// header mapping and the parse orchestration service.
package parse

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wealthwise/docparse/internal/domain/document"
	"github.com/wealthwise/docparse/internal/domain/transaction"
)

const (
	maxDescriptionLen = 500
	maxRawTextLen     = 1000
)

// Result is the outcome of parsing one document. DroppedRows counts candidate
// rows discarded for an unresolvable date or amount; a run that extracts
// transactions but drops rows finishes with status PARTIAL.
type Result struct {
	Transactions []*transaction.Transaction
	RowCount     int
	DroppedRows  int
}

// dateFormats is tried in order; first match wins. The padded forms come
// first so that two-digit day/month statements are not misread by the
// single-digit layouts.
var dateFormats = []string{
	"02/01/2006",
	"02-01-2006",
	"2006-01-02",
	"01/02/2006",
	"02 Jan 2006",
	"02-Jan-2006",
	"2/1/2006",
	"2-1-2006",
}

// Common bank statement patterns.
var (
	amountPattern = regexp.MustCompile(`(?i)(?:Rs\.?|₹)?\s*(-?[\d,]+(?:\.\d+)?)\b`)

	datePattern = regexp.MustCompile(`(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{1,2}[\s-][A-Za-z]{3}[\s-]\d{2,4})`)

	upiPattern  = regexp.MustCompile(`(?i)UPI[/-]([A-Za-z0-9@._-]+)`)
	neftPattern = regexp.MustCompile(`(?i)NEFT[/-]([A-Za-z0-9]+)`)
	impsPattern = regexp.MustCompile(`(?i)IMPS[/-]([A-Za-z0-9]+)`)

	partyPattern = regexp.MustCompile(`(?i)(?:TO|FROM|BY|VIA)\s+([A-Z][A-Za-z\s]+?)(?:\s+[A-Z]{4,}|\d|$)`)

	nonAlphaPattern = regexp.MustCompile(`[^a-zA-Z]`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// parseDate parses a date string against the fixed format list. Returns nil
// for anything unparseable; callers drop the row rather than guess.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// extractDate finds the first date-shaped token on a line and parses it.
func extractDate(line string) *time.Time {
	m := datePattern.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	return parseDate(m[1])
}

// lineAmounts is the role assignment of the numeric tokens on one line.
type lineAmounts struct {
	debit   *decimal.Decimal
	credit  *decimal.Decimal
	balance *decimal.Decimal
}

func (a lineAmounts) resolved() bool {
	return a.debit != nil || a.credit != nil
}

// amount returns the resolved magnitude and its type. Credit wins when both
// are somehow present, matching the statement column order.
func (a lineAmounts) amount() (decimal.Decimal, transaction.Type) {
	if a.credit != nil {
		return a.credit.Abs(), transaction.TypeCredit
	}
	return a.debit.Abs(), transaction.TypeDebit
}

// extractAmountTokens pulls the numeric tokens off a line in order. Date
// tokens are stripped first so day/month/year fragments do not masquerade as
// amounts.
func extractAmountTokens(line string) []decimal.Decimal {
	line = datePattern.ReplaceAllString(line, "")
	var amounts []decimal.Decimal
	for _, m := range amountPattern.FindAllStringSubmatch(line, -1) {
		raw := strings.ReplaceAll(m[1], ",", "")
		d, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		amounts = append(amounts, d)
	}
	return amounts
}

// extractAmounts assigns debit/credit/balance roles to a line's numeric
// tokens. Bank statement rows normally read [... withdrawal deposit balance],
// so with three or more tokens the last is the running balance and marker
// words decide the rest.
func extractAmounts(line string) lineAmounts {
	amounts := extractAmountTokens(line)

	var out lineAmounts
	lower := strings.ToLower(line)

	switch {
	case len(amounts) >= 3:
		last := amounts[len(amounts)-1]
		secondToLast := amounts[len(amounts)-2]
		thirdToLast := amounts[len(amounts)-3]
		out.balance = &last

		switch {
		case containsAny(lower, "cr", "deposit", "credit"):
			out.credit = pickNonZero(secondToLast, thirdToLast)
		case containsAny(lower, "dr", "withdrawal", "debit"):
			out.debit = pickNonZero(secondToLast, thirdToLast)
		case !secondToLast.IsZero():
			out.credit = &secondToLast
		case !thirdToLast.IsZero():
			out.debit = &thirdToLast
		default:
			out.debit = &secondToLast
		}
	case len(amounts) == 2:
		out.balance = &amounts[1]
		if containsAny(lower, "cr", "deposit", "credit") {
			out.credit = &amounts[0]
		} else {
			out.debit = &amounts[0]
		}
	}

	return out
}

func pickNonZero(first, second decimal.Decimal) *decimal.Decimal {
	if !first.IsZero() {
		return &first
	}
	return &second
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// isNoiseLine recognizes header/footer lines that never carry transactions.
func isNoiseLine(line string) bool {
	lower := strings.ToLower(line)
	return (strings.Contains(lower, "date") && strings.Contains(lower, "description")) ||
		strings.Contains(lower, "opening balance") ||
		strings.Contains(lower, "closing balance") ||
		strings.Contains(lower, "page") ||
		(strings.Contains(lower, "statement") && strings.Contains(lower, "account")) ||
		len(strings.TrimSpace(line)) < 10
}

// extractReference pulls a UPI/NEFT/IMPS reference token and re-attaches its
// channel prefix, e.g. "UPI-merchant@okaxis".
func extractReference(line string) string {
	if m := upiPattern.FindStringSubmatch(line); m != nil {
		return "UPI-" + m[1]
	}
	if m := neftPattern.FindStringSubmatch(line); m != nil {
		return "NEFT-" + m[1]
	}
	if m := impsPattern.FindStringSubmatch(line); m != nil {
		return "IMPS-" + m[1]
	}
	return ""
}

// extractParty pulls a counterparty name following TO/FROM/BY/VIA.
func extractParty(line string) string {
	if m := partyPattern.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// cleanDescription strips date and amount tokens, collapses whitespace and
// caps the length.
func cleanDescription(line string) string {
	cleaned := datePattern.ReplaceAllString(line, "")
	cleaned = amountPattern.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(spacePattern.ReplaceAllString(cleaned, " "))
	if len(cleaned) > maxDescriptionLen {
		cleaned = cleaned[:maxDescriptionLen]
	}
	return cleaned
}

// truncateRaw caps the audit copy of a source line.
func truncateRaw(line string) string {
	if len(line) > maxRawTextLen {
		return line[:maxRawTextLen]
	}
	return line
}

// alphaCount counts alphabetic characters, used to skip numeric-only lines.
func alphaCount(s string) int {
	return len(nonAlphaPattern.ReplaceAllString(s, ""))
}

// Parser extracts transactions from one document's raw bytes.
type Parser interface {
	Parse(doc *document.Document, data []byte) (*Result, error)
}

// Package bookkeeping applies user-defined categorization rules and flags
// possible duplicate transactions.
package bookkeeping

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wealthwise/docparse/internal/domain/transaction"
)

// Rule is one user-defined categorization rule. A transaction matching the
// keyword pattern, amount range and type filter gets the target category with
// full confidence and is marked verified.
type Rule struct {
	ID         uuid.UUID
	BusinessID uuid.UUID

	Name        string
	Description string

	// KeywordPattern is a comma-separated keyword list matched
	// case-insensitively against the transaction's search text.
	KeywordPattern  string
	AmountMin       *decimal.Decimal
	AmountMax       *decimal.Decimal
	TransactionType transaction.Type // empty matches any type

	TargetCategory    string
	TargetSubCategory string

	// Priority breaks ties between rules matching the same transaction;
	// higher wins.
	Priority int
	Active   bool

	LastAppliedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Keywords splits the keyword pattern into lowercased match terms.
func (r *Rule) Keywords() []string {
	parts := strings.Split(r.KeywordPattern, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if kw := strings.ToLower(strings.TrimSpace(part)); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

// Matches reports whether the rule's amount and type filters accept the
// transaction. Keyword matching happens separately in the rule engine.
func (r *Rule) Matches(tx *transaction.Transaction) bool {
	if r.TransactionType != "" && r.TransactionType != tx.Type {
		return false
	}
	if r.AmountMin != nil && tx.Amount.LessThan(*r.AmountMin) {
		return false
	}
	if r.AmountMax != nil && tx.Amount.GreaterThan(*r.AmountMax) {
		return false
	}
	return true
}

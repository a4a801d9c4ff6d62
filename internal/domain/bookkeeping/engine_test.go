package bookkeeping

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthwise/docparse/internal/domain/transaction"
)

func newRule(keywords string, priority int) *Rule {
	return &Rule{
		ID:             uuid.New(),
		Name:           keywords,
		KeywordPattern: keywords,
		TargetCategory: "Category " + keywords,
		Priority:       priority,
		Active:         true,
	}
}

func TestRuleKeywords(t *testing.T) {
	rule := &Rule{KeywordPattern: "Uber, OLA ,, rapido"}
	assert.Equal(t, []string{"uber", "ola", "rapido"}, rule.Keywords())

	assert.Empty(t, (&Rule{KeywordPattern: " , "}).Keywords())
}

func TestRuleEngine_BestMatch(t *testing.T) {
	travel := newRule("uber,ola", 5)
	generic := newRule("payment", 1)
	engine := newRuleEngine([]*Rule{generic, travel})

	tx := &transaction.Transaction{
		Description: "UBER TRIP PAYMENT",
		Type:        transaction.TypeDebit,
		Amount:      decimal.RequireFromString("320"),
	}

	got := engine.bestMatch(tx)
	require.NotNil(t, got)
	assert.Equal(t, travel.ID, got.ID, "higher priority rule should win")
}

func TestRuleEngine_NoMatch(t *testing.T) {
	engine := newRuleEngine([]*Rule{newRule("uber", 1)})
	tx := &transaction.Transaction{Description: "GROCERY STORE", Type: transaction.TypeDebit}
	assert.Nil(t, engine.bestMatch(tx))
}

func TestRuleEngine_EmptyRuleSet(t *testing.T) {
	engine := newRuleEngine(nil)
	tx := &transaction.Transaction{Description: "anything"}
	assert.Nil(t, engine.bestMatch(tx))
}

func TestRuleEngine_AmountRangeFilter(t *testing.T) {
	low := decimal.RequireFromString("100")
	high := decimal.RequireFromString("500")
	rule := newRule("uber", 1)
	rule.AmountMin = &low
	rule.AmountMax = &high
	engine := newRuleEngine([]*Rule{rule})

	inRange := &transaction.Transaction{Description: "UBER TRIP", Amount: decimal.RequireFromString("320")}
	tooBig := &transaction.Transaction{Description: "UBER TRIP", Amount: decimal.RequireFromString("900")}

	assert.NotNil(t, engine.bestMatch(inRange))
	assert.Nil(t, engine.bestMatch(tooBig))
}

func TestRuleEngine_TypeFilter(t *testing.T) {
	rule := newRule("refund", 1)
	rule.TransactionType = transaction.TypeCredit
	engine := newRuleEngine([]*Rule{rule})

	credit := &transaction.Transaction{Description: "REFUND RECEIVED", Type: transaction.TypeCredit}
	debit := &transaction.Transaction{Description: "REFUND REVERSED", Type: transaction.TypeDebit}

	assert.NotNil(t, engine.bestMatch(credit))
	assert.Nil(t, engine.bestMatch(debit))
}

func TestRuleEngine_KeywordlessMatchesOnFilters(t *testing.T) {
	min := decimal.RequireFromString("100")
	max := decimal.RequireFromString("500")
	rule := &Rule{
		ID:             uuid.New(),
		Name:           "mid-size debits",
		TargetCategory: "Miscellaneous",
		AmountMin:      &min,
		AmountMax:      &max,
		Active:         true,
	}
	engine := newRuleEngine([]*Rule{rule})

	inRange := &transaction.Transaction{Description: "ANY NARRATION", Amount: decimal.RequireFromString("320")}
	tooBig := &transaction.Transaction{Description: "ANY NARRATION", Amount: decimal.RequireFromString("900")}

	got := engine.bestMatch(inRange)
	require.NotNil(t, got, "rule without keywords must match on filters alone")
	assert.Equal(t, rule.ID, got.ID)
	assert.Nil(t, engine.bestMatch(tooBig))
}

func TestRuleEngine_MatchesPartyName(t *testing.T) {
	engine := newRuleEngine([]*Rule{newRule("acme", 1)})
	tx := &transaction.Transaction{Description: "NEFT OUTWARD", PartyName: "Acme Traders"}
	assert.NotNil(t, engine.bestMatch(tx))
}

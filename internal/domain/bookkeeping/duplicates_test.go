package bookkeeping

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthwise/docparse/internal/domain/transaction"
)

func entry(description, amount string, date time.Time) *transaction.Transaction {
	return &transaction.Transaction{
		ID:          uuid.New(),
		Description: description,
		Amount:      decimal.RequireFromString(amount),
		Type:        transaction.TypeDebit,
		Date:        &date,
	}
}

func TestFindDuplicateGroups_PairOneDayApart(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	a := entry("Rent Payment", "5000", day)
	b := entry("rent payment", "5000", day.AddDate(0, 0, 1))

	changed := findDuplicateGroups([]*transaction.Transaction{a, b})

	require.Len(t, changed, 2)
	assert.True(t, a.PossibleDuplicate)
	assert.True(t, b.PossibleDuplicate)
	require.NotNil(t, a.DuplicateGroupID)
	require.NotNil(t, b.DuplicateGroupID)
	assert.Equal(t, *a.DuplicateGroupID, *b.DuplicateGroupID)
}

func TestFindDuplicateGroups_TwoDaysApartNotFlagged(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	a := entry("Rent Payment", "5000", day)
	b := entry("Rent Payment", "5000", day.AddDate(0, 0, 2))

	changed := findDuplicateGroups([]*transaction.Transaction{a, b})

	assert.Empty(t, changed)
	assert.False(t, a.PossibleDuplicate)
	assert.False(t, b.PossibleDuplicate)
}

func TestFindDuplicateGroups_DifferentAmountsNotFlagged(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	a := entry("Rent Payment", "5000", day)
	b := entry("Rent Payment", "5001", day)

	assert.Empty(t, findDuplicateGroups([]*transaction.Transaction{a, b}))
}

func TestFindDuplicateGroups_ChainSharesOneGroup(t *testing.T) {
	// a~b and b~c are each one day apart; a and c are two days apart but
	// still land in the same group through b.
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	a := entry("Vendor Advance", "1200", day)
	b := entry("Vendor Advance", "1200", day.AddDate(0, 0, 1))
	c := entry("Vendor Advance", "1200", day.AddDate(0, 0, 2))

	changed := findDuplicateGroups([]*transaction.Transaction{a, b, c})

	require.Len(t, changed, 3)
	require.NotNil(t, a.DuplicateGroupID)
	assert.Equal(t, *a.DuplicateGroupID, *b.DuplicateGroupID)
	assert.Equal(t, *a.DuplicateGroupID, *c.DuplicateGroupID)
}

func TestFindDuplicateGroups_Idempotent(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	a := entry("Rent Payment", "5000", day)
	b := entry("Rent Payment", "5000", day)

	first := findDuplicateGroups([]*transaction.Transaction{a, b})
	require.Len(t, first, 2)
	groupID := *a.DuplicateGroupID

	second := findDuplicateGroups([]*transaction.Transaction{a, b})
	assert.Empty(t, second, "rerun must not report changes")
	assert.Equal(t, groupID, *a.DuplicateGroupID, "group id must be stable across runs")
}

func TestFindDuplicateGroups_UndatedIgnored(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	a := entry("Rent Payment", "5000", day)
	b := &transaction.Transaction{
		ID:          uuid.New(),
		Description: "Rent Payment",
		Amount:      decimal.RequireFromString("5000"),
	}

	assert.Empty(t, findDuplicateGroups([]*transaction.Transaction{a, b}))
}

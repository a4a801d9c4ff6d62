package bookkeeping

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wealthwise/docparse/internal/domain/transaction"
)

const (
	// duplicateWindowDays bounds how far back the detector looks.
	duplicateWindowDays = 60
	// duplicateMaxDayGap is the largest date difference two transactions can
	// have and still count as the same payment posted twice.
	duplicateMaxDayGap = 1
)

// unionFind groups transaction indices into duplicate components, so three
// or more mutually similar transactions end up in one group instead of
// overlapping pairs.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}

// findDuplicateGroups flags transactions that look like the same payment
// recorded twice: equal amount, dates at most one day apart and the same
// normalized description. Returns the transactions whose duplicate flags
// changed.
func findDuplicateGroups(txs []*transaction.Transaction) []*transaction.Transaction {
	uf := newUnionFind(len(txs))

	// Only equal amounts can be duplicates, so bucket by amount first.
	byAmount := make(map[string][]int)
	for i, tx := range txs {
		if tx.Date == nil {
			continue
		}
		key := tx.Amount.String()
		byAmount[key] = append(byAmount[key], i)
	}

	for _, indices := range byAmount {
		for a := 0; a < len(indices); a++ {
			for b := a + 1; b < len(indices); b++ {
				i, j := indices[a], indices[b]
				if similarEntries(txs[i], txs[j]) {
					uf.union(i, j)
				}
			}
		}
	}

	components := make(map[int][]int)
	for i := range txs {
		root := uf.find(i)
		components[root] = append(components[root], i)
	}

	var changed []*transaction.Transaction
	for _, members := range components {
		if len(members) < 2 {
			continue
		}
		groupID := groupIDFor(txs, members)
		for _, i := range members {
			tx := txs[i]
			if tx.PossibleDuplicate && tx.DuplicateGroupID != nil && *tx.DuplicateGroupID == groupID {
				continue
			}
			tx.PossibleDuplicate = true
			id := groupID
			tx.DuplicateGroupID = &id
			changed = append(changed, tx)
		}
	}
	return changed
}

// groupIDFor reuses a group id already assigned to any member so reruns stay
// idempotent; fresh components get a new one.
func groupIDFor(txs []*transaction.Transaction, members []int) uuid.UUID {
	for _, i := range members {
		if txs[i].DuplicateGroupID != nil {
			return *txs[i].DuplicateGroupID
		}
	}
	return uuid.New()
}

func similarEntries(a, b *transaction.Transaction) bool {
	if a.Date == nil || b.Date == nil {
		return false
	}
	gap := a.Date.Sub(*b.Date)
	if gap < 0 {
		gap = -gap
	}
	if gap > duplicateMaxDayGap*24*time.Hour {
		return false
	}
	return normalizeDescription(a.Description) == normalizeDescription(b.Description)
}

func normalizeDescription(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

package bookkeeping

import (
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/wealthwise/docparse/internal/domain/transaction"
)

// ruleEngine matches transactions against a rule set. All keywords of all
// rules go into one Aho-Corasick automaton so a batch scan stays linear in
// the text regardless of how many rules a business accumulates.
type ruleEngine struct {
	matcher *ahocorasick.Matcher
	// owners maps automaton term index back to the owning rule.
	owners []*Rule
	// keywordless rules match on their amount and type filters alone and are
	// checked against every transaction.
	keywordless []*Rule
}

func newRuleEngine(rules []*Rule) *ruleEngine {
	var terms []string
	var owners []*Rule
	var keywordless []*Rule
	for _, rule := range rules {
		keywords := rule.Keywords()
		if len(keywords) == 0 {
			keywordless = append(keywordless, rule)
			continue
		}
		for _, keyword := range keywords {
			terms = append(terms, keyword)
			owners = append(owners, rule)
		}
	}
	return &ruleEngine{
		matcher:     ahocorasick.NewStringMatcher(terms),
		owners:      owners,
		keywordless: keywordless,
	}
}

// bestMatch returns the highest-priority rule whose keywords and filters
// accept the transaction, or nil.
func (e *ruleEngine) bestMatch(tx *transaction.Transaction) *Rule {
	var best *Rule
	consider := func(rule *Rule) {
		if !rule.Matches(tx) {
			return
		}
		if best == nil || rule.Priority > best.Priority {
			best = rule
		}
	}

	if len(e.owners) > 0 {
		for _, hit := range e.matcher.Match([]byte(strings.ToLower(tx.SearchText()))) {
			consider(e.owners[hit])
		}
	}
	for _, rule := range e.keywordless {
		consider(rule)
	}
	return best
}

package categorize

import (
	"strings"

	"github.com/wealthwise/docparse/internal/domain/transaction"
)

// cascadeConfidence is the fixed score for rule-derived categories, below the
// remote classifier's typical scores so reviews sort them first.
const cascadeConfidence = 0.6

// cascadeRule is one step of the keyword cascade. Earlier rules win.
type cascadeRule struct {
	keywords      []string
	category      string
	subCategory   string
	taxDeductible bool
}

// The two tables bracket the interest rule, which needs the transaction type
// to pick its sub-category and so cannot live in a static table.
var (
	cascadeRulesBeforeInterest = []cascadeRule{
		{[]string{"salary", "payroll", "wages"}, "Salary", "Employee Wages", true},
		{[]string{"electricity", "power", "bescom", "msedcl"}, "Utilities", "Electricity", true},
		{[]string{"water", "bwssb"}, "Utilities", "Water", true},
		{[]string{"rent", "lease"}, "Rent", "Office Rent", true},
		{[]string{"gst", "tax", "tds"}, "Taxes", "GST/Tax Payment", false},
		{[]string{"bank charge", "transaction fee", "sms alert"}, "Bank Charges", "Service Fees", true},
	}
	cascadeRulesAfterInterest = []cascadeRule{
		{[]string{"vendor", "supplier", "purchase"}, "Purchases", "Vendor Payment", true},
		{[]string{"customer", "sale", "invoice"}, "Sales", "Customer Receipt", false},
	}
)

// applyCascade assigns a category from the fixed keyword cascade. It always
// produces a result; transactions matching no rule fall into the generic
// income or expense bucket. Only the description is consulted; party names
// feed the bookkeeping rule engine, not this cascade.
func applyCascade(tx *transaction.Transaction) {
	text := strings.ToLower(tx.Description)

	tx.Confidence = cascadeConfidence

	if matchRules(tx, text, cascadeRulesBeforeInterest) {
		return
	}

	if strings.Contains(text, "interest") || strings.Contains(text, "int.") {
		tx.Category = "Interest"
		if tx.Type == transaction.TypeCredit {
			tx.SubCategory = "Interest Earned"
		} else {
			tx.SubCategory = "Interest Paid"
		}
		tx.TaxDeductible = false
		return
	}

	if matchRules(tx, text, cascadeRulesAfterInterest) {
		return
	}

	if tx.Type == transaction.TypeCredit {
		tx.Category = "Income"
		tx.SubCategory = "Other Income"
		tx.TaxDeductible = false
	} else {
		tx.Category = "Expenses"
		tx.SubCategory = "Other Expenses"
		tx.TaxDeductible = true
	}
}

func matchRules(tx *transaction.Transaction, text string, rules []cascadeRule) bool {
	for _, rule := range rules {
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				tx.Category = rule.category
				tx.SubCategory = rule.subCategory
				tx.TaxDeductible = rule.taxDeductible
				return true
			}
		}
	}
	return false
}

// Package analysis classifies consolidated transactions, aggregates them
// into business metrics, scores business health against per-type benchmarks
// and generates actionable recommendations.
package analysis

import (
	"strings"

	"pesalens/internal/core"
)

// KeywordRule maps a category to the description keywords that select it.
// Rules are evaluated in order; the first match wins. Matching is a
// case-insensitive substring test against the full description, not
// tokenized word matching.
type KeywordRule struct {
	Category core.Category
	Keywords []string
}

// DefaultExpenseRules is the outflow classification cascade. The order is
// part of the contract: Utilities before Stock before Data before Rent.
func DefaultExpenseRules() []KeywordRule {
	return []KeywordRule{
		{Category: core.CategoryUtilities, Keywords: []string{"kplc", "token"}},
		{Category: core.CategoryStock, Keywords: []string{"pakir", "wholesalers", "stock"}},
		{Category: core.CategoryData, Keywords: []string{"data", "safaricom", "airtime"}},
		{Category: core.CategoryRent, Keywords: []string{"rent", "loop biz"}},
	}
}

// Classifier assigns categories to transactions. Personal keywords identify
// the account holder's own transfers; the literal "personal" is always
// included.
type Classifier struct {
	personal []string
	rules    []KeywordRule
}

// NewClassifier builds a classifier with the default expense rules and the
// given owner keywords (e.g. the account holder's name).
func NewClassifier(ownerKeywords ...string) *Classifier {
	personal := []string{"personal"}
	for _, kw := range ownerKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			personal = append(personal, kw)
		}
	}
	return &Classifier{personal: personal, rules: DefaultExpenseRules()}
}

// WithRules replaces the expense rule table. Rule order is preserved.
func (c *Classifier) WithRules(rules []KeywordRule) *Classifier {
	c.rules = rules
	return c
}

// Classify assigns a category. Priority: Personal (either direction), then
// Revenue for inflows, then the expense keyword cascade for outflows,
// falling back to OtherExpense. Transactions with no direction are Unknown.
func (c *Classifier) Classify(description string, paidIn, withdrawn core.Money) core.Category {
	desc := strings.ToLower(description)

	for _, kw := range c.personal {
		if strings.Contains(desc, kw) {
			return core.CategoryPersonal
		}
	}

	if paidIn.Cents > 0 {
		return core.CategoryRevenue
	}

	if withdrawn.Cents > 0 {
		for _, rule := range c.rules {
			for _, kw := range rule.Keywords {
				if strings.Contains(desc, strings.ToLower(kw)) {
					return rule.Category
				}
			}
		}
		return core.CategoryOtherExpense
	}

	return core.CategoryUnknown
}

// Counterparty extracts the customer or vendor name from a description:
// the text after the last " to ", else after the last " from ", else after
// the first hyphen, else the first 30 characters.
func Counterparty(description string) string {
	if i := strings.LastIndex(description, " to "); i >= 0 {
		return strings.TrimSpace(description[i+len(" to "):])
	}
	if i := strings.LastIndex(description, " from "); i >= 0 {
		return strings.TrimSpace(description[i+len(" from "):])
	}
	if i := strings.IndexByte(description, '-'); i >= 0 {
		return strings.TrimSpace(description[i+1:])
	}
	return strings.TrimSpace(runePrefix(description, 30))
}

// runePrefix truncates s to at most n runes without splitting a multi-byte
// character.
func runePrefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	seen := 0
	for i := range s {
		if seen == n {
			return s[:i]
		}
		seen++
	}
	return s
}

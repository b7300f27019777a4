// Package categorize maps transaction descriptions onto spending category
// names via ordered keyword matching.
package categorize

import "strings"

// Rule associates a category name with the substrings that select it.
// Keywords are matched against the lowercased description.
type Rule struct {
	Category string   `json:"category"`
	Keywords []string `json:"keywords"`
}

// Resolver resolves descriptions to category names. Rules are checked in
// table order and the first category with a matching keyword wins; overlaps
// between categories are broken positionally, so the order of the table is
// part of the contract. Descriptions matching no rule resolve to the
// fallback name.
type Resolver struct {
	rules    []Rule
	fallback string
}

// NewResolver builds a resolver over an ordered rule table. fallback is the
// name of the category used when no keyword matches.
func NewResolver(rules []Rule, fallback string) *Resolver {
	return &Resolver{rules: rules, fallback: fallback}
}

// Resolve returns the category name for a description. The result is
// deterministic for a fixed table.
func (r *Resolver) Resolve(description string) string {
	desc := strings.ToLower(description)
	for _, rule := range r.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(desc, kw) {
				return rule.Category
			}
		}
	}
	return r.fallback
}

// Fallback returns the configured fallback category name.
func (r *Resolver) Fallback() string {
	return r.fallback
}

// DefaultRules is the authoritative keyword table shipped with the service.
// Callers may replace it wholesale via configuration; the pipeline never
// mutates it.
func DefaultRules() []Rule {
	return []Rule{
		{Category: "Groceries", Keywords: []string{"grocery", "supermarket", "food", "market", "walmart", "target", "kroger", "safeway", "trader", "whole foods"}},
		{Category: "Dining", Keywords: []string{"restaurant", "cafe", "coffee", "starbucks", "mcdonald", "burger", "pizza", "taco", "dining", "doordash", "ubereats", "grubhub"}},
		{Category: "Transportation", Keywords: []string{"uber", "lyft", "taxi", "gas", "fuel", "transit", "train", "bus", "subway", "metro", "parking", "toll"}},
		{Category: "Entertainment", Keywords: []string{"movie", "cinema", "theater", "netflix", "spotify", "hulu", "disney", "amazon prime", "ticket", "concert", "event"}},
		{Category: "Shopping", Keywords: []string{"amazon", "ebay", "etsy", "shop", "store", "mall", "retail", "clothing", "shoes", "electronics"}},
		{Category: "Utilities", Keywords: []string{"electric", "water", "gas", "power", "utility", "internet", "phone", "mobile", "bill", "cable", "tv"}},
		{Category: "Housing", Keywords: []string{"rent", "mortgage", "apartment", "home", "house", "property", "real estate", "hoa", "maintenance"}},
		{Category: "Healthcare", Keywords: []string{"doctor", "hospital", "medical", "pharmacy", "health", "dental", "vision", "insurance", "clinic"}},
		{Category: "Education", Keywords: []string{"school", "college", "university", "tuition", "book", "course", "class", "education", "student"}},
		{Category: "Personal", Keywords: []string{"haircut", "salon", "spa", "gym", "fitness", "beauty", "cosmetic", "personal care"}},
		{Category: "Travel", Keywords: []string{"hotel", "flight", "airline", "airbnb", "vacation", "travel", "booking", "trip", "tour", "cruise"}},
		{Category: "Subscription", Keywords: []string{"subscription", "membership", "monthly", "annual", "fee", "dues"}},
	}
}

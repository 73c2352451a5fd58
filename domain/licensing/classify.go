package licensing

import "strings"

// Match is one (sub-entry, category) hit produced by Classify.
type Match struct {
	// Category indexes the catalog.
	Category int
	// License is the trimmed sub-entry text that matched.
	License string
}

// Classify splits a raw license cell on "+" and reports every category whose variants
// occur in a sub-entry. Matching is case-sensitive and a sub-entry may hit several
// categories. Results follow sub-entry order, then catalog order.
func (c Catalog) Classify(cell string) []Match {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	var matches []Match
	for _, part := range strings.Split(cell, "+") {
		license := strings.TrimSpace(part)
		for i, cat := range c.categories {
			if containsAny(license, cat.Variants) {
				matches = append(matches, Match{Category: i, License: license})
			}
		}
	}
	return matches
}

func containsAny(s string, variants []string) bool {
	for _, v := range variants {
		if strings.Contains(s, v) {
			return true
		}
	}
	return false
}

package licensing

import (
	"fmt"
	"strconv"
	"strings"
)

// Category is one license bucket of the catalog. A license sub-entry belongs to the
// category when any of Variants is a substring of it.
type Category struct {
	Name      string
	Variants  []string
	CostLabel string
}

// Catalog is the ordered set of categories used for one run. It is never mutated after
// NewCatalog and can be shared between concurrent runs.
type Catalog struct {
	categories []Category
}

// NewCatalog validates and copies the given categories.
func NewCatalog(categories ...Category) (Catalog, error) {
	if len(categories) == 0 {
		return Catalog{}, fmt.Errorf("catalog: at least one category is required")
	}
	seen := make(map[string]struct{}, len(categories))
	out := make([]Category, 0, len(categories))
	for i, c := range categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return Catalog{}, fmt.Errorf("catalog: category %d has no name", i)
		}
		if _, dup := seen[name]; dup {
			return Catalog{}, fmt.Errorf("catalog: duplicate category %q", name)
		}
		seen[name] = struct{}{}
		variants := make([]string, 0, len(c.Variants))
		for _, v := range c.Variants {
			if v != "" {
				variants = append(variants, v)
			}
		}
		if len(variants) == 0 {
			return Catalog{}, fmt.Errorf("catalog: category %q has no variants", name)
		}
		label := c.CostLabel
		if label == "" {
			label = "Cost of " + name
		}
		out = append(out, Category{Name: name, Variants: variants, CostLabel: label})
	}
	return Catalog{categories: out}, nil
}

// Len returns the number of categories.
func (c Catalog) Len() int { return len(c.categories) }

// Names returns category names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, len(c.categories))
	for i, cat := range c.categories {
		names[i] = cat.Name
	}
	return names
}

// Categories returns a copy of the categories in catalog order.
func (c Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	for i, cat := range c.categories {
		out[i] = Category{Name: cat.Name, Variants: append([]string(nil), cat.Variants...), CostLabel: cat.CostLabel}
	}
	return out
}

// UnitCost is the per-license rate of one category.
type UnitCost struct {
	Label string
	Rate  float64
}

// Header is the column title of the derived cost column, e.g. "Cost of Users ($115)".
func (u UnitCost) Header() string {
	return fmt.Sprintf("%s ($%s)", u.Label, strconv.FormatFloat(u.Rate, 'f', -1, 64))
}

// UnitCosts resolves one rate per category in catalog order: overrides win over defaults,
// a category absent from both costs 0.
func (c Catalog) UnitCosts(defaults, overrides map[string]float64) []UnitCost {
	out := make([]UnitCost, len(c.categories))
	for i, cat := range c.categories {
		rate := defaults[cat.Name]
		if v, ok := overrides[cat.Name]; ok {
			rate = v
		}
		out[i] = UnitCost{Label: cat.CostLabel, Rate: rate}
	}
	return out
}

// Slug turns a category name into the suffix used by summary keys ("365 Premium" -> "365_premium").
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

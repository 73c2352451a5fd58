package config

import (
	"fmt"
	"strings"

	"license-report/domain/licensing"
)

// Config represents the structure of config.yml used by the tool.
type Config struct {
	Folders struct {
		Upload  string `yaml:"upload"`
		Output  string `yaml:"output"`
		Invalid string `yaml:"invalid"`
	} `yaml:"folders"`
	Web struct {
		Addr string `yaml:"addr"`
	} `yaml:"web"`
	Offices struct {
		Management string `yaml:"management"`
		Partners   string `yaml:"partners"`
	} `yaml:"offices"`
	Catalog []Category `yaml:"catalog"`
}

// Category is one catalog entry together with its default unit cost.
type Category struct {
	Name      string   `yaml:"name"`
	CostLabel string   `yaml:"cost_label"`
	UnitCost  float64  `yaml:"unit_cost"`
	Variants  []string `yaml:"variants"`
}

// Default returns the built-in configuration used when no config file is present.
func Default() *Config {
	c := &Config{}
	c.Folders.Upload = "uploads"
	c.Folders.Output = "output"
	c.Folders.Invalid = "invalid"
	c.Web.Addr = ":8080"
	c.Offices.Management = "AION Management"
	c.Offices.Partners = "AION Partners"
	c.Catalog = []Category{
		{Name: "365 Premium", CostLabel: "Cost of Users", UnitCost: 115, Variants: []string{"Microsoft 365 Business Premium", "E3"}},
		{Name: "Exchange", CostLabel: "Cost of Exchange Licenses", UnitCost: 20, Variants: []string{"Exchange"}},
		{Name: "E5", CostLabel: "Cost of E5 Licenses", UnitCost: 54.80, Variants: []string{"E5"}},
		{Name: "Teams", CostLabel: "Cost of Teams Licenses", UnitCost: 4, Variants: []string{"Microsoft Teams Enterprise"}},
	}
	return c
}

// LicenseCatalog builds the immutable catalog from the configured categories.
func (c *Config) LicenseCatalog() (licensing.Catalog, error) {
	cats := make([]licensing.Category, len(c.Catalog))
	for i, cat := range c.Catalog {
		cats[i] = licensing.Category{Name: cat.Name, Variants: cat.Variants, CostLabel: cat.CostLabel}
	}
	catalog, err := licensing.NewCatalog(cats...)
	if err != nil {
		return licensing.Catalog{}, fmt.Errorf("config: %w", err)
	}
	return catalog, nil
}

// DefaultUnitCosts maps category names to their configured unit cost.
func (c *Config) DefaultUnitCosts() map[string]float64 {
	out := make(map[string]float64, len(c.Catalog))
	for _, cat := range c.Catalog {
		out[cat.Name] = cat.UnitCost
	}
	return out
}

// Validate checks the parts of the configuration a run depends on: a usable catalog
// and non-blank management and partner office names.
func (c *Config) Validate() error {
	if _, err := c.LicenseCatalog(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Offices.Management) == "" {
		return fmt.Errorf("config: offices.management must not be empty")
	}
	if strings.TrimSpace(c.Offices.Partners) == "" {
		return fmt.Errorf("config: offices.partners must not be empty")
	}
	return nil
}

// OfficeRoles returns the offices routed to the management and partner sheets.
func (c *Config) OfficeRoles() licensing.OfficeRoles {
	return licensing.OfficeRoles{Management: strings.TrimSpace(c.Offices.Management), Partners: strings.TrimSpace(c.Offices.Partners)}
}

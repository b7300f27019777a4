package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/ghodss/yaml"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/expense-tracker/internal/categorize"
)

// Config carries everything the binaries need from the environment.
type Config struct {
	ProjectID string `env:"GCP_PROJECT_ID"`
	DatasetID string `env:"BQ_DATASET_ID" envDefault:"expense_tracker"`
	GCSBucket string `env:"GCS_BUCKET"`

	HTTPPort string `env:"PORT" envDefault:"8080"`

	// FallbackCategory is assigned when no keyword rule matches a description.
	FallbackCategory string `env:"FALLBACK_CATEGORY" envDefault:"Other"`

	// DefaultBudget seeds newly auto-created categories.
	DefaultBudget string `env:"DEFAULT_CATEGORY_BUDGET" envDefault:"100.00"`

	// RulesFile optionally points at a YAML categorization rule table.
	// When empty the built-in table is used.
	RulesFile string `env:"CATEGORY_RULES_FILE"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("Load: parsing environment: %w", err)
	}
	return cfg, nil
}

// DefaultBudgetAmount parses the configured default category budget.
func (c *Config) DefaultBudgetAmount() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.DefaultBudget)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("DefaultBudgetAmount: invalid DEFAULT_CATEGORY_BUDGET %q: %w", c.DefaultBudget, err)
	}
	return d, nil
}

// Rules returns the categorization rule table: the YAML file when
// configured, the built-in table otherwise. Order in the file is the
// matching order.
func (c *Config) Rules() ([]categorize.Rule, error) {
	if c.RulesFile == "" {
		return categorize.DefaultRules(), nil
	}

	raw, err := os.ReadFile(c.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("Rules: reading %q: %w", c.RulesFile, err)
	}

	var rules []categorize.Rule
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("Rules: parsing %q: %w", c.RulesFile, err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("Rules: %q contains no rules", c.RulesFile)
	}
	return rules, nil
}

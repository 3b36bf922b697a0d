package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the main decommission configuration.
type Config struct {
	Version string `yaml:"version"`

	// Account under decommission.
	AccountID string `yaml:"account_id"`
	Profile   string `yaml:"profile"`
	Regions   []string `yaml:"regions"`

	// Safety switches. DryRun simulates every delete; RestrictedAccounts
	// are skipped entirely because service control policies block deletion.
	DryRun             bool     `yaml:"dry_run"`
	RestrictedAccounts []string `yaml:"restricted_accounts,omitempty"`

	Preserve  Preserve  `yaml:"preserve,omitempty"`
	Execution Execution `yaml:"execution,omitempty"`

	JournalDir string `yaml:"journal_dir"`
	PolicyFile string `yaml:"policy_file,omitempty"`
}

// Preserve configures what must survive the decommission.
type Preserve struct {
	TagKey   string            `yaml:"tag_key"`
	TagValue string            `yaml:"tag_value"`
	Patterns map[string]string `yaml:"patterns,omitempty"` // substring -> reason
}

// Execution tunes the destruction run.
type Execution struct {
	Concurrency  int           `yaml:"concurrency"`
	BarrierDelay time.Duration `yaml:"barrier_delay"`
	CallTimeout  time.Duration `yaml:"call_timeout"`
	PhaseTimeout time.Duration `yaml:"phase_timeout"`
	MaxAttempts  int           `yaml:"max_attempts"`
}

// DefaultPatterns are the preserved-name markers: organization and landing
// zone scaffolding, SSO, service-linked roles, the company domain, and
// billing constructs.
func DefaultPatterns() map[string]string {
	return map[string]string{
		"ControlTower":                  "Control Tower landing zone resource",
		"aws-controltower":              "Control Tower managed resource",
		"AWS-Landing-Zone":              "Landing Zone resource",
		"OrganizationAccountAccessRole": "Organization management role",
		"AWSReservedSSO":                "SSO managed resource",
		"aws-service-role":              "Service-linked role",
		"aws-budgets":                   "Budgets resource",
		"savings-plan":                  "Savings Plan resource",
	}
}

// Load reads and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// ApplyDefaults fills unset fields with safe defaults.
func (c *Config) ApplyDefaults() {
	if c.Preserve.TagKey == "" {
		c.Preserve.TagKey = "decom:preserve"
	}
	if c.Preserve.TagValue == "" {
		c.Preserve.TagValue = "true"
	}
	if c.Preserve.Patterns == nil {
		c.Preserve.Patterns = DefaultPatterns()
	}
	if c.Execution.Concurrency == 0 {
		c.Execution.Concurrency = 5
	}
	if c.Execution.BarrierDelay == 0 {
		c.Execution.BarrierDelay = 30 * time.Second
	}
	if c.Execution.CallTimeout == 0 {
		c.Execution.CallTimeout = 2 * time.Minute
	}
	if c.Execution.PhaseTimeout == 0 {
		c.Execution.PhaseTimeout = 30 * time.Minute
	}
	if c.Execution.MaxAttempts == 0 {
		c.Execution.MaxAttempts = 5
	}
	if len(c.Regions) == 0 {
		c.Regions = []string{"us-east-1"}
	}
	if c.JournalDir == "" {
		c.JournalDir = ".teardown"
	}
}

// Validate ensures config has required fields.
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}
	if c.Profile == "" && c.AccountID == "" {
		return fmt.Errorf("account_id or profile is required")
	}
	if c.Execution.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	if c.Execution.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	return nil
}

// Restricted reports whether the given profile is blocked by service
// control policies and must be skipped.
func (c *Config) Restricted(profile string) bool {
	for _, p := range c.RestrictedAccounts {
		if p == profile {
			return true
		}
	}
	return false
}

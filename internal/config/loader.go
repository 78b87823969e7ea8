package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadOptional behaves like Load but returns the defaults when configPath is empty.
// The stats command works without a configuration file.
func LoadOptional(configPath string) (*Config, error) {
	if configPath == "" {
		cfg := DefaultConfig()
		if err := substituteEnvVars(cfg); err != nil {
			return nil, fmt.Errorf("failed to substitute environment variables: %w", err)
		}
		return cfg, nil
	}
	return Load(configPath)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := substituteEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("failed to substitute environment variables: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) error {
	for i, f := range cfg.Input.Files {
		cfg.Input.Files[i] = expandEnvVar(f)
	}
	for i, s := range cfg.Stats.Schemas {
		cfg.Stats.Schemas[i] = expandEnvVar(s)
	}

	cfg.Output.SummaryReport = expandEnvVar(cfg.Output.SummaryReport)

	cfg.Store.Host = expandEnvVar(cfg.Store.Host)
	cfg.Store.User = expandEnvVar(cfg.Store.User)
	cfg.Store.Password = expandEnvVar(cfg.Store.Password)
	cfg.Store.Database = expandEnvVar(cfg.Store.Database)

	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}

// Overrides holds values supplied on the command line.
// Zero values leave the configuration untouched.
type Overrides struct {
	Files               []string
	Encoding            string
	ComputeExtent       bool
	OnlyTopLevel        bool
	ObjectHierarchy     bool
	IDs                 []string
	FailOnMissingSchema bool
	Schemas             []string
	NoJSONReport        bool
	SummaryReport       string
	Format              string
	NoPrint             bool
	LogLevel            string
	LogFormat           string
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied. Boolean flags can only enable a setting.
func (c *Config) ApplyOverrides(o Overrides) {
	if len(o.Files) > 0 {
		c.Input.Files = o.Files
	}
	if o.Encoding != "" {
		c.Input.Encoding = o.Encoding
	}
	if o.ComputeExtent {
		c.Stats.ComputeExtent = true
	}
	if o.OnlyTopLevel {
		c.Stats.OnlyTopLevel = true
	}
	if o.ObjectHierarchy {
		c.Stats.ObjectHierarchy = true
	}
	if len(o.IDs) > 0 {
		c.Stats.IDs = o.IDs
	}
	if o.FailOnMissingSchema {
		c.Stats.FailOnMissingSchema = true
	}
	if len(o.Schemas) > 0 {
		c.Stats.Schemas = append(c.Stats.Schemas, o.Schemas...)
	}
	if o.NoJSONReport {
		c.Output.JSONReport = false
	}
	if o.SummaryReport != "" {
		c.Output.SummaryReport = o.SummaryReport
	}
	if o.Format != "" {
		c.Output.Format = o.Format
	}
	if o.NoPrint {
		c.Output.PrintSummary = false
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		c.Logging.Format = o.LogFormat
	}
}

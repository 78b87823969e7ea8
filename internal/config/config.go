// Package config provides configuration structures and loading for gmlstats.
package config

// Config represents the complete application configuration.
type Config struct {
	Input   InputConfig   `yaml:"input" mapstructure:"input"`
	Stats   StatsConfig   `yaml:"stats" mapstructure:"stats"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// InputConfig describes where CityGML documents are read from and how.
type InputConfig struct {
	Files    []string `yaml:"files" mapstructure:"files"`         // files, directories or glob patterns
	Encoding string   `yaml:"encoding" mapstructure:"encoding"`   // overrides the XML declaration
	MaxDepth int      `yaml:"max_depth" mapstructure:"max_depth"` // 0 disables the guard
}

// StatsConfig controls the statistics analysis.
type StatsConfig struct {
	ComputeExtent       bool     `yaml:"compute_extent" mapstructure:"compute_extent"`
	OnlyTopLevel        bool     `yaml:"only_top_level" mapstructure:"only_top_level"`
	ObjectHierarchy     bool     `yaml:"object_hierarchy" mapstructure:"object_hierarchy"`
	IDs                 []string `yaml:"ids" mapstructure:"ids"`
	FailOnMissingSchema bool     `yaml:"fail_on_missing_schema" mapstructure:"fail_on_missing_schema"`
	Schemas             []string `yaml:"schemas" mapstructure:"schemas"` // supplementary XSD files or URLs
}

// OutputConfig controls the generated reports.
type OutputConfig struct {
	JSONReport    bool   `yaml:"json_report" mapstructure:"json_report"`       // per-file report next to the input
	SummaryReport string `yaml:"summary_report" mapstructure:"summary_report"` // path of the cross-file report
	Format        string `yaml:"format" mapstructure:"format"`                 // json or yaml
	Suffix        string `yaml:"suffix" mapstructure:"suffix"`
	PrintSummary  bool   `yaml:"print_summary" mapstructure:"print_summary"`
}

// StoreConfig represents the optional MySQL run history store.
type StoreConfig struct {
	Enabled            bool   `yaml:"enabled" mapstructure:"enabled"`
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
	TablePrefix        string `yaml:"table_prefix" mapstructure:"table_prefix"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			MaxDepth: 0,
		},
		Stats: StatsConfig{
			ComputeExtent: false,
		},
		Output: OutputConfig{
			JSONReport:   true,
			Format:       "json",
			Suffix:       "__statistics",
			PrintSummary: true,
		},
		Store: StoreConfig{
			Enabled:            false,
			Port:               3306,
			TLS:                "preferred",
			MaxConnections:     4,
			MaxIdleConnections: 2,
			TablePrefix:        "gmlstats_",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// ReportExtension returns the file extension for the configured report format.
func (o OutputConfig) ReportExtension() string {
	if o.Format == "yaml" {
		return ".yaml"
	}
	return ".json"
}

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/gmlstats/internal/config"
)

func TestGetConfigFile(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() {
		cfgFile = originalCfgFile
	}()

	tests := []struct {
		name     string
		cfgValue string
		want     string
	}{
		{name: "no config file", cfgValue: "", want: ""},
		{name: "custom config file", cfgValue: "/path/to/gmlstats.yaml", want: "/path/to/gmlstats.yaml"},
		{name: "config file with spaces", cfgValue: "/path/to/my config.yaml", want: "/path/to/my config.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgFile = tt.cfgValue
			assert.Equal(t, tt.want, GetConfigFile())
		})
	}
}

func TestLoadConfig(t *testing.T) {
	originalCfgFile, originalLogLevel, originalLogFormat := cfgFile, logLevel, logFormat
	defer func() {
		cfgFile, logLevel, logFormat = originalCfgFile, originalLogLevel, originalLogFormat
	}()

	path := filepath.Join(t.TempDir(), "gmlstats.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input:
  files: ["data"]
stats:
  compute_extent: false
  schemas: ["noise.xsd"]
output:
  format: yaml
logging:
  level: warn
`), 0o644))

	tests := []struct {
		name      string
		cfgFile   string
		logLevel  string
		overrides config.Overrides
		check     func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "defaults without config file",
			check: func(t *testing.T, cfg *config.Config) {
				assert.Empty(t, cfg.Input.Files)
				assert.Equal(t, "json", cfg.Output.Format)
				assert.Equal(t, "info", cfg.Logging.Level)
			},
		},
		{
			name:    "config file",
			cfgFile: path,
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, []string{"data"}, cfg.Input.Files)
				assert.Equal(t, "yaml", cfg.Output.Format)
				assert.Equal(t, "warn", cfg.Logging.Level)
			},
		},
		{
			name:     "flags override config file",
			cfgFile:  path,
			logLevel: "debug",
			overrides: config.Overrides{
				Files:         []string{"city.gml"},
				ComputeExtent: true,
				Schemas:       []string{"tunnel.xsd"},
			},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, []string{"city.gml"}, cfg.Input.Files)
				assert.True(t, cfg.Stats.ComputeExtent)
				assert.Equal(t, []string{"noise.xsd", "tunnel.xsd"}, cfg.Stats.Schemas)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgFile = tt.cfgFile
			logLevel = tt.logLevel
			logFormat = ""

			cfg, err := loadConfig(tt.overrides)
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() { cfgFile = originalCfgFile }()

	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := loadConfig(config.Overrides{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestRootCommandStructure(t *testing.T) {
	assert.NotNil(t, rootCmd)
	assert.Equal(t, "gmlstats", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.Equal(t, Version, rootCmd.Version)
	assert.NotNil(t, Execute)
}

func TestRootCommandPersistentFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	configFlag, err := flags.GetString("config")
	assert.NoError(t, err)
	assert.Equal(t, "", configFlag)

	logLevelFlag, err := flags.GetString("log-level")
	assert.NoError(t, err)
	assert.Equal(t, "", logLevelFlag)

	logFormatFlag, err := flags.GetString("log-format")
	assert.NoError(t, err)
	assert.Equal(t, "", logFormatFlag)
}

func TestRootCommandSubcommands(t *testing.T) {
	var names []string
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}

	for _, expected := range []string{"stats", "validate", "version"} {
		assert.Contains(t, names, expected, "Expected command %s not found", expected)
	}
}

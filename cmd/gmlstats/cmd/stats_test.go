package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/gmlstats/internal/config"
)

const cityDocument = `<?xml version="1.0" encoding="UTF-8"?>
<core:CityModel xmlns:core="http://www.opengis.net/citygml/2.0"
    xmlns:gml="http://www.opengis.net/gml"
    xmlns:bldg="http://www.opengis.net/citygml/building/2.0">
  <core:cityObjectMember>
    <bldg:Building gml:id="A"/>
  </core:cityObjectMember>
</core:CityModel>
`

const adeDocument = `<?xml version="1.0" encoding="UTF-8"?>
<core:CityModel xmlns:core="http://www.opengis.net/citygml/2.0"
    xmlns:noise="http://example.org/noise-ade">
  <core:cityObjectMember>
    <noise:NoiseBarrier/>
  </core:cityObjectMember>
</core:CityModel>
`

// resetStatsFlags restores the stats flag variables after a test.
func resetStatsFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		statsComputeExtent = false
		statsOnlyTopLevel = false
		statsObjectHierarchy = false
		statsIDs = nil
		statsFailOnMissingSchema = false
		statsSchemas = nil
		statsNoJSONReport = false
		statsSummaryReport = ""
		statsFormat = ""
		statsEncoding = ""
		statsNoPrint = false
		exitCode = 0
	})
}

func writeInput(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func executeStats(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	statsCmd.SetOut(&buf)
	statsCmd.SetContext(context.Background())
	err := runStats(statsCmd, args)
	return buf.String(), err
}

func TestStatsCommandStructure(t *testing.T) {
	assert.Equal(t, "stats [files...]", statsCmd.Use)
	assert.NotEmpty(t, statsCmd.Short)
	assert.Contains(t, statsCmd.Long, "Exit codes:")
	assert.NotNil(t, statsCmd.RunE)
}

func TestStatsCommandFlags(t *testing.T) {
	tests := []struct {
		name      string
		shorthand string
	}{
		{"compute-extent", "c"},
		{"only-top-level", "t"},
		{"object-hierarchy", "H"},
		{"id", ""},
		{"fail-on-missing-schema", "f"},
		{"schema", "s"},
		{"no-json-report", ""},
		{"summary-report", "r"},
		{"format", ""},
		{"encoding", ""},
		{"no-print", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := statsCmd.Flags().Lookup(tt.name)
			require.NotNil(t, flag)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
		})
	}
}

func TestStatsOverrides(t *testing.T) {
	resetStatsFlags(t)

	statsComputeExtent = true
	statsIDs = []string{"A", "B"}
	statsNoJSONReport = true
	statsSummaryReport = "summary.json"

	o := statsOverrides([]string{"a.gml", "dir"})
	assert.Equal(t, config.Overrides{
		Files:         []string{"a.gml", "dir"},
		ComputeExtent: true,
		IDs:           []string{"A", "B"},
		NoJSONReport:  true,
		SummaryReport: "summary.json",
	}, o)
}

func TestRunStats(t *testing.T) {
	resetStatsFlags(t)
	input := writeInput(t, "city.gml", cityDocument)

	output, err := executeStats(t, input)
	require.NoError(t, err)

	assert.Equal(t, 0, exitCode)
	assert.Contains(t, output, "CityGML statistics: 1 file(s)")
	assert.Contains(t, output, "bldg:Building")
	assert.FileExists(t, filepath.Join(filepath.Dir(input), "city__statistics.json"))
}

func TestRunStats_NoInputFiles(t *testing.T) {
	resetStatsFlags(t)
	dir := filepath.Dir(writeInput(t, "notes.txt", "hello"))
	statsNoPrint = true

	_, err := executeStats(t, dir)
	require.NoError(t, err)
	assert.Equal(t, 0, exitCode)
}

func TestStatsCommand_IDFlagUsage(t *testing.T) {
	flag := statsCmd.Flags().Lookup("id")
	require.NotNil(t, flag)
	assert.Contains(t, flag.Usage, "everything nested in them")
}

func TestRunStats_MissingSchemaExitCode(t *testing.T) {
	resetStatsFlags(t)
	input := writeInput(t, "noise.gml", adeDocument)
	statsNoJSONReport = true
	statsNoPrint = true

	output, err := executeStats(t, input)
	require.NoError(t, err)

	assert.Equal(t, 3, exitCode)
	assert.Empty(t, output)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(input), "noise__statistics.json"))
}

func TestRunStats_FailOnMissingSchema(t *testing.T) {
	resetStatsFlags(t)
	input := writeInput(t, "noise.gml", adeDocument)
	statsFailOnMissingSchema = true

	_, err := executeStats(t, input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statistics run failed")
	assert.NoFileExists(t, filepath.Join(filepath.Dir(input), "noise__statistics.json"))
}

func TestRunStats_InvalidConfig(t *testing.T) {
	resetStatsFlags(t)
	input := writeInput(t, "city.gml", cityDocument)
	statsOnlyTopLevel = true
	statsObjectHierarchy = true

	_, err := executeStats(t, input)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrConfiguration))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(input), "city__statistics.json"))
}

func TestRunStats_SummaryReport(t *testing.T) {
	resetStatsFlags(t)
	input := writeInput(t, "city.gml", cityDocument)
	summary := filepath.Join(t.TempDir(), "reports", "summary.yaml")
	statsSummaryReport = summary
	statsFormat = "yaml"
	statsNoPrint = true

	_, err := executeStats(t, input)
	require.NoError(t, err)

	data, err := os.ReadFile(summary)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bldg:Building: 1")
	assert.FileExists(t, filepath.Join(filepath.Dir(input), "city__statistics.yaml"))
}

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/gmlstats/internal/store"
)

const noiseSchema = `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
    xmlns:core="http://www.opengis.net/citygml/2.0"
    targetNamespace="http://example.org/noise-ade">
  <xs:element name="NoiseBarrier" substitutionGroup="core:_CityObject"/>
</xs:schema>`

func executeValidate(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { validateSchemas = nil })

	var buf bytes.Buffer
	validateCmd.SetOut(&buf)
	validateCmd.SetContext(context.Background())
	err := runValidate(validateCmd, args)
	return buf.String(), err
}

func TestValidateCommandStructure(t *testing.T) {
	assert.Equal(t, "validate [files...]", validateCmd.Use)
	assert.Contains(t, validateCmd.Short, "Validate")
	assert.Contains(t, validateCmd.Long, "Checks performed")
	assert.Contains(t, validateCmd.Long, "gmlstats validate")
	assert.NotNil(t, validateCmd.Flags().Lookup("schema"))
}

func TestRunValidate(t *testing.T) {
	dir := t.TempDir()
	xsd := filepath.Join(dir, "noise.xsd")
	require.NoError(t, os.WriteFile(xsd, []byte(noiseSchema), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "city.gml"), []byte(cityDocument), 0o644))

	validateSchemas = []string{xsd}
	output, err := executeValidate(t, dir)
	require.NoError(t, err)

	assert.Contains(t, output, "Configuration is valid")
	assert.Contains(t, output, "Schema "+xsd+" loaded")
	assert.Contains(t, output, "Input files: 1")
	assert.Contains(t, output, "http://example.org/noise-ade")
	assert.Contains(t, output, "http://www.opengis.net/citygml/building/2.0 (CityGML 2.0, built-in)")
	assert.Contains(t, output, "=== Validation Complete ===")
}

func TestRunValidate_MissingSchema(t *testing.T) {
	validateSchemas = []string{filepath.Join(t.TempDir(), "missing.xsd")}

	output, err := executeValidate(t)
	require.Error(t, err)
	assert.Contains(t, output, "❌ Schema")
	assert.NotContains(t, output, "Validation Complete")
}

func TestRunValidate_NoInputFiles(t *testing.T) {
	output, err := executeValidate(t, filepath.Join(t.TempDir(), "*.gml"))
	require.Error(t, err)
	assert.Contains(t, output, "❌ Input")
}

func TestDescribeRun(t *testing.T) {
	assert.Equal(t, "none recorded", describeRun(nil))

	run := &store.Run{
		ID:        7,
		Status:    store.RunStatusFailed,
		FileCount: 2,
		Error:     "failed to write report out/summary.json: permission denied",
		StartedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	assert.Equal(t,
		"#7 failed, 2 file(s), started 2024-05-01T12:00:00Z: failed to write report out/summary.json: permission denied",
		describeRun(run))
}

package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/gmlstats/internal/config"
	"github.com/dbsmedya/gmlstats/internal/logger"
	"github.com/dbsmedya/gmlstats/internal/schema"
	"github.com/dbsmedya/gmlstats/internal/stats"
	"github.com/dbsmedya/gmlstats/internal/store"
)

const cityDocument = `<?xml version="1.0" encoding="UTF-8"?>
<core:CityModel xmlns:core="http://www.opengis.net/citygml/2.0"
    xmlns:gml="http://www.opengis.net/gml"
    xmlns:bldg="http://www.opengis.net/citygml/building/2.0">
  <gml:boundedBy>
    <gml:Envelope srsName="EPSG:25832">
      <gml:lowerCorner>0 0 0</gml:lowerCorner>
      <gml:upperCorner>10 10 10</gml:upperCorner>
    </gml:Envelope>
  </gml:boundedBy>
  <core:cityObjectMember>
    <bldg:Building gml:id="A">
      <bldg:lod1MultiSurface>
        <gml:MultiSurface><gml:surfaceMember><gml:Polygon><gml:exterior>
          <gml:LinearRing><gml:posList>0 0 0 1 0 0 1 1 0 0 0 0</gml:posList></gml:LinearRing>
        </gml:exterior></gml:Polygon></gml:surfaceMember></gml:MultiSurface>
      </bldg:lod1MultiSurface>
    </bldg:Building>
  </core:cityObjectMember>
</core:CityModel>
`

const parkDocument = `<?xml version="1.0" encoding="UTF-8"?>
<core:CityModel xmlns:core="http://www.opengis.net/citygml/2.0"
    xmlns:gml="http://www.opengis.net/gml"
    xmlns:veg="http://www.opengis.net/citygml/vegetation/2.0">
  <gml:boundedBy>
    <gml:Envelope srsName="EPSG:25832">
      <gml:lowerCorner>-5 0 0</gml:lowerCorner>
      <gml:upperCorner>5 20 3</gml:upperCorner>
    </gml:Envelope>
  </gml:boundedBy>
  <core:cityObjectMember>
    <veg:PlantCover gml:id="P"/>
  </core:cityObjectMember>
  <core:cityObjectMember>
    <veg:SolitaryVegetationObject gml:id="T"/>
  </core:cityObjectMember>
</core:CityModel>
`

const noiseDocument = `<?xml version="1.0" encoding="UTF-8"?>
<core:CityModel xmlns:core="http://www.opengis.net/citygml/2.0"
    xmlns:noise="http://example.org/noise-ade">
  <core:cityObjectMember>
    <noise:NoiseBarrier/>
  </core:cityObjectMember>
</core:CityModel>
`

const noiseSchema = `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
    xmlns:core="http://www.opengis.net/citygml/2.0"
    targetNamespace="http://example.org/noise-ade">
  <xs:element name="NoiseBarrier" substitutionGroup="core:_CityObject"/>
</xs:schema>`

func newFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, data := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(data), 0o644))
	}
	return fs
}

func newConfig(files ...string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Input.Files = files
	cfg.Output.PrintSummary = false
	return cfg
}

func TestOutcome_ExitCode(t *testing.T) {
	tests := []struct {
		outcome Outcome
		name    string
		code    int
	}{
		{OutcomeOK, "ok", 0},
		{OutcomeWarnings, "warnings", 3},
		{OutcomeFailed, "failed", 1},
		{Outcome(42), "unknown", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.outcome.String())
			assert.Equal(t, tt.code, tt.outcome.ExitCode())
		})
	}
}

func TestRunner_Run(t *testing.T) {
	fs := newFs(t, map[string]string{
		"data/city.gml": cityDocument,
		"data/park.gml": parkDocument,
	})
	cfg := newConfig("data")
	cfg.Output.SummaryReport = "out/summary.json"

	result, err := New(cfg, logger.NewNop(), WithFs(fs)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeOK, result.Outcome)
	assert.Equal(t, []string{
		filepath.Join("data", "city__statistics.json"),
		filepath.Join("data", "park__statistics.json"),
		"out/summary.json",
	}, result.Reports)

	summary := result.Summary
	require.NotNil(t, summary)
	assert.Equal(t, []string{filepath.Join("data", "city.gml"), filepath.Join("data", "park.gml")}, summary.Files)
	assert.Equal(t, 1, summary.Features["bldg:Building"])
	assert.Equal(t, 1, summary.Features["veg:PlantCover"])
	assert.Equal(t, 1, summary.Features["veg:SolitaryVegetationObject"])
	assert.Equal(t, []float64{-5, 0, 0}, summary.Extent.Lower())
	assert.Equal(t, []float64{10, 20, 10}, summary.Extent.Upper())

	for _, path := range result.Reports {
		exists, err := afero.Exists(fs, path)
		require.NoError(t, err)
		assert.True(t, exists, path)
	}

	data, err := afero.ReadFile(fs, "out/summary.json")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"bldg:Building": 1`)
}

func TestRunner_Run_SkipsExistingReports(t *testing.T) {
	fs := newFs(t, map[string]string{
		"data/city.gml": cityDocument,
	})
	cfg := newConfig("data")

	first, err := New(cfg, nil, WithFs(fs)).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Reports, 1)

	// Reports are skipped by their suffix, whatever their extension.
	require.NoError(t, afero.WriteFile(fs, "data/old__statistics.gml", []byte("not xml"), 0o644))

	second, err := New(cfg, nil, WithFs(fs)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("data", "city.gml")}, second.Summary.Files)
}

func TestRunner_Run_NoJSONReport(t *testing.T) {
	fs := newFs(t, map[string]string{"city.gml": cityDocument})
	cfg := newConfig("city.gml")
	cfg.Output.JSONReport = false

	result, err := New(cfg, nil, WithFs(fs)).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Reports)

	exists, err := afero.Exists(fs, "city__statistics.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunner_Run_YAMLReport(t *testing.T) {
	fs := newFs(t, map[string]string{"city.gml": cityDocument})
	cfg := newConfig("city.gml")
	cfg.Output.Format = "yaml"

	result, err := New(cfg, nil, WithFs(fs)).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"city__statistics.yaml"}, result.Reports)

	data, err := afero.ReadFile(fs, "city__statistics.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "cityGMLVersions:")
}

func TestRunner_Run_MissingSchemaWarning(t *testing.T) {
	fs := newFs(t, map[string]string{
		"city.gml":  cityDocument,
		"noise.gml": noiseDocument,
	})
	cfg := newConfig("*.gml")

	result, err := New(cfg, nil, WithFs(fs)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeWarnings, result.Outcome)
	assert.Equal(t, 3, result.Outcome.ExitCode())
	assert.Equal(t, []string{"http://example.org/noise-ade"}, result.Summary.MissingSchemas.Sorted())
	assert.Len(t, result.Reports, 2)
}

func TestRunner_Run_SupplementarySchema(t *testing.T) {
	xsd := filepath.Join(t.TempDir(), "noise.xsd")
	require.NoError(t, os.WriteFile(xsd, []byte(noiseSchema), 0o644))

	fs := newFs(t, map[string]string{"noise.gml": noiseDocument})
	cfg := newConfig("noise.gml")
	cfg.Stats.Schemas = []string{xsd}

	result, err := New(cfg, nil, WithFs(fs)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeOK, result.Outcome)
	assert.Equal(t, 1, result.Summary.Features["noise:NoiseBarrier"])
	assert.Equal(t, "http://example.org/noise-ade", result.Summary.Modules["noise"])
}

func TestRunner_Run_StrictAbortsRun(t *testing.T) {
	fs := newFs(t, map[string]string{
		"a.gml": noiseDocument,
		"b.gml": cityDocument,
	})
	cfg := newConfig("a.gml", "b.gml")
	cfg.Stats.FailOnMissingSchema = true
	cfg.Output.SummaryReport = "summary.json"

	result, err := New(cfg, nil, WithFs(fs)).Run(context.Background())
	require.Error(t, err)

	var rerr *schema.ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "a.gml", rerr.File)

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Nil(t, result.Summary)
	assert.Empty(t, result.Reports)

	for _, path := range []string{"a__statistics.json", "b__statistics.json", "summary.json"} {
		exists, err := afero.Exists(fs, path)
		require.NoError(t, err)
		assert.False(t, exists, path)
	}
}

func TestRunner_Run_MalformedFile(t *testing.T) {
	fs := newFs(t, map[string]string{
		"a.gml": cityDocument,
		"b.gml": "<core:CityModel xmlns:core=\"http://www.opengis.net/citygml/2.0\">\n<broken>",
	})
	cfg := newConfig("a.gml", "b.gml")

	result, err := New(cfg, nil, WithFs(fs)).Run(context.Background())
	require.Error(t, err)

	var rerr *stats.ReadError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "b.gml", rerr.File)
	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, []string{"a__statistics.json"}, result.Reports)
}

func TestRunner_Run_InvalidConfig(t *testing.T) {
	fs := newFs(t, map[string]string{"city.gml": cityDocument})
	cfg := newConfig("city.gml")
	cfg.Stats.OnlyTopLevel = true
	cfg.Stats.ObjectHierarchy = true

	result, err := New(cfg, nil, WithFs(fs)).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrConfiguration))
	assert.Equal(t, OutcomeFailed, result.Outcome)

	exists, err := afero.Exists(fs, "city__statistics.json")
	require.NoError(t, err)
	assert.False(t, exists, "no file is touched before validation passes")
}

func TestRunner_Run_NoInputFiles(t *testing.T) {
	fs := newFs(t, map[string]string{"notes.txt": "hello"})
	cfg := newConfig("*.gml")

	result, err := New(cfg, nil, WithFs(fs)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, result.Outcome)
	assert.Empty(t, result.Reports)
	require.NotNil(t, result.Summary)
	assert.Empty(t, result.Summary.Files)
	assert.False(t, result.Summary.HasFeatures())
}

func TestRunner_Run_ReportWriteFailure(t *testing.T) {
	mem := newFs(t, map[string]string{
		"city.gml": cityDocument,
		"park.gml": parkDocument,
	})
	cfg := newConfig("city.gml", "park.gml")
	cfg.Output.SummaryReport = "out/summary.json"
	cfg.Output.PrintSummary = true

	var out bytes.Buffer
	result, err := New(cfg, nil, WithFs(afero.NewReadOnlyFs(mem)), WithOutput(&out, false)).
		Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Empty(t, result.Reports)

	// Both files are still analyzed and merged.
	require.NotNil(t, result.Summary)
	assert.Equal(t, []string{"city.gml", "park.gml"}, result.Summary.Files)
	assert.Equal(t, 1, result.Summary.Features["bldg:Building"])
	assert.Equal(t, 1, result.Summary.Features["veg:PlantCover"])
	assert.Contains(t, out.String(), "CityGML statistics: 2 file(s)")
}

func TestRunner_Run_HistoryRecordsReportFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	history, err := store.NewHistory(db, "gmlstats_", logger.NewNop())
	require.NoError(t, err)

	fs := afero.NewReadOnlyFs(newFs(t, map[string]string{"city.gml": cityDocument}))

	mock.ExpectExec("INSERT INTO `gmlstats_run`").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec("INSERT INTO `gmlstats_file`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE `gmlstats_run` SET run_status").
		WithArgs(store.RunStatusFailed, 1, sqlmock.AnyArg(), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := New(newConfig("city.gml"), nil, WithFs(fs), WithHistory(history)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewClassifier(t *testing.T) {
	assert.True(t, NewClassifier(true, nil).Strict())
	assert.False(t, NewClassifier(false, logger.NewNop()).Strict())
}

func TestRunner_Run_Canceled(t *testing.T) {
	fs := newFs(t, map[string]string{"city.gml": cityDocument})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(newConfig("city.gml"), nil, WithFs(fs)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_Run_PrintSummary(t *testing.T) {
	fs := newFs(t, map[string]string{
		"city.gml": cityDocument,
		"park.gml": parkDocument,
	})
	cfg := newConfig("city.gml", "park.gml")
	cfg.Output.PrintSummary = true

	var out bytes.Buffer
	_, err := New(cfg, nil, WithFs(fs), WithOutput(&out, false)).Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out.String(), "CityGML statistics: 2 file(s)")
	assert.Contains(t, out.String(), "veg:PlantCover")
	assert.Contains(t, out.String(), "EPSG:25832")
}

func TestRunner_Run_History(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	history, err := store.NewHistory(db, "gmlstats_", logger.NewNop())
	require.NoError(t, err)

	fs := newFs(t, map[string]string{
		"city.gml":  cityDocument,
		"noise.gml": noiseDocument,
	})
	cfg := newConfig("city.gml", "noise.gml")

	mock.ExpectExec("INSERT INTO `gmlstats_run`").
		WithArgs(store.RunStatusRunning, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec("INSERT INTO `gmlstats_file`").
		WithArgs(int64(5), "city.gml", sqlmock.AnyArg(), int64(len(cityDocument)), 1, 1, 0, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `gmlstats_file`").
		WithArgs(int64(5), "noise.gml", sqlmock.AnyArg(), int64(len(noiseDocument)), 0, 0, 0, 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec("UPDATE `gmlstats_run` SET run_status").
		WithArgs(store.RunStatusWarnings, 2, nil, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := New(cfg, nil, WithFs(fs), WithHistory(history)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeWarnings, result.Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunner_Run_HistoryRecordsFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	history, err := store.NewHistory(db, "gmlstats_", logger.NewNop())
	require.NoError(t, err)

	fs := newFs(t, map[string]string{"broken.gml": "<a><b></a>"})

	mock.ExpectExec("INSERT INTO `gmlstats_run`").
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectExec("UPDATE `gmlstats_run` SET run_status").
		WithArgs(store.RunStatusFailed, 1, sqlmock.AnyArg(), int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err = New(newConfig("broken.gml"), nil, WithFs(fs), WithHistory(history)).Run(context.Background())
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

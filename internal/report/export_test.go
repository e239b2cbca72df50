package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/metrics"
)

func TestExporter_WriteResultCSV(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir, nil)

	path, err := exporter.WriteResultCSV(zScoreResult(t))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "600519_z_score.csv"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(raw)
	assert.True(t, len(raw) > 3 && raw[0] == 0xEF && raw[1] == 0xBB && raw[2] == 0xBF)
	assert.Contains(t, content, "period,z,asset_turnover,classification\n")
	// Latest first, undefined cell empty.
	assert.Contains(t, content, "2023-12-31,3.4,1.3,safe\n")
	assert.Contains(t, content, "2022-12-31,,1.1,\n")
	assert.Contains(t, content, "2021-12-31,3.1,1.2,safe\n")
}

func TestExporter_WriteResultCSV_NoLabels(t *testing.T) {
	res, err := metrics.NewResultBuilder("profitability", "AAPL", annualPeriods("2023-12-31")).
		AddColumn("roe", []metrics.Value{metrics.Def(15.5)}).
		Build()
	require.NoError(t, err)

	exporter := NewExporter(t.TempDir(), nil)
	path, err := exporter.WriteResultCSV(res)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "period,roe\n")
	assert.Contains(t, string(raw), "2023-12-31,15.5\n")
}

func TestExporter_WriteResultCSV_Empty(t *testing.T) {
	empty, err := metrics.NewResultBuilder("z_score", "600519", nil).Build()
	require.NoError(t, err)

	_, exportErr := NewExporter(t.TempDir(), nil).WriteResultCSV(empty)
	require.Error(t, exportErr)
	assert.True(t, apperrors.IsInsufficientData(exportErr))
}

func TestExporter_WriteReportText(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	exporter := NewExporter(dir, nil)

	path, err := exporter.WriteReportText("600519", "z_score", "report body\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "600519_z_score.txt"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "report body\n", string(raw))
}

package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viniciushashizume/stock-insight-hub/internal/domain"
)

func TestSyntheticThenKPIs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synthetic.csv.gz")

	var out bytes.Buffer
	require.NoError(t, newApp(&out).Run([]string{"insights", "synthetic", "--out", path, "--items", "30"}))
	assert.Contains(t, out.String(), "wrote 360 rows")

	out.Reset()
	require.NoError(t, newApp(&out).Run([]string{"insights", "--file", path, "kpis"}))

	var kpis domain.KPIs
	require.NoError(t, json.Unmarshal(out.Bytes(), &kpis))
	assert.Equal(t, 30, kpis.TotalItems)
}

func TestDatasetCommandFromDir(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, newApp(&out).Run([]string{"insights", "synthetic", "--out", filepath.Join(dir, "a.xlsx"), "--items", "5"}))
	require.NoError(t, newApp(&out).Run([]string{"insights", "synthetic", "--out", filepath.Join(dir, "b.csv"), "--items", "5", "--seed", "7"}))

	out.Reset()
	require.NoError(t, newApp(&out).Run([]string{"insights", "--dir", dir, "dataset"}))

	var info domain.DatasetInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, 120, info.Rows)
	assert.Equal(t, 5, info.Items)
}

func TestMissingFileFails(t *testing.T) {
	app := newApp(&bytes.Buffer{})
	err := app.Run([]string{"insights", "--file", filepath.Join(t.TempDir(), "none.csv"), "risk"})
	assert.Error(t, err)
}

func TestSplitSources(t *testing.T) {
	assert.Equal(t, []string{"file", "synthetic"}, splitSources(" file, ,synthetic "))
}

func TestCachePurge(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("insights:risk:0011223344556677", "{}"))
	require.NoError(t, mr.Set("sessions:abc", "keep"))

	var out bytes.Buffer
	require.NoError(t, newApp(&out).Run([]string{"insights", "cache", "purge", "--redis-url", "redis://" + mr.Addr()}))
	assert.Contains(t, out.String(), "insights cache purged")
	assert.False(t, mr.Exists("insights:risk:0011223344556677"))
	assert.True(t, mr.Exists("sessions:abc"))
}

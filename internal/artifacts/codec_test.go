package artifacts

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParseFloatRoundTrip(t *testing.T) {
	v := 3.14159
	s := formatFloat(&v)
	parsed := parseFloat(s)
	require.NotNil(t, parsed)
	assert.InDelta(t, v, *parsed, 1e-9)
}

func TestFormatFloatMissingIsEmptyCell(t *testing.T) {
	assert.Equal(t, "", formatFloat(nil))
	assert.Nil(t, parseFloat(""))
}

func TestWriteCSVAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "artifact.csv.gz")

	require.NoError(t, writeCSVAtomic(path, [][]string{{"a", "b"}, {"1", "2"}}))

	matches, err := filepath.Glob(filepath.Join(dir, ".tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)

	rows, err := readCSV(path)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "2"}}, rows)
}

func TestReadCSVMissingFileReturnsNilNotError(t *testing.T) {
	rows, err := readCSV(filepath.Join(t.TempDir(), "missing.csv.gz"))
	require.NoError(t, err)
	assert.Nil(t, rows)
}

package artifacts

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/barramodel/internal/factors"
	"github.com/aristath/barramodel/internal/factors/transpose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func TestWriteAndReadFactorReturnSeriesRoundTrips(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(dir)

	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	rows := []FactorReturnRow{
		{Date: d1, Factors: make([]float64, len(FactorColumns()))},
		{Date: d2, Factors: make([]float64, len(FactorColumns()))},
	}
	rows[0].Factors[0] = 0.01
	rows[1].Factors[0] = 0.02

	require.NoError(t, sink.WriteFactorReturnSeries(rows))

	got, err := sink.ReadFactorReturnSeries()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Date.Equal(d1))
	assert.InDelta(t, 0.01, got[0].Factors[0], 1e-9)
	assert.InDelta(t, 0.02, got[1].Factors[0], 1e-9)
}

func TestReadFactorReturnSeriesMissingFileIsNilNotError(t *testing.T) {
	sink := NewSink(t.TempDir())
	got, err := sink.ReadFactorReturnSeries()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWriteCrossSectionSkipsEmptySections(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(dir)

	err := sink.WriteCrossSection(transpose.CrossSection{Date: time.Now(), Rows: nil})
	require.NoError(t, err)

	entries, _ := filepathGlob(dir)
	assert.Empty(t, entries)
}

func TestWriteExposuresAtomicAndRenders(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(dir)

	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	exposures := []factors.Exposure{
		{Security: "000001.SZ", Date: d, Size: fp(20.5), Industry: factors.IndustryBanking},
	}
	require.NoError(t, sink.WriteExposures("000001.SZ", exposures))

	path := filepath.Join(dir, "exposures", "000001.SZ.csv.gz")
	rows, err := readCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 2) // header + 1 row
	assert.Equal(t, "date", rows[0][0])
}

func TestListCrossSectionDatesSortedAscending(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(dir)

	d1 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	row := factors.Exposure{Security: "A", Date: d1, Industry: factors.IndustryBanking}

	require.NoError(t, sink.WriteCrossSection(transpose.CrossSection{Date: d1, Rows: []factors.Exposure{row}}))
	row2 := row
	row2.Date = d2
	require.NoError(t, sink.WriteCrossSection(transpose.CrossSection{Date: d2, Rows: []factors.Exposure{row2}}))

	dates, err := sink.ListCrossSectionDates()
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.True(t, dates[0].Before(dates[1]))
}

func filepathGlob(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "cross_sections", "*"))
}

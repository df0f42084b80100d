package chart

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/btcforecast/timeseries"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func dailySeries(t *testing.T, name string, start time.Time, values []float64) *timeseries.Series {
	t.Helper()
	times := make([]time.Time, len(values))
	for i := range values {
		times[i] = start.AddDate(0, 0, i)
	}
	s, err := timeseries.NewWithTimestamps(name, times, values)
	require.NoError(t, err)
	return s
}

func TestLines_WritesPNG(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	r := NewRenderer(dir, 6, 3)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	prices := dailySeries(t, "price", start, []float64{42000, 42500, 41800, 43000})

	path, err := r.Lines("price", Labels{Title: "Bitcoin Price Over Time", X: "Date", Y: "Price (USD)"},
		Line{Name: "Price", Series: prices})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "price.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic), "output should be a PNG image")
}

func TestLines_Overlay(t *testing.T) {
	r := NewRenderer(t.TempDir(), 6, 3)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	history := dailySeries(t, "price", start, []float64{1, 2, 3, 4})
	forecast := dailySeries(t, "forecast", start.AddDate(0, 0, 4), []float64{4.5, 5, 5.5})

	path, err := r.Lines("forecast", Labels{Title: "Bitcoin Price Forecast"},
		Line{Name: "Historical", Series: history},
		Line{Name: "Forecast", Series: forecast, Color: Red})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestLines_Errors(t *testing.T) {
	r := NewRenderer(t.TempDir(), 6, 3)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := r.Lines("", Labels{}, Line{Series: dailySeries(t, "x", start, []float64{1})})
	assert.ErrorIs(t, err, ErrEmptyTitle)

	_, err = r.Lines("none", Labels{})
	assert.ErrorIs(t, err, ErrNoLines)

	_, err = r.Lines("empty", Labels{}, Line{Name: "empty", Series: timeseries.New(nil)})
	assert.ErrorIs(t, err, ErrEmptyLine)

	_, err = r.Lines("nan", Labels{}, Line{Name: "nan", Series: dailySeries(t, "x", start, []float64{1, math.NaN()})})
	assert.ErrorIs(t, err, ErrNonFinite)
}

package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/btcforecast/internal/pipeline"
	"github.com/sartorproj/btcforecast/timeseries"
)

func TestFileSource_TrimsToDays(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, 10)
	values := make([]float64, 10)
	for i := range times {
		times[i] = start.AddDate(0, 0, i)
		values[i] = 100 + float64(i)
	}
	s, err := timeseries.NewWithTimestamps("btc", times, values)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, timeseries.SaveCSV(s, path))

	got, err := pipeline.FileSource{Path: path}.MarketChart(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, "price", got.Name)
	assert.Equal(t, []float64{106, 107, 108, 109}, got.Values)
	assert.Equal(t, times[6], got.Timestamps[0])
}

func TestFileSource_Errors(t *testing.T) {
	missing := pipeline.FileSource{Path: filepath.Join(t.TempDir(), "missing.csv")}
	_, err := missing.MarketChart(context.Background(), 60)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = missing.MarketChart(context.Background(), 0)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = missing.MarketChart(ctx, 60)
	assert.ErrorIs(t, err, context.Canceled)
}

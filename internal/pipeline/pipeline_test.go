package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sartorproj/btcforecast/arima"
	"github.com/sartorproj/btcforecast/internal/chart"
	"github.com/sartorproj/btcforecast/internal/config"
	"github.com/sartorproj/btcforecast/internal/pipeline"
	"github.com/sartorproj/btcforecast/internal/report"
	"github.com/sartorproj/btcforecast/timeseries"
)

type fakeSource struct {
	series *timeseries.Series
	err    error
	days   int
}

func (f *fakeSource) MarketChart(_ context.Context, days int) (*timeseries.Series, error) {
	f.days = days
	return f.series, f.err
}

type chartCall struct {
	name   string
	labels chart.Labels
	lines  []chart.Line
}

type fakeCharter struct {
	calls  []chartCall
	failOn string
}

func (f *fakeCharter) Lines(name string, labels chart.Labels, lines ...chart.Line) (string, error) {
	if name == f.failOn {
		return "", errors.New("disk full")
	}
	f.calls = append(f.calls, chartCall{name: name, labels: labels, lines: lines})
	return "charts/" + name + ".png", nil
}

// hourlyPrices mimics a 60 day market chart: hourly points around 60k.
func hourlyPrices(t *testing.T, n int, seed int64) *timeseries.Series {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, n)
	values := make([]float64, n)
	price := 60000.0
	for i := range values {
		times[i] = start.Add(time.Duration(i) * time.Hour)
		price += rng.NormFloat64() * 150
		values[i] = price
	}
	s, err := timeseries.NewWithTimestamps("price", times, values)
	require.NoError(t, err)
	return s
}

func defaultAnalysis() config.AnalysisConfig {
	return config.Default().Analysis
}

func TestRun_EndToEnd(t *testing.T) {
	source := &fakeSource{series: hourlyPrices(t, 200, 1)}
	charter := &fakeCharter{}
	var out bytes.Buffer

	p := pipeline.New(defaultAnalysis(), source, charter, report.NewConsoleWriter(&out), zaptest.NewLogger(t))
	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 60, source.days)

	// Two rows lost: one to the percentage change, one to the difference.
	assert.Equal(t, 198, res.Frame.Len())
	assert.Equal(t, []string{pipeline.ColPrice, pipeline.ColChangePct, pipeline.ColDiff}, res.Frame.Columns())
	for _, cc := range res.Frame.MissingCounts() {
		assert.Zero(t, cc.Missing, "column %s", cc.Column)
	}

	assert.LessOrEqual(t, res.Summary.Min, res.Summary.Median)
	assert.LessOrEqual(t, res.Summary.Median, res.Summary.Max)

	require.NotNil(t, res.PriceADF)
	require.NotNil(t, res.DiffADF)
	assert.Less(t, res.DiffADF.PValue, 0.05, "differenced random walk should be stationary")
	assert.GreaterOrEqual(t, res.SuggestedD, 0)
	assert.LessOrEqual(t, res.SuggestedD, 2)

	require.NotNil(t, res.Model)
	assert.Equal(t, arima.Order{P: 5, D: 1, Q: 0}, res.Model.Order)

	require.Equal(t, 10, res.Forecast.Len())
	history, err := res.Frame.Column(pipeline.ColPrice)
	require.NoError(t, err)
	last, _, _ := history.Last()
	for i, ts := range res.Forecast.Timestamps {
		assert.Equal(t, last.AddDate(0, 0, i+1), ts)
		assert.False(t, math.IsNaN(res.Forecast.Values[i]))
	}

	require.Len(t, charter.calls, 3)
	assert.Equal(t, "price", charter.calls[0].name)
	assert.Equal(t, "Bitcoin Price Over Time", charter.calls[0].labels.Title)
	assert.Equal(t, "price_change_pct", charter.calls[1].name)
	assert.Equal(t, "Bitcoin Daily Percentage Change", charter.calls[1].labels.Title)
	assert.Equal(t, "forecast", charter.calls[2].name)
	require.Len(t, charter.calls[2].lines, 2)
	assert.Equal(t, chart.Red, charter.calls[2].lines[1].Color)
	assert.Equal(t, []string{"charts/price.png", "charts/price_change_pct.png", "charts/forecast.png"}, res.Charts)

	text := out.String()
	for _, want := range []string{
		"Missing values in the data:",
		"Average price: $",
		"Median price: $",
		"Maximum price: $",
		"Minimum price: $",
		"ADF Statistic:",
		"After differencing:",
		"Forecasted Prices:",
	} {
		assert.Contains(t, text, want)
	}
	assert.Less(t, strings.Index(text, "Average price"), strings.Index(text, "ADF Statistic"))
	assert.Less(t, strings.Index(text, "After differencing:"), strings.Index(text, "Forecasted Prices:"))
	assert.Equal(t, 2, strings.Count(text, "ADF Statistic:"))
}

func TestRun_DropsMissingPrices(t *testing.T) {
	series := hourlyPrices(t, 120, 2)
	series.Values[50] = math.NaN()
	charter := &fakeCharter{}
	var out bytes.Buffer

	p := pipeline.New(defaultAnalysis(), &fakeSource{series: series}, charter, report.NewConsoleWriter(&out), zaptest.NewLogger(t))
	res, err := p.Run(context.Background())
	require.NoError(t, err)

	// Row 0, the null row and the row after it lose their percentage change,
	// then differencing drops the new first row.
	assert.Equal(t, 116, res.Frame.Len())
	assert.Contains(t, out.String(), "price    1")
	assert.Equal(t, 10, res.Forecast.Len())
}

func TestRun_FetchError(t *testing.T) {
	source := &fakeSource{err: context.DeadlineExceeded}
	charter := &fakeCharter{}

	p := pipeline.New(defaultAnalysis(), source, charter, report.NewConsoleWriter(&bytes.Buffer{}), nil)
	_, err := p.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, strings.HasPrefix(err.Error(), "fetch:"))
	assert.Empty(t, charter.calls)
}

func TestRun_ChartError(t *testing.T) {
	charter := &fakeCharter{failOn: "price_change_pct"}
	var out bytes.Buffer

	p := pipeline.New(defaultAnalysis(), &fakeSource{series: hourlyPrices(t, 100, 3)}, charter, report.NewConsoleWriter(&out), nil)
	_, err := p.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "visualize")
	assert.NotContains(t, out.String(), "ADF Statistic:", "no step after a failure should run")
}

func TestRun_EmptyAfterPreprocess(t *testing.T) {
	series := hourlyPrices(t, 1, 4)

	p := pipeline.New(defaultAnalysis(), &fakeSource{series: series}, &fakeCharter{}, report.NewConsoleWriter(&bytes.Buffer{}), nil)
	_, err := p.Run(context.Background())

	assert.ErrorIs(t, err, timeseries.ErrEmptySeries)
}

func TestRun_NotEnoughDataForModel(t *testing.T) {
	cfg := defaultAnalysis()
	cfg.Order = config.OrderConfig{P: 5, D: 1, Q: 5}

	p := pipeline.New(cfg, &fakeSource{series: hourlyPrices(t, 20, 5)}, &fakeCharter{}, report.NewConsoleWriter(&bytes.Buffer{}), zaptest.NewLogger(t))
	_, err := p.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, arima.ErrInsufficientData)
	assert.Contains(t, err.Error(), "forecast")
}

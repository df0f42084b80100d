// Package pipeline runs the price analysis from fetch to forecast.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sartorproj/btcforecast/arima"
	"github.com/sartorproj/btcforecast/internal/chart"
	"github.com/sartorproj/btcforecast/internal/config"
	"github.com/sartorproj/btcforecast/internal/report"
	"github.com/sartorproj/btcforecast/stats"
	"github.com/sartorproj/btcforecast/timeseries"
)

// Column names of the working frame.
const (
	ColPrice     = "price"
	ColChangePct = "price_change_pct"
	ColDiff      = "price_diff"
)

// PriceSource provides the raw price history.
type PriceSource interface {
	MarketChart(ctx context.Context, days int) (*timeseries.Series, error)
}

// Charter renders line charts and returns where they were written.
type Charter interface {
	Lines(name string, labels chart.Labels, lines ...chart.Line) (string, error)
}

// Result holds everything a run produced.
type Result struct {
	Frame    *timeseries.Frame // price, price_change_pct and price_diff, no missing rows
	Summary  timeseries.Summary
	PriceADF *stats.ADFResult
	DiffADF  *stats.ADFResult
	// SuggestedD is the differencing order the ADF test supports; the
	// configured order is used regardless.
	SuggestedD int
	Model    *arima.Summary
	Forecast *timeseries.Series
	Charts   []string
}

// Pipeline executes the steps in a fixed order. Any failing step aborts the run.
type Pipeline struct {
	cfg     config.AnalysisConfig
	source  PriceSource
	charter Charter
	console *report.Console
	log     *zap.Logger
}

func New(cfg config.AnalysisConfig, source PriceSource, charter Charter, console *report.Console, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, source: source, charter: charter, console: console, log: log}
}

// Run fetches, preprocesses, describes, charts, tests and forecasts.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{}

	// 1. Fetch
	p.log.Info("fetching prices", zap.Int("days", p.cfg.Days))
	raw, err := p.source.MarketChart(ctx, p.cfg.Days)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if first, last, ok := bounds(raw); ok {
		p.log.Info("fetched prices", zap.Int("points", raw.Len()), zap.Time("from", first), zap.Time("to", last))
	}

	// 2. Preprocess
	frame, err := p.preprocess(raw)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	price, err := frame.Column(ColPrice)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}

	// 3. Describe
	res.Summary, err = timeseries.Describe(price)
	if err != nil {
		return nil, fmt.Errorf("describe: %w", err)
	}
	p.console.Summary(res.Summary)

	// 4. Visualize
	if err := p.chartPrices(frame, res); err != nil {
		return nil, fmt.Errorf("visualize: %w", err)
	}

	// 5. Stationarity of the raw prices
	res.PriceADF, err = p.stationarity(price)
	if err != nil {
		return nil, fmt.Errorf("stationarity: %w", err)
	}

	// 6. Difference and test again
	frame, err = frame.WithColumn(ColDiff, price.Diff())
	if err != nil {
		return nil, fmt.Errorf("difference: %w", err)
	}
	frame = frame.DropNaN()
	res.Frame = frame

	diff, err := frame.Column(ColDiff)
	if err != nil {
		return nil, fmt.Errorf("difference: %w", err)
	}
	p.console.Heading("After differencing:")
	res.DiffADF, err = p.stationarity(diff)
	if err != nil {
		return nil, fmt.Errorf("stationarity after differencing: %w", err)
	}

	res.SuggestedD = p.suggestOrder(price)

	// 7. Forecast
	history, err := frame.Column(ColPrice)
	if err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}
	if err := p.forecast(history, res); err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}

	p.log.Info("run complete", zap.Strings("charts", res.Charts), zap.Int("forecast_steps", res.Forecast.Len()))
	return res, nil
}

// preprocess reports missing prices, adds the percentage change column and
// drops incomplete rows.
func (p *Pipeline) preprocess(raw *timeseries.Series) (*timeseries.Frame, error) {
	raw = raw.Copy()
	raw.Name = ColPrice

	frame, err := timeseries.NewFrame(raw)
	if err != nil {
		return nil, err
	}
	p.console.MissingValues(frame.MissingCounts())

	frame, err = frame.WithColumn(ColChangePct, raw.PctChange())
	if err != nil {
		return nil, err
	}
	before := frame.Len()
	frame = frame.DropNaN()
	p.log.Debug("dropped incomplete rows", zap.Int("before", before), zap.Int("after", frame.Len()))

	if frame.Len() == 0 {
		return nil, timeseries.ErrEmptySeries
	}
	return frame, nil
}

func (p *Pipeline) chartPrices(frame *timeseries.Frame, res *Result) error {
	price, err := frame.Column(ColPrice)
	if err != nil {
		return err
	}
	pct, err := frame.Column(ColChangePct)
	if err != nil {
		return err
	}

	path, err := p.charter.Lines(ColPrice,
		chart.Labels{Title: "Bitcoin Price Over Time", X: "Date", Y: "Price (USD)"},
		chart.Line{Name: "Bitcoin Price", Series: price})
	if err != nil {
		return err
	}
	res.Charts = append(res.Charts, path)

	path, err = p.charter.Lines(ColChangePct,
		chart.Labels{Title: "Bitcoin Daily Percentage Change", X: "Date", Y: "Percentage Change (%)"},
		chart.Line{Name: "Daily Percentage Change", Series: pct})
	if err != nil {
		return err
	}
	res.Charts = append(res.Charts, path)

	p.log.Debug("rendered charts", zap.Strings("paths", res.Charts))
	return nil
}

func (p *Pipeline) stationarity(s *timeseries.Series) (*stats.ADFResult, error) {
	r, err := stats.ADF(s, 0)
	if err != nil {
		return nil, err
	}
	p.console.Stationarity(r, p.cfg.Significance)
	p.log.Debug("adf",
		zap.String("series", s.Name),
		zap.Float64("statistic", r.Statistic),
		zap.Float64("p_value", r.PValue),
		zap.Int("lags", r.Lags),
		zap.Bool("stationary", r.StationaryAt(p.cfg.Significance)),
	)
	return r, nil
}

func (p *Pipeline) suggestOrder(price *timeseries.Series) int {
	d, err := stats.NDiffs(price, p.cfg.Significance, 2)
	if err != nil {
		p.log.Warn("could not estimate differencing order", zap.Error(err))
		return p.cfg.Order.D
	}
	if d != p.cfg.Order.D {
		p.log.Warn("configured differencing order differs from ADF suggestion",
			zap.Int("configured_d", p.cfg.Order.D), zap.Int("suggested_d", d))
	} else {
		p.log.Debug("differencing order confirmed", zap.Int("d", d))
	}
	return d
}

func (p *Pipeline) forecast(history *timeseries.Series, res *Result) error {
	o := p.cfg.Order
	model := arima.New(o.P, o.D, o.Q)
	p.log.Info("fitting model", zap.Stringer("order", model.Order), zap.Int("observations", history.Len()))
	if err := model.Fit(history); err != nil {
		return err
	}
	res.Model = model.Summary()
	if err := p.console.Model(res.Model); err != nil {
		return err
	}

	forecast, err := model.Forecast(p.cfg.Horizon)
	if err != nil {
		return err
	}
	res.Forecast = forecast

	path, err := p.charter.Lines("forecast",
		chart.Labels{Title: "Bitcoin Price Forecast", X: "Date", Y: "Price (USD)"},
		chart.Line{Name: "Historical Price", Series: history},
		chart.Line{Name: "Forecasted Price", Series: forecast, Color: chart.Red})
	if err != nil {
		return err
	}
	res.Charts = append(res.Charts, path)

	return p.console.Forecast(forecast)
}

func bounds(s *timeseries.Series) (first, last time.Time, ok bool) {
	if s.Len() == 0 {
		return first, last, false
	}
	return s.Timestamps[0], s.Timestamps[s.Len()-1], true
}

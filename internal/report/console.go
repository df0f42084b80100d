// Package report prints the analysis results for an operator.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/sartorproj/btcforecast/arima"
	"github.com/sartorproj/btcforecast/stats"
	"github.com/sartorproj/btcforecast/timeseries"
)

// Console writes plain-text reports.
type Console struct {
	out io.Writer
}

// NewConsole creates a console writing to stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter creates a console writing to w.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Heading prints a blank line followed by text.
func (c *Console) Heading(text string) {
	fmt.Fprintf(c.out, "\n%s\n", text)
}

// MissingValues prints the number of missing values per column.
func (c *Console) MissingValues(counts []timeseries.ColumnCount) {
	fmt.Fprintln(c.out, "Missing values in the data:")
	width := 0
	for _, cc := range counts {
		width = max(width, len(cc.Column))
	}
	for _, cc := range counts {
		fmt.Fprintf(c.out, "%-*s    %d\n", width, cc.Column, cc.Missing)
	}
}

// Summary prints the descriptive statistics of the price series.
func (c *Console) Summary(s timeseries.Summary) {
	fmt.Fprintf(c.out, "Average price: $%s\n", Money(s.Mean))
	fmt.Fprintf(c.out, "Median price: $%s\n", Money(s.Median))
	fmt.Fprintf(c.out, "Maximum price: $%s\n", Money(s.Max))
	fmt.Fprintf(c.out, "Minimum price: $%s\n", Money(s.Min))
}

// Stationarity prints an ADF result and its verdict at level alpha.
func (c *Console) Stationarity(r *stats.ADFResult, alpha float64) {
	fmt.Fprintf(c.out, "ADF Statistic: %v\n", r.Statistic)
	fmt.Fprintf(c.out, "p-value: %v\n", r.PValue)

	if len(r.CriticalVals) > 0 {
		levels := make([]string, 0, len(r.CriticalVals))
		for level := range r.CriticalVals {
			levels = append(levels, level)
		}
		sort.Slice(levels, func(i, j int) bool { return percent(levels[i]) < percent(levels[j]) })

		fmt.Fprintln(c.out, "Critical Values:")
		for _, level := range levels {
			fmt.Fprintf(c.out, "   %s: %.3f\n", level, r.CriticalVals[level])
		}
	}

	if r.StationaryAt(alpha) {
		fmt.Fprintln(c.out, "The time series is stationary.")
	} else {
		fmt.Fprintln(c.out, "The time series is not stationary.")
	}
}

// Model prints the fitted model parameters and residual diagnostics.
func (c *Console) Model(s *arima.Summary) error {
	if s == nil {
		return nil
	}
	fmt.Fprintf(c.out, "\n%s  (observations: %d)\n", s.Order, s.NObs)

	rows := make([][]string, 0, len(s.ARCoeffs)+len(s.MACoeffs)+2)
	if s.Order.D == 0 {
		rows = append(rows, []string{"const", formatFloat(s.Intercept)})
	}
	for i, phi := range s.ARCoeffs {
		rows = append(rows, []string{fmt.Sprintf("ar.L%d", i+1), formatFloat(phi)})
	}
	for i, theta := range s.MACoeffs {
		rows = append(rows, []string{fmt.Sprintf("ma.L%d", i+1), formatFloat(theta)})
	}
	rows = append(rows, []string{"sigma2", formatFloat(s.Variance)})

	table := tablewriter.NewWriter(c.out)
	table.Header("Parameter", "Estimate")
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("model table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("model table: %w", err)
	}

	fmt.Fprintf(c.out, "Log Likelihood: %.3f  AIC: %.3f  AICc: %.3f  BIC: %.3f\n", s.LogLik, s.AIC, s.AICc, s.BIC)
	if lb := s.LjungBox; lb != nil {
		fmt.Fprintf(c.out, "Ljung-Box (L%d): Q=%.3f  p-value=%.4f\n", lb.Lags, lb.Statistic, lb.PValue)
	}
	return nil
}

// Forecast prints the forecast as a Date / Forecasted Price table.
func (c *Console) Forecast(f *timeseries.Series) error {
	fmt.Fprintln(c.out, "\nForecasted Prices:")

	table := tablewriter.NewWriter(c.out)
	table.Header("", "Date", "Forecasted Price")
	for i, v := range f.Values {
		err := table.Append(
			strconv.Itoa(i),
			f.Timestamps[i].Format("2006-01-02 15:04:05"),
			"$"+Money(v),
		)
		if err != nil {
			return fmt.Errorf("forecast table row %d: %w", i, err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("forecast table: %w", err)
	}
	return nil
}

// Money formats v with exactly two decimals. It rounds the exact binary
// value, ties to even, so 2.675 (stored as 2.67499...) prints as 2.67.
func Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	// An exponent below any float64's keeps every binary digit.
	return decimal.NewFromFloatWithExponent(v, -1100).RoundBank(2).StringFixed(2)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// percent parses "5%" as 5 for ordering critical value levels.
func percent(level string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(level, "%"), 64)
	if err != nil {
		return math.Inf(1)
	}
	return v
}

// Package timeseries provides time series data structures and utilities.
//
// # Creating a Series
//
// Create a time series from a slice, or with explicit timestamps:
//
//	series := timeseries.New([]float64{100, 102, 101, 105, 107})
//	prices, err := timeseries.NewWithTimestamps("price", times, values)
//
// NewWithTimestamps rejects timestamps that are not strictly increasing.
//
// # Basic Statistics
//
//	summary, err := timeseries.Describe(series) // mean, median, max, min
//
// # Transformations
//
// Every transformation returns a new Series:
//
//	diff := series.Diff()          // p[i] - p[i-1]
//	pct := series.PctChange()      // (p[i] - p[i-1]) / p[i-1] * 100
//	clean := series.DropNaN()
//
// # Frames
//
// A Frame keeps several columns aligned on one timestamp index:
//
//	f, _ := timeseries.NewFrame(prices)
//	f, _ = f.WithColumn("price_change_pct", prices.PctChange())
//	f = f.DropNaN() // rows with any NaN are removed
//	price, _ := f.Column("price")
//
// # CSV
//
// ReadCSV and WriteCSV exchange two column timestamp,value tables:
//
//	prices, err := timeseries.LoadCSV("prices.csv")
//	err = timeseries.SaveCSV(forecast, "charts/forecast.csv")
package timeseries

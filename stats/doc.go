// Package stats provides statistical tests and analysis functions for time series.
//
// # Stationarity
//
// Augmented Dickey-Fuller test with a constant; the lag length is picked by AIC:
//
//	// H0: series has a unit root (non-stationary)
//	adf, err := stats.ADF(series, 0)
//	fmt.Printf("ADF: stat=%.4f, p=%.4f, stationary=%v\n",
//	    adf.Statistic, adf.PValue, adf.IsStationary)
//
// IsStationary uses DefaultSignificance (0.05, inclusive); StationaryAt takes
// any other level. NDiffs repeats the test on successive differences:
//
//	d, err := stats.NDiffs(series, 0.05, 2)
//
// # Autocorrelation
//
//	acf := stats.ACF(series, 20)
//
// # Residual Diagnostics
//
//	lb := stats.LjungBox(residuals, 10, p+q)
//	if lb != nil && lb.PValue > 0.05 {
//	    // Residuals are white noise
//	}
package stats

// Package arima implements AutoRegressive Integrated Moving Average (ARIMA) models.
//
// An ARIMA(p,d,q) model combines:
//   - AR(p): AutoRegressive component with p lags
//   - I(d): Integration (differencing) of order d
//   - MA(q): Moving Average component with q lags
//
// Parameters are estimated by minimising the conditional sum of squares with a
// Nelder-Mead search started from Yule-Walker estimates. Differenced models
// (d > 0) carry no constant term.
//
// # Basic Usage
//
//	model := arima.New(5, 1, 0)
//	if err := model.Fit(prices); err != nil {
//	    return err
//	}
//
//	// Ten forecasts stamped on the days after the last observation
//	forecast, err := model.Forecast(10)
//
//	summary := model.Summary()
//	fmt.Printf("AIC: %.2f, BIC: %.2f\n", summary.AIC, summary.BIC)
//
// # Residual Analysis
//
// Summary runs a Ljung-Box test on the conditional residuals:
//
//	if lb := summary.LjungBox; lb != nil && lb.PValue < 0.05 {
//	    // residuals are still autocorrelated
//	}
package arima

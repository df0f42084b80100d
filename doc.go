// Package btcforecast fetches recent Bitcoin prices, describes and charts them,
// tests them for stationarity and produces a short ARIMA forecast.
//
// The btcforecast command runs the whole analysis once:
//
//	btcforecast -config config.yaml
//
// # Steps
//
//  1. Fetch the price history from the CoinGecko market_chart endpoint.
//  2. Report missing values, add the percentage change and drop incomplete rows.
//  3. Print mean, median, maximum and minimum price.
//  4. Chart the prices and the percentage change.
//  5. Run the Augmented Dickey-Fuller test on the prices.
//  6. Difference the prices and run the test again.
//  7. Fit ARIMA(5,1,0) and forecast the next 10 days, then chart and print the forecast.
//
// # Packages
//
//   - timeseries: Series and Frame types, differencing, percentage change, CSV
//   - stats: ADF test, ACF, Ljung-Box, information criteria
//   - arima: non-seasonal ARIMA models fitted by conditional sum of squares
//   - internal/coingecko: market data client
//   - internal/chart: PNG line charts
//   - internal/report: console output
//   - internal/pipeline: the run itself
//
// # References
//
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - MacKinnon, J.G. (1994). Approximate asymptotic distribution functions for unit-root
//     and cointegration tests
//   - MacKinnon, J.G. (2010). Critical values for cointegration tests
package btcforecast

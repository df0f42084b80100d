package arima

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/sartorproj/btcforecast/stats"
	"github.com/sartorproj/btcforecast/timeseries"
)

var (
	ErrInsufficientData = errors.New("insufficient data points for the specified order")
	ErrNonFinite        = errors.New("series contains non-finite values")
	ErrNotFitted        = errors.New("model must be fitted before prediction")
	ErrInvalidSteps     = errors.New("steps must be at least 1")
	ErrFitFailed        = errors.New("optimizer did not converge to a finite solution")
)

// Order represents ARIMA model order (p, d, q).
type Order struct {
	P int // AR order (number of autoregressive terms)
	D int // Differencing order
	Q int // MA order (number of moving average terms)
}

func (o Order) String() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
}

// Model represents an ARIMA model.
type Model struct {
	Order      Order
	ARCoeffs   []float64 // AR coefficients (phi)
	MACoeffs   []float64 // MA coefficients (theta)
	Intercept  float64   // Mean of the differenced series; fixed at 0 when D > 0
	Variance   float64   // Residual variance
	AIC        float64
	AICc       float64 // Corrected AIC for small sample sizes
	BIC        float64
	LogLik     float64
	fitted     bool
	levels     []*timeseries.Series // data, then each differencing step before the last
	data       *timeseries.Series
	diffData   *timeseries.Series
	residuals  []float64
	fittedVals []float64
}

// New creates a new ARIMA model with the specified order.
func New(p, d, q int) *Model {
	return &Model{
		Order:    Order{P: p, D: d, Q: q},
		ARCoeffs: make([]float64, p),
		MACoeffs: make([]float64, q),
	}
}

// hasMean reports whether the model estimates a mean term. Differenced models
// carry no constant.
func (m *Model) hasMean() bool {
	return m.Order.D == 0
}

// Fit fits the ARIMA model to the given time series data.
func (m *Model) Fit(series *timeseries.Series) error {
	for i, v := range series.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("fit %s: %w (index %d)", m.Order, ErrNonFinite, i)
		}
	}
	if need := m.Order.P + m.Order.Q + m.Order.D + 10; series.Len() < need {
		return fmt.Errorf("fit %s: %w: need %d, got %d", m.Order, ErrInsufficientData, need, series.Len())
	}

	// The previous fit is discarded from here on, even if this one fails.
	m.fitted = false
	m.data = series

	// Apply differencing
	m.levels = m.levels[:0]
	diffSeries := series
	for i := 0; i < m.Order.D; i++ {
		m.levels = append(m.levels, diffSeries)
		diffSeries = diffSeries.Diff()
	}
	m.diffData = diffSeries

	if err := m.fitCSS(); err != nil {
		return fmt.Errorf("fit %s: %w", m.Order, err)
	}

	m.calculateIC()

	m.fitted = true
	return nil
}

// fitCSS fits the model using Conditional Sum of Squares estimation.
func (m *Model) fitCSS() error {
	y := m.diffData.Values
	p := m.Order.P
	q := m.Order.Q

	m.Intercept = 0
	if m.hasMean() {
		m.Intercept = m.diffData.Mean()
	}

	if p == 0 && q == 0 {
		m.finish(y)
		return nil
	}

	// Use Yule-Walker for initial AR estimates
	clear(m.ARCoeffs)
	if p > 0 {
		if acf := stats.ACF(m.diffData, p); acf != nil {
			if phi := yuleWalker(acf, p); phi != nil {
				copy(m.ARCoeffs, phi)
			}
		}
	}
	for i := range m.MACoeffs {
		m.MACoeffs[i] = 0.1
	}

	if err := m.optimizeCSS(y); err != nil {
		return err
	}

	m.finish(y)
	return nil
}

// params packs the free parameters: AR, MA and, for undifferenced models, the
// mean. AR and MA coefficients are mapped to unconstrained values through
// their partial autocorrelations, so every point the optimizer visits is a
// stationary and invertible model.
func (m *Model) params() []float64 {
	x := make([]float64, 0, m.Order.P+m.Order.Q+1)
	x = append(x, unconstrain(m.ARCoeffs)...)
	x = append(x, unconstrain(negate(m.MACoeffs))...)
	if m.hasMean() {
		x = append(x, m.Intercept)
	}
	return x
}

func (m *Model) setParams(x []float64) {
	p, q := m.Order.P, m.Order.Q
	copy(m.ARCoeffs, constrain(x[:p]))
	copy(m.MACoeffs, negate(constrain(x[p:p+q])))
	if m.hasMean() {
		m.Intercept = x[p+q]
	}
}

// optimizeCSS minimises the conditional sum of squares with Nelder-Mead.
func (m *Model) optimizeCSS(y []float64) error {
	p, q := m.Order.P, m.Order.Q
	withMean := m.hasMean()
	resid := make([]float64, len(y))

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			mu := 0.0
			if withMean {
				mu = x[p+q]
			}
			ar := constrain(x[:p])
			ma := negate(constrain(x[p : p+q]))
			return css(y, ar, ma, mu, resid)
		},
	}

	result, err := optimize.Minimize(problem, m.params(), &optimize.Settings{MajorIterations: 5000}, &optimize.NelderMead{})
	if result == nil || math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		if err != nil {
			return fmt.Errorf("%w: %v", ErrFitFailed, err)
		}
		return ErrFitFailed
	}

	m.setParams(result.X)
	return nil
}

// constrain maps unconstrained values to the coefficients of a stationary AR
// polynomial: tanh gives partial autocorrelations in (-1, 1), which the
// Durbin-Levinson recursion turns into coefficients.
func constrain(u []float64) []float64 {
	phi := make([]float64, len(u))
	prev := make([]float64, len(u))
	for k := range u {
		r := math.Tanh(u[k])
		copy(prev, phi)
		phi[k] = r
		for j := 0; j < k; j++ {
			phi[j] = prev[j] - r*prev[k-1-j]
		}
	}
	return phi
}

// unconstrain inverts constrain. Coefficients outside the stationary region,
// or partial autocorrelations too close to +-1, are pulled back to +-0.95.
func unconstrain(phi []float64) []float64 {
	r, ok := pacfFromAR(phi)
	if !ok {
		r = make([]float64, len(phi))
	}
	u := make([]float64, len(r))
	for i, v := range r {
		u[i] = math.Atanh(math.Max(-0.95, math.Min(0.95, v)))
	}
	return u
}

// pacfFromAR returns the partial autocorrelations implied by AR coefficients.
// ok is false when the polynomial is not stationary.
func pacfFromAR(phi []float64) (r []float64, ok bool) {
	cur := append([]float64(nil), phi...)
	r = make([]float64, len(phi))
	for k := len(phi) - 1; k >= 0; k-- {
		rk := cur[k]
		if math.IsNaN(rk) || math.Abs(rk) >= 1 {
			return nil, false
		}
		r[k] = rk
		prev := make([]float64, k)
		for j := 0; j < k; j++ {
			prev[j] = (cur[j] + rk*cur[k-1-j]) / (1 - rk*rk)
		}
		cur = prev
	}
	return r, true
}

// negate maps MA coefficients to the AR form whose stationarity is the MA
// invertibility condition, and back.
func negate(c []float64) []float64 {
	out := make([]float64, len(c))
	for i, v := range c {
		out[i] = -v
	}
	return out
}

// css computes the conditional sum of squares and fills resid.
func css(y, ar, ma []float64, mu float64, resid []float64) float64 {
	start := max(len(ar), len(ma))
	sse := 0.0
	for t := range y {
		if t < start {
			resid[t] = 0
			continue
		}
		pred := mu
		for i, phi := range ar {
			pred += phi * (y[t-i-1] - mu)
		}
		for i, theta := range ma {
			pred += theta * resid[t-i-1]
		}
		resid[t] = y[t] - pred
		sse += resid[t] * resid[t]
	}
	return sse
}

// finish stores fitted values, residuals and variance for the current parameters.
func (m *Model) finish(y []float64) {
	n := len(y)
	p, q := m.Order.P, m.Order.Q
	start := max(p, q)

	m.residuals = make([]float64, n)
	m.fittedVals = make([]float64, n)
	css(y, m.ARCoeffs, m.MACoeffs, m.Intercept, m.residuals)

	sse := 0.0
	for t := 0; t < n; t++ {
		if t < start {
			m.fittedVals[t] = m.Intercept
			m.residuals[t] = y[t] - m.Intercept
			continue
		}
		m.fittedVals[t] = y[t] - m.residuals[t]
		sse += m.residuals[t] * m.residuals[t]
	}

	count := n - start
	dof := count - m.numCoeffs()
	if dof > 0 {
		m.Variance = sse / float64(dof)
	} else {
		m.Variance = sse / float64(count)
	}
}

// numCoeffs is the number of estimated mean-equation parameters.
func (m *Model) numCoeffs() int {
	k := m.Order.P + m.Order.Q
	if m.hasMean() {
		k++
	}
	return k
}

// calculateIC calculates log-likelihood, AIC, AICc, and BIC on the conditional residuals.
func (m *Model) calculateIC() {
	start := max(m.Order.P, m.Order.Q)
	resid := m.residuals[start:]
	n := len(resid)

	sse := 0.0
	for _, r := range resid {
		sse += r * r
	}

	// A perfect fit has no finite likelihood; report NaN rather than infinities.
	if sse == 0 || n == 0 {
		nan := math.NaN()
		m.LogLik, m.AIC, m.AICc, m.BIC = nan, nan, nan, nan
		return
	}

	nf := float64(n)
	logLik := -nf/2*math.Log(2*math.Pi) - nf/2*math.Log(sse/nf) - nf/2

	// plus one for the innovation variance
	ic := stats.CalculateIC(logLik, n, m.numCoeffs()+1)
	m.LogLik = ic.LogLik
	m.AIC = ic.AIC
	m.AICc = ic.AICc
	m.BIC = ic.BIC
}

// Predict generates forecasts for the specified number of steps ahead.
func (m *Model) Predict(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}

	if steps < 1 {
		return nil, ErrInvalidSteps
	}

	p := m.Order.P
	q := m.Order.Q

	y := m.diffData.Values
	n := len(y)

	extY := make([]float64, n+steps)
	copy(extY, y)

	extResiduals := make([]float64, n+steps)
	copy(extResiduals, m.residuals)

	for h := 0; h < steps; h++ {
		t := n + h
		pred := m.Intercept

		for i := 0; i < p && t-i-1 >= 0; i++ {
			pred += m.ARCoeffs[i] * (extY[t-i-1] - m.Intercept)
		}

		// Future residuals have expectation 0
		for i := 0; i < q && t-i-1 >= 0 && t-i-1 < n; i++ {
			pred += m.MACoeffs[i] * extResiduals[t-i-1]
		}

		extY[t] = pred
	}

	forecasts := make([]float64, steps)
	copy(forecasts, extY[n:])

	return m.integrate(forecasts), nil
}

// integrate undoes differencing to return forecasts on original scale.
func (m *Model) integrate(forecasts []float64) []float64 {
	for k := len(m.levels) - 1; k >= 0; k-- {
		level := m.levels[k].Values
		prev := level[len(level)-1]
		for j := range forecasts {
			forecasts[j] += prev
			prev = forecasts[j]
		}
	}
	return forecasts
}

// Forecast predicts steps values and stamps them on consecutive calendar days
// following the last observation.
func (m *Model) Forecast(steps int) (*timeseries.Series, error) {
	values, err := m.Predict(steps)
	if err != nil {
		return nil, err
	}
	last, _, ok := m.data.Last()
	if !ok {
		return nil, ErrNotFitted
	}
	return timeseries.NewWithTimestamps("forecast", timeseries.DailyAfter(last, steps), values)
}

// Residuals returns the model residuals.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	result := make([]float64, len(m.residuals))
	copy(result, m.residuals)
	return result
}

// FittedValues returns the fitted values.
func (m *Model) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	result := make([]float64, len(m.fittedVals))
	copy(result, m.fittedVals)
	return result
}

// Summary describes a fitted model.
type Summary struct {
	Order     Order
	ARCoeffs  []float64
	MACoeffs  []float64
	Intercept float64
	Variance  float64
	AIC       float64
	AICc      float64 // Corrected AIC
	BIC       float64
	LogLik    float64
	NObs      int
	LjungBox  *stats.LjungBoxResult // nil when residuals are too short
}

// Summary returns a summary of the fitted model, or nil before Fit.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}

	start := max(m.Order.P, m.Order.Q)
	residSeries := timeseries.New(m.residuals[start:])
	lb := stats.LjungBox(residSeries, 10, m.Order.P+m.Order.Q)

	return &Summary{
		Order:     m.Order,
		ARCoeffs:  append([]float64(nil), m.ARCoeffs...),
		MACoeffs:  append([]float64(nil), m.MACoeffs...),
		Intercept: m.Intercept,
		Variance:  m.Variance,
		AIC:       m.AIC,
		AICc:      m.AICc,
		BIC:       m.BIC,
		LogLik:    m.LogLik,
		NObs:      m.data.Len(),
		LjungBox:  lb,
	}
}

// yuleWalker estimates AR coefficients using Yule-Walker equations
// solved by the Levinson-Durbin recursion.
func yuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return nil
	}

	phi := make([]float64, order)

	if order == 1 {
		phi[0] = acf[1]
		return phi
	}

	phi[0] = acf[1]
	v := 1 - phi[0]*phi[0]

	for i := 1; i < order; i++ {
		if v <= 0 {
			break
		}
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		lambda /= v

		newPhi := make([]float64, i+1)
		for j := 0; j < i; j++ {
			newPhi[j] = phi[j] - lambda*phi[i-1-j]
		}
		newPhi[i] = lambda
		copy(phi, newPhi)

		v *= (1 - lambda*lambda)
	}

	return phi
}

package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/btcforecast/timeseries"
)

// DefaultSignificance is the p-value threshold below or at which a series is
// reported as stationary.
const DefaultSignificance = 0.05

var (
	ErrInsufficientData = errors.New("insufficient data points")
	ErrSingularMatrix   = errors.New("regression matrix is singular")
	ErrNonFinite        = errors.New("series contains non-finite values")
)

// ADFResult represents the result of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic    float64
	PValue       float64
	Lags         int     // lagged differences used in the test regression
	NObs         int     // observations used in the test regression
	ICBest       float64 // AIC of the selected lag length
	CriticalVals map[string]float64
	IsStationary bool // PValue <= DefaultSignificance
}

// StationaryAt reports whether the unit-root null is rejected at level alpha.
// The boundary is inclusive.
func (r *ADFResult) StationaryAt(alpha float64) bool {
	return r.PValue <= alpha
}

// ADF performs the Augmented Dickey-Fuller test for a unit root, with a
// constant in the test regression.
// The null hypothesis is that the series has a unit root (is non-stationary).
//
// The number of lagged differences is chosen by AIC among 0..maxLag. When
// maxLag <= 0 it defaults to ceil(12*(n/100)^(1/4)); it is always capped at
// n/2-2.
func ADF(series *timeseries.Series, maxLag int) (*ADFResult, error) {
	x := series.Values
	n := len(x)
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrNonFinite
		}
	}

	if maxLag <= 0 {
		maxLag = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	maxLag = min(maxLag, n/2-2)
	if maxLag < 0 {
		return nil, fmt.Errorf("adf: %w: need at least 4 observations, got %d", ErrInsufficientData, n)
	}

	diff := series.Diff().Values

	// Select lag length on a common sample so the AIC values are comparable.
	commonObs := len(diff) - maxLag
	bestLag, bestIC := 0, math.Inf(1)
	for lag := 0; lag <= maxLag; lag++ {
		fit, err := adfRegression(x, diff, lag, commonObs)
		if err != nil {
			continue
		}
		if ic := fit.aic(); ic < bestIC {
			bestLag, bestIC = lag, ic
		}
	}
	if math.IsInf(bestIC, 1) {
		return nil, fmt.Errorf("adf: %w", ErrSingularMatrix)
	}

	// Re-run with the chosen lag on the largest available sample.
	nObs := len(diff) - bestLag
	fit, err := adfRegression(x, diff, bestLag, nObs)
	if err != nil {
		return nil, fmt.Errorf("adf: %w", err)
	}

	// Test statistic is t-stat for the lagged level coefficient
	tStat := fit.coeffs[1] / fit.stdErrors[1]
	pValue := mackinnonPValue(tStat)

	return &ADFResult{
		Statistic:    tStat,
		PValue:       pValue,
		Lags:         bestLag,
		NObs:         nObs,
		ICBest:       bestIC,
		CriticalVals: mackinnonCritical(nObs),
		IsStationary: pValue <= DefaultSignificance,
	}, nil
}

// adfRegression fits delta_y_t = alpha + beta*y_{t-1} + sum(gamma_i * delta_y_{t-i})
// on the last nObs differences.
func adfRegression(x, diff []float64, lags, nObs int) (*olsFit, error) {
	k := 2 + lags
	if nObs <= k {
		return nil, ErrInsufficientData
	}
	start := len(diff) - nObs

	design := mat.NewDense(nObs, k, nil)
	y := make([]float64, nObs)
	for i := 0; i < nObs; i++ {
		t := start + i
		y[i] = diff[t]
		design.Set(i, 0, 1)    // constant
		design.Set(i, 1, x[t]) // lagged level
		for j := 1; j <= lags; j++ {
			design.Set(i, 1+j, diff[t-j]) // lagged differences
		}
	}

	return olsRegression(design, y)
}

type olsFit struct {
	coeffs    []float64
	stdErrors []float64
	ssr       float64
	nObs      int
}

// aic matches the Gaussian log-likelihood form: -2*llf + 2*k.
func (f *olsFit) aic() float64 {
	n := float64(f.nObs)
	llf := -n/2*math.Log(2*math.Pi) - n/2*math.Log(f.ssr/n) - n/2
	return -2*llf + 2*float64(len(f.coeffs))
}

// olsRegression performs ordinary least squares regression of y on x.
func olsRegression(x *mat.Dense, y []float64) (*olsFit, error) {
	n, k := x.Dims()
	if n != len(y) || n <= k {
		return nil, ErrInsufficientData
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)

	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, ErrSingularMatrix
		}
	}

	yVec := mat.NewVecDense(n, y)
	var xty mat.VecDense
	xty.MulVec(x.T(), yVec)

	var beta mat.VecDense
	beta.MulVec(&xtxInv, &xty)

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	ssr := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		ssr += r * r
	}
	if ssr == 0 {
		return nil, ErrSingularMatrix
	}

	s2 := ssr / float64(n-k)
	coeffs := make([]float64, k)
	stdErrors := make([]float64, k)
	for i := 0; i < k; i++ {
		coeffs[i] = beta.AtVec(i)
		stdErrors[i] = math.Sqrt(s2 * xtxInv.At(i, i))
	}

	return &olsFit{coeffs: coeffs, stdErrors: stdErrors, ssr: ssr, nObs: n}, nil
}

// mackinnonPValue returns the p-value of an ADF statistic (constant, one
// variable) from the MacKinnon (1994) response surface.
func mackinnonPValue(stat float64) float64 {
	const (
		tauMax  = 2.74
		tauMin  = -18.83
		tauStar = -1.61
	)
	switch {
	case stat > tauMax:
		return 1
	case stat < tauMin:
		return 0
	}

	var z float64
	if stat <= tauStar {
		z = 2.1659 + 1.4412*stat + 0.038269*stat*stat
	} else {
		z = 1.7339 + 0.93202*stat - 0.12745*stat*stat - 0.010368*stat*stat*stat
	}
	return distuv.UnitNormal.CDF(z)
}

// mackinnonCritical returns the 1%, 5% and 10% critical values for a sample
// of nobs observations (MacKinnon 2010, constant only).
func mackinnonCritical(nobs int) map[string]float64 {
	surface := map[string][4]float64{
		"1%":  {-3.43035, -6.5393, -16.786, -79.433},
		"5%":  {-2.86154, -2.8903, -4.234, -40.040},
		"10%": {-2.56677, -1.5384, -2.809, 0},
	}
	inv := 1 / float64(nobs)
	out := make(map[string]float64, len(surface))
	for level, c := range surface {
		out[level] = c[0] + c[1]*inv + c[2]*inv*inv + c[3]*inv*inv*inv
	}
	return out
}

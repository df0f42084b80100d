package stats

import (
	"math"

	"github.com/sartorproj/btcforecast/timeseries"
)

// NDiffs returns the number of first differences, at most maxD, after which
// the ADF test rejects a unit root at level alpha. maxD <= 0 means 2.
// The search stops early when the differenced series becomes too short to test.
func NDiffs(series *timeseries.Series, alpha float64, maxD int) (int, error) {
	if maxD <= 0 {
		maxD = 2
	}

	current := series
	for d := 0; d < maxD; d++ {
		result, err := ADF(current, 0)
		if err != nil {
			if d == 0 {
				return 0, err
			}
			return d, nil
		}
		if result.StationaryAt(alpha) {
			return d, nil
		}
		current = current.Diff()
	}
	return maxD, nil
}

// InformationCriteria holds the likelihood based model selection criteria.
type InformationCriteria struct {
	AIC    float64
	AICc   float64
	BIC    float64
	LogLik float64
}

// CalculateIC calculates all information criteria.
// logLik is the log-likelihood, nObs is the number of observations,
// nParams is the number of estimated parameters.
func CalculateIC(logLik float64, nObs int, nParams int) *InformationCriteria {
	k := float64(nParams)
	n := float64(nObs)

	aic := -2*logLik + 2*k
	bic := -2*logLik + k*math.Log(n)

	var aicc float64
	if n-k-1 > 0 {
		aicc = aic + 2*k*(k+1)/(n-k-1)
	} else {
		aicc = math.Inf(1)
	}

	return &InformationCriteria{
		AIC:    aic,
		AICc:   aicc,
		BIC:    bic,
		LogLik: logLik,
	}
}

package timeseries

import "errors"

// ErrEmptySeries is returned when a statistic is requested on an empty series.
var ErrEmptySeries = errors.New("series is empty")

// Summary holds the descriptive statistics of a series.
type Summary struct {
	Mean   float64
	Median float64
	Max    float64
	Min    float64
}

// Describe computes mean, median, maximum and minimum of the series.
func Describe(s *Series) (Summary, error) {
	if s == nil || s.Len() == 0 {
		return Summary{}, ErrEmptySeries
	}
	return Summary{
		Mean:   s.Mean(),
		Median: s.Median(),
		Max:    s.Max(),
		Min:    s.Min(),
	}, nil
}

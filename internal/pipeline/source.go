package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sartorproj/btcforecast/timeseries"
)

// FileSource replays a price history saved as a timestamp,price CSV.
type FileSource struct {
	Path string
}

// MarketChart returns the rows of the last days days before the newest row.
func (f FileSource) MarketChart(ctx context.Context, days int) (*timeseries.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if days < 1 {
		return nil, fmt.Errorf("file source: days must be at least 1, got %d", days)
	}

	s, err := timeseries.LoadCSV(f.Path)
	if err != nil {
		return nil, fmt.Errorf("file source: %w", err)
	}
	s.Name = ColPrice

	last, _, _ := s.Last()
	cutoff := last.Add(-time.Duration(days) * 24 * time.Hour)
	start := 0
	for start < s.Len() && s.Timestamps[start].Before(cutoff) {
		start++
	}
	return &timeseries.Series{
		Timestamps: s.Timestamps[start:],
		Values:     s.Values[start:],
		Name:       s.Name,
	}, nil
}

// Package coingecko fetches historical market data from the CoinGecko public API.
package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sartorproj/btcforecast/timeseries"
)

const (
	DefaultBaseURL    = "https://api.coingecko.com/api/v3"
	DefaultCoinID     = "bitcoin"
	DefaultVsCurrency = "usd"
)

var (
	ErrInvalidDays        = errors.New("days must be at least 1")
	ErrMissingPrices      = errors.New("response has no prices field")
	ErrNoPrices           = errors.New("response contains no prices")
	ErrMalformedEntry     = errors.New("price entry is not a [timestamp, price] pair")
	ErrDuplicateTimestamp = errors.New("duplicate timestamp in prices")
)

// PricePoint is one [epoch_ms, price] pair of a market chart.
// Price is invalid when the API returned null.
type PricePoint struct {
	Time  time.Time
	Price decimal.NullDecimal
}

func (p *PricePoint) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil || len(raw) != 2 {
		return fmt.Errorf("%w: %s", ErrMalformedEntry, b)
	}

	var ms float64
	if err := json.Unmarshal(raw[0], &ms); err != nil {
		return fmt.Errorf("%w: timestamp %s", ErrMalformedEntry, raw[0])
	}
	p.Time = time.UnixMilli(int64(ms)).UTC()

	if err := json.Unmarshal(raw[1], &p.Price); err != nil {
		return fmt.Errorf("%w: price %s", ErrMalformedEntry, raw[1])
	}
	return nil
}

type marketChart struct {
	Prices *[]PricePoint `json:"prices"`
}

// Client is the CoinGecko HTTP client. It issues exactly one request per call:
// no retries, no rate limiting.
type Client struct {
	http       *http.Client
	baseURL    string
	coinID     string
	vsCurrency string
}

// NewClient creates a Client. Empty arguments fall back to the public API,
// bitcoin and usd.
func NewClient(baseURL, coinID, vsCurrency string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if coinID == "" {
		coinID = DefaultCoinID
	}
	if vsCurrency == "" {
		vsCurrency = DefaultVsCurrency
	}
	return &Client{
		http:       http.DefaultClient,
		baseURL:    baseURL,
		coinID:     coinID,
		vsCurrency: vsCurrency,
	}
}

// MarketChart returns the price history of the last days days as a series named
// "price", ordered by timestamp. Null prices are kept as NaN.
func (c *Client) MarketChart(ctx context.Context, days int) (*timeseries.Series, error) {
	points, err := c.Prices(ctx, days)
	if err != nil {
		return nil, err
	}

	times := make([]time.Time, len(points))
	values := make([]float64, len(points))
	for i, p := range points {
		times[i] = p.Time
		values[i] = math.NaN()
		if p.Price.Valid {
			values[i] = p.Price.Decimal.InexactFloat64()
		}
	}

	series, err := timeseries.NewWithTimestamps("price", times, values)
	if err != nil {
		return nil, fmt.Errorf("coingecko: %w", err)
	}
	return series, nil
}

// Prices fetches and decodes the raw price pairs, sorted ascending by time.
func (c *Client) Prices(ctx context.Context, days int) ([]PricePoint, error) {
	if days < 1 {
		return nil, fmt.Errorf("coingecko: %w, got %d", ErrInvalidDays, days)
	}

	u := fmt.Sprintf("%s/coins/%s/market_chart?%s", c.baseURL, url.PathEscape(c.coinID), url.Values{
		"vs_currency": {c.vsCurrency},
		"days":        {strconv.Itoa(days)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("coingecko: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coingecko fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("coingecko read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko: status %d, body: %s", resp.StatusCode, string(body))
	}

	return decode(body)
}

func decode(body []byte) ([]PricePoint, error) {
	var chart marketChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("coingecko decode: %w", err)
	}
	if chart.Prices == nil {
		return nil, fmt.Errorf("coingecko: %w", ErrMissingPrices)
	}
	points := *chart.Prices
	if len(points) == 0 {
		return nil, fmt.Errorf("coingecko: %w", ErrNoPrices)
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	for i := 1; i < len(points); i++ {
		if points[i].Time.Equal(points[i-1].Time) {
			return nil, fmt.Errorf("coingecko: %w: %s", ErrDuplicateTimestamp, points[i].Time.Format(time.RFC3339))
		}
	}
	return points, nil
}

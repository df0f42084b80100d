package coingecko_test

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/btcforecast/internal/coingecko"
)

func serve(t *testing.T, status int, body string) (*coingecko.Client, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return coingecko.NewClient(srv.URL, "", ""), &calls
}

func TestMarketChart_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/coins/bitcoin/market_chart", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "60", r.URL.Query().Get("days"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"prices": [
				[1700086400000, 36500.5],
				[1700000000000, 36000.25],
				[1700172800000, null]
			],
			"market_caps": [],
			"total_volumes": []
		}`))
	}))
	defer srv.Close()

	client := coingecko.NewClient(srv.URL, "", "")
	series, err := client.MarketChart(context.Background(), 60)
	require.NoError(t, err)

	require.Equal(t, 3, series.Len())
	assert.Equal(t, "price", series.Name)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), series.Timestamps[0])
	assert.InDelta(t, 36000.25, series.Values[0], 1e-9)
	assert.InDelta(t, 36500.5, series.Values[1], 1e-9)
	assert.True(t, math.IsNaN(series.Values[2]), "null price should be NaN")

	for i := 1; i < series.Len(); i++ {
		assert.True(t, series.Timestamps[i].After(series.Timestamps[i-1]))
	}
}

func TestPrices_KeepsDecimalPrecision(t *testing.T) {
	client, _ := serve(t, http.StatusOK, `{"prices": [[1700000000000, 36000.123456789]]}`)

	points, err := client.Prices(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, points, 1)
	require.True(t, points[0].Price.Valid)
	assert.Equal(t, "36000.123456789", points[0].Price.Decimal.String())
}

func TestMarketChart_InvalidDays(t *testing.T) {
	client, calls := serve(t, http.StatusOK, `{"prices": [[1, 2]]}`)

	for _, days := range []int{0, -5} {
		_, err := client.MarketChart(context.Background(), days)
		assert.ErrorIs(t, err, coingecko.ErrInvalidDays)
	}
	assert.Zero(t, *calls, "no request should be sent for invalid days")
}

func TestMarketChart_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{"server error", http.StatusInternalServerError, `oops`, nil, "status 500, body: oops"},
		{"rate limited", http.StatusTooManyRequests, `{"status":{"error_code":429}}`, nil, "status 429"},
		{"malformed json", http.StatusOK, `{"prices": [`, nil, "decode"},
		{"missing prices", http.StatusOK, `{"market_caps": []}`, coingecko.ErrMissingPrices, ""},
		{"null prices", http.StatusOK, `{"prices": null}`, coingecko.ErrMissingPrices, ""},
		{"empty prices", http.StatusOK, `{"prices": []}`, coingecko.ErrNoPrices, ""},
		{"short entry", http.StatusOK, `{"prices": [[1700000000000]]}`, coingecko.ErrMalformedEntry, ""},
		{"long entry", http.StatusOK, `{"prices": [[1, 2, 3]]}`, coingecko.ErrMalformedEntry, ""},
		{"not an array", http.StatusOK, `{"prices": [{"t": 1}]}`, coingecko.ErrMalformedEntry, ""},
		{"bad price", http.StatusOK, `{"prices": [[1700000000000, "abc"]]}`, coingecko.ErrMalformedEntry, ""},
		{"duplicate", http.StatusOK, `{"prices": [[1700000000000, 1], [1700000000000, 2]]}`, coingecko.ErrDuplicateTimestamp, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, calls := serve(t, tt.status, tt.body)

			_, err := client.MarketChart(context.Background(), 60)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
			assert.Equal(t, 1, *calls, "exactly one request, no retries")
		})
	}
}

func TestMarketChart_ContextCancelled(t *testing.T) {
	client, _ := serve(t, http.StatusOK, `{"prices": [[1, 2]]}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.MarketChart(ctx, 60)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewClient_CustomCoin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/ethereum/market_chart", r.URL.Path)
		assert.Equal(t, "eur", r.URL.Query().Get("vs_currency"))
		w.Write([]byte(`{"prices": [[1700000000000, 2000]]}`))
	}))
	defer srv.Close()

	series, err := coingecko.NewClient(srv.URL, "ethereum", "eur").MarketChart(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, series.Len())
}

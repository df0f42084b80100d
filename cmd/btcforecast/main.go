package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sartorproj/btcforecast/internal/chart"
	"github.com/sartorproj/btcforecast/internal/coingecko"
	"github.com/sartorproj/btcforecast/internal/config"
	"github.com/sartorproj/btcforecast/internal/logger"
	"github.com/sartorproj/btcforecast/internal/pipeline"
	"github.com/sartorproj/btcforecast/internal/report"
	"github.com/sartorproj/btcforecast/timeseries"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (optional)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	pricesPath := flag.String("prices", "", "read prices from a timestamp,price CSV instead of CoinGecko")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config %q: %v\n", *configPath, err)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}

	log, err := logger.New(cfg.Log, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	log = log.With(zap.String("run_id", uuid.NewString()))
	defer log.Sync()

	log.Info("btcforecast starting",
		zap.String("config", *configPath),
		zap.String("coin", cfg.API.CoinID),
		zap.Int("days", cfg.Analysis.Days),
		zap.Int("horizon", cfg.Analysis.Horizon),
		zap.String("chart_dir", cfg.Chart.OutputDir),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var source pipeline.PriceSource = coingecko.NewClient(cfg.API.BaseURL, cfg.API.CoinID, cfg.API.VsCurrency)
	if *pricesPath != "" {
		source = pipeline.FileSource{Path: *pricesPath}
	}

	p := pipeline.New(
		cfg.Analysis,
		source,
		chart.NewRenderer(cfg.Chart.OutputDir, cfg.Chart.WidthIn, cfg.Chart.HeightIn),
		report.NewConsole(),
		log,
	)

	res, err := p.Run(ctx)
	if err != nil {
		log.Error("run failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}

	path := filepath.Join(cfg.Chart.OutputDir, "forecast.csv")
	if err := timeseries.SaveCSV(res.Forecast, path); err != nil {
		log.Error("failed to write forecast", zap.String("path", path), zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
	log.Info("forecast written", zap.String("path", path))
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"AgriGenie/internal/collector"
	"AgriGenie/internal/config"
	"AgriGenie/internal/model"
	"AgriGenie/internal/recorder"
)

func (a *app) collectCmd() *cobra.Command {
	var q model.MarketQuery
	var mock bool
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Fetch live records for one market and print the trend snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q.State = strings.TrimSpace(q.State)
			q.Commodity = strings.TrimSpace(q.Commodity)
			if q.State == "" || q.Commodity == "" {
				return errors.New("--state and --commodity are required")
			}
			var f collector.Fetcher = &collector.MockFetcher{}
			if !mock {
				f = newMandiFetcher(a.cfg)
			}
			rec := openRecorder(a.cfg, a.logger)
			defer rec.Close()
			return a.runCollect(cmd.Context(), f, rec, q, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&q.State, "state", "", "state name, e.g. Maharashtra")
	cmd.Flags().StringVar(&q.Commodity, "commodity", "", "commodity name, e.g. Onion")
	cmd.Flags().StringVar(&q.Market, "market", "", "mandi name")
	cmd.Flags().StringVar(&q.District, "district", "", "district name")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "records to request (default from config)")
	cmd.Flags().BoolVar(&mock, "mock", false, "use generated records instead of the live feed")
	return cmd
}

func (a *app) runCollect(ctx context.Context, f collector.Fetcher, rec recorder.Recorder, q model.MarketQuery, out io.Writer) error {
	col := newCollector(a.cfg, f, a.logger)
	snap, err := col.Collect(ctx, q)
	if err != nil {
		return fmt.Errorf("collect %s: %w", q, err)
	}
	if err := rec.RecordSnapshot(ctx, snap); err != nil {
		a.logger.Warn("record snapshot failed", zap.Stringer("query", q), zap.Error(err))
	}
	return writeJSON(out, snap)
}

func newMandiFetcher(cfg *config.Config) *collector.MandiFetcher {
	return collector.NewMandiFetcher(cfg.DataSource.ResourceURL, cfg.DataSource.APIKey, cfg.Proxy)
}

func newCollector(cfg *config.Config, f collector.Fetcher, logger *zap.Logger) *collector.Collector {
	return collector.NewCollector(f,
		collector.WithLogger(logger),
		collector.WithLimit(cfg.DataSource.Limit),
		collector.WithConcurrency(cfg.DataSource.Concurrency),
		collector.WithRateLimit(cfg.DataSource.RatePerSec, 1),
	)
}

// openRecorder falls back to the no-op recorder when SQLite is unset or fails to open.
func openRecorder(cfg *config.Config, logger *zap.Logger) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.WithMetrics(recorder.NewNoopRecorder())
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
		logger.Warn("create database directory failed, using noop", zap.Error(err))
		return recorder.WithMetrics(recorder.NewNoopRecorder())
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
	if err != nil {
		logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		return recorder.WithMetrics(recorder.NewNoopRecorder())
	}
	return recorder.WithMetrics(sr)
}

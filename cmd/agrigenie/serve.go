package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"AgriGenie/internal/notifier"
	"AgriGenie/internal/scheduler"
	"AgriGenie/internal/server"
)

const shutdownTimeout = 10 * time.Second

func (a *app) serveCmd() *cobra.Command {
	runOnStart := os.Getenv("RUN_ON_START") == "true"
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, scheduled refreshes and Telegram commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runServe(ctx, runOnStart)
		},
	}
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", runOnStart, "refresh the watchlist immediately")
	return cmd
}

func (a *app) runServe(ctx context.Context, runOnStart bool) error {
	cfg, logger := a.cfg, a.logger
	logger.Info("AgriGenie starting", zap.String("addr", cfg.Server.Addr))

	fetcher := newMandiFetcher(cfg)
	logger.Info("data source", zap.String("source", fetcher.Name()))
	col := newCollector(cfg, fetcher, logger)

	rec := openRecorder(cfg, logger)
	defer rec.Close()

	var sender scheduler.Sender
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)
		sender = tn
	} else {
		logger.Info("telegram disabled: no bot token")
	}

	sched := scheduler.NewScheduler(ctx, col, rec, sender, cfg.Watchlist, cfg.Schedule.AlertThreshold, logger)
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.DigestCron); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info("telegram polling started")
	}
	if runOnStart {
		logger.Info("run-on-start enabled, refreshing watchlist now")
		go sched.RunRefreshNow()
	}

	httpSrv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.New(col, rec, logger).Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received, stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	logger.Info("AgriGenie stopped")
	return err
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"AgriGenie/internal/collector"
	"AgriGenie/internal/model"
	"AgriGenie/internal/notifier"
	"AgriGenie/internal/recorder"
)

// Sender delivers chat messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron           *cron.Cron
	Collector      *collector.Collector
	Recorder       recorder.Recorder
	Notifier       Sender // nil disables notifications
	Watchlist      []model.MarketQuery
	AlertThreshold float64
	Ctx            context.Context

	logger *zap.Logger
	now    func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, rec recorder.Recorder, n Sender,
	watchlist []model.MarketQuery, alertThreshold float64, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		Cron:           cron.New(cron.WithSeconds()),
		Collector:      col,
		Recorder:       rec,
		Notifier:       n,
		Watchlist:      watchlist,
		AlertThreshold: alertThreshold,
		Ctx:            ctx,
		logger:         logger.With(zap.String("component", "scheduler")),
		now:            time.Now,
	}
}

// RegisterAll registers the refresh and digest tasks.
func (s *Scheduler) RegisterAll(refreshCron, digestCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started", zap.Int("watchlist", len(s.Watchlist)))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunRefreshNow executes the refresh task immediately (for RUN_ON_START / manual trigger).
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	if len(s.Watchlist) == 0 {
		s.logger.Debug("refresh skipped: empty watchlist")
		return
	}
	s.logger.Info("running refresh task", zap.Int("queries", len(s.Watchlist)))
	snaps, err := s.Collector.CollectAll(s.Ctx, s.Watchlist)
	if err != nil {
		s.logger.Error("refresh collect failed", zap.Error(err))
		s.trySend(fmt.Sprintf("❌ Market refresh failed: %v", err))
		return
	}

	for _, snap := range snaps {
		if err := s.Recorder.RecordSnapshot(s.Ctx, snap); err != nil {
			s.logger.Error("record snapshot failed", zap.Stringer("query", snap.Query), zap.Error(err))
		}
		if s.isAlert(snap) {
			s.trySend(notifier.FormatAlert(snap))
		}
	}
	s.logger.Info("refresh task done", zap.Int("snapshots", len(snaps)))
}

func (s *Scheduler) isAlert(snap *model.TrendSnapshot) bool {
	if s.AlertThreshold <= 0 || snap.Result.Trend == model.TrendStable {
		return false
	}
	return math.Abs(snap.Result.PercentChange) >= s.AlertThreshold
}

func (s *Scheduler) digestTask() {
	s.logger.Info("running digest task")
	s.trySend(s.digest(s.Ctx))
}

func (s *Scheduler) digest(ctx context.Context) string {
	snaps := make([]*model.TrendSnapshot, 0, len(s.Watchlist))
	for _, q := range s.Watchlist {
		snap, err := s.Recorder.LatestSnapshot(ctx, q.State, q.Commodity)
		if err != nil {
			if !errors.Is(err, recorder.ErrNotFound) {
				s.logger.Warn("load latest snapshot failed", zap.Stringer("query", q), zap.Error(err))
			}
			continue
		}
		snaps = append(snaps, snap)
	}
	return notifier.FormatDigest(snaps, s.now())
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	name, args, _ := strings.Cut(strings.TrimSpace(command), " ")
	switch strings.ToLower(name) {
	case "/trend":
		q, ok := parseTrendArgs(args)
		if !ok {
			return "Usage: /trend &lt;state&gt; | &lt;commodity&gt;"
		}
		snap, err := s.Collector.Collect(ctx, q)
		if err != nil {
			if errors.Is(err, collector.ErrNoRecords) {
				return fmt.Sprintf("No market records for %s.", q)
			}
			s.logger.Error("command collect failed", zap.Stringer("query", q), zap.Error(err))
			return "❌ Market data is unavailable right now."
		}
		if err := s.Recorder.RecordSnapshot(ctx, snap); err != nil {
			s.logger.Error("record snapshot failed", zap.Stringer("query", q), zap.Error(err))
		}
		return notifier.FormatTrendReport(snap)
	case "/watchlist":
		return s.digest(ctx)
	default:
		return notifier.HelpText
	}
}

// parseTrendArgs reads "state | commodity". Multi-word names need the bar;
// a bare "state commodity" pair is accepted when both are single words.
func parseTrendArgs(args string) (model.MarketQuery, bool) {
	var state, commodity string
	if before, after, found := strings.Cut(args, "|"); found {
		state, commodity = before, after
	} else {
		fields := strings.Fields(args)
		if len(fields) != 2 {
			return model.MarketQuery{}, false
		}
		state, commodity = fields[0], fields[1]
	}
	q := model.MarketQuery{State: strings.TrimSpace(state), Commodity: strings.TrimSpace(commodity)}
	return q, q.State != "" && q.Commodity != ""
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.logger.Error("send notification failed", zap.Error(err))
	}
}

package collector

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"AgriGenie/internal/calculator"
	"AgriGenie/internal/metrics"
	"AgriGenie/internal/model"
	"AgriGenie/internal/trend"
)

// ErrNoRecords is returned when the feed has no observations for a query.
var ErrNoRecords = errors.New("no market records")

// Collector orchestrates record fetching and trend computation.
type Collector struct {
	fetcher     Fetcher
	engine      *trend.Engine
	limiter     *rate.Limiter
	logger      *zap.Logger
	limit       int
	concurrency int
	now         func() time.Time
}

// Option configures a Collector.
type Option func(*Collector)

// WithEngine sets the trend engine.
func WithEngine(e *trend.Engine) Option {
	return func(c *Collector) { c.engine = e }
}

// WithRateLimit caps upstream requests per second.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Collector) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// WithLimit sets the default number of records requested per query.
func WithLimit(n int) Option {
	return func(c *Collector) { c.limit = n }
}

// WithConcurrency bounds parallel queries in CollectAll.
func WithConcurrency(n int) Option {
	return func(c *Collector) { c.concurrency = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Collector) { c.logger = l }
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, opts ...Option) *Collector {
	c := &Collector{
		fetcher:     fetcher,
		engine:      trend.NewEngine(),
		limiter:     rate.NewLimiter(rate.Inf, 1),
		logger:      zap.NewNop(),
		limit:       100,
		concurrency: 4,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.concurrency < 1 {
		c.concurrency = 1
	}
	c.logger = c.logger.With(zap.String("component", "collector"), zap.String("source", fetcher.Name()))
	return c
}

// Source names the underlying feed.
func (c *Collector) Source() string { return c.fetcher.Name() }

// Collect fetches records for q, normalises them, and computes the trend.
func (c *Collector) Collect(ctx context.Context, q model.MarketQuery) (*model.TrendSnapshot, error) {
	if q.Limit == 0 {
		q.Limit = c.limit
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", q, err)
	}

	start := time.Now()
	raw, err := c.fetcher.FetchRecords(ctx, q)
	metrics.UpstreamFetchDuration.WithLabelValues(c.fetcher.Name(), metrics.Outcome(err)).
		Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", q, err)
	}

	records := trend.Normalize(raw)
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", q, ErrNoRecords)
	}
	SortNewestFirst(records)

	res := c.engine.Compute(records)
	metrics.TrendComputations.WithLabelValues(string(res.Trend)).Inc()
	c.logger.Debug("trend computed",
		zap.Stringer("query", q),
		zap.Int("records", len(records)),
		zap.String("trend", string(res.Trend)),
		zap.Float64("percent_change", res.PercentChange),
	)

	window := records[:min(len(records), trend.HistoryWindow)]
	return &model.TrendSnapshot{
		ID:          uuid.NewString(),
		Query:       q,
		Source:      c.fetcher.Name(),
		RecordCount: len(records),
		Band:        calculator.CalculatePriceBand(window),
		Result:      res,
		ComputedAt:  c.now().UTC(),
	}, nil
}

// CollectAll collects every query with bounded concurrency. Failed queries
// are logged and skipped; an error is returned only when all of them fail.
// Snapshots keep the order of queries.
func (c *Collector) CollectAll(ctx context.Context, queries []model.MarketQuery) ([]*model.TrendSnapshot, error) {
	results := make([]*model.TrendSnapshot, len(queries))
	errs := make([]error, len(queries))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, q := range queries {
		g.Go(func() error {
			snap, err := c.Collect(ctx, q)
			if err != nil {
				c.logger.Warn("collect failed", zap.Stringer("query", q), zap.Error(err))
				errs[i] = err
				return nil
			}
			results[i] = snap
			return nil
		})
	}
	_ = g.Wait()

	snaps := make([]*model.TrendSnapshot, 0, len(results))
	for _, s := range results {
		if s != nil {
			snaps = append(snaps, s)
		}
	}
	if len(snaps) == 0 && len(queries) > 0 {
		return nil, fmt.Errorf("all %d queries failed: %w", len(queries), errors.Join(errs...))
	}
	return snaps, nil
}

// SortNewestFirst orders records by date, newest first, when every date
// parses. Otherwise the feed order is kept as the best available ordering.
func SortNewestFirst(records []model.PriceRecord) {
	dates := make(map[string]time.Time, len(records))
	for _, r := range records {
		t, ok := trend.ParseDate(r.Date)
		if !ok {
			return
		}
		dates[r.Date] = t
	}
	slices.SortStableFunc(records, func(a, b model.PriceRecord) int {
		return dates[b.Date].Compare(dates[a.Date])
	})
}

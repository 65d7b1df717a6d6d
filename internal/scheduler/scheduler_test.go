package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"AgriGenie/internal/collector"
	"AgriGenie/internal/model"
	"AgriGenie/internal/recorder"
	"AgriGenie/internal/trend"
)

type fakeSender struct {
	mu   sync.Mutex
	msgs []string
	err  error
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, text)
	return f.err
}

func (f *fakeSender) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.msgs...)
}

type fixedNoise struct{}

func (fixedNoise) Float64() float64 { return 0.5 }

func jumpRecords() []model.RawRecord {
	return []model.RawRecord{
		{"arrival_date": "15/10/2026", "modal_price": "2000", "quantity": "100"},
		{"arrival_date": "14/10/2026", "modal_price": "1800", "quantity": "100"},
	}
}

func newTestScheduler(t *testing.T, f collector.Fetcher, sender Sender, watchlist []model.MarketQuery) (*Scheduler, recorder.Recorder) {
	t.Helper()
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Close() })

	col := collector.NewCollector(f, collector.WithEngine(trend.NewEngine(trend.WithNoise(fixedNoise{}))))
	s := NewScheduler(context.Background(), col, rec, sender, watchlist, 5, zap.NewNop())
	s.now = func() time.Time { return time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC) }
	return s, rec
}

func TestRegisterAll(t *testing.T) {
	s, _ := newTestScheduler(t, &collector.MockFetcher{}, nil, nil)
	require.NoError(t, s.RegisterAll("0 30 */3 * * *", "0 0 8 * * *"))
	assert.Len(t, s.Cron.Entries(), 2)

	s2, _ := newTestScheduler(t, &collector.MockFetcher{}, nil, nil)
	err := s2.RegisterAll("not a cron", "0 0 8 * * *")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register refresh task")
}

func TestStartStop(t *testing.T) {
	s, _ := newTestScheduler(t, &collector.MockFetcher{}, nil, nil)
	require.NoError(t, s.RegisterAll("0 0 0 1 1 *", "0 0 0 1 1 *"))
	s.Start()
	s.Stop()
}

func TestRunRefreshNow_RecordsAndAlerts(t *testing.T) {
	sender := &fakeSender{}
	watch := []model.MarketQuery{{State: "Maharashtra", Commodity: "Onion"}}
	s, rec := newTestScheduler(t, &collector.MockFetcher{Records: jumpRecords()}, sender, watch)

	s.RunRefreshNow()

	latest, err := rec.LatestSnapshot(context.Background(), "Maharashtra", "Onion")
	require.NoError(t, err)
	assert.Equal(t, model.TrendRising, latest.Result.Trend)
	assert.Equal(t, 11.1, latest.Result.PercentChange)

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Price alert")
	assert.Contains(t, msgs[0], "up 11.1%")
}

func TestRunRefreshNow_BelowThreshold(t *testing.T) {
	sender := &fakeSender{}
	watch := []model.MarketQuery{{State: "Punjab", Commodity: "Wheat"}}
	s, rec := newTestScheduler(t, &collector.MockFetcher{BasePrice: 2200}, sender, watch)

	s.RunRefreshNow()

	_, err := rec.LatestSnapshot(context.Background(), "Punjab", "Wheat")
	require.NoError(t, err)
	assert.Empty(t, sender.messages())
}

func TestRunRefreshNow_ZeroThresholdDisablesAlerts(t *testing.T) {
	sender := &fakeSender{}
	watch := []model.MarketQuery{{State: "Maharashtra", Commodity: "Onion"}}
	s, rec := newTestScheduler(t, &collector.MockFetcher{Records: jumpRecords()}, sender, watch)
	s.AlertThreshold = 0

	s.RunRefreshNow()

	_, err := rec.LatestSnapshot(context.Background(), "Maharashtra", "Onion")
	require.NoError(t, err)
	assert.Empty(t, sender.messages())
}

func TestRunRefreshNow_AllFailed(t *testing.T) {
	sender := &fakeSender{}
	watch := []model.MarketQuery{{State: "Punjab", Commodity: "Wheat"}}
	s, rec := newTestScheduler(t, &collector.MockFetcher{Err: errors.New("upstream down")}, sender, watch)

	s.RunRefreshNow()

	_, err := rec.LatestSnapshot(context.Background(), "Punjab", "Wheat")
	assert.ErrorIs(t, err, recorder.ErrNotFound)
	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Market refresh failed")
}

func TestRunRefreshNow_EmptyWatchlist(t *testing.T) {
	f := &collector.MockFetcher{}
	s, _ := newTestScheduler(t, f, &fakeSender{}, nil)
	s.RunRefreshNow()
	assert.Zero(t, f.Calls())
}

func TestDigest(t *testing.T) {
	sender := &fakeSender{}
	watch := []model.MarketQuery{
		{State: "Maharashtra", Commodity: "Onion"},
		{State: "Kerala", Commodity: "Banana"},
	}
	s, _ := newTestScheduler(t, &collector.MockFetcher{Records: jumpRecords()}, nil, watch)
	s.RunRefreshNow()

	s.Notifier = sender
	s.digestTask()

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "2026-10-15")
	assert.Contains(t, msgs[0], "<b>Onion</b> | Maharashtra")
	assert.Contains(t, msgs[0], "<b>Banana</b> | Kerala")
}

func TestHandleCommand(t *testing.T) {
	watch := []model.MarketQuery{{State: "Maharashtra", Commodity: "Onion"}}
	s, rec := newTestScheduler(t, &collector.MockFetcher{Records: jumpRecords()}, nil, watch)
	ctx := context.Background()

	reply := s.HandleCommand(ctx, "/trend Madhya Pradesh | Soyabean")
	assert.Contains(t, reply, "<b>Soyabean</b> | Madhya Pradesh")
	assert.Contains(t, reply, "rising 11.1%")
	_, err := rec.LatestSnapshot(ctx, "Madhya Pradesh", "Soyabean")
	require.NoError(t, err)

	reply = s.HandleCommand(ctx, "/TREND Kerala Banana")
	assert.Contains(t, reply, "<b>Banana</b> | Kerala")

	assert.Contains(t, s.HandleCommand(ctx, "/trend"), "Usage: /trend")
	assert.Contains(t, s.HandleCommand(ctx, "/trend Madhya Pradesh Soyabean"), "Usage: /trend")
	assert.Contains(t, s.HandleCommand(ctx, "/watchlist"), "No market data recorded yet.")
	assert.Contains(t, s.HandleCommand(ctx, "/start"), "Available commands")
}

func TestHandleCommand_Errors(t *testing.T) {
	s, _ := newTestScheduler(t, &collector.MockFetcher{Records: []model.RawRecord{}}, nil, nil)
	assert.Equal(t, "No market records for Goa/Cashew.", s.HandleCommand(context.Background(), "/trend Goa | Cashew"))

	s2, _ := newTestScheduler(t, &collector.MockFetcher{Err: errors.New("boom")}, nil, nil)
	assert.Contains(t, s2.HandleCommand(context.Background(), "/trend Goa | Cashew"), "unavailable")
}

package collector

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"AgriGenie/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Records   []model.RawRecord
	Err       error
	BasePrice float64
	Days      int

	calls atomic.Int32
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls reports how many times FetchRecords ran.
func (m *MockFetcher) Calls() int { return int(m.calls.Load()) }

func (m *MockFetcher) FetchRecords(ctx context.Context, q model.MarketQuery) ([]model.RawRecord, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Records != nil {
		return m.Records, nil
	}
	days := m.Days
	if days == 0 {
		days = 20
	}
	return generateMockRecords(q, m.BasePrice, days), nil
}

// generateMockRecords builds feed-shaped records, newest first, with a gentle
// upward drift.
func generateMockRecords(q model.MarketQuery, basePrice float64, count int) []model.RawRecord {
	if basePrice == 0 {
		basePrice = 2000
	}
	now := time.Now()
	records := make([]model.RawRecord, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(count/2-i)*0.002)
		records[i] = model.RawRecord{
			"state":        q.State,
			"district":     q.District,
			"market":       q.Market,
			"commodity":    q.Commodity,
			"arrival_date": now.AddDate(0, 0, -i).Format("02/01/2006"),
			"min_price":    strconv.FormatFloat(p*0.95, 'f', 0, 64),
			"max_price":    strconv.FormatFloat(p*1.05, 'f', 0, 64),
			"modal_price":  strconv.FormatFloat(p, 'f', 0, 64),
			"quantity":     "100",
		}
	}
	return records
}

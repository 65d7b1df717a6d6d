package collector

import (
	"context"

	"AgriGenie/internal/model"
)

// Fetcher defines the interface for fetching raw market records.
// Records are returned in feed order with feed field names.
type Fetcher interface {
	FetchRecords(ctx context.Context, q model.MarketQuery) ([]model.RawRecord, error)
	Name() string
}

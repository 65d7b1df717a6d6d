package recorder

import (
	"context"
	"errors"

	"AgriGenie/internal/model"
)

// ErrNotFound is returned when no snapshot matches.
var ErrNotFound = errors.New("snapshot not found")

// SnapshotFilter narrows RecentSnapshots. Empty fields match everything.
type SnapshotFilter struct {
	State     string
	Commodity string
	Limit     int
}

// Recorder persists trend snapshots for later analysis.
type Recorder interface {
	RecordSnapshot(ctx context.Context, snap *model.TrendSnapshot) error
	RecentSnapshots(ctx context.Context, f SnapshotFilter) ([]model.TrendSnapshot, error)
	LatestSnapshot(ctx context.Context, state, commodity string) (*model.TrendSnapshot, error)
	Close() error
}

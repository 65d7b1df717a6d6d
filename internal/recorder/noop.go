package recorder

import (
	"context"

	"AgriGenie/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSnapshot(_ context.Context, _ *model.TrendSnapshot) error { return nil }

func (n *NoopRecorder) RecentSnapshots(_ context.Context, _ SnapshotFilter) ([]model.TrendSnapshot, error) {
	return []model.TrendSnapshot{}, nil
}

func (n *NoopRecorder) LatestSnapshot(_ context.Context, _, _ string) (*model.TrendSnapshot, error) {
	return nil, ErrNotFound
}

func (n *NoopRecorder) Close() error { return nil }

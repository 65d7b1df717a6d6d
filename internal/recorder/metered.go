package recorder

import (
	"context"

	"AgriGenie/internal/metrics"
	"AgriGenie/internal/model"
)

type meteredRecorder struct {
	Recorder
}

// WithMetrics counts RecordSnapshot outcomes on the wrapped recorder.
func WithMetrics(r Recorder) Recorder {
	return meteredRecorder{Recorder: r}
}

func (m meteredRecorder) RecordSnapshot(ctx context.Context, snap *model.TrendSnapshot) error {
	err := m.Recorder.RecordSnapshot(ctx, snap)
	metrics.SnapshotsRecorded.WithLabelValues(metrics.Outcome(err)).Inc()
	return err
}

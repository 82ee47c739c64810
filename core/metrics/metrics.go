package metrics

import "github.com/evfleet/chargesim/core/model"

// SnapshotSink records per-tick simulation snapshots for observability
// purposes.
type SnapshotSink interface {
	RecordSnapshot(s model.Snapshot) error
}

// EndSignaler is implemented by sinks that want to be told when a run has
// finished, e.g. to push a terminal event to subscribers.
type EndSignaler interface {
	SignalEnd() error
}

// NopSink implements SnapshotSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordSnapshot(model.Snapshot) error { return nil }

func (NopSink) SignalEnd() error { return nil }

package metrics

import (
	coremetrics "github.com/evfleet/chargesim/core/metrics"
	"github.com/evfleet/chargesim/core/model"
)

// MultiSink fans snapshots out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.SnapshotSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.SnapshotSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSnapshot forwards the snapshot to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordSnapshot(s model.Snapshot) error {
	for _, sink := range m.Sinks {
		if err := sink.RecordSnapshot(s); err != nil {
			return err
		}
	}
	return nil
}

// SignalEnd forwards the end-of-run signal to sinks that support it.
func (m *MultiSink) SignalEnd() error {
	for _, sink := range m.Sinks {
		if es, ok := sink.(coremetrics.EndSignaler); ok {
			if err := es.SignalEnd(); err != nil {
				return err
			}
		}
	}
	return nil
}

package metrics

import coremetrics "github.com/gridloom/bessarb/core/metrics"

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordOptimization forwards the event to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordOptimization(ev coremetrics.OptimizationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordOptimization(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordActuatorCommand forwards the event to all sinks.
func (m *MultiSink) RecordActuatorCommand(ev coremetrics.ActuatorCommandEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordActuatorCommand(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordStatus forwards the event to all sinks.
func (m *MultiSink) RecordStatus(ev coremetrics.StatusEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordStatus(ev); err != nil {
			return err
		}
	}
	return nil
}

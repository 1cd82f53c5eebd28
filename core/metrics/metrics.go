package metrics

import (
	"time"

	"github.com/gridloom/bessarb/core/model"
)

// OptimizationEvent captures the outcome of one optimization run.
type OptimizationEvent struct {
	Trigger    string
	Success    bool
	Error      string
	NetBenefit float64
	CyclesUsed float64
	Intervals  int
	Duration   time.Duration
	Time       time.Time
}

// ActuatorCommandEvent records a command issued to the battery.
type ActuatorCommandEvent struct {
	Command string
	Action  model.Action
	PowerKW float64
	Success bool
	Time    time.Time
}

// StatusEvent is a snapshot of the coordinator state machine.
type StatusEvent struct {
	Status  string
	Action  model.Action
	Enabled bool
	Time    time.Time
}

// Sink records coordinator events for observability purposes.
type Sink interface {
	RecordOptimization(ev OptimizationEvent) error
	RecordActuatorCommand(ev ActuatorCommandEvent) error
	RecordStatus(ev StatusEvent) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordOptimization(OptimizationEvent) error       { return nil }
func (NopSink) RecordActuatorCommand(ActuatorCommandEvent) error { return nil }
func (NopSink) RecordStatus(StatusEvent) error                   { return nil }

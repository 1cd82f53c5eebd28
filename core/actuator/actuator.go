package actuator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Actuator is the command surface of the battery inverter. Commands are
// fire-and-forget and must be safe to repeat: the control loop re-asserts
// the current command every tick.
type Actuator interface {
	// StartForcedCharge puts the battery into forced-charge mode at the
	// given power target for the given duration.
	StartForcedCharge(ctx context.Context, powerKW float64, duration time.Duration) error

	// StopForcedCharge leaves forced-charge mode.
	StopForcedCharge(ctx context.Context) error

	// SetDischargePowerLimit caps discharge power. Zero blocks discharge.
	SetDischargePowerLimit(ctx context.Context, powerKW float64) error
}

// Call records one command issued to a Mock.
type Call struct {
	Name     string
	PowerKW  float64
	Duration time.Duration
}

// Mock is a recording Actuator used in tests.
type Mock struct {
	mu    sync.Mutex
	Calls []Call

	FailStartCharge bool
	FailStopCharge  bool
	FailSetLimit    bool
}

// NewMock creates a new Mock.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) StartForcedCharge(_ context.Context, powerKW float64, duration time.Duration) error {
	if m.FailStartCharge {
		return fmt.Errorf("start forced charge failed")
	}
	m.record(Call{Name: "start_forced_charge", PowerKW: powerKW, Duration: duration})
	return nil
}

func (m *Mock) StopForcedCharge(context.Context) error {
	if m.FailStopCharge {
		return fmt.Errorf("stop forced charge failed")
	}
	m.record(Call{Name: "stop_forced_charge"})
	return nil
}

func (m *Mock) SetDischargePowerLimit(_ context.Context, powerKW float64) error {
	if m.FailSetLimit {
		return fmt.Errorf("set discharge power limit failed")
	}
	m.record(Call{Name: "set_discharge_power_limit", PowerKW: powerKW})
	return nil
}

func (m *Mock) record(c Call) {
	m.mu.Lock()
	m.Calls = append(m.Calls, c)
	m.mu.Unlock()
}

// CallNames returns the names of all recorded calls in order.
func (m *Mock) CallNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.Calls))
	for i, c := range m.Calls {
		names[i] = c.Name
	}
	return names
}

// Reset clears the recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	m.Calls = nil
	m.mu.Unlock()
}

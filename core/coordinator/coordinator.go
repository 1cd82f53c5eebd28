package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gridloom/bessarb/core/actuator"
	"github.com/gridloom/bessarb/core/logger"
	"github.com/gridloom/bessarb/core/metrics"
	"github.com/gridloom/bessarb/core/model"
	"github.com/gridloom/bessarb/core/optimizer"
	"github.com/gridloom/bessarb/core/planlog"
	"github.com/gridloom/bessarb/core/pricing"
	"github.com/gridloom/bessarb/internal/eventbus"
)

// Status is the coordinator state machine position.
type Status int

const (
	StatusIdle Status = iota
	StatusOptimizing
	StatusReady
	StatusExecuting
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimizing:
		return "optimizing"
	case StatusReady:
		return "ready"
	case StatusExecuting:
		return "executing"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// State is a read-only snapshot of the coordinator. Plan.Success reports
// whether a usable plan is held.
type State struct {
	Enabled          bool
	Status           Status
	CurrentAction    model.Action
	Plan             model.Plan
	LastOptimization time.Time
	LastError        string
}

// Config tunes the control loop.
type Config struct {
	// ReoptimizeAfterHour is the local hour from which the hourly tick
	// re-optimizes, so next-day prices have had a chance to arrive.
	ReoptimizeAfterHour int
	// StartupRetries is the number of optimization attempts at startup.
	StartupRetries int
	// StartupBackoff is the delay between failed startup attempts.
	StartupBackoff time.Duration
	// SafeStateOnDisable issues an idle command set once when the loop is
	// disabled instead of leaving the last command latched on the inverter.
	SafeStateOnDisable bool
}

// DefaultConfig returns the stock control loop tuning.
func DefaultConfig() Config {
	return Config{
		ReoptimizeAfterHour: 14,
		StartupRetries:      3,
		StartupBackoff:      30 * time.Second,
	}
}

// Coordinator owns the current plan and drives the execution loop. All
// state is guarded by mu; opMu serializes optimization runs and execution
// ticks so concurrent triggers queue instead of interleaving.
type Coordinator struct {
	cfg     Config
	battery model.Battery
	opt     *optimizer.Optimizer
	prices  pricing.PriceProvider
	soc     pricing.SoCProvider
	act     actuator.Actuator
	log     logger.Logger
	sink    metrics.Sink
	store   planlog.Store
	bus     *eventbus.Notifier
	now     func() time.Time

	opMu sync.Mutex

	mu      sync.Mutex
	enabled bool
	status  Status
	action  model.Action
	plan    model.Plan
	lastOpt time.Time
	lastErr string
}

// New wires a Coordinator. Price and SoC providers and the actuator are
// required; sink, store and log default to no-ops when nil.
func New(cfg Config, battery model.Battery, prices pricing.PriceProvider, soc pricing.SoCProvider, act actuator.Actuator, log logger.Logger, sink metrics.Sink, store planlog.Store) (*Coordinator, error) {
	if prices == nil {
		return nil, fmt.Errorf("price provider is required")
	}
	if soc == nil {
		return nil, fmt.Errorf("soc provider is required")
	}
	if act == nil {
		return nil, fmt.Errorf("actuator is required")
	}
	opt, err := optimizer.New(battery)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if store == nil {
		store = planlog.NopStore{}
	}
	if cfg.StartupRetries <= 0 {
		cfg.StartupRetries = 1
	}
	return &Coordinator{
		cfg:     cfg,
		battery: battery,
		opt:     opt,
		prices:  prices,
		soc:     soc,
		act:     act,
		log:     log,
		sink:    sink,
		store:   store,
		bus:     eventbus.New(),
		now:     time.Now,
		enabled: true,
		status:  StatusIdle,
	}, nil
}

// Subscribe registers a listener invoked synchronously after every state
// transition. Listeners pull a fresh Snapshot; the returned handle cancels
// the subscription.
func (c *Coordinator) Subscribe(fn func()) func() {
	return c.bus.Subscribe(fn)
}

// Snapshot returns a copy of the current coordinator state.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Enabled:          c.enabled,
		Status:           c.status,
		CurrentAction:    c.action,
		Plan:             c.plan,
		LastOptimization: c.lastOpt,
		LastError:        c.lastErr,
	}
}

// Start runs the startup optimization, retrying on failure with a fixed
// backoff. The coordinator proceeds regardless of the final outcome: a
// failed startup leaves status error and execution ticks are no-ops until
// the next successful run.
func (c *Coordinator) Start(ctx context.Context) {
	for attempt := 1; attempt <= c.cfg.StartupRetries; attempt++ {
		if err := c.runOptimization(ctx, "startup"); err == nil {
			return
		} else if attempt < c.cfg.StartupRetries {
			c.log.Warnf("startup optimization attempt %d/%d failed: %v", attempt, c.cfg.StartupRetries, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.cfg.StartupBackoff):
			}
		} else {
			c.log.Errorf("startup optimization failed after %d attempts: %v", c.cfg.StartupRetries, err)
		}
	}
}

// SetEnabled toggles per-minute enforcement. Disabling does not clear the
// plan; whether the actuator is parked in a safe state is configurable.
func (c *Coordinator) SetEnabled(ctx context.Context, enabled bool) {
	c.mu.Lock()
	changed := c.enabled != enabled
	c.enabled = enabled
	c.mu.Unlock()
	if !changed {
		return
	}
	c.notify()
	if !enabled && c.cfg.SafeStateOnDisable {
		c.opMu.Lock()
		c.issueCommand(ctx, model.ActionIdle, time.Hour)
		c.opMu.Unlock()
	}
}

// TriggerOptimization runs one optimization immediately. Callable at any
// time; concurrent triggers queue behind the in-flight run.
func (c *Coordinator) TriggerOptimization(ctx context.Context) error {
	return c.runOptimization(ctx, "manual")
}

// MinuteTick enforces the planned action for now. The command is re-issued
// unconditionally every tick: the inverter may have been reset out-of-band,
// so the loop must be self-healing rather than edge-triggered.
func (c *Coordinator) MinuteTick(ctx context.Context, now time.Time) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if !c.enabled || !c.plan.Success {
		c.mu.Unlock()
		return
	}
	action, _ := optimizer.ActionForTime(c.plan, now)
	c.status = StatusExecuting
	c.action = action
	length := c.plan.IntervalLength
	c.mu.Unlock()

	c.notify()
	c.issueCommand(ctx, action, length)
}

// HourTick re-optimizes once next-day prices can be expected, at or after
// the configured afternoon hour.
func (c *Coordinator) HourTick(ctx context.Context, now time.Time) {
	if now.Hour() < c.cfg.ReoptimizeAfterHour {
		return
	}
	if err := c.runOptimization(ctx, "hourly"); err != nil {
		c.log.Warnf("hourly optimization failed: %v", err)
	}
}

// DayTick re-optimizes unconditionally, shortly after midnight.
func (c *Coordinator) DayTick(ctx context.Context) {
	if err := c.runOptimization(ctx, "daily"); err != nil {
		c.log.Warnf("daily optimization failed: %v", err)
	}
}

func (c *Coordinator) runOptimization(ctx context.Context, trigger string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	started := c.now()
	c.setStatus(StatusOptimizing)
	c.log.Infof("optimization started (trigger=%s)", trigger)

	plan := c.computePlan(ctx, started)

	finished := c.now()
	c.mu.Lock()
	if plan.Success {
		plan.ComputedAt = finished
		c.plan = plan
		c.status = StatusReady
		c.lastOpt = finished
		c.lastErr = ""
	} else {
		// a failed run never replaces a good plan
		c.status = StatusError
		c.lastErr = plan.Error
	}
	c.mu.Unlock()
	c.notify()

	c.record(planlog.Record{
		Timestamp:  finished,
		Trigger:    trigger,
		Success:    plan.Success,
		Error:      plan.Error,
		NetBenefit: plan.NetBenefit,
		CyclesUsed: plan.CyclesUsed,
		Intervals:  plan.Intervals,
	})
	if err := c.sink.RecordOptimization(metrics.OptimizationEvent{
		Trigger:    trigger,
		Success:    plan.Success,
		Error:      plan.Error,
		NetBenefit: plan.NetBenefit,
		CyclesUsed: plan.CyclesUsed,
		Intervals:  len(plan.Intervals),
		Duration:   finished.Sub(started),
		Time:       finished,
	}); err != nil {
		c.log.Warnf("record optimization metrics: %v", err)
	}

	if !plan.Success {
		return fmt.Errorf("optimization failed: %s", plan.Error)
	}
	c.log.Infof("optimization succeeded: %d intervals, net benefit %.3f", len(plan.Intervals), plan.NetBenefit)
	return nil
}

func (c *Coordinator) computePlan(ctx context.Context, now time.Time) model.Plan {
	prices, err := c.prices.Prices(ctx, now)
	if err != nil {
		return model.FailedPlan(fmt.Sprintf("price source: %v", err))
	}
	soc, err := c.soc.CurrentSoCKWh(ctx)
	if err != nil {
		return model.FailedPlan(fmt.Sprintf("soc source: %v", err))
	}
	return c.opt.Optimize(prices, soc, now)
}

// issueCommand maps the action to the inverter command set. Errors are
// logged and absorbed; the next tick retries the same command.
func (c *Coordinator) issueCommand(ctx context.Context, action model.Action, slot time.Duration) {
	if slot <= 0 {
		slot = time.Hour
	}
	var err error
	var cmd string
	var power float64
	switch action {
	case model.ActionCharge:
		cmd = "start_forced_charge"
		power = c.battery.MaxChargeKW
		err = c.act.StartForcedCharge(ctx, power, slot)
	case model.ActionDischarge:
		cmd = "set_discharge_power_limit"
		power = c.battery.MaxDischargeKW
		if err = c.act.StopForcedCharge(ctx); err == nil {
			err = c.act.SetDischargePowerLimit(ctx, power)
		}
	default:
		cmd = "set_discharge_power_limit"
		if err = c.act.StopForcedCharge(ctx); err == nil {
			err = c.act.SetDischargePowerLimit(ctx, 0)
		}
	}
	if err != nil {
		c.log.Errorf("actuator command %s failed: %v", cmd, err)
	}
	if mErr := c.sink.RecordActuatorCommand(metrics.ActuatorCommandEvent{
		Command: cmd,
		Action:  action,
		PowerKW: power,
		Success: err == nil,
		Time:    c.now(),
	}); mErr != nil {
		c.log.Warnf("record actuator metrics: %v", mErr)
	}
}

func (c *Coordinator) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
	c.notify()
}

// notify publishes the current state to listeners and the metrics sink,
// strictly after the transition has completed.
func (c *Coordinator) notify() {
	c.bus.Notify()
	st := c.Snapshot()
	if err := c.sink.RecordStatus(metrics.StatusEvent{
		Status:  st.Status.String(),
		Action:  st.CurrentAction,
		Enabled: st.Enabled,
		Time:    c.now(),
	}); err != nil {
		c.log.Warnf("record status metrics: %v", err)
	}
}

func (c *Coordinator) record(r planlog.Record) {
	if err := c.store.Append(r); err != nil {
		c.log.Warnf("append plan log: %v", err)
	}
}

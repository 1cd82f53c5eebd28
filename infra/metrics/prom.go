package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/gridloom/bessarb/core/metrics"
)

// PromSink records coordinator events in Prometheus metrics.
type PromSink struct {
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
	benefit  prometheus.Gauge
	cycles   prometheus.Gauge
	commands *prometheus.CounterVec
	enabled  prometheus.Gauge
	status   *prometheus.GaugeVec
}

// NewPromSink registers metrics on the default Prometheus registerer. The
// Prometheus server is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_runs_total",
		Help: "Total number of optimization runs",
	}, []string{"trigger", "success"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "optimizer_run_duration_seconds",
		Help:    "Wall time of one optimization run including input fetches",
		Buckets: prometheus.DefBuckets,
	})
	benefit := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "optimizer_net_benefit",
		Help: "Net benefit of the current plan",
	})
	cycles := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "optimizer_cycles_used",
		Help: "Battery cycles committed by the current plan",
	})
	commands := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "actuator_commands_total",
		Help: "Total number of commands issued to the battery",
	}, []string{"command", "action", "success"})
	enabled := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "coordinator_enabled",
		Help: "Whether plan enforcement is enabled",
	})
	status := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "coordinator_status",
		Help: "Current coordinator status (1 for the active state)",
	}, []string{"status"})

	s := &PromSink{
		runs:     runs,
		duration: duration,
		benefit:  benefit,
		cycles:   cycles,
		commands: commands,
		enabled:  enabled,
		status:   status,
	}
	for _, c := range []prometheus.Collector{runs, duration, benefit, cycles, commands, enabled, status} {
		if err := register(reg, c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func register(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			return err
		}
	}
	return nil
}

// RecordOptimization counts the run and updates the plan gauges.
func (s *PromSink) RecordOptimization(ev coremetrics.OptimizationEvent) error {
	s.runs.WithLabelValues(ev.Trigger, strconv.FormatBool(ev.Success)).Inc()
	s.duration.Observe(ev.Duration.Seconds())
	if ev.Success {
		s.benefit.Set(ev.NetBenefit)
		s.cycles.Set(ev.CyclesUsed)
	}
	return nil
}

// RecordActuatorCommand counts the issued command.
func (s *PromSink) RecordActuatorCommand(ev coremetrics.ActuatorCommandEvent) error {
	s.commands.WithLabelValues(ev.Command, ev.Action.String(), strconv.FormatBool(ev.Success)).Inc()
	return nil
}

// RecordStatus mirrors the state machine position into gauges.
func (s *PromSink) RecordStatus(ev coremetrics.StatusEvent) error {
	for _, st := range []string{"idle", "optimizing", "ready", "executing", "error"} {
		v := 0.0
		if st == ev.Status {
			v = 1
		}
		s.status.WithLabelValues(st).Set(v)
	}
	if ev.Enabled {
		s.enabled.Set(1)
	} else {
		s.enabled.Set(0)
	}
	return nil
}

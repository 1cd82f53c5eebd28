package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/gridloom/bessarb/core/metrics"
	"github.com/gridloom/bessarb/infra/logger"
)

// InfluxSink writes coordinator events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns
// a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordOptimization writes the run outcome as a point.
func (s *InfluxSink) RecordOptimization(ev coremetrics.OptimizationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("optimization_run").
		AddTag("trigger", ev.Trigger).
		AddTag("success", strconv.FormatBool(ev.Success)).
		AddField("net_benefit", round3(ev.NetBenefit)).
		AddField("cycles_used", round3(ev.CyclesUsed)).
		AddField("intervals", ev.Intervals).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	if ev.Error != "" {
		p.AddField("error", ev.Error)
	}
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordActuatorCommand writes the issued command as a point.
func (s *InfluxSink) RecordActuatorCommand(ev coremetrics.ActuatorCommandEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("actuator_command").
		AddTag("command", ev.Command).
		AddTag("action", ev.Action.String()).
		AddTag("success", strconv.FormatBool(ev.Success)).
		AddField("power_kw", round3(ev.PowerKW)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordStatus writes the state machine snapshot as a point.
func (s *InfluxSink) RecordStatus(ev coremetrics.StatusEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("coordinator_status").
		AddTag("status", ev.Status).
		AddTag("action", ev.Action.String()).
		AddField("enabled", ev.Enabled).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

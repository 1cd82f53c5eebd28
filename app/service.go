package app

import (
	"context"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/gridloom/bessarb/config"
	"github.com/gridloom/bessarb/core/coordinator"
	coremetrics "github.com/gridloom/bessarb/core/metrics"
	coreplanlog "github.com/gridloom/bessarb/core/planlog"
	"github.com/gridloom/bessarb/core/scheduler"
	"github.com/gridloom/bessarb/infra/logger"
	"github.com/gridloom/bessarb/infra/metrics"
	"github.com/gridloom/bessarb/infra/mqtt"
	"github.com/gridloom/bessarb/infra/planlog"
	"github.com/gridloom/bessarb/infra/prices"
)

// Service wires the coordinator to its collaborators and runs the control
// loop until cancelled.
type Service struct {
	Coordinator *coordinator.Coordinator

	cfg    *config.Config
	client *mqtt.MqttClient
	bridge *mqtt.Bridge
	store  coreplanlog.Store
	log    logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	client, err := mqtt.NewMqttClient(cfg.MQTT.Broker, cfg.MQTT.ClientID, nil, func(o *pahomqtt.ClientOptions) {
		if cfg.MQTT.Username != "" {
			o.SetUsername(cfg.MQTT.Username)
			o.SetPassword(cfg.MQTT.Password)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("mqtt client: %w", err)
	}

	sink, err := buildSink(cfg.Metrics)
	if err != nil {
		client.Close()
		return nil, err
	}
	store, err := buildStore(cfg.PlanLog)
	if err != nil {
		client.Close()
		return nil, err
	}

	act, err := mqtt.NewActuator(client, cfg.MQTT.TopicPrefix)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("actuator: %w", err)
	}
	soc, err := mqtt.NewSoCSource(client, cfg.MQTT.SoCTopic, cfg.Battery.CapacityKWh,
		time.Duration(cfg.MQTT.SoCMaxAgeSeconds)*time.Second)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("soc source: %w", err)
	}
	priceSrc, err := prices.NewHTTPSource(cfg.Prices.URL, time.Duration(cfg.Prices.TimeoutSeconds)*time.Second)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("price source: %w", err)
	}

	coor, err := coordinator.New(cfg.Control.Coordinator(), cfg.Battery.Model(),
		priceSrc, soc, act, logger.New("coordinator"), sink, store)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("coordinator: %w", err)
	}

	bridge, err := mqtt.NewBridge(coor, client, client, cfg.MQTT.TopicPrefix)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("mqtt bridge: %w", err)
	}

	return &Service{
		Coordinator: coor,
		cfg:         cfg,
		client:      client,
		bridge:      bridge,
		store:       store,
		log:         logg,
	}, nil
}

func buildSink(cfg config.MetricsConfig) (coremetrics.Sink, error) {
	var sinks []coremetrics.Sink
	if cfg.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket))
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return metrics.NewMultiSink(sinks...), nil
	}
}

func buildStore(cfg config.PlanLogConfig) (coreplanlog.Store, error) {
	switch cfg.Backend {
	case "jsonl":
		return planlog.NewJSONLStore(cfg.Path)
	case "sqlite":
		return planlog.NewSQLiteStore(cfg.Path)
	default:
		return coreplanlog.NopStore{}, nil
	}
}

// Run starts the control loop and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	s.Coordinator.Start(ctx)

	sched, err := scheduler.New(ctx, s.Coordinator, logger.New("scheduler"))
	if err != nil {
		return err
	}
	if err := sched.Register(); err != nil {
		return err
	}
	sched.Start()
	s.log.Infof("service started")

	<-ctx.Done()
	sched.Stop()
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bridge.Close()
	s.client.Close()
	return s.store.Close()
}

package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/gridloom/bessarb/infra/logger"
)

// Subscriber registers a handler for a topic.
type Subscriber interface {
	Subscribe(topic string, qos byte, cb mqtt.MessageHandler) error
}

// socReading is the JSON wire format of the SoC topic. Plain numeric
// payloads are accepted as a percentage too.
type socReading struct {
	SoCPercent float64 `json:"soc_percent"`
}

// SoCSource tracks the battery state of charge from a retained MQTT topic
// and converts the reported percentage to kWh.
type SoCSource struct {
	capacityKWh float64
	maxAge      time.Duration
	log         logger.Logger

	mu      sync.Mutex
	percent float64
	updated time.Time
}

// NewSoCSource subscribes to the given topic and returns the source. The
// reading is considered stale after maxAge; zero disables the check.
func NewSoCSource(sub Subscriber, topic string, capacityKWh float64, maxAge time.Duration) (*SoCSource, error) {
	if sub == nil {
		return nil, fmt.Errorf("subscriber is required")
	}
	if capacityKWh <= 0 {
		return nil, fmt.Errorf("capacity must be positive")
	}
	s := &SoCSource{
		capacityKWh: capacityKWh,
		maxAge:      maxAge,
		log:         logger.New("mqtt-soc"),
	}
	if err := sub.Subscribe(topic, 1, s.onMessage); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return s, nil
}

func (s *SoCSource) onMessage(_ mqtt.Client, msg mqtt.Message) {
	percent, err := parsePercent(msg.Payload())
	if err != nil {
		s.log.Warnf("invalid soc payload on %s: %v", msg.Topic(), err)
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	s.mu.Lock()
	s.percent = percent
	s.updated = time.Now()
	s.mu.Unlock()
}

// CurrentSoCKWh returns the last reported state of charge in kWh.
func (s *SoCSource) CurrentSoCKWh(context.Context) (float64, error) {
	s.mu.Lock()
	percent, updated := s.percent, s.updated
	s.mu.Unlock()
	if updated.IsZero() {
		return 0, fmt.Errorf("no soc reading received yet")
	}
	if s.maxAge > 0 && time.Since(updated) > s.maxAge {
		return 0, fmt.Errorf("soc reading stale since %s", updated.Format(time.RFC3339))
	}
	return percent / 100 * s.capacityKWh, nil
}

func parsePercent(payload []byte) (float64, error) {
	trimmed := strings.TrimSpace(string(payload))
	if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return v, nil
	}
	var r socReading
	if err := json.Unmarshal(payload, &r); err != nil {
		return 0, fmt.Errorf("parse soc payload: %w", err)
	}
	return r.SoCPercent, nil
}

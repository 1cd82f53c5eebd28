package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gridloom/bessarb/infra/logger"
)

// Publisher sends a payload on a topic.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// forcedChargeCommand is the wire format of the forced-charge topic.
type forcedChargeCommand struct {
	ID        string  `json:"id"`
	Enable    bool    `json:"enable"`
	PowerKW   float64 `json:"power_kw,omitempty"`
	DurationS int     `json:"duration_s,omitempty"`
}

// dischargeLimitCommand is the wire format of the discharge-limit topic.
type dischargeLimitCommand struct {
	ID      string  `json:"id"`
	PowerKW float64 `json:"power_kw"`
}

// Actuator issues battery commands over MQTT. Commands are fire-and-forget:
// the inverter bridge applies them without acknowledgment, and the control
// loop re-asserts the active command every minute anyway.
type Actuator struct {
	pub         Publisher
	topicCharge string
	topicLimit  string
	log         logger.Logger
}

// NewActuator creates an Actuator publishing under the given topic prefix.
func NewActuator(pub Publisher, prefix string) (*Actuator, error) {
	if pub == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if prefix == "" {
		return nil, fmt.Errorf("topic prefix is required")
	}
	return &Actuator{
		pub:         pub,
		topicCharge: prefix + "/command/forced_charge",
		topicLimit:  prefix + "/command/discharge_limit",
		log:         logger.New("mqtt-actuator"),
	}, nil
}

func (a *Actuator) StartForcedCharge(_ context.Context, powerKW float64, duration time.Duration) error {
	cmd := forcedChargeCommand{
		ID:        uuid.NewString(),
		Enable:    true,
		PowerKW:   powerKW,
		DurationS: int(duration.Seconds()),
	}
	return a.publish(a.topicCharge, cmd)
}

func (a *Actuator) StopForcedCharge(context.Context) error {
	return a.publish(a.topicCharge, forcedChargeCommand{ID: uuid.NewString(), Enable: false})
}

func (a *Actuator) SetDischargePowerLimit(_ context.Context, powerKW float64) error {
	return a.publish(a.topicLimit, dischargeLimitCommand{ID: uuid.NewString(), PowerKW: powerKW})
}

func (a *Actuator) publish(topic string, cmd any) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	if err := a.pub.Publish(topic, payload, 1, false); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	a.log.Debugf("published command on %s", topic)
	return nil
}

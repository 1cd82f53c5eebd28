package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic    string
	payload  []byte
	retained bool
}

type fakeBroker struct {
	published []published
	failPub   bool
	handlers  map[string]mqtt.MessageHandler
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{handlers: make(map[string]mqtt.MessageHandler)}
}

func (f *fakeBroker) Publish(topic string, payload []byte, _ byte, retained bool) error {
	if f.failPub {
		return fmt.Errorf("broker down")
	}
	f.published = append(f.published, published{topic: topic, payload: payload, retained: retained})
	return nil
}

func (f *fakeBroker) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) error {
	f.handlers[topic] = cb
	return nil
}

func (f *fakeBroker) deliver(topic string, payload string) {
	if cb, ok := f.handlers[topic]; ok {
		cb(nil, fakeMessage{topic: topic, payload: []byte(payload)})
	}
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestActuatorStartForcedCharge(t *testing.T) {
	broker := newFakeBroker()
	act, err := NewActuator(broker, "bessarb/site1")
	require.NoError(t, err)

	require.NoError(t, act.StartForcedCharge(context.Background(), 2.5, time.Hour))
	require.Len(t, broker.published, 1)
	assert.Equal(t, "bessarb/site1/command/forced_charge", broker.published[0].topic)

	var cmd forcedChargeCommand
	require.NoError(t, json.Unmarshal(broker.published[0].payload, &cmd))
	assert.True(t, cmd.Enable)
	assert.Equal(t, 2.5, cmd.PowerKW)
	assert.Equal(t, 3600, cmd.DurationS)
	assert.NotEmpty(t, cmd.ID)
}

func TestActuatorStopAndLimit(t *testing.T) {
	broker := newFakeBroker()
	act, err := NewActuator(broker, "bessarb/site1")
	require.NoError(t, err)

	require.NoError(t, act.StopForcedCharge(context.Background()))
	require.NoError(t, act.SetDischargePowerLimit(context.Background(), 0))
	require.Len(t, broker.published, 2)

	var charge forcedChargeCommand
	require.NoError(t, json.Unmarshal(broker.published[0].payload, &charge))
	assert.False(t, charge.Enable)

	assert.Equal(t, "bessarb/site1/command/discharge_limit", broker.published[1].topic)
	var limit dischargeLimitCommand
	require.NoError(t, json.Unmarshal(broker.published[1].payload, &limit))
	assert.Equal(t, 0.0, limit.PowerKW)
}

func TestActuatorPublishError(t *testing.T) {
	broker := newFakeBroker()
	broker.failPub = true
	act, err := NewActuator(broker, "bessarb/site1")
	require.NoError(t, err)

	assert.Error(t, act.StopForcedCharge(context.Background()))
}

func TestSoCSource(t *testing.T) {
	broker := newFakeBroker()
	src, err := NewSoCSource(broker, "bessarb/site1/soc", 10, 0)
	require.NoError(t, err)

	_, err = src.CurrentSoCKWh(context.Background())
	assert.Error(t, err)

	broker.deliver("bessarb/site1/soc", "55")
	soc, err := src.CurrentSoCKWh(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 5.5, soc, 1e-9)

	broker.deliver("bessarb/site1/soc", `{"soc_percent": 80}`)
	soc, err = src.CurrentSoCKWh(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 8.0, soc, 1e-9)

	// malformed payloads keep the previous reading
	broker.deliver("bessarb/site1/soc", "not a number")
	soc, err = src.CurrentSoCKWh(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 8.0, soc, 1e-9)

	// out-of-range values clamp to the physical range
	broker.deliver("bessarb/site1/soc", "130")
	soc, err = src.CurrentSoCKWh(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 10.0, soc, 1e-9)
}

package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/gridloom/bessarb/core/coordinator"
	"github.com/gridloom/bessarb/infra/logger"
)

// stateMessage is the retained snapshot published on the state topic.
type stateMessage struct {
	Enabled          bool      `json:"enabled"`
	Status           string    `json:"status"`
	Action           string    `json:"action"`
	PlanAvailable    bool      `json:"plan_available"`
	NetBenefit       float64   `json:"net_benefit"`
	CyclesUsed       float64   `json:"cycles_used"`
	LastOptimization time.Time `json:"last_optimization,omitempty"`
	LastError        string    `json:"last_error,omitempty"`
}

// Bridge mirrors coordinator state to a retained MQTT topic and accepts
// enable/optimize commands from control topics.
type Bridge struct {
	coor   *coordinator.Coordinator
	pub    Publisher
	topic  string
	log    logger.Logger
	unsub  func()
	cancel context.CancelFunc
}

// NewBridge wires the coordinator to the broker under the given prefix.
// State is published on <prefix>/state; control topics are
// <prefix>/control/enable and <prefix>/control/optimize.
func NewBridge(coor *coordinator.Coordinator, pub Publisher, sub Subscriber, prefix string) (*Bridge, error) {
	if coor == nil {
		return nil, fmt.Errorf("coordinator is required")
	}
	if pub == nil || sub == nil {
		return nil, fmt.Errorf("mqtt client is required")
	}
	if prefix == "" {
		return nil, fmt.Errorf("topic prefix is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		coor:   coor,
		pub:    pub,
		topic:  prefix + "/state",
		log:    logger.New("mqtt-bridge"),
		cancel: cancel,
	}

	if err := sub.Subscribe(prefix+"/control/enable", 1, func(_ mqtt.Client, msg mqtt.Message) {
		b.onEnable(ctx, msg.Payload())
	}); err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe enable: %w", err)
	}
	if err := sub.Subscribe(prefix+"/control/optimize", 1, func(mqtt.Client, mqtt.Message) {
		if err := coor.TriggerOptimization(ctx); err != nil {
			b.log.Warnf("manual optimization failed: %v", err)
		}
	}); err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe optimize: %w", err)
	}

	b.unsub = coor.Subscribe(b.publishState)
	b.publishState()
	return b, nil
}

func (b *Bridge) onEnable(ctx context.Context, payload []byte) {
	switch strings.ToLower(strings.TrimSpace(string(payload))) {
	case "true", "on", "1":
		b.coor.SetEnabled(ctx, true)
	case "false", "off", "0":
		b.coor.SetEnabled(ctx, false)
	default:
		b.log.Warnf("unknown enable payload %q", payload)
	}
}

func (b *Bridge) publishState() {
	st := b.coor.Snapshot()
	msg := stateMessage{
		Enabled:          st.Enabled,
		Status:           st.Status.String(),
		Action:           st.CurrentAction.String(),
		PlanAvailable:    st.Plan.Success,
		NetBenefit:       st.Plan.NetBenefit,
		CyclesUsed:       st.Plan.CyclesUsed,
		LastOptimization: st.LastOptimization,
		LastError:        st.LastError,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		b.log.Errorf("marshal state: %v", err)
		return
	}
	if err := b.pub.Publish(b.topic, payload, 1, true); err != nil {
		b.log.Warnf("publish state: %v", err)
	}
}

// Close detaches the bridge from the coordinator.
func (b *Bridge) Close() {
	if b.unsub != nil {
		b.unsub()
	}
	b.cancel()
}

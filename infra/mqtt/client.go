package mqtt

import (
	"crypto/tls"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Client is the subset of the paho client used by the adapters.
type Client interface {
	IsConnected() bool
	Disconnect(uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// MqttClient wraps a connected paho client.
type MqttClient struct {
	client Client
}

// NewMqttClient connects to the broker and returns a ready client.
func NewMqttClient(broker, clientID string, tlsConfig *tls.Config, optsFunc func(*mqtt.ClientOptions)) (*MqttClient, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetTLSConfig(tlsConfig).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)

	if optsFunc != nil {
		optsFunc(opts)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &MqttClient{client: client}, nil
}

// Publish sends a payload on the given topic.
func (mc *MqttClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	token := mc.client.Publish(topic, qos, retained, payload)
	token.Wait()
	return token.Error()
}

// Subscribe registers a handler for the given topic.
func (mc *MqttClient) Subscribe(topic string, qos byte, cb mqtt.MessageHandler) error {
	token := mc.client.Subscribe(topic, qos, cb)
	token.Wait()
	return token.Error()
}

// Close disconnects from the broker.
func (mc *MqttClient) Close() {
	if mc.client.IsConnected() {
		mc.client.Disconnect(250)
	}
}

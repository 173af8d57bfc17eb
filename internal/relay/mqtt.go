package relay

import (
	"context"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"appointment-booking-api/internal/config"
	"appointment-booking-api/internal/notify"
)

const mqttConnectTimeout = 10 * time.Second

// MQTT publishes each event to <topic>/<kind>, e.g. appointments/events/booked.
type MQTT struct {
	client pahomqtt.Client
	topic  string
	qos    byte
}

func DialMQTT(cfg config.MQTTConfig) (*MQTT, error) {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(mqttConnectTimeout)
	opts.SetKeepAlive(30 * time.Second)

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("connect to %s: timeout after %v", cfg.Broker, mqttConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, err)
	}
	return newMQTT(client, cfg), nil
}

func newMQTT(client pahomqtt.Client, cfg config.MQTTConfig) *MQTT {
	return &MQTT{client: client, topic: cfg.Topic, qos: cfg.QoS}
}

func (m *MQTT) Name() string { return "mqtt" }

func (m *MQTT) Publish(ctx context.Context, ev notify.Event, payload []byte) error {
	if !m.client.IsConnectionOpen() {
		return errNotConnected
	}
	token := m.client.Publish(m.topic+"/"+suffix(ev.Kind), m.qos, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}

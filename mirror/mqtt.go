package mirror

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/jpalmerr/signalboard"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second

	// disconnectQuiesce is how long Close waits for in-flight work, in ms.
	disconnectQuiesce = 250
)

// Publisher is the subset of [paho.Client] the MQTT mirror uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// MQTTOptions configures [DialMQTT].
type MQTTOptions struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883.
	Broker string

	// ClientID defaults to "signalboard-" plus a random suffix.
	ClientID string

	Username string
	Password string

	// TopicPrefix defaults to "signalboard".
	TopicPrefix string
}

// MQTT publishes rendered values to an MQTT broker.
//
// Messages are sent with QoS 0 and the retained flag, so a subscriber
// that connects later still receives the latest value.
type MQTT struct {
	client Publisher
	prefix string
	last   lastValues
}

// NewMQTT creates an MQTT mirror publishing through client beneath prefix.
func NewMQTT(client Publisher, prefix string) *MQTT {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "signalboard"
	}
	return &MQTT{client: client, prefix: prefix}
}

// DialMQTT connects to the broker and returns an MQTT mirror.
//
// The client reconnects automatically after the initial connection.
// Returns an error if the broker is not reachable within 10 seconds.
func DialMQTT(o MQTTOptions) (*MQTT, error) {
	if o.Broker == "" {
		return nil, errors.New("mqtt broker is required")
	}

	clientID := o.ClientID
	if clientID == "" {
		clientID = "signalboard-" + uuid.NewString()[:8]
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetConnectTimeout(connectTimeout)
	if o.Username != "" {
		opts.SetUsername(o.Username)
	}
	if o.Password != "" {
		opts.SetPassword(o.Password)
	}

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("connect to broker %s: timeout", o.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker %s: %w", o.Broker, err)
	}

	return NewMQTT(client, o.TopicPrefix), nil
}

// Topic returns the topic a poller's values are published to.
func (m *MQTT) Topic(poller string) string {
	return m.prefix + "/" + poller
}

// Publish sends r to "<prefix>/<poller>" if its value changed since the
// last successful publish. Results that were not rendered, or that are older
// than a result already seen, are ignored.
func (m *MQTT) Publish(ctx context.Context, r signalboard.PollResult) error {
	if !r.Rendered() || !m.last.admit(r.Poller, r.Seq, r.Value) {
		return nil
	}

	payload, err := FormatPayload(r)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	topic := m.Topic(r.Poller)
	// QoS 0 (at-most-once), retained
	token := m.client.Publish(topic, 0, true, payload)

	timer := time.NewTimer(publishTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("publish to %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	m.last.record(r.Poller, r.Value)
	return nil
}

// Close disconnects from the broker.
func (m *MQTT) Close() error {
	m.client.Disconnect(disconnectQuiesce)
	return nil
}

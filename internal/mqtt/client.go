package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/denwilliams/blink1-mqtt/internal/logging"
	pm "github.com/eclipse/paho.mqtt.golang"
)

// Message is one publish received on the command topic.
type Message struct {
	Topic   string
	Payload []byte
}

// SessionInfo describes the outcome of a successful Connect.
type SessionInfo struct {
	Broker         string
	SessionPresent bool
	Subscribed     bool
}

// MQTTClient owns the broker session for the bridge.
//
// Received publishes and connection losses are delivered in order on the
// channel returned by Messages. A lost connection shows up as a nil item.
type MQTTClient struct {
	client pm.Client
	broker string
	topic  string

	messages  chan *Message
	done      chan struct{}
	closeOnce sync.Once

	sleep func(time.Duration)
}

func NewMQTTClient(o Options) (*MQTTClient, error) {
	broker, err := BrokerURI(o.Broker)
	if err != nil {
		return nil, err
	}

	mc := newClient(nil, broker, o.CommandTopic)
	opts := buildClientOptions(o, broker).
		// Publishes on a resumed session arrive before any Subscribe call adds a route.
		SetDefaultPublishHandler(mc.handleMessage).
		SetOnConnectHandler(func(c pm.Client) {
			logging.Info("Connected to MQTT broker %s", broker)
		}).
		SetConnectionLostHandler(func(c pm.Client, err error) {
			mc.connectionLost(err)
		})
	mc.client = pm.NewClient(opts)
	return mc, nil
}

func newClient(client pm.Client, broker string, topic string) *MQTTClient {
	return &MQTTClient{
		client:   client,
		broker:   broker,
		topic:    topic,
		messages: make(chan *Message, messageBuffer),
		done:     make(chan struct{}),
		sleep:    time.Sleep,
	}
}

// Messages returns the inbound stream. It is never closed; stop reading once
// Shutdown has been called.
func (mc *MQTTClient) Messages() <-chan *Message {
	return mc.messages
}

func (mc *MQTTClient) IsConnected() bool {
	return mc.client.IsConnected()
}

// Connect establishes the session. When the broker still holds a session for
// this client the subscription is kept as is, otherwise the command topic is
// subscribed at QoS 0.
func (mc *MQTTClient) Connect() (SessionInfo, error) {
	info := SessionInfo{Broker: mc.broker}

	token := mc.client.Connect()
	if token.Wait() && token.Error() != nil {
		return info, fmt.Errorf("%w: %w", ErrConnectionFailed, token.Error())
	}

	if ct, ok := token.(interface{ SessionPresent() bool }); ok {
		info.SessionPresent = ct.SessionPresent()
	}
	if info.SessionPresent {
		logging.Info("Client session already present on broker")
		return info, nil
	}

	if token := mc.client.Subscribe(mc.topic, commandQoS, mc.handleMessage); token.Wait() && token.Error() != nil {
		return info, fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, mc.topic, token.Error())
	}
	info.Subscribed = true
	logging.Info("Subscribed to %s", mc.topic)

	return info, nil
}

// Reconnect retries Connect up to maxAttempts times, sleeping interval before
// each attempt. It returns true on the first success and false once the
// budget is spent.
func (mc *MQTTClient) Reconnect(maxAttempts int, interval time.Duration) bool {
	logging.Warn("Connection lost. Waiting to retry connection")

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		mc.sleep(interval)

		_, err := mc.Connect()
		reconnectAttempts.WithLabelValues(resultLabel(err)).Inc()
		if err == nil {
			logging.Info("Successfully reconnected after %d attempt(s)", attempt)
			return true
		}
		logging.Debug("Reconnect attempt %d/%d failed: %s", attempt, maxAttempts, err)

		// Connected but not subscribed; drop it so the next attempt starts clean.
		if errors.Is(err, ErrSubscribeFailed) {
			mc.client.Disconnect(disconnectQuiesce)
		}
	}

	logging.Error("Unable to reconnect after %d attempts", maxAttempts)
	return false
}

// Shutdown unsubscribes when still connected and then always disconnects.
func (mc *MQTTClient) Shutdown() {
	logging.Info("Disconnecting from MQTT")

	// paho handles UNSUBACK on the same goroutine that delivers publishes, so a
	// push blocked on a full stream must be released before waiting on it.
	mc.closeOnce.Do(func() { close(mc.done) })

	if mc.client.IsConnected() {
		if token := mc.client.Unsubscribe(mc.topic); token.Wait() && token.Error() != nil {
			logging.Warn("Error unsubscribing from %s: %s", mc.topic, fmt.Errorf("%w: %w", ErrUnsubscribeFailed, token.Error()))
		}
	}

	mc.client.Disconnect(disconnectQuiesce)
}

// Publish sends payload at QoS 0 without the retain flag.
func (mc *MQTTClient) Publish(topic string, payload []byte) error {
	if !mc.client.IsConnected() {
		return ErrNotConnected
	}
	if token := mc.client.Publish(topic, commandQoS, false, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, token.Error())
	}
	return nil
}

func (mc *MQTTClient) handleMessage(_ pm.Client, msg pm.Message) {
	messagesReceived.Inc()
	logging.Debug("Received message on topic %s: %s", msg.Topic(), msg.Payload())
	mc.push(&Message{Topic: msg.Topic(), Payload: msg.Payload()})
}

func (mc *MQTTClient) connectionLost(err error) {
	logging.Warn("Connection to MQTT broker lost: %v", err)
	mc.push(nil)
}

// push blocks so that paho's router applies backpressure instead of dropping
// commands, until Shutdown releases it.
func (mc *MQTTClient) push(m *Message) {
	select {
	case mc.messages <- m:
	case <-mc.done:
	}
}

package mqtt

import (
	"encoding/json"
	"fmt"

	"github.com/denwilliams/blink1-mqtt/internal/logging"
)

// Publisher is the part of MQTTClient the status publisher needs.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// StatusPublisher mirrors the device colour to the status topic.
type StatusPublisher struct {
	publisher Publisher
	topic     string
}

func NewStatusPublisher(p Publisher, topic string) *StatusPublisher {
	return &StatusPublisher{publisher: p, topic: topic}
}

// PublishStatus sends c as {"r":..,"g":..,"b":..}.
func (sp *StatusPublisher) PublishStatus(c Color) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("%w: encoding status: %w", ErrPublishFailed, err)
	}

	err = sp.publisher.Publish(sp.topic, payload)
	statusPublished.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		return err
	}

	logging.Debug("Published %s to %s", payload, sp.topic)
	return nil
}

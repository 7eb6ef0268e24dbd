// Package bridge runs the command loop between the MQTT session and the
// blink(1): one command at a time, in delivery order.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/denwilliams/blink1-mqtt/internal/logging"
	"github.com/denwilliams/blink1-mqtt/internal/mqtt"
)

// ErrDevice wraps the device failure that stopped the loop.
var ErrDevice = errors.New("bridge: device failure")

// Connection is the session the loop reads commands from.
type Connection interface {
	// Messages yields received commands; nil means the connection dropped.
	Messages() <-chan *mqtt.Message
	IsConnected() bool
	Reconnect(maxAttempts int, interval time.Duration) bool
}

// Device is the light being driven.
type Device interface {
	Set(c mqtt.Color) error
}

// StatusPublisher mirrors every colour shown on the device.
type StatusPublisher interface {
	PublishStatus(c mqtt.Color) error
}

// Loop drives the device from the connection's command stream.
type Loop struct {
	conn   Connection
	device Device
	status StatusPublisher

	reconnectAttempts int
	reconnectInterval time.Duration

	sleep func(time.Duration)
}

func NewLoop(conn Connection, device Device, status StatusPublisher, reconnectAttempts int, reconnectInterval time.Duration) *Loop {
	return &Loop{
		conn:              conn,
		device:            device,
		status:            status,
		reconnectAttempts: reconnectAttempts,
		reconnectInterval: reconnectInterval,
		sleep:             time.Sleep,
	}
}

// Run processes commands until ctx is cancelled, the reconnect budget is
// spent or the device fails. Only a device failure is returned as an error.
// A command that has started always runs to completion, and the device is
// switched off once on every exit path.
//
// Reconnect does not observe ctx, so a signal that arrives while the
// reconnect budget is running takes effect once Reconnect returns.
func (l *Loop) Run(ctx context.Context) error {
	defer l.cleanup()

	for {
		if ctx.Err() != nil {
			logging.Info("Stopping command loop")
			return nil
		}

		select {
		case <-ctx.Done():
			logging.Info("Stopping command loop")
			return nil
		case msg, ok := <-l.conn.Messages():
			if !ok {
				logging.Info("Message stream closed")
				return nil
			}
			if msg == nil {
				if l.conn.IsConnected() {
					continue
				}
				if !l.conn.Reconnect(l.reconnectAttempts, l.reconnectInterval) {
					logging.Warn("Gave up reconnecting to the MQTT broker, shutting down")
					return nil
				}
				continue
			}
			if err := l.handle(msg); err != nil {
				return err
			}
		}
	}
}

func (l *Loop) handle(msg *mqtt.Message) error {
	cmd, err := mqtt.Decode(msg.Payload)
	if err != nil {
		commandsHandled.WithLabelValues("invalid").Inc()
		logging.Warn("%s", err)
		return nil
	}

	logging.Info("Received %s", cmd)

	switch c := cmd.(type) {
	case mqtt.SetColor:
		commandsHandled.WithLabelValues("color").Inc()
		return l.show(c.Color)
	case mqtt.Blink:
		commandsHandled.WithLabelValues("blink").Inc()
		return l.blink(c)
	}
	return nil
}

func (l *Loop) blink(b mqtt.Blink) error {
	for i := uint64(0); i < b.Count; i++ {
		if err := l.show(b.Color); err != nil {
			return err
		}
		l.sleep(b.Interval)

		if err := l.show(mqtt.Off); err != nil {
			return err
		}
		l.sleep(b.Interval)

		blinkCycles.Inc()
	}
	return nil
}

// show sets the device and mirrors the colour. A device error is fatal,
// a status error is only logged.
func (l *Loop) show(c mqtt.Color) error {
	if err := l.device.Set(c); err != nil {
		return fmt.Errorf("%w: %w", ErrDevice, err)
	}

	if err := l.status.PublishStatus(c); err != nil {
		logging.Warn("Unable to publish status %s: %s", c, err)
	}
	return nil
}

func (l *Loop) cleanup() {
	logging.Info("Cleaning up...")
	if err := l.device.Set(mqtt.Off); err != nil {
		logging.Error("Unable to switch the device off: %s", err)
	}
}

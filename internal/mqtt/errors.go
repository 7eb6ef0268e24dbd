package mqtt

import "errors"

// Use errors.Is to check for these in calling code.
var (
	// ErrNotConnected is returned when publishing on a disconnected session.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectionFailed is returned when a connect or reconnect attempt fails.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	ErrSubscribeFailed   = errors.New("mqtt: subscribe failed")
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")
	ErrPublishFailed     = errors.New("mqtt: publish failed")

	// ErrInvalidBrokerURL is returned when MQTT_URL has no host or an unknown scheme.
	ErrInvalidBrokerURL = errors.New("mqtt: invalid broker url")

	// ErrInvalidCommand matches every *DecodeError.
	ErrInvalidCommand = errors.New("mqtt: invalid command")
)

package mqtt

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/dchest/uniuri"
	"github.com/denwilliams/blink1-mqtt/internal/logging"
	pm "github.com/eclipse/paho.mqtt.golang"
)

const (
	// DefaultKeepAlive is the keep-alive interval of the client session.
	DefaultKeepAlive = 20 * time.Second

	clientIDPrefix = "blink1_mqtt_"

	// disconnectQuiesce is in milliseconds.
	disconnectQuiesce = 250

	// commandQoS is at-most-once for both directions.
	commandQoS = 0

	messageBuffer = 64
)

// Options describes the broker session.
type Options struct {
	// Broker carries host, optional port, username and password.
	Broker       *url.URL
	ClientID     string
	CleanSession bool
	CommandTopic string
	KeepAlive    time.Duration
}

// BrokerURI converts the configured broker URL into the form paho expects.
// mqtt:// and tcp:// map to tcp://, mqtts://, ssl:// and tls:// map to ssl://,
// ws:// and wss:// are kept together with their path.
func BrokerURI(u *url.URL) (string, error) {
	if u == nil || u.Hostname() == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidBrokerURL)
	}

	scheme, port := "tcp", "1883"
	switch strings.ToLower(u.Scheme) {
	case "mqtt", "tcp":
	case "mqtts", "ssl", "tls":
		scheme, port = "ssl", "8883"
	case "ws":
		scheme, port = "ws", "80"
	case "wss":
		scheme, port = "wss", "443"
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidBrokerURL, u.Scheme)
	}
	if p := u.Port(); p != "" {
		port = p
	}

	uri := scheme + "://" + net.JoinHostPort(u.Hostname(), port)
	if scheme == "ws" || scheme == "wss" {
		uri += u.Path
	}
	return uri, nil
}

func buildClientOptions(o Options, broker string) *pm.ClientOptions {
	clientID := o.ClientID
	if clientID == "" {
		clientID = clientIDPrefix + uniuri.New()
	}
	keepAlive := o.KeepAlive
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}

	opts := pm.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetKeepAlive(keepAlive).
		SetCleanSession(o.CleanSession).
		SetOrderMatters(true).
		// Recovery is driven by MQTTClient.Reconnect with a fixed budget.
		SetAutoReconnect(false).
		SetConnectRetry(false)

	if user := o.Broker.User; user != nil {
		if name := user.Username(); name != "" {
			logging.Info("Setting username to %s", name)
			opts.SetUsername(name)
		}
		if password, ok := user.Password(); ok {
			logging.Info("Setting password (masked)")
			opts.SetPassword(password)
		}
	}

	return opts
}

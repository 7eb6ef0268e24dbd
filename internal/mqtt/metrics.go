package mqtt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blink1_mqtt_messages_received_total",
		Help: "The total number of messages received on the command topic",
	})
	reconnectAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blink1_mqtt_reconnect_attempts_total",
		Help: "The total number of reconnect attempts",
	}, []string{"result"})
	statusPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blink1_mqtt_status_published_total",
		Help: "The total number of status messages published",
	}, []string{"result"})
)

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

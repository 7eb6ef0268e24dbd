package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blink1_commands_total",
		Help: "The total number of commands received, by type",
	}, []string{"type"})
	blinkCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blink1_blink_cycles_total",
		Help: "The total number of completed on/off blink cycles",
	})
)

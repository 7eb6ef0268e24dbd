package blink1

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deviceWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blink1_device_writes_total",
		Help: "The total number of colour reports written to the blink(1)",
	}, []string{"result"})
	channelsSaturated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blink1_channels_saturated_total",
		Help: "The total number of colour channels above 255 that were clamped",
	})
)

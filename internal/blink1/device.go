package blink1

import (
	"errors"
	"fmt"
	"sync"

	"github.com/denwilliams/blink1-mqtt/internal/logging"
	"github.com/denwilliams/blink1-mqtt/internal/mqtt"
	"github.com/sstallion/go-hid"
)

// USB identifiers of the ThingM blink(1).
const (
	VendorID  uint16 = 0x27B8
	ProductID uint16 = 0x01ED
)

var (
	// ErrDeviceNotFound is returned by Open when no blink(1) is attached.
	ErrDeviceNotFound = errors.New("blink1: unable to find device")

	// ErrWriteFailed is returned when a colour report cannot be delivered.
	ErrWriteFailed = errors.New("blink1: write failed")
)

type featureWriter interface {
	SendFeatureReport(b []byte) (int, error)
	Close() error
}

// HIDDevice drives a blink(1) through hidapi feature reports.
type HIDDevice struct {
	mu     sync.Mutex
	dev    featureWriter
	closer func() error
}

// Open initialises hidapi and opens the first blink(1) it finds.
func Open() (*HIDDevice, error) {
	if err := hid.Init(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceNotFound, err)
	}

	d, err := hid.OpenFirst(VendorID, ProductID)
	if err != nil {
		hid.Exit()
		return nil, fmt.Errorf("%w: %w", ErrDeviceNotFound, err)
	}

	logging.Info("Opened blink(1) %04x:%04x", VendorID, ProductID)
	return &HIDDevice{dev: d, closer: hid.Exit}, nil
}

// Set writes c without fading. Channels above 255 are clamped to 255.
func (d *HIDDevice) Set(c mqtt.Color) error {
	report, clamped := setNowReport(c)
	if clamped > 0 {
		channelsSaturated.Add(float64(clamped))
		logging.Warn("Clamping %s to the 0-255 range of the device", c)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dev == nil {
		return fmt.Errorf("%w: device closed", ErrWriteFailed)
	}

	_, err := d.dev.SendFeatureReport(report)
	if err != nil {
		deviceWrites.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	deviceWrites.WithLabelValues("ok").Inc()
	logging.Debug("Set blink(1) to %s", c)
	return nil
}

// Close releases the device handle and hidapi.
func (d *HIDDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dev == nil {
		return nil
	}
	err := d.dev.Close()
	d.dev = nil
	if d.closer != nil {
		if exitErr := d.closer(); err == nil {
			err = exitErr
		}
	}
	return err
}

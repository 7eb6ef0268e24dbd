package mqtt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// Color is one RGB value as carried on the wire. Channels are not range
// checked here; the device decides what it accepts.
type Color struct {
	R uint64 `json:"r"`
	G uint64 `json:"g"`
	B uint64 `json:"b"`
}

// Off is the neutral colour sent between blinks and on shutdown.
var Off = Color{}

func (c Color) String() string {
	return fmt.Sprintf("Color(r: %d, g: %d, b: %d)", c.R, c.G, c.B)
}

// Command is either SetColor or Blink.
type Command interface {
	fmt.Stringer
	command()
}

// SetColor shows one colour until the next command.
type SetColor struct {
	Color Color
}

func (SetColor) command() {}

func (c SetColor) String() string {
	return "SetColor(" + c.Color.String() + ")"
}

// Blink alternates Color and Off Count times, holding each for Interval.
type Blink struct {
	Color    Color
	Interval time.Duration
	Count    uint64
}

func (Blink) command() {}

func (b Blink) String() string {
	return fmt.Sprintf("Blink(interval: %v, count: %d, color: %s)", b.Interval, b.Count, b.Color)
}

// DecodeError is returned for any payload that is not a valid command.
type DecodeError struct {
	Payload string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unable to parse message '%s': %v", e.Payload, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrInvalidCommand
}

var (
	errAmbiguousCommand = errors.New(`payload has both "color" and "blink"`)
	errUnknownCommand   = errors.New(`payload has neither "color" nor "blink"`)
	errMissingColor     = errors.New(`blink has no "color"`)
	errNegativeInterval = errors.New("blink interval cannot be negative")
	errIntervalRange    = errors.New("blink interval out of range")
	errNullValue        = errors.New("value cannot be null")
)

// maxIntervalMillis is the longest interval a time.Duration can hold.
const maxIntervalMillis = uint64(math.MaxInt64 / int64(time.Millisecond))

type blinkPayload struct {
	Color     json.RawMessage `json:"color"`
	Interval  *uint64         `json:"interval"`
	Frequency *float64        `json:"frequency"`
	Count     uint64          `json:"count"`
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// rejectNulls fails when raw is null or is an object holding a null member.
// encoding/json would otherwise read those as zero values.
func rejectNulls(raw json.RawMessage) error {
	if isNull(raw) {
		return errNullValue
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	for name, v := range fields {
		if isNull(v) {
			return fmt.Errorf("%w: %q", errNullValue, name)
		}
	}
	return nil
}

func decodeColor(raw json.RawMessage) (Color, error) {
	var c Color
	if err := rejectNulls(raw); err != nil {
		return c, err
	}
	err := json.Unmarshal(raw, &c)
	return c, err
}

func blinkInterval(p blinkPayload) (time.Duration, error) {
	switch {
	case p.Interval != nil:
		if *p.Interval > maxIntervalMillis {
			return 0, errIntervalRange
		}
		return time.Duration(*p.Interval) * time.Millisecond, nil
	case p.Frequency != nil:
		f := *p.Frequency
		if f < 0 {
			return 0, errNegativeInterval
		}
		if math.IsNaN(f) || math.IsInf(f, 0) || f > float64(maxIntervalMillis) {
			return 0, errIntervalRange
		}
		return time.Duration(f * float64(time.Millisecond)), nil
	}
	return 0, nil
}

// Decode parses a command payload. The shape is picked by which top-level key
// is present: {"color":{...}} or {"blink":{...}}. Both or neither is an error.
//
// Inside a blink, "interval" is in milliseconds. "frequency" is read as the
// same interval when "interval" is missing.
func Decode(payload []byte) (Command, error) {
	fail := func(err error) (Command, error) {
		return nil, &DecodeError{Payload: string(payload), Err: err}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return fail(err)
	}

	colorRaw, hasColor := fields["color"]
	blinkRaw, hasBlink := fields["blink"]

	switch {
	case hasColor && hasBlink:
		return fail(errAmbiguousCommand)
	case hasColor:
		c, err := decodeColor(colorRaw)
		if err != nil {
			return fail(err)
		}
		return SetColor{Color: c}, nil
	case hasBlink:
		if err := rejectNulls(blinkRaw); err != nil {
			return fail(err)
		}
		var p blinkPayload
		if err := json.Unmarshal(blinkRaw, &p); err != nil {
			return fail(err)
		}
		if p.Color == nil {
			return fail(errMissingColor)
		}
		c, err := decodeColor(p.Color)
		if err != nil {
			return fail(err)
		}
		interval, err := blinkInterval(p)
		if err != nil {
			return fail(err)
		}
		return Blink{Color: c, Interval: interval, Count: p.Count}, nil
	default:
		return fail(errUnknownCommand)
	}
}

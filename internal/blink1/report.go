package blink1

import "github.com/denwilliams/blink1-mqtt/internal/mqtt"

const (
	reportID   = 0x01
	reportSize = 9

	cmdSetRGBNow = 'n'

	maxChannel = 255
)

// setNowReport builds the feature report that sets the LEDs immediately,
// without a fade: [id, 'n', r, g, b, 0, 0, 0, 0].
// The second return value is the number of channels that had to be clamped.
func setNowReport(c mqtt.Color) ([]byte, int) {
	r, rc := channel(c.R)
	g, gc := channel(c.G)
	b, bc := channel(c.B)

	report := make([]byte, reportSize)
	report[0] = reportID
	report[1] = cmdSetRGBNow
	report[2] = r
	report[3] = g
	report[4] = b
	return report, rc + gc + bc
}

func channel(v uint64) (byte, int) {
	if v > maxChannel {
		return maxChannel, 1
	}
	return byte(v), 0
}

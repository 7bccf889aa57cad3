package ble

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"tinygo.org/x/bluetooth"
)

func TestMatchAddress(t *testing.T) {
	t.Parallel()
	cases := []struct {
		filter  string
		address string
		expect  bool
	}{
		{"", "C8:3F:26:01:02:03", true},
		{"c8:3f:26:01:02:03", "C8:3F:26:01:02:03", true},
		{" C8:3F:26:01:02:03 ", "C8:3F:26:01:02:03", true},
		{"C8:3F:26:01:02:04", "C8:3F:26:01:02:03", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.expect, MatchAddress(c.filter, c.address), "filter=%q address=%q", c.filter, c.address)
	}
}

func TestUUIDs(t *testing.T) {
	t.Parallel()
	assert.Equal(t, bluetooth.ServiceUUIDHeartRate, UUIDService)
	assert.Equal(t, bluetooth.CharacteristicUUIDHeartRateMeasurement, UUIDMeasurement)
	assert.Equal(t, bluetooth.CharacteristicUUIDBodySensorLocation, UUIDBodySensorLocation)
}

func TestLinkWatch(t *testing.T) {
	t.Parallel()
	w := newLinkWatch("C8:3F:26:01:02:03")
	// connect events and other devices are ignored
	w.handle("C8:3F:26:01:02:03", true)
	w.handle("C8:3F:26:01:02:04", false)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.NoError(t, w.wait(ctx))

	w.handle("c8:3f:26:01:02:03", false)
	w.handle("C8:3F:26:01:02:03", false)
	assert.Equal(t, ErrLinkLost, w.wait(context.Background()))
}

package hrm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeBodySensorLocation(t *testing.T) {
	t.Parallel()

	expect := []string{"Other", "Chest", "Wrist", "Finger", "Hand", "Ear Lobe", "Foot"}
	for code := 0; code <= 255; code++ {
		l := DecodeBodySensorLocation(byte(code))
		if code < len(expect) {
			assert.Equal(t, BodySensorLocation(code), l)
			assert.Equal(t, expect[code], l.String())
		} else {
			assert.Equal(t, LocationReserved, l, "code=%d", code)
			assert.Equal(t, "Reserved for future use", l.String())
		}
	}
}

func TestBodySensorLocationFromBytes(t *testing.T) {
	t.Parallel()

	_, ok := BodySensorLocationFromBytes(nil)
	assert.False(t, ok)
	l, ok := BodySensorLocationFromBytes([]byte{0x01, 0xff})
	assert.True(t, ok)
	assert.Equal(t, LocationChest, l)
	assert.Equal(t, "Reserved for future use", BodySensorLocation(200).String())
}

package hrm

import (
	"encoding/binary"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMeasurement(t *testing.T) {
	t.Parallel()
	type Case struct {
		name      string
		input     string
		expect    Measurement
		expectErr bool
	}
	cases := []Case{
		{"uint8", "004b", Measurement{BPM: 75, RR: []uint16{}}, false},
		{"uint8-rr-flag-no-data", "104b", Measurement{BPM: 75, RR: []uint16{}}, false},
		{"uint16", "014b00", Measurement{BPM: 75, RR: []uint16{}}, false},
		{"uint16-high", "012c01", Measurement{BPM: 300, RR: []uint16{}}, false},
		{"uint16-rr", "114b000004", Measurement{BPM: 75, RR: []uint16{1000}}, false},
		{"rr-many", "1048000400020003", Measurement{BPM: 72, RR: []uint16{1000, 500, 750}}, false},
		{"rr-odd-trailing", "10480004ff", Measurement{BPM: 72, RR: []uint16{1000}}, false},
		{"rr-truncating", "10480104", Measurement{BPM: 72, RR: []uint16{1000}}, false},
		{"energy", "084b3412", Measurement{BPM: 75, RR: []uint16{}, Energy: 0x1234, EnergyPresent: true}, false},
		{"energy-rr", "194b00e8030004", Measurement{BPM: 75, RR: []uint16{1000}, Energy: 1000, EnergyPresent: true}, false},
		{"energy-zero", "084b0000", Measurement{BPM: 75, RR: []uint16{}, Energy: 0, EnergyPresent: true}, false},
		{"rr-not-flagged-ignored", "004b0004", Measurement{BPM: 75, RR: []uint16{}}, false},
		{"unknown-bits", "e04b", Measurement{BPM: 75, RR: []uint16{}}, false},
		{"contact-detected", "064b", Measurement{BPM: 75, RR: []uint16{}, Contact: ContactDetected}, false},
		{"contact-lost", "044b", Measurement{BPM: 75, RR: []uint16{}, Contact: ContactNotDetected}, false},
		{"empty", "", Measurement{}, true},
		{"flags-only", "00", Measurement{}, true},
		{"uint16-short", "014b", Measurement{}, true},
		{"energy-short", "084b34", Measurement{}, true},
		{"energy-missing", "184b", Measurement{}, true},
	}
	rand.New(rand.NewSource(time.Now().UnixNano())).Shuffle(len(cases), func(i int, j int) { cases[i], cases[j] = cases[j], cases[i] })
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			m, err := DecodeMeasurement(MustFrameFromHex(c.input))
			if c.expectErr {
				require.Error(t, err)
				assert.True(t, IsMalformed(err), "err=%v", err)
				assert.Equal(t, Measurement{}, m)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.expect, m)
		})
	}
}

// Random valid frames checked against arithmetic definition of the format.
func TestDecodeMeasurementRandom(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < 1000; i++ {
		flags := byte(rnd.Intn(256))
		b := []byte{flags}
		var hr uint16
		if flags&FlagFormatUint16 != 0 {
			lo, hi := byte(rnd.Intn(256)), byte(rnd.Intn(256))
			hr = uint16(lo) + uint16(hi)*256
			b = append(b, lo, hi)
		} else {
			hr = uint16(rnd.Intn(256))
			b = append(b, byte(hr))
		}
		if flags&FlagEnergyPresent != 0 {
			b = append(b, byte(rnd.Intn(256)), byte(rnd.Intn(256)))
		}
		rrStart := len(b)
		tail := rnd.Intn(20)
		for j := 0; j < tail; j++ {
			b = append(b, byte(rnd.Intn(256)))
		}

		m, err := DecodeMeasurement(b)
		require.NoError(t, err, "frame=%x", b)
		assert.Equal(t, hr, m.BPM, "frame=%x", b)
		if flags&FlagRRIntervalPresent == 0 {
			assert.Empty(t, m.RR)
			continue
		}
		require.Len(t, m.RR, tail/2, "frame=%x", b)
		for j, rr := range m.RR {
			raw := binary.LittleEndian.Uint16(b[rrStart+j*2:])
			assert.Equal(t, uint16(float64(raw)/1024*1000), rr)
		}
	}
}

func TestDecodeMeasurementShortNeverPanics(t *testing.T) {
	t.Parallel()

	for flags := 0; flags < 256; flags++ {
		for l := 0; l <= 2; l++ {
			b := make([]byte, l)
			if l > 0 {
				b[0] = byte(flags)
			}
			assert.NotPanics(t, func() { _, _ = DecodeMeasurement(b) })
		}
	}
	_, err := DecodeMeasurement([]byte{FlagFormatUint16, 0x4b})
	assert.True(t, IsMalformed(err))
}

func TestRRToMillis(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint16(1000), RRToMillis(1024))
	assert.Equal(t, uint16(0), RRToMillis(1))
	assert.Equal(t, uint16(999), RRToMillis(1023))
	assert.Equal(t, uint16(63999), RRToMillis(65535))
}

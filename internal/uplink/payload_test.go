package uplink_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/openhrv/hardware/hrm"
	"github.com/temoto/openhrv/internal/uplink"
)

func TestPayloadJSON(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 1, 2, 3, 4, 5, 6000000, time.UTC)
	cases := []struct {
		name   string
		m      hrm.Measurement
		at     time.Time
		expect string
	}{
		{"no-rr", hrm.Measurement{BPM: 75}, at, `{"hr":75,"rrs":[],"time":"2026-01-02T03:04:05.006Z"}`},
		{"empty-rr", hrm.Measurement{BPM: 75, RR: []uint16{}}, at, `{"hr":75,"rrs":[],"time":"2026-01-02T03:04:05.006Z"}`},
		{"rr", hrm.Measurement{BPM: 300, RR: []uint16{1000, 500}}, at, `{"hr":300,"rrs":[1000,500],"time":"2026-01-02T03:04:05.006Z"}`},
		{"zone", hrm.Measurement{BPM: 60}, time.Date(2026, 1, 2, 0, 0, 0, 999999999, time.FixedZone("", -5*3600)),
			`{"hr":60,"rrs":[],"time":"2026-01-02T05:00:00.999Z"}`},
		{"energy-ignored", hrm.Measurement{BPM: 61, Energy: 9, EnergyPresent: true}, at, `{"hr":61,"rrs":[],"time":"2026-01-02T03:04:05.006Z"}`},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			b, err := uplink.NewPayload(c.m, c.at).Marshal()
			require.NoError(t, err)
			assert.Equal(t, c.expect, string(b))
		})
	}
}

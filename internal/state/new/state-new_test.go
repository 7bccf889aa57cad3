package state_new_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/openhrv/hardware/hrm"
	"github.com/temoto/openhrv/helpers"
	"github.com/temoto/openhrv/internal/beacon"
	state_new "github.com/temoto/openhrv/internal/state/new"
	"github.com/temoto/openhrv/log2"
	uplink_api "github.com/temoto/openhrv/uplink"
	uplink_config "github.com/temoto/openhrv/uplink/config"
)

type recordUplink struct {
	uplink_api.Noop
	mu     sync.Mutex
	config uplink_config.Config
	bpms   []uint16
	closed bool
}

func (u *recordUplink) Init(ctx context.Context, log *log2.Log, c uplink_config.Config) error {
	u.config = c
	return nil
}
func (u *recordUplink) SendAsync(ctx context.Context, m hrm.Measurement, at time.Time) *helpers.Future {
	u.mu.Lock()
	u.bpms = append(u.bpms, m.BPM)
	u.mu.Unlock()
	return u.Noop.SendAsync(ctx, m, at)
}
func (u *recordUplink) Close() { u.closed = true }

func TestGlobalPipeline(t *testing.T) {
	t.Parallel()
	u := &recordUplink{}
	_, g := state_new.NewTestContext(t, "test", `
uplink { enable = true base_url = "http://127.0.0.1:1/api" client_id = "c" }
sensor { display_valid_sec = 60 }`, u)
	assert.Equal(t, "c", u.config.ClientID)

	g.Pipeline.OnConnect(true)
	g.Pipeline.OnBodySensorLocation([]byte{1})
	g.Pipeline.OnMeasurement([]byte{0x00, 66})
	require.True(t, g.StopWait(5*time.Second))

	assert.Equal(t, []uint16{66}, u.bpms)
	assert.True(t, u.closed)
	bpm, ok := g.Latest.HeartRateFresh()
	assert.True(t, ok)
	assert.Equal(t, uint16(66), bpm)
	assert.Equal(t, "Chest", g.Latest.Location())
	// beacon disabled by default
	assert.Equal(t, beacon.StateDisconnected, g.Beacon.Current())
}

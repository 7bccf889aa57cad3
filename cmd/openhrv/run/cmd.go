// Main, user facing mode of operation: live BLE sensor.
package run

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/temoto/openhrv/cmd/openhrv/subcmd"
	"github.com/temoto/openhrv/hardware/ble"
	"github.com/temoto/openhrv/helpers"
	"github.com/temoto/openhrv/internal/sensor"
	"github.com/temoto/openhrv/internal/state"
	"tinygo.org/x/bluetooth"
)

var Mod = subcmd.Mod{Name: "run", Usage: "connect BLE heart rate sensor and relay readings", Main: Main}

func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)

	source := ble.NewHeartRateSensor(bluetooth.DefaultAdapter, g.Log, g.Config.Sensor)
	subcmd.SdNotify(g.Log, daemon.SdNotifyReady)
	g.Log.Debugf("run init complete")

	RunSource(ctx, g, source, helpers.Backoff{Min: time.Second, Max: time.Minute, K: 2})
	return nil
}

// RunSource restarts source after errors (including ble.ErrLinkLost) with backoff until g.Alive is stopped.
func RunSource(ctx context.Context, g *state.Global, source sensor.Source, backoff helpers.Backoff) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopCh := g.Alive.StopChan()
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	for g.Alive.IsRunning() {
		err := source.Run(ctx, g.Pipeline)
		if err != nil {
			g.Error(err, "sensor")
		}
		delay := backoff.DelayAfter(err == nil)
		select {
		case <-stopCh:
			return
		case <-time.After(delay):
		}
	}
}

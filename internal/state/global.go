package state

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/openhrv/internal/beacon"
	"github.com/temoto/openhrv/internal/sensor"
	"github.com/temoto/openhrv/log2"
	uplink_api "github.com/temoto/openhrv/uplink"
)

type Global struct {
	Alive        *alive.Alive
	BuildVersion string
	Config       *Config
	Log          *log2.Log
	Uplink       uplink_api.Uplinker
	Beacon       *beacon.Beacon
	Latest       *sensor.Latest
	Pipeline     *sensor.Pipeline
}

const ContextKey = "run/state-global"

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

// If `Init` fails, consider `Global` is in broken state.
func (g *Global) Init(ctx context.Context, cfg *Config) error {
	g.Config = cfg
	g.Log.Infof("build version=%s", g.BuildVersion)

	if err := g.Config.Validate(); err != nil {
		return errors.Annotate(err, "config")
	}

	// beacon reports Boot before anything else may fail
	if g.Beacon == nil {
		g.Beacon = beacon.New()
	}
	if err := g.Beacon.Init(ctx, g.Log.Clone(log2.LInfo), g.Config.Beacon); err != nil {
		return errors.Annotate(err, "beacon init")
	}

	if g.Uplink == nil {
		g.Uplink = uplink_api.Noop{}
	}
	// Uplink gets g.Log clone, log_debug in uplink section doesn't affect others
	if err := g.Uplink.Init(ctx, g.Log.Clone(log2.LInfo), g.Config.Uplink); err != nil {
		g.Uplink = uplink_api.Noop{}
		return errors.Annotate(err, "uplink init")
	}
	if !g.Config.Uplink.Enabled {
		g.Log.Errorf("config: uplink disabled, readings are only displayed")
	}

	sensorLog := g.Log.Clone(log2.LInfo)
	if g.Config.Sensor.LogDebug {
		sensorLog.SetLevel(log2.LDebug)
	}
	g.Latest = sensor.NewLatest(g.Config.Sensor.DisplayValid())
	display := sensor.Displays{sensor.LogDisplay{Log: g.Log}, g.Latest}
	g.Pipeline = sensor.NewPipeline(ctx, sensorLog, g.Alive, g.Uplink, display, g.Beacon)
	return nil
}

func (g *Global) MustInit(ctx context.Context, cfg *Config) {
	err := g.Init(ctx, cfg)
	if err != nil {
		g.Fatal(err)
	}
}

func (g *Global) Error(err error, args ...interface{}) {
	if err != nil {
		if len(args) != 0 {
			msg := args[0].(string)
			args = args[1:]
			err = errors.Annotatef(err, msg, args...)
		}
		g.Log.Error(err)
	}
}

func (g *Global) Fatal(err error, args ...interface{}) {
	if err != nil {
		g.Error(err, args...)
		g.StopWait(5 * time.Second)
		g.Log.Fatal(errors.ErrorStack(err))
		os.Exit(1)
	}
}

func (g *Global) Stop() {
	g.Alive.Stop()
}

// StopWait stops accepting readings, waits for pending deliveries then closes uplink and beacon.
// Returns false on timeout.
func (g *Global) StopWait(timeout time.Duration) bool {
	g.Alive.Stop()
	ok := true
	select {
	case <-g.Alive.WaitChan():
	case <-time.After(timeout):
		ok = false
	}
	if g.Uplink != nil {
		g.Uplink.Close()
	}
	if g.Beacon != nil {
		g.Beacon.Close()
	}
	return ok
}

// Sorry, workaround to import cycles.
package state_new

import (
	"context"
	"os"
	"testing"

	"github.com/temoto/alive/v2"
	"github.com/temoto/openhrv/internal/beacon"
	"github.com/temoto/openhrv/internal/state"
	internal_uplink "github.com/temoto/openhrv/internal/uplink"
	"github.com/temoto/openhrv/log2"
	uplink_api "github.com/temoto/openhrv/uplink"
)

// NewContext: nil uplinker means production HTTP uplink.
func NewContext(log *log2.Log, uplinker uplink_api.Uplinker) (context.Context, *state.Global) {
	if log == nil {
		panic("code error NewContext() log=nil")
	}
	if uplinker == nil {
		uplinker = internal_uplink.New()
	}

	g := &state.Global{
		Alive:  alive.NewAlive(),
		Beacon: beacon.New(),
		Log:    log,
		Uplink: uplinker,
	}
	ctx := context.Background()
	ctx = context.WithValue(ctx, log2.ContextKey, log)
	ctx = context.WithValue(ctx, state.ContextKey, g)

	return ctx, g
}

func NewTestContext(t testing.TB, buildVersion string, confString string, uplinker uplink_api.Uplinker) (context.Context, *state.Global) {
	fs := state.NewMockFullReader(map[string]string{
		"test-inline": confString,
	})

	var log *log2.Log
	if os.Getenv("openhrv_test_log_stderr") == "1" {
		log = log2.NewStderr(log2.LDebug) // useful with panics
	} else {
		log = log2.NewTest(t, log2.LDebug)
	}
	log.SetFlags(log2.LTestFlags)
	if uplinker == nil {
		uplinker = uplink_api.Noop{}
	}
	ctx, g := NewContext(log, uplinker)
	g.BuildVersion = buildVersion
	g.MustInit(ctx, state.MustReadConfig(log, fs, "test-inline"))
	return ctx, g
}

// Feed recorded frames through ingestion pipeline, no Bluetooth.
// Useful to test collector setup and decoder with captured notifications.
package replay

import (
	"context"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/openhrv/cmd/openhrv/subcmd"
	"github.com/temoto/openhrv/hardware/hrm"
	"github.com/temoto/openhrv/helpers/cli"
	"github.com/temoto/openhrv/internal/sensor"
	"github.com/temoto/openhrv/internal/state"
)

const modName = "replay"

var Mod = subcmd.Mod{Name: modName, Usage: "read hex frames from stdin/prompt and relay readings", Main: Main}

func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)
	subcmd.SdNotify(g.Log, daemon.SdNotifyReady)

	g.Pipeline.OnConnect(true)
	defer g.Pipeline.OnConnect(false)
	exec := func(line string) {
		if err := Exec(g.Pipeline, line); err != nil {
			g.Log.Errorf("replay line=%q err=%v", line, err)
		}
	}
	return errors.Annotate(cli.MainLoop(modName, exec, newCompleter()), "replay input")
}

var suggests = []prompt.Suggest{
	{Text: "hr", Description: "heart rate measurement frame, hex"},
	{Text: "loc", Description: "body sensor location value, hex"},
	{Text: "connect", Description: "simulate sensor connect"},
	{Text: "disconnect", Description: "simulate sensor disconnect"},
}

func newCompleter() func(d prompt.Document) []prompt.Suggest {
	return func(d prompt.Document) []prompt.Suggest {
		if strings.Contains(d.TextBeforeCursor(), " ") {
			return nil
		}
		return prompt.FilterHasPrefix(suggests, d.GetWordBeforeCursor(), true)
	}
}

// Exec line formats:
// hr <hex>   heart rate measurement
// loc <hex>  body sensor location
// <hex>      same as hr
// connect, disconnect
// Lines starting with # are comments.
func Exec(h sensor.Handler, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	word, rest := line, ""
	if i := strings.IndexByte(line, ' '); i != -1 {
		word, rest = line[:i], line[i+1:]
	}
	switch word {
	case "connect":
		h.OnConnect(true)
		return nil
	case "disconnect":
		h.OnConnect(false)
		return nil
	case "hr", "loc":
		b, err := hrm.FrameFromHex(rest)
		if err != nil {
			return err
		}
		if word == "hr" {
			h.OnMeasurement(b)
		} else {
			h.OnBodySensorLocation(b)
		}
		return nil
	}
	b, err := hrm.FrameFromHex(line)
	if err != nil {
		return errors.Annotatef(err, "unknown command=%s", word)
	}
	h.OnMeasurement(b)
	return nil
}

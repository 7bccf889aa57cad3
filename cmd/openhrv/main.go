package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"github.com/temoto/openhrv/cmd/openhrv/replay"
	"github.com/temoto/openhrv/cmd/openhrv/run"
	"github.com/temoto/openhrv/cmd/openhrv/subcmd"
	"github.com/temoto/openhrv/internal/state"
	state_new "github.com/temoto/openhrv/internal/state/new"
	"github.com/temoto/openhrv/log2"
)

var BuildVersion string = "unknown" // set by ldflags -X

const stopTimeout = 15 * time.Second

var modules = []subcmd.Mod{
	run.Mod,
	replay.Mod,
}

func main() {
	log := log2.NewStderr(log2.LDebug)

	flags := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	flagConfig := flags.StringP("config", "c", state.DefaultConfigName, "config file, includes are relative to it")
	flagDebug := flags.Bool("debug", false, "debug log level")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] command\n\nCommands:\n%s\nOptions:\n", os.Args[0], subcmd.Usage(modules))
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	if subcmd.SdNotify(log, "start") {
		// we're under systemd, assume systemd journal logging, remove timestamp
		log.SetFlags(log2.LServiceFlags)
	} else if isatty.IsTerminal(os.Stderr.Fd()) {
		log.SetFlags(log2.LInteractiveFlags)
	}
	if !*flagDebug {
		log.SetLevel(log2.LInfo)
	}

	command := flags.Arg(0)
	if command == "" {
		command = run.Mod.Name
	}
	mod, err := subcmd.Parse(command, modules)
	if err != nil {
		flags.Usage()
		log.Fatal(err)
	}

	config := state.MustReadConfig(log, state.NewOsFullReader(), *flagConfig)
	ctx, g := state_new.NewContext(log, nil)
	g.BuildVersion = BuildVersion

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		g.Log.Infof("signal=%v stopping", sig)
		g.Stop()
	}()

	log.Debugf("openhrv version=%s command=%s", BuildVersion, mod.Name)
	if err := mod.Main(ctx, config); err != nil {
		g.Fatal(err)
	}
	if !g.StopWait(stopTimeout) {
		g.Log.Errorf("stop timeout, pending deliveries abandoned")
	}
}

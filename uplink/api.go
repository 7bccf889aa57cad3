// Package uplink is public API of heart rate telemetry delivery to remote collector.
// Implementation lives in internal/uplink.
package uplink

import (
	"context"
	"time"

	"github.com/temoto/openhrv/hardware/hrm"
	"github.com/temoto/openhrv/helpers"
	"github.com/temoto/openhrv/log2"
	uplink_config "github.com/temoto/openhrv/uplink/config"
)

// Uplinker delivers readings to collector, device side.
// Send blocks for at most token acquisition plus one delivery, each bounded by request timeout.
// SendAsync never blocks, future result is error or nil.
type Uplinker interface {
	Init(context.Context, *log2.Log, uplink_config.Config) error
	Send(ctx context.Context, m hrm.Measurement, at time.Time) error
	SendAsync(ctx context.Context, m hrm.Measurement, at time.Time) *helpers.Future
	Stat() Stat
	Close()
}

// Stat is snapshot of delivery counters since Init.
type Stat struct {
	Acquired          uint32
	Delivered         uint32
	AuthFailures      uint32
	DeliveryFailures  uint32
	TransportFailures uint32
}

type Noop struct{}

var _ Uplinker = Noop{} // compile-time interface test

func (Noop) Init(context.Context, *log2.Log, uplink_config.Config) error { return nil }

func (Noop) Send(context.Context, hrm.Measurement, time.Time) error { return nil }

func (Noop) SendAsync(context.Context, hrm.Measurement, time.Time) *helpers.Future {
	f := helpers.NewFuture()
	f.Complete(nil)
	return f
}

func (Noop) Stat() Stat { return Stat{} }

func (Noop) Close() {}

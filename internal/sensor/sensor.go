// Package sensor is ingestion pipeline between heart rate sensor and uplink.
// Frames arrive from BLE notifications or replay input via Handler.
package sensor

import (
	"context"
	"time"

	"github.com/temoto/openhrv/helpers"
)

const (
	DefaultScanTimeout    = 30 * time.Second
	DefaultConnectTimeout = 10 * time.Second
	DefaultDisplayValid   = 5 * time.Second
)

type Config struct {
	// empty means first device advertising heart rate service
	Address           string `hcl:"address"`
	ScanTimeoutSec    int    `hcl:"scan_timeout_sec"`
	ConnectTimeoutSec int    `hcl:"connect_timeout_sec"`
	DisplayValidSec   int    `hcl:"display_valid_sec"`
	LogDebug          bool   `hcl:"log_debug"`
}

func (c *Config) ScanTimeout() time.Duration {
	return helpers.IntSecondDefault(c.ScanTimeoutSec, DefaultScanTimeout)
}
func (c *Config) ConnectTimeout() time.Duration {
	return helpers.IntSecondDefault(c.ConnectTimeoutSec, DefaultConnectTimeout)
}
func (c *Config) DisplayValid() time.Duration {
	return helpers.IntSecondDefault(c.DisplayValidSec, DefaultDisplayValid)
}

// Handler receives raw characteristic values, possibly from BLE stack callback goroutine.
// Implementations must return quickly.
type Handler interface {
	OnMeasurement(frame []byte)
	OnBodySensorLocation(value []byte)
	OnConnect(connected bool)
}

// Source produces frames until ctx is done or fatal error.
type Source interface {
	Run(ctx context.Context, h Handler) error
}

// Display receives plain values for presentation.
type Display interface {
	HeartRate(bpm uint16)
	RRInterval(ms uint16)
	BodySensorLocation(label string)
}

// Observer is notified about connection and delivery outcomes, e.g. state beacon.
type Observer interface {
	SensorConnected(bool)
	UplinkResult(error)
}

type invalidator interface{ Invalidate() }

type Displays []Display

// Invalidate forwards to displays that keep stale values.
func (ds Displays) Invalidate() {
	for _, d := range ds {
		if inv, ok := d.(invalidator); ok {
			inv.Invalidate()
		}
	}
}

func (ds Displays) HeartRate(bpm uint16) {
	for _, d := range ds {
		d.HeartRate(bpm)
	}
}
func (ds Displays) RRInterval(ms uint16) {
	for _, d := range ds {
		d.RRInterval(ms)
	}
}
func (ds Displays) BodySensorLocation(label string) {
	for _, d := range ds {
		d.BodySensorLocation(label)
	}
}

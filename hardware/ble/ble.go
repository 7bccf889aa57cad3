// Package ble connects to Bluetooth LE heart rate sensor and feeds
// characteristic values into sensor.Handler.
package ble

import (
	"context"
	"strings"
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/openhrv/hardware/hrm"
	"github.com/temoto/openhrv/internal/sensor"
	"github.com/temoto/openhrv/log2"
	"tinygo.org/x/bluetooth"
)

const locationReadSize = 8

var (
	UUIDService            = bluetooth.New16BitUUID(hrm.UUIDService)
	UUIDMeasurement        = bluetooth.New16BitUUID(hrm.UUIDMeasurement)
	UUIDBodySensorLocation = bluetooth.New16BitUUID(hrm.UUIDBodySensorLocation)
)

var (
	ErrScanTimeout = errors.New("ble scan timeout")
	ErrLinkLost    = errors.New("ble link lost")
)

type HeartRateSensor struct {
	adapter *bluetooth.Adapter
	log     *log2.Log
	config  sensor.Config
}

var _ sensor.Source = &HeartRateSensor{} // compile-time interface test

func NewHeartRateSensor(adapter *bluetooth.Adapter, log *log2.Log, config sensor.Config) *HeartRateSensor {
	return &HeartRateSensor{adapter: adapter, log: log, config: config}
}

// Run scans, connects and streams notifications into h until ctx is done (nil)
// or sensor disconnects (ErrLinkLost). h.OnConnect(false) is called if OnConnect(true) was.
func (self *HeartRateSensor) Run(ctx context.Context, h sensor.Handler) error {
	if err := self.adapter.Enable(); err != nil {
		return errors.Annotate(err, "ble adapter enable")
	}
	addr, err := self.scan(ctx)
	if err != nil {
		return err
	}

	// connect handler is adapter-wide, registered before Connect to see early drop
	watch := newLinkWatch(addr.String())
	self.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		watch.handle(device.Address.String(), connected)
	})
	defer self.adapter.SetConnectHandler(func(bluetooth.Device, bool) {})

	params := bluetooth.ConnectionParams{ConnectionTimeout: bluetooth.NewDuration(self.config.ConnectTimeout())}
	dev, err := self.adapter.Connect(addr, params)
	if err != nil {
		return errors.Annotatef(err, "ble connect address=%s", addr.String())
	}
	defer func() {
		if err := dev.Disconnect(); err != nil {
			self.log.Errorf("ble disconnect err=%v", err)
		}
	}()
	self.log.Infof("ble connected address=%s", addr.String())

	services, err := dev.DiscoverServices([]bluetooth.UUID{UUIDService})
	if err != nil {
		return errors.Annotate(err, "ble discover services")
	}
	if len(services) == 0 {
		return errors.NotFoundf("ble heart rate service")
	}
	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{UUIDMeasurement, UUIDBodySensorLocation})
	if err != nil {
		return errors.Annotate(err, "ble discover characteristics")
	}
	var measurement, location *bluetooth.DeviceCharacteristic
	for i := range chars {
		switch chars[i].UUID() {
		case UUIDMeasurement:
			measurement = &chars[i]
		case UUIDBodySensorLocation:
			location = &chars[i]
		}
	}
	if measurement == nil {
		return errors.NotFoundf("ble heart rate measurement characteristic")
	}

	h.OnConnect(true)
	defer h.OnConnect(false)

	// optional characteristic
	if location != nil {
		buf := make([]byte, locationReadSize)
		n, err := location.Read(buf)
		if err != nil {
			self.log.Errorf("ble read body sensor location err=%v", err)
		} else {
			h.OnBodySensorLocation(buf[:n])
		}
	}

	err = measurement.EnableNotifications(func(b []byte) {
		// stack may reuse buffer
		h.OnMeasurement(append([]byte(nil), b...))
	})
	if err != nil {
		return errors.Annotate(err, "ble enable notifications")
	}

	err = watch.wait(ctx)
	if err != nil {
		self.log.Errorf("ble link lost address=%s", addr.String())
	}
	return err
}

// linkWatch turns adapter connect events into single link loss signal for one address.
type linkWatch struct {
	address string
	lost    chan struct{}
	once    sync.Once
}

func newLinkWatch(address string) *linkWatch {
	return &linkWatch{address: address, lost: make(chan struct{})}
}

func (self *linkWatch) handle(address string, connected bool) {
	if connected || !strings.EqualFold(address, self.address) {
		return
	}
	self.once.Do(func() { close(self.lost) })
}

// wait returns nil when ctx is done, ErrLinkLost on disconnect.
func (self *linkWatch) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-self.lost:
		return ErrLinkLost
	}
}

func (self *HeartRateSensor) scan(ctx context.Context) (bluetooth.Address, error) {
	var found bluetooth.Address
	ctx, cancel := context.WithTimeout(ctx, self.config.ScanTimeout())
	defer cancel()

	self.log.Infof("ble scanning address=%q timeout=%s", self.config.Address, self.config.ScanTimeout())
	errch := make(chan error, 1)
	go func() {
		err := self.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if !result.HasServiceUUID(UUIDService) || !MatchAddress(self.config.Address, result.Address.String()) {
				return
			}
			self.log.Debugf("ble found address=%s name=%q rssi=%d", result.Address.String(), result.LocalName(), result.RSSI)
			found = result.Address
			if err := adapter.StopScan(); err != nil {
				self.log.Errorf("ble stop scan err=%v", err)
			}
		})
		errch <- err
	}()

	select {
	case err := <-errch:
		if err != nil {
			return found, errors.Annotate(err, "ble scan")
		}
		return found, nil
	case <-ctx.Done():
		_ = self.adapter.StopScan()
		<-errch
		if ctx.Err() == context.DeadlineExceeded {
			return found, ErrScanTimeout
		}
		return found, ctx.Err()
	}
}

// MatchAddress: empty filter accepts any device, otherwise case-insensitive equality.
func MatchAddress(filter, address string) bool {
	if filter == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(filter), address)
}

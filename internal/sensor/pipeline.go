package sensor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/temoto/alive/v2"
	"github.com/temoto/openhrv/hardware/hrm"
	"github.com/temoto/openhrv/log2"
	uplink_api "github.com/temoto/openhrv/uplink"
)

type Stat struct {
	Frames    uint32
	Malformed uint32
	Sent      uint32
	Failed    uint32
}

// Pipeline implements Handler.
// Decode is synchronous, delivery runs in background, bad frames and failed
// requests are logged and counted, never propagated to sensor callback.
type Pipeline struct {
	ctx      context.Context
	log      *log2.Log
	alive    *alive.Alive
	uplink   uplink_api.Uplinker
	display  Display
	observer Observer
	now      func() time.Time

	stat Stat // atomic
}

var _ Handler = &Pipeline{} // compile-time interface test

// NewPipeline: display and observer may be nil.
// Background deliveries are tracked by `a`, stopping it makes pipeline drop new readings.
func NewPipeline(ctx context.Context, log *log2.Log, a *alive.Alive, u uplink_api.Uplinker, display Display, observer Observer) *Pipeline {
	if display == nil {
		display = Displays(nil)
	}
	return &Pipeline{
		ctx:      ctx,
		log:      log,
		alive:    a,
		uplink:   u,
		display:  display,
		observer: observer,
		now:      time.Now,
	}
}

// SetClock is for tests.
func (self *Pipeline) SetClock(now func() time.Time) { self.now = now }

func (self *Pipeline) Stat() Stat {
	return Stat{
		Frames:    atomic.LoadUint32(&self.stat.Frames),
		Malformed: atomic.LoadUint32(&self.stat.Malformed),
		Sent:      atomic.LoadUint32(&self.stat.Sent),
		Failed:    atomic.LoadUint32(&self.stat.Failed),
	}
}

func (self *Pipeline) OnMeasurement(frame []byte) {
	at := self.now()
	atomic.AddUint32(&self.stat.Frames, 1)
	m, err := hrm.DecodeMeasurement(frame)
	if err != nil {
		atomic.AddUint32(&self.stat.Malformed, 1)
		self.log.Errorf("sensor frame=%s err=%v", hrm.FormatFrame(frame), err)
		return
	}
	self.log.Debugf("sensor frame=%s %s", hrm.FormatFrame(frame), m.String())

	self.display.HeartRate(m.BPM)
	if len(m.RR) > 0 {
		self.display.RRInterval(m.RR[0])
	}
	self.dispatch(m, at)
}

func (self *Pipeline) OnBodySensorLocation(value []byte) {
	loc, ok := hrm.BodySensorLocationFromBytes(value)
	if !ok {
		self.log.Debugf("sensor body location empty value")
		return
	}
	self.log.Debugf("sensor body location=%s", loc)
	self.display.BodySensorLocation(loc.String())
}

func (self *Pipeline) OnConnect(connected bool) {
	if connected {
		self.log.Infof("sensor connected")
	} else {
		self.log.Infof("sensor disconnected")
		if inv, ok := self.display.(invalidator); ok {
			inv.Invalidate()
		}
	}
	if self.observer != nil {
		self.observer.SensorConnected(connected)
	}
}

func (self *Pipeline) dispatch(m hrm.Measurement, at time.Time) {
	if !self.alive.Add(1) {
		self.log.Debugf("sensor stopping, reading dropped bpm=%d", m.BPM)
		return
	}
	go func() {
		defer self.alive.Done()
		// uplink may block before returning future, keep it off sensor callback
		err := self.uplink.SendAsync(self.ctx, m, at).WaitError(self.ctx)
		if err != nil {
			atomic.AddUint32(&self.stat.Failed, 1)
			self.log.Errorf("uplink bpm=%d err=%v", m.BPM, err)
		} else {
			atomic.AddUint32(&self.stat.Sent, 1)
		}
		if self.observer != nil {
			self.observer.UplinkResult(err)
		}
	}()
}

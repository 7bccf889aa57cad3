package sensor

import (
	"sync/atomic"
	"time"

	"github.com/temoto/openhrv/helpers/cacheval"
	"github.com/temoto/openhrv/log2"
)

// LogDisplay renders values as info log lines.
type LogDisplay struct{ Log *log2.Log }

func (d LogDisplay) HeartRate(bpm uint16)            { d.Log.Infof("display heart rate=%d bpm", bpm) }
func (d LogDisplay) RRInterval(ms uint16)            { d.Log.Infof("display rr=%d ms", ms) }
func (d LogDisplay) BodySensorLocation(label string) { d.Log.Infof("display sensor location=%s", label) }

// Latest keeps last displayed values, heart rate and RR become stale after `valid` duration.
type Latest struct {
	bpm      cacheval.Int32
	rr       cacheval.Int32
	location atomic.Value // string
}

func NewLatest(valid time.Duration) *Latest {
	l := &Latest{}
	l.bpm.Init(valid)
	l.rr.Init(valid)
	l.location.Store("")
	return l
}

func (l *Latest) HeartRate(bpm uint16)            { l.bpm.Set(int32(bpm)) }
func (l *Latest) RRInterval(ms uint16)            { l.rr.Set(int32(ms)) }
func (l *Latest) BodySensorLocation(label string) { l.location.Store(label) }

// Invalidate marks heart rate and RR stale, e.g. on sensor disconnect.
func (l *Latest) Invalidate() {
	l.bpm.Invalidate()
	l.rr.Invalidate()
}

func (l *Latest) HeartRateFresh() (uint16, bool) {
	v, ok := l.bpm.GetFresh()
	return uint16(v), ok
}

func (l *Latest) RRIntervalFresh() (uint16, bool) {
	v, ok := l.rr.GetFresh()
	return uint16(v), ok
}

func (l *Latest) Location() string { return l.location.Load().(string) }

package uplink

import (
	"encoding/json"
	"time"

	"github.com/temoto/openhrv/hardware/hrm"
)

// ISO-8601 with milliseconds, UTC renders as Z.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Payload is JSON body of telemetry POST.
type Payload struct {
	HR   uint16   `json:"hr"`
	RRs  []uint16 `json:"rrs"`
	Time string   `json:"time"`
}

func NewPayload(m hrm.Measurement, at time.Time) Payload {
	rrs := m.RR
	if rrs == nil {
		rrs = []uint16{}
	}
	return Payload{
		HR:   m.BPM,
		RRs:  rrs,
		Time: at.UTC().Format(TimeFormat),
	}
}

func (self Payload) Marshal() ([]byte, error) { return json.Marshal(self) }

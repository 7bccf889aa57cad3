// Package hrm decodes Bluetooth Heart Rate Profile characteristics:
// Heart Rate Measurement (0x2A37) and Body Sensor Location (0x2A38).
// Pure functions, no I/O.
package hrm

import (
	"encoding/binary"
	"fmt"

	"github.com/juju/errors"
)

const (
	UUIDService            = 0x180D
	UUIDMeasurement        = 0x2A37
	UUIDBodySensorLocation = 0x2A38
)

// Measurement flags, byte 0 of frame.
const (
	FlagFormatUint16      byte = 0x01
	FlagContactDetected   byte = 0x02
	FlagContactSupported  byte = 0x04
	FlagEnergyPresent     byte = 0x08
	FlagRRIntervalPresent byte = 0x10
)

var ErrMalformedFrame = errors.New("hrm: malformed frame")

// Measurement is one decoded heart rate notification.
// Energy is 0 when absent, EnergyPresent tells absent from real zero.
type Measurement struct {
	BPM           uint16
	RR            []uint16 // milliseconds, transmission order
	Energy        uint16   // kJ, cumulative
	EnergyPresent bool
	Contact       Contact
}

type Contact uint8

const (
	ContactUnsupported Contact = iota
	ContactNotDetected
	ContactDetected
)

func (c Contact) String() string {
	switch c {
	case ContactUnsupported:
		return "unsupported"
	case ContactNotDetected:
		return "lost"
	case ContactDetected:
		return "ok"
	}
	return fmt.Sprintf("Contact(%d)", uint8(c))
}

func (m Measurement) String() string {
	return fmt.Sprintf("bpm=%d rr=%v energy=%d/%t contact=%s", m.BPM, m.RR, m.Energy, m.EnergyPresent, m.Contact)
}

// RRToMillis converts raw 1/1024 second units to whole milliseconds, truncating.
func RRToMillis(raw uint16) uint16 {
	return uint16(float64(raw) / 1024.0 * 1000.0)
}

// DecodeMeasurement parses Heart Rate Measurement frame.
// Unknown flag bits are ignored. Odd trailing byte of RR list is dropped.
// Frame shorter than its flags require returns error with cause ErrMalformedFrame.
func DecodeMeasurement(b []byte) (Measurement, error) {
	m := Measurement{}
	if len(b) == 0 {
		return Measurement{}, errors.Annotate(ErrMalformedFrame, "empty")
	}
	flags := b[0]
	offset := 1

	if flags&FlagFormatUint16 != 0 {
		if len(b) < offset+2 {
			return Measurement{}, errors.Annotatef(ErrMalformedFrame, "hr uint16 len=%d", len(b))
		}
		m.BPM = binary.LittleEndian.Uint16(b[offset:])
		offset += 2
	} else {
		if len(b) < offset+1 {
			return Measurement{}, errors.Annotatef(ErrMalformedFrame, "hr uint8 len=%d", len(b))
		}
		m.BPM = uint16(b[offset])
		offset++
	}

	switch {
	case flags&FlagContactSupported == 0:
		m.Contact = ContactUnsupported
	case flags&FlagContactDetected != 0:
		m.Contact = ContactDetected
	default:
		m.Contact = ContactNotDetected
	}

	if flags&FlagEnergyPresent != 0 {
		if len(b) < offset+2 {
			return Measurement{}, errors.Annotatef(ErrMalformedFrame, "energy len=%d", len(b))
		}
		m.Energy = binary.LittleEndian.Uint16(b[offset:])
		m.EnergyPresent = true
		offset += 2
	}

	m.RR = []uint16{}
	if flags&FlagRRIntervalPresent != 0 {
		for ; offset+2 <= len(b); offset += 2 {
			m.RR = append(m.RR, RRToMillis(binary.LittleEndian.Uint16(b[offset:])))
		}
	}
	return m, nil
}

func IsMalformed(err error) bool {
	return errors.Cause(err) == ErrMalformedFrame
}

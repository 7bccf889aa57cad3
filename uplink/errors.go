package uplink

import (
	"fmt"

	"github.com/juju/errors"
)

var (
	ErrBackoff = errors.New("token acquisition backoff")
	ErrClosed  = errors.New("uplink closed")
)

// AuthFailure: collector rejected credentials or token.
// Recoverable, token is cleared and next reading acquires again.
type AuthFailure struct {
	Status int
	Reason string
}

func (e *AuthFailure) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("auth failure status=%d %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("auth failure status=%d", e.Status)
}

// TransportFailure: no HTTP response, e.g. connection refused, timeout, TLS.
type TransportFailure struct {
	Op  string
	Err error
}

func (e *TransportFailure) Error() string {
	return fmt.Sprintf("transport failure op=%s: %v", e.Op, e.Err)
}

// DeliveryFailure: collector answered telemetry POST with status other than 200 or 401.
// Reading is dropped.
type DeliveryFailure struct {
	Status int
}

func (e *DeliveryFailure) Error() string {
	return fmt.Sprintf("delivery failure status=%d", e.Status)
}

func IsAuthFailure(err error) (*AuthFailure, bool) {
	e, ok := errors.Cause(err).(*AuthFailure)
	return e, ok
}

func IsTransportFailure(err error) (*TransportFailure, bool) {
	e, ok := errors.Cause(err).(*TransportFailure)
	return e, ok
}

func IsDeliveryFailure(err error) (*DeliveryFailure, bool) {
	e, ok := errors.Cause(err).(*DeliveryFailure)
	return e, ok
}

// Based on https://github.com/256dpi/gomqtt/blob/e7823dfd0958f968b8e69eb1bf235456316c54fb/client/future/future.go
// with completed/cancelled channels exported
// which allows to wait on result in custom select statement.

package helpers

import (
	"context"
	"sync"
)

// Future carries result of one background operation: telemetry send, token acquisition.
// Complete or Cancel wins exactly once, later calls return false.
type Future struct {
	result    interface{}
	completed chan struct{}
	cancelled chan struct{}
	done      bool
	mutex     sync.Mutex
}

func NewFuture() *Future {
	return &Future{
		completed: make(chan struct{}),
		cancelled: make(chan struct{}),
	}
}

func (f *Future) Cancelled() <-chan struct{} { return f.cancelled }
func (f *Future) Completed() <-chan struct{} { return f.completed }

func (f *Future) Complete(result interface{}) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.done {
		return false
	}

	f.result = result
	close(f.completed)
	f.done = true
	return true
}

func (f *Future) Cancel(result interface{}) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.done {
		return false
	}

	f.result = result
	close(f.cancelled)
	f.done = true
	return true
}

func (f *Future) Result() interface{} {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.result
}

// Wait blocks until future is completed or cancelled, or ctx is done.
// Returns ctx.Err() only in the latter case.
func (f *Future) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-f.completed:
	case <-f.cancelled:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return f.Result(), nil
}

// WaitError is Wait for futures which result is error or nil.
func (f *Future) WaitError(ctx context.Context) error {
	r, err := f.Wait(ctx)
	if err != nil {
		return err
	}
	if e, ok := r.(error); ok {
		return e
	}
	return nil
}

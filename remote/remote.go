// Package remote wraps every adapter call (task, sensor, actuator) behind a
// single per-call timeout, classifying the outcome into the tri-state
// scheduler/miners.go's manageMiners/runStateCheck fan out manually with a
// WaitGroup + errChan per tick; here that pattern collapses into one
// reusable helper a single call site uses, rather than being re-written at
// every call to an adapter.
package remote

import (
	"context"
	"errors"
	"time"
)

// Status classifies how a remote call concluded.
type Status int

const (
	Ok Status = iota
	Timeout
	ProtocolError
)

func (s Status) String() string {
	switch s {
	case Ok:
		return "Ok"
	case Timeout:
		return "Timeout"
	case ProtocolError:
		return "ProtocolError"
	default:
		return "Unknown"
	}
}

// Result is the outcome of one remote call: Status plus, on ProtocolError,
// the underlying error.
type Result[T any] struct {
	Status Status
	Value  T
	Err    error
}

// Call runs fn with a deadline of timeout, classifying the outcome. A
// context deadline exceeded maps to Timeout; any other error maps to
// ProtocolError; success maps to Ok with fn's value attached.
func Call[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) Result[T] {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		v, err := fn(callCtx)
		done <- outcome{value: v, err: err}
	}()

	select {
	case <-callCtx.Done():
		var zero T
		return Result[T]{Status: Timeout, Value: zero, Err: callCtx.Err()}
	case o := <-done:
		if o.err != nil {
			if errors.Is(o.err, context.DeadlineExceeded) {
				return Result[T]{Status: Timeout, Err: o.err}
			}
			return Result[T]{Status: ProtocolError, Err: o.err}
		}
		return Result[T]{Status: Ok, Value: o.value}
	}
}

// CallVoid is Call for fn with no return value beyond error.
func CallVoid(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) Result[struct{}] {
	return Call(ctx, timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}

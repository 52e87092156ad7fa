// Package clock provides the monotonic wall-clock abstraction the scheduler
// treats as the sole source of "now".
package clock

import "time"

// Clock is the seam the scheduler and planner query for the current instant.
// Production code uses Real; tests inject Fixed or Steps to control time
// without sleeping.
type Clock interface {
	Now() time.Time
}

// realClock delegates to time.Now.
type realClock struct{}

// Real returns the production clock.
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

// Fixed returns a clock that always reports t, useful for deterministic tests
// of target-time and passive-curve computations.
func Fixed(t time.Time) Clock { return fixedClock{t} }

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

// Steps returns a clock that advances by step every time Now is called,
// starting at start. Useful for simulating a tick loop in tests.
func Steps(start time.Time, step time.Duration) *StepClock {
	return &StepClock{next: start, step: step}
}

// StepClock advances deterministically on each call to Now.
type StepClock struct {
	next time.Time
	step time.Duration
}

func (s *StepClock) Now() time.Time {
	t := s.next
	s.next = s.next.Add(s.step)
	return t
}

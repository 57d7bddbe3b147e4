package match

import "time"

// Timer is a cancellable deferred callback. Stop reports whether the call
// prevented the callback from running; stopping twice is a no-op.
type Timer interface {
	Stop() bool
}

// Clock schedules every wait the engine performs. Nothing in the engine
// sleeps; tests substitute a manual clock.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

package clock

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func NewSystem() Clock { return systemClock{} }

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

// NewFixed returns a clock pinned to t, for deterministic tests.
func NewFixed(t time.Time) Clock { return fixedClock{t: t} }

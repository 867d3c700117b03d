package clock

import "time"

// Clock abstracts time so that day boundaries are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in a fixed location.
type System struct {
	Location *time.Location
}

func (s System) Now() time.Time {
	if s.Location == nil {
		return time.Now()
	}
	return time.Now().In(s.Location)
}

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time {
	return f()
}

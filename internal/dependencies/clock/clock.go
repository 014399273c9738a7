package clock

import "time"

// Clock abstracts time so services can be tested with a fixed clock
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time
type SystemClock struct{}

// New creates a SystemClock
func New() *SystemClock {
	return &SystemClock{}
}

// Now returns the current system time
func (c *SystemClock) Now() time.Time {
	return time.Now()
}

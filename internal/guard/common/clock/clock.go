package clock

import "time"

// Clock abstracts the time source so decision logic stays deterministic
// under test. Evaluators take `now` as a parameter; only the outermost
// callers consult a Clock.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (c RealClock) Now() time.Time {
	return time.Now()
}

type MockClock struct {
	currentTime time.Time
}

// NewMock returns a MockClock pinned to t.
func NewMock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

func (c *MockClock) Now() time.Time {
	return c.currentTime
}

func (c *MockClock) Advance(d time.Duration) {
	c.currentTime = c.currentTime.Add(d)
}

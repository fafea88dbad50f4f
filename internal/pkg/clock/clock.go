package clock

import "time"

// Clock provides the current time so lifecycle timestamps can be fixed in
// tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func New() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Mock is a settable clock for tests.
type Mock struct {
	Current time.Time
}

func NewMock(t time.Time) *Mock {
	return &Mock{Current: t}
}

func (m *Mock) Now() time.Time {
	return m.Current
}

func (m *Mock) Advance(d time.Duration) {
	m.Current = m.Current.Add(d)
}

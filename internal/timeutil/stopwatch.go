package timeutil

import "time"

// Lap is one named interval measured by a Stopwatch.
type Lap struct {
	Name     string
	Duration time.Duration
}

// Stopwatch measures consecutive named intervals from a single Clock. It
// is not safe for concurrent use.
type Stopwatch struct {
	clock Clock
	last  time.Time
	laps  []Lap
}

// NewStopwatch starts a stopwatch at the clock's current time.
func NewStopwatch(clock Clock) *Stopwatch {
	return &Stopwatch{clock: clock, last: clock.Now()}
}

// Lap closes the current interval under name and starts the next one.
func (s *Stopwatch) Lap(name string) time.Duration {
	now := s.clock.Now()
	d := now.Sub(s.last)
	s.last = now
	s.laps = append(s.laps, Lap{Name: name, Duration: d})
	return d
}

// Laps returns the closed intervals in order.
func (s *Stopwatch) Laps() []Lap { return s.laps }

// Total returns the sum of all closed intervals.
func (s *Stopwatch) Total() time.Duration {
	var d time.Duration
	for _, l := range s.laps {
		d += l.Duration
	}
	return d
}

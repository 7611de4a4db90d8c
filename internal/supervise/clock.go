package supervise

import "time"

// Clock abstracts wall time and sleeping so the supervisor's bounded
// connect attempt and retry gate are testable without real delays.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns a Clock backed by the real time package.
func SystemClock() Clock {
	return systemClock{}
}

package experiments

import "time"

// Clock - источник времени и задержек движков; в тестах подменяется.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock - реальные часы.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

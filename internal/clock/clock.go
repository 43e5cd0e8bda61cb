// Package clock abstracts time so lifecycle rules (overdue, expiry)
// are testable against a fake clock.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns the real clock.
func System() Clock { return systemClock{} }

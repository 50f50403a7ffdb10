package service

import "time"

// Clock abstracts time.Now so lockout and expiry decisions are testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall clock used in production.
func SystemClock() Clock { return systemClock{} }

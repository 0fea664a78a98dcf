package core

import "time"

// Clock lets tests pin "now". Invite expiry and message retention math all
// go through it.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

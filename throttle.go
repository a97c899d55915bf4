package main

import (
	"sync"
	"time"
)

// Remote request budget shared by the fetch and download commands. The
// sliding window keeps bursts under rateLimit calls per cooldown; the slot
// channel caps how many requests are in flight at once.
const (
	rateLimit   = 60
	cooldown    = time.Minute
	maxInFlight = 3
)

var ticker = time.NewTicker(cooldown / rateLimit)
var attempts []time.Time
var attemptsLock sync.Mutex

var inFlight = make(chan struct{}, maxInFlight)

func init() {
	for i := 0; i < maxInFlight; i++ {
		inFlight <- struct{}{}
	}
}

// AcquireSlot blocks until a request slot is free and returns its release.
func AcquireSlot() func() {
	<-inFlight
	return func() {
		inFlight <- struct{}{}
	}
}

// Throttle blocks until the request window has room for one more call.
func Throttle() {
	for range ticker.C {
		attemptsLock.Lock()
		att := attempts
		if len(att) < rateLimit || time.Since(att[0]) > cooldown {
			att = append(att, time.Now())
			if len(att) > rateLimit {
				att = att[1:]
			}
			attempts = att
			attemptsLock.Unlock()
			return
		}
		attemptsLock.Unlock()
	}
}

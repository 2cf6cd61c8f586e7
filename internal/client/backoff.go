package client

import "time"

// Backoff produces capped exponential reconnect delays: Base, 2*Base,
// 4*Base ... never exceeding Max. Attempts counts how many delays have
// been handed out since the last Reset.
type Backoff struct {
	Base time.Duration
	Max  time.Duration

	attempts int
}

// Next returns the delay to wait before the next attempt and advances
// the counter.
func (b *Backoff) Next() time.Duration {
	d := b.Base
	for i := 0; i < b.attempts; i++ {
		d *= 2
		if d >= b.Max {
			d = b.Max
			break
		}
	}
	b.attempts++
	return d
}

// Attempts reports how many delays Next has produced since Reset.
func (b *Backoff) Attempts() int { return b.attempts }

// Reset clears the counter after a successful connection.
func (b *Backoff) Reset() { b.attempts = 0 }

// Package clock defines the host side timeline chips use for anything
// time dependent. Chips don't tick themselves. Instead they compare the
// current time against stored deadlines when accessed and ask the host
// for a one-shot wake-up at the exact point something must happen even
// if nobody looks (an interrupt asserting for instance).
package clock

import (
	"math"
	"math/bits"
)

// Time is a point on the host timeline measured in host ticks.
type Time uint64

// Scheduler is implemented by the host.
type Scheduler interface {
	// Now returns the current host time.
	Now() Time
	// Rate returns the number of host ticks per second.
	Rate() uint64
	// Schedule arranges for fn to be called once when the timeline reaches at.
	// A time in the past fires at the next opportunity.
	Schedule(at Time, fn func()) Event
}

// Event is a pending wake-up returned by Schedule.
type Event interface {
	// Cancel stops the event from firing. Calling it after the event fired is harmless.
	Cancel()
}

// Domain converts between host ticks and the cycles of a device running at Hz.
// Conversions are exact as long as Rate is at least Hz.
type Domain struct {
	Rate uint64 // Host ticks per second.
	Hz   uint64 // Device cycles per second.
}

// Cycles returns the number of whole device cycles elapsed at t.
func (d Domain) Cycles(t Time) uint64 {
	return mulDiv(uint64(t), d.Hz, d.Rate, false)
}

// Time returns the earliest host time at which the given cycle count has elapsed.
func (d Domain) Time(cycles uint64) Time {
	return Time(mulDiv(cycles, d.Rate, d.Hz, true))
}

// mulDiv computes a*b/c with a 128 bit intermediate, saturating on overflow.
func mulDiv(a, b, c uint64, roundUp bool) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return math.MaxUint64
	}
	quo, rem := bits.Div64(hi, lo, c)
	if roundUp && rem != 0 {
		quo++
	}
	return quo
}

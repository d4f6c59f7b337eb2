package mos6530

import "github.com/jmchacon/riot/clock"

type timerState int

const (
	timerCounting timerState = iota // Counting down at the prescaled rate.
	timerSpinning                   // Expired and decrementing every cycle.
)

func (s timerState) String() string {
	if s == timerSpinning {
		return "spinning"
	}
	return "counting"
}

// eventRef holds a pending scheduler wake-up.
type eventRef struct {
	ev clock.Event
}

func (r *eventRef) cancel() {
	if r.ev != nil {
		r.ev.Cancel()
		r.ev = nil
	}
}

// prescaleShift maps the 2 prescale select address bits to log2 of the divider.
var prescaleShift = [4]uint{0, 3, 6, 10}

// Prescale returns the clock divider selected by the low 2 bits of sel.
func Prescale(sel uint8) uint64 {
	return 1 << prescaleShift[sel&0x03]
}

// timer is the countdown register. Rather than decrementing on every clock it
// stores the cycle the count reaches zero and works the value out on demand.
type timer struct {
	shift  uint       // log2 of the prescaler.
	state  timerState // Counting or spinning.
	expiry uint64     // Chip cycle at which the count hits zero.
	ie     bool       // Timer interrupt enabled.
	flag   bool       // Timer interrupt latched.
	event  eventRef   // Pending expiry wake-up, if any.
}

// value returns the timer register as it reads at cycle now. While counting
// each prescaled period shows the count it started with so a load of v reads
// v-k after exactly k periods. Once expired it decrements every cycle from 0xFF
// and wraps forever.
func (t *timer) value(now uint64) uint8 {
	if t.state == timerCounting && now < t.expiry {
		rem := t.expiry - now
		return uint8((rem + (1 << t.shift) - 1) >> t.shift)
	}
	return uint8(t.expiry - now)
}

// loadTimer restarts the count. This cancels any pending expiry and drops a
// latched timer interrupt.
func (c *Chip) loadTimer(sel uint8, ie bool, val uint8) {
	t := &c.timer
	t.event.cancel()
	t.shift = prescaleShift[sel&0x03]
	t.ie = ie
	t.flag = false
	t.state = timerCounting
	t.expiry = c.cycles() + uint64(val)<<t.shift
	c.armTimer()
	c.updateIRQ()
}

// armTimer registers the expiry wake-up, expiring right away if it's already due.
func (c *Chip) armTimer() {
	t := &c.timer
	if t.state != timerCounting {
		return
	}
	if t.expiry <= c.cycles() {
		c.expireTimer()
		return
	}
	t.event.ev = c.sched.Schedule(c.domain.Time(t.expiry), c.timerEnd)
}

// timerEnd is the wake-up callback.
func (c *Chip) timerEnd() {
	c.timer.event.ev = nil
	c.expireTimer()
}

// expireTimer moves from counting to spinning. Only the first call after a
// load does anything.
func (c *Chip) expireTimer() {
	t := &c.timer
	if t.state != timerCounting {
		return
	}
	t.event.cancel()
	t.state = timerSpinning
	if t.ie {
		t.flag = true
	}
	c.updateIRQ()
}

// syncTimer catches up with an expiry the host hasn't delivered yet.
func (c *Chip) syncTimer() {
	if c.timer.state == timerCounting && c.cycles() >= c.timer.expiry {
		c.expireTimer()
	}
}

// readTimer returns the current timer value. The A3 address line used for the
// read sets whether the timer interrupt is enabled. The flag itself is untouched.
func (c *Chip) readTimer(ie bool) uint8 {
	v := c.Timer()
	c.timer.ie = ie
	c.updateIRQ()
	return v
}

// Timer returns the current timer value with no side effects other than noting
// an expiry which is already due.
func (c *Chip) Timer() uint8 {
	c.syncTimer()
	return c.timer.value(c.cycles())
}

// LoadTimer starts the timer exactly as a write to the timer registers would.
// sel picks the prescaler (0: 1, 1: 8, 2: 64, 3: 1024).
func (c *Chip) LoadTimer(sel uint8, ie bool, val uint8) {
	c.loadTimer(sel, ie, val)
}

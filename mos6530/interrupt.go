package mos6530

// edge is the PA7 edge detector found on the 6532.
type edge struct {
	positive bool // Trigger on a low to high transition instead of high to low.
	ie       bool // Edge interrupt enabled.
	flag     bool // Edge interrupt latched.
	pa7      bool // Most recently observed PA7 level.
}

func (e *edge) polarity() string {
	if e.positive {
		return "positive"
	}
	return "negative"
}

// observe compares a new PA7 level against the last one and returns true if the
// flag was newly latched.
func (e *edge) observe(level bool) bool {
	hit := level != e.pa7 && level == e.positive && !e.flag
	e.pa7 = level
	if hit {
		e.flag = true
	}
	return hit
}

// edgeDetect checks PA7 as currently seen on the pin. That's the latch if the pin
// is an output and the input level otherwise so writes can trigger it as well.
func (c *Chip) edgeDetect() {
	if c.variant != RIOT {
		return
	}
	if c.edge.observe(c.pa.level()&kPA7 != 0) {
		c.updateIRQ()
	}
}

// writeEdge sets the edge polarity and interrupt enable. Any latched flag stays as is.
func (c *Chip) writeEdge(positive, ie bool) {
	c.edge.positive = positive
	c.edge.ie = ie
	c.updateIRQ()
}

// irqFlags returns the interrupt flag register. The 6530 has no edge detector
// so only the timer bit can ever be set there.
func (c *Chip) irqFlags() uint8 {
	var f uint8
	if c.timer.flag {
		f |= IRQ_TIMER
	}
	if c.variant == RIOT && c.edge.flag {
		f |= IRQ_EDGE
	}
	return f
}

// readFlags returns the interrupt flag register and clears both flags.
func (c *Chip) readFlags() uint8 {
	c.syncTimer()
	f := c.irqFlags()
	c.timer.flag = false
	c.edge.flag = false
	c.updateIRQ()
	return f
}

// updateIRQ recomputes the interrupt output from the latched flags and their
// enables and pushes it to the host if it changed. It needs calling after
// anything which could change a flag or an enable.
func (c *Chip) updateIRQ() bool {
	raised := c.timer.ie && c.timer.flag
	if c.variant == RIOT && c.edge.ie && c.edge.flag {
		raised = true
	}
	if raised != c.irq {
		c.irq = raised
		if c.irqLine != nil {
			c.irqLine.Set(raised)
		}
	}
	if c.pb7IRQ {
		if c.pbPins() != c.pb.driven {
			c.updatePB()
		}
	}
	return raised
}

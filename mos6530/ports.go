package mos6530

// port holds the data for an 8 bit I/O port.
type port struct {
	def    PortDef
	out    uint8 // Output latch.
	ddr    uint8 // Data direction. 1 == output.
	in     uint8 // Most recently sampled/driven input level.
	driven uint8 // Pin state most recently pushed to the output handlers.
}

func newPort(def PortDef) port {
	// Nothing driving the pins reads high.
	return port{def: def, in: 0xFF}
}

// reset puts every pin back to input. External input levels are left alone.
func (p *port) reset() {
	p.out = 0x00
	p.ddr = 0x00
}

// Output implements the interface for io.PortOut8.
func (p *port) Output() uint8 {
	return p.driven
}

// pins returns the state of the pins as seen from outside. Inputs float
// high through the internal pull-ups.
func (p *port) pins() uint8 {
	return (p.out & p.ddr) | ^p.ddr
}

// level returns what a read would see without sampling the inputs again.
func (p *port) level() uint8 {
	return (p.out & p.ddr) | (p.in &^ p.ddr)
}

// sample refreshes the input levels from whatever handlers are installed.
func (p *port) sample() {
	in := p.in
	if p.def.In != nil {
		in = p.def.In.Input()
	}
	for i, l := range p.def.Lines {
		if l == nil {
			continue
		}
		if l.Input() {
			in |= 1 << i
		} else {
			in &^= 1 << i
		}
	}
	p.in = in
}

// read returns the latch for output pins and the live level for inputs.
func (p *port) read() uint8 {
	p.sample()
	return p.level()
}

// setLine sets the input level of one pin. It returns false for a bit outside 0-7.
func (p *port) setLine(bit int, level bool) bool {
	if bit < 0 || bit > 7 {
		return false
	}
	m := uint8(1) << uint(bit)
	if level {
		p.in |= m
	} else {
		p.in &^= m
	}
	return true
}

// drive pushes pins to the byte handler and to every line handler. Both see
// the same levels so inputs read high through the pull-ups on either.
func (p *port) drive(pins uint8) {
	p.driven = pins
	if p.def.Out != nil {
		p.def.Out.Set(pins)
	}
	for i, l := range p.def.OutLines {
		if l != nil {
			l.Set(pins&(1<<i) != 0)
		}
	}
}

func (c *Chip) updatePA() {
	c.pa.drive(c.pa.pins())
}

func (c *Chip) updatePB() {
	c.pb.drive(c.pbPins())
}

// pbPins works out port B taking the 6530 IRQ/PB7 sharing into account.
func (c *Chip) pbPins() uint8 {
	pins := c.pb.pins()
	if c.pb7IRQ && c.timer.ie {
		// Open drain and active low.
		pins |= kPB7
		if c.irq {
			pins &^= kPB7
		}
	}
	return pins
}

func (c *Chip) writePA(val uint8) {
	c.pa.out = val
	c.updatePA()
	c.edgeDetect()
}

func (c *Chip) writePADDR(val uint8) {
	// Pins turning into outputs immediately show whatever is already latched.
	c.pa.ddr = val
	c.updatePA()
	c.edgeDetect()
}

func (c *Chip) readPA() uint8 {
	v := c.pa.read()
	c.edgeDetect()
	return v
}

func (c *Chip) writePB(val uint8) {
	c.pb.out = val
	c.updatePB()
}

func (c *Chip) writePBDDR(val uint8) {
	c.pb.ddr = val
	c.updatePB()
}

func (c *Chip) readPB() uint8 {
	return c.pb.read()
}

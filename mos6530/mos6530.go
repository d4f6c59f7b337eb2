// Package mos6530 implements the complete state of the MOS 6530 (MIOT) and
// 6532 (RIOT) combination memory, I/O and timer chips as described in
// http://www.ionpool.net/arcade/gottlieb/technical/datasheets/R6532_datasheet.pdf
// and http://www.devili.iki.fi/pub/Commodore/docs/datasheets/CSG/6532-8102.zip
//
// Both parts have two 8 bit ports with data direction registers, a countdown
// timer with a selectable prescaler and on chip RAM. The 6530 adds a mask ROM
// and only raises interrupts from the timer. The 6532 has twice the RAM and
// also latches an interrupt on a selectable edge of PA7.
//
// The chip doesn't tick. Timer reads are computed from the host clock.Scheduler
// and a one-shot wake-up is registered for the zero crossing so the interrupt
// line asserts on time even if nothing is polling the chip.
package mos6530

import (
	"errors"
	"fmt"

	"github.com/jmchacon/riot/clock"
	"github.com/jmchacon/riot/io"
	"github.com/jmchacon/riot/irq"
	"github.com/jmchacon/riot/memory"
)

var (
	_ = memory.Bank(&Chip{})
	_ = memory.Bank(&ioBank{})
	_ = irq.Sender(&Chip{})
)

// Variant selects which member of the family is emulated.
type Variant int

const (
	VariantUnknown Variant = iota // Start of valid variant enumerations.
	MIOT                          // 6530: 1k ROM, 64 bytes RAM, timer interrupt only.
	RIOT                          // 6532: no ROM, 128 bytes RAM, timer and PA7 edge interrupts.
	VariantMax                    // End of variant enumerations.
)

func (v Variant) String() string {
	switch v {
	case MIOT:
		return "6530"
	case RIOT:
		return "6532"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

const (
	// ROM/RAM sizes.
	ROMSize     = 0x400
	MIOTRAMSize = 0x40
	RIOTRAMSize = 0x80

	// Bits in the interrupt flag register.
	IRQ_TIMER = uint8(0x80)
	IRQ_EDGE  = uint8(0x40)
)

const (
	// Register offsets inside the I/O window. The chips only decode a few address
	// lines so everything here aliases heavily. See read/write in decode.go.
	kREAD_PORT_A       = uint16(0x0000)
	kREAD_PORT_A_DDR   = uint16(0x0001)
	kREAD_PORT_B       = uint16(0x0002)
	kREAD_PORT_B_DDR   = uint16(0x0003)
	kREAD_TIMER_NO_INT = uint16(0x0004)
	kREAD_INT          = uint16(0x0005)
	kREAD_TIMER_INT    = uint16(0x000C)

	kWRITE_PORT_A     = uint16(0x0000)
	kWRITE_PORT_A_DDR = uint16(0x0001)
	kWRITE_PORT_B     = uint16(0x0002)
	kWRITE_PORT_B_DDR = uint16(0x0003)

	// 6532 only. Edge control lives below the timer (A4 low).
	kWRITE_NEG_NO_INT = uint16(0x0004)
	kWRITE_POS_NO_INT = uint16(0x0005)
	kWRITE_NEG_INT    = uint16(0x0006)
	kWRITE_POS_INT    = uint16(0x0007)

	// The 6530 has no edge control so its timer lives at A4 == 0.
	kMIOT_WRITE_TIMER_1_NO_INT    = uint16(0x0004)
	kMIOT_WRITE_TIMER_8_NO_INT    = uint16(0x0005)
	kMIOT_WRITE_TIMER_64_NO_INT   = uint16(0x0006)
	kMIOT_WRITE_TIMER_1024_NO_INT = uint16(0x0007)
	kMIOT_WRITE_TIMER_1_INT       = uint16(0x000C)
	kMIOT_WRITE_TIMER_8_INT       = uint16(0x000D)
	kMIOT_WRITE_TIMER_64_INT      = uint16(0x000E)
	kMIOT_WRITE_TIMER_1024_INT    = uint16(0x000F)

	kWRITE_TIMER_1_NO_INT    = uint16(0x0014)
	kWRITE_TIMER_8_NO_INT    = uint16(0x0015)
	kWRITE_TIMER_64_NO_INT   = uint16(0x0016)
	kWRITE_TIMER_1024_NO_INT = uint16(0x0017)
	kWRITE_TIMER_1_INT       = uint16(0x001C)
	kWRITE_TIMER_8_INT       = uint16(0x001D)
	kWRITE_TIMER_64_INT      = uint16(0x001E)
	kWRITE_TIMER_1024_INT    = uint16(0x001F)

	kMASK_MIOT_RW = uint16(0x0F)
	kMASK_RIOT_RW = uint16(0x1F)

	kMASK_TIMER    = uint16(0x04) // A2: ports vs timer/interrupt registers.
	kMASK_PORT     = uint16(0x03) // A0-A1: which port register.
	kMASK_INT_BIT  = uint16(0x08) // A3: timer interrupt enable on timer reads/writes.
	kMASK_FLAGS    = uint16(0x01) // A0: timer vs flag register on reads.
	kMASK_PRESCALE = uint16(0x03) // A0-A1: prescale select on timer writes.
	kMASK_RIOT_TMR = uint16(0x10) // A4: timer vs edge control on 6532 writes.
	kMASK_EDGE_POS = uint16(0x01) // A0: positive edge on edge control writes.
	kMASK_EDGE_INT = uint16(0x02) // A1: edge interrupt enable on edge control writes.

	kPA7 = uint8(0x80)
	kPB7 = uint8(0x80)
)

// PortDef describes how one I/O port is wired to the outside world. Any of the
// handlers may be nil. Inputs with no handler read back the last level given
// to SetPA/SetPB (high if never set).
type PortDef struct {
	// In is sampled for the whole port on reads.
	In io.PortIn8
	// Lines are sampled per bit on reads and override In for that bit.
	Lines [8]io.PortIn1
	// Out receives the full pin state (inputs read high through the pull-ups)
	// whenever the port is written or its direction changes.
	Out io.PortSet8
	// OutLines receive the level of each pin whenever the port is driven. Same
	// levels as Out so a pin turning back into an input reports high.
	OutLines [8]io.PortSet1
}

type ChipDef struct {
	// Variant picks the 6530 or 6532.
	Variant Variant

	// Clock is the phi2 frequency in Hz.
	Clock uint64

	// ROM is the mask ROM image. Required for a 6530 and must be ROMSize bytes. Must be
	// empty for a 6532.
	ROM []uint8

	// Scheduler provides the time reference and expiry wake-ups. Its Rate must be at
	// least Clock.
	Scheduler clock.Scheduler

	// PortA is the I/O port for port A.
	PortA PortDef

	// PortB is the I/O port for port B.
	PortB PortDef

	// IRQ if non-nil is driven every time the interrupt output changes.
	IRQ irq.Line

	// IRQOnPB7 (6530 only) mirrors the interrupt output onto PB7 (active low) while the
	// timer interrupt is enabled, as on parts masked with the shared IRQ/PB7 pin.
	IRQOnPB7 bool

	// Debug if true wll emit output from Debug() calls
	Debug bool
}

// Chip implements all modes needed for a 6530 or 6532 including internal RAM/ROM
// plus the I/O and interrupt modes.
type Chip struct {
	variant  Variant
	debug    bool
	pb7IRQ   bool
	sched    clock.Scheduler
	domain   clock.Domain
	irqLine  irq.Line
	ram      *memory.RAM
	rom      memory.Bank // nil on a 6532.
	io       *ioBank
	pa       port
	pb       port
	timer    timer
	edge     edge
	irq      bool   // Current state of the interrupt output.
	ioMask   uint16 // Address lines decoded for the I/O window.
}

// Init returns a fully initialized and powered on chip.
func Init(d *ChipDef) (*Chip, error) {
	if d == nil {
		return nil, errors.New("nil ChipDef")
	}
	if d.Variant <= VariantUnknown || d.Variant >= VariantMax {
		return nil, fmt.Errorf("invalid variant: %d", d.Variant)
	}
	if d.Scheduler == nil {
		return nil, errors.New("Scheduler must be non-nil in def")
	}
	if d.Clock == 0 {
		return nil, errors.New("Clock must be non-zero in def")
	}
	if r := d.Scheduler.Rate(); r < d.Clock {
		return nil, fmt.Errorf("scheduler rate %d is lower than the chip clock %d", r, d.Clock)
	}
	if d.IRQOnPB7 && d.Variant != MIOT {
		return nil, errors.New("IRQOnPB7 is only valid for a 6530")
	}
	c := &Chip{
		variant: d.Variant,
		debug:   d.Debug,
		pb7IRQ:  d.IRQOnPB7,
		sched:   d.Scheduler,
		domain:  clock.Domain{Rate: d.Scheduler.Rate(), Hz: d.Clock},
		irqLine: d.IRQ,
		pa:      newPort(d.PortA),
		pb:      newPort(d.PortB),
		ioMask:  kMASK_RIOT_RW,
	}
	ramSize := RIOTRAMSize
	switch d.Variant {
	case MIOT:
		if len(d.ROM) != ROMSize {
			return nil, fmt.Errorf("6530 ROM must be %d bytes, got %d", ROMSize, len(d.ROM))
		}
		rom, err := memory.NewROM(d.ROM)
		if err != nil {
			return nil, fmt.Errorf("can't initialize ROM: %v", err)
		}
		c.rom = rom
		ramSize = MIOTRAMSize
		c.ioMask = kMASK_MIOT_RW
	case RIOT:
		if len(d.ROM) != 0 {
			return nil, errors.New("6532 has no ROM")
		}
	}
	var err error
	if c.ram, err = memory.NewRAM(ramSize); err != nil {
		return nil, fmt.Errorf("can't initialize RAM: %v", err)
	}
	c.io = &ioBank{c}
	c.PowerOn()
	return c, nil
}

// PowerOn implements the memory interface for ram.
// It performs a full power-on/reset for the chip.
func (c *Chip) PowerOn() {
	// Allowed to initialize the RAM since we own it directly.
	c.ram.PowerOn()
	c.Reset()
}

// Reset does a soft reset based on holding RES low on the chip.
// Both ports become inputs, edge detection goes back to negative with
// its interrupt off and the timer restarts from 0xFF at /1024 with its
// interrupt disabled. Any latched interrupt is dropped and the line deasserted.
func (c *Chip) Reset() {
	c.pa.reset()
	c.pb.reset()

	// The edge detector starts from whatever PA7 is held at right now.
	c.pa.sample()
	c.edge = edge{pa7: c.pa.level()&kPA7 != 0}

	c.irq = false
	if c.irqLine != nil {
		c.irqLine.Set(false)
	}

	// Evidently the real hardware starts up in this mode
	// which some implementation depend on to loop watching for
	// a zero crossing without bothering to program the chip first.
	c.loadTimer(uint8(kMASK_PRESCALE), false, 0xFF)

	c.updatePA()
	c.updatePB()
}

// Variant returns which chip this is.
func (c *Chip) Variant() Variant {
	return c.variant
}

// PortA returns an io.PortOut8 for getting the current output pins of Port A.
func (c *Chip) PortA() io.PortOut8 {
	return &c.pa
}

// PortB returns an io.PortOut8 for getting the current output pins of Port B.
func (c *Chip) PortB() io.PortOut8 {
	return &c.pb
}

// SetPA drives an input level onto a port A pin. This only matters for pins
// configured as inputs but PA7 is always checked for an edge. Bits outside 0-7
// are ignored.
func (c *Chip) SetPA(bit int, level bool) {
	if !c.pa.setLine(bit, level) {
		return
	}
	c.edgeDetect()
}

// SetPB drives an input level onto a port B pin. Bits outside 0-7 are ignored.
func (c *Chip) SetPB(bit int, level bool) {
	c.pb.setLine(bit, level)
}

// Raised implements the irq.Sender interface for determining interrupt state when called.
func (c *Chip) Raised() bool {
	c.syncTimer()
	return c.irq
}

// Debug returns a one line summary of the chip state if debugging was enabled in the ChipDef.
func (c *Chip) Debug() string {
	if c.debug {
		now := c.cycles()
		return fmt.Sprintf("%.6d %s timer: %.2X shift: %d %s ie: %t flags: %.2X edge: %s ie: %t irq: %t PA: %.2X/%.2X PB: %.2X/%.2X\n",
			now, c.variant, c.timer.value(now), c.timer.shift, c.timer.state, c.timer.ie, c.irqFlags(),
			c.edge.polarity(), c.edge.ie, c.irq, c.pa.out, c.pa.ddr, c.pb.out, c.pb.ddr)
	}
	return ""
}

// cycles returns the current time in chip clock cycles.
func (c *Chip) cycles() uint64 {
	return c.domain.Cycles(c.sched.Now())
}

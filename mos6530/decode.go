package mos6530

import "github.com/jmchacon/riot/memory"

// ioBank is used as an abstraction for getting at the I/O portion of the chip
// through a memory.Bank interface.
type ioBank struct {
	c *Chip
}

// Read implements the interface for memory.Bank and gives access to the I/O
// portion of the chip.
func (i *ioBank) Read(addr uint16) uint8 {
	return i.c.readReg(addr)
}

// Write implements the interface for memory.Bank and gives access to the I/O
// portion of the chip.
func (i *ioBank) Write(addr uint16, val uint8) {
	i.c.writeReg(addr, val)
}

// PowerOn implements the interface for memory.Bank. Registers are handled by the chip Reset.
func (i *ioBank) PowerOn() {}

// IO returns a memory.Bank which interfaces to the I/O and timer registers.
// Addresses are masked to the lines the chip decodes (4 on a 6530, 5 on a 6532).
func (c *Chip) IO() memory.Bank {
	return c.io
}

// ROM returns a memory.Bank for the 6530 mask ROM (10 address lines decoded).
// Writes are ignored. A 6532 has no ROM and this returns nil.
func (c *Chip) ROM() memory.Bank {
	return c.rom
}

// RAM returns the on chip RAM. Same as using the Chip itself as a memory.Bank.
func (c *Chip) RAM() memory.Bank {
	return c.ram
}

// Read implements the interface for memory.Bank and gives access to the RAM
// portion of the chip. Use IO() to get an inteface to the I/O section.
func (c *Chip) Read(addr uint16) uint8 {
	return c.ram.Read(addr)
}

// Write implements the interface for memory.Bank and gives access to the RAM
// portion of the chip. Use IO() to get an inteface to the I/O section.
func (c *Chip) Write(addr uint16, val uint8) {
	c.ram.Write(addr, val)
}

// readReg returns the register at addr in the I/O window.
//
// NOTE: This isn't tied to the clock so it's possible to read/write more than
// one item per cycle. Integration is expected to advance the scheduler as
// needed since it's assumed real reads are happening on clocked CPU cycles.
func (c *Chip) readReg(addr uint16) uint8 {
	addr &= c.ioMask

	// Reads decode the same on both parts. A4 is a don't care on the 6532.
	if addr&kMASK_TIMER == 0 {
		switch addr & kMASK_PORT {
		case kREAD_PORT_A:
			return c.readPA()
		case kREAD_PORT_A_DDR:
			return c.pa.ddr
		case kREAD_PORT_B:
			return c.readPB()
		default: // kREAD_PORT_B_DDR
			return c.pb.ddr
		}
	}
	if addr&kMASK_FLAGS != 0 {
		return c.readFlags()
	}
	return c.readTimer(addr&kMASK_INT_BIT != 0)
}

// writeReg stores val in the register at addr in the I/O window.
func (c *Chip) writeReg(addr uint16, val uint8) {
	addr &= c.ioMask

	if addr&kMASK_TIMER == 0 {
		switch addr & kMASK_PORT {
		case kWRITE_PORT_A:
			c.writePA(val)
		case kWRITE_PORT_A_DDR:
			c.writePADDR(val)
		case kWRITE_PORT_B:
			c.writePB(val)
		default: // kWRITE_PORT_B_DDR
			c.writePBDDR(val)
		}
		return
	}
	// The 6532 puts edge control where A4 is low. The 6530 has none so it's all timer.
	if c.variant == RIOT && addr&kMASK_RIOT_TMR == 0 {
		c.writeEdge(addr&kMASK_EDGE_POS != 0, addr&kMASK_EDGE_INT != 0)
		return
	}
	c.loadTimer(uint8(addr&kMASK_PRESCALE), addr&kMASK_INT_BIT != 0, val)
}

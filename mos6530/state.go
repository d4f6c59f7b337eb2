package mos6530

import (
	"errors"
	"fmt"
)

// PortState is the saved state of one I/O port.
type PortState struct {
	Out uint8 // Output latch.
	DDR uint8 // Data direction register.
	In  uint8 // Last observed input level.
}

// TimerState is the saved state of the timer.
type TimerState struct {
	Shift      uint8  // log2 of the prescaler.
	Spinning   bool   // True once the count passed zero.
	Expiry     uint64 // Chip cycle the count reaches (or reached) zero.
	IRQEnabled bool
	IRQFlag    bool
}

// EdgeState is the saved state of the PA7 edge detector.
type EdgeState struct {
	Positive   bool
	IRQEnabled bool
	Flag       bool
	PA7        bool // Last observed PA7 level.
}

// State is everything needed to resume a chip. Timer expiry is absolute so a
// State is only meaningful against a scheduler restored to the same time.
type State struct {
	Variant Variant
	PortA   PortState
	PortB   PortState
	Timer   TimerState
	Edge    EdgeState
	IRQ     bool // Interrupt output.
	RAM     []uint8
}

// Snapshot returns the current chip state.
func (c *Chip) Snapshot() *State {
	c.syncTimer()
	return &State{
		Variant: c.variant,
		PortA:   PortState{Out: c.pa.out, DDR: c.pa.ddr, In: c.pa.in},
		PortB:   PortState{Out: c.pb.out, DDR: c.pb.ddr, In: c.pb.in},
		Timer: TimerState{
			Shift:      uint8(c.timer.shift),
			Spinning:   c.timer.state == timerSpinning,
			Expiry:     c.timer.expiry,
			IRQEnabled: c.timer.ie,
			IRQFlag:    c.timer.flag,
		},
		Edge: EdgeState{
			Positive:   c.edge.positive,
			IRQEnabled: c.edge.ie,
			Flag:       c.edge.flag,
			PA7:        c.edge.pa7,
		},
		IRQ: c.irq,
		RAM: c.ram.Contents(),
	}
}

// Restore loads a State taken by Snapshot on the same kind of chip. A pending
// timer expiry is re-armed against the current scheduler and the port output
// handlers are driven with the restored pins. The interrupt output is recomputed
// from the restored flags and driven if it differs from what the line last saw,
// so IRQ in the State is informational.
func (c *Chip) Restore(s *State) error {
	if s == nil {
		return errors.New("nil State")
	}
	if s.Variant != c.variant {
		return fmt.Errorf("state is for a %s, chip is a %s", s.Variant, c.variant)
	}
	switch s.Timer.Shift {
	case 0, 3, 6, 10:
	default:
		return fmt.Errorf("invalid timer shift %d", s.Timer.Shift)
	}
	if err := c.ram.Load(s.RAM); err != nil {
		return fmt.Errorf("can't restore RAM: %v", err)
	}

	c.pa.out, c.pa.ddr, c.pa.in = s.PortA.Out, s.PortA.DDR, s.PortA.In
	c.pb.out, c.pb.ddr, c.pb.in = s.PortB.Out, s.PortB.DDR, s.PortB.In
	c.edge = edge{
		positive: s.Edge.Positive,
		ie:       s.Edge.IRQEnabled,
		flag:     s.Edge.Flag,
		pa7:      s.Edge.PA7,
	}

	c.timer.event.cancel()
	c.timer.shift = uint(s.Timer.Shift)
	c.timer.state = timerCounting
	if s.Timer.Spinning {
		c.timer.state = timerSpinning
	}
	c.timer.expiry = s.Timer.Expiry
	c.timer.ie = s.Timer.IRQEnabled
	c.timer.flag = s.Timer.IRQFlag

	c.armTimer()
	c.updateIRQ()
	c.updatePA()
	c.updatePB()
	return nil
}

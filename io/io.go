// Package io defines the basic interfaces for working
// with a 6502 family based I/O port (generally bi-directional).
// Inputs are sampled by the chip when it needs them (a port read or
// an edge check) and outputs are pushed to the handlers whenever a
// pin the chip drives changes. A port may be wired either as one
// 8 bit handler or as up to 8 individual line handlers (or both).
package io

// PortIn8 defines an 8 bit input port.
type PortIn8 interface {
	// Input will return the current value being set on the given input port.
	Input() uint8
}

// PortIn1 defines a single input line.
type PortIn1 interface {
	// Input returns the current level of the line. true == high.
	Input() bool
}

// PortOut8 defines an 8 bit output port which can be polled.
type PortOut8 interface {
	// Output returns the current value being driven on the port pins.
	Output() uint8
}

// PortSet8 receives the value of an 8 bit output port whenever it changes.
type PortSet8 interface {
	Set(val uint8)
}

// PortSet1 receives the level of a single output line whenever it's driven.
type PortSet1 interface {
	Set(level bool)
}

// PortIn8Func adapts a function to PortIn8.
type PortIn8Func func() uint8

// Input implements PortIn8.
func (f PortIn8Func) Input() uint8 {
	return f()
}

// PortIn1Func adapts a function to PortIn1.
type PortIn1Func func() bool

// Input implements PortIn1.
func (f PortIn1Func) Input() bool {
	return f()
}

// PortSet8Func adapts a function to PortSet8.
type PortSet8Func func(uint8)

// Set implements PortSet8.
func (f PortSet8Func) Set(val uint8) {
	f(val)
}

// PortSet1Func adapts a function to PortSet1.
type PortSet1Func func(bool)

// Set implements PortSet1.
func (f PortSet1Func) Set(level bool) {
	f(level)
}

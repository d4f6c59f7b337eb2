// Package memory defines the basic interfaces for working
// with a 6502 family memory map. Since each implementation
// that is emulated has specific mappings (including shadowed
// regions) this is defined as an interface.
package memory

import (
	"errors"
	"fmt"
)

type Bank interface {
	// Read returns the data byte stored at addr.
	Read(addr uint16) uint8
	// Write updates addr with the new value. For ROM addresses this is simply a no-op without
	// any error.
	Write(addr uint16, val uint8)
	// PowerOn performs power on reset of the memory. This is implementation specific as to
	// whether it's randomized or preset to all zeros.
	PowerOn()
}

// RAM is a Bank of read/write memory. Only the low address lines needed to cover
// its size are decoded so every other address aliases back into it.
type RAM struct {
	data []uint8
	mask uint16
}

// NewRAM returns a RAM bank of the given size which must be a power of 2 no larger than 64k.
func NewRAM(size int) (*RAM, error) {
	mask, err := sizeMask(size)
	if err != nil {
		return nil, fmt.Errorf("can't create RAM: %v", err)
	}
	return &RAM{
		data: make([]uint8, size),
		mask: mask,
	}, nil
}

// Read implements the interface for memory.Bank.
func (r *RAM) Read(addr uint16) uint8 {
	return r.data[addr&r.mask]
}

// Write implements the interface for memory.Bank.
func (r *RAM) Write(addr uint16, val uint8) {
	r.data[addr&r.mask] = val
}

// PowerOn implements the interface for memory.Bank and zeros the contents.
func (r *RAM) PowerOn() {
	for i := range r.data {
		r.data[i] = 0x00
	}
}

// Len returns the size of the bank in bytes.
func (r *RAM) Len() int {
	return len(r.data)
}

// Contents returns a copy of the current RAM contents.
func (r *RAM) Contents() []uint8 {
	return append([]uint8(nil), r.data...)
}

// Load replaces the RAM contents. The data must be exactly the size of the bank.
func (r *RAM) Load(data []uint8) error {
	if len(data) != len(r.data) {
		return fmt.Errorf("RAM is %d bytes, can't load %d", len(r.data), len(data))
	}
	copy(r.data, data)
	return nil
}

// ROM is a read only Bank. Writes are ignored.
type ROM struct {
	data []uint8
	mask uint16
}

// NewROM returns a ROM bank holding a copy of image. The image length must be a
// power of 2 no larger than 64k.
func NewROM(image []uint8) (*ROM, error) {
	mask, err := sizeMask(len(image))
	if err != nil {
		return nil, fmt.Errorf("can't create ROM: %v", err)
	}
	return &ROM{
		data: append([]uint8(nil), image...),
		mask: mask,
	}, nil
}

// Read implements the interface for memory.Bank.
func (r *ROM) Read(addr uint16) uint8 {
	return r.data[addr&r.mask]
}

// Write implements the interface for memory.Bank. ROM can't be written so this does nothing.
func (r *ROM) Write(addr uint16, val uint8) {}

// PowerOn implements the interface for memory.Bank. ROM contents survive power cycles.
func (r *ROM) PowerOn() {}

// Len returns the size of the bank in bytes.
func (r *ROM) Len() int {
	return len(r.data)
}

func sizeMask(size int) (uint16, error) {
	if size <= 0 || size > 0x10000 {
		return 0, fmt.Errorf("invalid size %d", size)
	}
	if size&(size-1) != 0 {
		return 0, errors.New("size must be a power of 2")
	}
	return uint16(size - 1), nil
}

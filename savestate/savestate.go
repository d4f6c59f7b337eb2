// Package savestate stores mos6530 chip state in the protobuf wire format so a
// host can stop and later resume a run. The chip cycle the snapshot was taken
// at is saved alongside since timer expiry is absolute.
package savestate

import (
	"errors"
	"fmt"

	"github.com/jmchacon/riot/mos6530"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers. Never renumber these.
const (
	fieldCycle protowire.Number = 1
	fieldChip  protowire.Number = 2

	fieldVariant protowire.Number = 1
	fieldPortA   protowire.Number = 2
	fieldPortB   protowire.Number = 3
	fieldTimer   protowire.Number = 4
	fieldEdge    protowire.Number = 5
	fieldIRQ     protowire.Number = 6
	fieldRAM     protowire.Number = 7

	fieldPortOut protowire.Number = 1
	fieldPortDDR protowire.Number = 2
	fieldPortIn  protowire.Number = 3

	fieldTimerShift    protowire.Number = 1
	fieldTimerSpinning protowire.Number = 2
	fieldTimerExpiry   protowire.Number = 3
	fieldTimerIE       protowire.Number = 4
	fieldTimerFlag     protowire.Number = 5

	fieldEdgePositive protowire.Number = 1
	fieldEdgeIE       protowire.Number = 2
	fieldEdgeFlag     protowire.Number = 3
	fieldEdgePA7      protowire.Number = 4
)

// Encode returns the wire form of s taken at chip cycle cycle.
func Encode(cycle uint64, s *mos6530.State) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil State")
	}
	var b []byte
	b = appendVarint(b, fieldCycle, cycle)
	b = appendMessage(b, fieldChip, encodeChip(s))
	return b, nil
}

// Decode parses data produced by Encode.
func Decode(data []byte) (uint64, *mos6530.State, error) {
	var cycle uint64
	var s *mos6530.State
	err := walk(data, func(num protowire.Number, v uint64, d []byte) error {
		switch num {
		case fieldCycle:
			cycle = v
		case fieldChip:
			s = &mos6530.State{}
			return decodeChip(s, d)
		}
		return nil
	})
	if err != nil {
		return 0, nil, fmt.Errorf("can't decode state: %v", err)
	}
	if s == nil {
		return 0, nil, errors.New("no chip state present")
	}
	return cycle, s, nil
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	return appendVarint(b, num, protowire.EncodeBool(v))
}

func appendMessage(b []byte, num protowire.Number, m []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m)
}

func encodePort(p mos6530.PortState) []byte {
	var b []byte
	b = appendVarint(b, fieldPortOut, uint64(p.Out))
	b = appendVarint(b, fieldPortDDR, uint64(p.DDR))
	b = appendVarint(b, fieldPortIn, uint64(p.In))
	return b
}

func encodeChip(s *mos6530.State) []byte {
	var b []byte
	b = appendVarint(b, fieldVariant, uint64(s.Variant))
	b = appendMessage(b, fieldPortA, encodePort(s.PortA))
	b = appendMessage(b, fieldPortB, encodePort(s.PortB))

	var t []byte
	t = appendVarint(t, fieldTimerShift, uint64(s.Timer.Shift))
	t = appendBool(t, fieldTimerSpinning, s.Timer.Spinning)
	t = appendVarint(t, fieldTimerExpiry, s.Timer.Expiry)
	t = appendBool(t, fieldTimerIE, s.Timer.IRQEnabled)
	t = appendBool(t, fieldTimerFlag, s.Timer.IRQFlag)
	b = appendMessage(b, fieldTimer, t)

	var e []byte
	e = appendBool(e, fieldEdgePositive, s.Edge.Positive)
	e = appendBool(e, fieldEdgeIE, s.Edge.IRQEnabled)
	e = appendBool(e, fieldEdgeFlag, s.Edge.Flag)
	e = appendBool(e, fieldEdgePA7, s.Edge.PA7)
	b = appendMessage(b, fieldEdge, e)

	b = appendBool(b, fieldIRQ, s.IRQ)
	b = appendMessage(b, fieldRAM, s.RAM)
	return b
}

// walk calls fn for every field in a message. Varints arrive in v and length
// delimited fields in data. Other wire types are skipped.
func walk(b []byte, fn func(num protowire.Number, v uint64, data []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			if err := fn(num, v, nil); err != nil {
				return err
			}
		case protowire.BytesType:
			d, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			if err := fn(num, 0, d); err != nil {
				return err
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return nil
}

func decodePort(p *mos6530.PortState, b []byte) error {
	return walk(b, func(num protowire.Number, v uint64, _ []byte) error {
		switch num {
		case fieldPortOut:
			p.Out = uint8(v)
		case fieldPortDDR:
			p.DDR = uint8(v)
		case fieldPortIn:
			p.In = uint8(v)
		}
		return nil
	})
}

func decodeChip(s *mos6530.State, data []byte) error {
	return walk(data, func(num protowire.Number, v uint64, d []byte) error {
		switch num {
		case fieldVariant:
			s.Variant = mos6530.Variant(v)
		case fieldPortA:
			return decodePort(&s.PortA, d)
		case fieldPortB:
			return decodePort(&s.PortB, d)
		case fieldTimer:
			return walk(d, func(num protowire.Number, v uint64, _ []byte) error {
				switch num {
				case fieldTimerShift:
					s.Timer.Shift = uint8(v)
				case fieldTimerSpinning:
					s.Timer.Spinning = protowire.DecodeBool(v)
				case fieldTimerExpiry:
					s.Timer.Expiry = v
				case fieldTimerIE:
					s.Timer.IRQEnabled = protowire.DecodeBool(v)
				case fieldTimerFlag:
					s.Timer.IRQFlag = protowire.DecodeBool(v)
				}
				return nil
			})
		case fieldEdge:
			return walk(d, func(num protowire.Number, v uint64, _ []byte) error {
				switch num {
				case fieldEdgePositive:
					s.Edge.Positive = protowire.DecodeBool(v)
				case fieldEdgeIE:
					s.Edge.IRQEnabled = protowire.DecodeBool(v)
				case fieldEdgeFlag:
					s.Edge.Flag = protowire.DecodeBool(v)
				case fieldEdgePA7:
					s.Edge.PA7 = protowire.DecodeBool(v)
				}
				return nil
			})
		case fieldIRQ:
			s.IRQ = protowire.DecodeBool(v)
		case fieldRAM:
			s.RAM = append([]uint8(nil), d...)
		}
		return nil
	})
}

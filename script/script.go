// Package script drives a 6530/6532 from a starlark program. Scripts poke
// registers, move input pins and step time one chip cycle at a time while an
// optional trace.Recorder samples the result.
//
// Builtins:
//
//	write(reg, val)   write an I/O register
//	read(reg)         read an I/O register (with its side effects)
//	tick(n=1)         run n chip cycles
//	pa(bit, level)    drive a port A input line
//	pb(bit, level)    drive a port B input line
//	peek()            timer value without side effects
//	irq()             interrupt output
//	ram_write(addr, val), ram_read(addr)
//	cycle()           chip cycles since time 0
//
// Register addresses are predeclared by their usual names (PORTA, DDRA, PORTB,
// DDRB, TIMER, TIMER_INT, FLAGS, TIM1, TIM8, TIM64, TIM1024 plus _INT forms of
// those and, on a 6532, EDGE_NEG, EDGE_POS, EDGE_NEG_INT, EDGE_POS_INT).
package script

import (
	"errors"
	"fmt"

	"github.com/jmchacon/riot/clock"
	"github.com/jmchacon/riot/mos6530"
	"github.com/jmchacon/riot/trace"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

type Def struct {
	// Chip is the chip being driven.
	Chip *mos6530.Chip

	// Queue is the scheduler the chip was created with. Scripts own time so it
	// must not be advanced by anything else while a script runs.
	Queue *clock.Queue

	// Clock is the chip phi2 frequency in Hz (the same value given to the chip).
	Clock uint64

	// Recorder if non-nil is sampled after every cycle.
	Recorder *trace.Recorder

	// Print if non-nil receives output from the starlark print builtin.
	Print func(msg string)
}

// Runner executes scripts against one chip. Time carries over between calls to Exec.
type Runner struct {
	c      *mos6530.Chip
	q      *clock.Queue
	rec    *trace.Recorder
	print  func(string)
	domain clock.Domain
	cycle  uint64
}

// New returns a Runner for the chip in d.
func New(d *Def) (*Runner, error) {
	if d == nil {
		return nil, errors.New("nil Def")
	}
	if d.Chip == nil || d.Queue == nil {
		return nil, errors.New("Chip and Queue must be non-nil in def")
	}
	if d.Clock == 0 {
		return nil, errors.New("Clock must be non-zero in def")
	}
	if d.Queue.Rate() < d.Clock {
		return nil, fmt.Errorf("queue rate %d is lower than the chip clock %d", d.Queue.Rate(), d.Clock)
	}
	r := &Runner{
		c:      d.Chip,
		q:      d.Queue,
		rec:    d.Recorder,
		print:  d.Print,
		domain: clock.Domain{Rate: d.Queue.Rate(), Hz: d.Clock},
	}
	r.cycle = r.domain.Cycles(r.q.Now())
	return r, nil
}

// Cycle returns the current chip cycle.
func (r *Runner) Cycle() uint64 {
	return r.cycle
}

// Registers returns the register names predeclared for the chip's variant.
func Registers(v mos6530.Variant) map[string]uint16 {
	regs := map[string]uint16{
		"PORTA":     0x00,
		"DDRA":      0x01,
		"PORTB":     0x02,
		"DDRB":      0x03,
		"TIMER":     0x04,
		"FLAGS":     0x05,
		"TIMER_INT": 0x0C,
	}
	base := uint16(0x04)
	if v == mos6530.RIOT {
		base = 0x14
		regs["EDGE_NEG"] = 0x04
		regs["EDGE_POS"] = 0x05
		regs["EDGE_NEG_INT"] = 0x06
		regs["EDGE_POS_INT"] = 0x07
	}
	for i, n := range []string{"TIM1", "TIM8", "TIM64", "TIM1024"} {
		regs[n] = base + uint16(i)
		regs[n+"_INT"] = base + uint16(i) + 0x08
	}
	return regs
}

// Exec runs a script. src is anything starlark.ExecFile accepts (string, []byte,
// io.Reader or nil to read filename). The script's globals are returned.
func (r *Runner) Exec(filename string, src interface{}) (starlark.StringDict, error) {
	thread := &starlark.Thread{Name: filename}
	if r.print != nil {
		thread.Print = func(_ *starlark.Thread, msg string) {
			r.print(msg)
		}
	}
	opts := &syntax.FileOptions{
		While:           true,
		TopLevelControl: true,
		GlobalReassign:  true,
	}
	pred := starlark.StringDict{
		"write":     starlark.NewBuiltin("write", r.write),
		"read":      starlark.NewBuiltin("read", r.read),
		"tick":      starlark.NewBuiltin("tick", r.tick),
		"pa":        starlark.NewBuiltin("pa", r.pa),
		"pb":        starlark.NewBuiltin("pb", r.pb),
		"peek":      starlark.NewBuiltin("peek", r.peek),
		"irq":       starlark.NewBuiltin("irq", r.irq),
		"ram_write": starlark.NewBuiltin("ram_write", r.ramWrite),
		"ram_read":  starlark.NewBuiltin("ram_read", r.ramRead),
		"cycle":     starlark.NewBuiltin("cycle", r.cycleFn),
		"VARIANT":   starlark.String(r.c.Variant().String()),
	}
	for n, a := range Registers(r.c.Variant()) {
		pred[n] = starlark.MakeInt(int(a))
	}
	globals, err := starlark.ExecFileOptions(opts, thread, filename, src, pred)
	if err != nil {
		var ee *starlark.EvalError
		if errors.As(err, &ee) {
			return globals, fmt.Errorf("%s", ee.Backtrace())
		}
		return globals, err
	}
	return globals, nil
}

// step runs one chip cycle and samples the recorder.
func (r *Runner) step() {
	r.cycle++
	r.q.RunUntil(r.domain.Time(r.cycle))
	if r.rec != nil {
		r.rec.Sample(r.cycle)
	}
}

func checkRange(b *starlark.Builtin, name string, v, limit int) error {
	if v < 0 || v > limit {
		return fmt.Errorf("%s: %s %d out of range 0-%d", b.Name(), name, v, limit)
	}
	return nil
}

func (r *Runner) write(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var reg, val int
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &reg, &val); err != nil {
		return nil, err
	}
	if err := checkRange(b, "register", reg, 0xFFFF); err != nil {
		return nil, err
	}
	if err := checkRange(b, "value", val, 0xFF); err != nil {
		return nil, err
	}
	r.c.IO().Write(uint16(reg), uint8(val))
	return starlark.None, nil
}

func (r *Runner) read(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var reg int
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &reg); err != nil {
		return nil, err
	}
	if err := checkRange(b, "register", reg, 0xFFFF); err != nil {
		return nil, err
	}
	return starlark.MakeInt(int(r.c.IO().Read(uint16(reg)))), nil
}

func (r *Runner) tick(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	n := 1
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "n?", &n); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%s: negative cycle count %d", b.Name(), n)
	}
	for i := 0; i < n; i++ {
		r.step()
	}
	return starlark.None, nil
}

func (r *Runner) setLine(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple, set func(int, bool)) (starlark.Value, error) {
	var bit int
	var level bool
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &bit, &level); err != nil {
		return nil, err
	}
	if err := checkRange(b, "bit", bit, 7); err != nil {
		return nil, err
	}
	set(bit, level)
	return starlark.None, nil
}

func (r *Runner) pa(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return r.setLine(b, args, kwargs, r.c.SetPA)
}

func (r *Runner) pb(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return r.setLine(b, args, kwargs, r.c.SetPB)
}

func (r *Runner) peek(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return starlark.MakeInt(int(r.c.Timer())), nil
}

func (r *Runner) irq(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return starlark.Bool(r.c.Raised()), nil
}

func (r *Runner) ramWrite(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addr, val int
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &addr, &val); err != nil {
		return nil, err
	}
	if err := checkRange(b, "address", addr, 0xFFFF); err != nil {
		return nil, err
	}
	if err := checkRange(b, "value", val, 0xFF); err != nil {
		return nil, err
	}
	r.c.Write(uint16(addr), uint8(val))
	return starlark.None, nil
}

func (r *Runner) ramRead(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addr int
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &addr); err != nil {
		return nil, err
	}
	if err := checkRange(b, "address", addr, 0xFFFF); err != nil {
		return nil, err
	}
	return starlark.MakeInt(int(r.c.Read(uint16(addr)))), nil
}

func (r *Runner) cycleFn(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return starlark.MakeUint64(r.cycle), nil
}

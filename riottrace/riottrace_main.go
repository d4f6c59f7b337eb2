// riottrace runs a starlark stimulus script against an emulated 6530 or 6532
// and writes a timing diagram of the timer, interrupt line and port pins.
//
// Example:
//
//	riottrace -script scenario.star -out scenario.png -scale 4
package main

import (
	"flag"
	"image/png"
	"log"
	"os"

	"github.com/jmchacon/riot/clock"
	"github.com/jmchacon/riot/irq"
	"github.com/jmchacon/riot/mos6530"
	"github.com/jmchacon/riot/savestate"
	"github.com/jmchacon/riot/script"
	"github.com/jmchacon/riot/trace"
)

var (
	variant  = flag.String("variant", "6532", "Chip to emulate. Either 6530 or 6532")
	clk      = flag.Uint64("clock", 1000000, "Chip clock in Hz")
	rate     = flag.Uint64("rate", 0, "Host scheduler ticks per second. Defaults to the chip clock")
	rom      = flag.String("rom", "", "Path to a 1k ROM image (6530 only). Defaults to all zeros")
	irqOnPB7 = flag.Bool("irq_on_pb7", false, "If true a 6530 mirrors its interrupt onto PB7")
	scr      = flag.String("script", "", "Path to the stimulus script")
	out      = flag.String("out", "", "If set write the trace PNG here")
	scale    = flag.Int("scale", 1, "Integer magnification of the trace PNG")
	limit    = flag.Int("limit", 0, "If positive only keep this many of the most recent cycles")
	load     = flag.String("load", "", "If set resume from chip state saved by -save before running the script")
	save     = flag.String("save", "", "If set write the chip state here when the script finishes")
	debug    = flag.Bool("debug", false, "If true will emit chip state and interrupt changes while running")
)

func main() {
	flag.Parse()
	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}
	if *scr == "" {
		log.Fatalf("-script is required")
	}

	r := *rate
	if r == 0 {
		r = *clk
	}
	q := clock.NewQueue(r)
	def := &mos6530.ChipDef{
		Clock:     *clk,
		Scheduler: q,
		IRQOnPB7:  *irqOnPB7,
		Debug:     *debug,
	}
	switch *variant {
	case "6530":
		def.Variant = mos6530.MIOT
		def.ROM = make([]uint8, mos6530.ROMSize)
		if *rom != "" {
			b, err := os.ReadFile(*rom)
			if err != nil {
				log.Fatalf("Can't load rom: %v from path: %s", err, *rom)
			}
			def.ROM = b
		}
	case "6532":
		def.Variant = mos6530.RIOT
	default:
		log.Fatalf("Unknown variant %q", *variant)
	}

	var runner *script.Runner
	if *debug {
		def.IRQ = irq.LineFunc(func(raised bool) {
			cycle := uint64(0)
			if runner != nil {
				cycle = runner.Cycle()
			}
			log.Printf("%.6d IRQ: %t", cycle, raised)
		})
	}
	c, err := mos6530.Init(def)
	if err != nil {
		log.Fatalf("Can't init chip: %v", err)
	}

	if *load != "" {
		b, err := os.ReadFile(*load)
		if err != nil {
			log.Fatalf("Can't read state: %v", err)
		}
		cycle, st, err := savestate.Decode(b)
		if err != nil {
			log.Fatalf("Can't load state from %s: %v", *load, err)
		}
		q.RunUntil(clock.Domain{Rate: r, Hz: *clk}.Time(cycle))
		if err := c.Restore(st); err != nil {
			log.Fatalf("Can't restore state from %s: %v", *load, err)
		}
	}

	rec := trace.NewRecorder(c, *limit)
	runner, err = script.New(&script.Def{
		Chip:     c,
		Queue:    q,
		Clock:    *clk,
		Recorder: rec,
		Print: func(msg string) {
			log.Print(msg)
		},
	})
	if err != nil {
		log.Fatalf("Can't create script runner: %v", err)
	}
	if _, err := runner.Exec(*scr, nil); err != nil {
		log.Fatalf("Script error: %v", err)
	}
	if *debug {
		log.Print(c.Debug())
	}
	log.Printf("Ran %d cycles", runner.Cycle())

	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("Can't create %s: %v", *out, err)
		}
		if err := png.Encode(f, trace.Render(rec.Samples(), *scale)); err != nil {
			log.Fatalf("Can't encode %s: %v", *out, err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("Can't close %s: %v", *out, err)
		}
	}

	if *save != "" {
		b, err := savestate.Encode(runner.Cycle(), c.Snapshot())
		if err != nil {
			log.Fatalf("Can't marshal state: %v", err)
		}
		if err := os.WriteFile(*save, b, 0644); err != nil {
			log.Fatalf("Can't write state: %v", err)
		}
	}
}

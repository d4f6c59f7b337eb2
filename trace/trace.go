// Package trace records the externally visible state of a 6530/6532 one chip
// cycle at a time and renders it as a timing diagram.
package trace

import (
	"fmt"
	"image"
	"image/color"

	"github.com/jmchacon/riot/io"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Chip is the view of a chip the recorder samples.
type Chip interface {
	// Timer returns the current timer value.
	Timer() uint8
	// Raised returns the interrupt output.
	Raised() bool
	// PortA returns the port A pins.
	PortA() io.PortOut8
	// PortB returns the port B pins.
	PortB() io.PortOut8
}

// Sample is the chip state at one cycle.
type Sample struct {
	Cycle uint64
	Timer uint8
	IRQ   bool
	PA    uint8
	PB    uint8
}

func (s Sample) String() string {
	return fmt.Sprintf("%.6d timer: %.2X irq: %t PA: %.2X PB: %.2X", s.Cycle, s.Timer, s.IRQ, s.PA, s.PB)
}

// Recorder accumulates samples of one chip.
type Recorder struct {
	c       Chip
	limit   int
	samples []Sample
}

// NewRecorder returns a Recorder for c. If limit is positive only the most recent
// limit samples are kept.
func NewRecorder(c Chip, limit int) *Recorder {
	return &Recorder{c: c, limit: limit}
}

// Sample records the chip state and tags it with cycle.
func (r *Recorder) Sample(cycle uint64) Sample {
	s := Sample{
		Cycle: cycle,
		Timer: r.c.Timer(),
		IRQ:   r.c.Raised(),
		PA:    r.c.PortA().Output(),
		PB:    r.c.PortB().Output(),
	}
	r.samples = append(r.samples, s)
	// Trim in batches once twice the limit has built up.
	if r.limit > 0 && len(r.samples) >= 2*r.limit {
		n := copy(r.samples, r.samples[len(r.samples)-r.limit:])
		r.samples = r.samples[:n]
	}
	return s
}

// Samples returns everything recorded so far (or the most recent limit samples),
// oldest first.
func (r *Recorder) Samples() []Sample {
	if r.limit > 0 && len(r.samples) > r.limit {
		return r.samples[len(r.samples)-r.limit:]
	}
	return r.samples
}

// Reset drops all recorded samples.
func (r *Recorder) Reset() {
	r.samples = nil
}

const (
	// LabelWidth is the width in pixels of the signal name column.
	LabelWidth = 4*7 + 2
	// LaneHeight is the height of each digital signal.
	LaneHeight = 16
	// TimerHeight is the height of the timer value plot.
	TimerHeight = 64
)

var (
	background = color.NRGBA{0x00, 0x00, 0x00, 0xFF}
	separator  = color.NRGBA{0x30, 0x30, 0x30, 0xFF}
	labelColor = color.NRGBA{0xC0, 0xC0, 0xC0, 0xFF}
	// SignalColor draws port pins and the timer.
	SignalColor = color.NRGBA{0x00, 0xE0, 0x00, 0xFF}
	// IRQColor draws the interrupt line.
	IRQColor = color.NRGBA{0xFF, 0x40, 0x40, 0xFF}
)

type lane struct {
	name  string
	color color.NRGBA
	level func(Sample) bool
}

// lanes are drawn top to bottom in this order with the timer plot under them.
var lanes = buildLanes()

func buildLanes() []lane {
	l := []lane{{"IRQ", IRQColor, func(s Sample) bool { return s.IRQ }}}
	for i := 7; i >= 0; i-- {
		bit := uint8(1 << i)
		l = append(l, lane{fmt.Sprintf("PA%d", i), SignalColor, func(s Sample) bool { return s.PA&bit != 0 }})
	}
	for i := 7; i >= 0; i-- {
		bit := uint8(1 << i)
		l = append(l, lane{fmt.Sprintf("PB%d", i), SignalColor, func(s Sample) bool { return s.PB&bit != 0 }})
	}
	return l
}

// LaneY returns the rows a digital lane draws its high and low levels on.
// Lane 0 is IRQ, 1-8 are PA7-PA0 and 9-16 are PB7-PB0.
func LaneY(lane int) (high, low int) {
	top := lane * LaneHeight
	return top + 2, top + LaneHeight - 3
}

// TimerY returns the row the timer plot uses for val.
func TimerY(val uint8) int {
	return len(lanes)*LaneHeight + TimerHeight - 1 - int(val)/4
}

// Render draws samples as a timing diagram one pixel column per sample. The
// result is magnified by scale using nearest neighbour scaling if scale is
// more than 1.
func Render(samples []Sample, scale int) *image.NRGBA {
	w := LabelWidth + len(samples)
	h := len(lanes)*LaneHeight + TimerHeight
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: basicfont.Face7x13,
	}
	for i, l := range lanes {
		top := i * LaneHeight
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, top+LaneHeight-1, separator)
		}
		d.Dot = fixed.P(1, top+LaneHeight-4)
		d.DrawString(l.name)

		hi, lo := LaneY(i)
		prev := -1
		for j, s := range samples {
			y := lo
			if l.level(s) {
				y = hi
			}
			x := LabelWidth + j
			img.SetNRGBA(x, y, l.color)
			// Transitions get a vertical edge.
			if prev != -1 && prev != y {
				for v := hi; v <= lo; v++ {
					img.SetNRGBA(x, v, l.color)
				}
			}
			prev = y
		}
	}
	d.Dot = fixed.P(1, len(lanes)*LaneHeight+TimerHeight/2+4)
	d.DrawString("TMR")
	for j, s := range samples {
		img.SetNRGBA(LabelWidth+j, TimerY(s.Timer), SignalColor)
	}

	if scale <= 1 {
		return img
	}
	out := image.NewNRGBA(image.Rect(0, 0, w*scale, h*scale))
	draw.NearestNeighbor.Scale(out, out.Bounds(), img, img.Bounds(), draw.Src, nil)
	return out
}

package trace

import (
	"flag"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-test/deep"
	"github.com/jmchacon/riot/io"
)

var testImageDir = flag.String("test_image_dir", "", "If set will generate images from tests to this directory")

// fake is a chip whose state the test steps by hand.
type fake struct {
	timer uint8
	irq   bool
	pa    uint8
	pb    uint8
}

func (f *fake) Timer() uint8 { return f.timer }
func (f *fake) Raised() bool { return f.irq }

func (f *fake) PortA() io.PortOut8 {
	return outFunc(func() uint8 { return f.pa })
}

func (f *fake) PortB() io.PortOut8 {
	return outFunc(func() uint8 { return f.pb })
}

type outFunc func() uint8

func (o outFunc) Output() uint8 { return o() }

func record(limit int) (*Recorder, []Sample) {
	f := &fake{timer: 0x03, pa: 0x80, pb: 0x0F}
	r := NewRecorder(f, limit)
	var want []Sample
	for i := uint64(0); i < 6; i++ {
		want = append(want, r.Sample(i))
		// Count down to zero and then spin while toggling PA7.
		f.timer--
		if f.timer == 0x00 {
			f.irq = true
		}
		f.pa ^= 0x80
	}
	return r, want
}

func TestRecorder(t *testing.T) {
	r, _ := record(0)
	want := []Sample{
		{Cycle: 0, Timer: 0x03, IRQ: false, PA: 0x80, PB: 0x0F},
		{Cycle: 1, Timer: 0x02, IRQ: false, PA: 0x00, PB: 0x0F},
		{Cycle: 2, Timer: 0x01, IRQ: false, PA: 0x80, PB: 0x0F},
		{Cycle: 3, Timer: 0x00, IRQ: true, PA: 0x00, PB: 0x0F},
		{Cycle: 4, Timer: 0xFF, IRQ: true, PA: 0x80, PB: 0x0F},
		{Cycle: 5, Timer: 0xFE, IRQ: true, PA: 0x00, PB: 0x0F},
	}
	if diff := deep.Equal(r.Samples(), want); diff != nil {
		t.Errorf("Bad samples: %v\n%s", diff, spew.Sdump(r.Samples()))
	}

	l, all := record(2)
	if diff := deep.Equal(l.Samples(), all[4:]); diff != nil {
		t.Errorf("Limit not honored: %v", diff)
	}
	l.Reset()
	if got := len(l.Samples()); got != 0 {
		t.Errorf("Reset left %d samples", got)
	}
}

func TestRecorderLimit(t *testing.T) {
	const limit = 7
	f := &fake{}
	r := NewRecorder(f, limit)
	for i := uint64(0); i < 1000; i++ {
		f.timer = uint8(i)
		r.Sample(i)
		s := r.Samples()
		want := int(i) + 1
		if want > limit {
			want = limit
		}
		if got := len(s); got != want {
			t.Fatalf("After %d samples kept %d and want %d", i+1, got, want)
		}
		for j, sm := range s {
			if got, want := sm.Cycle, i+1-uint64(len(s))+uint64(j); got != want {
				t.Fatalf("After %d samples entry %d is cycle %d and want %d", i+1, j, got, want)
			}
		}
		if got := len(r.samples); got >= 2*limit {
			t.Fatalf("After %d samples holding %d entries", i+1, got)
		}
	}
}

func TestRender(t *testing.T) {
	r, _ := record(0)
	s := r.Samples()
	img := Render(s, 1)
	if *testImageDir != "" {
		writePNG(t, img, "trace.png")
	}
	if got, want := img.Bounds(), image.Rect(0, 0, LabelWidth+len(s), 17*LaneHeight+TimerHeight); got != want {
		t.Fatalf("Bad bounds. Got %v and want %v", got, want)
	}
	for j, sm := range s {
		x := LabelWidth + j
		// IRQ is lane 0.
		hi, lo := LaneY(0)
		y, other := lo, hi
		if sm.IRQ {
			y, other = hi, lo
		}
		if got, want := img.NRGBAAt(x, y), IRQColor; got != want {
			t.Errorf("IRQ at %d got %v and want %v", j, got, want)
		}
		// Off level is only set on a transition column.
		if j != 3 {
			if got, want := img.NRGBAAt(x, other), background; got != want {
				t.Errorf("IRQ off level at %d got %v and want %v", j, got, want)
			}
		}
		// PA7 is lane 1 and toggles every sample so every column after the first is an edge.
		hi, lo = LaneY(1)
		y = lo
		if sm.PA&0x80 != 0 {
			y = hi
		}
		if got, want := img.NRGBAAt(x, y), SignalColor; got != want {
			t.Errorf("PA7 at %d got %v and want %v", j, got, want)
		}
		if got, want := img.NRGBAAt(x, TimerY(sm.Timer)), SignalColor; got != want {
			t.Errorf("Timer at %d got %v and want %v", j, got, want)
		}
	}
	// PB0 (lane 16) is high the whole way.
	hi, lo := LaneY(16)
	for j := range s {
		if got, want := img.NRGBAAt(LabelWidth+j, hi), SignalColor; got != want {
			t.Errorf("PB0 at %d got %v and want %v", j, got, want)
		}
		if got, want := img.NRGBAAt(LabelWidth+j, lo), background; got != want {
			t.Errorf("PB0 low level at %d got %v and want %v", j, got, want)
		}
	}

	big := Render(s, 3)
	if got, want := big.Bounds().Size(), img.Bounds().Size().Mul(3); got != want {
		t.Fatalf("Bad scaled size. Got %v and want %v", got, want)
	}
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			if got, want := big.NRGBAAt(x*3+1, y*3+1), img.NRGBAAt(x, y); got != want {
				t.Fatalf("Scaled pixel %d,%d got %v and want %v", x, y, got, want)
			}
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	img := Render(nil, 1)
	if got, want := img.Bounds().Dx(), LabelWidth; got != want {
		t.Errorf("Empty width got %d and want %d", got, want)
	}
	// Labels still get drawn.
	lit := false
	for y := 0; y < LaneHeight; y++ {
		for x := 0; x < LabelWidth; x++ {
			if img.NRGBAAt(x, y) == labelColor {
				lit = true
			}
		}
	}
	if !lit {
		t.Error("No label drawn for IRQ")
	}
}

func writePNG(t *testing.T, img image.Image, name string) {
	t.Helper()
	o, err := os.Create(filepath.Join(*testImageDir, name))
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	defer o.Close()
	if err := png.Encode(o, img); err != nil {
		t.Fatalf("%s: %v", name, err)
	}
}

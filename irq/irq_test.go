package irq

import "testing"

type level bool

func (l *level) Raised() bool {
	return bool(*l)
}

func TestWired(t *testing.T) {
	var a, b level
	w := &Wired{}
	if w.Raised() {
		t.Error("Empty line raised")
	}
	w.Install(&a)
	w.Install(&b)
	tests := []struct {
		a, b bool
		want bool
	}{
		{false, false, false},
		{true, false, true},
		{false, true, true},
		{true, true, true},
	}
	for _, test := range tests {
		a, b = level(test.a), level(test.b)
		if got, want := w.Raised(), test.want; got != want {
			t.Errorf("%t|%t got %t and want %t", test.a, test.b, got, want)
		}
	}
}

func TestLineFunc(t *testing.T) {
	var got []bool
	var l Line = LineFunc(func(raised bool) {
		got = append(got, raised)
	})
	l.Set(true)
	l.Set(false)
	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("Bad line history: %v", got)
	}
}

package clock

import (
	"math"
	"testing"

	"github.com/go-test/deep"
)

func TestQueueOrder(t *testing.T) {
	q := NewQueue(1000000)
	var got []string
	rec := func(s string) func() {
		return func() {
			got = append(got, s)
		}
	}
	q.Schedule(30, rec("c"))
	q.Schedule(10, rec("a"))
	q.Schedule(20, rec("b1"))
	q.Schedule(20, rec("b2"))
	if got, want := q.Pending(), 4; got != want {
		t.Fatalf("Bad pending count. Got %d and want %d", got, want)
	}
	if at, ok := q.Next(); !ok || at != 10 {
		t.Errorf("Bad next event. Got %d/%t and want 10/true", at, ok)
	}
	q.Advance(19)
	if diff := deep.Equal(got, []string{"a"}); diff != nil {
		t.Errorf("Wrong events after 19 ticks: %v", diff)
	}
	q.Advance(11)
	if diff := deep.Equal(got, []string{"a", "b1", "b2", "c"}); diff != nil {
		t.Errorf("Wrong events after 30 ticks: %v", diff)
	}
	if got, want := q.Now(), Time(30); got != want {
		t.Errorf("Bad time. Got %d and want %d", got, want)
	}
	if _, ok := q.Next(); ok {
		t.Error("Events still pending after running them all")
	}
}

func TestQueueNowDuringCallback(t *testing.T) {
	q := NewQueue(1)
	var seen []Time
	q.Schedule(5, func() {
		seen = append(seen, q.Now())
		// Scheduled from inside a callback but still inside the window.
		q.Schedule(q.Now()+2, func() {
			seen = append(seen, q.Now())
		})
	})
	q.RunUntil(100)
	if diff := deep.Equal(seen, []Time{5, 7}); diff != nil {
		t.Errorf("Bad callback times: %v", diff)
	}
	if got, want := q.Now(), Time(100); got != want {
		t.Errorf("Bad time. Got %d and want %d", got, want)
	}
}

func TestQueueCancel(t *testing.T) {
	q := NewQueue(1)
	fired := 0
	inc := func() {
		fired++
	}
	a := q.Schedule(10, inc)
	q.Schedule(11, inc)
	c := q.Schedule(12, inc)
	a.Cancel()
	// Cancel twice is fine.
	a.Cancel()
	q.Advance(11)
	if got, want := fired, 1; got != want {
		t.Errorf("Bad fire count. Got %d and want %d", got, want)
	}
	q.Advance(1)
	c.Cancel()
	if got, want := fired, 2; got != want {
		t.Errorf("Bad fire count after cancel of fired event. Got %d and want %d", got, want)
	}
	// Past times fire on the next run.
	q.Schedule(0, inc)
	q.Advance(0)
	if got, want := fired, 3; got != want {
		t.Errorf("Past event didn't fire. Got %d and want %d", got, want)
	}
}

func TestDomain(t *testing.T) {
	tests := []struct {
		name string
		d    Domain
	}{
		{
			name: "same clock",
			d:    Domain{Rate: 1000000, Hz: 1000000},
		},
		{
			name: "divide by 8",
			d:    Domain{Rate: 8000000, Hz: 1000000},
		},
		{
			name: "divide by 3",
			d:    Domain{Rate: 3579545, Hz: 1193182},
		},
		{
			name: "attoseconds",
			d:    Domain{Rate: 1000000000000000000, Hz: 1000000},
		},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			for c := uint64(0); c < 5000; c++ {
				at := test.d.Time(c)
				if got, want := test.d.Cycles(at), c; got != want {
					t.Fatalf("%s: cycle %d: round trip got %d", test.name, want, got)
				}
				if at > 0 {
					if got := test.d.Cycles(at - 1); got >= c {
						t.Fatalf("%s: cycle %d: reached at %d but tick before already reports %d", test.name, c, at, got)
					}
				}
			}
		})
	}
	d := Domain{Rate: math.MaxUint64, Hz: 2}
	if got, want := d.Time(math.MaxUint64), Time(math.MaxUint64); got != want {
		t.Errorf("Overflow didn't saturate. Got %d and want %d", got, want)
	}
}

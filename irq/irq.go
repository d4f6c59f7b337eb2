// Package irq defines the basic interfaces for working
// with a 6502 family interrupt. A receiver of interrupts (IRQ/NMI)
// will implement this interface to allow other components which generate
// them to easily raise state without cross coupling component logic.
// NOTE: Even though chips make a distinction between level and edge type interrupts
//       the interfaces here don't matter and assume implementors simply account for
//       this in clock cycle management.
package irq

type Sender interface {
	// Raised indicates whether the interrupt is currently held high.
	Raised() bool
}

type Receiver interface {
	// Install takes the given sender and stores it for later checks in appropriate logic.
	Install(s Sender)
}

// Line is an interrupt output pushed by a sender every time its state changes.
// Several senders may drive lines which the host then combines.
type Line interface {
	// Set is called with true when the interrupt asserts and false when it clears.
	Set(raised bool)
}

// LineFunc adapts a function to Line.
type LineFunc func(bool)

// Set implements Line.
func (f LineFunc) Set(raised bool) {
	f(raised)
}

// Wired is a Receiver which combines every installed Sender the way an open
// collector IRQ line does: it's raised while any sender is raised.
type Wired struct {
	senders []Sender
}

// Install implements Receiver.
func (w *Wired) Install(s Sender) {
	w.senders = append(w.senders, s)
}

// Raised implements Sender.
func (w *Wired) Raised() bool {
	for _, s := range w.senders {
		if s.Raised() {
			return true
		}
	}
	return false
}

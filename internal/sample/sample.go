// internal/sample/sample.go
package sample

// Tracked pins. These are the pins persisted in the log and shown in status.
const (
	PinD4 = 4
	PinD5 = 5
	PinD6 = 6
	PinD7 = 7
)

// TrackedPins lists the tracked pins in record order.
var TrackedPins = [4]int{PinD4, PinD5, PinD6, PinD7}

// Sample is one sparse set of digital pin states captured from a single
// device line. It is immutable: the zero value is an empty sample.
type Sample struct {
	states map[int]int
}

// New builds a Sample from a pin -> state mapping.
// The mapping is copied.
func New(states map[int]int) Sample {
	cp := make(map[int]int, len(states))
	for pin, v := range states {
		cp[pin] = v
	}
	return Sample{states: cp}
}

// Get returns the state of pin and whether the pin was reported.
func (s Sample) Get(pin int) (int, bool) {
	v, ok := s.states[pin]
	return v, ok
}

// Ref returns a pointer to a copy of the pin state, or nil when absent.
func (s Sample) Ref(pin int) *int {
	v, ok := s.states[pin]
	if !ok {
		return nil
	}
	return &v
}

func (s Sample) D4() (int, bool) { return s.Get(PinD4) }
func (s Sample) D5() (int, bool) { return s.Get(PinD5) }
func (s Sample) D6() (int, bool) { return s.Get(PinD6) }
func (s Sample) D7() (int, bool) { return s.Get(PinD7) }

// Len returns the number of reported pins.
func (s Sample) Len() int { return len(s.states) }

// States returns a copy of the underlying mapping.
func (s Sample) States() map[int]int {
	cp := make(map[int]int, len(s.states))
	for pin, v := range s.states {
		cp[pin] = v
	}
	return cp
}

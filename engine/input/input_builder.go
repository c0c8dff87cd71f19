package input

import (
	"github.com/Carmen-Shannon/pixel-world/engine/automata"
	"github.com/Carmen-Shannon/pixel-world/engine/window"
)

// TrackerBuilderOption is a functional option applied to a Tracker during construction.
type TrackerBuilderOption func(*tracker)

// WithElement sets the starting brush element.
func WithElement(e automata.Element) TrackerBuilderOption {
	return func(t *tracker) {
		t.element = e
	}
}

// WithElementKeys replaces the key-to-element bindings.
//
// Parameters:
//   - keys: key codes mapped to elements
//
// Returns:
//   - TrackerBuilderOption: a function that applies the bindings
func WithElementKeys(keys map[uint32]automata.Element) TrackerBuilderOption {
	return func(t *tracker) {
		t.elementKeys = keys
	}
}

// WithButtons sets which mouse buttons draw and erase.
//
// Parameters:
//   - draw: the button that paints while held
//   - erase: the button that pauses the automata while held
//
// Returns:
//   - TrackerBuilderOption: a function that applies the bindings
func WithButtons(draw, erase window.MouseButton) TrackerBuilderOption {
	return func(t *tracker) {
		t.drawButton = draw
		t.eraseButton = erase
	}
}

package projector

// Checkmark is the glyph rendered into selection slots.
const Checkmark = "✔"

// Surface is the derived presentation layer: named text slots filled from
// record state. It preserves first-set order so rendering and tests are
// deterministic.
type Surface struct {
	slots map[string]string
	order []string
}

func NewSurface() *Surface {
	return &Surface{slots: make(map[string]string)}
}

// Set writes a slot. Later writes to the same slot overwrite in place.
func (s *Surface) Set(slot, text string) {
	if _, ok := s.slots[slot]; !ok {
		s.order = append(s.order, slot)
	}
	s.slots[slot] = text
}

// SetCheckmark writes the checkmark glyph or clears the slot.
func (s *Surface) SetCheckmark(slot string, checked bool) {
	if checked {
		s.Set(slot, Checkmark)
	} else {
		s.Set(slot, "")
	}
}

// Get returns a slot's text; unknown slots read as empty.
func (s *Surface) Get(slot string) string {
	return s.slots[slot]
}

// Slots returns slot names in first-set order.
func (s *Surface) Slots() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Map returns a copy of the slot table.
func (s *Surface) Map() map[string]string {
	out := make(map[string]string, len(s.slots))
	for k, v := range s.slots {
		out[k] = v
	}
	return out
}

// Len returns the number of distinct slots written.
func (s *Surface) Len() int {
	return len(s.order)
}

package layout

import "github.com/partylemon/capnproto/descriptor"

// state is the packer's running state for one struct: the data section's
// current word count, the pointer section's current count, and at most
// one free "hole" per sub-word size (spec §4.6).
type state struct {
	holes        map[descriptor.DataSize]uint64
	hasHole      map[descriptor.DataSize]bool
	dataWords    uint64
	pointerCount uint64
}

func newState() *state {
	return &state{
		holes:   make(map[descriptor.DataSize]uint64),
		hasHole: make(map[descriptor.DataSize]bool),
	}
}

func (s *state) hole(size descriptor.DataSize) (uint64, bool) {
	if !s.hasHole[size] {
		return 0, false
	}
	return s.holes[size], true
}

func (s *state) setHole(size descriptor.DataSize, offset uint64) {
	s.holes[size] = offset
	s.hasHole[size] = true
}

func (s *state) clearHole(size descriptor.DataSize) {
	delete(s.holes, size)
	s.hasHole[size] = false
}

func (s *state) hasHoleAt(size descriptor.DataSize, offset uint64) bool {
	o, ok := s.hole(size)
	return ok && o == offset
}

// unionSlot tracks the storage a union's variants currently share: a
// data slot (either sub-word, sized by subSize, or one-or-more whole
// words) and a pointer slot (spec §4.6's UnionPackingState).
type unionSlot struct {
	hasData    bool
	dataWords  uint64 // > 0: word-sized slot of this many words
	subSize    descriptor.DataSize
	dataOffset uint64 // in units of subSize if dataWords == 0, else in words

	hasPointer    bool
	pointerCount  uint64
	pointerOffset uint64
}

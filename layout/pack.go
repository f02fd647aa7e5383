package layout

import "github.com/partylemon/capnproto/descriptor"

// packData allocates size's next free slot in the data section, per
// spec §4.6: Size64 always appends a fresh word; smaller sizes reuse a
// matching hole if one is free, otherwise recursively pack at the next
// larger size and split it, leaving a hole for the remainder.
func packData(size descriptor.DataSize, s *state) uint64 {
	if size == descriptor.Size64 {
		offset := s.dataWords
		s.dataWords++
		return offset
	}
	if offset, ok := s.hole(size); ok {
		consumeHole(size, offset, s)
		return offset
	}
	parent, ok := size.NextLarger()
	if !ok {
		panic("layout: Size64 has no larger parent")
	}
	parentOffset := packData(parent, s)
	ratio := parent.Bits() / size.Bits()
	childOffset := parentOffset * ratio
	s.setHole(size, childOffset+1)
	return childOffset
}

// consumeHole removes or advances the hole at (size, offset) once it has
// been handed out to a field. A Size1 hole advances within its byte and
// clears only once the byte is full; any other size's hole is a single
// free unit, so it simply clears.
func consumeHole(size descriptor.DataSize, offset uint64, s *state) {
	if size == descriptor.Size1 {
		next := offset + 1
		if next%8 == 0 {
			s.clearHole(size)
		} else {
			s.setHole(size, next)
		}
		return
	}
	s.clearHole(size)
}

// packValue places one non-unionized field's value (spec §4.6).
func packValue(sz Size, s *state) descriptor.FieldOffset {
	switch sz.Kind {
	case Void:
		return descriptor.FieldOffset{Kind: descriptor.VoidOffset}
	case Reference:
		idx := s.pointerCount
		s.pointerCount++
		return descriptor.FieldOffset{Kind: descriptor.PointerOffset, PointerIndex: idx}
	case Data:
		idx := packData(sz.DataSize, s)
		return descriptor.FieldOffset{Kind: descriptor.DataOffset, DataSize: sz.DataSize, DataIndex: idx}
	case InlineComposite:
		return packInlineComposite(sz, s)
	default:
		panic("layout: unknown size kind")
	}
}

func packInlineComposite(sz Size, s *state) descriptor.FieldOffset {
	if sz.CompositeData.Kind == descriptor.Words {
		dataOffset := s.dataWords
		s.dataWords += sz.CompositeData.Words
		ptrOffset := s.pointerCount
		s.pointerCount += sz.CompositePointers
		return descriptor.FieldOffset{
			Kind:                   descriptor.InlineCompositeOffset,
			CompositeDataOffset:    dataOffset,
			CompositeDataSize:      sz.CompositeData,
			CompositePointerOffset: ptrOffset,
			CompositePointerSize:   sz.CompositePointers,
		}
	}
	ds := dataSizeOfSection(sz.CompositeData)
	idx := packData(ds, s)
	ptrOffset := s.pointerCount
	s.pointerCount += sz.CompositePointers
	return descriptor.FieldOffset{
		Kind:                   descriptor.InlineCompositeOffset,
		CompositeDataOffset:    idx,
		CompositeDataSize:      sz.CompositeData,
		CompositePointerOffset: ptrOffset,
		CompositePointerSize:   sz.CompositePointers,
	}
}

func dataSizeOfSection(ds descriptor.DataSectionSize) descriptor.DataSize {
	switch ds.Kind {
	case descriptor.Bits1:
		return descriptor.Size1
	case descriptor.Bits8:
		return descriptor.Size8
	case descriptor.Bits16:
		return descriptor.Size16
	case descriptor.Bits32:
		return descriptor.Size32
	default:
		return descriptor.Size64
	}
}

// packUnionizedValue places one variant of a union, sharing storage
// with the union's other already-placed variants via ust (spec §4.6).
func packUnionizedValue(sz Size, ust *unionSlot, s *state) descriptor.FieldOffset {
	switch sz.Kind {
	case Void:
		return descriptor.FieldOffset{Kind: descriptor.VoidOffset}
	case Reference:
		return packUnionizedPointer(1, ust, s)
	case Data:
		idx := packUnionizedData(sz.DataSize, ust, s)
		return descriptor.FieldOffset{Kind: descriptor.DataOffset, DataSize: sz.DataSize, DataIndex: idx}
	case InlineComposite:
		return packUnionizedComposite(sz, ust, s)
	default:
		panic("layout: unknown size kind")
	}
}

func packUnionizedPointer(count uint64, ust *unionSlot, s *state) descriptor.FieldOffset {
	switch {
	case !ust.hasPointer:
		idx := s.pointerCount
		s.pointerCount += count
		ust.hasPointer = true
		ust.pointerCount = count
		ust.pointerOffset = idx
	case s.pointerCount == ust.pointerOffset+ust.pointerCount:
		// Slot sits at the section's tail: grow it in place.
		if count > ust.pointerCount {
			s.pointerCount += count - ust.pointerCount
			ust.pointerCount = count
		}
	case ust.pointerCount < count:
		idx := s.pointerCount
		s.pointerCount += count
		ust.pointerCount = count
		ust.pointerOffset = idx
	}
	return descriptor.FieldOffset{Kind: descriptor.PointerOffset, PointerIndex: ust.pointerOffset}
}

func packUnionizedData(desired descriptor.DataSize, ust *unionSlot, s *state) uint64 {
	if !ust.hasData {
		idx := packData(desired, s)
		ust.hasData = true
		ust.subSize = desired
		ust.dataOffset = idx
		return idx
	}
	if ust.dataWords > 0 {
		if desired == descriptor.Size64 {
			return ust.dataOffset
		}
		ratio := uint64(64) / desired.Bits()
		return ust.dataOffset * ratio
	}
	if ust.subSize.Bits() >= desired.Bits() {
		ratio := ust.subSize.Bits() / desired.Bits()
		return ust.dataOffset * ratio
	}
	if newOffset, ok := tryExpandSubWordDataSlot(ust.subSize, ust.dataOffset, s, desired); ok {
		ust.subSize = desired
		ust.dataOffset = newOffset
		return newOffset
	}
	idx := packData(desired, s)
	ust.subSize = desired
	ust.dataOffset = idx
	return idx
}

func packUnionizedComposite(sz Size, ust *unionSlot, s *state) descriptor.FieldOffset {
	var dataOffset uint64
	if sz.CompositeData.Kind == descriptor.Words && sz.CompositeData.Words >= 1 {
		if ust.hasData && ust.dataWords > 0 && tryExpandUnionizedDataWords(ust, s, sz.CompositeData.Words) {
			dataOffset = ust.dataOffset
		} else {
			dataOffset = s.dataWords
			s.dataWords += sz.CompositeData.Words
			ust.hasData = true
			ust.dataWords = sz.CompositeData.Words
			ust.dataOffset = dataOffset
		}
	} else {
		ds := dataSizeOfSection(sz.CompositeData)
		dataOffset = packUnionizedData(ds, ust, s)
	}
	ptr := packUnionizedPointer(sz.CompositePointers, ust, s)
	return descriptor.FieldOffset{
		Kind:                   descriptor.InlineCompositeOffset,
		CompositeDataOffset:    dataOffset,
		CompositeDataSize:      sz.CompositeData,
		CompositePointerOffset: ptr.PointerIndex,
		CompositePointerSize:   sz.CompositePointers,
	}
}

// tryExpandSubWordDataSlot grows an existing sub-word union data slot up
// to desired by repeatedly coalescing with a free sibling hole of its
// own size, one promotion at a time (spec §4.6). It does not roll back
// holes it has already consumed if a later promotion fails — a slot can
// be left smaller than before but never double-allocated.
func tryExpandSubWordDataSlot(slotSize descriptor.DataSize, slotOffset uint64, s *state, desired descriptor.DataSize) (uint64, bool) {
	if slotSize.Bits() >= desired.Bits() {
		ratio := slotSize.Bits() / desired.Bits()
		return slotOffset * ratio, true
	}
	next, ok := slotSize.NextLarger()
	if !ok {
		return 0, false
	}
	ratio := next.Bits() / slotSize.Bits()
	if slotOffset%ratio != 0 {
		return 0, false
	}
	if !s.hasHoleAt(slotSize, slotOffset+1) {
		return 0, false
	}
	s.clearHole(slotSize)
	return tryExpandSubWordDataSlot(next, slotOffset/ratio, s, desired)
}

// tryExpandUnionizedDataWords grows an existing whole-word union data
// slot in place when it sits at the struct's data-section tail.
func tryExpandUnionizedDataWords(ust *unionSlot, s *state, desiredWords uint64) bool {
	if ust.dataWords >= desiredWords {
		return true
	}
	if ust.dataOffset+ust.dataWords != s.dataWords {
		return false
	}
	s.dataWords += desiredWords - ust.dataWords
	ust.dataWords = desiredWords
	return true
}

// stripHolesFromFirstWord shrinks a single-word data section down to the
// smallest DataSectionSize that still holds every placed field, walking
// from Size64 down while a hole of the next smaller size sits at offset
// 1 (spec §4.6).
func stripHolesFromFirstWord(s *state) descriptor.DataSectionSize {
	size := descriptor.Size64
	for {
		smaller, ok := size.NextSmaller()
		if !ok {
			break
		}
		if !s.hasHoleAt(smaller, 1) {
			break
		}
		size = smaller
	}
	switch size {
	case descriptor.Size64:
		return descriptor.DataSectionSize{Kind: descriptor.Words, Words: 1}
	case descriptor.Size32:
		return descriptor.DataSectionSize{Kind: descriptor.Bits32}
	case descriptor.Size16:
		return descriptor.DataSectionSize{Kind: descriptor.Bits16}
	case descriptor.Size8:
		return descriptor.DataSectionSize{Kind: descriptor.Bits8}
	default:
		return descriptor.DataSectionSize{Kind: descriptor.Bits1}
	}
}

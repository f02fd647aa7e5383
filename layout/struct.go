package layout

import (
	"sort"

	"github.com/partylemon/capnproto/descriptor"
)

// Field is a struct member not belonging to any union.
type Field struct {
	Number uint16
	Size   Size
}

// UnionMember is one variant of a Union, identified by its own
// declaration number.
type UnionMember struct {
	Number uint16
	Size   Size
}

// Union is a struct's discriminated union: its own declaration number
// (used both for ordering and as its Size16 tag's identity) plus its
// member fields.
type Union struct {
	Number  uint16
	Members []UnionMember
}

// Entry is one packable item at struct scope: exactly one of Field or
// Union is set. Entries are packed in Number order (spec §4.6's
// "Ordering"), not declaration order.
type Entry struct {
	Number uint16
	Field  *Field
	Union  *Union
}

// Result is the packer's output: the struct's overall section sizes and
// per-field offsets, plus each union's own tag offset keyed by the
// union's declaration number.
type Result struct {
	Layout    descriptor.StructLayout
	UnionTags map[uint16]descriptor.FieldOffset
}

// PackStruct packs entries in declaration-number order, sharing storage
// across each union's variants, and returns the resulting layout (spec
// §4.6).
func PackStruct(entries []Entry) Result {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	s := newState()
	fields := make(map[uint16]descriptor.FieldOffset)
	tags := make(map[uint16]descriptor.FieldOffset)

	for _, e := range sorted {
		switch {
		case e.Field != nil:
			fields[e.Field.Number] = packValue(e.Field.Size, s)
		case e.Union != nil:
			tagOffset := packData(descriptor.Size16, s)
			tags[e.Union.Number] = descriptor.FieldOffset{Kind: descriptor.DataOffset, DataSize: descriptor.Size16, DataIndex: tagOffset}

			members := make([]UnionMember, len(e.Union.Members))
			copy(members, e.Union.Members)
			sort.SliceStable(members, func(i, j int) bool { return members[i].Number < members[j].Number })

			ust := &unionSlot{}
			for _, m := range members {
				fields[m.Number] = packUnionizedValue(m.Size, ust, s)
			}
		}
	}

	var dataSize descriptor.DataSectionSize
	if s.dataWords == 1 {
		dataSize = stripHolesFromFirstWord(s)
	} else {
		dataSize = descriptor.DataSectionSize{Kind: descriptor.Words, Words: s.dataWords}
	}

	return Result{
		Layout: descriptor.StructLayout{
			DataSize:        dataSize,
			PointerCount:    uint32(s.pointerCount),
			FieldPackingMap: fields,
		},
		UnionTags: tags,
	}
}

// legalFixedDataBits reports whether n is a legal `fixed(...)` data-bits
// request: 0, 1, 8, 16, 32, or a multiple of 64 (spec §4.6).
func legalFixedDataBits(n uint32) bool {
	switch n {
	case 0, 1, 8, 16, 32:
		return true
	default:
		return n%64 == 0
	}
}

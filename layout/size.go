// Package layout implements the bit-packed struct layout algorithm
// (spec.md §4.6): classifying each field's storage requirement, packing
// data and pointer sections in declaration-number order, sharing storage
// across a union's variants, and enforcing a struct's declared
// fixed-width request.
package layout

import "github.com/partylemon/capnproto/descriptor"

// Kind classifies how a field's value occupies struct storage.
type Kind int

const (
	Void Kind = iota
	Data
	Reference
	InlineComposite
)

// Size is a field's storage requirement, derived from its resolved type.
type Size struct {
	Kind Kind

	// Data
	DataSize descriptor.DataSize

	// InlineComposite
	CompositeData     descriptor.DataSectionSize
	CompositePointers uint64
}

// SizeOf classifies t's storage requirement (spec §4.6: "Void ->
// SizeVoid; primitives -> SizeData(size); references (text, data,
// lists, non-inline structs, interfaces) -> SizeReference; inline
// struct/inline list -> SizeInlineComposite(dataSectionSize,
// pointerCount)").
func SizeOf(t descriptor.Type) Size {
	switch t.Kind {
	case descriptor.TPrimitive:
		switch t.Primitive {
		case descriptor.Void:
			return Size{Kind: Void}
		case descriptor.Text, descriptor.Data:
			return Size{Kind: Reference}
		default:
			return Size{Kind: Data, DataSize: primitiveDataSize(t.Primitive)}
		}
	case descriptor.TEnum:
		return Size{Kind: Data, DataSize: descriptor.Size16}
	case descriptor.TStruct, descriptor.TInterface, descriptor.TList:
		return Size{Kind: Reference}
	case descriptor.TInlineStruct:
		l := t.InlineStruct.Layout()
		return Size{Kind: InlineComposite, CompositeData: l.DataSize, CompositePointers: uint64(l.PointerCount)}
	case descriptor.TInlineList:
		elem := SizeOf(*t.Elem)
		return inlineListSize(elem, t.Size)
	default:
		return Size{Kind: Void}
	}
}

func primitiveDataSize(p descriptor.PrimitiveKind) descriptor.DataSize {
	switch p {
	case descriptor.Bool:
		return descriptor.Size1
	case descriptor.Int8, descriptor.UInt8:
		return descriptor.Size8
	case descriptor.Int16, descriptor.UInt16:
		return descriptor.Size16
	case descriptor.Int32, descriptor.UInt32, descriptor.Float32:
		return descriptor.Size32
	default: // Int64, UInt64, Float64
		return descriptor.Size64
	}
}

// inlineListSize folds an InlineList's per-element storage and count
// into the single composite blob its declaring field occupies. The spec
// leaves an InlineList's exact internal packing unspecified beyond its
// SizeInlineComposite classification; here each element's data bits and
// pointer count are multiplied by the declared count; the data bits take
// the smallest of 1, 8, 16 or 32 bits that holds them, and are rounded
// up to whole words above 32 bits.
func inlineListSize(elem Size, count uint64) Size {
	var elemDataBits uint64
	var elemPointers uint64
	switch elem.Kind {
	case Void:
	case Data:
		elemDataBits = elem.DataSize.Bits()
	case Reference:
		elemPointers = 1
	case InlineComposite:
		elemDataBits = elem.CompositeData.Bits()
		elemPointers = elem.CompositePointers
	}

	totalBits := elemDataBits * count
	totalPointers := elemPointers * count

	var ds descriptor.DataSectionSize
	switch {
	case totalBits <= 1:
		ds = descriptor.DataSectionSize{Kind: descriptor.Bits1}
	case totalBits <= 8:
		ds = descriptor.DataSectionSize{Kind: descriptor.Bits8}
	case totalBits <= 16:
		ds = descriptor.DataSectionSize{Kind: descriptor.Bits16}
	case totalBits <= 32:
		ds = descriptor.DataSectionSize{Kind: descriptor.Bits32}
	default:
		words := (totalBits + 63) / 64
		ds = descriptor.DataSectionSize{Kind: descriptor.Words, Words: words}
	}

	return Size{Kind: InlineComposite, CompositeData: ds, CompositePointers: totalPointers}
}

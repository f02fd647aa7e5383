package layout

import (
	"github.com/partylemon/capnproto/ast"
	"github.com/partylemon/capnproto/descriptor"
	"github.com/partylemon/capnproto/diag"
)

// EnforceFixed validates a struct's actual packed layout against its
// declared `fixed(dataBits, pointerCount)` request (spec §4.6). On
// success it returns the requested section sizes (so downstream code
// generators see the promised width, not just what happened to be
// used). On a violation it returns Failed; per spec's open question
// (§9), the caller is expected to recover with the actual, over-budget
// layout via diag.Recover so compilation continues regardless.
func EnforceFixed(pos ast.Pos, fixed descriptor.FixedSize, actual descriptor.StructLayout) diag.Outcome[descriptor.StructLayout] {
	if !legalFixedDataBits(fixed.DataBits) {
		return diag.Failed[descriptor.StructLayout](diag.New(pos, "fixed data size must be 0, 1, 8, 16, 32, or a multiple of 64 bits, found %d", fixed.DataBits))
	}

	var errs diag.List
	if actual.DataSize.Bits() > uint64(fixed.DataBits) {
		errs = append(errs, diag.New(pos, "struct's data section (%d bits) exceeds its fixed size (%d bits)", actual.DataSize.Bits(), fixed.DataBits))
	}
	if actual.PointerCount > fixed.PointerCount {
		errs = append(errs, diag.New(pos, "struct's pointer section (%d) exceeds its fixed size (%d)", actual.PointerCount, fixed.PointerCount))
	}
	if len(errs) > 0 {
		return diag.FailedList[descriptor.StructLayout](errs)
	}

	return diag.Active(descriptor.StructLayout{
		DataSize:        dataSectionSizeFromBits(fixed.DataBits),
		PointerCount:    fixed.PointerCount,
		FieldPackingMap: actual.FieldPackingMap,
	})
}

func dataSectionSizeFromBits(bits uint32) descriptor.DataSectionSize {
	switch {
	case bits == 1:
		return descriptor.DataSectionSize{Kind: descriptor.Bits1}
	case bits == 8:
		return descriptor.DataSectionSize{Kind: descriptor.Bits8}
	case bits == 16:
		return descriptor.DataSectionSize{Kind: descriptor.Bits16}
	case bits == 32:
		return descriptor.DataSectionSize{Kind: descriptor.Bits32}
	default:
		return descriptor.DataSectionSize{Kind: descriptor.Words, Words: uint64(bits) / 64}
	}
}

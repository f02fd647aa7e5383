package types

import (
	"math"
	"sort"

	"github.com/partylemon/capnproto/ast"
	"github.com/partylemon/capnproto/descriptor"
	"github.com/partylemon/capnproto/diag"
)

// CompileValue coerces a literal AST value into a typed descriptor.Value
// for the given expected type (spec §4.3). pos is the literal's own
// position, used for diagnostics about its shape regardless of which
// sub-node within it actually mismatched.
func CompileValue(pos ast.Pos, expected descriptor.Type, v ast.Value) diag.Outcome[descriptor.Value] {
	switch expected.Kind {
	case descriptor.TPrimitive:
		return compilePrimitive(pos, expected.Primitive, v)
	case descriptor.TEnum:
		return compileEnum(pos, expected.Enum, v)
	case descriptor.TStruct, descriptor.TInlineStruct:
		return compileStruct(pos, structOf(expected), v)
	case descriptor.TList:
		return compileList(pos, *expected.Elem, v)
	case descriptor.TInlineList:
		return compileInlineList(pos, *expected.Elem, expected.Size, v)
	case descriptor.TInterface:
		return diag.Failed[descriptor.Value](diag.New(pos, "interfaces have no default values"))
	default:
		return diag.Failed[descriptor.Value](diag.New(pos, "unsupported type %s", expected))
	}
}

func structOf(t descriptor.Type) *descriptor.StructDesc {
	if t.Kind == descriptor.TInlineStruct {
		return t.InlineStruct
	}
	return t.Struct
}

func compilePrimitive(pos ast.Pos, k descriptor.PrimitiveKind, v ast.Value) diag.Outcome[descriptor.Value] {
	if k == descriptor.Void {
		if _, ok := v.(ast.VoidLit); ok {
			return diag.Active(descriptor.Value{Kind: descriptor.VVoid})
		}
		return diag.Failed[descriptor.Value](diag.New(v.ValuePos(), "void fields cannot have values"))
	}
	switch k {
	case descriptor.Bool:
		b, ok := v.(ast.BoolLit)
		if !ok {
			return diag.Failed[descriptor.Value](diag.Expected(pos, "boolean"))
		}
		return diag.Active(descriptor.Value{Kind: descriptor.VBool, Bool: b.Val})
	case descriptor.Int8, descriptor.Int16, descriptor.Int32, descriptor.Int64:
		i, ok := v.(ast.IntLit)
		if !ok {
			return diag.Failed[descriptor.Value](diag.Expected(pos, "integer"))
		}
		lo, hi := signedRange(k)
		if i.Val < lo || i.Val > hi {
			return diag.Failed[descriptor.Value](diag.New(i.Pos, "integer %d out of range for %s", i.Val, k))
		}
		return diag.Active(descriptor.Value{Kind: descriptor.VInt, Int: i.Val})
	case descriptor.UInt8, descriptor.UInt16, descriptor.UInt32, descriptor.UInt64:
		i, ok := v.(ast.IntLit)
		if !ok {
			return diag.Failed[descriptor.Value](diag.Expected(pos, "integer"))
		}
		if i.Val < 0 {
			return diag.Failed[descriptor.Value](diag.New(i.Pos, "integer %d out of range for %s", i.Val, k))
		}
		max := unsignedMax(k)
		if max != 0 && uint64(i.Val) > max {
			return diag.Failed[descriptor.Value](diag.New(i.Pos, "integer %d out of range for %s", i.Val, k))
		}
		return diag.Active(descriptor.Value{Kind: descriptor.VUInt, UInt: uint64(i.Val)})
	case descriptor.Float32, descriptor.Float64:
		return compileFloat(pos, v)
	case descriptor.Text:
		t, ok := v.(ast.TextLit)
		if !ok {
			return diag.Failed[descriptor.Value](diag.Expected(pos, "string"))
		}
		return diag.Active(descriptor.Value{Kind: descriptor.VText, Text: t.Val})
	case descriptor.Data:
		t, ok := v.(ast.TextLit)
		if !ok {
			return diag.Failed[descriptor.Value](diag.Expected(pos, "string"))
		}
		b := make([]byte, len(t.Val))
		for i := 0; i < len(t.Val); i++ {
			b[i] = t.Val[i]
		}
		return diag.Active(descriptor.Value{Kind: descriptor.VData, Data: b})
	default:
		return diag.Failed[descriptor.Value](diag.New(pos, "unsupported primitive type"))
	}
}

func compileFloat(pos ast.Pos, v ast.Value) diag.Outcome[descriptor.Value] {
	switch f := v.(type) {
	case ast.FloatLit:
		val := f.Val
		switch {
		case f.IsInf:
			val = math.Inf(1)
		case f.IsNaN:
			val = math.NaN()
		}
		if f.Neg {
			val = -val
		}
		return diag.Active(descriptor.Value{Kind: descriptor.VFloat, Float: val})
	case ast.IntLit:
		return diag.Active(descriptor.Value{Kind: descriptor.VFloat, Float: float64(f.Val)})
	case ast.IdentLit:
		switch f.Val {
		case "inf":
			return diag.Active(descriptor.Value{Kind: descriptor.VFloat, Float: math.Inf(1)})
		case "nan":
			return diag.Active(descriptor.Value{Kind: descriptor.VFloat, Float: math.NaN()})
		}
	}
	return diag.Failed[descriptor.Value](diag.Expected(pos, "number"))
}

func signedRange(k descriptor.PrimitiveKind) (int64, int64) {
	switch k {
	case descriptor.Int8:
		return math.MinInt8, math.MaxInt8
	case descriptor.Int16:
		return math.MinInt16, math.MaxInt16
	case descriptor.Int32:
		return math.MinInt32, math.MaxInt32
	default: // Int64
		return math.MinInt64, math.MaxInt64
	}
}

func unsignedMax(k descriptor.PrimitiveKind) uint64 {
	switch k {
	case descriptor.UInt8:
		return math.MaxUint8
	case descriptor.UInt16:
		return math.MaxUint16
	case descriptor.UInt32:
		return math.MaxUint32
	default: // UInt64: int64 literal can never exceed MaxUint64
		return 0
	}
}

func compileEnum(pos ast.Pos, e *descriptor.EnumDesc, v ast.Value) diag.Outcome[descriptor.Value] {
	id, ok := v.(ast.IdentLit)
	if !ok {
		return diag.Failed[descriptor.Value](diag.Expected(pos, "identifier"))
	}
	d, ok := e.Member(id.Val)
	if !ok {
		return diag.Failed[descriptor.Value](diag.New(id.Pos, "enum %q has no enumerant named %q", e.Name(), id.Val))
	}
	ev, ok := d.(*descriptor.EnumerantDesc)
	if !ok {
		return diag.Failed[descriptor.Value](diag.New(id.Pos, "%q is not an enumerant of %q", id.Val, e.Name()))
	}
	return diag.Active(descriptor.Value{Kind: descriptor.VEnum, Enum: ev})
}

// assignedName records one (name, position) occurrence of a field or
// union assignment within a struct literal, for duplicate diagnostics.
type assignedName struct {
	name string
	pos  ast.Pos
}

func compileStruct(pos ast.Pos, s *descriptor.StructDesc, v ast.Value) diag.Outcome[descriptor.Value] {
	rec, ok := v.(ast.RecordLit)
	if !ok {
		return diag.Failed[descriptor.Value](diag.Expected(pos, "parenthesized list of field assignments"))
	}

	fields := map[uint16]descriptor.Value{}
	unions := map[uint16]descriptor.UnionValue{}
	var errs diag.List

	seenNames := map[string][]assignedName{}
	seenUnions := map[uint16][]assignedName{}

	for _, rf := range rec.Fields {
		seenNames[rf.Name] = append(seenNames[rf.Name], assignedName{rf.Name, rf.Pos})

		m, ok := s.Member(rf.Name)
		if !ok {
			errs = append(errs, diag.New(rf.Pos, "struct %q has no field named %q", s.Name(), rf.Name))
			continue
		}
		member, ok := m.(*descriptor.FieldDesc)
		if !ok {
			errs = append(errs, diag.New(rf.Pos, "%q is not a field", rf.Name))
			continue
		}
		val := CompileValue(rf.Value.ValuePos(), member.Type, rf.Value)
		errs = append(errs, val.Errors()...)
		cv, valOk := val.Value()
		if member.Union != nil {
			seenUnions[member.Union.Number] = append(seenUnions[member.Union.Number], assignedName{rf.Name, rf.Pos})
			if valOk {
				unions[member.Union.Number] = descriptor.UnionValue{Field: member, Value: cv}
			}
			continue
		}
		if valOk {
			fields[member.Number] = cv
		}
	}

	// Duplicate field assignments: report once per name with >1 assignment.
	for _, name := range sortedKeys(seenNames) {
		if len(seenNames[name]) > 1 {
			errs = append(errs, diag.New(rec.Pos, "duplicate assignment to field %q", name))
		}
	}
	// Multiple assignments to fields of the same union: report all
	// offending names together at the literal's position (spec §4.3,
	// scenario 5).
	for _, num := range sortedUint16Keys(seenUnions) {
		names := seenUnions[num]
		if len(names) > 1 {
			unionName := ""
			if d, ok := s.Member(names[0].name); ok {
				if f, ok := d.(*descriptor.FieldDesc); ok && f.Union != nil {
					unionName = f.Union.Name()
				}
			}
			var list []string
			for _, n := range names {
				list = append(list, n.name)
			}
			errs = append(errs, diag.New(rec.Pos, "assigns multiple fields belonging to the same union %q: %s", unionName, joinNames(list)))
		}
	}

	return diag.Active(descriptor.Value{
		Kind:   descriptor.VStruct,
		Struct: &descriptor.StructValue{Fields: fields, Unions: unions},
	}, errs...)
}

func compileList(pos ast.Pos, elem descriptor.Type, v ast.Value) diag.Outcome[descriptor.Value] {
	lst, ok := v.(ast.ListLit)
	if !ok {
		return diag.Failed[descriptor.Value](diag.Expected(pos, "bracketed list"))
	}
	var outs []diag.Outcome[descriptor.Value]
	for _, e := range lst.Elems {
		outs = append(outs, CompileValue(e.ValuePos(), elem, e))
	}
	all := diag.DoAll(outs)
	return diag.Map(all, func(vs []descriptor.Value) descriptor.Value {
		return descriptor.Value{Kind: descriptor.VList, List: vs}
	})
}

func compileInlineList(pos ast.Pos, elem descriptor.Type, size uint64, v ast.Value) diag.Outcome[descriptor.Value] {
	lst, ok := v.(ast.ListLit)
	if !ok {
		return diag.Failed[descriptor.Value](diag.Expected(pos, "bracketed list"))
	}
	if uint64(len(lst.Elems)) != size {
		return diag.Failed[descriptor.Value](diag.New(pos, "expected %d elements, found %d", size, len(lst.Elems)))
	}
	var outs []diag.Outcome[descriptor.Value]
	for _, e := range lst.Elems {
		outs = append(outs, CompileValue(e.ValuePos(), elem, e))
	}
	all := diag.DoAll(outs)
	return diag.Map(all, func(vs []descriptor.Value) descriptor.Value {
		return descriptor.Value{Kind: descriptor.VList, List: vs}
	})
}

func sortedKeys(m map[string][]assignedName) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedUint16Keys(m map[uint16][]assignedName) []uint16 {
	keys := make([]uint16, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

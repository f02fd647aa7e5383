package descriptor

import "github.com/partylemon/capnproto/ast"

// PrimitiveKind enumerates the built-in scalar types (spec §4.1).
type PrimitiveKind int

const (
	Void PrimitiveKind = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	Float32
	Float64
	Text
	Data
)

func (k PrimitiveKind) String() string {
	switch k {
	case Void:
		return "Void"
	case Bool:
		return "Bool"
	case Int8:
		return "Int8"
	case Int16:
		return "Int16"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case UInt8:
		return "UInt8"
	case UInt16:
		return "UInt16"
	case UInt32:
		return "UInt32"
	case UInt64:
		return "UInt64"
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	case Text:
		return "Text"
	case Data:
		return "Data"
	default:
		return "?"
	}
}

// BuiltinKind distinguishes the non-primitive reserved names (spec §3.3):
// the generic type constructors List/Inline/InlineList, and the reserved
// `id` annotation name.
type BuiltinKind int

const (
	BuiltinPrimitive BuiltinKind = iota
	BuiltinList
	BuiltinInline
	BuiltinInlineList
	BuiltinId
)

// Builtin is a pseudo-descriptor for a reserved name: it has no position,
// no parent, and never carries annotations or an id of its own.
type Builtin struct {
	Kind      BuiltinKind
	Primitive PrimitiveKind
}

func (b Builtin) Name() string {
	switch b.Kind {
	case BuiltinPrimitive:
		return b.Primitive.String()
	case BuiltinList:
		return "List"
	case BuiltinInline:
		return "Inline"
	case BuiltinInlineList:
		return "InlineList"
	case BuiltinId:
		return "id"
	default:
		return "?"
	}
}

func (Builtin) Pos() ast.Pos              { return ast.Pos{} }
func (Builtin) Parent() Descriptor        { return nil }
func (Builtin) Id() (Id, bool)            { return "", false }
func (Builtin) Annotations() AnnotationMap { return nil }

var _ Descriptor = Builtin{}

// BuiltinTable is the reserved root scope every file implicitly has
// (spec §4.1 / §6.4): primitive types plus List, Inline, InlineList, id.
func BuiltinTable() map[string]Descriptor {
	t := map[string]Descriptor{
		"List":       Builtin{Kind: BuiltinList},
		"Inline":     Builtin{Kind: BuiltinInline},
		"InlineList": Builtin{Kind: BuiltinInlineList},
		"id":         Builtin{Kind: BuiltinId},
	}
	for _, p := range []PrimitiveKind{
		Void, Bool, Int8, Int16, Int32, Int64, UInt8, UInt16, UInt32, UInt64,
		Float32, Float64, Text, Data,
	} {
		t[p.String()] = Builtin{Kind: BuiltinPrimitive, Primitive: p}
	}
	return t
}

package descriptor

// TypeKind tags the resolved form of a type expression (spec §4.2).
type TypeKind int

const (
	TPrimitive TypeKind = iota
	TEnum
	TStruct
	TInterface
	TList
	TInlineStruct
	TInlineList
)

// Type is a fully resolved type expression. Exactly one of the
// kind-specific fields is meaningful, selected by Kind.
type Type struct {
	Kind TypeKind

	Primitive PrimitiveKind
	Enum      *EnumDesc
	Struct    *StructDesc
	Interface *InterfaceDesc

	Elem *Type  // List, InlineList
	Size uint64 // InlineList only

	InlineStruct *StructDesc // InlineStruct only
}

// IsVoid reports whether t is the primitive Void type.
func (t Type) IsVoid() bool {
	return t.Kind == TPrimitive && t.Primitive == Void
}

// String renders a short human-readable name for diagnostics.
func (t Type) String() string {
	switch t.Kind {
	case TPrimitive:
		return t.Primitive.String()
	case TEnum:
		return t.Enum.Name()
	case TStruct:
		return t.Struct.Name()
	case TInterface:
		return t.Interface.Name()
	case TList:
		return "List(" + t.Elem.String() + ")"
	case TInlineStruct:
		return "Inline(" + t.InlineStruct.Name() + ")"
	case TInlineList:
		return "InlineList(" + t.Elem.String() + ", ...)"
	default:
		return "?"
	}
}

package descriptor

// ValueKind tags a compiled literal value (spec §4.3).
type ValueKind int

const (
	VVoid ValueKind = iota
	VBool
	VInt
	VUInt
	VFloat
	VText
	VData
	VEnum
	VStruct
	VList
)

// Value is a fully type-checked literal. Exactly one kind-specific field
// is meaningful, selected by Kind. Integers are split into signed/
// unsigned carriers so a value can round-trip through the full UInt64
// range without a sign bit stealing precision.
type Value struct {
	Kind ValueKind

	Bool  bool
	Int   int64
	UInt  uint64
	Float float64
	Text  string
	Data  []byte
	Enum  *EnumerantDesc
	Struct *StructValue
	List   []Value
}

// UnionValue records which variant of a union a struct literal selected,
// and the compiled value assigned to it.
type UnionValue struct {
	Field *FieldDesc
	Value Value
}

// StructValue is the compiled form of a struct/inline-struct literal:
// direct field assignments keyed by field number, and union variant
// selections keyed by union number (spec §4.3).
type StructValue struct {
	Fields map[uint16]Value
	Unions map[uint16]UnionValue
}

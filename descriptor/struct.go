package descriptor

import "github.com/partylemon/capnproto/ast"

// FixedSize is a struct's `fixed(dataBits, pointerCount)` request
// (spec §4.6).
type FixedSize struct {
	DataBits     uint32
	PointerCount uint32
}

// StructDesc is a compiled struct declaration: the fields and unions it
// owns, plus the layout the packer assigned them (spec §3.3, §3.4).
type StructDesc struct {
	base
	fixed   *FixedSize
	fields  []*FieldDesc
	unions  []*UnionDesc
	nested  []Descriptor
	members map[string]Descriptor
	layout  StructLayout
}

var _ Descriptor = (*StructDesc)(nil)

// NewStructShell allocates a struct descriptor with its name, position
// and parent fixed, so that its fields/unions can be compiled against it
// (taking it as their Parent()) before its own members/layout/id are
// known — the self-referential construction pattern (spec §5, §9).
func NewStructShell(name string, pos ast.Pos, parent Descriptor, fixed *FixedSize) *StructDesc {
	return &StructDesc{base: newBase(name, pos, parent), fixed: fixed}
}

// SetLayout records the packer's output. Must be called before any field
// reads its offset via Layout().
func (s *StructDesc) SetLayout(l StructLayout) { s.layout = l }

// Layout returns the struct's computed data/pointer section sizes and
// per-field offsets. Only meaningful after SetLayout.
func (s *StructDesc) Layout() StructLayout { return s.layout }

// Fixed returns the struct's requested fixed-width spec, if declared.
func (s *StructDesc) Fixed() (*FixedSize, bool) { return s.fixed, s.fixed != nil }

// IsFixedWidth reports whether this struct was declared fixed, which is
// required before it may be used as an Inline/InlineList element
// (spec §4.2).
func (s *StructDesc) IsFixedWidth() bool { return s.fixed != nil }

// FreezeMembers attaches the compiled fields/unions and builds the
// name-keyed member map used by symbol resolution and struct-literal
// field lookup (spec §4.3). Must be called exactly once.
func (s *StructDesc) FreezeMembers(fields []*FieldDesc, unions []*UnionDesc) {
	s.fields = fields
	s.unions = unions
	s.members = make(map[string]Descriptor, len(fields)+len(unions)+len(s.nested))
	for _, n := range s.nested {
		s.members[n.Name()] = n
	}
	for _, f := range fields {
		s.members[f.Name()] = f
	}
	for _, u := range unions {
		s.members[u.Name()] = u
		for _, f := range u.Fields() {
			s.members[f.Name()] = f
		}
	}
}

// SetNested records the struct's nested type/using/const/annotation
// declarations so they are resolvable via Member before FreezeMembers
// runs (nested declarations may be referenced by this struct's own
// field types).
func (s *StructDesc) SetNested(nested []Descriptor) {
	s.nested = nested
	s.members = make(map[string]Descriptor, len(nested))
	for _, n := range nested {
		s.members[n.Name()] = n
	}
}

func (s *StructDesc) Fields() []*FieldDesc  { return s.fields }
func (s *StructDesc) Unions() []*UnionDesc  { return s.unions }
func (s *StructDesc) Nested() []Descriptor  { return s.nested }

// Member looks up a nested declaration, a direct field, a union, or a
// union's member field by name.
func (s *StructDesc) Member(name string) (Descriptor, bool) {
	d, ok := s.members[name]
	return d, ok
}

// UnionDesc is a discriminated union declared inside a struct: a set of
// fields that share storage, tagged by a Size16 discriminant in the
// parent struct's data section (spec §4.6).
type UnionDesc struct {
	base
	Number      uint16
	TagOffset   FieldOffset
	fields      []*FieldDesc
	members     map[string]Descriptor
	discriminants map[uint16]uint16 // field number -> 0-based discriminant
}

var _ Descriptor = (*UnionDesc)(nil)

// NewUnionShell allocates a union descriptor so its member fields can
// take it as their parent before its own fields/discriminants are known.
func NewUnionShell(name string, pos ast.Pos, parent Descriptor, number uint16, tag FieldOffset) *UnionDesc {
	return &UnionDesc{base: newBase(name, pos, parent), Number: number, TagOffset: tag}
}

// FreezeMembers attaches the union's member fields and their assigned
// 0-based discriminants (spec §4.7: "sorting member fields by
// declaration number and assigning 0, 1, 2, …").
func (u *UnionDesc) FreezeMembers(fields []*FieldDesc, discriminants map[uint16]uint16) {
	u.fields = fields
	u.discriminants = discriminants
	u.members = make(map[string]Descriptor, len(fields))
	for _, f := range fields {
		u.members[f.Name()] = f
	}
}

func (u *UnionDesc) Fields() []*FieldDesc { return u.fields }

// Discriminant returns the 0-based discriminant assigned to the variant
// with the given declaration number.
func (u *UnionDesc) Discriminant(fieldNumber uint16) (uint16, bool) {
	d, ok := u.discriminants[fieldNumber]
	return d, ok
}

func (u *UnionDesc) Member(name string) (Descriptor, bool) {
	d, ok := u.members[name]
	return d, ok
}

// FieldDesc is a compiled field: either a direct struct member or a
// variant of exactly one union of that struct (spec §3.3).
type FieldDesc struct {
	base
	Number  uint16
	Type    Type
	Default *Value // nil if absent
	Offset  FieldOffset
	Union   *UnionDesc // non-nil if this field belongs to a union
}

var _ Descriptor = (*FieldDesc)(nil)

// NewField builds a finished field descriptor. Fields have no children,
// so no shell stage is needed; parent is either the owning StructDesc or
// the owning UnionDesc.
func NewField(name string, pos ast.Pos, parent Descriptor, number uint16, typ Type, def *Value, offset FieldOffset, union *UnionDesc, id Id, hasID bool, annots AnnotationMap) *FieldDesc {
	f := &FieldDesc{base: newBase(name, pos, parent), Number: number, Type: typ, Default: def, Offset: offset, Union: union}
	f.Finish(id, hasID, annots)
	return f
}

package descriptor

import "github.com/partylemon/capnproto/ast"

// InterfaceDesc is a compiled interface declaration: an ordered set of
// methods. Interfaces carry no layout of their own (spec §4.3: a value
// of interface type always errors — there is no default/inline storage
// for it, only a pointer reference at the use site).
type InterfaceDesc struct {
	base
	methods []*MethodDesc
	nested  []Descriptor
	members map[string]Descriptor
}

var _ Descriptor = (*InterfaceDesc)(nil)

func NewInterfaceShell(name string, pos ast.Pos, parent Descriptor) *InterfaceDesc {
	return &InterfaceDesc{base: newBase(name, pos, parent)}
}

// SetNested records the interface's nested type/using/const/annotation
// declarations so they are resolvable via Member before FreezeMembers
// runs (methods may reference them in parameter/return types).
func (i *InterfaceDesc) SetNested(nested []Descriptor) {
	i.nested = nested
	i.members = make(map[string]Descriptor, len(nested))
	for _, n := range nested {
		i.members[n.Name()] = n
	}
}

func (i *InterfaceDesc) FreezeMembers(methods []*MethodDesc) {
	i.methods = methods
	if i.members == nil {
		i.members = make(map[string]Descriptor, len(methods))
	}
	for _, m := range methods {
		i.members[m.Name()] = m
	}
}

func (i *InterfaceDesc) Methods() []*MethodDesc { return i.methods }
func (i *InterfaceDesc) Nested() []Descriptor   { return i.nested }

func (i *InterfaceDesc) Member(name string) (Descriptor, bool) {
	d, ok := i.members[name]
	return d, ok
}

// MethodDesc is a compiled interface method: a number, its parameters,
// and an optional return type.
type MethodDesc struct {
	base
	Number     uint16
	params     []*ParamDesc
	ReturnType *Type
}

var _ Descriptor = (*MethodDesc)(nil)

func NewMethodShell(name string, pos ast.Pos, parent Descriptor, number uint16, ret *Type) *MethodDesc {
	return &MethodDesc{base: newBase(name, pos, parent), Number: number, ReturnType: ret}
}

func (m *MethodDesc) FreezeParams(params []*ParamDesc) { m.params = params }
func (m *MethodDesc) Params() []*ParamDesc             { return m.params }

// ParamDesc is one parameter of a method.
type ParamDesc struct {
	base
	Type    Type
	Default *Value
}

var _ Descriptor = (*ParamDesc)(nil)

func NewParam(name string, pos ast.Pos, parent Descriptor, typ Type, def *Value, id Id, hasID bool, annots AnnotationMap) *ParamDesc {
	p := &ParamDesc{base: newBase(name, pos, parent), Type: typ, Default: def}
	p.Finish(id, hasID, annots)
	return p
}

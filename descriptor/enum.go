package descriptor

import "github.com/partylemon/capnproto/ast"

// EnumDesc is a compiled enum declaration: an ordered set of enumerants.
type EnumDesc struct {
	base
	enumerants []*EnumerantDesc
	members    map[string]Descriptor
}

var _ Descriptor = (*EnumDesc)(nil)

func NewEnumShell(name string, pos ast.Pos, parent Descriptor) *EnumDesc {
	return &EnumDesc{base: newBase(name, pos, parent)}
}

func (e *EnumDesc) FreezeMembers(enumerants []*EnumerantDesc) {
	e.enumerants = enumerants
	e.members = make(map[string]Descriptor, len(enumerants))
	for _, v := range enumerants {
		e.members[v.Name()] = v
	}
}

func (e *EnumDesc) Enumerants() []*EnumerantDesc { return e.enumerants }

func (e *EnumDesc) Member(name string) (Descriptor, bool) {
	d, ok := e.members[name]
	return d, ok
}

// EnumerantDesc is one named, numbered value of an enum.
type EnumerantDesc struct {
	base
	Number uint16
}

var _ Descriptor = (*EnumerantDesc)(nil)

func NewEnumerant(name string, pos ast.Pos, parent Descriptor, number uint16, id Id, hasID bool, annots AnnotationMap) *EnumerantDesc {
	v := &EnumerantDesc{base: newBase(name, pos, parent), Number: number}
	v.Finish(id, hasID, annots)
	return v
}

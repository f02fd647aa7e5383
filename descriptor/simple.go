package descriptor

import "github.com/partylemon/capnproto/ast"

// UsingDesc is a transparent alias: lookups through it defer to Target.
type UsingDesc struct {
	base
	Target Descriptor
}

var _ Descriptor = (*UsingDesc)(nil)

// ConstantDesc is a named, typed literal value.
type ConstantDesc struct {
	base
	Type  Type
	Value Value
}

var _ Descriptor = (*ConstantDesc)(nil)

// AnnotationDesc declares a user-defined annotation: its value type and
// the set of declaration kinds it may be applied to.
type AnnotationDesc struct {
	base
	Type    Type
	Targets map[ast.DeclKind]bool
}

var _ Descriptor = (*AnnotationDesc)(nil)

// newBase returns a base for two-phase construction with name/pos/parent
// set up front (needed so children can take a stable parent pointer
// before annotations/id are known); Finish is called once the
// declaration is fully compiled.
func newBase(name string, pos ast.Pos, parent Descriptor) base {
	return base{name: name, pos: pos, parent: parent}
}

// Finish attaches the id and annotation map computed after children
// (and this declaration's own annotations) have been compiled.
func (b *base) Finish(id Id, hasID bool, annots AnnotationMap) {
	b.id = id
	b.hasID = hasID
	b.annots = annots
}

// NewUsing builds a finished Using descriptor (it has no children that
// need a pre-freeze parent pointer, so no shell stage is needed).
func NewUsing(name string, pos ast.Pos, parent Descriptor, target Descriptor) *UsingDesc {
	return &UsingDesc{base: newBase(name, pos, parent), Target: target}
}

// NewConstant builds a finished Constant descriptor.
func NewConstant(name string, pos ast.Pos, parent Descriptor, typ Type, val Value, id Id, hasID bool, annots AnnotationMap) *ConstantDesc {
	c := &ConstantDesc{base: newBase(name, pos, parent), Type: typ, Value: val}
	c.Finish(id, hasID, annots)
	return c
}

// NewAnnotationDecl builds a finished Annotation descriptor.
func NewAnnotationDecl(name string, pos ast.Pos, parent Descriptor, typ Type, targets map[ast.DeclKind]bool, id Id, hasID bool, annots AnnotationMap) *AnnotationDesc {
	a := &AnnotationDesc{base: newBase(name, pos, parent), Type: typ, Targets: targets}
	a.Finish(id, hasID, annots)
	return a
}

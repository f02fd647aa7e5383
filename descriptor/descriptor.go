// Package descriptor defines the resolved, type-checked descriptor tree
// that the semantic analyzer produces (spec.md §3.3): the output side of
// compilation. It holds only data and the two-phase shell/freeze
// construction helpers needed for the self-referential parent pattern
// (spec §5, §9); the compiling logic that populates this tree lives in
// the sibling scope/types/annot/numbering/layout/compiler packages.
package descriptor

import "github.com/partylemon/capnproto/ast"

// Id is the short opaque identifier a declaration may carry, assigned via
// the reserved `id` annotation (spec §3.3).
type Id string

// Descriptor is implemented by every compiled declaration, built-in
// pseudo-descriptor included.
type Descriptor interface {
	Name() string
	Pos() ast.Pos
	Parent() Descriptor
	Id() (Id, bool)
	Annotations() AnnotationMap
}

// AnnotationMap maps a user-declared annotation's own id to the compiled
// value of its application (spec §4.4). Built with plain maps: bounded by
// one declaration's annotation list, never large enough to need an ART.
type AnnotationMap map[Id]Value

// base is embedded by every non-built-in descriptor to supply the common
// Descriptor fields.
type base struct {
	name    string
	pos     ast.Pos
	parent  Descriptor
	id      Id
	hasID   bool
	annots  AnnotationMap
}

func (b *base) Name() string             { return b.name }
func (b *base) Pos() ast.Pos              { return b.pos }
func (b *base) Parent() Descriptor        { return b.parent }
func (b *base) Annotations() AnnotationMap { return b.annots }
func (b *base) Id() (Id, bool)            { return b.id, b.hasID }

// Root walks Parent() pointers up to the enclosing File (spec §3.3: every
// descriptor is reached transitively from a File).
func Root(d Descriptor) *File {
	for d != nil {
		if f, ok := d.(*File); ok {
			return f
		}
		d = d.Parent()
	}
	return nil
}

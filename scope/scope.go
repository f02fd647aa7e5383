// Package scope implements symbol resolution: looking up a possibly
// qualified name against a chain of nested scopes, import boundaries,
// and the built-in type table (spec.md §4.1).
package scope

import (
	"github.com/partylemon/capnproto/ast"
	"github.com/partylemon/capnproto/descriptor"
	"github.com/partylemon/capnproto/diag"
)

// Scope is one link in the lexical scope chain a name is resolved
// against. File is the root of every chain; nested scopes (struct,
// enum, interface, union) wrap the declaration they belong to and point
// at their lexical parent.
type Scope interface {
	// Member looks up a name declared directly in this scope.
	Member(name string) (descriptor.Descriptor, bool)
	// Parent returns the lexically enclosing scope, or nil at file scope.
	Parent() Scope
	// File returns the enclosing file scope (spec §4.1's "file scope").
	File() *descriptor.File
}

// fileScope adapts a *descriptor.File to Scope.
type fileScope struct {
	f *descriptor.File
}

func NewFileScope(f *descriptor.File) Scope { return fileScope{f} }

func (s fileScope) Member(name string) (descriptor.Descriptor, bool) { return s.f.Member(name) }
func (s fileScope) Parent() Scope                                    { return nil }
func (s fileScope) File() *descriptor.File                           { return s.f }

// memberScope wraps any descriptor that exposes a Member lookup (struct,
// enum, interface, union) plus its lexical parent.
type memberScope struct {
	lookup func(string) (descriptor.Descriptor, bool)
	parent Scope
}

// NewMemberScope builds a nested scope around a declaration's own member
// lookup function (e.g. (*descriptor.StructDesc).Member).
func NewMemberScope(lookup func(string) (descriptor.Descriptor, bool), parent Scope) Scope {
	return memberScope{lookup: lookup, parent: parent}
}

func (s memberScope) Member(name string) (descriptor.Descriptor, bool) { return s.lookup(name) }
func (s memberScope) Parent() Scope                                    { return s.parent }
func (s memberScope) File() *descriptor.File                           { return s.parent.File() }

// builtins is the reserved root table (spec §4.1, §6.4).
var builtins = descriptor.BuiltinTable()

// Builtins exposes the built-in table as a first-class value, e.g. for
// tests that want to enumerate reserved names rather than rely on a
// hidden package singleton.
func Builtins() map[string]descriptor.Descriptor { return builtins }

// Lookup resolves name against scope, following the rules of spec §4.1.
func Lookup(sc Scope, name ast.Name) diag.Outcome[descriptor.Descriptor] {
	switch n := name.(type) {
	case ast.MemberName:
		parent := Lookup(sc, n.Parent)
		return diag.AndThen(parent, func(p descriptor.Descriptor) diag.Outcome[descriptor.Descriptor] {
			p = resolveUsing(p)
			d, ok := directMember(p, n.Leaf)
			if !ok {
				return diag.Failed[descriptor.Descriptor](diag.New(n.Pos, "%q has no member named %q", p.Name(), n.Leaf))
			}
			return diag.Active(d)
		})
	case ast.AbsoluteName:
		if d, ok := sc.File().Member(n.Ident); ok {
			return diag.Active(d)
		}
		return diag.Failed[descriptor.Descriptor](diag.New(n.Pos, "no such declaration %q", n.Ident))
	case ast.RelativeName:
		return lookupRelative(sc, n)
	case ast.ImportName:
		if sc.Parent() != nil {
			// Only meaningful at file scope; recurse up to it (spec §4.1:
			// "Any other name kind at non-file scope -> recurse to parent").
			return Lookup(sc.Parent(), n)
		}
		if imp, ok := sc.File().Import(n.Ident); ok {
			return diag.Active[descriptor.Descriptor](imp)
		}
		return diag.Failed[descriptor.Descriptor](diag.New(n.Pos, "no such import %q", n.Ident))
	default:
		return diag.Failed[descriptor.Descriptor](diag.New(ast.NamePos(name), "unrecognized name form"))
	}
}

func lookupRelative(sc Scope, n ast.RelativeName) diag.Outcome[descriptor.Descriptor] {
	if d, ok := sc.Member(n.Ident); ok {
		return diag.Active(d)
	}
	if sc.Parent() != nil {
		return lookupRelative(sc.Parent(), n)
	}
	// File scope: fall through to built-ins.
	if d, ok := builtins[n.Ident]; ok {
		return diag.Active[descriptor.Descriptor](d)
	}
	return diag.Failed[descriptor.Descriptor](diag.New(n.Pos, "no such declaration %q", n.Ident))
}

// directMember looks up leaf as a direct member of d, transparently
// following Using aliases first (spec §4.1: "Using descriptors are
// transparently followed to their target").
func directMember(d descriptor.Descriptor, leaf string) (descriptor.Descriptor, bool) {
	switch v := d.(type) {
	case *descriptor.File:
		return v.Member(leaf)
	case *descriptor.StructDesc:
		return v.Member(leaf)
	case *descriptor.UnionDesc:
		return v.Member(leaf)
	case *descriptor.EnumDesc:
		return v.Member(leaf)
	case *descriptor.InterfaceDesc:
		return v.Member(leaf)
	default:
		return nil, false
	}
}

// ResolveAlias follows Using aliases to their ultimate target (spec
// §4.1, and invariant §8.1.7: resolving through Using must be
// idempotent with resolving the target directly). Exported so callers
// like the type and annotation compilers can apply it to a top-level
// lookup result, not just a direct-member one.
func ResolveAlias(d descriptor.Descriptor) descriptor.Descriptor {
	return resolveUsing(d)
}

func resolveUsing(d descriptor.Descriptor) descriptor.Descriptor {
	for {
		u, ok := d.(*descriptor.UsingDesc)
		if !ok {
			return d
		}
		d = u.Target
	}
}

package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partylemon/capnproto/ast"
	"github.com/partylemon/capnproto/descriptor"
)

func mustLookup(t *testing.T, sc Scope, n ast.Name) descriptor.Descriptor {
	t.Helper()
	out := Lookup(sc, n)
	require.False(t, out.IsFailed(), "lookup failed: %s", out.Errors().Error())
	v, ok := out.Value()
	require.True(t, ok)
	return v
}

func TestLookupRelativeFallsBackToBuiltins(t *testing.T) {
	f := descriptor.NewFileShell("a.capnp", nil)
	f.Freeze(nil, "", false, nil)
	sc := NewFileScope(f)

	d := mustLookup(t, sc, ast.RelativeName{Ident: "Int32"})
	b, ok := d.(descriptor.Builtin)
	require.True(t, ok)
	assert.Equal(t, descriptor.BuiltinPrimitive, b.Kind)
	assert.Equal(t, descriptor.Int32, b.Primitive)
}

func TestLookupRelativeUserDeclarationShadowsBuiltin(t *testing.T) {
	f := descriptor.NewFileShell("a.capnp", nil)
	// A user struct named "Text" shadows the built-in primitive of the
	// same name at file scope (spec §4.1).
	s := descriptor.NewStructShell("Text", ast.Pos{Line: 1}, f, nil)
	s.FreezeMembers(nil, nil)
	f.Freeze([]descriptor.Descriptor{s}, "", false, nil)
	sc := NewFileScope(f)

	d := mustLookup(t, sc, ast.RelativeName{Ident: "Text"})
	got, ok := d.(*descriptor.StructDesc)
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestLookupRelativeWalksUpNestedScopeBeforeBuiltins(t *testing.T) {
	f := descriptor.NewFileShell("a.capnp", nil)
	outer := descriptor.NewStructShell("Outer", ast.Pos{Line: 1}, f, nil)
	inner := descriptor.NewStructShell("Inner", ast.Pos{Line: 2}, outer, nil)
	inner.FreezeMembers(nil, nil)
	outer.SetNested([]descriptor.Descriptor{inner})
	outer.FreezeMembers(nil, nil)
	f.Freeze([]descriptor.Descriptor{outer}, "", false, nil)

	fileScope := NewFileScope(f)
	outerScope := NewMemberScope(outer.Member, fileScope)
	innerScope := NewMemberScope(inner.Member, outerScope)

	d := mustLookup(t, innerScope, ast.RelativeName{Ident: "Inner"})
	got, ok := d.(*descriptor.StructDesc)
	require.True(t, ok)
	assert.Same(t, inner, got)
}

func TestLookupRelativeUnknownNameFails(t *testing.T) {
	f := descriptor.NewFileShell("a.capnp", nil)
	f.Freeze(nil, "", false, nil)
	sc := NewFileScope(f)

	out := Lookup(sc, ast.RelativeName{Ident: "Nope", Pos: ast.Pos{Line: 9}})
	assert.True(t, out.IsFailed())
}

func TestLookupAbsoluteOnlyChecksFileScope(t *testing.T) {
	f := descriptor.NewFileShell("a.capnp", nil)
	s := descriptor.NewStructShell("Foo", ast.Pos{Line: 1}, f, nil)
	s.FreezeMembers(nil, nil)
	f.Freeze([]descriptor.Descriptor{s}, "", false, nil)
	sc := NewFileScope(f)

	d := mustLookup(t, sc, ast.AbsoluteName{Ident: "Foo"})
	got, ok := d.(*descriptor.StructDesc)
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestLookupMemberFollowsUsingAliasTransparently(t *testing.T) {
	f := descriptor.NewFileShell("a.capnp", nil)
	target := descriptor.NewStructShell("Target", ast.Pos{Line: 1}, f, nil)
	foo := descriptor.NewField("foo", ast.Pos{Line: 2}, target, 0,
		descriptor.Type{Kind: descriptor.TPrimitive, Primitive: descriptor.Int32},
		nil, descriptor.FieldOffset{}, nil, "", false, nil)
	target.FreezeMembers([]*descriptor.FieldDesc{foo}, nil)
	alias := descriptor.NewUsing("Alias", ast.Pos{Line: 3}, f, target)
	f.Freeze([]descriptor.Descriptor{target, alias}, "", false, nil)
	sc := NewFileScope(f)

	// Member lookup through the alias must resolve as if the caller had
	// named Target directly (invariant §8.1.7).
	aliasParent := ast.AbsoluteName{Ident: "Alias"}
	d := mustLookup(t, sc, ast.MemberName{Parent: aliasParent, Leaf: "foo"})
	got, ok := d.(*descriptor.FieldDesc)
	require.True(t, ok)
	assert.Same(t, foo, got)
}

func TestResolveAliasFollowsChainToUltimateTarget(t *testing.T) {
	f := descriptor.NewFileShell("a.capnp", nil)
	target := descriptor.NewStructShell("Target", ast.Pos{Line: 1}, f, nil)
	target.FreezeMembers(nil, nil)
	mid := descriptor.NewUsing("Mid", ast.Pos{Line: 2}, f, target)
	outer := descriptor.NewUsing("Outer", ast.Pos{Line: 3}, f, mid)

	resolved := ResolveAlias(outer)
	assert.Same(t, target, resolved)
}

func TestLookupImportNameRecursesToFileScope(t *testing.T) {
	imported := descriptor.NewFileShell("b.capnp", nil)
	imported.Freeze(nil, "", false, nil)

	f := descriptor.NewFileShell("a.capnp", map[string]*descriptor.File{"b": imported})
	s := descriptor.NewStructShell("S", ast.Pos{Line: 1}, f, nil)
	s.FreezeMembers(nil, nil)
	f.Freeze([]descriptor.Descriptor{s}, "", false, nil)

	fileScope := NewFileScope(f)
	nested := NewMemberScope(s.Member, fileScope)

	d := mustLookup(t, nested, ast.ImportName{Ident: "b"})
	got, ok := d.(*descriptor.File)
	require.True(t, ok)
	assert.Same(t, imported, got)
}

func TestLookupImportNameUnknownFails(t *testing.T) {
	f := descriptor.NewFileShell("a.capnp", nil)
	f.Freeze(nil, "", false, nil)
	sc := NewFileScope(f)

	out := Lookup(sc, ast.ImportName{Ident: "nope", Pos: ast.Pos{Line: 1}})
	assert.True(t, out.IsFailed())
}

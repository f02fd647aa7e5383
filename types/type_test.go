package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partylemon/capnproto/ast"
	"github.com/partylemon/capnproto/descriptor"
	"github.com/partylemon/capnproto/scope"
)

func newFileScope(t *testing.T, decls ...descriptor.Descriptor) scope.Scope {
	t.Helper()
	f := descriptor.NewFileShell("a.capnp", nil)
	f.Freeze(decls, "", false, nil)
	return scope.NewFileScope(f)
}

func relTypeExpr(name string, params ...ast.TypeParam) ast.TypeExpr {
	return ast.TypeExpr{Name: ast.RelativeName{Ident: name}, Params: params}
}

func TestCompileTypePlainPrimitive(t *testing.T) {
	sc := newFileScope(t)
	out := CompileType(sc, relTypeExpr("Int32"))
	require.False(t, out.IsFailed())
	ty, _ := out.Value()
	assert.Equal(t, descriptor.TPrimitive, ty.Kind)
	assert.Equal(t, descriptor.Int32, ty.Primitive)
}

func TestCompileTypeRejectsTypeParamsOnPlainType(t *testing.T) {
	sc := newFileScope(t)
	out := CompileType(sc, relTypeExpr("Int32", ast.TypeParam{Type: &ast.TypeExpr{Name: ast.RelativeName{Ident: "Int32"}}}))
	assert.True(t, out.IsFailed())
}

func TestCompileTypeListOfPrimitive(t *testing.T) {
	sc := newFileScope(t)
	te := relTypeExpr("List", ast.TypeParam{Type: ptr(relTypeExpr("Text"))})
	out := CompileType(sc, te)
	require.False(t, out.IsFailed())
	ty, _ := out.Value()
	assert.Equal(t, descriptor.TList, ty.Kind)
	assert.Equal(t, descriptor.Text, ty.Elem.Primitive)
}

func TestCompileTypeListRejectsMissingTypeParam(t *testing.T) {
	sc := newFileScope(t)
	out := CompileType(sc, relTypeExpr("List"))
	assert.True(t, out.IsFailed())
}

func TestCompileTypeInlineRequiresFixedWidthStruct(t *testing.T) {
	s := descriptor.NewStructShell("S", ast.Pos{}, nil, nil) // fixed == nil
	s.FreezeMembers(nil, nil)
	sc := newFileScope(t, s)

	te := relTypeExpr("Inline", ast.TypeParam{Type: ptr(relTypeExpr("S"))})
	out := CompileType(sc, te)
	assert.True(t, out.IsFailed())
}

func TestCompileTypeInlineAcceptsFixedWidthStruct(t *testing.T) {
	s := descriptor.NewStructShell("S", ast.Pos{}, nil, &descriptor.FixedSize{DataBits: 64, PointerCount: 1})
	s.FreezeMembers(nil, nil)
	sc := newFileScope(t, s)

	te := relTypeExpr("Inline", ast.TypeParam{Type: ptr(relTypeExpr("S"))})
	out := CompileType(sc, te)
	require.False(t, out.IsFailed())
	ty, _ := out.Value()
	assert.Equal(t, descriptor.TInlineStruct, ty.Kind)
	assert.Same(t, s, ty.InlineStruct)
}

func TestCompileTypeInlineRejectsNonStruct(t *testing.T) {
	sc := newFileScope(t)
	te := relTypeExpr("Inline", ast.TypeParam{Type: ptr(relTypeExpr("Int32"))})
	out := CompileType(sc, te)
	assert.True(t, out.IsFailed())
}

func TestCompileTypeListRejectsInlineElement(t *testing.T) {
	s := descriptor.NewStructShell("S", ast.Pos{}, nil, &descriptor.FixedSize{DataBits: 64, PointerCount: 1})
	s.FreezeMembers(nil, nil)
	sc := newFileScope(t, s)

	// List(Inline(S)) must be rejected: list elements cannot be declared
	// Inline (spec §4.2).
	inlineParam := relTypeExpr("Inline", ast.TypeParam{Type: ptr(relTypeExpr("S"))})
	te := relTypeExpr("List", ast.TypeParam{Type: &inlineParam})
	out := CompileType(sc, te)
	assert.True(t, out.IsFailed())
}

func TestCompileTypeInlineListAcceptsZeroSize(t *testing.T) {
	sc := newFileScope(t)
	zero := int64(0)
	te := relTypeExpr("InlineList",
		ast.TypeParam{Type: ptr(relTypeExpr("Int8"))},
		ast.TypeParam{Int: &zero},
	)
	out := CompileType(sc, te)
	require.False(t, out.IsFailed())
	ty, _ := out.Value()
	assert.Equal(t, descriptor.TInlineList, ty.Kind)
	assert.Equal(t, uint64(0), ty.Size)
}

func TestCompileTypeInlineListRejectsNegativeSize(t *testing.T) {
	sc := newFileScope(t)
	neg := int64(-1)
	te := relTypeExpr("InlineList",
		ast.TypeParam{Type: ptr(relTypeExpr("Int8"))},
		ast.TypeParam{Int: &neg},
	)
	out := CompileType(sc, te)
	assert.True(t, out.IsFailed())
}

func TestCompileTypeInlineListRejectsInlineElement(t *testing.T) {
	s := descriptor.NewStructShell("S", ast.Pos{}, nil, &descriptor.FixedSize{DataBits: 64, PointerCount: 1})
	s.FreezeMembers(nil, nil)
	sc := newFileScope(t, s)

	size := int64(1)
	inlineParam := relTypeExpr("Inline", ast.TypeParam{Type: ptr(relTypeExpr("S"))})
	te := relTypeExpr("InlineList", ast.TypeParam{Type: &inlineParam}, ast.TypeParam{Int: &size})
	out := CompileType(sc, te)
	assert.True(t, out.IsFailed())
}

func ptr(te ast.TypeExpr) *ast.TypeExpr { return &te }

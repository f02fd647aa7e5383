package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partylemon/capnproto/ast"
	"github.com/partylemon/capnproto/descriptor"
	"github.com/partylemon/capnproto/diag"
	"github.com/partylemon/capnproto/scope"
)

func compileFileDecls(t *testing.T, decls []ast.Decl) (*descriptor.File, diag.List) {
	t.Helper()
	f := descriptor.NewFileShell("test.capnp", nil)
	sc := scope.NewFileScope(f)
	compiled, errs := CompileTopLevel(sc, decls, 65534)
	f.Freeze(compiled, "", false, nil)
	return f, errs
}

func TestCompileStructWithTwoFieldsPacksLayout(t *testing.T) {
	decl := ast.StructDecl{
		Name: "Point",
		Pos:  ast.Pos{Line: 1},
		Body: []ast.Decl{
			ast.FieldDecl{Name: "x", Number: 0, Type: ast.TypeExpr{Name: ast.RelativeName{Ident: "Int32"}}, Pos: ast.Pos{Line: 2}},
			ast.FieldDecl{Name: "y", Number: 1, Type: ast.TypeExpr{Name: ast.RelativeName{Ident: "Int32"}}, Pos: ast.Pos{Line: 3}},
		},
	}

	f := descriptor.NewFileShell("test.capnp", nil)
	sc := scope.NewFileScope(f)
	compiled, errs := CompileTopLevel(sc, []ast.Decl{decl}, 65534)
	f.Freeze(compiled, "", false, nil)
	require.Empty(t, errs)

	d, ok := f.Member("Point")
	require.True(t, ok)
	s, ok := d.(*descriptor.StructDesc)
	require.True(t, ok)
	require.Len(t, s.Fields(), 2)

	layout := s.Layout()
	assert.Equal(t, uint32(0), layout.PointerCount)
	xOff := layout.FieldPackingMap[0]
	yOff := layout.FieldPackingMap[1]
	assert.Equal(t, descriptor.Size32, xOff.DataSize)
	assert.Equal(t, descriptor.Size32, yOff.DataSize)
	assert.NotEqual(t, xOff.DataIndex, yOff.DataIndex)
}

func TestCompileStructRejectsNonSequentialFieldNumbers(t *testing.T) {
	decl := ast.StructDecl{
		Name: "Bad",
		Pos:  ast.Pos{Line: 1},
		Body: []ast.Decl{
			ast.FieldDecl{Name: "a", Number: 0, Type: ast.TypeExpr{Name: ast.RelativeName{Ident: "Int32"}}, Pos: ast.Pos{Line: 2}},
			ast.FieldDecl{Name: "b", Number: 2, Type: ast.TypeExpr{Name: ast.RelativeName{Ident: "Int32"}}, Pos: ast.Pos{Line: 3}},
		},
	}
	_, errs := compileFileDecls(t, []ast.Decl{decl})
	require.NotEmpty(t, errs)
}

func TestCompileStructFixedWidthRejectsOverflow(t *testing.T) {
	decl := ast.StructDecl{
		Name:  "Tiny",
		Pos:   ast.Pos{Line: 1},
		Fixed: &ast.FixedSpec{DataBits: 0, PointerCount: 0, Pos: ast.Pos{Line: 1}},
		Body: []ast.Decl{
			ast.FieldDecl{Name: "a", Number: 0, Type: ast.TypeExpr{Name: ast.RelativeName{Ident: "Int32"}}, Pos: ast.Pos{Line: 2}},
		},
	}
	_, errs := compileFileDecls(t, []ast.Decl{decl})
	require.NotEmpty(t, errs)
}

func TestCompileEnumAssignsSequentialNumbers(t *testing.T) {
	decl := ast.EnumDecl{
		Name: "Color",
		Pos:  ast.Pos{Line: 1},
		Body: []ast.Decl{
			ast.EnumerantDecl{Name: "red", Number: 0, Pos: ast.Pos{Line: 2}},
			ast.EnumerantDecl{Name: "green", Number: 1, Pos: ast.Pos{Line: 3}},
		},
	}
	f, errs := compileFileDecls(t, []ast.Decl{decl})
	require.Empty(t, errs)
	d, ok := f.Member("Color")
	require.True(t, ok)
	e, ok := d.(*descriptor.EnumDesc)
	require.True(t, ok)
	assert.Len(t, e.Enumerants(), 2)
}

func TestCompileInterfaceCompilesMethodsAndParams(t *testing.T) {
	decl := ast.InterfaceDecl{
		Name: "Greeter",
		Pos:  ast.Pos{Line: 1},
		Body: []ast.Decl{
			ast.MethodDecl{
				Name:   "greet",
				Number: 0,
				Pos:    ast.Pos{Line: 2},
				Params: []ast.ParamDecl{
					{Name: "name", Type: ast.TypeExpr{Name: ast.RelativeName{Ident: "Text"}}, Pos: ast.Pos{Line: 2}},
				},
				ReturnType: &ast.TypeExpr{Name: ast.RelativeName{Ident: "Text"}},
			},
		},
	}
	f, errs := compileFileDecls(t, []ast.Decl{decl})
	require.Empty(t, errs)
	d, ok := f.Member("Greeter")
	require.True(t, ok)
	i, ok := d.(*descriptor.InterfaceDesc)
	require.True(t, ok)
	require.Len(t, i.Methods(), 1)
	m := i.Methods()[0]
	assert.Len(t, m.Params(), 1)
	require.NotNil(t, m.ReturnType)
	assert.Equal(t, descriptor.Text, m.ReturnType.Primitive)
}

func TestCompileStructUnionAssignsDistinctDiscriminants(t *testing.T) {
	decl := ast.StructDecl{
		Name: "Shape",
		Pos:  ast.Pos{Line: 1},
		Body: []ast.Decl{
			ast.UnionDecl{
				Name:   "which",
				Number: 0,
				Pos:    ast.Pos{Line: 2},
				Body: []ast.Decl{
					ast.FieldDecl{Name: "circle", Number: 1, Type: ast.TypeExpr{Name: ast.RelativeName{Ident: "Bool"}}, Pos: ast.Pos{Line: 3}},
					ast.FieldDecl{Name: "square", Number: 2, Type: ast.TypeExpr{Name: ast.RelativeName{Ident: "Int32"}}, Pos: ast.Pos{Line: 4}},
				},
			},
		},
	}
	f, errs := compileFileDecls(t, []ast.Decl{decl})
	require.Empty(t, errs)
	d, ok := f.Member("Shape")
	require.True(t, ok)
	s, ok := d.(*descriptor.StructDesc)
	require.True(t, ok)
	require.Len(t, s.Unions(), 1)
	u := s.Unions()[0]
	require.Len(t, u.Fields(), 2)
	disc0, ok := u.Discriminant(1)
	require.True(t, ok)
	disc1, ok := u.Discriminant(2)
	require.True(t, ok)
	assert.NotEqual(t, disc0, disc1)
}

func TestCompileTopLevelRejectsFieldAtFileScope(t *testing.T) {
	decl := ast.FieldDecl{Name: "a", Number: 0, Type: ast.TypeExpr{Name: ast.RelativeName{Ident: "Int32"}}, Pos: ast.Pos{Line: 1}}
	_, errs := compileFileDecls(t, []ast.Decl{decl})
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "may only appear inside a struct")
}

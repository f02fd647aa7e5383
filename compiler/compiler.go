package compiler

import (
	"sort"

	"github.com/partylemon/capnproto/annot"
	"github.com/partylemon/capnproto/ast"
	"github.com/partylemon/capnproto/descriptor"
	"github.com/partylemon/capnproto/diag"
	"github.com/partylemon/capnproto/layout"
	"github.com/partylemon/capnproto/numbering"
	"github.com/partylemon/capnproto/scope"
	"github.com/partylemon/capnproto/types"
)

// CompileTopLevel compiles a file's top-level declarations against sc
// (a file scope whose File() is the shell being built) and returns the
// compiled descriptors in declaration order, for the caller to pass to
// descriptor.File.Freeze.
func CompileTopLevel(sc scope.Scope, decls []ast.Decl, maxOrdinal uint16) ([]descriptor.Descriptor, diag.List) {
	return compileNestedDecls(sc, sc.File(), decls, maxOrdinal, ast.KindFile)
}

// compileNestedDecls compiles the Using/Constant/Enum/Struct/Interface/
// Annotation declarations found in one block (a file or a struct/
// interface body), rejecting any declaration kind that may only appear
// inside a different parent (spec §4.7). Field/Union/Enumerant/Method/
// Param are compiled by their specific parent's compile function; one
// that reaches this block is reported as misplaced.
func compileNestedDecls(sc scope.Scope, parent descriptor.Descriptor, decls []ast.Decl, maxOrdinal uint16, parentKind ast.DeclKind) ([]descriptor.Descriptor, diag.List) {
	var out []descriptor.Descriptor
	var errs diag.List
	var items []numbering.Item

	for _, d := range decls {
		switch v := d.(type) {
		case ast.UsingDecl:
			u, es := compileUsing(sc, parent, v)
			out = append(out, u)
			errs = append(errs, es...)
			items = append(items, item{name: v.Name, pos: v.Pos})
		case ast.ConstantDecl:
			c, es := compileConstant(sc, parent, v)
			out = append(out, c)
			errs = append(errs, es...)
			items = append(items, item{name: v.Name, pos: v.Pos})
		case ast.EnumDecl:
			e, es := CompileEnum(sc, parent, v, maxOrdinal)
			out = append(out, e)
			errs = append(errs, es...)
			items = append(items, item{name: v.Name, pos: v.Pos})
		case ast.StructDecl:
			s, es := CompileStruct(sc, parent, v, maxOrdinal)
			out = append(out, s)
			errs = append(errs, es...)
			items = append(items, item{name: v.Name, pos: v.Pos})
		case ast.InterfaceDecl:
			i, es := CompileInterface(sc, parent, v, maxOrdinal)
			out = append(out, i)
			errs = append(errs, es...)
			items = append(items, item{name: v.Name, pos: v.Pos})
		case ast.AnnotationDecl:
			a, es := compileAnnotationDecl(sc, parent, v)
			out = append(out, a)
			errs = append(errs, es...)
			items = append(items, item{name: v.Name, pos: v.Pos})
		case ast.FieldDecl:
			errs = append(errs, diag.New(v.Pos, "field %q may only appear inside a struct", v.Name))
		case ast.UnionDecl:
			errs = append(errs, diag.New(v.Pos, "union %q may only appear inside a struct", v.Name))
		case ast.EnumerantDecl:
			errs = append(errs, diag.New(v.Pos, "enumerant %q may only appear inside an enum", v.Name))
		case ast.MethodDecl:
			errs = append(errs, diag.New(v.Pos, "method %q may only appear inside an interface", v.Name))
		case ast.ParamDecl:
			errs = append(errs, diag.New(v.Pos, "param %q may only appear inside a method", v.Name))
		default:
			errs = append(errs, diag.New(d.DeclPos(), "unrecognized declaration %q", d.DeclName()))
		}
	}

	errs = append(errs, numbering.CheckUniqueNames(items)...)
	return out, errs
}

func compileUsing(sc scope.Scope, parent descriptor.Descriptor, d ast.UsingDecl) (*descriptor.UsingDesc, diag.List) {
	resolved := scope.Lookup(sc, d.Target)
	target, _ := resolved.Value()
	return descriptor.NewUsing(d.Name, d.Pos, parent, target), diag.List(resolved.Errors())
}

func compileConstant(sc scope.Scope, parent descriptor.Descriptor, d ast.ConstantDecl) (*descriptor.ConstantDesc, diag.List) {
	var errs diag.List
	typOutcome := types.CompileType(sc, d.Type)
	errs = append(errs, typOutcome.Errors()...)
	typ, _ := typOutcome.Value()

	var val descriptor.Value
	if _, ok := typOutcome.Value(); ok {
		valOutcome := types.CompileValue(d.Value.ValuePos(), typ, d.Value)
		errs = append(errs, valOutcome.Errors()...)
		val, _ = valOutcome.Value()
	}

	ares, aerrs := annot.Compile(sc, ast.KindConstant, d.Annotations)
	errs = append(errs, aerrs...)

	return descriptor.NewConstant(d.Name, d.Pos, parent, typ, val, ares.Id, ares.HasId, ares.Annots), errs
}

// CompileEnum compiles an enum declaration and its enumerants.
func CompileEnum(sc scope.Scope, parent descriptor.Descriptor, d ast.EnumDecl, maxOrdinal uint16) (*descriptor.EnumDesc, diag.List) {
	var errs diag.List
	shell := descriptor.NewEnumShell(d.Name, d.Pos, parent)

	var enumerants []ast.EnumerantDecl
	for _, raw := range d.Body {
		v, ok := raw.(ast.EnumerantDecl)
		if !ok {
			errs = append(errs, diag.New(raw.DeclPos(), "%q may only appear inside an enum", raw.DeclName()))
			continue
		}
		enumerants = append(enumerants, v)
	}

	items := make([]numbering.Item, len(enumerants))
	for i, e := range enumerants {
		items[i] = item{number: e.Number, name: e.Name, pos: e.Pos}
	}
	errs = append(errs, numbering.CheckSequential("Enumerants", items)...)
	errs = append(errs, numbering.CheckUniqueNames(items)...)
	errs = append(errs, numbering.CheckOrdinal(items, maxOrdinal)...)

	out := make([]*descriptor.EnumerantDesc, len(enumerants))
	for i, e := range enumerants {
		ares, aerrs := annot.Compile(sc, ast.KindEnumerant, e.Annotations)
		errs = append(errs, aerrs...)
		out[i] = descriptor.NewEnumerant(e.Name, e.Pos, shell, e.Number, ares.Id, ares.HasId, ares.Annots)
	}
	shell.FreezeMembers(out)

	ares, aerrs := annot.Compile(sc, ast.KindEnum, d.Annotations)
	errs = append(errs, aerrs...)
	shell.Finish(ares.Id, ares.HasId, ares.Annots)

	return shell, errs
}

// pendingField is a struct field whose type (and default) has been
// compiled but whose offset is not yet known — it awaits the layout
// packer's result.
type pendingField struct {
	decl  ast.FieldDecl
	typ   descriptor.Type
	def   *descriptor.Value
	union *ast.UnionDecl // non-nil if declared inside a union
}

// CompileStruct compiles a struct declaration: its nested types, its
// fields and unions (packing their storage via layout.PackStruct), and
// its fixed-width enforcement if declared (spec §4.6, §4.7).
func CompileStruct(sc scope.Scope, parent descriptor.Descriptor, d ast.StructDecl, maxOrdinal uint16) (*descriptor.StructDesc, diag.List) {
	var errs diag.List

	var fixed *descriptor.FixedSize
	if d.Fixed != nil {
		fixed = &descriptor.FixedSize{DataBits: d.Fixed.DataBits, PointerCount: d.Fixed.PointerCount}
	}
	shell := descriptor.NewStructShell(d.Name, d.Pos, parent, fixed)
	structScope := scope.NewMemberScope(shell.Member, sc)

	var nestedDecls []ast.Decl
	var fieldDecls []ast.FieldDecl
	var unionDecls []ast.UnionDecl
	var unionFields []struct {
		decl  ast.FieldDecl
		union ast.UnionDecl
	}

	for _, raw := range d.Body {
		switch v := raw.(type) {
		case ast.FieldDecl:
			fieldDecls = append(fieldDecls, v)
		case ast.UnionDecl:
			unionDecls = append(unionDecls, v)
			for _, braw := range v.Body {
				fd, ok := braw.(ast.FieldDecl)
				if !ok {
					errs = append(errs, diag.New(braw.DeclPos(), "%q may only appear inside a struct", braw.DeclName()))
					continue
				}
				unionFields = append(unionFields, struct {
					decl  ast.FieldDecl
					union ast.UnionDecl
				}{fd, v})
			}
		default:
			nestedDecls = append(nestedDecls, raw)
		}
	}

	// Nested types are registered on the shell before fields/defaults are
	// compiled, since a field's type expression may reference them.
	nested, nestedErrs := compileNestedDecls(structScope, shell, nestedDecls, maxOrdinal, ast.KindStruct)
	errs = append(errs, nestedErrs...)
	shell.SetNested(nested)

	var pendings []pendingField
	for _, v := range fieldDecls {
		pendings = append(pendings, compilePendingField(structScope, v, nil, &errs))
	}
	for _, uf := range unionFields {
		u := uf.union
		pendings = append(pendings, compilePendingField(structScope, uf.decl, &u, &errs))
	}

	// Sibling numbering spans every field and union declared directly in
	// this struct, whether or not the field belongs to a union (spec
	// §4.5/§4.6: one ordinal sequence per struct).
	var items []numbering.Item
	for _, p := range pendings {
		items = append(items, item{number: p.decl.Number, name: p.decl.Name, pos: p.decl.Pos})
	}
	for _, u := range unionDecls {
		items = append(items, item{number: u.Number, name: u.Name, pos: u.Pos})
	}
	errs = append(errs, numbering.CheckSequential("Fields", items)...)
	errs = append(errs, numbering.CheckOrdinal(items, maxOrdinal)...)

	var nameItems []numbering.Item
	nameItems = append(nameItems, items...)
	for _, n := range nestedDecls {
		nameItems = append(nameItems, item{name: n.DeclName(), pos: n.DeclPos()})
	}
	errs = append(errs, numbering.CheckUniqueNames(nameItems)...)

	for _, u := range unionDecls {
		var memberItems []numbering.Item
		for _, p := range pendings {
			if p.union != nil && p.union.Name == u.Name && p.union.Pos == u.Pos {
				memberItems = append(memberItems, item{number: p.decl.Number, name: p.decl.Name, pos: p.decl.Pos})
			}
		}
		errs = append(errs, numbering.CheckUnionRetrofit(u.Pos, u.Number, memberItems)...)
	}

	// Pack.
	var entries []layout.Entry
	for _, p := range pendings {
		if p.union == nil {
			entries = append(entries, layout.Entry{Number: p.decl.Number, Field: &layout.Field{Number: p.decl.Number, Size: layout.SizeOf(p.typ)}})
		}
	}
	for _, u := range unionDecls {
		var members []layout.UnionMember
		for _, p := range pendings {
			if p.union != nil && p.union.Name == u.Name && p.union.Pos == u.Pos {
				members = append(members, layout.UnionMember{Number: p.decl.Number, Size: layout.SizeOf(p.typ)})
			}
		}
		entries = append(entries, layout.Entry{Number: u.Number, Union: &layout.Union{Number: u.Number, Members: members}})
	}
	packed := layout.PackStruct(entries)

	finalLayout := packed.Layout
	if fixed != nil {
		enforced := layout.EnforceFixed(d.Pos, *fixed, packed.Layout)
		errs = append(errs, enforced.Errors()...)
		finalLayout = diag.Recover(enforced, func() descriptor.StructLayout { return packed.Layout }).Must()
	}
	shell.SetLayout(finalLayout)

	uShells := make(map[string]*descriptor.UnionDesc, len(unionDecls))
	var unions []*descriptor.UnionDesc
	for _, u := range unionDecls {
		tagOffset := packed.UnionTags[u.Number]
		uShell := descriptor.NewUnionShell(u.Name, u.Pos, shell, u.Number, tagOffset)
		uShells[u.Name] = uShell
		unions = append(unions, uShell)
	}

	var directFields []*descriptor.FieldDesc
	unionMembers := map[string][]*descriptor.FieldDesc{}
	for _, p := range pendings {
		ares, aerrs := annot.Compile(structScope, ast.KindField, p.decl.Annotations)
		errs = append(errs, aerrs...)
		offset := finalLayout.FieldPackingMap[p.decl.Number]
		if p.union == nil {
			f := descriptor.NewField(p.decl.Name, p.decl.Pos, shell, p.decl.Number, p.typ, p.def, offset, nil, ares.Id, ares.HasId, ares.Annots)
			directFields = append(directFields, f)
		} else {
			uShell := uShells[p.union.Name]
			f := descriptor.NewField(p.decl.Name, p.decl.Pos, uShell, p.decl.Number, p.typ, p.def, offset, uShell, ares.Id, ares.HasId, ares.Annots)
			unionMembers[p.union.Name] = append(unionMembers[p.union.Name], f)
		}
	}

	for _, u := range unionDecls {
		uShell := uShells[u.Name]
		members := unionMembers[u.Name]
		sorted := make([]*descriptor.FieldDesc, len(members))
		copy(sorted, members)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })
		discriminants := make(map[uint16]uint16, len(sorted))
		for i, f := range sorted {
			discriminants[f.Number] = uint16(i)
		}
		uShell.FreezeMembers(members, discriminants)

		ares, aerrs := annot.Compile(structScope, ast.KindUnion, u.Annotations)
		errs = append(errs, aerrs...)
		uShell.Finish(ares.Id, ares.HasId, ares.Annots)
	}

	shell.FreezeMembers(directFields, unions)

	ares, aerrs := annot.Compile(sc, ast.KindStruct, d.Annotations)
	errs = append(errs, aerrs...)
	shell.Finish(ares.Id, ares.HasId, ares.Annots)

	return shell, errs
}

func compilePendingField(sc scope.Scope, d ast.FieldDecl, union *ast.UnionDecl, errs *diag.List) pendingField {
	typOutcome := types.CompileType(sc, d.Type)
	*errs = append(*errs, typOutcome.Errors()...)
	typ, ok := typOutcome.Value()
	if !ok {
		return pendingField{decl: d, union: union}
	}
	var def *descriptor.Value
	if d.Default != nil {
		if typ.Kind == descriptor.TInlineStruct {
			*errs = append(*errs, diag.New(d.Default.ValuePos(), "inline struct fields cannot have default values"))
		} else {
			valOutcome := types.CompileValue(d.Default.ValuePos(), typ, d.Default)
			*errs = append(*errs, valOutcome.Errors()...)
			if v, ok := valOutcome.Value(); ok {
				def = &v
			}
		}
	}
	return pendingField{decl: d, typ: typ, def: def, union: union}
}

// CompileInterface compiles an interface declaration and its methods.
func CompileInterface(sc scope.Scope, parent descriptor.Descriptor, d ast.InterfaceDecl, maxOrdinal uint16) (*descriptor.InterfaceDesc, diag.List) {
	var errs diag.List
	shell := descriptor.NewInterfaceShell(d.Name, d.Pos, parent)
	ifaceScope := scope.NewMemberScope(shell.Member, sc)

	var methodDecls []ast.MethodDecl
	var nestedDecls []ast.Decl
	for _, raw := range d.Body {
		switch v := raw.(type) {
		case ast.MethodDecl:
			methodDecls = append(methodDecls, v)
		case ast.FieldDecl, ast.EnumerantDecl, ast.UnionDecl, ast.ParamDecl:
			errs = append(errs, diag.New(raw.DeclPos(), "%q may only appear inside its own parent kind", raw.DeclName()))
		default:
			nestedDecls = append(nestedDecls, raw)
		}
	}

	nested, nestedErrs := compileNestedDecls(ifaceScope, shell, nestedDecls, maxOrdinal, ast.KindInterface)
	errs = append(errs, nestedErrs...)
	shell.SetNested(nested)

	items := make([]numbering.Item, len(methodDecls))
	for i, m := range methodDecls {
		items[i] = item{number: m.Number, name: m.Name, pos: m.Pos}
	}
	errs = append(errs, numbering.CheckSequential("Methods", items)...)
	errs = append(errs, numbering.CheckUniqueNames(items)...)
	errs = append(errs, numbering.CheckOrdinal(items, maxOrdinal)...)

	var methods []*descriptor.MethodDesc
	for _, m := range methodDecls {
		var retType *descriptor.Type
		if m.ReturnType != nil {
			retOutcome := types.CompileType(ifaceScope, *m.ReturnType)
			errs = append(errs, retOutcome.Errors()...)
			if rt, ok := retOutcome.Value(); ok {
				retType = &rt
			}
		}
		mShell := descriptor.NewMethodShell(m.Name, m.Pos, shell, m.Number, retType)

		paramItems := make([]numbering.Item, len(m.Params))
		for i, p := range m.Params {
			paramItems[i] = item{name: p.Name, pos: p.Pos}
		}
		errs = append(errs, numbering.CheckUniqueNames(paramItems)...)

		var params []*descriptor.ParamDesc
		for _, p := range m.Params {
			pTypOutcome := types.CompileType(ifaceScope, p.Type)
			errs = append(errs, pTypOutcome.Errors()...)
			pTyp, ok := pTypOutcome.Value()
			var pDef *descriptor.Value
			if ok && p.Default != nil {
				pValOutcome := types.CompileValue(p.Default.ValuePos(), pTyp, p.Default)
				errs = append(errs, pValOutcome.Errors()...)
				if v, ok := pValOutcome.Value(); ok {
					pDef = &v
				}
			}
			pares, paerrs := annot.Compile(ifaceScope, ast.KindParam, p.Annotations)
			errs = append(errs, paerrs...)
			params = append(params, descriptor.NewParam(p.Name, p.Pos, mShell, pTyp, pDef, pares.Id, pares.HasId, pares.Annots))
		}
		mShell.FreezeParams(params)

		mares, maerrs := annot.Compile(ifaceScope, ast.KindMethod, m.Annotations)
		errs = append(errs, maerrs...)
		mShell.Finish(mares.Id, mares.HasId, mares.Annots)

		methods = append(methods, mShell)
	}
	shell.FreezeMembers(methods)

	ares, aerrs := annot.Compile(sc, ast.KindInterface, d.Annotations)
	errs = append(errs, aerrs...)
	shell.Finish(ares.Id, ares.HasId, ares.Annots)

	return shell, errs
}

func compileAnnotationDecl(sc scope.Scope, parent descriptor.Descriptor, d ast.AnnotationDecl) (*descriptor.AnnotationDesc, diag.List) {
	var errs diag.List
	typOutcome := types.CompileType(sc, d.Type)
	errs = append(errs, typOutcome.Errors()...)
	typ, _ := typOutcome.Value()

	targets := make(map[ast.DeclKind]bool, len(d.Targets))
	for _, k := range d.Targets {
		targets[k] = true
	}

	ares, aerrs := annot.Compile(sc, ast.KindAnnotation, d.Annotations)
	errs = append(errs, aerrs...)

	return descriptor.NewAnnotationDecl(d.Name, d.Pos, parent, typ, targets, ares.Id, ares.HasId, ares.Annots), errs
}

// Package types compiles type expressions and literal values against a
// declared or expected type (spec.md §4.2, §4.3).
package types

import (
	"github.com/partylemon/capnproto/ast"
	"github.com/partylemon/capnproto/descriptor"
	"github.com/partylemon/capnproto/diag"
	"github.com/partylemon/capnproto/scope"
)

// CompileType compiles a type expression, handling the generic
// built-ins List, Inline and InlineList specially (spec §4.2).
func CompileType(sc scope.Scope, te ast.TypeExpr) diag.Outcome[descriptor.Type] {
	resolved := scope.Lookup(sc, te.Name)
	return diag.AndThen(resolved, func(d descriptor.Descriptor) diag.Outcome[descriptor.Type] {
		d = scope.ResolveAlias(d)
		if b, ok := d.(descriptor.Builtin); ok {
			switch b.Kind {
			case descriptor.BuiltinList:
				return compileList(sc, te)
			case descriptor.BuiltinInline:
				return compileInline(sc, te)
			case descriptor.BuiltinInlineList:
				return compileInlineList(sc, te)
			}
		}
		if len(te.Params) != 0 {
			return diag.Failed[descriptor.Type](diag.New(te.Pos, "%q does not take type parameters", ast.NameString(te.Name)))
		}
		return plainType(te.Pos, d)
	})
}

func plainType(pos ast.Pos, d descriptor.Descriptor) diag.Outcome[descriptor.Type] {
	switch v := d.(type) {
	case descriptor.Builtin:
		if v.Kind == descriptor.BuiltinPrimitive {
			return diag.Active(descriptor.Type{Kind: descriptor.TPrimitive, Primitive: v.Primitive})
		}
		return diag.Failed[descriptor.Type](diag.New(pos, "%q is not a type", v.Name()))
	case *descriptor.EnumDesc:
		return diag.Active(descriptor.Type{Kind: descriptor.TEnum, Enum: v})
	case *descriptor.StructDesc:
		return diag.Active(descriptor.Type{Kind: descriptor.TStruct, Struct: v})
	case *descriptor.InterfaceDesc:
		return diag.Active(descriptor.Type{Kind: descriptor.TInterface, Interface: v})
	default:
		return diag.Failed[descriptor.Type](diag.New(pos, "%q is not a type", d.Name()))
	}
}

func requireOneTypeParam(te ast.TypeExpr) (ast.TypeExpr, diag.Diagnostic, bool) {
	if len(te.Params) != 1 || te.Params[0].Type == nil {
		// spec §9: the original message interpolates an unused extra
		// argument which fmt silently drops; this module emits the
		// corrected, single-argument text rather than reproduce a bug
		// that would otherwise surface as a literal "%!(EXTRA ...)" in
		// Go's fmt (see DESIGN.md Open Question decisions).
		return ast.TypeExpr{}, diag.New(te.Pos, "%q requires exactly one type parameter.", ast.NameString(te.Name)), false
	}
	return *te.Params[0].Type, diag.Diagnostic{}, true
}

func compileList(sc scope.Scope, te ast.TypeExpr) diag.Outcome[descriptor.Type] {
	inner, errDiag, ok := requireOneTypeParam(te)
	if !ok {
		return diag.Failed[descriptor.Type](errDiag)
	}
	elem := CompileType(sc, inner)
	return diag.AndThen(elem, func(elemType descriptor.Type) diag.Outcome[descriptor.Type] {
		if elemType.Kind == descriptor.TInlineStruct {
			return diag.Failed[descriptor.Type](diag.New(te.Pos, "Don't declare list elements 'Inline'."))
		}
		e := elemType
		return diag.Active(descriptor.Type{Kind: descriptor.TList, Elem: &e})
	})
}

func compileInline(sc scope.Scope, te ast.TypeExpr) diag.Outcome[descriptor.Type] {
	inner, errDiag, ok := requireOneTypeParam(te)
	if !ok {
		return diag.Failed[descriptor.Type](errDiag)
	}
	elem := CompileType(sc, inner)
	return diag.AndThen(elem, func(elemType descriptor.Type) diag.Outcome[descriptor.Type] {
		if elemType.Kind != descriptor.TStruct {
			return diag.Failed[descriptor.Type](diag.New(te.Pos, "Inline's type parameter must be a struct, found %s", elemType))
		}
		if !elemType.Struct.IsFixedWidth() {
			return diag.Failed[descriptor.Type](diag.New(te.Pos, "struct %q must be declared fixed-width to be used inline", elemType.Struct.Name()))
		}
		return diag.Active(descriptor.Type{Kind: descriptor.TInlineStruct, InlineStruct: elemType.Struct})
	})
}

func compileInlineList(sc scope.Scope, te ast.TypeExpr) diag.Outcome[descriptor.Type] {
	if len(te.Params) != 2 || te.Params[0].Type == nil || te.Params[1].Int == nil {
		return diag.Failed[descriptor.Type](diag.New(te.Pos, "%q requires a type and an integer size parameter", ast.NameString(te.Name)))
	}
	size := *te.Params[1].Int
	if size < 0 {
		return diag.Failed[descriptor.Type](diag.New(te.Params[1].Pos, "InlineList size must not be negative"))
	}
	elem := CompileType(sc, *te.Params[0].Type)
	return diag.AndThen(elem, func(elemType descriptor.Type) diag.Outcome[descriptor.Type] {
		if elemType.Kind == descriptor.TInlineStruct || elemType.Kind == descriptor.TInlineList {
			return diag.Failed[descriptor.Type](diag.New(te.Pos, "InlineList elements must not themselves be Inline or InlineList"))
		}
		if elemType.Kind == descriptor.TStruct && !elemType.Struct.IsFixedWidth() {
			return diag.Failed[descriptor.Type](diag.New(te.Pos, "struct %q must be declared fixed-width to be used in an InlineList", elemType.Struct.Name()))
		}
		e := elemType
		return diag.Active(descriptor.Type{Kind: descriptor.TInlineList, Elem: &e, Size: uint64(size)})
	})
}

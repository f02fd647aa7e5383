// Package annot compiles annotation applications against the reserved
// `id` annotation and user-declared Annotation descriptors (spec.md
// §4.4). It sits above scope and types: resolving an annotation name is
// an ordinary scope lookup, and its value is compiled the same way any
// other typed literal is.
package annot

import (
	"sort"

	"github.com/partylemon/capnproto/ast"
	"github.com/partylemon/capnproto/descriptor"
	"github.com/partylemon/capnproto/diag"
	"github.com/partylemon/capnproto/scope"
	"github.com/partylemon/capnproto/types"
)

// Result is the outcome of compiling one declaration's full annotation
// list: at most one id (from the first `id` application) plus the
// keyed map of every other annotation's compiled value.
type Result struct {
	Id      descriptor.Id
	HasId   bool
	Annots  descriptor.AnnotationMap
}

// Compile compiles every application in list against sc, restricted to
// declarations of targetKind, and folds them into a Result (spec §4.4).
func Compile(sc scope.Scope, targetKind ast.DeclKind, list []ast.AnnotationApp) (Result, diag.List) {
	var errs diag.List
	var res Result
	res.Annots = descriptor.AnnotationMap{}

	var idPositions []ast.Pos
	keyPositions := map[descriptor.Id][]ast.Pos{}

	for _, app := range list {
		resolved := scope.Lookup(sc, app.Name)
		d, ok := resolved.Value()
		errs = append(errs, resolved.Errors()...)
		if !ok {
			continue
		}
		d = scope.ResolveAlias(d)

		if b, ok := d.(descriptor.Builtin); ok && b.Kind == descriptor.BuiltinId {
			val := types.CompileValue(app.Value.ValuePos(), descriptor.Type{Kind: descriptor.TPrimitive, Primitive: descriptor.Text}, app.Value)
			errs = append(errs, val.Errors()...)
			cv, ok := val.Value()
			if !ok {
				continue
			}
			idPositions = append(idPositions, app.Pos)
			if len(idPositions) == 1 {
				res.Id = descriptor.Id(cv.Text)
				res.HasId = true
			}
			continue
		}

		ad, ok := d.(*descriptor.AnnotationDesc)
		if !ok {
			errs = append(errs, diag.New(app.Pos, "%q is not an annotation", ast.NameString(app.Name)))
			continue
		}
		if !ad.Targets[targetKind] {
			errs = append(errs, diag.New(app.Pos, "annotation %q cannot be applied to a %s", ad.Name(), targetKind))
			continue
		}
		val := types.CompileValue(app.Value.ValuePos(), ad.Type, app.Value)
		errs = append(errs, val.Errors()...)
		cv, ok := val.Value()
		if !ok {
			continue
		}
		key, hasKey := ad.Id()
		if !hasKey {
			// Annotations whose own declaration lacks an id are silently
			// dropped from the map, but their compile errors (if any)
			// were already appended above.
			continue
		}
		keyPositions[key] = append(keyPositions[key], app.Pos)
		if len(keyPositions[key]) == 1 {
			res.Annots[key] = cv
		}
	}

	if len(idPositions) > 1 {
		for _, pos := range idPositions[1:] {
			errs = append(errs, diag.New(pos, "duplicate %q annotation", "id"))
		}
	}

	for _, key := range sortedIdKeys(keyPositions) {
		positions := keyPositions[key]
		if len(positions) > 1 {
			for _, pos := range positions[1:] {
				errs = append(errs, diag.New(pos, "duplicate annotation for key %q", key))
			}
		}
	}

	return res, errs
}

func sortedIdKeys(m map[descriptor.Id][]ast.Pos) []descriptor.Id {
	keys := make([]descriptor.Id, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

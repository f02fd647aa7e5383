package capnproto

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/partylemon/capnproto/annot"
	"github.com/partylemon/capnproto/ast"
	"github.com/partylemon/capnproto/compiler"
	"github.com/partylemon/capnproto/descriptor"
	"github.com/partylemon/capnproto/diag"
	"github.com/partylemon/capnproto/scope"
)

// CompileFile implements the file driver (spec.md §4.8): it resolves
// src's distinct imports, compiles src's top-level declarations against
// a file scope that sees both the import table and the built-in table,
// and freezes the resulting descriptor.File through the self-
// referential two-phase construction spec §5/§9 describes (shell now,
// members once every child has taken its stable parent pointer). An
// import failure degrades to an empty substitute file rather than
// aborting, so this always returns an Active outcome: the caller can
// inspect both the (possibly defective) result and every diagnostic.
func CompileFile(cfg Config, src ast.File) diag.Outcome[*descriptor.File] {
	var errs diag.List
	for _, pe := range src.ParseErrors {
		errs = append(errs, diag.New(ast.Pos{File: src.Path}, "%v", pe))
	}

	imports, importErrs := resolveImports(cfg, src)
	errs = append(errs, importErrs...)

	shell := descriptor.NewFileShell(src.Path, imports)
	fileScope := scope.NewFileScope(shell)

	decls, compileErrs := compiler.CompileTopLevel(fileScope, src.Decls, cfg.maxOrdinal())
	errs = append(errs, compileErrs...)

	ares, aerrs := annot.Compile(fileScope, ast.KindFile, src.Annotations)
	errs = append(errs, aerrs...)

	shell.Freeze(decls, ares.Id, ares.HasId, ares.Annots)

	for dep := range collectRuntimeImports(shell, decls) {
		shell.AddRuntimeImport(dep)
	}

	return diag.Active(shell, errs...)
}

// Compile is a thin error-returning wrapper around CompileFile for
// callers who only want a plain Go error (SPEC_FULL §2.1), grounded on
// the teacher's reporter.ErrInvalidSource convention: the returned error,
// when non-nil, unwraps to diag.ErrCompilationFailed and formats every
// diagnostic, while the returned *descriptor.File is still usable (spec
// requires compilation to proceed past errors wherever possible).
func Compile(cfg Config, src ast.File) (*descriptor.File, error) {
	outcome := CompileFile(cfg, src)
	f, _ := outcome.Value()
	return f, outcome.Errors().Err()
}

// importJob is one distinct import name this file declares, paired with
// the first source position it was named at (for diagnostics).
type importJob struct {
	name string
	pos  ast.Pos
}

// resolveImports requests cfg.Resolver exactly once per distinct import
// name declared in src (spec §5: "each distinct import name is
// requested exactly once per file compilation"), bounded by
// cfg.MaxParallelism concurrent resolutions — grounded on compiler.go's
// executor, which threads a *semaphore.Weighted through its own
// dependency resolution for the same reason. An import the resolver
// could not produce is substituted with an empty file descriptor and
// recorded as a diagnostic (spec §4.8 step 2), never aborting the rest
// of the file's compilation.
func resolveImports(cfg Config, src ast.File) (map[string]*descriptor.File, diag.List) {
	var jobs []importJob
	seen := make(map[string]bool, len(src.Imports))
	for _, imp := range src.Imports {
		if seen[imp.Name] {
			continue
		}
		seen[imp.Name] = true
		jobs = append(jobs, importJob{name: imp.Name, pos: imp.Pos})
	}
	if len(jobs) == 0 {
		return map[string]*descriptor.File{}, nil
	}

	result := make(map[string]*descriptor.File, len(jobs))

	if cfg.Resolver == nil {
		var errs diag.List
		for _, j := range jobs {
			errs = append(errs, diag.New(j.pos, "no resolver configured for import %q", j.name))
			result[j.name] = emptyFile(j.name)
		}
		return result, errs
	}

	type outcome struct {
		f   *descriptor.File
		err error
	}
	outcomes := make([]outcome, len(jobs))

	sem := semaphore.NewWeighted(cfg.maxParallelism())
	ctx := context.Background()
	var wg sync.WaitGroup
	for i, j := range jobs {
		i, j := i, j
		if err := sem.Acquire(ctx, 1); err != nil {
			// ctx is Background and never cancels; reaching here would be
			// an internal bug, not a user-facing condition.
			slog.Error("bug: failed to acquire import-resolution semaphore", "import", j.name, "err", err)
			outcomes[i] = outcome{err: err}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			f, err := cfg.Resolver.ResolveImport(j.name)
			outcomes[i] = outcome{f: f, err: err}
		}()
	}
	wg.Wait()

	var errs diag.List
	for i, o := range outcomes {
		j := jobs[i]
		if o.err == nil && o.f == nil {
			slog.Error("bug: resolver returned neither a file nor an error", "import", j.name)
			o.err = fmt.Errorf("resolver returned no file for %q", j.name)
		}
		if o.err != nil {
			errs = append(errs, diag.New(j.pos, "could not resolve import %q: %v", j.name, o.err))
			result[j.name] = emptyFile(j.name)
			continue
		}
		result[j.name] = o.f
	}
	return result, errs
}

// collectRuntimeImports computes the transitive closure of files
// referenced by non-built-in types appearing in decls (spec §4.8): the
// direct references found by walking every compiled declaration's types,
// unioned with each direct dependency's own already-computed
// RuntimeImports (a dependency's dependencies are this file's
// dependencies too).
func collectRuntimeImports(self *descriptor.File, decls []descriptor.Descriptor) map[*descriptor.File]struct{} {
	out := map[*descriptor.File]struct{}{}
	for _, d := range decls {
		walkDeclForImports(self, d, out)
	}
	direct := make([]*descriptor.File, 0, len(out))
	for f := range out {
		direct = append(direct, f)
	}
	for _, f := range direct {
		for _, dep := range f.RuntimeImports() {
			if dep != self {
				out[dep] = struct{}{}
			}
		}
	}
	return out
}

func walkDeclForImports(self *descriptor.File, d descriptor.Descriptor, out map[*descriptor.File]struct{}) {
	switch v := d.(type) {
	case *descriptor.UsingDesc:
		recordDescriptorFile(self, v.Target, out)
	case *descriptor.ConstantDesc:
		recordTypeFile(self, v.Type, out)
	case *descriptor.AnnotationDesc:
		recordTypeFile(self, v.Type, out)
	case *descriptor.StructDesc:
		for _, n := range v.Nested() {
			walkDeclForImports(self, n, out)
		}
		for _, f := range v.Fields() {
			recordTypeFile(self, f.Type, out)
		}
		for _, u := range v.Unions() {
			for _, f := range u.Fields() {
				recordTypeFile(self, f.Type, out)
			}
		}
	case *descriptor.InterfaceDesc:
		for _, n := range v.Nested() {
			walkDeclForImports(self, n, out)
		}
		for _, m := range v.Methods() {
			if m.ReturnType != nil {
				recordTypeFile(self, *m.ReturnType, out)
			}
			for _, p := range m.Params() {
				recordTypeFile(self, p.Type, out)
			}
		}
	}
}

func recordTypeFile(self *descriptor.File, t descriptor.Type, out map[*descriptor.File]struct{}) {
	switch t.Kind {
	case descriptor.TEnum:
		recordDescriptorFile(self, t.Enum, out)
	case descriptor.TStruct:
		recordDescriptorFile(self, t.Struct, out)
	case descriptor.TInterface:
		recordDescriptorFile(self, t.Interface, out)
	case descriptor.TInlineStruct:
		recordDescriptorFile(self, t.InlineStruct, out)
	case descriptor.TList, descriptor.TInlineList:
		if t.Elem != nil {
			recordTypeFile(self, *t.Elem, out)
		}
	}
}

func recordDescriptorFile(self *descriptor.File, d descriptor.Descriptor, out map[*descriptor.File]struct{}) {
	if d == nil {
		return
	}
	root := descriptor.Root(d)
	if root != nil && root != self {
		out[root] = struct{}{}
	}
}

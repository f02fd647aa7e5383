package descriptor

import (
	"github.com/partylemon/capnproto/ast"
	art "github.com/plar/go-adaptive-radix-tree"
)

// File is the root descriptor of a compiled source file (spec §3.3,
// §4.8). Its top-level member table is backed by an adaptive radix tree
// rather than a bare map; it serves name lookup (Member) only, and the
// declaration order is kept separately in decls.
type File struct {
	base
	imports map[string]*File // import name -> resolved file
	decls   []Descriptor     // top-level declarations, declaration order
	members art.Tree         // name -> Descriptor, for lookup by name

	// runtimeImports is the transitive closure of files referenced by
	// non-built-in types appearing in this file's members (spec §4.8).
	runtimeImports map[*File]struct{}
}

// NewFileShell allocates an empty, as-yet unpopulated File so that child
// declarations compiled against it can take a stable *File parent
// pointer before the file's own member table and decl list are known
// (the self-referential construction pattern, spec §5/§9).
func NewFileShell(path string, imports map[string]*File) *File {
	return &File{
		base:           newBase(path, ast.Pos{File: path}, nil),
		imports:        imports,
		members:        art.New(),
		runtimeImports: make(map[*File]struct{}),
	}
}

// Freeze finalizes f with its compiled top-level declarations and
// file-level annotations. Must be called exactly once, after every
// declaration that takes f as a parent has finished compiling.
func (f *File) Freeze(decls []Descriptor, id Id, hasID bool, annots AnnotationMap) {
	f.decls = decls
	f.Finish(id, hasID, annots)
	for _, d := range decls {
		f.members.Insert(art.Key(d.Name()), d)
	}
}

func (f *File) Path() string { return f.Name() }
func (f *File) Decls() []Descriptor   { return f.decls }
func (f *File) Imports() map[string]*File { return f.imports }

// Member looks up a direct top-level member by name.
func (f *File) Member(name string) (Descriptor, bool) {
	v, found := f.members.Search(art.Key(name))
	if !found {
		return nil, false
	}
	return v.(Descriptor), true
}

// Import looks up an entry in the file's import table.
func (f *File) Import(name string) (*File, bool) {
	imp, ok := f.imports[name]
	return imp, ok
}

// AddRuntimeImport records that f's members reference a type from dep.
func (f *File) AddRuntimeImport(dep *File) {
	if dep == nil || dep == f {
		return
	}
	f.runtimeImports[dep] = struct{}{}
}

// RuntimeImports returns the transitive closure of files referenced by
// non-built-in types appearing in f's members (spec §4.8).
func (f *File) RuntimeImports() []*File {
	out := make([]*File, 0, len(f.runtimeImports))
	for d := range f.runtimeImports {
		out = append(out, d)
	}
	return out
}

var _ Descriptor = (*File)(nil)

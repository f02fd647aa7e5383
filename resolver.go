package capnproto

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/partylemon/capnproto/ast"
	"github.com/partylemon/capnproto/descriptor"
)

// Resolver is the import callback contract of spec.md §6.2: given a
// distinct import name declared by the file under compilation, it
// returns that file already compiled, or an error. Implementations must
// be safe for concurrent use: a single CompileFile call may invoke
// ResolveImport for distinct names from multiple goroutines at once
// (spec §5), though each distinct name is requested exactly once.
type Resolver interface {
	ResolveImport(name string) (*descriptor.File, error)
}

// ResolverFunc is a simple function type that implements Resolver,
// grounded on the teacher's ResolverFunc in resolver.go.
type ResolverFunc func(name string) (*descriptor.File, error)

var _ Resolver = ResolverFunc(nil)

func (f ResolverFunc) ResolveImport(name string) (*descriptor.File, error) { return f(name) }

// CompositeResolver consults a slice of resolvers in order until one
// supplies a result, grounded on the teacher's CompositeResolver. If
// none can, the first resolver's error is returned (or a generic
// not-found error if the slice is empty).
type CompositeResolver []Resolver

var _ Resolver = CompositeResolver(nil)

func (c CompositeResolver) ResolveImport(name string) (*descriptor.File, error) {
	var firstErr error
	for _, r := range c {
		f, err := r.ResolveImport(name)
		if err == nil {
			return f, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = fmt.Errorf("%s: no resolver configured", name)
	}
	return nil, firstErr
}

// Parser is the external parser contract of spec.md §6.1: given a file's
// resolved path and its source text, produce its declarations, file-
// level annotations, declared imports, and parse errors. The lexer and
// grammar behind this function are entirely out of this module's scope
// (spec §1); SourceResolver only needs something satisfying this shape
// to turn source text into an ast.File it can then compile itself.
type Parser func(path string, source string) ast.File

// SourceResolver resolves an import name to source text — by default
// from the file system, optionally rooted at a list of import paths —
// parses it with Parser, and recursively compiles the result with cfg,
// so that a host need only supply a parser to get whole-program import
// resolution "for free". Grounded on the teacher's SourceResolver in
// resolver.go (ImportPaths + Accessor + os.Open fallback), adapted to
// return a compiled *descriptor.File instead of raw source/AST, since
// this module's Resolver contract is already one level past parsing.
type SourceResolver struct {
	// ImportPaths is an optional list of directories an import name is
	// resolved relative to. If empty, names are resolved relative to the
	// current working directory.
	ImportPaths []string
	// Accessor returns a file's contents. If nil, os.Open is used.
	Accessor func(path string) (io.ReadCloser, error)
	// Parser turns source text into a declaration tree. Required.
	Parser Parser
	// Config is used to recursively compile the resolved import; its
	// Resolver field is ignored and replaced with this SourceResolver,
	// so that the import's own imports resolve the same way.
	Config Config
}

var _ Resolver = (*SourceResolver)(nil)

func (r *SourceResolver) ResolveImport(name string) (*descriptor.File, error) {
	resolvedPath, src, err := r.readSource(name)
	if err != nil {
		return nil, err
	}
	parsed := r.Parser(resolvedPath, src)

	cfg := r.Config
	cfg.Resolver = r
	outcome := CompileFile(cfg, parsed)
	f, ok := outcome.Value()
	if !ok {
		return nil, outcome.Errors().Err()
	}
	return f, nil
}

func (r *SourceResolver) readSource(name string) (resolvedPath string, source string, err error) {
	if len(r.ImportPaths) == 0 {
		rc, err := r.open(name)
		if err != nil {
			return "", "", err
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return "", "", err
		}
		return name, string(b), nil
	}

	var firstErr error
	for _, dir := range r.ImportPaths {
		candidate := name
		if !strings.HasPrefix(name, dir) {
			candidate = filepath.Join(dir, name)
		}
		rc, err := r.open(candidate)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", "", err
		}
		rel, relErr := filepath.Rel(dir, candidate)
		if relErr != nil {
			rel = candidate
		}
		return rel, string(b), nil
	}
	return "", "", firstErr
}

func (r *SourceResolver) open(path string) (io.ReadCloser, error) {
	if r.Accessor != nil {
		return r.Accessor(path)
	}
	return os.Open(path)
}

// SourceAccessorFromMap returns an Accessor backed by an in-memory map of
// file name to contents, grounded on the teacher's
// SourceAccessorFromMap. The map is used directly, not copied, and must
// not be mutated once in use (Accessor must be safe for concurrent
// reads, per Resolver's contract).
func SourceAccessorFromMap(srcs map[string]string) func(string) (io.ReadCloser, error) {
	return func(path string) (io.ReadCloser, error) {
		src, ok := srcs[path]
		if !ok {
			return nil, os.ErrNotExist
		}
		return io.NopCloser(strings.NewReader(src)), nil
	}
}

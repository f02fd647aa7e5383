// Package capnproto is the semantic analyzer and wire-layout planner for a
// structured, statically typed interface description language (spec.md
// §1): it consumes an already-parsed declaration tree and produces a
// fully resolved, numerically laid-out descriptor tree plus accumulated
// diagnostics. Lexing, parsing, code generation, and the file-system
// import loop are all external collaborators (spec §1's non-goals); this
// package models the import loop as the Resolver contract below and
// leaves parsing to whatever the host plugs into ast.File.
package capnproto

import "github.com/partylemon/capnproto/descriptor"

// DefaultMaxOrdinal is the maximum representable 16-bit field/method
// ordinal used by the reference binary encoding (spec §4.5, §9).
const DefaultMaxOrdinal uint16 = 65534

// Config carries the few knobs the core exposes to its host (SPEC_FULL
// §2.3), grounded on the teacher's Compiler struct in compiler.go.
type Config struct {
	// MaxOrdinal bounds every declaration number (spec §4.5). Zero means
	// DefaultMaxOrdinal.
	MaxOrdinal uint16

	// MaxParallelism bounds the import-resolution semaphore (spec §5's
	// one concurrency boundary). Zero or negative means no import is
	// resolved concurrently with another (effectively 1).
	MaxParallelism int

	// Resolver satisfies the import callback contract (spec §6.2): given
	// a distinct import name, it returns the already-compiled file it
	// names, or an error. Required whenever the file under compilation
	// declares at least one import.
	Resolver Resolver
}

func (c Config) maxOrdinal() uint16 {
	if c.MaxOrdinal == 0 {
		return DefaultMaxOrdinal
	}
	return c.MaxOrdinal
}

func (c Config) maxParallelism() int64 {
	if c.MaxParallelism <= 0 {
		return 1
	}
	return int64(c.MaxParallelism)
}

// emptyFile builds the placeholder substituted for an import the
// Resolver could not produce (spec §4.8 step 2: "substitute an empty
// file descriptor so compilation can proceed").
func emptyFile(name string) *descriptor.File {
	f := descriptor.NewFileShell(name, nil)
	f.Freeze(nil, "", false, descriptor.AnnotationMap{})
	return f
}

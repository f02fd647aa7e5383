// Package compiler recursively compiles a parsed declaration tree into a
// descriptor tree (spec.md §4.7): resolving each declaration's type and
// default against its enclosing scope, enforcing the numbering and
// uniqueness rules of §4.5, and — for structs — handing the result to
// the layout packer (§4.6) before freezing. It sits above scope/types/
// annot/numbering/layout, which all sit above descriptor, so the
// declaration compiler cannot live in descriptor itself without an
// import cycle.
package compiler

import (
	"github.com/partylemon/capnproto/ast"
	"github.com/partylemon/capnproto/numbering"
)

// item adapts a name/number/position triple to numbering.Item.
type item struct {
	number uint16
	name   string
	pos    ast.Pos
}

func (it item) ItemNumber() uint16 { return it.number }
func (it item) ItemName() string   { return it.name }
func (it item) ItemPos() ast.Pos   { return it.pos }

var _ numbering.Item = item{}

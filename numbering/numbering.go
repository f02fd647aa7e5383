// Package numbering implements the declaration-numbering and uniqueness
// validators shared by enumerants, fields and methods (spec.md §4.5):
// sequential numbering, an ordinal bound, duplicate-name detection, and
// the union retrofit rule. These checks are purely positional/nominal —
// they never need a descriptor, so they operate over a small interface
// any numbered, named, positioned item can satisfy.
package numbering

import (
	"sort"

	"github.com/partylemon/capnproto/ast"
	"github.com/partylemon/capnproto/diag"
)

// Item is anything a numbering/uniqueness check can validate: a
// declaration number, a name, and the source position to blame.
type Item interface {
	ItemNumber() uint16
	ItemName() string
	ItemPos() ast.Pos
}

// CheckSequential verifies items' numbers form 0, 1, 2, … with no gaps
// or repeats, for a given kind label used in diagnostics ("Enumerants",
// "Fields", "Methods").
func CheckSequential(kind string, items []Item) diag.List {
	var errs diag.List
	if len(items) == 0 {
		return errs
	}

	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ItemNumber() < sorted[j].ItemNumber() })

	seen := map[uint16]ast.Pos{}
	for _, it := range sorted {
		if prev, ok := seen[it.ItemNumber()]; ok {
			errs = append(errs, diag.Wrap(it.ItemPos(), &diag.DuplicateNumberError{Kind: kind, Number: it.ItemNumber(), Previous: prev}))
			errs = append(errs, diag.Wrap(prev, &diag.DuplicateNumberError{Kind: kind, Number: it.ItemNumber(), Previous: it.ItemPos()}))
			continue
		}
		seen[it.ItemNumber()] = it.ItemPos()
	}

	for want := uint16(0); int(want) < len(items); want++ {
		if _, ok := seen[want]; !ok {
			errs = append(errs, diag.New(sorted[0].ItemPos(), "%s are missing number %d", kind, want))
			break
		}
	}

	return errs
}

// CheckOrdinal verifies every item's number is within [0, maxOrdinal].
func CheckOrdinal(items []Item, maxOrdinal uint16) diag.List {
	var errs diag.List
	for _, it := range items {
		if it.ItemNumber() > maxOrdinal {
			errs = append(errs, diag.Wrap(it.ItemPos(), &diag.OrdinalOutOfRangeError{Number: it.ItemNumber(), Max: maxOrdinal}))
		}
	}
	return errs
}

// CheckUniqueNames reports sibling declarations sharing a name.
func CheckUniqueNames(items []Item) diag.List {
	var errs diag.List
	first := map[string]ast.Pos{}
	for _, it := range items {
		if prev, ok := first[it.ItemName()]; ok {
			errs = append(errs, diag.Wrap(it.ItemPos(), &diag.DuplicateNameError{Name: it.ItemName(), Previous: prev}))
			continue
		}
		first[it.ItemName()] = it.ItemPos()
	}
	return errs
}

// CheckUnionRetrofit enforces that a union declared with number
// unionNumber has at most one member field numbered below it (spec
// §4.5: at most one field may predate the union's own number).
func CheckUnionRetrofit(unionPos ast.Pos, unionNumber uint16, fields []Item) diag.List {
	var below []Item
	for _, f := range fields {
		if f.ItemNumber() < unionNumber {
			below = append(below, f)
		}
	}
	if len(below) <= 1 {
		return nil
	}
	var errs diag.List
	for _, f := range below {
		errs = append(errs, diag.New(f.ItemPos(), "field %q predates union number %d; at most one field may", f.ItemName(), unionNumber))
	}
	return errs
}

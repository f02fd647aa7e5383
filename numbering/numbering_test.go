package numbering

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/partylemon/capnproto/ast"
)

// testItem is a minimal Item for exercising the validators directly,
// without needing a real descriptor.
type testItem struct {
	number uint16
	name   string
	pos    ast.Pos
}

func (t testItem) ItemNumber() uint16 { return t.number }
func (t testItem) ItemName() string   { return t.name }
func (t testItem) ItemPos() ast.Pos   { return t.pos }

func items(pairs ...testItem) []Item {
	out := make([]Item, len(pairs))
	for i, p := range pairs {
		out[i] = p
	}
	return out
}

func TestCheckSequentialAcceptsContiguousNumbers(t *testing.T) {
	errs := CheckSequential("Fields", items(
		testItem{number: 0, name: "a", pos: ast.Pos{Line: 1}},
		testItem{number: 1, name: "b", pos: ast.Pos{Line: 2}},
		testItem{number: 2, name: "c", pos: ast.Pos{Line: 3}},
	))
	assert.Empty(t, errs)
}

func TestCheckSequentialAcceptsOutOfDeclarationOrder(t *testing.T) {
	errs := CheckSequential("Fields", items(
		testItem{number: 2, name: "c", pos: ast.Pos{Line: 3}},
		testItem{number: 0, name: "a", pos: ast.Pos{Line: 1}},
		testItem{number: 1, name: "b", pos: ast.Pos{Line: 2}},
	))
	assert.Empty(t, errs)
}

func TestCheckSequentialRejectsGap(t *testing.T) {
	errs := CheckSequential("Fields", items(
		testItem{number: 0, name: "a", pos: ast.Pos{Line: 1}},
		testItem{number: 2, name: "b", pos: ast.Pos{Line: 2}},
	))
	assert.NotEmpty(t, errs)
	assert.Contains(t, errs.Error(), "missing number 1")
}

func TestCheckSequentialRejectsDuplicateNumber(t *testing.T) {
	errs := CheckSequential("Fields", items(
		testItem{number: 0, name: "a", pos: ast.Pos{Line: 1}},
		testItem{number: 0, name: "b", pos: ast.Pos{Line: 2}},
	))
	assert.NotEmpty(t, errs)
	assert.Contains(t, errs.Error(), "number 0 already used")
}

func TestCheckSequentialEmptyIsFine(t *testing.T) {
	assert.Empty(t, CheckSequential("Fields", nil))
}

func TestCheckOrdinalRejectsAboveMax(t *testing.T) {
	errs := CheckOrdinal(items(
		testItem{number: 0, name: "a"},
		testItem{number: 5, name: "b"},
	), 4)
	assert.Len(t, errs, 1)
	assert.Contains(t, errs.Error(), "exceeds maximum of 4")
}

func TestCheckOrdinalAcceptsAtMax(t *testing.T) {
	errs := CheckOrdinal(items(testItem{number: 4, name: "a"}), 4)
	assert.Empty(t, errs)
}

func TestCheckUniqueNamesRejectsSiblingCollision(t *testing.T) {
	errs := CheckUniqueNames(items(
		testItem{number: 0, name: "foo", pos: ast.Pos{Line: 1}},
		testItem{number: 1, name: "foo", pos: ast.Pos{Line: 2}},
	))
	assert.Len(t, errs, 1)
	assert.Contains(t, errs.Error(), `"foo" already declared`)
}

func TestCheckUniqueNamesAcceptsDistinctNames(t *testing.T) {
	errs := CheckUniqueNames(items(
		testItem{number: 0, name: "foo"},
		testItem{number: 1, name: "bar"},
	))
	assert.Empty(t, errs)
}

func TestCheckUnionRetrofitAcceptsAtMostOneEarlierField(t *testing.T) {
	errs := CheckUnionRetrofit(ast.Pos{Line: 5}, 3, items(
		testItem{number: 1, name: "early"},
		testItem{number: 4, name: "late"},
	))
	assert.Empty(t, errs)
}

func TestCheckUnionRetrofitRejectsTwoEarlierFields(t *testing.T) {
	errs := CheckUnionRetrofit(ast.Pos{Line: 5}, 3, items(
		testItem{number: 0, name: "a"},
		testItem{number: 1, name: "b"},
		testItem{number: 4, name: "c"},
	))
	assert.Len(t, errs, 2)
	assert.Contains(t, errs.Error(), `predates union number 3`)
}

func TestCheckUnionRetrofitAcceptsNoEarlierFields(t *testing.T) {
	errs := CheckUnionRetrofit(ast.Pos{}, 0, items(
		testItem{number: 1, name: "a"},
		testItem{number: 2, name: "b"},
	))
	assert.Empty(t, errs)
}

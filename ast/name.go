package ast

// Name is a symbolic reference to a declaration, as written in source.
// It is one of AbsoluteName, RelativeName, ImportName or MemberName.
type Name interface {
	namePos() Pos
}

// AbsoluteName is a root-anchored identifier, resolved from file scope only.
type AbsoluteName struct {
	Ident string
	Pos   Pos
}

func (n AbsoluteName) namePos() Pos { return n.Pos }

// RelativeName is an unqualified identifier resolved via a scope walk.
type RelativeName struct {
	Ident string
	Pos   Pos
}

func (n RelativeName) namePos() Pos { return n.Pos }

// ImportName names an entry in the compiling file's import table.
type ImportName struct {
	Ident string
	Pos   Pos
}

func (n ImportName) namePos() Pos { return n.Pos }

// MemberName is a dotted-path selection: Leaf resolved as a member of
// whatever Parent resolves to.
type MemberName struct {
	Parent Name
	Leaf   string
	Pos    Pos
}

func (n MemberName) namePos() Pos { return n.Pos }

// NamePos returns the source position of any Name variant.
func NamePos(n Name) Pos { return n.namePos() }

// NameString renders a Name the way it appeared in source, for
// diagnostics. Absolute/import names keep their sigil; member names
// recurse into their parent.
func NameString(n Name) string {
	switch v := n.(type) {
	case AbsoluteName:
		return "." + v.Ident
	case RelativeName:
		return v.Ident
	case ImportName:
		return "import:" + v.Ident
	case MemberName:
		return NameString(v.Parent) + "." + v.Leaf
	default:
		return "?"
	}
}

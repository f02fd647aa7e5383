package ast

// Decl is any top-level or nested declaration node.
type Decl interface {
	DeclPos() Pos
	DeclName() string
}

// AnnotationApp is a single annotation application at a declaration site:
// `$name(value)`.
type AnnotationApp struct {
	Name  Name
	Value Value
	Pos   Pos
}

type UsingDecl struct {
	Name   string
	Target Name
	Pos    Pos
}

func (d UsingDecl) DeclPos() Pos    { return d.Pos }
func (d UsingDecl) DeclName() string { return d.Name }

type ConstantDecl struct {
	Name        string
	Type        TypeExpr
	Value       Value
	Annotations []AnnotationApp
	Pos         Pos
}

func (d ConstantDecl) DeclPos() Pos    { return d.Pos }
func (d ConstantDecl) DeclName() string { return d.Name }

type EnumDecl struct {
	Name        string
	Body        []Decl
	Annotations []AnnotationApp
	Pos         Pos
}

func (d EnumDecl) DeclPos() Pos    { return d.Pos }
func (d EnumDecl) DeclName() string { return d.Name }

type EnumerantDecl struct {
	Name        string
	Number      uint16
	Annotations []AnnotationApp
	Pos         Pos
}

func (d EnumerantDecl) DeclPos() Pos    { return d.Pos }
func (d EnumerantDecl) DeclName() string { return d.Name }

// FixedSpec is a struct's optional `fixed(dataBits, pointerCount)` clause.
type FixedSpec struct {
	DataBits     uint32
	PointerCount uint32
	Pos          Pos
}

type StructDecl struct {
	Name        string
	Fixed       *FixedSpec
	Annotations []AnnotationApp
	Body        []Decl
	Pos         Pos
}

func (d StructDecl) DeclPos() Pos    { return d.Pos }
func (d StructDecl) DeclName() string { return d.Name }

type UnionDecl struct {
	Name        string
	Number      uint16
	Annotations []AnnotationApp
	Body        []Decl
	Pos         Pos
}

func (d UnionDecl) DeclPos() Pos    { return d.Pos }
func (d UnionDecl) DeclName() string { return d.Name }

type FieldDecl struct {
	Name        string
	Number      uint16
	Type        TypeExpr
	Annotations []AnnotationApp
	Default     Value // nil if absent
	Pos         Pos
}

func (d FieldDecl) DeclPos() Pos    { return d.Pos }
func (d FieldDecl) DeclName() string { return d.Name }

type InterfaceDecl struct {
	Name        string
	Body        []Decl
	Annotations []AnnotationApp
	Pos         Pos
}

func (d InterfaceDecl) DeclPos() Pos    { return d.Pos }
func (d InterfaceDecl) DeclName() string { return d.Name }

type MethodDecl struct {
	Name        string
	Number      uint16
	Params      []ParamDecl
	ReturnType  *TypeExpr
	Annotations []AnnotationApp
	Pos         Pos
}

func (d MethodDecl) DeclPos() Pos    { return d.Pos }
func (d MethodDecl) DeclName() string { return d.Name }

type ParamDecl struct {
	Name        string
	Type        TypeExpr
	Annotations []AnnotationApp
	Default     Value
	Pos         Pos
}

func (d ParamDecl) DeclPos() Pos    { return d.Pos }
func (d ParamDecl) DeclName() string { return d.Name }

// AnnotationDecl declares a new annotation usable elsewhere in the file.
type AnnotationDecl struct {
	Name        string
	Type        TypeExpr
	Targets     []DeclKind
	Annotations []AnnotationApp
	Pos         Pos
}

func (d AnnotationDecl) DeclPos() Pos    { return d.Pos }
func (d AnnotationDecl) DeclName() string { return d.Name }

// DeclKind identifies the syntactic kind of a declaration, used both for
// scope-membership checks (spec §4.7) and for annotation target sets
// (spec §4.4).
type DeclKind int

const (
	KindFile DeclKind = iota
	KindUsing
	KindConstant
	KindEnum
	KindEnumerant
	KindStruct
	KindUnion
	KindField
	KindInterface
	KindMethod
	KindParam
	KindAnnotation
)

func (k DeclKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindUsing:
		return "using"
	case KindConstant:
		return "const"
	case KindEnum:
		return "enum"
	case KindEnumerant:
		return "enumerant"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindField:
		return "field"
	case KindInterface:
		return "interface"
	case KindMethod:
		return "method"
	case KindParam:
		return "param"
	case KindAnnotation:
		return "annotation"
	default:
		return "unknown"
	}
}

// ImportDecl names one file this source depends on, as written.
type ImportDecl struct {
	Name string
	Pos  Pos
}

// File is the parser's top-level output for one source file (spec §6.1):
// declarations, file-level annotations, declared imports, and parse
// errors.
type File struct {
	Path        string
	Imports     []ImportDecl
	Decls       []Decl
	Annotations []AnnotationApp
	ParseErrors []error
}

package hls

// SchemaKind distinguishes the three schema declaration prefixes.
type SchemaKind string

const (
	KindNode   SchemaKind = "N"
	KindEdge   SchemaKind = "E"
	KindVector SchemaKind = "V"
)

func (k SchemaKind) Describe() string {
	switch k {
	case KindNode:
		return "node"
	case KindEdge:
		return "edge"
	case KindVector:
		return "vector"
	}
	return "?"
}

// PrimitiveTypes are the recognized scalar type tags for properties and
// query parameters. Anything else in type position is an UnknownType at
// validation time.
var PrimitiveTypes = []string{
	"String",
	"Boolean",
	"F32",
	"F64",
	"I8",
	"I16",
	"I32",
	"I64",
	"U8",
	"U16",
	"U32",
	"U64",
	"U128",
	"ID",
	"Date",
	"Uuid",
}

var primitiveIndex = func() map[string]bool {
	m := make(map[string]bool, len(PrimitiveTypes))
	for _, name := range PrimitiveTypes {
		m[name] = true
	}
	return m
}()

func IsPrimitiveType(name string) bool {
	return primitiveIndex[name]
}

// File is the parse result for one document. Declarations keep source
// order within their kind. A File is immutable once the parser returns it.
type File struct {
	Name    string        `json:"name,omitempty"`
	Schemas []*SchemaDecl `json:"schemas,omitempty"`
	Queries []*QueryDecl  `json:"queries,omitempty"`
}

// TypeRef is a property or parameter type as written: a primitive tag or
// an array of one ([Tag]).
type TypeRef struct {
	Name  string `json:"name"`
	Array bool   `json:"array,omitempty"`
	Span  Span   `json:"span"`
}

func (t TypeRef) String() string {
	if t.Array {
		return "[" + t.Name + "]"
	}
	return t.Name
}

type SchemaDecl struct {
	Kind       SchemaKind      `json:"kind"`
	Name       string          `json:"name"`
	From       string          `json:"from,omitempty"` // edge only
	To         string          `json:"to,omitempty"`   // edge only
	Properties []*PropertyDecl `json:"properties,omitempty"`
	Comment    string          `json:"comment,omitempty"`
	Span       Span            `json:"span"`
	NameSpan   Span            `json:"nameSpan"`
	FromSpan   Span            `json:"fromSpan,omitempty"`
	ToSpan     Span            `json:"toSpan,omitempty"`
}

// Property returns the named property declaration, or nil.
func (d *SchemaDecl) Property(name string) *PropertyDecl {
	for _, p := range d.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

type PropertyDecl struct {
	Name    string   `json:"name"`
	Type    TypeRef  `json:"type"`
	Index   bool     `json:"index,omitempty"`
	Now     bool     `json:"now,omitempty"`
	Default *Literal `json:"default,omitempty"`
	Comment string   `json:"comment,omitempty"`
	Span    Span     `json:"span"`
}

type QueryDecl struct {
	Name       string       `json:"name"`
	Params     []*ParamDecl `json:"params,omitempty"`
	Statements []*Statement `json:"statements,omitempty"`
	Comment    string       `json:"comment,omitempty"`
	Span       Span         `json:"span"`
	NameSpan   Span         `json:"nameSpan"`
}

type ParamDecl struct {
	Name string  `json:"name"`
	Type TypeRef `json:"type"`
	Span Span    `json:"span"`
}

// Statement is one of assignment, RETURN, or DROP. Exactly one field is
// non-nil.
type Statement struct {
	Assign *AssignStatement `json:"assign,omitempty"`
	Return *ReturnStatement `json:"return,omitempty"`
	Drop   *DropStatement   `json:"drop,omitempty"`
}

func (s *Statement) Span() Span {
	switch {
	case s.Assign != nil:
		return s.Assign.Span
	case s.Return != nil:
		return s.Return.Span
	case s.Drop != nil:
		return s.Drop.Span
	}
	return Span{}
}

type AssignStatement struct {
	Name string `json:"name"`
	Expr *Expr  `json:"expr"`
	Span Span   `json:"span"`
}

type ReturnStatement struct {
	Exprs []*Expr `json:"exprs,omitempty"`
	Span  Span    `json:"span"`
}

type DropStatement struct {
	Expr *Expr `json:"expr"`
	Span Span  `json:"span"`
}

// ExprKind tags the Expr variant.
type ExprKind string

const (
	ExprSource     ExprKind = "source"   // N, E, V roots
	ExprCreation   ExprKind = "creation" // AddN, AddE, AddV, BatchAddV, SearchV
	ExprStep       ExprKind = "step"     // ::Op applied to Base
	ExprFieldBlock ExprKind = "fields"   // ::{a,b} or ::!{a,b} applied to Base
	ExprIdent      ExprKind = "ident"
	ExprLiteral    ExprKind = "literal"
	ExprObject     ExprKind = "object"
	ExprCall       ExprKind = "call" // EXISTS(...), AND(...), OR(...)
)

// Expr is a tagged variant. Which fields are meaningful depends on Kind:
//
//	source:   Op (N|E|V), TypeArg, Args
//	creation: Op (AddN|AddE|AddV|BatchAddV|SearchV), TypeArg, Args
//	step:     Base, Op, TypeArg, Args
//	fields:   Base, Fields, Exclude
//	ident:    Name
//	literal:  Value
//	object:   Object
//	call:     Op, Args
type Expr struct {
	Kind        ExprKind       `json:"kind"`
	Op          string         `json:"op,omitempty"`
	OpSpan      Span           `json:"opSpan,omitempty"`
	TypeArg     string         `json:"typeArg,omitempty"`
	TypeArgSpan Span           `json:"typeArgSpan,omitempty"`
	Base        *Expr          `json:"base,omitempty"`
	Args        []*Expr        `json:"args,omitempty"`
	Object      []*ObjectField `json:"object,omitempty"`
	Fields      []*FieldRef    `json:"fields,omitempty"`
	Exclude     bool           `json:"exclude,omitempty"`
	Name        string         `json:"name,omitempty"`
	Value       *Literal       `json:"value,omitempty"`
	Span        Span           `json:"span"`
}

type ObjectField struct {
	Key   string `json:"key"`
	Value *Expr  `json:"value"`
	Span  Span   `json:"span"`
}

// FieldRef is one name inside a field block.
type FieldRef struct {
	Name string `json:"name"`
	Span Span   `json:"span"`
}

type LiteralKind string

const (
	LiteralString LiteralKind = "string"
	LiteralNumber LiteralKind = "number"
	LiteralBool   LiteralKind = "bool"
	LiteralNone   LiteralKind = "none"
)

// Literal keeps the raw source text so the unparser can reproduce the
// number exactly as written.
type Literal struct {
	Kind LiteralKind `json:"litKind"`
	Text string      `json:"text"`
}

// Source operator sets. The parser is permissive about identifiers in
// general, but these fixed sets decide which production a symbol starts.
var sourceOps = map[string]bool{
	"N": true,
	"E": true,
	"V": true,
}

var creationOps = map[string]bool{
	"AddN":      true,
	"AddE":      true,
	"AddV":      true,
	"BatchAddV": true,
	"SearchV":   true,
}

// typeArgOps take a <Type> argument; seeing one of these puts the parser
// in type position, where `<` opens a generic argument rather than being
// an ordinary angle token.
var typeArgOps = map[string]bool{
	"N": true, "E": true, "V": true,
	"AddN": true, "AddE": true, "AddV": true, "BatchAddV": true, "SearchV": true,
	"Out": true, "In": true, "OutE": true, "InE": true, "ShortestPath": true,
}

// predicateOps combine or test conditions inside WHERE arguments.
var predicateOps = map[string]bool{
	"EXISTS": true,
	"AND":    true,
	"OR":     true,
	"NONE":   true,
}

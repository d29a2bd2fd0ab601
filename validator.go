package hls

// TypeClass classifies an inferred result type.
type TypeClass int

const (
	ClassUnknown TypeClass = iota
	ClassNode
	ClassEdge
	ClassVector
	ClassScalar
)

func (c TypeClass) String() string {
	switch c {
	case ClassNode:
		return "node"
	case ClassEdge:
		return "edge"
	case ClassVector:
		return "vector"
	case ClassScalar:
		return "scalar"
	}
	return "unknown"
}

// ResultType is the inferred type of a sub-expression. Unknown is the
// error sentinel: once a chain goes Unknown, downstream checks are
// suppressed so one mistake does not fan out into spurious diagnostics.
// A schema-classed type with an empty Name is anonymous (an untyped
// source like bare N); it is valid but exempt from membership checks.
type ResultType struct {
	Class      TypeClass
	Name       string // type name, or scalar tag
	Collection bool
}

// Unknown is the error sentinel result type.
var Unknown = ResultType{Class: ClassUnknown}

func (t ResultType) IsUnknown() bool {
	return t.Class == ClassUnknown
}

func (t ResultType) String() string {
	name := t.Name
	if name == "" {
		name = t.Class.String()
	}
	if t.Collection {
		return "[" + name + "]"
	}
	return name
}

func scalarType(ref TypeRef) ResultType {
	return ResultType{Class: ClassScalar, Name: ref.Name, Collection: ref.Array}
}

// numberLiteralTag is the pseudo-tag for numeric literals before they are
// matched against a concrete numeric type.
const numberLiteralTag = "Number"

// implicitIDField exists on every node, edge, and vector element.
const implicitIDField = "id"

var numericTags = map[string]bool{
	"F32": true, "F64": true,
	"I8": true, "I16": true, "I32": true, "I64": true,
	"U8": true, "U16": true, "U32": true, "U64": true, "U128": true,
}

// Validator walks query declarations and threads an inferred current type
// through each traversal chain, checking every reference against the
// schema registry. Validation of one query never depends on another, so
// queries may be validated in any order or concurrently against the same
// registry.
type Validator struct {
	registry *SchemaRegistry
	diags    []Diagnostic
}

func NewValidator(registry *SchemaRegistry) *Validator {
	return &Validator{registry: registry}
}

// Validate checks every query in the file against the registry and
// returns the semantic diagnostics, ordered by position.
func Validate(file *File, registry *SchemaRegistry) []Diagnostic {
	v := NewValidator(registry)
	for _, q := range file.Queries {
		v.ValidateQuery(q)
	}
	diags := v.diags
	v.diags = nil
	SortDiagnostics(diags)
	return diags
}

func (v *Validator) report(span Span, code Code, format string, args ...interface{}) {
	v.diags = append(v.diags, errorDiag(span, code, format, args...))
}

// Diagnostics returns findings accumulated since the last call, oldest
// first.
func (v *Validator) Diagnostics() []Diagnostic {
	diags := v.diags
	v.diags = nil
	return diags
}

// ValidateQuery checks one query declaration: parameter types, statement
// bindings, and the type of every expression.
func (v *Validator) ValidateQuery(q *QueryDecl) {
	env := make(map[string]ResultType, len(q.Params))
	for _, param := range q.Params {
		if !IsPrimitiveType(param.Type.Name) {
			v.report(param.Type.Span, CodeUnknownType,
				"unknown type %s for parameter %s", param.Type, param.Name)
			env[param.Name] = Unknown
			continue
		}
		env[param.Name] = scalarType(param.Type)
	}
	used := make(map[string]bool)
	for _, stmt := range q.Statements {
		switch {
		case stmt.Assign != nil:
			markUses(stmt.Assign.Expr, used)
			env[stmt.Assign.Name] = v.Infer(stmt.Assign.Expr, env)
		case stmt.Return != nil:
			for _, expr := range stmt.Return.Exprs {
				markUses(expr, used)
				v.Infer(expr, env)
			}
		case stmt.Drop != nil:
			markUses(stmt.Drop.Expr, used)
			v.Infer(stmt.Drop.Expr, env)
		}
	}
	for _, param := range q.Params {
		if !used[param.Name] {
			v.diags = append(v.diags, warningDiag(param.Span, CodeUnusedParameter,
				"parameter %s is never used in query %s", param.Name, q.Name))
		}
	}
}

// markUses records every identifier mentioned anywhere in the expression.
func markUses(e *Expr, used map[string]bool) {
	if e == nil {
		return
	}
	if e.Kind == ExprIdent {
		used[e.Name] = true
	}
	markUses(e.Base, used)
	for _, arg := range e.Args {
		markUses(arg, used)
	}
	for _, field := range e.Object {
		markUses(field.Value, used)
	}
}

// Infer computes the result type of an expression under the given
// bindings, reporting diagnostics along the way.
func (v *Validator) Infer(e *Expr, env map[string]ResultType) ResultType {
	switch e.Kind {
	case ExprLiteral:
		return v.inferLiteral(e)
	case ExprIdent:
		t, ok := env[e.Name]
		if !ok {
			v.report(e.Span, CodeUnknownIdentifier, "unknown identifier %q", e.Name)
			return Unknown
		}
		return t
	case ExprObject:
		for _, field := range e.Object {
			v.Infer(field.Value, env)
		}
		return ResultType{Class: ClassScalar, Name: "Object"}
	case ExprCall:
		if !predicateOps[e.Op] {
			v.report(e.Span, CodeUnknownIdentifier, "unknown function %q", e.Op)
		}
		for _, arg := range e.Args {
			v.Infer(arg, env)
		}
		return ResultType{Class: ClassScalar, Name: "Boolean"}
	case ExprSource:
		return v.inferSource(e, env)
	case ExprCreation:
		return v.inferCreation(e, env)
	case ExprFieldBlock:
		return v.inferFieldBlock(e, env)
	case ExprStep:
		return v.inferStep(e, env)
	}
	return Unknown
}

func (v *Validator) inferLiteral(e *Expr) ResultType {
	switch e.Value.Kind {
	case LiteralString:
		return ResultType{Class: ClassScalar, Name: "String"}
	case LiteralNumber:
		return ResultType{Class: ClassScalar, Name: numberLiteralTag}
	case LiteralBool:
		return ResultType{Class: ClassScalar, Name: "Boolean"}
	}
	return Unknown
}

func classOf(kind SchemaKind) TypeClass {
	switch kind {
	case KindNode:
		return ClassNode
	case KindEdge:
		return ClassEdge
	case KindVector:
		return ClassVector
	}
	return ClassUnknown
}

func kindOf(class TypeClass) SchemaKind {
	switch class {
	case ClassNode:
		return KindNode
	case ClassEdge:
		return KindEdge
	case ClassVector:
		return KindVector
	}
	return ""
}

func sourceKind(op string) SchemaKind {
	switch op {
	case "N", "AddN":
		return KindNode
	case "E", "AddE":
		return KindEdge
	}
	return KindVector
}

func (v *Validator) inferSource(e *Expr, env map[string]ResultType) ResultType {
	kind := sourceKind(e.Op)
	result := ResultType{Class: classOf(kind), Collection: true}
	if e.TypeArg != "" {
		decl := v.registry.Find(kind, e.TypeArg)
		if decl == nil {
			code := CodeUnknownType
			if kind == KindEdge {
				code = CodeUnknownEdgeType
			}
			v.report(e.TypeArgSpan, code, "unknown %s type %s", kind.Describe(), e.TypeArg)
			v.inferArgs(e, nil, env)
			return Unknown
		}
		result.Name = e.TypeArg
		v.inferArgs(e, decl, env)
		return result
	}
	v.inferArgs(e, nil, env)
	return result
}

func (v *Validator) inferCreation(e *Expr, env map[string]ResultType) ResultType {
	kind := sourceKind(e.Op)
	collection := e.Op == "BatchAddV" || e.Op == "SearchV"
	result := ResultType{Class: classOf(kind), Collection: collection}
	var decl *SchemaDecl
	if e.TypeArg != "" {
		decl = v.registry.Find(kind, e.TypeArg)
		if decl == nil {
			code := CodeUnknownType
			if kind == KindEdge {
				code = CodeUnknownEdgeType
			}
			v.report(e.TypeArgSpan, code, "unknown %s type %s", kind.Describe(), e.TypeArg)
			v.inferArgs(e, nil, env)
			return Unknown
		}
		result.Name = e.TypeArg
	}
	v.inferArgs(e, decl, env)
	return result
}

// inferArgs validates source/creation arguments. Object literals are
// checked against the target declaration when one is known; other
// arguments are inferred for their own diagnostics.
func (v *Validator) inferArgs(e *Expr, decl *SchemaDecl, env map[string]ResultType) {
	for _, arg := range e.Args {
		if arg.Kind == ExprObject && decl != nil {
			v.checkObject(arg, decl, env)
			continue
		}
		v.Infer(arg, env)
	}
}

// checkObject validates an object literal against a declared type: every
// key must be a declared property, and the value's inferred type must be
// assignable to the property's declared type.
func (v *Validator) checkObject(obj *Expr, decl *SchemaDecl, env map[string]ResultType) {
	for _, field := range obj.Object {
		prop := decl.Property(field.Key)
		if prop == nil {
			v.report(field.Span, CodeUnknownField,
				"unknown field %s on %s type %s", field.Key, decl.Kind.Describe(), decl.Name)
			v.Infer(field.Value, env)
			continue
		}
		valueType := v.Infer(field.Value, env)
		if valueType.IsUnknown() || valueType.Class != ClassScalar {
			continue
		}
		if !assignable(valueType, prop.Type) {
			v.report(field.Value.Span, CodeTypeMismatch,
				"cannot assign %s to property %s of type %s", valueType, prop.Name, prop.Type)
		}
	}
}

// assignable reports whether a scalar value type can be stored in a
// property or compared to a parameter of the declared type.
func assignable(value ResultType, declared TypeRef) bool {
	if value.Collection != declared.Array {
		return false
	}
	if value.Name == declared.Name {
		return true
	}
	if value.Name == numberLiteralTag {
		return numericTags[declared.Name]
	}
	if value.Name == "String" {
		// string-encoded scalars
		return declared.Name == "ID" || declared.Name == "Uuid" || declared.Name == "Date"
	}
	return false
}

func (v *Validator) inferFieldBlock(e *Expr, env map[string]ResultType) ResultType {
	base := v.Infer(e.Base, env)
	if base.IsUnknown() {
		return Unknown
	}
	if base.Class == ClassScalar {
		v.report(e.Span, CodeTypeMismatch, "cannot select fields from %s", base)
		return Unknown
	}
	if base.Name == "" {
		// anonymous source: nothing to check fields against
		return base
	}
	decl := v.registry.Find(kindOf(base.Class), base.Name)
	if decl == nil {
		return Unknown
	}
	for _, field := range e.Fields {
		if field.Name == implicitIDField {
			continue
		}
		if decl.Property(field.Name) == nil {
			v.report(field.Span, CodeUnknownField,
				"unknown field %s on %s type %s", field.Name, decl.Kind.Describe(), decl.Name)
		}
	}
	// projection keeps the element type, for both {a,b} and !{a,b}
	return base
}

func (v *Validator) inferStep(e *Expr, env map[string]ResultType) ResultType {
	base := v.Infer(e.Base, env)
	switch e.Op {
	case "Out", "In":
		return v.inferTraverse(e, base, env, false)
	case "OutE", "InE":
		return v.inferTraverse(e, base, env, true)
	case "FromN", "ToN":
		return v.inferEndpoint(e, base)
	case "COUNT":
		return ResultType{Class: ClassScalar, Name: "I64"}
	case "ID":
		return ResultType{Class: ClassScalar, Name: "ID"}
	case "WHERE", "PREFILTER":
		v.inferPredicateArgs(e, base, env)
		return base
	case "GT", "GTE", "LT", "LTE", "EQ", "NEQ":
		for _, arg := range e.Args {
			v.Infer(arg, env)
		}
		return base
	case "RANGE", "ShortestPath":
		for _, arg := range e.Args {
			v.Infer(arg, env)
		}
		return base
	case "UPDATE":
		v.inferUpdate(e, base, env)
		return base
	}
	return v.inferPropertyStep(e, base)
}

// inferTraverse handles Out/In (to the neighboring node) and OutE/InE
// (to the edge itself). The edge's direction index must agree with the
// base type: Out follows From to To, In follows To back to From.
func (v *Validator) inferTraverse(e *Expr, base ResultType, env map[string]ResultType, toEdge bool) ResultType {
	for _, arg := range e.Args {
		v.Infer(arg, env)
	}
	if base.IsUnknown() {
		return Unknown
	}
	if e.TypeArg == "" {
		v.report(e.OpSpan, CodeUnknownEdgeType, "%s requires an edge type argument", e.Op)
		return Unknown
	}
	edge := v.registry.FindEdge(e.TypeArg)
	if edge == nil {
		v.report(e.TypeArgSpan, CodeUnknownEdgeType, "unknown edge type %s", e.TypeArg)
		return Unknown
	}
	outbound := e.Op == "Out" || e.Op == "OutE"
	if base.Class != ClassNode {
		v.report(e.OpSpan, CodeTypeMismatch, "cannot traverse %s from %s", e.Op, base)
	} else if base.Name != "" {
		if outbound && edge.From != base.Name {
			v.report(e.TypeArgSpan, CodeTypeMismatch,
				"edge %s starts at %s, not %s", edge.Name, edge.From, base.Name)
		}
		if !outbound && edge.To != base.Name {
			v.report(e.TypeArgSpan, CodeTypeMismatch,
				"edge %s ends at %s, not %s", edge.Name, edge.To, base.Name)
		}
	}
	if toEdge {
		return ResultType{Class: ClassEdge, Name: edge.Name, Collection: true}
	}
	target := edge.To
	if !outbound {
		target = edge.From
	}
	return ResultType{Class: ClassNode, Name: target, Collection: true}
}

func (v *Validator) inferEndpoint(e *Expr, base ResultType) ResultType {
	if base.IsUnknown() {
		return Unknown
	}
	if base.Class != ClassEdge || base.Name == "" {
		if base.Class != ClassEdge {
			v.report(e.OpSpan, CodeTypeMismatch, "%s requires an edge, found %s", e.Op, base)
			return Unknown
		}
		return ResultType{Class: ClassNode, Collection: base.Collection}
	}
	edge := v.registry.FindEdge(base.Name)
	if edge == nil {
		return Unknown
	}
	target := edge.From
	if e.Op == "ToN" {
		target = edge.To
	}
	return ResultType{Class: ClassNode, Name: target, Collection: base.Collection}
}

// inferPredicateArgs validates WHERE/PREFILTER arguments with `_` bound
// to one element of the filtered collection.
func (v *Validator) inferPredicateArgs(e *Expr, base ResultType, env map[string]ResultType) {
	child := make(map[string]ResultType, len(env)+1)
	for name, t := range env {
		child[name] = t
	}
	element := base
	element.Collection = false
	child["_"] = element
	for _, arg := range e.Args {
		v.Infer(arg, child)
	}
}

func (v *Validator) inferUpdate(e *Expr, base ResultType, env map[string]ResultType) {
	var decl *SchemaDecl
	if !base.IsUnknown() && base.Name != "" {
		decl = v.registry.Find(kindOf(base.Class), base.Name)
	}
	for _, arg := range e.Args {
		if arg.Kind == ExprObject && decl != nil {
			v.checkObject(arg, decl, env)
			continue
		}
		v.Infer(arg, env)
	}
}

// inferPropertyStep handles `::name` where name is not a recognized
// operator: it resolves as a property of the current type.
func (v *Validator) inferPropertyStep(e *Expr, base ResultType) ResultType {
	if base.IsUnknown() {
		return Unknown
	}
	if base.Name == "" || base.Class == ClassScalar {
		if base.Class == ClassScalar {
			v.report(e.OpSpan, CodeUnknownField, "unknown traversal step %q on %s", e.Op, base)
		}
		return Unknown
	}
	decl := v.registry.Find(kindOf(base.Class), base.Name)
	if decl == nil {
		return Unknown
	}
	if e.Op == implicitIDField {
		return ResultType{Class: ClassScalar, Name: "ID", Collection: base.Collection}
	}
	prop := decl.Property(e.Op)
	if prop == nil {
		v.report(e.OpSpan, CodeUnknownField,
			"unknown field %s on %s type %s", e.Op, decl.Kind.Describe(), decl.Name)
		return Unknown
	}
	return ResultType{Class: ClassScalar, Name: prop.Type.Name, Collection: base.Collection || prop.Type.Array}
}

package hls

import (
	"fmt"
	"strings"
)

const indentAmount = "    "

// Unparser renders an AST back to canonical source. Parsing the output
// again yields a structurally identical tree (comments excepted), which
// is what `hls fmt` relies on.
type Unparser struct {
	buf strings.Builder
}

// Unparse renders the file in canonical form: schema declarations first,
// then queries, each in source order.
func Unparse(file *File) string {
	u := &Unparser{}
	for i, decl := range file.Schemas {
		if i > 0 {
			u.buf.WriteString("\n")
		}
		u.schemaDecl(decl)
	}
	for i, q := range file.Queries {
		if i > 0 || len(file.Schemas) > 0 {
			u.buf.WriteString("\n")
		}
		u.queryDecl(q)
	}
	return u.buf.String()
}

func (u *Unparser) emit(format string, args ...interface{}) {
	fmt.Fprintf(&u.buf, format, args...)
}

func (u *Unparser) comment(comment, indent string) {
	if comment == "" {
		return
	}
	for _, line := range strings.Split(comment, "\n") {
		u.emit("%s// %s\n", indent, line)
	}
}

func (u *Unparser) schemaDecl(decl *SchemaDecl) {
	u.comment(decl.Comment, "")
	u.emit("%s::%s {\n", decl.Kind, decl.Name)
	if decl.Kind == KindEdge {
		u.emit("%sFrom: %s,\n", indentAmount, decl.From)
		u.emit("%sTo: %s,\n", indentAmount, decl.To)
		u.emit("%sProperties: {\n", indentAmount)
		u.properties(decl.Properties, indentAmount+indentAmount)
		u.emit("%s}\n", indentAmount)
	} else {
		u.properties(decl.Properties, indentAmount)
	}
	u.emit("}\n")
}

func (u *Unparser) properties(props []*PropertyDecl, indent string) {
	for i, prop := range props {
		u.comment(prop.Comment, indent)
		u.emit("%s%s: %s", indent, prop.Name, prop.Type)
		if prop.Index {
			u.emit(" INDEX")
		}
		if prop.Default != nil {
			u.emit(" DEFAULT %s", literalText(prop.Default))
		}
		if prop.Now {
			u.emit(" NOW")
		}
		if i < len(props)-1 {
			u.emit(",")
		}
		u.emit("\n")
	}
}

func (u *Unparser) queryDecl(q *QueryDecl) {
	u.comment(q.Comment, "")
	var params []string
	for _, param := range q.Params {
		params = append(params, fmt.Sprintf("%s: %s", param.Name, param.Type))
	}
	u.emit("QUERY %s(%s) =>\n", q.Name, strings.Join(params, ", "))
	for _, stmt := range q.Statements {
		u.emit("%s%s\n", indentAmount, UnparseStatement(stmt))
	}
}

// UnparseStatement renders one statement without indentation.
func UnparseStatement(stmt *Statement) string {
	switch {
	case stmt.Assign != nil:
		return fmt.Sprintf("%s <- %s", stmt.Assign.Name, UnparseExpr(stmt.Assign.Expr))
	case stmt.Return != nil:
		var exprs []string
		for _, e := range stmt.Return.Exprs {
			exprs = append(exprs, UnparseExpr(e))
		}
		return "RETURN " + strings.Join(exprs, ", ")
	case stmt.Drop != nil:
		return "DROP " + UnparseExpr(stmt.Drop.Expr)
	}
	return ""
}

// UnparseExpr renders one expression in canonical form.
func UnparseExpr(e *Expr) string {
	switch e.Kind {
	case ExprLiteral:
		return literalText(e.Value)
	case ExprIdent:
		return e.Name
	case ExprObject:
		var fields []string
		for _, field := range e.Object {
			fields = append(fields, fmt.Sprintf("%s: %s", field.Key, UnparseExpr(field.Value)))
		}
		return "{" + strings.Join(fields, ", ") + "}"
	case ExprCall:
		return e.Op + "(" + unparseArgs(e.Args) + ")"
	case ExprSource, ExprCreation:
		s := e.Op
		if e.TypeArg != "" {
			s += "<" + e.TypeArg + ">"
		}
		if e.Args != nil {
			s += "(" + unparseArgs(e.Args) + ")"
		}
		return s
	case ExprStep:
		s := UnparseExpr(e.Base) + "::" + e.Op
		if e.TypeArg != "" {
			s += "<" + e.TypeArg + ">"
		}
		if e.Args != nil {
			s += "(" + unparseArgs(e.Args) + ")"
		}
		return s
	case ExprFieldBlock:
		var names []string
		for _, field := range e.Fields {
			names = append(names, field.Name)
		}
		marker := ""
		if e.Exclude {
			marker = "!"
		}
		return UnparseExpr(e.Base) + "::" + marker + "{" + strings.Join(names, ", ") + "}"
	}
	return ""
}

func unparseArgs(args []*Expr) string {
	var rendered []string
	for _, arg := range args {
		rendered = append(rendered, UnparseExpr(arg))
	}
	return strings.Join(rendered, ", ")
}

func literalText(lit *Literal) string {
	switch lit.Kind {
	case LiteralString:
		return fmt.Sprintf("%q", lit.Text)
	default:
		return lit.Text
	}
}

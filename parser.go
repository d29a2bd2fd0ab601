package hls

import (
	"fmt"
	"os"
	"strings"
)

// parseContext tells the expression parser whether a `<` opens a generic
// type argument or is just an angle token. The lexer never distinguishes
// the two; the parser knows because only certain operators (N, AddN, Out,
// and friends) put it in type position.
type parseContext int

const (
	exprPosition parseContext = iota
	typePosition
)

type parseError struct {
	span Span
	msg  string
}

func (e *parseError) Error() string {
	return e.msg
}

// Parser is a recursive-descent parser over the token stream. One token of
// lookahead suffices for every production. It never fails hard: grammar
// violations become ParseError diagnostics, recovery resynchronizes at the
// next top-level keyword, and whatever declarations parsed cleanly are
// kept.
type Parser struct {
	filename       string
	source         string
	tokens         []Token
	pos            int
	prevPos        int
	last           *Token
	file           *File
	diagnostics    []Diagnostic
	currentComment string
}

// ParseString parses one document. The returned diagnostics include
// lexical findings; the File is best-effort and never nil.
func ParseString(filename, src string) (*File, []Diagnostic) {
	tokens, lexDiags := Tokenize(filename, src)
	p := &Parser{
		filename: filename,
		source:   src,
		tokens:   tokens,
		file:     &File{Name: filename},
	}
	p.parseFile()
	diags := append(lexDiags, p.diagnostics...)
	SortDiagnostics(diags)
	return p.file, diags
}

// ParseFile reads and parses the document at path. The error covers I/O
// only; syntax problems are diagnostics.
func ParseFile(path string) (*File, []Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read file %q: %w", path, err)
	}
	file, diags := ParseString(path, string(data))
	return file, diags, nil
}

//---- token plumbing

// GetToken returns the next structural token, or nil at end of input.
// Block comments are skipped; line comments are folded into the pending
// documentation comment.
func (p *Parser) GetToken() *Token {
	for p.pos < len(p.tokens) {
		tok := &p.tokens[p.pos]
		switch tok.Type {
		case EOF:
			return nil
		case BLOCK_COMMENT:
			p.pos++
		case LINE_COMMENT:
			p.currentComment = mergeComment(p.currentComment, tok.Text)
			p.pos++
		default:
			p.prevPos = p.pos
			p.pos++
			p.last = tok
			return tok
		}
	}
	return nil
}

func (p *Parser) UngetToken() {
	p.pos = p.prevPos
}

// peekToken looks ahead n structural tokens without consuming anything.
// n=0 is the token GetToken would return next.
func (p *Parser) peekToken(n int) *Token {
	seen := 0
	for i := p.pos; i < len(p.tokens); i++ {
		tok := &p.tokens[i]
		if tok.Type == BLOCK_COMMENT || tok.Type == LINE_COMMENT {
			continue
		}
		if tok.Type == EOF {
			return nil
		}
		if seen == n {
			return tok
		}
		seen++
	}
	return nil
}

func (p *Parser) peekIs(tokenType TokenType) bool {
	tok := p.peekToken(0)
	return tok != nil && tok.Type == tokenType
}

func (p *Parser) takeComment() string {
	comment := p.currentComment
	p.currentComment = ""
	return comment
}

func mergeComment(comment1, comment2 string) string {
	comment2 = strings.TrimSpace(comment2)
	if comment1 == "" {
		return comment2
	}
	if comment2 == "" {
		return comment1
	}
	return comment1 + " " + comment2
}

// eofSpan is the zero-width span at end of input.
func (p *Parser) eofSpan() Span {
	if n := len(p.tokens); n > 0 {
		return p.tokens[n-1].Span
	}
	return Span{Filename: p.filename}
}

func (p *Parser) lastEnd() Position {
	if p.last != nil {
		return p.last.Span.End
	}
	return Position{Line: 1}
}

func (p *Parser) spanFrom(start Span) Span {
	return Span{Filename: p.filename, Start: start.Start, End: p.lastEnd()}
}

//---- errors

func (p *Parser) syntaxError(tok *Token, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if tok == nil {
		return &parseError{span: p.eofSpan(), msg: "unexpected end of file: " + msg}
	}
	return &parseError{span: tok.Span, msg: msg}
}

func (p *Parser) expect(tokenType TokenType) (*Token, error) {
	tok := p.GetToken()
	if tok == nil {
		return nil, p.syntaxError(nil, "expected %v", tokenType)
	}
	if tok.Type != tokenType {
		return nil, p.syntaxError(tok, "expected %v, found %q", tokenType, tok.Text)
	}
	return tok, nil
}

func (p *Parser) expectIdentifier() (*Token, error) {
	tok := p.GetToken()
	if tok == nil {
		return nil, p.syntaxError(nil, "expected an identifier")
	}
	if tok.Type != SYMBOL {
		return nil, p.syntaxError(tok, "expected an identifier, found %q", tok.Text)
	}
	return tok, nil
}

// atDeclBoundary reports whether the next tokens begin a new top-level
// declaration: QUERY, or one of N/E/V immediately followed by `::`.
func (p *Parser) atDeclBoundary() bool {
	tok := p.peekToken(0)
	if tok == nil {
		return true
	}
	if tok.IsSymbol("QUERY") {
		return true
	}
	if tok.Type == SYMBOL && sourceOps[tok.Text] {
		next := p.peekToken(1)
		return next != nil && next.Type == DOUBLE_COLON
	}
	return false
}

// resync recovers from a syntax error by discarding tokens up to the next
// top-level declaration (or end of input) and emitting one ParseError for
// the discarded span. One malformed declaration never hides diagnostics
// for the rest of the file.
func (p *Parser) resync(err error) {
	pe, ok := err.(*parseError)
	if !ok {
		pe = &parseError{span: p.eofSpan(), msg: err.Error()}
	}
	span := pe.span
	for {
		if p.atDeclBoundary() {
			break
		}
		tok := p.GetToken()
		if tok == nil {
			break
		}
		span.End = tok.Span.End
	}
	p.diagnostics = append(p.diagnostics, errorDiag(span, CodeParseError, "%s", pe.msg))
}

//---- declarations

func (p *Parser) parseFile() {
	for {
		tok := p.GetToken()
		if tok == nil {
			break
		}
		comment := p.takeComment()
		var err error
		switch {
		case tok.IsSymbol("QUERY"):
			err = p.parseQueryDecl(tok, comment)
		case tok.Type == SYMBOL && sourceOps[tok.Text] && p.peekIs(DOUBLE_COLON):
			err = p.parseSchemaDecl(SchemaKind(tok.Text), tok, comment)
		default:
			err = p.syntaxError(tok, "expected a schema or query declaration, found %q", tok.Text)
		}
		if err != nil {
			p.resync(err)
		}
	}
}

func (p *Parser) parseSchemaDecl(kind SchemaKind, start *Token, comment string) error {
	if _, err := p.expect(DOUBLE_COLON); err != nil {
		return err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return err
	}
	decl := &SchemaDecl{
		Kind:     kind,
		Name:     name.Text,
		Comment:  comment,
		NameSpan: name.Span,
	}
	if _, err := p.expect(OPEN_BRACE); err != nil {
		return err
	}
	if kind == KindEdge {
		err = p.parseEdgeBody(decl)
	} else {
		decl.Properties, err = p.parsePropertyList()
	}
	if err != nil {
		return err
	}
	if _, err := p.expect(CLOSE_BRACE); err != nil {
		return err
	}
	decl.Span = p.spanFrom(start.Span)
	p.file.Schemas = append(p.file.Schemas, decl)
	return nil
}

// parseEdgeBody parses `From: T, To: T, Properties: { ... }`. The three
// clauses are required in exactly that order.
func (p *Parser) parseEdgeBody(decl *SchemaDecl) error {
	from, err := p.expectEdgeClause("From")
	if err != nil {
		return err
	}
	decl.From = from.Text
	decl.FromSpan = from.Span
	if _, err := p.expect(COMMA); err != nil {
		return err
	}
	to, err := p.expectEdgeClause("To")
	if err != nil {
		return err
	}
	decl.To = to.Text
	decl.ToSpan = to.Span
	if _, err := p.expect(COMMA); err != nil {
		return err
	}
	keyword, err := p.expectIdentifier()
	if err != nil {
		return err
	}
	if keyword.Text != "Properties" {
		return p.syntaxError(keyword, "edge declaration requires From, To, Properties in that order; found %q", keyword.Text)
	}
	// the sample corpus writes both `Properties {` and `Properties: {`
	if p.peekIs(COLON) {
		p.GetToken()
	}
	if _, err := p.expect(OPEN_BRACE); err != nil {
		return err
	}
	decl.Properties, err = p.parsePropertyList()
	if err != nil {
		return err
	}
	if _, err := p.expect(CLOSE_BRACE); err != nil {
		return err
	}
	if p.peekIs(COMMA) {
		p.GetToken()
	}
	return nil
}

func (p *Parser) expectEdgeClause(keyword string) (*Token, error) {
	tok, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if tok.Text != keyword {
		return nil, p.syntaxError(tok, "edge declaration requires From, To, Properties in that order; found %q", tok.Text)
	}
	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	return p.expectIdentifier()
}

func (p *Parser) parsePropertyList() ([]*PropertyDecl, error) {
	var props []*PropertyDecl
	for {
		if p.peekIs(CLOSE_BRACE) {
			return props, nil
		}
		prop, err := p.parseProperty()
		if err != nil {
			return props, err
		}
		props = append(props, prop)
		if p.peekIs(COMMA) {
			p.GetToken()
			continue
		}
		return props, nil
	}
}

func (p *Parser) parseProperty() (*PropertyDecl, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	prop := &PropertyDecl{Name: name.Text, Comment: p.takeComment()}
	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	prop.Type, err = p.parseTypeRef()
	if err != nil {
		return nil, err
	}
	if err := p.parsePropertyModifiers(prop); err != nil {
		return nil, err
	}
	prop.Span = p.spanFrom(name.Span)
	return prop, nil
}

func (p *Parser) parsePropertyModifiers(prop *PropertyDecl) error {
	for {
		tok := p.peekToken(0)
		if tok == nil || tok.Type != SYMBOL {
			return nil
		}
		switch tok.Text {
		case "INDEX":
			p.GetToken()
			prop.Index = true
		case "NOW":
			p.GetToken()
			prop.Now = true
		case "DEFAULT":
			p.GetToken()
			lit, err := p.parseDefaultValue()
			if err != nil {
				return err
			}
			prop.Default = lit
		default:
			return nil
		}
	}
}

// parseDefaultValue accepts a literal, or NOW for timestamp defaults.
func (p *Parser) parseDefaultValue() (*Literal, error) {
	tok := p.GetToken()
	if tok == nil {
		return nil, p.syntaxError(nil, "expected a default value")
	}
	switch tok.Type {
	case STRING:
		return &Literal{Kind: LiteralString, Text: tok.Text}, nil
	case NUMBER:
		return &Literal{Kind: LiteralNumber, Text: tok.Text}, nil
	case SYMBOL:
		switch tok.Text {
		case "true", "false":
			return &Literal{Kind: LiteralBool, Text: tok.Text}, nil
		case "NOW":
			return &Literal{Kind: LiteralNone, Text: "NOW"}, nil
		}
	}
	return nil, p.syntaxError(tok, "expected a default value, found %q", tok.Text)
}

// parseTypeRef parses a primitive tag or [Tag] array form. Unrecognized
// names parse fine; the validator decides whether they exist.
func (p *Parser) parseTypeRef() (TypeRef, error) {
	tok := p.GetToken()
	if tok == nil {
		return TypeRef{}, p.syntaxError(nil, "expected a type")
	}
	if tok.Type == OPEN_BRACKET {
		name, err := p.expectIdentifier()
		if err != nil {
			return TypeRef{}, err
		}
		if _, err := p.expect(CLOSE_BRACKET); err != nil {
			return TypeRef{}, err
		}
		return TypeRef{Name: name.Text, Array: true, Span: p.spanFrom(tok.Span)}, nil
	}
	if tok.Type != SYMBOL {
		return TypeRef{}, p.syntaxError(tok, "expected a type, found %q", tok.Text)
	}
	return TypeRef{Name: tok.Text, Span: tok.Span}, nil
}

func (p *Parser) parseQueryDecl(start *Token, comment string) error {
	name, err := p.expectIdentifier()
	if err != nil {
		return err
	}
	q := &QueryDecl{Name: name.Text, Comment: comment, NameSpan: name.Span}
	if _, err := p.expect(OPEN_PAREN); err != nil {
		return err
	}
	q.Params, err = p.parseParamList()
	if err != nil {
		return err
	}
	if _, err := p.expect(CLOSE_PAREN); err != nil {
		return err
	}
	if _, err := p.expect(FAT_ARROW); err != nil {
		return err
	}
	for !p.atDeclBoundary() {
		stmt, err := p.parseStatement()
		if err != nil {
			// keep what parsed so far; the resync span starts at the
			// offending token
			if len(q.Statements) > 0 {
				q.Span = p.spanFrom(start.Span)
				p.file.Queries = append(p.file.Queries, q)
			}
			return err
		}
		q.Statements = append(q.Statements, stmt)
	}
	if len(q.Statements) == 0 {
		return p.syntaxError(name, "query %s has no statements", q.Name)
	}
	q.Span = p.spanFrom(start.Span)
	p.file.Queries = append(p.file.Queries, q)
	return nil
}

func (p *Parser) parseParamList() ([]*ParamDecl, error) {
	var params []*ParamDecl
	if p.peekIs(CLOSE_PAREN) {
		return nil, nil
	}
	for {
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}
		typeRef, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		params = append(params, &ParamDecl{Name: name.Text, Type: typeRef, Span: p.spanFrom(name.Span)})
		if p.peekIs(COMMA) {
			p.GetToken()
			continue
		}
		return params, nil
	}
}

func (p *Parser) parseStatement() (*Statement, error) {
	tok := p.GetToken()
	if tok == nil {
		return nil, p.syntaxError(nil, "expected a statement")
	}
	switch {
	case tok.IsSymbol("RETURN"):
		ret := &ReturnStatement{}
		for {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			ret.Exprs = append(ret.Exprs, expr)
			if p.peekIs(COMMA) {
				p.GetToken()
				continue
			}
			break
		}
		ret.Span = p.spanFrom(tok.Span)
		return &Statement{Return: ret}, nil
	case tok.IsSymbol("DROP"):
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &Statement{Drop: &DropStatement{Expr: expr, Span: p.spanFrom(tok.Span)}}, nil
	case tok.Type == SYMBOL && p.peekIs(LEFT_ARROW):
		p.GetToken() // <-
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &Statement{Assign: &AssignStatement{Name: tok.Text, Expr: expr, Span: p.spanFrom(tok.Span)}}, nil
	}
	return nil, p.syntaxError(tok, "expected a statement, found %q", tok.Text)
}

//---- expressions

func (p *Parser) parseExpr() (*Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peekIs(DOUBLE_COLON) {
		p.GetToken()
		expr, err = p.parseStep(expr)
		if err != nil {
			return nil, err
		}
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (*Expr, error) {
	tok := p.GetToken()
	if tok == nil {
		return nil, p.syntaxError(nil, "expected an expression")
	}
	switch tok.Type {
	case STRING:
		return &Expr{Kind: ExprLiteral, Value: &Literal{Kind: LiteralString, Text: tok.Text}, Span: tok.Span}, nil
	case NUMBER:
		return &Expr{Kind: ExprLiteral, Value: &Literal{Kind: LiteralNumber, Text: tok.Text}, Span: tok.Span}, nil
	case OPEN_BRACE:
		return p.parseObjectLiteral(tok)
	case SYMBOL:
		switch {
		case tok.Text == "true" || tok.Text == "false":
			return &Expr{Kind: ExprLiteral, Value: &Literal{Kind: LiteralBool, Text: tok.Text}, Span: tok.Span}, nil
		case tok.Text == "NONE":
			return &Expr{Kind: ExprLiteral, Value: &Literal{Kind: LiteralNone, Text: "NONE"}, Span: tok.Span}, nil
		case sourceOps[tok.Text]:
			return p.parseSourceOrCreation(ExprSource, tok)
		case creationOps[tok.Text]:
			return p.parseSourceOrCreation(ExprCreation, tok)
		case p.peekIs(OPEN_PAREN):
			// predicate combinators (EXISTS, AND, OR); anything else in
			// call position parses too and is left to the validator
			expr := &Expr{Kind: ExprCall, Op: tok.Text, OpSpan: tok.Span}
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			expr.Args = args
			expr.Span = p.spanFrom(tok.Span)
			return expr, nil
		default:
			return &Expr{Kind: ExprIdent, Name: tok.Text, Span: tok.Span}, nil
		}
	}
	return nil, p.syntaxError(tok, "unexpected token in expression: %q", tok.Text)
}

func (p *Parser) parseSourceOrCreation(kind ExprKind, tok *Token) (*Expr, error) {
	expr := &Expr{Kind: kind, Op: tok.Text}
	if p.peekIs(OPEN_ANGLE) {
		name, span, err := p.parseTypeArg(contextAfter(tok.Text), tok.Text)
		if err != nil {
			return nil, err
		}
		expr.TypeArg = name
		expr.TypeArgSpan = span
	}
	if p.peekIs(OPEN_PAREN) {
		args, err := p.parseArgList()
		if err != nil {
			return nil, err
		}
		expr.Args = args
	}
	expr.Span = p.spanFrom(tok.Span)
	return expr, nil
}

// contextAfter reports whether the parser is in type position after the
// given operator: only there does `<` open a generic argument.
func contextAfter(op string) parseContext {
	if typeArgOps[op] {
		return typePosition
	}
	return exprPosition
}

// parseTypeArg consumes `<Ident>`. Legal only in type position.
func (p *Parser) parseTypeArg(ctx parseContext, op string) (string, Span, error) {
	if ctx != typePosition {
		tok := p.peekToken(0)
		return "", Span{}, p.syntaxError(tok, "operator %s does not take a type argument", op)
	}
	if _, err := p.expect(OPEN_ANGLE); err != nil {
		return "", Span{}, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return "", Span{}, err
	}
	if _, err := p.expect(CLOSE_ANGLE); err != nil {
		return "", Span{}, err
	}
	return name.Text, name.Span, nil
}

func (p *Parser) parseArgList() ([]*Expr, error) {
	if _, err := p.expect(OPEN_PAREN); err != nil {
		return nil, err
	}
	var args []*Expr
	if p.peekIs(CLOSE_PAREN) {
		p.GetToken()
		return args, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.peekIs(COMMA) {
			p.GetToken()
			continue
		}
		break
	}
	if _, err := p.expect(CLOSE_PAREN); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseObjectLiteral(start *Token) (*Expr, error) {
	expr := &Expr{Kind: ExprObject}
	for {
		if p.peekIs(CLOSE_BRACE) {
			p.GetToken()
			break
		}
		key, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		expr.Object = append(expr.Object, &ObjectField{Key: key.Text, Value: value, Span: p.spanFrom(key.Span)})
		if p.peekIs(COMMA) {
			p.GetToken()
		}
	}
	expr.Span = p.spanFrom(start.Span)
	return expr, nil
}

func (p *Parser) parseStep(base *Expr) (*Expr, error) {
	tok := p.GetToken()
	if tok == nil {
		return nil, p.syntaxError(nil, "expected a traversal step after ::")
	}
	switch tok.Type {
	case BANG:
		if _, err := p.expect(OPEN_BRACE); err != nil {
			return nil, err
		}
		return p.parseFieldBlock(base, tok, true)
	case OPEN_BRACE:
		return p.parseFieldBlock(base, tok, false)
	case SYMBOL:
		expr := &Expr{Kind: ExprStep, Base: base, Op: tok.Text, OpSpan: tok.Span}
		if p.peekIs(OPEN_ANGLE) {
			name, span, err := p.parseTypeArg(contextAfter(tok.Text), tok.Text)
			if err != nil {
				return nil, err
			}
			expr.TypeArg = name
			expr.TypeArgSpan = span
		}
		if p.peekIs(OPEN_PAREN) {
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			expr.Args = args
		}
		expr.Span = Span{Filename: p.filename, Start: base.Span.Start, End: p.lastEnd()}
		return expr, nil
	}
	return nil, p.syntaxError(tok, "expected a traversal step after ::, found %q", tok.Text)
}

func (p *Parser) parseFieldBlock(base *Expr, start *Token, exclude bool) (*Expr, error) {
	expr := &Expr{Kind: ExprFieldBlock, Base: base, Exclude: exclude}
	for {
		if p.peekIs(CLOSE_BRACE) {
			p.GetToken()
			break
		}
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		expr.Fields = append(expr.Fields, &FieldRef{Name: name.Text, Span: name.Span})
		if p.peekIs(COMMA) {
			p.GetToken()
		}
	}
	expr.Span = Span{Filename: p.filename, Start: base.Span.Start, End: p.lastEnd()}
	return expr, nil
}

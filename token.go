package hls

import (
	"fmt"
)

type TokenType int

const (
	EOF TokenType = iota
	ILLEGAL
	LINE_COMMENT
	BLOCK_COMMENT
	SYMBOL
	NUMBER
	STRING
	COLON
	DOUBLE_COLON
	COMMA
	DOT
	BANG
	OPEN_BRACE
	CLOSE_BRACE
	OPEN_BRACKET
	CLOSE_BRACKET
	OPEN_PAREN
	CLOSE_PAREN
	OPEN_ANGLE
	CLOSE_ANGLE
	LEFT_ARROW  // <-
	FAT_ARROW   // =>
)

func (tokenType TokenType) String() string {
	switch tokenType {
	case EOF:
		return "EOF"
	case ILLEGAL:
		return "ILLEGAL"
	case LINE_COMMENT:
		return "LINE_COMMENT"
	case BLOCK_COMMENT:
		return "BLOCK_COMMENT"
	case SYMBOL:
		return "SYMBOL"
	case NUMBER:
		return "NUMBER"
	case STRING:
		return "STRING"
	case COLON:
		return "COLON"
	case DOUBLE_COLON:
		return "DOUBLE_COLON"
	case COMMA:
		return "COMMA"
	case DOT:
		return "DOT"
	case BANG:
		return "BANG"
	case OPEN_BRACE:
		return "OPEN_BRACE"
	case CLOSE_BRACE:
		return "CLOSE_BRACE"
	case OPEN_BRACKET:
		return "OPEN_BRACKET"
	case CLOSE_BRACKET:
		return "CLOSE_BRACKET"
	case OPEN_PAREN:
		return "OPEN_PAREN"
	case CLOSE_PAREN:
		return "CLOSE_PAREN"
	case OPEN_ANGLE:
		return "OPEN_ANGLE"
	case CLOSE_ANGLE:
		return "CLOSE_ANGLE"
	case LEFT_ARROW:
		return "LEFT_ARROW"
	case FAT_ARROW:
		return "FAT_ARROW"
	}
	return "?"
}

// Position is a point in a source document. Line is 1-based, Column is a
// 0-based rune count within the line, Offset is the byte offset from the
// start of the document.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset"`
}

// Span covers a contiguous region of one document, [Start, End).
type Span struct {
	Filename string   `json:"filename,omitempty"`
	Start    Position `json:"start"`
	End      Position `json:"end"`
}

func (s Span) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Start.Line, s.Start.Column)
	}
	return fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Column)
}

// Contains reports whether the 0-based (line, column) point falls inside
// the span. Line here is 0-based to match editor positions.
func (s Span) Contains(line, column int) bool {
	l := line + 1
	if l < s.Start.Line || l > s.End.Line {
		return false
	}
	if l == s.Start.Line && column < s.Start.Column {
		return false
	}
	if l == s.End.Line && column >= s.End.Column && !(s.Start.Line == s.End.Line && s.Start.Column == s.End.Column) {
		return false
	}
	return true
}

type Token struct {
	Type TokenType
	Text string
	Span Span
}

func (tok Token) String() string {
	return fmt.Sprintf("<%v %q %d:%d>", tok.Type, tok.Text, tok.Span.Start.Line, tok.Span.Start.Column)
}

// IsSymbol reports whether the token is the named symbol.
func (tok Token) IsSymbol(text string) bool {
	return tok.Type == SYMBOL && tok.Text == text
}

package hls

import (
	"strings"
	"unicode/utf8"
)

var eof = rune(0)

func isWhitespace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isSymbolChar(ch rune) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_'
}

// Scanner converts source text into tokens. It is total: malformed input
// produces diagnostics, never an error return, and scanning continues
// past every recoverable problem. `<` and `>` are plain punctuation here;
// the parser decides whether they open a generic argument.
type Scanner struct {
	filename    string
	src         string
	pos         int // byte offset of the next rune
	line        int // 1-based
	column      int // 0-based rune column
	prev        position
	diagnostics []Diagnostic
}

type position struct {
	pos    int
	line   int
	column int
}

func NewScanner(filename, src string) *Scanner {
	return &Scanner{filename: filename, src: src, line: 1}
}

// Tokenize scans the whole document. The returned stream includes comment
// tokens (the parser filters them but keeps their text for documentation)
// and ends with an EOF token. Lexical problems come back as diagnostics.
func Tokenize(filename, src string) ([]Token, []Diagnostic) {
	s := NewScanner(filename, src)
	var tokens []Token
	for {
		tok := s.Scan()
		if tok.Type == ILLEGAL {
			continue
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			break
		}
	}
	return tokens, s.Diagnostics()
}

// Diagnostics returns the lexical problems found so far.
func (s *Scanner) Diagnostics() []Diagnostic {
	return s.diagnostics
}

func (s *Scanner) position() Position {
	return Position{Line: s.line, Column: s.column, Offset: s.pos}
}

func (s *Scanner) read() rune {
	s.prev = position{s.pos, s.line, s.column}
	if s.pos >= len(s.src) {
		return eof
	}
	ch, size := utf8.DecodeRuneInString(s.src[s.pos:])
	s.pos += size
	if ch == '\n' {
		s.line++
		s.column = 0
	} else {
		s.column++
	}
	return ch
}

func (s *Scanner) unread() {
	s.pos = s.prev.pos
	s.line = s.prev.line
	s.column = s.prev.column
}

func (s *Scanner) peek() rune {
	if s.pos >= len(s.src) {
		return eof
	}
	ch, _ := utf8.DecodeRuneInString(s.src[s.pos:])
	return ch
}

func (s *Scanner) span(start Position) Span {
	return Span{Filename: s.filename, Start: start, End: s.position()}
}

func (s *Scanner) finish(start Position, tokenType TokenType, text string) Token {
	return Token{Type: tokenType, Text: text, Span: s.span(start)}
}

func (s *Scanner) lexError(span Span, format string, args ...interface{}) {
	s.diagnostics = append(s.diagnostics, errorDiag(span, CodeLexError, format, args...))
}

func (s *Scanner) Scan() Token {
	for {
		start := s.position()
		ch := s.read()
		if ch == eof {
			return s.finish(start, EOF, "")
		}
		if isWhitespace(ch) {
			continue
		}
		if isLetter(ch) || ch == '_' {
			return s.scanSymbol(start, ch)
		}
		if isDigit(ch) {
			return s.scanNumber(start, ch)
		}
		if ch == '-' && isDigit(s.peek()) {
			return s.scanNumber(start, ch)
		}
		if ch == '/' {
			return s.scanComment(start)
		}
		if ch == '"' || ch == '\'' {
			return s.scanString(start, ch)
		}
		return s.scanPunct(start, ch)
	}
}

func (s *Scanner) scanSymbol(start Position, firstChar rune) Token {
	var buf strings.Builder
	buf.WriteRune(firstChar)
	for {
		ch := s.read()
		if ch == eof {
			break
		}
		if !isSymbolChar(ch) {
			s.unread()
			break
		}
		buf.WriteRune(ch)
	}
	return s.finish(start, SYMBOL, buf.String())
}

func (s *Scanner) scanNumber(start Position, firstChar rune) Token {
	var buf strings.Builder
	buf.WriteRune(firstChar)
	gotDecimal := false
	for {
		ch := s.read()
		if ch == eof {
			break
		}
		if isDigit(ch) {
			buf.WriteRune(ch)
			continue
		}
		if ch == '.' && !gotDecimal && isDigit(s.peek()) {
			gotDecimal = true
			buf.WriteRune(ch)
			continue
		}
		s.unread()
		break
	}
	return s.finish(start, NUMBER, buf.String())
}

func (s *Scanner) scanComment(start Position) Token {
	ch := s.read()
	if ch == '/' {
		var buf strings.Builder
		for {
			ch = s.read()
			if ch == eof || ch == '\n' {
				break
			}
			buf.WriteRune(ch)
		}
		return s.finish(start, LINE_COMMENT, buf.String())
	}
	if ch == '*' {
		var buf strings.Builder
		var starred bool
		for {
			ch = s.read()
			if ch == eof {
				// anchored at end of input so the editor points past
				// the truncated text
				s.lexError(s.span(s.position()), "unterminated block comment")
				return s.finish(start, BLOCK_COMMENT, buf.String())
			}
			if starred {
				if ch == '/' {
					return s.finish(start, BLOCK_COMMENT, buf.String())
				}
				buf.WriteRune('*')
				starred = false
			}
			if ch == '*' {
				starred = true
			} else {
				buf.WriteRune(ch)
			}
		}
	}
	if ch != eof {
		s.unread()
	}
	s.lexError(s.span(start), "unexpected character %q", "/")
	return s.finish(start, ILLEGAL, "/")
}

func (s *Scanner) scanString(start Position, matchingQuote rune) Token {
	var buf strings.Builder
	escape := false
	for {
		ch := s.read()
		if ch == eof {
			s.lexError(s.span(s.position()), "unterminated string")
			return s.finish(start, STRING, buf.String())
		}
		if escape {
			switch ch {
			case 'n':
				buf.WriteRune('\n')
			case 't':
				buf.WriteRune('\t')
			case matchingQuote, '\\':
				buf.WriteRune(ch)
			default:
				s.lexError(s.span(start), "bad escape char in string: \\%c", ch)
				buf.WriteRune(ch)
			}
			escape = false
			continue
		}
		switch ch {
		case matchingQuote:
			return s.finish(start, STRING, buf.String())
		case '\\':
			escape = true
		default:
			buf.WriteRune(ch)
		}
	}
}

func (s *Scanner) scanPunct(start Position, ch rune) Token {
	text := string(ch)
	tokenType := ILLEGAL
	switch ch {
	case ':':
		tokenType = COLON
		if s.peek() == ':' {
			s.read()
			tokenType = DOUBLE_COLON
			text = "::"
		}
	case ',':
		tokenType = COMMA
	case '.':
		tokenType = DOT
	case '!':
		tokenType = BANG
	case '{':
		tokenType = OPEN_BRACE
	case '}':
		tokenType = CLOSE_BRACE
	case '[':
		tokenType = OPEN_BRACKET
	case ']':
		tokenType = CLOSE_BRACKET
	case '(':
		tokenType = OPEN_PAREN
	case ')':
		tokenType = CLOSE_PAREN
	case '<':
		tokenType = OPEN_ANGLE
		if s.peek() == '-' {
			s.read()
			tokenType = LEFT_ARROW
			text = "<-"
		}
	case '>':
		tokenType = CLOSE_ANGLE
	case '=':
		if s.peek() == '>' {
			s.read()
			tokenType = FAT_ARROW
			text = "=>"
		}
	}
	if tokenType == ILLEGAL {
		s.lexError(s.span(start), "unexpected character %q", text)
	}
	return s.finish(start, tokenType, text)
}

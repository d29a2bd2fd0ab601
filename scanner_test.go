package hls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(tokens []Token) []TokenType {
	var types []TokenType
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	return types
}

func TestTokenizeBasics(t *testing.T) {
	tokens, diags := Tokenize("test.hx", "N::User { name: String }")
	require.Empty(t, diags)
	assert.Equal(t, []TokenType{
		SYMBOL, DOUBLE_COLON, SYMBOL, OPEN_BRACE, SYMBOL, COLON, SYMBOL, CLOSE_BRACE, EOF,
	}, tokenTypes(tokens))
	assert.Equal(t, "N", tokens[0].Text)
	assert.Equal(t, "::", tokens[1].Text)
	assert.Equal(t, "User", tokens[2].Text)
}

func TestTokenizeMultiCharPunctuation(t *testing.T) {
	tokens, diags := Tokenize("test.hx", ":: <- => < > : !")
	require.Empty(t, diags)
	assert.Equal(t, []TokenType{
		DOUBLE_COLON, LEFT_ARROW, FAT_ARROW, OPEN_ANGLE, CLOSE_ANGLE, COLON, BANG, EOF,
	}, tokenTypes(tokens))
}

func TestTokenizePositions(t *testing.T) {
	tokens, diags := Tokenize("test.hx", "ab\n  cd")
	require.Empty(t, diags)
	require.Len(t, tokens, 3)
	assert.Equal(t, Position{Line: 1, Column: 0, Offset: 0}, tokens[0].Span.Start)
	assert.Equal(t, Position{Line: 1, Column: 2, Offset: 2}, tokens[0].Span.End)
	assert.Equal(t, Position{Line: 2, Column: 2, Offset: 5}, tokens[1].Span.Start)
	assert.Equal(t, "test.hx", tokens[1].Span.Filename)
}

func TestTokenizeNumbers(t *testing.T) {
	tokens, diags := Tokenize("test.hx", "42 -3.14 1.2.3")
	require.Empty(t, diags)
	assert.Equal(t, []TokenType{NUMBER, NUMBER, NUMBER, DOT, NUMBER, EOF}, tokenTypes(tokens))
	assert.Equal(t, "42", tokens[0].Text)
	assert.Equal(t, "-3.14", tokens[1].Text)
	assert.Equal(t, "1.2", tokens[2].Text)
}

func TestTokenizeStrings(t *testing.T) {
	tokens, diags := Tokenize("test.hx", `"a\nb" 'single'`)
	require.Empty(t, diags)
	require.Len(t, tokens, 3)
	assert.Equal(t, STRING, tokens[0].Type)
	assert.Equal(t, "a\nb", tokens[0].Text)
	assert.Equal(t, "single", tokens[1].Text)
}

func TestTokenizeUnterminatedString(t *testing.T) {
	tokens, diags := Tokenize("test.hx", `"abc`)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeLexError, diags[0].Code)
	assert.Contains(t, diags[0].Message, "unterminated string")
	// the truncated token is still produced so parsing can continue
	require.Len(t, tokens, 2)
	assert.Equal(t, STRING, tokens[0].Type)
	assert.Equal(t, "abc", tokens[0].Text)
}

func TestTokenizeBadEscape(t *testing.T) {
	tokens, diags := Tokenize("test.hx", `"a\qb"`)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeLexError, diags[0].Code)
	assert.Contains(t, diags[0].Message, "bad escape")
	assert.Equal(t, "aqb", tokens[0].Text)
}

func TestTokenizeComments(t *testing.T) {
	tokens, diags := Tokenize("test.hx", "// hello\n/* block */ x")
	require.Empty(t, diags)
	assert.Equal(t, []TokenType{LINE_COMMENT, BLOCK_COMMENT, SYMBOL, EOF}, tokenTypes(tokens))
	assert.Equal(t, " hello", tokens[0].Text)
	assert.Equal(t, " block ", tokens[1].Text)
}

func TestTokenizeUnterminatedBlockComment(t *testing.T) {
	_, diags := Tokenize("test.hx", "/* never ends")
	require.Len(t, diags, 1)
	assert.Equal(t, CodeLexError, diags[0].Code)
	assert.Contains(t, diags[0].Message, "unterminated block comment")
}

func TestTokenizeIllegalCharacter(t *testing.T) {
	tokens, diags := Tokenize("test.hx", "a $ b")
	require.Len(t, diags, 1)
	assert.Equal(t, CodeLexError, diags[0].Code)
	// scanning continues past the bad character
	assert.Equal(t, []TokenType{SYMBOL, SYMBOL, EOF}, tokenTypes(tokens))
}

func TestTokenizeAnglesArePlainPunctuation(t *testing.T) {
	// the lexer never guesses whether < opens a type argument
	tokens, diags := Tokenize("test.hx", "N<User>")
	require.Empty(t, diags)
	assert.Equal(t, []TokenType{SYMBOL, OPEN_ANGLE, SYMBOL, CLOSE_ANGLE, EOF}, tokenTypes(tokens))
}

func TestTokenizeUnderscoreSymbol(t *testing.T) {
	tokens, diags := Tokenize("test.hx", "_::name")
	require.Empty(t, diags)
	assert.Equal(t, "_", tokens[0].Text)
	assert.Equal(t, SYMBOL, tokens[0].Type)
}

func TestSpanContains(t *testing.T) {
	span := Span{
		Start: Position{Line: 2, Column: 4},
		End:   Position{Line: 2, Column: 8},
	}
	// Contains takes 0-based lines, matching editor positions
	assert.True(t, span.Contains(1, 4))
	assert.True(t, span.Contains(1, 7))
	assert.False(t, span.Contains(1, 8))
	assert.False(t, span.Contains(1, 3))
	assert.False(t, span.Contains(0, 5))
}

package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-minic/minic/token"
)

func TestNextToken(t *testing.T) {
	input := `int main(void) { return 2; }`

	want := []token.Type{
		token.KeywordInt, token.Identifier, token.LParen, token.KeywordVoid,
		token.RParen, token.LBrace, token.KeywordReturn, token.Constant,
		token.Semicolon, token.RBrace, token.EOF,
	}

	l := New(input, "t.c")
	for i, tt := range want {
		tok, err := l.Next()
		require.NoError(t, err)
		assert.Equalf(t, tt, tok.Type, "token %d", i)
	}
}

func TestMultiByteOperators(t *testing.T) {
	cases := []struct {
		input string
		want  token.Type
	}{
		{"--", token.Decrement},
		{"-", token.Minus},
		{"==", token.EqualEqual},
		{"=", token.Equal},
		{"!=", token.BangEqual},
		{"!", token.Bang},
		{"<=", token.LessEqual},
		{"<", token.Less},
		{">=", token.GreaterEqual},
		{">", token.Greater},
		{"&&", token.AmpAmp},
		{"||", token.PipePipe},
	}

	for _, c := range cases {
		l := New(c.input, "t.c")
		tok, err := l.Next()
		require.NoError(t, err)
		assert.Equal(t, c.want, tok.Type, c.input)
	}
}

func TestLoneAmpersandIsLexError(t *testing.T) {
	l := New("&", "t.c")
	_, err := l.Next()
	require.Error(t, err)
}

func TestLonePipeIsLexError(t *testing.T) {
	l := New("|", "t.c")
	_, err := l.Next()
	require.Error(t, err)
}

func TestUnknownByteIsLexError(t *testing.T) {
	l := New("@", "t.c")
	_, err := l.Next()
	require.Error(t, err)
}

func TestPositionTracksLineAndColumn(t *testing.T) {
	input := "int\nmain"
	l := New(input, "t.c")

	tok, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, tok.Pos.Line)
	assert.Equal(t, 1, tok.Pos.Column)

	tok, err = l.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, tok.Pos.Line)
	assert.Equal(t, 1, tok.Pos.Column)
}

func TestLexemeOffsetsReproduceSource(t *testing.T) {
	input := "int main(void) { return 12; }"
	toks, err := TokenizeAll(input, "t.c")
	require.NoError(t, err)

	for _, tok := range toks {
		if tok.Type == token.EOF {
			continue
		}
		assert.Equal(t, tok.Literal, input[tok.Start:tok.Start+tok.Length])
	}
}

func TestKeywordsRecognized(t *testing.T) {
	for kw, tt := range token.Keywords {
		l := New(kw, "t.c")
		tok, err := l.Next()
		require.NoError(t, err)
		assert.Equal(t, tt, tok.Type)
	}
}

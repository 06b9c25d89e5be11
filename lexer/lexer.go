// Package lexer turns minic source text into a stream of tokens.
package lexer

import (
	"unicode"

	"github.com/go-minic/minic/cerrors"
	"github.com/go-minic/minic/token"
)

// Lexer tokenizes minic source code one token at a time.
type Lexer struct {
	input    string
	filename string
	pos      int  // next byte to read
	line     int
	column   int
	ch       byte // current byte, 0 at EOF
}

// New creates a Lexer over input, attributing positions to filename.
func New(input, filename string) *Lexer {
	l := &Lexer{
		input:    input,
		filename: filename,
		line:     1,
		column:   0,
	}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.pos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.pos]
	}
	if l.ch == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
	l.pos++
}

func (l *Lexer) peekChar() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) currentPos() token.Position {
	return token.Position{Filename: l.filename, Line: l.line, Column: l.column}
}

func isIdentStart(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c))
}

func isIdentChar(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
		l.readChar()
	}
}

// Next returns the next token in the stream. On an unrecognized byte it
// returns a LexError via err; the caller must treat that as fatal.
func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespace()

	start := l.pos - 1
	pos := l.currentPos()

	if l.ch == 0 {
		return token.Token{Type: token.EOF, Pos: pos, Start: start, Length: 0}, nil
	}

	switch {
	case isIdentStart(l.ch):
		return l.readIdentifier(start, pos), nil
	case isDigit(l.ch):
		return l.readNumber(start, pos), nil
	}

	ch := l.ch
	single := func(tt token.Type) token.Token {
		l.readChar()
		return token.Token{Type: tt, Literal: string(ch), Start: start, Length: 1, Pos: pos}
	}

	switch ch {
	case '(':
		return single(token.LParen), nil
	case ')':
		return single(token.RParen), nil
	case '{':
		return single(token.LBrace), nil
	case '}':
		return single(token.RBrace), nil
	case ';':
		return single(token.Semicolon), nil
	case '?':
		return single(token.Question), nil
	case ':':
		return single(token.Colon), nil
	case ',':
		return single(token.Comma), nil
	case '~':
		return single(token.Tilde), nil
	case '+':
		return single(token.Plus), nil
	case '*':
		return single(token.Star), nil
	case '/':
		return single(token.Slash), nil
	case '%':
		return single(token.Percent), nil
	case '-':
		l.readChar()
		if l.ch == '-' {
			l.readChar()
			return token.Token{Type: token.Decrement, Literal: "--", Start: start, Length: 2, Pos: pos}, nil
		}
		return token.Token{Type: token.Minus, Literal: "-", Start: start, Length: 1, Pos: pos}, nil
	case '=':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
			return token.Token{Type: token.EqualEqual, Literal: "==", Start: start, Length: 2, Pos: pos}, nil
		}
		return token.Token{Type: token.Equal, Literal: "=", Start: start, Length: 1, Pos: pos}, nil
	case '!':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
			return token.Token{Type: token.BangEqual, Literal: "!=", Start: start, Length: 2, Pos: pos}, nil
		}
		return token.Token{Type: token.Bang, Literal: "!", Start: start, Length: 1, Pos: pos}, nil
	case '<':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
			return token.Token{Type: token.LessEqual, Literal: "<=", Start: start, Length: 2, Pos: pos}, nil
		}
		return token.Token{Type: token.Less, Literal: "<", Start: start, Length: 1, Pos: pos}, nil
	case '>':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
			return token.Token{Type: token.GreaterEqual, Literal: ">=", Start: start, Length: 2, Pos: pos}, nil
		}
		return token.Token{Type: token.Greater, Literal: ">", Start: start, Length: 1, Pos: pos}, nil
	case '&':
		l.readChar()
		if l.ch == '&' {
			l.readChar()
			return token.Token{Type: token.AmpAmp, Literal: "&&", Start: start, Length: 2, Pos: pos}, nil
		}
		return token.Token{}, cerrors.NewError(pos, cerrors.KindLex, "Invalid token '&'")
	case '|':
		l.readChar()
		if l.ch == '|' {
			l.readChar()
			return token.Token{Type: token.PipePipe, Literal: "||", Start: start, Length: 2, Pos: pos}, nil
		}
		return token.Token{}, cerrors.NewError(pos, cerrors.KindLex, "Invalid token '|'")
	default:
		l.readChar()
		return token.Token{}, cerrors.NewError(pos, cerrors.KindLex, "Invalid token '"+string(ch)+"'")
	}
}

func (l *Lexer) readIdentifier(start int, pos token.Position) token.Token {
	startPos := l.pos - 1
	for isIdentChar(l.ch) {
		l.readChar()
	}
	text := l.input[startPos : l.pos-1]
	tt := token.Identifier
	if kw, ok := token.Keywords[text]; ok {
		tt = kw
	}
	return token.Token{Type: tt, Literal: text, Start: start, Length: len(text), Pos: pos}
}

func (l *Lexer) readNumber(start int, pos token.Position) token.Token {
	startPos := l.pos - 1
	for isDigit(l.ch) {
		l.readChar()
	}
	text := l.input[startPos : l.pos-1]
	return token.Token{Type: token.Constant, Literal: text, Start: start, Length: len(text), Pos: pos}
}

// TokenizeAll drains the lexer into a slice, stopping (and returning the
// first error) on the first invalid byte. On success the terminal EOF
// token is always the last element of the returned slice.
func TokenizeAll(input, filename string) ([]token.Token, error) {
	l := New(input, filename)
	var tokens []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens, nil
		}
	}
}

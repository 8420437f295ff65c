package parser

import (
	"fmt"
	"strings"
	"unicode"
)

// Lexer tokenizes RTL source text. It handles "--" comments, the
// case-insensitive keyword set, and the quoted literal forms.
type Lexer struct {
	source string
	pos    int
	line   int
	col    int
	start  int
	tokens []Token
}

// NewLexer creates a lexer for the given source.
func NewLexer(source string) *Lexer {
	estTokens := len(source) / 6
	if estTokens < 16 {
		estTokens = 16
	}
	return &Lexer{
		source: source,
		line:   1,
		col:    1,
		tokens: make([]Token, 0, estTokens),
	}
}

// Tokenize returns all tokens from the source.
func (l *Lexer) Tokenize() ([]Token, error) {
	for !l.isAtEnd() {
		l.start = l.pos
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
	l.tokens = append(l.tokens, Token{Kind: TokenEOF, Line: l.line, Col: l.col, Offset: l.pos})
	return l.tokens, nil
}

func (l *Lexer) scanToken() error {
	startLine, startCol := l.line, l.col
	c := l.advance()

	switch {
	case c == ' ' || c == '\t' || c == '\r' || c == '\n':
		return nil
	case c == '-':
		if l.match('-') {
			for !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}
			return nil
		}
		l.add(TokenMinus, startLine, startCol)
	case c == '+':
		l.add(TokenPlus, startLine, startCol)
	case c == '*':
		l.add(TokenStar, startLine, startCol)
	case c == '/':
		if l.match('=') {
			l.add(TokenNeq, startLine, startCol)
		} else {
			l.add(TokenSlash, startLine, startCol)
		}
	case c == '&':
		l.add(TokenAmp, startLine, startCol)
	case c == '|':
		l.add(TokenBar, startLine, startCol)
	case c == '=':
		if l.match('>') {
			l.add(TokenArrow, startLine, startCol)
		} else {
			l.add(TokenEq, startLine, startCol)
		}
	case c == '<':
		if l.match('=') {
			l.add(TokenLessEq, startLine, startCol)
		} else {
			l.add(TokenLess, startLine, startCol)
		}
	case c == '>':
		if l.match('=') {
			l.add(TokenGreaterEq, startLine, startCol)
		} else {
			l.add(TokenGreater, startLine, startCol)
		}
	case c == ':':
		if l.match('=') {
			l.add(TokenColonEq, startLine, startCol)
		} else {
			l.add(TokenColon, startLine, startCol)
		}
	case c == '(':
		l.add(TokenLeftParen, startLine, startCol)
	case c == ')':
		l.add(TokenRightParen, startLine, startCol)
	case c == ';':
		l.add(TokenSemicolon, startLine, startCol)
	case c == ',':
		l.add(TokenComma, startLine, startCol)
	case c == '.':
		l.add(TokenDot, startLine, startCol)
	case c == '\'':
		return l.scanBitLit(startLine, startCol)
	case c == '"':
		return l.scanStringLit(startLine, startCol, l.start)
	case unicode.IsDigit(rune(c)):
		l.scanNumber(startLine, startCol)
	case isIdentStart(c):
		// x"..." is a hex vector literal, not an identifier.
		if (c == 'x' || c == 'X') && !l.isAtEnd() && l.peek() == '"' {
			l.advance()
			return l.scanHexLit(startLine, startCol)
		}
		l.scanIdent(startLine, startCol)
	default:
		return &ParseError{Line: startLine, Message: fmt.Sprintf("unexpected character %q", c)}
	}
	return nil
}

func (l *Lexer) scanBitLit(line, col int) error {
	if l.isAtEnd() || l.pos+1 >= len(l.source) {
		return &ParseError{Line: line, Message: "unterminated bit literal"}
	}
	v := l.source[l.pos]
	if (v != '0' && v != '1') || l.source[l.pos+1] != '\'' {
		return &ParseError{Line: line, Message: "invalid bit literal, expected '0' or '1'"}
	}
	l.advance()
	l.advance()
	l.tokens = append(l.tokens, Token{Kind: TokenBitLit, Text: string(v), Line: line, Col: col, Offset: l.start})
	return nil
}

func (l *Lexer) scanStringLit(line, col, offset int) error {
	from := l.pos
	for !l.isAtEnd() && l.peek() != '"' {
		if l.peek() == '\n' {
			return &ParseError{Line: line, Message: "unterminated string literal"}
		}
		l.advance()
	}
	if l.isAtEnd() {
		return &ParseError{Line: line, Message: "unterminated string literal"}
	}
	text := l.source[from:l.pos]
	l.advance() // closing quote
	l.tokens = append(l.tokens, Token{Kind: TokenStringLit, Text: text, Line: line, Col: col, Offset: offset})
	return nil
}

func (l *Lexer) scanHexLit(line, col int) error {
	from := l.pos
	for !l.isAtEnd() && l.peek() != '"' {
		l.advance()
	}
	if l.isAtEnd() {
		return &ParseError{Line: line, Message: "unterminated hex literal"}
	}
	text := l.source[from:l.pos]
	for i := 0; i < len(text); i++ {
		if !isHexDigit(text[i]) {
			return &ParseError{Line: line, Message: fmt.Sprintf("invalid hex literal x%q", text)}
		}
	}
	l.advance() // closing quote
	l.tokens = append(l.tokens, Token{Kind: TokenHexLit, Text: text, Line: line, Col: col, Offset: l.start})
	return nil
}

func (l *Lexer) scanNumber(line, col int) {
	for !l.isAtEnd() && unicode.IsDigit(rune(l.peek())) {
		l.advance()
	}
	l.tokens = append(l.tokens, Token{
		Kind: TokenIntLit, Text: l.source[l.start:l.pos], Line: line, Col: col, Offset: l.start,
	})
}

func (l *Lexer) scanIdent(line, col int) {
	for !l.isAtEnd() && isIdentPart(l.peek()) {
		l.advance()
	}
	text := l.source[l.start:l.pos]
	kind := TokenIdent
	if kw, ok := keywords[strings.ToLower(text)]; ok {
		kind = kw
	}
	l.tokens = append(l.tokens, Token{Kind: kind, Text: text, Line: line, Col: col, Offset: l.start})
}

func (l *Lexer) add(kind TokenKind, line, col int) {
	l.tokens = append(l.tokens, Token{
		Kind: kind, Text: l.source[l.start:l.pos], Line: line, Col: col, Offset: l.start,
	})
}

func (l *Lexer) advance() byte {
	c := l.source[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *Lexer) match(expected byte) bool {
	if l.isAtEnd() || l.source[l.pos] != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) peek() byte {
	return l.source[l.pos]
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isIdentStart(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c))
}

func isIdentPart(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

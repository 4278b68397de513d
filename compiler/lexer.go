package compiler

import (
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for howl syntax
// ---------------------------------------------------------------------------

// Lexer tokenizes howl source code. A word runs until whitespace or a
// delimiter; words starting with a digit or '.' must be numbers.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current character
	line    int  // current line (1-based)
	col     int  // column of ch (1-based)
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
	}
	l.readChar()
	return l
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
		l.pos = l.readPos
		l.col++
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
	l.col++
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.col,
	}
}

// NextToken returns the next token. After EOF it keeps returning EOF.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	pos := l.position()

	if l.atEOF() {
		return Token{Type: TokenEOF, Pos: pos}
	}
	if typ, ok := delimiters[l.ch]; ok {
		lit := string(l.ch)
		l.readChar()
		return Token{Type: typ, Literal: lit, Pos: pos}
	}
	if l.ch == '"' {
		return l.readString(pos)
	}
	return l.readWord(pos)
}

// All tokenizes the remaining input, up to and including EOF.
func (l *Lexer) All() []Token {
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == TokenEOF {
			return toks
		}
	}
}

// skipWhitespaceAndComments skips whitespace and '#' line comments. A '#'
// only starts a comment when followed by whitespace or EOF.
func (l *Lexer) skipWhitespaceAndComments() {
	for !l.atEOF() {
		if isSpace(l.ch) {
			l.readChar()
			continue
		}
		if l.ch == '#' {
			if peek := l.peekChar(); peek == 0 || isSpace(peek) {
				for !l.atEOF() && l.ch != '\n' {
					l.readChar()
				}
				continue
			}
		}
		return
	}
}

// readString reads a "..." literal. There are no escapes.
func (l *Lexer) readString(pos Position) Token {
	l.readChar() // consume opening "
	start := l.pos
	for !l.atEOF() && l.ch != '"' {
		l.readChar()
	}
	if l.atEOF() {
		return Token{Type: TokenError, Literal: "unclosed string literal", Pos: pos}
	}
	lit := l.input[start:l.pos]
	l.readChar() // consume closing "
	return Token{Type: TokenString, Literal: lit, Pos: pos}
}

// readWord reads a number, reserved word or identifier.
func (l *Lexer) readWord(pos Position) Token {
	start := l.pos
	for !l.atEOF() && !IsTerminator(l.ch) {
		l.readChar()
	}
	word := l.input[start:l.pos]

	if isNumberStart(word[0]) {
		return classifyNumber(word, pos)
	}
	if typ, ok := reservedWords[word]; ok {
		return Token{Type: typ, Literal: word, Pos: pos}
	}
	return Token{Type: TokenIdentifier, Literal: word, Pos: pos}
}

func isNumberStart(b byte) bool {
	return isDigit(b) || b == '.'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// classifyNumber checks that word is made of digits and at most one point.
func classifyNumber(word string, pos Position) Token {
	points := 0
	for i := 0; i < len(word); i++ {
		switch {
		case word[i] == '.':
			points++
		case !isDigit(word[i]):
			return Token{Type: TokenError, Literal: "identifiers must not begin with a number or `.`", Pos: pos}
		}
	}
	switch {
	case points > 1:
		return Token{Type: TokenError, Literal: "number has multiple decimal points", Pos: pos}
	case points == 1 && len(word) == 1:
		return Token{Type: TokenError, Literal: "could not parse float literal", Pos: pos}
	case points == 1:
		return Token{Type: TokenFloat, Literal: word, Pos: pos}
	}
	return Token{Type: TokenInteger, Literal: word, Pos: pos}
}

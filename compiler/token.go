package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the howl lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenInteger    // 42
	TokenFloat      // 3.14, .5, 2.
	TokenString     // "hello"
	TokenIdentifier // foo, +, ifTrue, >>

	// Delimiters
	TokenLParen    // (
	TokenRParen    // )
	TokenLBracket  // [
	TokenRBracket  // ]
	TokenComma     // ,
	TokenColon     // :
	TokenSemicolon // ;
	TokenBar       // |
	TokenAssign    // =

	// Reserved identifiers
	TokenNil
	TokenTrue
	TokenFalse
	TokenTypeDef // type
)

var tokenNames = map[TokenType]string{
	TokenEOF:        "EOF",
	TokenError:      "ERROR",
	TokenInteger:    "INTEGER",
	TokenFloat:      "FLOAT",
	TokenString:     "STRING",
	TokenIdentifier: "IDENTIFIER",
	TokenLParen:     "(",
	TokenRParen:     ")",
	TokenLBracket:   "[",
	TokenRBracket:   "]",
	TokenComma:      ",",
	TokenColon:      ":",
	TokenSemicolon:  ";",
	TokenBar:        "|",
	TokenAssign:     "=",
	TokenNil:        "nil",
	TokenTrue:       "true",
	TokenFalse:      "false",
	TokenTypeDef:    "type",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string   // the raw text; string contents without quotes
	Pos     Position // start position
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "EOF"
	}
	if t.Type == TokenError {
		return fmt.Sprintf("ERROR(%s)", t.Literal)
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Type, t.Literal[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}

// Reserved words mapped to their token types.
var reservedWords = map[string]TokenType{
	"nil":   TokenNil,
	"true":  TokenTrue,
	"false": TokenFalse,
	"type":  TokenTypeDef,
	"=":     TokenAssign,
}

// delimiters are the single-character tokens. Each of them also ends a word.
var delimiters = map[rune]TokenType{
	'(': TokenLParen,
	')': TokenRParen,
	'[': TokenLBracket,
	']': TokenRBracket,
	',': TokenComma,
	':': TokenColon,
	';': TokenSemicolon,
	'|': TokenBar,
}

// IsTerminator reports whether r ends a word.
func IsTerminator(r rune) bool {
	if _, ok := delimiters[r]; ok {
		return true
	}
	return r == '"' || isSpace(r)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// Package parser turns RTL source text into the structural tree
// defined by internal/ir.
package parser

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota

	// Literals
	TokenIdent
	TokenIntLit    // 42
	TokenBitLit    // '0' / '1'
	TokenStringLit // "0101"
	TokenHexLit    // x"AF"

	// Operators and punctuation
	TokenPlus      // +
	TokenMinus     // -
	TokenStar      // *
	TokenSlash     // /
	TokenAmp       // &
	TokenEq        // =
	TokenNeq       // /=
	TokenLess      // <
	TokenLessEq    // <= (also the signal-assignment arrow)
	TokenGreater   // >
	TokenGreaterEq // >=
	TokenColonEq   // :=
	TokenArrow     // =>
	TokenLeftParen
	TokenRightParen
	TokenSemicolon
	TokenColon
	TokenComma
	TokenDot
	TokenBar // |

	// Keywords
	TokenEntity
	TokenArchitecture
	TokenIs
	TokenOf
	TokenPort
	TokenGeneric
	TokenSignal
	TokenType
	TokenBegin
	TokenEnd
	TokenProcess
	TokenIf
	TokenThen
	TokenElsif
	TokenElse
	TokenCase
	TokenWhen
	TokenOthers
	TokenNot
	TokenAnd
	TokenOr
	TokenXor
	TokenNand
	TokenNor
	TokenDownto
	TokenTo
	TokenIn
	TokenOut
	TokenInout
	TokenBuffer
	TokenLibrary
	TokenUse
	TokenAll
	TokenComponent
	TokenGenerate
	TokenPackage
	TokenWith
	TokenSelect
	TokenMap
)

// keywords maps lower-cased source words to keyword tokens. The
// source language is case-insensitive.
var keywords = map[string]TokenKind{
	"entity":       TokenEntity,
	"architecture": TokenArchitecture,
	"is":           TokenIs,
	"of":           TokenOf,
	"port":         TokenPort,
	"generic":      TokenGeneric,
	"signal":       TokenSignal,
	"type":         TokenType,
	"begin":        TokenBegin,
	"end":          TokenEnd,
	"process":      TokenProcess,
	"if":           TokenIf,
	"then":         TokenThen,
	"elsif":        TokenElsif,
	"else":         TokenElse,
	"case":         TokenCase,
	"when":         TokenWhen,
	"others":       TokenOthers,
	"not":          TokenNot,
	"and":          TokenAnd,
	"or":           TokenOr,
	"xor":          TokenXor,
	"nand":         TokenNand,
	"nor":          TokenNor,
	"downto":       TokenDownto,
	"to":           TokenTo,
	"in":           TokenIn,
	"out":          TokenOut,
	"inout":        TokenInout,
	"buffer":       TokenBuffer,
	"library":      TokenLibrary,
	"use":          TokenUse,
	"all":          TokenAll,
	"component":    TokenComponent,
	"generate":     TokenGenerate,
	"package":      TokenPackage,
	"with":         TokenWith,
	"select":       TokenSelect,
	"map":          TokenMap,
}

// Token is a lexed token. Text preserves the source spelling; Offset
// is the byte position in the source, used to recover verbatim text
// for degraded constructs.
type Token struct {
	Kind   TokenKind
	Text   string
	Line   int
	Col    int
	Offset int
}

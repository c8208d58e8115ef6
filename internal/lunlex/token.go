// Copyright 2026 The Lun Authors
// SPDX-License-Identifier: MIT

package lunlex

import "fmt"

// Token represents a single lexical element in a Lun source string.
// Tokens do not carry their text;
// they reference a byte range of the source they were scanned from,
// which can be recovered with [Scanner.Text].
type Token struct {
	Kind TokenKind
	// Start is the byte offset of the token in the source.
	Start int
	// Len is the length of the token in bytes.
	Len int
}

// End returns the byte offset one past the last byte of the token.
func (tok Token) End() int {
	return tok.Start + tok.Len
}

// Position represents a position in a textual source file.
type Position struct {
	// Line is the 1-based line number.
	Line int
	// Column is the 1-based column number.
	// Columns are based in bytes.
	Column int
}

// String formats the position as "line:col".
func (pos Position) String() string {
	if !pos.IsValid() {
		return "<invalid position>"
	}
	return fmt.Sprintf("%d:%d", pos.Line, pos.Column)
}

// IsValid reports whether pos has a positive line number and column.
func (pos Position) IsValid() bool {
	return pos.Line > 0 && pos.Column > 0
}

// TokenKind is an enumeration of valid [Token] types.
// The zero value is [EOFToken].
type TokenKind int

// [TokenKind] values.
const (
	// EOFToken indicates the end of the source.
	// A [Scanner] returns it indefinitely once the source is exhausted.
	EOFToken TokenKind = iota
	// IdentifierToken indicates a name.
	IdentifierToken
	// StringToken indicates a literal string, including its quotes.
	StringToken
	// NumeralToken indicates a decimal numeric constant.
	NumeralToken
	// HexNumeralToken indicates a hexadecimal numeric constant
	// (with the "0x" prefix).
	HexNumeralToken

	// Keywords

	AndToken      // and
	DoToken       // do
	ElseToken     // else
	ElseifToken   // elseif
	EndToken      // end
	FalseToken    // false
	ForToken      // for
	FunctionToken // function
	IfToken       // if
	InToken       // in
	LocalToken    // local
	NilToken      // nil
	NotToken      // not
	OrToken       // or
	RepeatToken   // repeat
	ThenToken     // then
	TrueToken     // true
	UntilToken    // until
	WhileToken    // while

	// Operators

	AddToken          // +
	SubToken          // -
	MulToken          // *
	DivToken          // /
	ModToken          // %
	PowToken          // ^
	LenToken          // #
	EqualToken        // ==
	NotEqualToken     // ~=
	LessEqualToken    // <=
	GreaterEqualToken // >=
	LessToken         // <
	GreaterToken      // >
	AssignToken       // =
	LParenToken       // (
	RParenToken       // )
	LBraceToken       // {
	RBraceToken       // }
	LBracketToken     // [
	RBracketToken     // ]
	SemiToken         // ;
	ColonToken        // :
	CommaToken        // ,
	DotToken          // .
	ConcatToken       // ..
	VarargToken       // ...
)

var tokenKindNames = map[TokenKind]string{
	EOFToken:          "<eof>",
	IdentifierToken:   "identifier",
	StringToken:       "string",
	NumeralToken:      "number",
	HexNumeralToken:   "number",
	AndToken:          "and",
	DoToken:           "do",
	ElseToken:         "else",
	ElseifToken:       "elseif",
	EndToken:          "end",
	FalseToken:        "false",
	ForToken:          "for",
	FunctionToken:     "function",
	IfToken:           "if",
	InToken:           "in",
	LocalToken:        "local",
	NilToken:          "nil",
	NotToken:          "not",
	OrToken:           "or",
	RepeatToken:       "repeat",
	ThenToken:         "then",
	TrueToken:         "true",
	UntilToken:        "until",
	WhileToken:        "while",
	AddToken:          "+",
	SubToken:          "-",
	MulToken:          "*",
	DivToken:          "/",
	ModToken:          "%",
	PowToken:          "^",
	LenToken:          "#",
	EqualToken:        "==",
	NotEqualToken:     "~=",
	LessEqualToken:    "<=",
	GreaterEqualToken: ">=",
	LessToken:         "<",
	GreaterToken:      ">",
	AssignToken:       "=",
	LParenToken:       "(",
	RParenToken:       ")",
	LBraceToken:       "{",
	RBraceToken:       "}",
	LBracketToken:     "[",
	RBracketToken:     "]",
	SemiToken:         ";",
	ColonToken:        ":",
	CommaToken:        ",",
	DotToken:          ".",
	ConcatToken:       "..",
	VarargToken:       "...",
}

// String returns the token kind as it appears in Lun source,
// or a description for kinds that carry text.
func (kind TokenKind) String() string {
	if name, ok := tokenKindNames[kind]; ok {
		return name
	}
	return fmt.Sprintf("TokenKind(%d)", int(kind))
}

var keywords = map[string]TokenKind{
	"and":      AndToken,
	"do":       DoToken,
	"else":     ElseToken,
	"elseif":   ElseifToken,
	"end":      EndToken,
	"false":    FalseToken,
	"for":      ForToken,
	"function": FunctionToken,
	"if":       IfToken,
	"in":       InToken,
	"local":    LocalToken,
	"nil":      NilToken,
	"not":      NotToken,
	"or":       OrToken,
	"repeat":   RepeatToken,
	"then":     ThenToken,
	"true":     TrueToken,
	"until":    UntilToken,
	"while":    WhileToken,
}

// Copyright 2026 The Lun Authors
// SPDX-License-Identifier: MIT

// Package lunlex provides a scanner to split Lun source text
// into lexical elements.
//
// The scanner operates on an in-memory source string and yields
// tokens that reference byte ranges of it.
// The same string must outlive every token taken from it.
package lunlex

// A Scanner parses Lun tokens from a source string.
type Scanner struct {
	src string
	pos int
}

// NewScanner returns a [Scanner] that reads from src.
func NewScanner(src string) *Scanner {
	return &Scanner{src: src}
}

// Pos returns the byte offset of the next token.
func (s *Scanner) Pos() int {
	return s.pos
}

// Text returns the source text the token references.
func (s *Scanner) Text(tok Token) string {
	return s.src[tok.Start:tok.End()]
}

// Position converts a byte offset into the source
// to a 1-based line and column.
func (s *Scanner) Position(offset int) Position {
	if offset > len(s.src) {
		offset = len(s.src)
	}
	pos := Position{Line: 1, Column: 1}
	for _, b := range []byte(s.src[:offset]) {
		if b == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
	}
	return pos
}

// Scan reads the next [Token] from the source.
// Once the source is exhausted,
// Scan returns a token of kind [EOFToken] indefinitely.
// If Scan returns an error, it is of type [*Error].
func (s *Scanner) Scan() (Token, error) {
	for {
		s.skipSpace()
		if !s.skipComment() {
			break
		}
	}
	if s.pos >= len(s.src) {
		return Token{Kind: EOFToken, Start: len(s.src)}, nil
	}

	start := s.pos
	b := s.src[s.pos]
	switch {
	case isLetter(b) || b == '_':
		for s.pos < len(s.src) && isIdentByte(s.src[s.pos]) {
			s.pos++
		}
		tok := Token{Kind: IdentifierToken, Start: start, Len: s.pos - start}
		if kind, isKeyword := keywords[s.Text(tok)]; isKeyword {
			tok.Kind = kind
		}
		return tok, nil
	case isDigit(b):
		return s.numeral(start)
	case b == '\'' || b == '"':
		return s.literalString(start, b)
	}

	s.pos++
	switch b {
	case '+':
		return s.token(AddToken, start), nil
	case '-':
		return s.token(SubToken, start), nil
	case '*':
		return s.token(MulToken, start), nil
	case '/':
		return s.token(DivToken, start), nil
	case '%':
		return s.token(ModToken, start), nil
	case '^':
		return s.token(PowToken, start), nil
	case '#':
		return s.token(LenToken, start), nil
	case '(':
		return s.token(LParenToken, start), nil
	case ')':
		return s.token(RParenToken, start), nil
	case '{':
		return s.token(LBraceToken, start), nil
	case '}':
		return s.token(RBraceToken, start), nil
	case '[':
		return s.token(LBracketToken, start), nil
	case ']':
		return s.token(RBracketToken, start), nil
	case ';':
		return s.token(SemiToken, start), nil
	case ':':
		return s.token(ColonToken, start), nil
	case ',':
		return s.token(CommaToken, start), nil
	case '=':
		if s.take('=') {
			return s.token(EqualToken, start), nil
		}
		return s.token(AssignToken, start), nil
	case '~':
		if s.take('=') {
			return s.token(NotEqualToken, start), nil
		}
		return Token{}, s.errorAt(InvalidCharacter, start)
	case '<':
		if s.take('=') {
			return s.token(LessEqualToken, start), nil
		}
		return s.token(LessToken, start), nil
	case '>':
		if s.take('=') {
			return s.token(GreaterEqualToken, start), nil
		}
		return s.token(GreaterToken, start), nil
	case '.':
		if s.pos < len(s.src) && isDigit(s.src[s.pos]) {
			s.pos = start
			return s.numeral(start)
		}
		if s.take('.') {
			if s.take('.') {
				return s.token(VarargToken, start), nil
			}
			return s.token(ConcatToken, start), nil
		}
		return s.token(DotToken, start), nil
	default:
		return Token{}, s.errorAt(InvalidCharacter, start)
	}
}

func (s *Scanner) token(kind TokenKind, start int) Token {
	return Token{Kind: kind, Start: start, Len: s.pos - start}
}

// take consumes the next byte if it equals b.
func (s *Scanner) take(b byte) bool {
	if s.pos < len(s.src) && s.src[s.pos] == b {
		s.pos++
		return true
	}
	return false
}

func (s *Scanner) skipSpace() {
	for s.pos < len(s.src) && isSpace(s.src[s.pos]) {
		s.pos++
	}
}

// skipComment consumes a "--" comment through the end of the line.
// It reports whether a comment was found.
func (s *Scanner) skipComment() bool {
	if s.pos+1 >= len(s.src) || s.src[s.pos] != '-' || s.src[s.pos+1] != '-' {
		return false
	}
	s.pos += 2
	for s.pos < len(s.src) && s.src[s.pos] != '\n' {
		s.pos++
	}
	return true
}

// literalString scans a quoted string.
// The token's byte range includes both quotes.
// There are no escape sequences:
// the string's contents are the raw bytes between the quotes.
func (s *Scanner) literalString(start int, quote byte) (Token, error) {
	s.pos++
	for s.pos < len(s.src) {
		b := s.src[s.pos]
		if b == '\n' || b == '\r' {
			return Token{}, s.errorAt(UnfinishedString, start)
		}
		s.pos++
		if b == quote {
			return s.token(StringToken, start), nil
		}
	}
	return Token{}, s.errorAt(UnfinishedString, start)
}

// numeral scans a decimal or hexadecimal numeric constant.
func (s *Scanner) numeral(start int) (Token, error) {
	if s.pos+1 < len(s.src) && s.src[s.pos] == '0' &&
		(s.src[s.pos+1] == 'x' || s.src[s.pos+1] == 'X') {
		s.pos += 2
		digitStart := s.pos
		for s.pos < len(s.src) && isHexDigit(s.src[s.pos]) {
			s.pos++
		}
		if s.pos == digitStart || s.followedByIdentByte() {
			return Token{}, s.errorAt(MalformedNumber, start)
		}
		return s.token(HexNumeralToken, start), nil
	}

	for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
		s.pos++
	}
	if s.take('.') {
		for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
			s.pos++
		}
	}
	if s.pos < len(s.src) && (s.src[s.pos] == 'e' || s.src[s.pos] == 'E') {
		s.pos++
		if s.pos < len(s.src) && (s.src[s.pos] == '+' || s.src[s.pos] == '-') {
			s.pos++
		}
		digitStart := s.pos
		for s.pos < len(s.src) && isDigit(s.src[s.pos]) {
			s.pos++
		}
		if s.pos == digitStart {
			return Token{}, s.errorAt(MalformedNumber, start)
		}
	}
	if s.followedByIdentByte() {
		return Token{}, s.errorAt(MalformedNumber, start)
	}
	return s.token(NumeralToken, start), nil
}

func (s *Scanner) followedByIdentByte() bool {
	return s.pos < len(s.src) && isIdentByte(s.src[s.pos])
}

func (s *Scanner) errorAt(kind ErrorKind, offset int) *Error {
	return &Error{Kind: kind, Position: s.Position(offset)}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r' || c == '\f' || c == '\v'
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func isIdentByte(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}

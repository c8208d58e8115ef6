// Copyright 2026 The Lun Authors
// SPDX-License-Identifier: MIT

package lunlex

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []Token
	}{
		{
			name:   "Empty",
			source: "",
			want:   nil,
		},
		{
			name:   "SpacesOnly",
			source: " \t\r\n",
			want:   nil,
		},
		{
			name:   "Assignment",
			source: "x = 5",
			want: []Token{
				{Kind: IdentifierToken, Start: 0, Len: 1},
				{Kind: AssignToken, Start: 2, Len: 1},
				{Kind: NumeralToken, Start: 4, Len: 1},
			},
		},
		{
			name:   "Keywords",
			source: "and do else elseif end false for function if in local nil not or repeat then true until while",
			want: []Token{
				{Kind: AndToken, Start: 0, Len: 3},
				{Kind: DoToken, Start: 4, Len: 2},
				{Kind: ElseToken, Start: 7, Len: 4},
				{Kind: ElseifToken, Start: 12, Len: 6},
				{Kind: EndToken, Start: 19, Len: 3},
				{Kind: FalseToken, Start: 23, Len: 5},
				{Kind: ForToken, Start: 29, Len: 3},
				{Kind: FunctionToken, Start: 33, Len: 8},
				{Kind: IfToken, Start: 42, Len: 2},
				{Kind: InToken, Start: 45, Len: 2},
				{Kind: LocalToken, Start: 48, Len: 5},
				{Kind: NilToken, Start: 54, Len: 3},
				{Kind: NotToken, Start: 58, Len: 3},
				{Kind: OrToken, Start: 62, Len: 2},
				{Kind: RepeatToken, Start: 65, Len: 6},
				{Kind: ThenToken, Start: 72, Len: 4},
				{Kind: TrueToken, Start: 77, Len: 4},
				{Kind: UntilToken, Start: 82, Len: 5},
				{Kind: WhileToken, Start: 88, Len: 5},
			},
		},
		{
			name:   "KeywordPrefixIdentifier",
			source: "android doit",
			want: []Token{
				{Kind: IdentifierToken, Start: 0, Len: 7},
				{Kind: IdentifierToken, Start: 8, Len: 4},
			},
		},
		{
			name:   "Underscores",
			source: "_foo_bar_ _0",
			want: []Token{
				{Kind: IdentifierToken, Start: 0, Len: 9},
				{Kind: IdentifierToken, Start: 10, Len: 2},
			},
		},
		{
			name:   "Numerals",
			source: "3 3.5 .5 314.16e-2 0xBEEF 1.",
			want: []Token{
				{Kind: NumeralToken, Start: 0, Len: 1},
				{Kind: NumeralToken, Start: 2, Len: 3},
				{Kind: NumeralToken, Start: 6, Len: 2},
				{Kind: NumeralToken, Start: 9, Len: 9},
				{Kind: HexNumeralToken, Start: 19, Len: 6},
				{Kind: NumeralToken, Start: 26, Len: 2},
			},
		},
		{
			name:   "Strings",
			source: `'hi' "there" ''`,
			want: []Token{
				{Kind: StringToken, Start: 0, Len: 4},
				{Kind: StringToken, Start: 5, Len: 7},
				{Kind: StringToken, Start: 13, Len: 2},
			},
		},
		{
			name:   "StringsHoldRawBytes",
			source: `'a\nb'`,
			want: []Token{
				{Kind: StringToken, Start: 0, Len: 6},
			},
		},
		{
			name:   "MixedQuotes",
			source: `'say "hi"' "don't"`,
			want: []Token{
				{Kind: StringToken, Start: 0, Len: 10},
				{Kind: StringToken, Start: 11, Len: 7},
			},
		},
		{
			name:   "Operators",
			source: "+ - * / % ^ # == ~= <= >= < > = ( ) { } [ ] ; : , . .. ...",
			want: []Token{
				{Kind: AddToken, Start: 0, Len: 1},
				{Kind: SubToken, Start: 2, Len: 1},
				{Kind: MulToken, Start: 4, Len: 1},
				{Kind: DivToken, Start: 6, Len: 1},
				{Kind: ModToken, Start: 8, Len: 1},
				{Kind: PowToken, Start: 10, Len: 1},
				{Kind: LenToken, Start: 12, Len: 1},
				{Kind: EqualToken, Start: 14, Len: 2},
				{Kind: NotEqualToken, Start: 17, Len: 2},
				{Kind: LessEqualToken, Start: 20, Len: 2},
				{Kind: GreaterEqualToken, Start: 23, Len: 2},
				{Kind: LessToken, Start: 26, Len: 1},
				{Kind: GreaterToken, Start: 28, Len: 1},
				{Kind: AssignToken, Start: 30, Len: 1},
				{Kind: LParenToken, Start: 32, Len: 1},
				{Kind: RParenToken, Start: 34, Len: 1},
				{Kind: LBraceToken, Start: 36, Len: 1},
				{Kind: RBraceToken, Start: 38, Len: 1},
				{Kind: LBracketToken, Start: 40, Len: 1},
				{Kind: RBracketToken, Start: 42, Len: 1},
				{Kind: SemiToken, Start: 44, Len: 1},
				{Kind: ColonToken, Start: 46, Len: 1},
				{Kind: CommaToken, Start: 48, Len: 1},
				{Kind: DotToken, Start: 50, Len: 1},
				{Kind: ConcatToken, Start: 52, Len: 2},
				{Kind: VarargToken, Start: 55, Len: 3},
			},
		},
		{
			name:   "AdjacentOperators",
			source: "x=-1",
			want: []Token{
				{Kind: IdentifierToken, Start: 0, Len: 1},
				{Kind: AssignToken, Start: 1, Len: 1},
				{Kind: SubToken, Start: 2, Len: 1},
				{Kind: NumeralToken, Start: 3, Len: 1},
			},
		},
		{
			name:   "Comment",
			source: "x -- the rest is ignored\ny",
			want: []Token{
				{Kind: IdentifierToken, Start: 0, Len: 1},
				{Kind: IdentifierToken, Start: 25, Len: 1},
			},
		},
		{
			name:   "CommentAtEOF",
			source: "x --",
			want: []Token{
				{Kind: IdentifierToken, Start: 0, Len: 1},
			},
		},
		{
			name:   "ConsecutiveComments",
			source: "-- one\n-- two\nx",
			want: []Token{
				{Kind: IdentifierToken, Start: 14, Len: 1},
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := NewScanner(test.source)
			var got []Token
			for {
				tok, err := s.Scan()
				if err != nil {
					t.Fatalf("Scan() error: %v", err)
				}
				if tok.Kind == EOFToken {
					break
				}
				got = append(got, tok)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("tokens of %q (-want +got):\n%s", test.source, diff)
			}
		})
	}
}

func TestScanEOFIsPersistent(t *testing.T) {
	s := NewScanner("x")
	if tok, err := s.Scan(); err != nil || tok.Kind != IdentifierToken {
		t.Fatalf("first Scan() = %v, %v; want identifier", tok, err)
	}
	for i := 0; i < 3; i++ {
		tok, err := s.Scan()
		if err != nil {
			t.Fatalf("Scan() after EOF error: %v", err)
		}
		if tok.Kind != EOFToken {
			t.Errorf("Scan() after EOF = %v; want EOF", tok)
		}
		if tok.Start != 1 {
			t.Errorf("EOF token start = %d; want 1", tok.Start)
		}
	}
}

func TestScanErrors(t *testing.T) {
	tests := []struct {
		source string
		kind   ErrorKind
		pos    Position
	}{
		{"x = ?", InvalidCharacter, Position{Line: 1, Column: 5}},
		{"x = ~1", InvalidCharacter, Position{Line: 1, Column: 5}},
		{"x = 'abc", UnfinishedString, Position{Line: 1, Column: 5}},
		{"x = 'abc\ndef'", UnfinishedString, Position{Line: 1, Column: 5}},
		{"x = 5p", MalformedNumber, Position{Line: 1, Column: 5}},
		{"x = 0x", MalformedNumber, Position{Line: 1, Column: 5}},
		{"x = 0xBEEFZ", MalformedNumber, Position{Line: 1, Column: 5}},
		{"x = 1e", MalformedNumber, Position{Line: 1, Column: 5}},
		{"x = 1e+", MalformedNumber, Position{Line: 1, Column: 5}},
	}
	for _, test := range tests {
		s := NewScanner(test.source)
		var err error
		for err == nil {
			var tok Token
			tok, err = s.Scan()
			if err == nil && tok.Kind == EOFToken {
				break
			}
		}
		var lexErr *Error
		if !errors.As(err, &lexErr) {
			t.Errorf("scanning %q: error = %v; want *Error", test.source, err)
			continue
		}
		if lexErr.Kind != test.kind {
			t.Errorf("scanning %q: error kind = %v; want %v", test.source, lexErr.Kind, test.kind)
		}
		if lexErr.Position != test.pos {
			t.Errorf("scanning %q: error position = %v; want %v", test.source, lexErr.Position, test.pos)
		}
	}
}

func TestScanRecoverable(t *testing.T) {
	tests := []struct {
		source      string
		recoverable bool
	}{
		{"x = 'abc", true},
		{"x = ?", false},
		{"x = 5p", false},
	}
	for _, test := range tests {
		s := NewScanner(test.source)
		var err error
		for err == nil {
			var tok Token
			tok, err = s.Scan()
			if err == nil && tok.Kind == EOFToken {
				t.Fatalf("scanning %q did not return an error", test.source)
			}
		}
		var lexErr *Error
		if !errors.As(err, &lexErr) {
			t.Fatalf("scanning %q: error = %v; want *Error", test.source, err)
		}
		if got := lexErr.Recoverable(); got != test.recoverable {
			t.Errorf("scanning %q: Recoverable() = %t; want %t", test.source, got, test.recoverable)
		}
	}
}

func TestText(t *testing.T) {
	source := "foo = 'bar'"
	s := NewScanner(source)
	want := []string{"foo", "=", "'bar'"}
	for _, w := range want {
		tok, err := s.Scan()
		if err != nil {
			t.Fatalf("Scan() error: %v", err)
		}
		if got := s.Text(tok); got != w {
			t.Errorf("Text(%v) = %q; want %q", tok, got, w)
		}
	}
}

func TestPosition(t *testing.T) {
	source := "ab\ncd\n\nef"
	s := NewScanner(source)
	tests := []struct {
		offset int
		want   Position
	}{
		{0, Position{Line: 1, Column: 1}},
		{1, Position{Line: 1, Column: 2}},
		{3, Position{Line: 2, Column: 1}},
		{6, Position{Line: 3, Column: 1}},
		{7, Position{Line: 4, Column: 1}},
		{9, Position{Line: 4, Column: 3}},
	}
	for _, test := range tests {
		if got := s.Position(test.offset); got != test.want {
			t.Errorf("Position(%d) = %v; want %v", test.offset, got, test.want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		s    string
		want float64
	}{
		{"3", 3},
		{"3.5", 3.5},
		{".5", 0.5},
		{"1.", 1},
		{"314.16e-2", 3.1416},
		{"1e3", 1000},
	}
	for _, test := range tests {
		got, err := ParseNumber(test.s)
		if err != nil {
			t.Errorf("ParseNumber(%q) error: %v", test.s, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseNumber(%q) = %g; want %g", test.s, got, test.want)
		}
	}
}

func TestParseHexNumber(t *testing.T) {
	tests := []struct {
		s    string
		want float64
	}{
		{"0x0", 0},
		{"0xBEEF", 48879},
		{"0Xff", 255},
	}
	for _, test := range tests {
		got, err := ParseHexNumber(test.s)
		if err != nil {
			t.Errorf("ParseHexNumber(%q) error: %v", test.s, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseHexNumber(%q) = %g; want %g", test.s, got, test.want)
		}
	}
}

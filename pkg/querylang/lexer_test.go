package querylang

import "testing"

func tokenKinds(src string) []TokenKind {
	lex := NewLexer(src)
	var kinds []TokenKind
	for {
		tok := lex.Next()
		kinds = append(kinds, tok.Kind)
		if tok.Kind == TokenEOF {
			break
		}
	}
	return kinds
}

func TestLexerBasicTokens(t *testing.T) {
	kinds := tokenKinds("SELECT a FROM b WHERE a >= 1")
	want := []TokenKind{TokenKeyword, TokenIdent, TokenKeyword, TokenIdent, TokenKeyword, TokenIdent, TokenGte, TokenNumber, TokenEOF}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestLexerParameterAndString(t *testing.T) {
	lex := NewLexer("$foo 'bar baz'")
	tok := lex.Next()
	if tok.Kind != TokenParam || tok.Text != "foo" {
		t.Fatalf("unexpected param token: %+v", tok)
	}
	tok = lex.Next()
	if tok.Kind != TokenString || tok.Text != "bar baz" {
		t.Fatalf("unexpected string token: %+v", tok)
	}
}

func TestLexerEscapedQuote(t *testing.T) {
	lex := NewLexer(`'it''s here'`)
	tok := lex.Next()
	if tok.Text != "it's here" {
		t.Fatalf("unexpected escaped string: %q", tok.Text)
	}
}

func TestLexerNumberForms(t *testing.T) {
	cases := []string{"42", "3.14", "1e10", "1.5e-3"}
	for _, src := range cases {
		lex := NewLexer(src)
		tok := lex.Next()
		if tok.Kind != TokenNumber || tok.Text != src {
			t.Errorf("src %q: got %+v", src, tok)
		}
	}
}

func TestLexerArrowsAndComparisons(t *testing.T) {
	lex := NewLexer("-> <- <= >= != <>")
	var kinds []TokenKind
	for {
		tok := lex.Next()
		if tok.Kind == TokenEOF {
			break
		}
		kinds = append(kinds, tok.Kind)
	}
	want := []TokenKind{TokenArrow, TokenLArrow, TokenLte, TokenGte, TokenNeq, TokenNeq}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestLexerCommentIsSkipped(t *testing.T) {
	kinds := tokenKinds("SELECT a -- this is a comment\nFROM b")
	want := []TokenKind{TokenKeyword, TokenIdent, TokenKeyword, TokenIdent, TokenEOF}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
}

func TestLexerKeywordsAreCaseInsensitive(t *testing.T) {
	lex := NewLexer("SeLeCt")
	tok := lex.Next()
	if tok.Kind != TokenKeyword || tok.Text != "select" {
		t.Fatalf("unexpected token: %+v", tok)
	}
}

func TestLexerPositionsAreByteOffsets(t *testing.T) {
	lex := NewLexer("SELECT a")
	lex.Next()
	tok := lex.Next()
	if tok.Pos != 7 {
		t.Errorf("expected position 7, got %d", tok.Pos)
	}
}

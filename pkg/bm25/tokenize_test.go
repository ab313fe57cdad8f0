package bm25

import (
	"reflect"
	"testing"
)

func TestTokenizeSplitsOnNonAlphanumerics(t *testing.T) {
	got := Tokenize("Hello, World! foo_bar", nil)
	want := []string{"hello", "world", "foo", "bar"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTokenizeDropsStopWords(t *testing.T) {
	got := Tokenize("the cat is on the mat", DefaultStopWords)
	want := []string{"cat", "mat"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTokenizeEmptyStringReturnsNoTokens(t *testing.T) {
	got := Tokenize("", nil)
	if len(got) != 0 {
		t.Errorf("expected no tokens, got %v", got)
	}
}

func TestTokenizePunctuationOnlyReturnsNoTokens(t *testing.T) {
	got := Tokenize("... --- !!!", nil)
	if len(got) != 0 {
		t.Errorf("expected no tokens, got %v", got)
	}
}

package feature

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tokens := Tokenize("The Quick-Brown FOX, jumps!")
	want := []string{"quick", "brown", "fox", "jumps"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("expected %v, got %v", want, tokens)
	}
}

func TestTokenizeStopWordsOnly(t *testing.T) {
	if tokens := Tokenize("the of and"); len(tokens) != 0 {
		t.Errorf("expected no tokens, got %v", tokens)
	}
}

func TestTokenizeEmpty(t *testing.T) {
	if tokens := Tokenize(""); len(tokens) != 0 {
		t.Errorf("expected no tokens, got %v", tokens)
	}
}

func TestTerms(t *testing.T) {
	terms := Terms([]string{"red", "wool", "scarf"})
	want := []string{"red", "wool", "scarf", "red wool", "wool scarf"}
	if !reflect.DeepEqual(terms, want) {
		t.Errorf("expected %v, got %v", want, terms)
	}
}

func TestTermsSingleToken(t *testing.T) {
	terms := Terms([]string{"scarf"})
	if !reflect.DeepEqual(terms, []string{"scarf"}) {
		t.Errorf("expected single unigram, got %v", terms)
	}
}

package token

import (
	"strings"
	"testing"
)

func TestParseBasicSections(t *testing.T) {
	sections, err := Parse(strings.NewReader("one two\n"), Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if sections[0].Required {
		t.Errorf("section should be optional")
	}
	if len(sections[0].Tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(sections[0].Tokens))
	}
}

func TestParseRequiredSection(t *testing.T) {
	sections, err := Parse(strings.NewReader("+ two three\n"), Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !sections[0].Required {
		t.Errorf("expected section to be required")
	}
	if len(sections[0].Tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(sections[0].Tokens))
	}
}

func TestParseBlankLinesIgnored(t *testing.T) {
	sections, err := Parse(strings.NewReader("one\n\n\ntwo\n"), Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
}

func TestParseBeginAnchor(t *testing.T) {
	sections, err := Parse(strings.NewReader("^one\n"), Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	tok := sections[0].Tokens[0]
	if tok.Anchor != AnchorBegin {
		t.Errorf("expected begin anchor, got %v", tok.Anchor)
	}
}

func TestParseEndAnchor(t *testing.T) {
	sections, err := Parse(strings.NewReader("one$\n"), Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	tok := sections[0].Tokens[0]
	if tok.Anchor != AnchorEnd {
		t.Errorf("expected end anchor, got %v", tok.Anchor)
	}
}

func TestParsePositionalAnchor(t *testing.T) {
	sections, err := Parse(strings.NewReader("^3$pas\n"), Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	tok := sections[0].Tokens[0]
	if tok.Anchor != AnchorPositional || tok.Position != 3 {
		t.Fatalf("expected positional anchor at 3, got kind=%v pos=%d", tok.Anchor, tok.Position)
	}
}

func TestParsePositionalAnchorInvalid(t *testing.T) {
	_, err := Parse(strings.NewReader("^0$pas\n"), Options{})
	if err == nil {
		t.Fatal("expected error for positional anchor < 1")
	}
	pe, ok := err.(*ParseError)
	if !ok || pe.Kind != ErrAnchorPosition {
		t.Fatalf("expected AnchorPosition error, got %v", err)
	}
}

func TestParseRangeAnchor(t *testing.T) {
	sections, err := Parse(strings.NewReader("^2,4$tok\n"), Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	tok := sections[0].Tokens[0]
	if tok.Anchor != AnchorRange || tok.RangeLo != 2 || tok.RangeHi != 4 {
		t.Fatalf("expected range [2,4], got lo=%d hi=%d", tok.RangeLo, tok.RangeHi)
	}
}

func TestParseRangeAnchorHalfOpen(t *testing.T) {
	sections, err := Parse(strings.NewReader("^,4$tok\n"), Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	tok := sections[0].Tokens[0]
	if tok.RangeLo != 2 || tok.RangeHi != 4 {
		t.Fatalf("expected default lower bound 2, got lo=%d hi=%d", tok.RangeLo, tok.RangeHi)
	}
}

func TestParseRangeAnchorBeginTooSmall(t *testing.T) {
	_, err := Parse(strings.NewReader("^1,4$tok\n"), Options{})
	pe, ok := err.(*ParseError)
	if !ok || pe.Kind != ErrAnchorRangeBegin {
		t.Fatalf("expected AnchorRangeBegin error, got %v", err)
	}
}

func TestParseRangeAnchorOrder(t *testing.T) {
	_, err := Parse(strings.NewReader("^5,3$tok\n"), Options{})
	pe, ok := err.(*ParseError)
	if !ok || pe.Kind != ErrAnchorRangeOrder {
		t.Fatalf("expected AnchorRangeOrder error, got %v", err)
	}
}

func TestParseCustomDelimiter(t *testing.T) {
	sections, err := Parse(strings.NewReader("one,two,three\n"), Options{Delimiter: ","})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(sections[0].Tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(sections[0].Tokens))
	}
}

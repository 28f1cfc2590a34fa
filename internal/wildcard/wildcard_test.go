package wildcard

import (
	"reflect"
	"testing"
)

func expand(t *testing.T, body string, opts Options) []string {
	t.Helper()
	p, err := Parse(body, opts)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", body, err)
	}
	out, err := p.Expand()
	if err != nil {
		t.Fatalf("Expand(%q) failed: %v", body, err)
	}
	return out
}

func TestLiteralToken(t *testing.T) {
	got := expand(t, "hello", Options{})
	want := []string{"hello"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDoublePercentIsLiteral(t *testing.T) {
	got := expand(t, "100%%", Options{})
	want := []string{"100%"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDigitWildcard(t *testing.T) {
	got := expand(t, "%d", Options{})
	want := []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLowercaseWildcardRanged(t *testing.T) {
	got := expand(t, "%1,2a", Options{})
	if len(got) != 26+26*26 {
		t.Fatalf("expected %d expansions, got %d", 26+26*26, len(got))
	}
	if got[0] != "a" || got[25] != "z" {
		t.Errorf("unexpected length-1 ordering: %v", got[:26])
	}
	if got[26] != "aa" {
		t.Errorf("expected first length-2 expansion to be 'aa', got %q", got[26])
	}
}

func TestInlineSetWithRangeAndDedup(t *testing.T) {
	got := expand(t, "%[a-ca]", Options{})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestInlineSetLiteralHyphen(t *testing.T) {
	p, err := Parse("%[-abc]", Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	got, _ := p.Expand()
	want := []string{"-", "a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCustomWildcardRequiresConfiguredSet(t *testing.T) {
	_, err := Parse("%c", Options{})
	if err == nil {
		t.Fatal("expected NoCustom error")
	}
}

func TestCustomWildcardExpands(t *testing.T) {
	got := expand(t, "%c", Options{CustomSet: "xyz"})
	want := []string{"x", "y", "z"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestContractingWildcardTwoSided(t *testing.T) {
	got := expand(t, "a%0,2-bcd", Options{})
	want := []string{"abcd", "bcd", "acd", "cd", "ad"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestContractingWildcardLeft(t *testing.T) {
	got := expand(t, "abc%0,2<def", Options{})
	want := []string{"abcdef", "abdef", "adef"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestContractingWildcardRight(t *testing.T) {
	got := expand(t, "abc%0,2>def", Options{})
	want := []string{"abcdef", "abcef", "abcf"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNoContractHereRejectsContraction(t *testing.T) {
	_, err := Parse("a%0,2-b", Options{NoContract: true})
	if err == nil {
		t.Fatal("expected NoContractHere error")
	}
}

func TestRangeOrderErrorInInlineSet(t *testing.T) {
	_, err := Parse("%[z-a]", Options{})
	if err == nil {
		t.Fatal("expected RangeOrder error")
	}
}

package generator

import (
	"reflect"
	"testing"

	"github.com/btcrecover/btcrecover-go/internal/wildcard"
)

func collectTypos(t *testing.T, base string, cfg TypoConfig) []string {
	t.Helper()
	var out []string
	Typos(base, cfg, func(s string) bool {
		out = append(out, s)
		return true
	})
	return out
}

func TestTyposMinZeroIncludesBase(t *testing.T) {
	cfg := TypoConfig{Enabled: map[TypoKind]bool{}, MaxTypos: 0, MinTypos: 0}
	got := collectTypos(t, "abc", cfg)
	if len(got) != 1 || got[0] != "abc" {
		t.Fatalf("got %v, want [abc]", got)
	}
}

func TestTyposCapslockFlipsAllLetters(t *testing.T) {
	cfg := TypoConfig{
		Enabled:  map[TypoKind]bool{TypoCapslock: true},
		MaxTypos: 1,
		MinTypos: 1,
	}
	got := collectTypos(t, "abc", cfg)
	found := false
	for _, g := range got {
		if g == "ABC" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected ABC among %v", got)
	}
}

func TestTyposDeleteEachPosition(t *testing.T) {
	cfg := TypoConfig{
		Enabled:  map[TypoKind]bool{TypoDelete: true},
		MaxTypos: 1,
		MinTypos: 1,
	}
	got := collectTypos(t, "ab", cfg)
	want := map[string]bool{"b": true, "a": true}
	if len(got) != 2 {
		t.Fatalf("got %v", got)
	}
	for _, g := range got {
		if !want[g] {
			t.Errorf("unexpected mutation %q", g)
		}
	}
}

func TestTyposRepeatEachPosition(t *testing.T) {
	cfg := TypoConfig{
		Enabled:  map[TypoKind]bool{TypoRepeat: true},
		MaxTypos: 1,
		MinTypos: 1,
	}
	got := collectTypos(t, "ab", cfg)
	want := map[string]bool{"aab": true, "abb": true}
	if len(got) != 2 {
		t.Fatalf("got %v", got)
	}
	for _, g := range got {
		if !want[g] {
			t.Errorf("unexpected mutation %q", g)
		}
	}
}

func TestTyposBudgetRange(t *testing.T) {
	cfg := TypoConfig{
		Enabled:  map[TypoKind]bool{TypoDelete: true},
		MaxTypos: 2,
		MinTypos: 1,
	}
	got := collectTypos(t, "abc", cfg)
	for _, g := range got {
		if len(g) != 2 && len(g) != 1 {
			t.Errorf("mutation %q has unexpected length for a 1-2 delete budget", g)
		}
	}
}

// TestTyposInsertSequence pins the exact ordered sequence for
// --typos-insert X --typos 2 -d against "abc": insertion points run
// [1,n] (never before the first character), singles before pairs, and
// pairs enumerated in ascending position-index-combination order.
func TestTyposInsertSequence(t *testing.T) {
	prog, err := wildcard.Parse("X", wildcard.Options{NoContract: true})
	if err != nil {
		t.Fatalf("wildcard.Parse failed: %v", err)
	}
	cfg := TypoConfig{
		Enabled:  map[TypoKind]bool{TypoInsert: true},
		MaxTypos: 2,
		MinTypos: 0,
		Insert:   prog,
	}
	got := collectTypos(t, "abc", cfg)
	want := []string{"abc", "aXbc", "abXc", "abcX", "aXbXc", "aXbcX", "abXcX"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTyposSwapRequiresDistinctNeighbours(t *testing.T) {
	cfg := TypoConfig{
		Enabled:  map[TypoKind]bool{TypoSwap: true},
		MaxTypos: 1,
		MinTypos: 1,
	}
	got := collectTypos(t, "aab", cfg)
	// Only index 1 (a,b) has distinct neighbours; index 0 (a,a) does not.
	want := map[string]bool{"aba": true}
	if len(got) != 1 || !want[got[0]] {
		t.Fatalf("got %v, want [aba]", got)
	}
}

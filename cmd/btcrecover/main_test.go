package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseWorker(t *testing.T) {
	idx, n, err := parseWorker("2/3")
	if err != nil {
		t.Fatalf("parseWorker failed: %v", err)
	}
	if idx != 2 || n != 3 {
		t.Errorf("got idx=%d n=%d, want 2/3", idx, n)
	}
}

func TestParseWorkerEmpty(t *testing.T) {
	idx, n, err := parseWorker("")
	if err != nil || idx != 0 || n != 0 {
		t.Fatalf("expected zero values for empty spec, got idx=%d n=%d err=%v", idx, n, err)
	}
}

func TestParseWorkerOutOfRange(t *testing.T) {
	if _, _, err := parseWorker("4/3"); err == nil {
		t.Fatal("expected error for worker index greater than N")
	}
}

func TestParseWorkerMalformed(t *testing.T) {
	if _, _, err := parseWorker("not-a-fraction"); err == nil {
		t.Fatal("expected error for malformed --worker value")
	}
}

func TestLoadPasswordlistSkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pw.txt")
	if err := os.WriteFile(path, []byte("alpha\n\nbeta\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	sections, raw, err := loadPasswordlist(path)
	if err != nil {
		t.Fatalf("loadPasswordlist failed: %v", err)
	}
	if len(raw) == 0 {
		t.Error("expected raw bytes to be returned for fingerprinting")
	}
	if len(sections) != 1 || len(sections[0].Tokens) != 2 {
		t.Fatalf("expected 1 section with 2 tokens, got %+v", sections)
	}
	if !sections[0].Required {
		t.Error("expected the passwordlist section to be required")
	}
}

func TestLoadTypoMapAccumulatesAcrossLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "map.txt")
	if err := os.WriteFile(path, []byte("a 4\na @\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	m, err := loadTypoMap(path)
	if err != nil {
		t.Fatalf("loadTypoMap failed: %v", err)
	}
	repl := m['a']
	if len(repl) != 2 || repl[0] != '4' || repl[1] != '@' {
		t.Fatalf("got %v, want ['4','@'] accumulated in file order", string(repl))
	}
}

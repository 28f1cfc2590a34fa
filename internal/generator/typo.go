package generator

import (
	"sort"

	"github.com/btcrecover/btcrecover-go/internal/wildcard"
)

// TypoKind enumerates the closed set of mutation operations, in their
// declaration order from spec §4.4 — this order is also the tie-break
// order used when composing multiple kinds for a fixed typo budget k.
type TypoKind int

const (
	TypoCapslock TypoKind = iota
	TypoSwap
	TypoRepeat
	TypoDelete
	TypoCase
	TypoCloseCase
	TypoInsert
	TypoReplace
	TypoMap
)

// TypoConfig holds the enabled kinds and their parameters.
type TypoConfig struct {
	Enabled  map[TypoKind]bool
	MaxTypos int
	MinTypos int
	Insert   *wildcard.Program // --typos-insert, must not contract
	Replace  *wildcard.Program // --typos-replace, must not contract
	Map      map[rune][]rune   // --typos-map, in file order, case handled by caller
}

// candidateOp is one concrete application of a typo kind at a fixed
// position (and, for insert/replace/map, a fixed replacement character).
type candidateOp struct {
	kind   TypoKind
	pos    int // index into the ORIGINAL string this op reads/touches
	extra  rune
	hasExt bool
}

// Typos yields base (if MinTypos == 0) and every composition of k
// enabled operations applied to disjoint index sets, for k from
// max(1, MinTypos) to MaxTypos, via visit.
func Typos(base string, cfg TypoConfig, visit Visit) bool {
	if cfg.MinTypos == 0 {
		if !visit(base) {
			return false
		}
	}
	if cfg.MaxTypos == 0 {
		return true
	}

	ops := enumerateOps(base, cfg)

	lo := cfg.MinTypos
	if lo < 1 {
		lo = 1
	}
	for k := lo; k <= cfg.MaxTypos; k++ {
		if !composeOps(base, ops, k, visit) {
			return false
		}
	}
	return true
}

// enumerateOps builds every individual op instance for the enabled
// kinds, in kind-declaration order then position-ascending order, the
// same order the composition stage relies on.
func enumerateOps(base string, cfg TypoConfig) []candidateOp {
	runes := []rune(base)
	n := len(runes)
	var ops []candidateOp

	if cfg.Enabled[TypoCapslock] && hasLetter(runes) {
		ops = append(ops, candidateOp{kind: TypoCapslock, pos: -1})
	}
	if cfg.Enabled[TypoSwap] {
		for i := 0; i < n-1; i++ {
			if runes[i] != runes[i+1] {
				ops = append(ops, candidateOp{kind: TypoSwap, pos: i})
			}
		}
	}
	if cfg.Enabled[TypoRepeat] {
		for i := 0; i < n; i++ {
			ops = append(ops, candidateOp{kind: TypoRepeat, pos: i})
		}
	}
	if cfg.Enabled[TypoDelete] {
		for i := 0; i < n; i++ {
			ops = append(ops, candidateOp{kind: TypoDelete, pos: i})
		}
	}
	if cfg.Enabled[TypoCase] {
		for i, r := range runes {
			if isASCIILetter(r) {
				ops = append(ops, candidateOp{kind: TypoCase, pos: i})
			}
		}
	}
	if cfg.Enabled[TypoCloseCase] {
		for i, r := range runes {
			if isASCIILetter(r) && closeCaseApplies(runes, i) {
				ops = append(ops, candidateOp{kind: TypoCloseCase, pos: i})
			}
		}
	}
	if cfg.Enabled[TypoInsert] && cfg.Insert != nil {
		choices, _ := cfg.Insert.Expand()
		// Insertion points are between existing characters or at the end —
		// never before the first character (test_insert pins "aXbc" etc.
		// with no leading "Xabc"), so positions run [1,n], not [0,n].
		for i := 1; i <= n; i++ {
			for _, c := range choices {
				for _, r := range c {
					ops = append(ops, candidateOp{kind: TypoInsert, pos: i, extra: r, hasExt: true})
				}
			}
		}
	}
	if cfg.Enabled[TypoReplace] && cfg.Replace != nil {
		choices, _ := cfg.Replace.Expand()
		for i := 0; i < n; i++ {
			for _, c := range choices {
				for _, r := range c {
					ops = append(ops, candidateOp{kind: TypoReplace, pos: i, extra: r, hasExt: true})
				}
			}
		}
	}
	if cfg.Enabled[TypoMap] && cfg.Map != nil {
		for i, r := range runes {
			if repl, ok := cfg.Map[r]; ok {
				for _, rr := range repl {
					ops = append(ops, candidateOp{kind: TypoMap, pos: i, extra: rr, hasExt: true})
				}
			}
		}
	}
	return ops
}

// closeCaseApplies implements the closecase heuristic: flipping this
// letter's case is offered only when the result would make it match the
// case of an adjacent letter (so "oneTwo" offers flipping 'T' to match
// the lowercase run around it, but a letter already matching both
// neighbours is not offered again as a redundant case flip).
func closeCaseApplies(runes []rune, i int) bool {
	r := runes[i]
	flipped := flipCase(r)
	matchesPrev := i > 0 && isASCIILetter(runes[i-1]) && sameCase(flipped, runes[i-1])
	matchesNext := i < len(runes)-1 && isASCIILetter(runes[i+1]) && sameCase(flipped, runes[i+1])
	return matchesPrev || matchesNext
}

func sameCase(a, b rune) bool {
	return isUpperASCII(a) == isUpperASCII(b)
}

// composeOps enumerates every way to choose k ops from ops whose position
// footprints are pairwise disjoint (capslock's footprint is the whole
// string, so it cannot combine with any positional op), in kind-then-
// position order, applying each composition to base and visiting it.
func composeOps(base string, ops []candidateOp, k int, visit Visit) bool {
	n := len(ops)
	combo := make([]int, 0, k)
	var rec func(start int) bool
	rec = func(start int) bool {
		if len(combo) == k {
			if !disjoint(ops, combo) {
				return true
			}
			return visit(applyOps(base, ops, combo))
		}
		for i := start; i < n; i++ {
			combo = append(combo, i)
			if !rec(i + 1) {
				return false
			}
			combo = combo[:len(combo)-1]
		}
		return true
	}
	return rec(0)
}

func disjoint(ops []candidateOp, combo []int) bool {
	footprints := make(map[int]bool)
	for _, idx := range combo {
		op := ops[idx]
		if op.kind == TypoCapslock {
			if len(footprints) > 0 || len(combo) > 1 {
				return false
			}
			continue
		}
		if footprints[op.pos] {
			return false
		}
		footprints[op.pos] = true
		if op.kind == TypoSwap {
			// A swap touches both pos and pos+1.
			if footprints[op.pos+1] {
				return false
			}
			footprints[op.pos+1] = true
		}
	}
	return true
}

// applyOps applies a disjoint set of ops to base, positions interpreted
// against the ORIGINAL string's index space, then reassembled left to
// right (insert/delete/replace/map/case/closecase resolved per index,
// swap as a paired adjustment, capslock as a final whole-string pass).
func applyOps(base string, ops []candidateOp, combo []int) string {
	runes := []rune(base)
	n := len(runes)

	type edit struct {
		kind  TypoKind
		pos   int
		extra rune
	}
	var edits []edit
	capslock := false
	for _, idx := range combo {
		op := ops[idx]
		if op.kind == TypoCapslock {
			capslock = true
			continue
		}
		edits = append(edits, edit{op.kind, op.pos, op.extra})
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].pos < edits[j].pos })

	var out []rune
	swapPending := make(map[int]bool)
	for _, e := range edits {
		if e.kind == TypoSwap {
			swapPending[e.pos] = true
		}
	}

	for i := 0; i < n; i++ {
		// Emit any inserts targeting this original index before the
		// character itself.
		for _, e := range edits {
			if e.kind == TypoInsert && e.pos == i {
				out = append(out, e.extra)
			}
		}
		skip := false
		repeat := false
		ch := runes[i]
		for _, e := range edits {
			switch {
			case e.kind == TypoDelete && e.pos == i:
				skip = true
			case e.kind == TypoRepeat && e.pos == i:
				repeat = true
			case e.kind == TypoReplace && e.pos == i:
				ch = e.extra
			case e.kind == TypoMap && e.pos == i:
				ch = e.extra
			case e.kind == TypoCase && e.pos == i:
				ch = flipCase(ch)
			case e.kind == TypoCloseCase && e.pos == i:
				ch = flipCase(ch)
			}
		}
		if skip {
			continue
		}
		if swapPending[i] && i+1 < n {
			out = append(out, runes[i+1])
			i++ // consumed the pair; the loop's i++ advances past it
			out = append(out, ch)
			continue
		}
		out = append(out, ch)
		if repeat {
			out = append(out, ch)
		}
	}
	// Trailing insert at position n (end of string).
	for _, e := range edits {
		if e.kind == TypoInsert && e.pos == n {
			out = append(out, e.extra)
		}
	}

	result := string(out)
	if capslock {
		result = flipAllCase(result)
	}
	return result
}

func hasLetter(rs []rune) bool {
	for _, r := range rs {
		if isASCIILetter(r) {
			return true
		}
	}
	return false
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isUpperASCII(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

func flipCase(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z':
		return r - 32
	case r >= 'A' && r <= 'Z':
		return r + 32
	default:
		return r
	}
}

func flipAllCase(s string) string {
	rs := []rune(s)
	for i, r := range rs {
		rs[i] = flipCase(r)
	}
	return string(rs)
}

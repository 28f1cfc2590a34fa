// Package generator implements the combinatorial candidate generator
// (spec §4.3), the typo mutator (§4.4), and the filter/dedup/worker
// partition stage (§4.3, §5) that sit between tokenization and the
// wallet probe.
//
// Every stage is push-style: a stage takes a visit callback and calls it
// once per candidate, stopping early if the callback returns false. This
// mirrors the "explicit iterators or push-style visitors, avoid
// unbounded intermediate buffering" design note: nothing downstream of
// the raw string expansion step is ever materialized as a whole slice.
package generator

import (
	"sort"

	"github.com/btcrecover/btcrecover-go/internal/token"
)

// Visit is called once per candidate. Returning false stops enumeration.
type Visit func(candidate string) bool

// Combinator enumerates every legal ordered combination of section
// alternatives permitted by spec §4.3.
type Combinator struct {
	Sections  []token.Section
	MinTokens int
	MaxTokens int
}

// optSection pairs an optional section with its original input index, so
// subset/permutation order can be derived from "order of optional
// sections in the input" as required by the spec.
type optSection struct {
	idx int
	sec token.Section
}

// Generate enumerates candidates in the canonical order: increasing
// participating-section-count subset, input order within a subset size,
// then anchor-legal permutations of that subset's sections (taken in
// input order) in descending lexicographic index order, reverse-identity
// first, then the Cartesian product of
// alternative choices, then the Cartesian product of each choice's
// wildcard expansion.
func (c *Combinator) Generate(visit Visit) error {
	var required []token.Section
	var optional []optSection
	for i, s := range c.Sections {
		if s.Required {
			required = append(required, s)
		} else {
			optional = append(optional, optSection{idx: i, sec: s})
		}
	}

	minOpt := c.MinTokens - len(required)
	maxOpt := c.MaxTokens - len(required)
	if minOpt < 0 {
		minOpt = 0
	}
	if maxOpt > len(optional) {
		maxOpt = len(optional)
	}

	cont := true
	for size := minOpt; cont && size <= maxOpt; size++ {
		forEachCombination(len(optional), size, func(indices []int) bool {
			picked := make(map[int]bool, size)
			for _, oi := range indices {
				picked[optional[oi].idx] = true
			}
			chosen := make([]token.Section, 0, len(required)+size)
			for i, s := range c.Sections {
				if s.Required || picked[i] {
					chosen = append(chosen, s)
				}
			}
			cont = generatePermutations(chosen, visit)
			return cont
		})
	}
	return nil
}

// forEachCombination enumerates index-subsets of size k from [0,n) in
// ascending lexicographic order, calling fn(indices) for each; it stops
// early if fn returns false.
func forEachCombination(n, k int, fn func([]int) bool) {
	if k < 0 || k > n {
		return
	}
	if k == 0 {
		fn(nil)
		return
	}
	indices := make([]int, k)
	for i := range indices {
		indices[i] = i
	}
	for {
		if !fn(append([]int(nil), indices...)) {
			return
		}
		i := k - 1
		for i >= 0 && indices[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		indices[i]++
		for j := i + 1; j < k; j++ {
			indices[j] = indices[j-1] + 1
		}
	}
}

// generatePermutations enumerates every ordering of chosen that is legal
// under the anchor rules, and for each, the Cartesian product of
// alternative choices and wildcard expansions. Permutations are
// enumerated in descending lexicographic index-permutation order
// (reverse-identity first) — the canonical order per §8's worked
// scenarios (e.g. "twoone" before "onetwo", "threetwo" before
// "twothree").
func generatePermutations(chosen []token.Section, visit Visit) bool {
	n := len(chosen)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	cont := true
	permuteFrom(perm, 0, func(order []int) bool {
		if !anchorsLegal(chosen, order) {
			return true // skip, keep going
		}
		cont = emitChoices(chosen, order, visit)
		return cont
	})
	return cont
}

// permuteFrom generates permutations of p[k:] in place, visiting them in
// descending lexicographic order of the full index sequence.
func permuteFrom(p []int, k int, fn func([]int) bool) bool {
	if k == len(p) {
		return fn(p)
	}
	candidates := append([]int(nil), p[k:]...)
	sort.Sort(sort.Reverse(sort.IntSlice(candidates)))
	for _, v := range candidates {
		pos := indexOfFrom(p, k, v)
		swap(p, k, pos)
		if !permuteFrom(p, k+1, fn) {
			swap(p, k, pos)
			return false
		}
		swap(p, k, pos)
	}
	return true
}

func indexOfFrom(p []int, from, v int) int {
	for i := from; i < len(p); i++ {
		if p[i] == v {
			return i
		}
	}
	return -1
}

func swap(p []int, i, j int) {
	p[i], p[j] = p[j], p[i]
}

// anchorsLegal checks begin/end/positional/range anchor constraints for
// one candidate ordering of chosen sections.
func anchorsLegal(chosen []token.Section, order []int) bool {
	n := len(order)
	for pos, secIdx := range order {
		sec := chosen[secIdx]
		for _, tok := range sec.Tokens {
			switch tok.Anchor {
			case token.AnchorBegin:
				if pos != 0 {
					return false
				}
			case token.AnchorEnd:
				if pos != n-1 {
					return false
				}
			case token.AnchorPositional:
				if pos+1 != tok.Position {
					return false
				}
			case token.AnchorRange:
				p := pos + 1
				if p < tok.RangeLo {
					return false
				}
				if tok.RangeHi != 0 && p > tok.RangeHi {
					return false
				}
			}
		}
	}
	return true
}

// emitChoices enumerates the Cartesian product of alternative tokens per
// section (in section order given by `order`), then the Cartesian
// product of each chosen token's wildcard expansion, concatenating the
// assembled candidate and calling visit.
func emitChoices(chosen []token.Section, order []int, visit Visit) bool {
	ordered := make([]token.Section, len(order))
	for i, idx := range order {
		ordered[i] = chosen[idx]
	}
	return emitChoicesRec(ordered, 0, "", visit)
}

func emitChoicesRec(sections []token.Section, i int, prefix string, visit Visit) bool {
	if i == len(sections) {
		return visit(prefix)
	}
	for _, tok := range sections[i].Tokens {
		expansions, err := tok.Program.Expand()
		if err != nil {
			continue
		}
		for _, exp := range expansions {
			if !emitChoicesRec(sections, i+1, prefix+exp, visit) {
				return false
			}
		}
	}
	return true
}

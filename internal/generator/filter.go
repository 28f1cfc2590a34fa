package generator

import "regexp"

// DedupLevel controls how much of the dedup pipeline is active, per the
// -d/-dd/-ddd progressive-disable ladder (spec §4.3). The ladder trades
// memory for repeated work: each additional 'd' disables one more
// dedup sub-stage, cheapest-to-skip first.
type DedupLevel int

const (
	// DedupFull is the default: every sub-stage active.
	DedupFull DedupLevel = iota
	// DedupNoFinal disables final-candidate-level dedup only (-d).
	DedupNoFinal
	// DedupNoExpansion additionally disables expansion-level dedup (-dd).
	DedupNoExpansion
	// DedupNone additionally disables token-level dedup; no dedup at all (-ddd).
	DedupNone
)

// Filter applies regex include/exclude, final-candidate dedup, and
// worker-partition slicing to a raw candidate stream: the producer's
// visit callback passes each candidate to Accept and keeps only those
// it accepts.
type Filter struct {
	RegexOnly  *regexp.Regexp // nil means no include filter
	RegexNever *regexp.Regexp // nil means no exclude filter
	Dedup      DedupLevel
	WorkerIdx  int // 1-based; 0 means no partitioning
	WorkerN    int

	seen    map[string]bool
	ordinal int64
}

// NewFilter constructs a Filter ready for use; call it once per run, not
// per candidate, since it owns the dedup set and the ordinal counter used
// for skip/partition accounting. The dedup set is an in-memory map with
// no size limit: it keeps every distinct candidate accepted in the run.
func NewFilter(regexOnly, regexNever *regexp.Regexp, dedup DedupLevel, workerIdx, workerN int) *Filter {
	f := &Filter{RegexOnly: regexOnly, RegexNever: regexNever, Dedup: dedup, WorkerIdx: workerIdx, WorkerN: workerN}
	// Final-candidate dedup is active only at Full; -d disables it, and
	// -dd and -ddd each disable it along with further sub-stages.
	if dedup == DedupFull {
		f.seen = make(map[string]bool)
	}
	return f
}

// Accept reports whether candidate survives the filter chain, and
// advances the shared ordinal counter exactly once per distinct
// candidate that reaches the skip/partition stage (i.e. after dedup,
// before the skip gate), matching the control-flow order in §2.
func (f *Filter) Accept(candidate string) (ordinal int64, ok bool) {
	if f.RegexOnly != nil && !f.RegexOnly.MatchString(candidate) {
		return 0, false
	}
	if f.RegexNever != nil && f.RegexNever.MatchString(candidate) {
		return 0, false
	}
	if f.seen != nil {
		if f.seen[candidate] {
			return 0, false
		}
		f.seen[candidate] = true
	}

	ord := f.ordinal
	f.ordinal++

	if f.WorkerN > 0 {
		if ord%int64(f.WorkerN) != int64(f.WorkerIdx-1) {
			return ord, false
		}
	}
	return ord, true
}

// Ordinal returns the number of candidates that have passed dedup so far
// (i.e. the next ordinal to be assigned), used to drive the skip gate
// and autosave's skip counter.
func (f *Filter) Ordinal() int64 { return f.ordinal }

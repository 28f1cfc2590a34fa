package session

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/btcrecover/btcrecover-go/internal/autosave"
	"github.com/btcrecover/btcrecover-go/internal/generator"
)

// Result is what Run reports when the search ends.
type Result struct {
	Found     bool
	Candidate string
	Tested    int64
}

// RunOptions controls the orchestration loop around the generator and
// wallet probe: where to autosave, how often, and the skip count to
// start from (either from --skip or a restored autosave record).
type RunOptions struct {
	Autosave      *autosave.Store
	AutosaveEvery time.Duration
	StartSkip     int64
	Log           *logrus.Logger
}

// Run drives the full control flow from spec §2: Combinatorial Generator
// → Typo Mutator → Filter & Dedup → Worker Partition → Skip Gate →
// Wallet Probe, writing an autosave record holding the starting skip
// before the search, flushing one periodically and once more at the
// end, and stopping as soon as a candidate verifies.
func (s *RecoverySession) Run(combinator *generator.Combinator, opts RunOptions) (Result, error) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	var result Result
	if opts.Autosave != nil {
		rec := autosave.Record{
			Skip:                 opts.StartSkip,
			ArgvFingerprint:      s.ArgvFingerprint,
			TokenlistFingerprint: s.TokenlistFingerprint,
			KeyFingerprint:       s.KeyFingerprint,
		}
		if err := opts.Autosave.Save(rec); err != nil {
			log.WithError(err).Warn("initial autosave flush failed")
		}
	}
	lastSave := time.Now()

	visitBase := func(base string) bool {
		stop := false
		generator.Typos(base, s.Config.Typos, func(candidate string) bool {
			ordinal, ok := s.Filter.Accept(candidate)
			if !ok {
				return true
			}
			if ordinal < opts.StartSkip {
				return true
			}
			result.Tested++

			if s.Wallet != nil {
				if _, verified := s.Wallet.ReturnVerifiedPasswordOrFalse(candidate); verified {
					result.Found = true
					result.Candidate = candidate
					stop = true
					return false
				}
			}

			if opts.Autosave != nil && time.Since(lastSave) >= autosaveInterval(opts.AutosaveEvery) {
				rec := autosave.Record{
					Skip:                 s.Filter.Ordinal(),
					ArgvFingerprint:      s.ArgvFingerprint,
					TokenlistFingerprint: s.TokenlistFingerprint,
					KeyFingerprint:       s.KeyFingerprint,
				}
				if err := opts.Autosave.Save(rec); err != nil {
					log.WithError(err).Warn("autosave flush failed; next resume reverts to the previous checkpoint")
				}
				lastSave = time.Now()
			}
			return true
		})
		return !stop
	}

	if err := combinator.Generate(visitBase); err != nil {
		return result, err
	}

	if opts.Autosave != nil {
		rec := autosave.Record{
			Skip:                 s.Filter.Ordinal(),
			ArgvFingerprint:      s.ArgvFingerprint,
			TokenlistFingerprint: s.TokenlistFingerprint,
			KeyFingerprint:       s.KeyFingerprint,
		}
		if err := opts.Autosave.Save(rec); err != nil {
			log.WithError(err).Warn("final autosave flush failed")
		}
	}

	return result, nil
}

func autosaveInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return 60 * time.Second
	}
	return d
}

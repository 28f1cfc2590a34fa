// Package autosave implements the double-buffered checkpoint store
// described in spec §4.6: a fixed 8 KiB file holding two 4096-byte
// slots, written alternately so a crash during a write never corrupts
// both copies of the checkpoint.
//
// The on-disk record is JSON, per spec §9's explicit guidance to define
// a neutral schema rather than replicate a language-specific pickle
// format; each slot is the JSON record followed by zero padding out to
// SlotSize.
package autosave

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/btcrecover/btcrecover-go/internal/session"
)

// SlotSize is the fixed size, in bytes, of each of the two checkpoint
// slots (spec §6's "fixed 8 KiB file" layout).
const SlotSize = 4096

// Record is the serialized checkpoint: the skip count plus the three
// fingerprints an attempted restore must match.
type Record struct {
	Skip                 int64               `json:"skip"`
	ArgvFingerprint      session.Fingerprint `json:"argv_fingerprint"`
	TokenlistFingerprint session.Fingerprint `json:"tokenlist_fingerprint"`
	KeyFingerprint       session.Fingerprint `json:"key_fingerprint"`
}

// RestoreErrorKind enumerates the closed set of restore-rejection
// reasons named in spec §7.
type RestoreErrorKind string

const (
	ErrArgsChanged      RestoreErrorKind = "ArgsChanged"
	ErrTokenlistChanged RestoreErrorKind = "TokenlistChanged"
	ErrKeyChanged       RestoreErrorKind = "KeyChanged"
)

// RestoreError reports why a restore attempt was rejected.
type RestoreError struct {
	Kind RestoreErrorKind
}

func (e *RestoreError) Error() string { return string(e.Kind) }

// Store owns the on-disk checkpoint file and which slot was written to
// last, so the next write alternates slots.
type Store struct {
	path     string
	lastSlot int // 0 or 1; the slot most recently written
}

// Open creates the checkpoint file if it doesn't exist (sized to two
// empty slots) and returns a Store positioned to write slot 0 first.
func Open(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening autosave file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < 2*SlotSize {
		if err := f.Truncate(2 * SlotSize); err != nil {
			return nil, fmt.Errorf("sizing autosave file: %w", err)
		}
	}
	return &Store{path: path, lastSlot: 1}, nil
}

// Save writes rec into the slot after the last one written (alternating
// slots), so the other slot — holding the previous checkpoint — is left
// intact if this write is interrupted.
func (s *Store) Save(rec Record) error {
	slot := 1 - s.lastSlot
	if err := writeSlot(s.path, slot, rec); err != nil {
		return err
	}
	s.lastSlot = slot
	return nil
}

func writeSlot(path string, slot int, rec Record) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening autosave file for write: %w", err)
	}
	defer f.Close()

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding autosave record: %w", err)
	}
	if len(body) > SlotSize {
		return fmt.Errorf("autosave record exceeds slot size (%d > %d)", len(body), SlotSize)
	}
	buf := make([]byte, SlotSize)
	copy(buf, body)

	if _, err := f.WriteAt(buf, int64(slot)*SlotSize); err != nil {
		return fmt.Errorf("writing autosave slot %d: %w", slot, err)
	}
	return nil
}

// readSlot decodes one slot's JSON record, trimming trailing zero
// padding; a structurally invalid slot (truncated file, corrupt JSON,
// or padding that isn't all zero bytes after the JSON value) is not an
// error here — it is reported as invalid so the caller can fall back to
// the other slot.
func readSlot(path string, slot int) (Record, bool) {
	f, err := os.Open(path)
	if err != nil {
		return Record{}, false
	}
	defer f.Close()

	buf := make([]byte, SlotSize)
	n, _ := f.ReadAt(buf, int64(slot)*SlotSize)
	if n < SlotSize {
		return Record{}, false
	}

	zeroAt := bytes.IndexByte(buf, 0)
	body := buf
	if zeroAt >= 0 {
		body = buf[:zeroAt]
		for _, b := range buf[zeroAt:] {
			if b != 0 {
				return Record{}, false
			}
		}
	}

	var rec Record
	if jsonErr := json.Unmarshal(body, &rec); jsonErr != nil {
		return Record{}, false
	}
	return rec, true
}

// Restore reads both slots and returns the valid one with the greatest
// skip, validating its fingerprints against want. If both slots are
// structurally invalid, ok is false and the caller should start fresh;
// if a slot is valid but its fingerprints don't match, a *RestoreError
// is returned (fatal, per spec §7) rather than silently falling back —
// a fingerprint mismatch means the inputs changed, not that the file is
// corrupt.
func Restore(path string, want Record) (rec Record, ok bool, err error) {
	rec0, ok0 := readSlot(path, 0)
	rec1, ok1 := readSlot(path, 1)

	var candidates []Record
	if ok0 {
		candidates = append(candidates, rec0)
	}
	if ok1 {
		candidates = append(candidates, rec1)
	}
	if len(candidates) == 0 {
		return Record{}, false, nil
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Skip > best.Skip {
			best = c
		}
	}

	if best.ArgvFingerprint != want.ArgvFingerprint {
		return Record{}, false, &RestoreError{Kind: ErrArgsChanged}
	}
	if best.TokenlistFingerprint != want.TokenlistFingerprint {
		return Record{}, false, &RestoreError{Kind: ErrTokenlistChanged}
	}
	if best.KeyFingerprint != want.KeyFingerprint {
		return Record{}, false, &RestoreError{Kind: ErrKeyChanged}
	}
	return best, true, nil
}

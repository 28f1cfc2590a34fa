// Package session packages the parsed run configuration, derived
// fingerprints, and mutable run state into a single RecoverySession
// value, replacing the process-wide globals the original design relied
// on (spec §9 Design Note: "package these as a RecoverySession value
// threaded through the APIs").
package session

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/btcrecover/btcrecover-go/internal/generator"
	"github.com/btcrecover/btcrecover-go/internal/token"
	"github.com/btcrecover/btcrecover-go/internal/wallet"
)

// Fingerprint is a fixed-width opaque digest over one of the three
// inputs an autosave record must validate against on restore.
type Fingerprint [32]byte

// Config is everything the CLI layer parses out of argv: the bits of it
// that feed the fingerprint are exactly the options that affect
// candidate enumeration, per spec §3's Fingerprint definition.
type Config struct {
	Sections   []token.Section
	MinTokens  int
	MaxTokens  int
	Delimiter  string
	CustomWild string

	Typos generator.TypoConfig

	RegexOnly  *regexp.Regexp
	RegexNever *regexp.Regexp
	Dedup      generator.DedupLevel
	WorkerIdx  int
	WorkerN    int
	Skip       int64

	RawArgv    []string // for the argv fingerprint
	RawTokenlist []byte // for the tokenlist fingerprint
}

// RecoverySession is the value threaded through the CLI, autosave, and
// wallet-probe layers instead of package-level state. It owns the
// dedup filter (scoped to this run) and the wallet handle (owned by the
// verifier, read-only after load, per the concurrency model in §5).
type RecoverySession struct {
	Config Config
	Filter *generator.Filter
	Wallet *wallet.Handle

	ArgvFingerprint      Fingerprint
	TokenlistFingerprint Fingerprint
	KeyFingerprint       Fingerprint
}

// New builds a RecoverySession from a parsed Config and an opened wallet
// handle, computing the three fingerprints used to validate autosave
// restores.
func New(cfg Config, w *wallet.Handle) *RecoverySession {
	s := &RecoverySession{
		Config: cfg,
		Filter: generator.NewFilter(cfg.RegexOnly, cfg.RegexNever, cfg.Dedup, cfg.WorkerIdx, cfg.WorkerN),
		Wallet: w,
	}
	s.ArgvFingerprint = fingerprintArgv(cfg.RawArgv)
	s.TokenlistFingerprint = fingerprintBytes(cfg.RawTokenlist)
	if w != nil {
		s.KeyFingerprint = fingerprintBytes(w.KeyBlob())
	}
	return s
}

func fingerprintArgv(argv []string) Fingerprint {
	h := sha256.New()
	for _, a := range argv {
		var lenBuf [8]byte
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(a)))
		h.Write(lenBuf[:])
		h.Write([]byte(a))
	}
	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}

func fingerprintBytes(b []byte) Fingerprint {
	var fp Fingerprint
	copy(fp[:], sha256Sum(b))
	return fp
}

func sha256Sum(b []byte) []byte {
	h := sha256.Sum256(b)
	return h[:]
}

// String renders a fingerprint for diagnostics.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%x", f[:8])
}

// MarshalJSON encodes the fingerprint as a hex string rather than a JSON
// array of 32 small integers, so an autosave record reads as a short
// opaque digest on disk instead of a wall of numbers.
func (f Fingerprint) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(f[:]))
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (f *Fingerprint) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("decoding fingerprint hex: %w", err)
	}
	if len(decoded) != len(f) {
		return fmt.Errorf("fingerprint has wrong length %d", len(decoded))
	}
	copy(f[:], decoded)
	return nil
}

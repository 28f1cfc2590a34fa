// Package wallet implements the wallet probe contract (spec §4.5): a
// narrow, format-dispatched interface by which a candidate password is
// tested against an encrypted wallet or an extracted key blob.
//
// Four formats are supported, matching the external-interface's format
// tags: Armory ("ar"), Bitcoin Core ("bc"), Electrum ("el"), and
// MultiBit ("mb"). Each format gets its own key-derivation-and-decrypt
// routine in formats.go; this file owns the shared contract, the
// base64 key-blob envelope, and the native/pure hashing switch.
package wallet

import (
	"encoding/base64"
	"fmt"
	"hash/crc32"
	"os"

	"github.com/sirupsen/logrus"
)

// Format tags exactly as they appear in the base64 key-blob prefix.
type Format string

const (
	FormatArmory      Format = "ar"
	FormatBitcoinCore Format = "bc"
	FormatElectrum    Format = "el"
	FormatMultiBit    Format = "mb"
)

// ErrUnrecognizedWalletFormat is returned by LoadWallet when the file's
// magic bytes match none of the supported handlers.
var ErrUnrecognizedWalletFormat = fmt.Errorf("UnrecognizedWalletFormat")

// ErrKeyCrcCheck is returned by LoadFromBase64Key when the trailing
// CRC32 doesn't match the decoded format tag + ciphertext.
var ErrKeyCrcCheck = fmt.Errorf("KeyCrcCheck")

// handler is the per-format key-derivation-and-verify routine. It must
// be pure: no mutation of shared state on failure, consistent with the
// "Pure; no state is mutated on failure" contract clause.
type handler interface {
	// verify derives a key from candidate and the handler's stored
	// parameters, decrypts the known-plaintext marker, and reports
	// whether it checks out.
	verify(candidate string, usePure bool) bool
}

// Handle is the open wallet or key-blob probe: format, parameters, and
// the native-vs-pure hashing selection. It owns no writable file descriptor
// — §4.5 requires LoadWallet not mutate the file, so the wallet path is
// only ever opened read-only and then closed immediately after the
// magic-byte sniff.
type Handle struct {
	format  Format
	path    string
	keyBlob []byte
	h       handler
	pure    bool
	log     *logrus.Entry
}

// KeyBlob returns the raw ciphertext bytes this handle was built from,
// used by the session layer to compute the key fingerprint.
func (h *Handle) KeyBlob() []byte { return h.keyBlob }

// Format reports which wallet format this handle was dispatched to.
func (h *Handle) Format() Format { return h.format }

// LoadWallet inspects magic bytes / structural markers at path and
// dispatches to one of the four supported handlers. The file is opened
// read-only and never written to.
func LoadWallet(path string) (*Handle, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening wallet file: %w", err)
	}

	magic := content
	if len(magic) > 16 {
		magic = magic[:16]
	}

	format, err := detectFormat(magic)
	if err != nil {
		return nil, err
	}

	h := &Handle{
		format:  format,
		path:    path,
		keyBlob: content,
		log:     logrus.WithField("component", "wallet"),
	}
	h.h, err = newHandlerFor(format, formatParams(format, content))
	if err != nil {
		return nil, err
	}
	return h, nil
}

// formatParams strips each format's leading magic marker so the handler
// constructors always receive the same "salt/IV/ciphertext" byte layout
// regardless of whether the caller came in through LoadWallet or
// LoadFromBase64Key.
func formatParams(format Format, content []byte) []byte {
	switch format {
	case FormatMultiBit:
		return content // "Salted__" prefix is stripped inside newMultiBitHandler
	case FormatBitcoinCore, FormatElectrum:
		if len(content) > 16 {
			return content[16:]
		}
		return nil
	case FormatArmory:
		if len(content) > 4 {
			return content[4:]
		}
		return nil
	default:
		return content
	}
}

// LoadFromBase64Key parses a base64-encoded `<4-byte format tag>
// <ciphertext> <4-byte CRC32>` blob.
func LoadFromBase64Key(blob string) (*Handle, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("decoding base64 key blob: %w", err)
	}
	if len(raw) < 8 {
		return nil, fmt.Errorf("key blob too short")
	}

	tagAndCipher := raw[:len(raw)-4]
	wantCRC := raw[len(raw)-4:]
	gotCRC := crc32.ChecksumIEEE(tagAndCipher)
	var wantCRCVal uint32
	for i := 0; i < 4; i++ {
		wantCRCVal = wantCRCVal<<8 | uint32(wantCRC[i])
	}
	if gotCRC != wantCRCVal {
		return nil, ErrKeyCrcCheck
	}

	format := Format(tagAndCipher[:2])
	ciphertext := tagAndCipher[4:]

	h := &Handle{
		format:  format,
		keyBlob: ciphertext,
		log:     logrus.WithField("component", "wallet"),
	}
	var err2 error
	h.h, err2 = newHandlerFor(format, ciphertext)
	if err2 != nil {
		return nil, err2
	}
	return h, nil
}

// LoadAES256Library selects between the SIMD-accelerated and the pure Go
// SHA-256 implementation behind the PBKDF2 key derivation (Bitcoin Core
// and MultiBit); exposed for test parity between the two paths. AES
// decryption always uses crypto/aes, and the scrypt-based formats
// (Armory, Electrum) are not affected by this switch.
func (h *Handle) LoadAES256Library(forcePure bool) {
	h.pure = forcePure
}

// ReturnVerifiedPasswordOrFalse performs the format-specific key
// derivation and decryption and verifies a known-plaintext marker. It
// mutates no state on failure.
func (h *Handle) ReturnVerifiedPasswordOrFalse(candidate string) (string, bool) {
	if h.h == nil {
		return "", false
	}
	if h.h.verify(candidate, h.pure) {
		return candidate, true
	}
	return "", false
}

// Unload releases any resources held by the handle.
func (h *Handle) Unload() {
	h.h = nil
}

func detectFormat(magic []byte) (Format, error) {
	switch {
	case hasPrefix(magic, []byte{0xba, 0xad, 0xf0, 0x0d}):
		return FormatArmory, nil
	case hasPrefix(magic, []byte("SQLite format 3")):
		return FormatBitcoinCore, nil
	case hasPrefix(magic, []byte{0x7b}): // '{' - Electrum's JSON wallet file
		return FormatElectrum, nil
	case hasPrefix(magic, []byte("Salted__")):
		return FormatMultiBit, nil
	default:
		return "", ErrUnrecognizedWalletFormat
	}
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

func newHandlerFor(format Format, params []byte) (handler, error) {
	switch format {
	case FormatArmory:
		return newArmoryHandler(params), nil
	case FormatBitcoinCore:
		return newBitcoinCoreHandler(params), nil
	case FormatElectrum:
		return newElectrumHandler(params), nil
	case FormatMultiBit:
		return newMultiBitHandler(params), nil
	default:
		return nil, ErrUnrecognizedWalletFormat
	}
}

// Command btcrecover is the CLI entrypoint: it parses the option
// surface described in spec §6, builds one RecoverySession, and runs
// it to completion or to a verified match.
//
// The original teacher program took its three arguments positionally
// off os.Args; this option surface is an order of magnitude larger, so
// it is built on struct-tag option parsing instead (go-flags), in the
// shape the rest of the example pack uses for wide CLI surfaces.
package main

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/btcrecover/btcrecover-go/internal/autosave"
	"github.com/btcrecover/btcrecover-go/internal/generator"
	"github.com/btcrecover/btcrecover-go/internal/session"
	"github.com/btcrecover/btcrecover-go/internal/token"
	"github.com/btcrecover/btcrecover-go/internal/wallet"
	"github.com/btcrecover/btcrecover-go/internal/wildcard"
)

// options mirrors the CLI surface named in spec §6. Short and long forms
// follow go-flags struct-tag conventions.
type options struct {
	Tokenlist    string `long:"tokenlist" description:"path to the token-specification file"`
	Passwordlist string `long:"passwordlist" description:"path to a plain password list"`
	ListPass     bool   `long:"listpass" description:"print candidates instead of testing them"`

	MinTokens int `long:"min-tokens" default:"1" description:"minimum number of tokens per candidate"`
	MaxTokens int `long:"max-tokens" default:"0" description:"maximum number of tokens per candidate (0 = unbounded)"`

	CustomWild string `long:"custom-wild" description:"character set bound to %c/%C wildcards"`
	Delimiter  string `long:"delimiter" description:"token-list field delimiter (default: whitespace run)"`

	DedupD   bool `long:"d" description:"disable final-candidate dedup"`
	DedupDD  bool `long:"dd" description:"also disable expansion-level dedup"`
	DedupDDD bool `long:"ddd" description:"disable all dedup"`

	RegexOnly  string `long:"regex-only" description:"only emit candidates matching this regex"`
	RegexNever string `long:"regex-never" description:"never emit candidates matching this regex"`

	Skip   int64  `long:"skip" description:"number of leading candidates to bypass"`
	Worker string `long:"worker" description:"i/N worker partition"`

	Typos          int    `long:"typos" default:"0" description:"maximum number of typos per candidate"`
	MinTypos       int    `long:"min-typos" default:"0" description:"minimum number of typos per candidate"`
	TyposCapslock  bool   `long:"typos-capslock"`
	TyposSwap      bool   `long:"typos-swap"`
	TyposRepeat    bool   `long:"typos-repeat"`
	TyposDelete    bool   `long:"typos-delete"`
	TyposCase      bool   `long:"typos-case"`
	TyposCloseCase bool   `long:"typos-closecase"`
	TyposInsert    string `long:"typos-insert" description:"wildcard program for inserted characters"`
	TyposReplace   string `long:"typos-replace" description:"wildcard program for replacement characters"`
	TyposMap       string `long:"typos-map" description:"path to a typo-map file"`

	Autosave string `long:"autosave" description:"path to the autosave checkpoint file, or \"auto\" to generate one"`
	Restore  string `long:"restore" description:"path to an autosave file to resume from"`

	Privkey    string `long:"privkey" description:"base64-encoded extracted key blob"`
	Wallet     string `long:"wallet" description:"path to a wallet file"`
	NoProgress bool   `long:"no-progress"`
	Threads    int    `long:"threads" default:"1"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}

	log := logrus.New()
	if opts.NoProgress {
		log.SetLevel(logrus.WarnLevel)
	}

	if err := run(opts, log); err != nil {
		log.WithError(err).Error("recovery run failed")
		os.Exit(1)
	}
}

func run(opts options, log *logrus.Logger) error {
	sections, tokenlistRaw, err := loadTokenlist(opts)
	if err != nil {
		return fmt.Errorf("loading token specification: %w", err)
	}

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = len(sections)
	}

	typoCfg, err := buildTypoConfig(opts)
	if err != nil {
		return fmt.Errorf("building typo configuration: %w", err)
	}

	var regexOnly, regexNever *regexp.Regexp
	if opts.RegexOnly != "" {
		if regexOnly, err = regexp.Compile(opts.RegexOnly); err != nil {
			return fmt.Errorf("compiling --regex-only: %w", err)
		}
	}
	if opts.RegexNever != "" {
		if regexNever, err = regexp.Compile(opts.RegexNever); err != nil {
			return fmt.Errorf("compiling --regex-never: %w", err)
		}
	}

	workerIdx, workerN, err := parseWorker(opts.Worker)
	if err != nil {
		return err
	}

	dedup := generator.DedupFull
	switch {
	case opts.DedupDDD:
		dedup = generator.DedupNone
	case opts.DedupDD:
		dedup = generator.DedupNoExpansion
	case opts.DedupD:
		dedup = generator.DedupNoFinal
	}

	var w *wallet.Handle
	switch {
	case opts.Privkey != "":
		w, err = wallet.LoadFromBase64Key(opts.Privkey)
	case opts.Wallet != "":
		w, err = wallet.LoadWallet(opts.Wallet)
	}
	if err != nil {
		return fmt.Errorf("loading wallet: %w", err)
	}

	cfg := session.Config{
		Sections:     sections,
		MinTokens:    opts.MinTokens,
		MaxTokens:    maxTokens,
		Delimiter:    opts.Delimiter,
		CustomWild:   opts.CustomWild,
		Typos:        typoCfg,
		RegexOnly:    regexOnly,
		RegexNever:   regexNever,
		Dedup:        dedup,
		WorkerIdx:    workerIdx,
		WorkerN:      workerN,
		Skip:         opts.Skip,
		RawArgv:      os.Args[1:],
		RawTokenlist: tokenlistRaw,
	}

	sess := session.New(cfg, w)

	var store *autosave.Store
	startSkip := opts.Skip
	autosavePath := opts.Autosave
	if opts.Restore != "" {
		autosavePath = opts.Restore
	}
	if autosavePath == "auto" {
		autosavePath = defaultAutosavePath()
		log.WithField("path", autosavePath).Info("autosave path \"auto\" given; generated a file name")
	}

	if autosavePath != "" {
		store, err = autosave.Open(autosavePath)
		if err != nil {
			return fmt.Errorf("opening autosave file: %w", err)
		}
		if opts.Restore != "" {
			want := autosave.Record{
				ArgvFingerprint:      sess.ArgvFingerprint,
				TokenlistFingerprint: sess.TokenlistFingerprint,
				KeyFingerprint:       sess.KeyFingerprint,
			}
			rec, ok, restoreErr := autosave.Restore(opts.Restore, want)
			if restoreErr != nil {
				return fmt.Errorf("restore rejected: %w", restoreErr)
			}
			if ok {
				startSkip = rec.Skip
				log.WithField("skip", startSkip).Info("resumed from autosave checkpoint")
			}
		}
	}

	combinator := &generator.Combinator{Sections: sections, MinTokens: opts.MinTokens, MaxTokens: maxTokens}

	result, err := sess.Run(combinator, session.RunOptions{
		Autosave:  store,
		StartSkip: startSkip,
		Log:       log,
	})
	if err != nil {
		return err
	}

	if result.Found {
		log.WithField("password", result.Candidate).Info("password found")
	} else {
		log.WithField("tested", result.Tested).Info("search exhausted without a match")
	}
	return nil
}

func loadTokenlist(opts options) ([]token.Section, []byte, error) {
	if opts.Tokenlist == "" {
		if opts.Passwordlist != "" {
			return loadPasswordlist(opts.Passwordlist)
		}
		return nil, nil, fmt.Errorf("one of --tokenlist or --passwordlist is required")
	}
	raw, err := os.ReadFile(opts.Tokenlist)
	if err != nil {
		return nil, nil, err
	}
	sections, err := token.Parse(strings.NewReader(string(raw)), token.Options{
		Delimiter:  opts.Delimiter,
		CustomWild: opts.CustomWild,
	})
	if err != nil {
		return nil, nil, err
	}
	return sections, raw, nil
}

// loadPasswordlist turns a plain one-candidate-per-line file into a
// single required section whose alternatives are the file's lines taken
// literally (spec §6: "typo mutation may be applied to it, but
// combinatorial generation is not" — one section with no anchors and no
// other sections to combine with achieves exactly that).
func loadPasswordlist(path string) ([]token.Section, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	sec := token.Section{Required: true}
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		sec.Tokens = append(sec.Tokens, token.Token{Program: wildcard.Literal(line), Raw: line})
	}
	return []token.Section{sec}, raw, nil
}

func buildTypoConfig(opts options) (generator.TypoConfig, error) {
	cfg := generator.TypoConfig{
		Enabled:  map[generator.TypoKind]bool{},
		MaxTypos: opts.Typos,
		MinTypos: opts.MinTypos,
	}
	if opts.TyposCapslock {
		cfg.Enabled[generator.TypoCapslock] = true
	}
	if opts.TyposSwap {
		cfg.Enabled[generator.TypoSwap] = true
	}
	if opts.TyposRepeat {
		cfg.Enabled[generator.TypoRepeat] = true
	}
	if opts.TyposDelete {
		cfg.Enabled[generator.TypoDelete] = true
	}
	if opts.TyposCase {
		cfg.Enabled[generator.TypoCase] = true
	}
	if opts.TyposCloseCase {
		cfg.Enabled[generator.TypoCloseCase] = true
	}

	if opts.TyposInsert != "" {
		prog, err := wildcard.Parse(opts.TyposInsert, wildcard.Options{NoContract: true})
		if err != nil {
			return cfg, fmt.Errorf("parsing --typos-insert: %w", err)
		}
		cfg.Insert = prog
		cfg.Enabled[generator.TypoInsert] = true
	}
	if opts.TyposReplace != "" {
		prog, err := wildcard.Parse(opts.TyposReplace, wildcard.Options{NoContract: true})
		if err != nil {
			return cfg, fmt.Errorf("parsing --typos-replace: %w", err)
		}
		cfg.Replace = prog
		cfg.Enabled[generator.TypoReplace] = true
	}
	if opts.TyposMap != "" {
		m, err := loadTypoMap(opts.TyposMap)
		if err != nil {
			return cfg, fmt.Errorf("loading --typos-map: %w", err)
		}
		cfg.Map = m
		cfg.Enabled[generator.TypoMap] = true
	}
	return cfg, nil
}

// loadTypoMap parses the typo-map file format from spec §6: one mapping
// per line, "<source-chars><whitespace><replacement-chars>", every
// source character mapping to every replacement character, accumulating
// across repeated lines for the same source character.
func loadTypoMap(path string) (map[rune][]rune, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := make(map[rune][]rune)
	for _, line := range strings.Split(string(raw), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		src, repl := fields[0], fields[1]
		for _, s := range src {
			m[s] = append(m[s], []rune(repl)...)
		}
	}
	return m, nil
}

func parseWorker(spec string) (idx, n int, err error) {
	if spec == "" {
		return 0, 0, nil
	}
	parts := strings.SplitN(spec, "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed --worker value %q, want i/N", spec)
	}
	idx, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed --worker index: %w", err)
	}
	n, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed --worker count: %w", err)
	}
	if idx < 1 || idx > n {
		return 0, 0, fmt.Errorf("--worker index %d out of range for %d workers", idx, n)
	}
	return idx, n, nil
}

func defaultAutosavePath() string {
	return fmt.Sprintf("btcrecover-%s.autosave", uuid.NewString())
}

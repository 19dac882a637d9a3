package main

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// LedgerStatus is a terminal classification of one redemption attempt.
type LedgerStatus string

const (
	StatusRedeemed    LedgerStatus = "redeemed"
	StatusInvalid     LedgerStatus = "invalid"
	StatusAlreadyUsed LedgerStatus = "already_used"
)

// LedgerEntry records the terminal outcome of one (game, code) attempt.
type LedgerEntry struct {
	Status     LedgerStatus `toml:"status"`
	Message    string       `toml:"message"`
	RedeemedAt time.Time    `toml:"timestamp"`
}

type ledgerFile struct {
	Games map[string]map[string]LedgerEntry `toml:"games"`
}

// Ledger is the durable set of codes whose redemption reached a terminal
// outcome, keyed by (game, code). Entries are appended and corrected, never
// deleted; every write atomically replaces the whole file.
type Ledger struct {
	path  string
	games map[Game]map[string]LedgerEntry
}

// LoadLedger reads the ledger at path, starting empty when the file does not
// exist yet.
func LoadLedger(path string) (*Ledger, error) {
	l := &Ledger{path: path, games: map[Game]map[string]LedgerEntry{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return l, nil
		}
		return nil, storageErr("read", path, err)
	}

	var file ledgerFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, storageErr("decode", path, err)
	}

	for game, codes := range file.Games {
		entries := make(map[string]LedgerEntry, len(codes))
		for code, entry := range codes {
			entries[code] = entry
		}
		l.games[Game(game)] = entries
	}

	return l, nil
}

// Lookup returns the recorded entry for (game, code), if any.
func (l *Ledger) Lookup(game Game, code string) (LedgerEntry, bool) {
	entry, ok := l.games[game][code]
	return entry, ok
}

// SkipWorthy reports whether the code must not be resubmitted for the game.
// Only redeemed and already-used-remotely are skip-worthy; a code recorded as
// invalid is kept on file but may be retried, since codes occasionally go
// live after first being seen.
func (l *Ledger) SkipWorthy(game Game, code string) bool {
	entry, ok := l.Lookup(game, code)
	if !ok {
		return false
	}
	return entry.Status == StatusRedeemed || entry.Status == StatusAlreadyUsed
}

// Record stores a terminal outcome for (game, code) and persists the ledger.
// An existing entry is overwritten, which is the append-and-correct path for
// a previously invalid code that later redeemed.
func (l *Ledger) Record(game Game, code string, status LedgerStatus, message string) error {
	if l.games[game] == nil {
		l.games[game] = map[string]LedgerEntry{}
	}
	l.games[game][code] = LedgerEntry{
		Status:     status,
		Message:    message,
		RedeemedAt: time.Now().UTC(),
	}
	return l.save()
}

// Size returns the total number of recorded entries.
func (l *Ledger) Size() int {
	n := 0
	for _, codes := range l.games {
		n += len(codes)
	}
	return n
}

func (l *Ledger) save() error {
	file := ledgerFile{Games: map[string]map[string]LedgerEntry{}}
	for game, codes := range l.games {
		file.Games[string(game)] = codes
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return storageErr("encode", l.path, err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return storageErr("mkdir", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".ledger-*")
	if err != nil {
		return storageErr("create temp", dir, err)
	}
	tmpName := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return storageErr("write temp", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return storageErr("close temp", tmpName, err)
	}

	if err := os.Rename(tmpName, l.path); err != nil {
		return storageErr("replace", l.path, err)
	}
	cleanup = false

	return nil
}

// Codes returns the recorded codes for a game in stable order, mostly for
// reporting and tests.
func (l *Ledger) Codes(game Game) []string {
	codes := make([]string, 0, len(l.games[game]))
	for code := range l.games[game] {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

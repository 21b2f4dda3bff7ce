// Package validator implements the Subscription Validator: a persistent
// blocklist gate, a single streaming GET per candidate, classification
// into Clash/V2/Airport, and the per-subscription minimum-quality gate.
package validator

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const maxBlocklistLines = 50000

// Blocklist is a persistent, append-only set of subscription URLs that
// have already failed once. It is bounded: when the backing file exceeds
// maxBlocklistLines, it is truncated to the most recent entries and
// rewritten.
type Blocklist struct {
	mu      sync.Mutex
	path    string
	entries map[string]bool
	order   []string
}

// LoadBlocklist reads all of path up front; a missing file is an empty blocklist,
// and a corrupt file is renamed to ".bak" and treated as empty so the run
// proceeds rather than aborting (the pipeline's error-handling design
// treats store corruption as non-fatal).
func LoadBlocklist(path string) (*Blocklist, error) {
	bl := &Blocklist{path: path, entries: make(map[string]bool)}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return bl, nil
	} else if err != nil {
		return bl, nil //nolint: nilerr
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || bl.entries[line] {
			continue
		}

		bl.entries[line] = true
		bl.order = append(bl.order, line)
	}

	if err := scanner.Err(); err != nil {
		renamed := path + ".bak"
		_ = os.Rename(path, renamed)

		return &Blocklist{path: path, entries: make(map[string]bool)}, nil
	}

	if len(bl.order) > maxBlocklistLines {
		bl.order = bl.order[len(bl.order)-maxBlocklistLines:]

		bl.entries = make(map[string]bool, len(bl.order))
		for _, e := range bl.order {
			bl.entries[e] = true
		}
	}

	return bl, nil
}

// Contains reports whether url is already blocklisted.
func (b *Blocklist) Contains(url string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.entries[url]
}

// Add appends url to the blocklist if it isn't already present.
func (b *Blocklist) Add(url string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.entries[url] {
		return
	}

	b.entries[url] = true
	b.order = append(b.order, url)

	if len(b.order) > maxBlocklistLines {
		dropped := b.order[0]
		b.order = b.order[1:]
		delete(b.entries, dropped)
	}
}

// Flush rewrites the blocklist file from the in-memory ordered set,
// keeping at most the most recent maxBlocklistLines entries.
func (b *Blocklist) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("cannot create blocklist dir: %w", err)
	}

	tmp := b.path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("cannot create blocklist temp file: %w", err)
	}

	w := bufio.NewWriter(f)

	for _, entry := range b.order {
		if _, err := w.WriteString(entry + "\n"); err != nil {
			f.Close()

			return fmt.Errorf("cannot write blocklist entry: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()

		return fmt.Errorf("cannot flush blocklist: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot close blocklist temp file: %w", err)
	}

	if err := os.Rename(tmp, b.path); err != nil {
		return fmt.Errorf("cannot replace blocklist: %w", err)
	}

	return nil
}

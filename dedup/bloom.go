package dedup

import (
	"sync"

	"github.com/OneOfOne/xxhash"
	boom "github.com/tylertreat/BoomFilters"
)

// DefaultMaxSize is the default memory budget for a Filter, in bytes.
const DefaultMaxSize uint = 1024 * 1024

// DefaultErrorRate is the default target false-positive rate.
const DefaultErrorRate = 0.01

// Filter is a thread-safe stable bloom filter keyed by raw byte strings
// (either a full node URI or a protocol://host:port key).
type Filter struct {
	filter boom.StableBloomFilter
	mutex  sync.Mutex
}

// SeenBefore reports whether key has been added before, and adds it if
// not. False positives are possible (a never-seen key reported as seen);
// false negatives are not.
func (f *Filter) SeenBefore(key string) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	return f.filter.TestAndAdd([]byte(key))
}

// New builds a Filter sized for byteSize bytes of memory at the given
// false-positive rate. byteSize == 0 and errorRate <= 0 fall back to the
// package defaults.
func New(byteSize uint, errorRate float64) *Filter {
	if byteSize == 0 {
		byteSize = DefaultMaxSize
	}

	if errorRate <= 0 {
		errorRate = DefaultErrorRate
	}

	sf := boom.NewDefaultStableBloomFilter(byteSize*8, errorRate) //nolint: gomnd
	sf.SetHash(xxhash.New64())

	return &Filter{filter: *sf}
}

// Merger deduplicates node URIs pre-parse (by full URI string) and Node
// records post-parse (by protocol://host:port), matching the two dedup
// keys the data model distinguishes.
type Merger struct {
	uriSeen *Filter
	keySeen *Filter

	mu      sync.Mutex
	uris    []string
}

// NewMerger builds a Merger with independent pre-parse and post-parse
// filters so a URI collision can't mask a distinct endpoint collision.
func NewMerger(byteSize uint, errorRate float64) *Merger {
	return &Merger{
		uriSeen: New(byteSize, errorRate),
		keySeen: New(byteSize, errorRate),
	}
}

// AddURI adds a raw node URI to the pool if it hasn't been seen before.
// Returns false if it was a duplicate.
func (m *Merger) AddURI(uri string) bool {
	if m.uriSeen.SeenBefore(uri) {
		return false
	}

	m.mu.Lock()
	m.uris = append(m.uris, uri)
	m.mu.Unlock()

	return true
}

// SeenKey reports whether a post-parse protocol://host:port key has
// already been emitted, marking it seen either way.
func (m *Merger) SeenKey(key string) bool {
	return m.keySeen.SeenBefore(key)
}

// URIs returns every distinct node URI accepted so far.
func (m *Merger) URIs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.uris))
	copy(out, m.uris)

	return out
}

// Len reports how many distinct URIs have been accepted.
func (m *Merger) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.uris)
}

// Package dedup is the Merger & Deduper's pre-filter: a constant-memory,
// probabilistic membership cache used to drop duplicate node URIs and
// duplicate protocol://host:port keys before they reach the (much more
// expensive) downstream scoring stages.
//
// A stable bloom filter never reports a false negative: once a key has
// been seen, SeenBefore always returns true for it again. It can report a
// false positive at a bounded, configurable rate, which here just means an
// occasional distinct node is treated as a duplicate and dropped — an
// acceptable trade against holding a true set of tens of thousands of raw
// strings in memory across a run.
package dedup

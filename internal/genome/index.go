package genome

import (
	"fmt"
	"sort"
	"strings"
)

// Key identifies a site by normalized chromosome and position. Positions are
// compared as opaque strings, so "001" and "1" are different keys.
type Key struct {
	Chrom string
	Pos   string
}

// Less orders keys by chromosome, then position, both lexicographically.
func (k Key) Less(o Key) bool {
	if k.Chrom != o.Chrom {
		return k.Chrom < o.Chrom
	}
	return k.Pos < o.Pos
}

// DuplicatePolicy decides which record wins when a key is seen twice.
type DuplicatePolicy int

const (
	// KeepLast overwrites earlier records (source order dependent).
	KeepLast DuplicatePolicy = iota
	// KeepFirst ignores later records for a known key.
	KeepFirst
)

// ParseDuplicatePolicy parses "last" or "first".
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(s) {
	case "", "last":
		return KeepLast, nil
	case "first":
		return KeepFirst, nil
	default:
		return KeepLast, fmt.Errorf("unknown duplicate policy %q (want last or first)", s)
	}
}

func (p DuplicatePolicy) String() string {
	if p == KeepFirst {
		return "first"
	}
	return "last"
}

// Index maps site keys to allele pairs. An Index is filled once by its
// builder and only read afterwards.
type Index struct {
	norm       Normalizer
	policy     DuplicatePolicy
	sites      map[Key]Alleles
	notation   Notation
	duplicates int
	skipped    int
}

// NewIndex creates an empty index.
func NewIndex(norm Normalizer, policy DuplicatePolicy) *Index {
	return &Index{
		norm:     norm,
		policy:   policy,
		sites:    make(map[Key]Alleles),
		notation: make(Notation),
	}
}

// Add normalizes chrom and stores the allele pair at (chrom, pos).
func (idx *Index) Add(chrom, pos, ref, alt string) {
	norm := idx.norm.Normalize(chrom)
	k := Key{Chrom: norm, Pos: pos}
	if _, ok := idx.sites[k]; ok {
		idx.duplicates++
		if idx.policy == KeepFirst {
			return
		}
	}
	idx.sites[k] = Alleles{Ref: ref, Alt: alt}
	idx.notation.Observe(norm, chrom)
}

// Skip counts an input line that was dropped as malformed.
func (idx *Index) Skip() {
	idx.skipped++
}

// Get returns the alleles stored at k.
func (idx *Index) Get(k Key) (Alleles, bool) {
	a, ok := idx.sites[k]
	return a, ok
}

// Len returns the number of distinct keys.
func (idx *Index) Len() int {
	return len(idx.sites)
}

// Duplicates returns how many records collided with an existing key.
func (idx *Index) Duplicates() int {
	return idx.duplicates
}

// Skipped returns how many input lines were dropped as malformed.
func (idx *Index) Skipped() int {
	return idx.skipped
}

// Notation returns the original chromosome labels observed while indexing.
func (idx *Index) Notation() Notation {
	return idx.notation
}

// Keys returns all keys in sorted order.
func (idx *Index) Keys() []Key {
	keys := make([]Key, 0, len(idx.sites))
	for k := range idx.sites {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Intersect returns the keys present in both indices, sorted.
func (idx *Index) Intersect(other *Index) []Key {
	small, large := idx, other
	if large.Len() < small.Len() {
		small, large = large, small
	}
	var keys []Key
	for k := range small.sites {
		if _, ok := large.sites[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

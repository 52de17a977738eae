// Package genome provides chromosome notation handling, allele comparison
// helpers and the in-memory variant index shared by all inputs of a run.
package genome

import (
	"fmt"
	"strings"
)

// StripMode selects how chromosome labels are normalized.
type StripMode int

const (
	// StripPrefix removes a literal "chr" prefix (any case), repeatedly.
	StripPrefix StripMode = iota
	// StripCharset removes every leading character in {c,h,r,C,H,R}.
	// Kept for byte-for-byte compatibility with older reports: it also
	// turns "hrom1" into "om1".
	StripCharset
)

// ParseStripMode parses "prefix" or "charset".
func ParseStripMode(s string) (StripMode, error) {
	switch strings.ToLower(s) {
	case "", "prefix":
		return StripPrefix, nil
	case "charset":
		return StripCharset, nil
	default:
		return StripPrefix, fmt.Errorf("unknown chromosome strip mode %q (want prefix or charset)", s)
	}
}

func (m StripMode) String() string {
	if m == StripCharset {
		return "charset"
	}
	return "prefix"
}

// Normalizer canonicalizes chromosome labels so that "chr7" and "7" key
// identically.
type Normalizer struct {
	Mode StripMode
}

// Normalize returns the chromosome label without its "chr" prefix.
// Normalize(Normalize(x)) == Normalize(x) holds for both modes.
func (n Normalizer) Normalize(chrom string) string {
	if n.Mode == StripCharset {
		return strings.TrimLeft(chrom, "chrCHR")
	}
	// A bare "chr" is left alone.
	for len(chrom) > 3 && strings.EqualFold(chrom[:3], "chr") {
		chrom = chrom[3:]
	}
	return chrom
}

// HasChrPrefix reports whether the label starts with "chr" or "CHR".
func HasChrPrefix(label string) bool {
	return strings.HasPrefix(label, "chr") || strings.HasPrefix(label, "CHR")
}

// Notation maps a normalized chromosome to the first original label seen
// for it, used to restore "chr7" vs "7" in output.
type Notation map[string]string

// Observe records original for chrom unless a label is already known.
func (n Notation) Observe(chrom, original string) {
	if _, ok := n[chrom]; !ok {
		n[chrom] = original
	}
}

// Merge copies entries from other that n does not already have, so the
// receiver's notation wins.
func (n Notation) Merge(other Notation) {
	for chrom, original := range other {
		n.Observe(chrom, original)
	}
}

// Display returns the original label for chrom, or "chr"+chrom when none
// was observed.
func (n Notation) Display(chrom string) string {
	if original, ok := n[chrom]; ok {
		return original
	}
	return "chr" + chrom
}

package vcf

import (
	"strconv"
	"strings"
)

// Variant represents a single site from a VCF file.
type Variant struct {
	Chrom string   // Chromosome name as written (e.g., "12", "chr12")
	Pos   int64    // 1-based genomic position
	ID    string   // Variant identifier (e.g., rs ID)
	Ref   string   // Reference allele
	Alts  []string // Alternate alleles in file order
}

// IsSNP reports whether the site is a single-nucleotide polymorphism: a
// one-base reference and at least one one-base alternate allele.
func (v *Variant) IsSNP() bool {
	if len(v.Ref) != 1 || !isBase(v.Ref[0]) {
		return false
	}
	for _, alt := range v.Alts {
		if len(alt) == 1 && isBase(alt[0]) {
			return true
		}
	}
	return false
}

// QueryLine formats the site as "CHROM\tPOS\tREF\tALT[,ALT...]".
func (v *Variant) QueryLine() string {
	var b strings.Builder
	b.WriteString(v.Chrom)
	b.WriteByte('\t')
	b.WriteString(strconv.FormatInt(v.Pos, 10))
	b.WriteByte('\t')
	b.WriteString(v.Ref)
	b.WriteByte('\t')
	b.WriteString(strings.Join(v.Alts, ","))
	return b.String()
}

func isBase(c byte) bool {
	switch c {
	case 'A', 'C', 'G', 'T', 'a', 'c', 'g', 't':
		return true
	}
	return false
}

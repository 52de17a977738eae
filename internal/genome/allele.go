package genome

var complement = [256]byte{
	'A': 'T', 'T': 'A', 'C': 'G', 'G': 'C',
}

// Alleles is a (reference, alternate) allele pair.
type Alleles struct {
	Ref string
	Alt string
}

// String formats the pair as "REF>ALT".
func (a Alleles) String() string {
	return a.Ref + ">" + a.Alt
}

// IsComplement reports whether b is the base-by-base strand complement of a
// (A<->T, C<->G). Alleles of different length never complement each other,
// and a base outside ACGT complements nothing, including itself.
func IsComplement(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		c := complement[a[i]]
		if c == 0 || b[i] != c {
			return false
		}
	}
	return true
}

package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/checkref/internal/genome"
)

func pair(ref, alt string) genome.Alleles {
	return genome.Alleles{Ref: ref, Alt: alt}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		target genome.Alleles
		ref    genome.Alleles
		want   Class
	}{
		{"identical", pair("A", "G"), pair("A", "G"), Match},
		{"swapped", pair("A", "G"), pair("G", "A"), Switch},
		// A/T is its own complement; the literal swap wins.
		{"palindromic swap", pair("A", "T"), pair("T", "A"), Switch},
		{"palindromic match", pair("C", "G"), pair("C", "G"), Match},
		{"complement", pair("A", "G"), pair("T", "C"), Complement},
		{"complement switch", pair("A", "G"), pair("C", "T"), ComplementSwitch},
		{"unrelated", pair("A", "G"), pair("A", "C"), Other},
		{"non-ACGT", pair("N", "G"), pair("N", "C"), Other},
		{"length mismatch", pair("AT", "G"), pair("T", "C"), Other},
		{"multi-base complement", pair("AC", "GT"), pair("TG", "CA"), Complement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.target, tt.ref))
		})
	}
}

// Every pair of SNP allele pairs lands in exactly one class.
func TestClassify_Exhaustive(t *testing.T) {
	bases := []string{"A", "C", "G", "T"}
	var tally Tally
	n := 0
	for _, tr := range bases {
		for _, ta := range bases {
			for _, rr := range bases {
				for _, ra := range bases {
					c := Classify(pair(tr, ta), pair(rr, ra))
					require.GreaterOrEqual(t, int(c), int(Match))
					require.LessOrEqual(t, int(c), int(Other))
					tally.Add(c)
					n++
				}
			}
		}
	}
	assert.Equal(t, n, tally.Total())
	assert.Equal(t, 16, tally.Count(Match))
}

func TestClassString(t *testing.T) {
	names := make([]string, 0, 5)
	for _, c := range Classes() {
		names = append(names, c.String())
	}
	assert.Equal(t, []string{"MATCH", "SWITCH", "COMPLEMENT", "COMPLEMENT_SWITCH", "OTHER"}, names)
	assert.Equal(t, "Class(9)", Class(9).String())

	c, err := ParseClass("complement_switch")
	require.NoError(t, err)
	assert.Equal(t, ComplementSwitch, c)

	_, err = ParseClass("FLIP")
	assert.Error(t, err)
}

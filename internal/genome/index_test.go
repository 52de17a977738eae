package genome

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceReader struct {
	lines []string
	err   error
}

func (s *sliceReader) Next() (string, error) {
	if len(s.lines) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func TestIsComplement(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"A", "T", true},
		{"T", "A", true},
		{"C", "G", true},
		{"G", "C", true},
		{"A", "A", false},
		{"A", "G", false},
		{"AC", "TG", true},
		{"AC", "GT", false},
		{"A", "TT", false},
		{"N", "N", false},
		{"N", "A", false},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, IsComplement(tt.a, tt.b))
		})
	}
}

func TestIsComplement_Symmetric(t *testing.T) {
	alleles := []string{"A", "C", "G", "T", "N", "AC", "TG", "GT", "CA"}
	for _, a := range alleles {
		for _, b := range alleles {
			assert.Equal(t, IsComplement(a, b), IsComplement(b, a), "%s vs %s", a, b)
		}
	}
}

func TestParseRecord(t *testing.T) {
	rec, ok := ParseRecord("chr1\t100\tA\tG,T\n")
	require.True(t, ok)
	assert.Equal(t, Record{Chrom: "chr1", Pos: "100", Ref: "A", Alt: "G"}, rec)

	_, ok = ParseRecord("chr1\t100\tA")
	assert.False(t, ok)

	_, ok = ParseRecord("chr1\t100\tA\tG\textra")
	assert.False(t, ok)

	_, ok = ParseRecord("")
	assert.False(t, ok)
}

func TestIndexer_Build(t *testing.T) {
	r := &sliceReader{lines: []string{
		"chr1\t100\tA\tG",
		"chr1\t200\tC\tT,A",
		"garbage",
		"chr2\t300\tG\tA",
	}}

	idx, err := NewIndexer(Normalizer{}, KeepLast).Build("target", r)
	require.NoError(t, err)

	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, 1, idx.Skipped())

	a, ok := idx.Get(Key{Chrom: "1", Pos: "200"})
	require.True(t, ok)
	assert.Equal(t, Alleles{Ref: "C", Alt: "T"}, a)
	assert.Equal(t, "chr1", idx.Notation().Display("1"))
}

func TestIndexer_BuildReadError(t *testing.T) {
	r := &sliceReader{lines: []string{"1\t1\tA\tG"}, err: errors.New("broken pipe")}
	_, err := NewIndexer(Normalizer{}, KeepLast).Build("target", r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
}

func TestIndex_DuplicatePolicy(t *testing.T) {
	lines := []string{"1\t100\tA\tG", "1\t100\tA\tC"}

	last, err := NewIndexer(Normalizer{}, KeepLast).Build("t", &sliceReader{lines: append([]string(nil), lines...)})
	require.NoError(t, err)
	a, _ := last.Get(Key{"1", "100"})
	assert.Equal(t, "C", a.Alt)
	assert.Equal(t, 1, last.Duplicates())

	first, err := NewIndexer(Normalizer{}, KeepFirst).Build("t", &sliceReader{lines: append([]string(nil), lines...)})
	require.NoError(t, err)
	a, _ = first.Get(Key{"1", "100"})
	assert.Equal(t, "G", a.Alt)
}

func TestIndex_PositionsAreOpaque(t *testing.T) {
	idx := NewIndex(Normalizer{}, KeepLast)
	idx.Add("1", "001", "A", "G")
	idx.Add("1", "1", "A", "G")
	assert.Equal(t, 2, idx.Len())
}

func TestIndex_IntersectAndKeys(t *testing.T) {
	a := NewIndex(Normalizer{}, KeepLast)
	a.Add("chr2", "5", "A", "G")
	a.Add("chr1", "10", "A", "G")
	a.Add("chr1", "2", "A", "G")

	b := NewIndex(Normalizer{}, KeepLast)
	b.Add("1", "10", "G", "A")
	b.Add("2", "5", "A", "G")
	b.Add("3", "1", "A", "G")

	assert.Equal(t, []Key{{"1", "10"}, {"2", "5"}}, a.Intersect(b))
	assert.Equal(t, a.Intersect(b), b.Intersect(a))
	assert.Equal(t, []Key{{"1", "10"}, {"1", "2"}, {"2", "5"}}, a.Keys())
}

func TestParseDuplicatePolicy(t *testing.T) {
	p, err := ParseDuplicatePolicy("first")
	require.NoError(t, err)
	assert.Equal(t, KeepFirst, p)
	assert.Equal(t, "first", p.String())

	_, err = ParseDuplicatePolicy("random")
	assert.Error(t, err)
}

package genome

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// sampleEvery controls how often a processed record is logged after the
// first few.
const sampleEvery = 100000

// LineReader yields raw "CHROM\tPOS\tREF\tALT" lines from a query tool.
// Next returns io.EOF once the stream is exhausted.
type LineReader interface {
	Next() (string, error)
}

// Record is one parsed query-tool line.
type Record struct {
	Chrom string
	Pos   string
	Ref   string
	Alt   string // first alternate allele only
}

// ParseRecord splits a query-tool line. It reports false for any line that
// does not have exactly four tab-separated fields.
func ParseRecord(line string) (Record, bool) {
	fields := strings.Split(strings.TrimSpace(line), "\t")
	if len(fields) != 4 {
		return Record{}, false
	}
	alt, _, _ := strings.Cut(fields[3], ",")
	return Record{
		Chrom: fields[0],
		Pos:   fields[1],
		Ref:   fields[2],
		Alt:   alt,
	}, true
}

// Indexer turns a stream of query-tool lines into an Index.
type Indexer struct {
	norm   Normalizer
	policy DuplicatePolicy
	logger *zap.Logger
}

// NewIndexer creates an indexer.
func NewIndexer(norm Normalizer, policy DuplicatePolicy) *Indexer {
	return &Indexer{
		norm:   norm,
		policy: policy,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for sample record output.
func (ix *Indexer) SetLogger(l *zap.Logger) {
	ix.logger = l
}

// Build reads r to exhaustion. Malformed lines are skipped; a read error
// from r aborts the build.
func (ix *Indexer) Build(name string, r LineReader) (*Index, error) {
	idx := NewIndex(ix.norm, ix.policy)
	lineCount := 0
	for {
		line, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s variants: %w", name, err)
		}
		lineCount++

		rec, ok := ParseRecord(line)
		if !ok {
			idx.Skip()
			continue
		}
		idx.Add(rec.Chrom, rec.Pos, rec.Ref, rec.Alt)

		if lineCount <= 5 || lineCount%sampleEvery == 0 {
			ix.logger.Debug("sample variant",
				zap.String("source", name),
				zap.Int("line", lineCount),
				zap.String("chrom", rec.Chrom),
				zap.String("pos", rec.Pos),
				zap.String("ref", rec.Ref),
				zap.String("alt", rec.Alt))
		}
	}

	ix.logger.Info("indexed variants",
		zap.String("source", name),
		zap.Int("lines", lineCount),
		zap.Int("variants", idx.Len()),
		zap.Int("skipped", idx.Skipped()),
		zap.Int("duplicates", idx.Duplicates()))
	return idx, nil
}

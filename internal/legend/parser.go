// Package legend parses reference panel legend tables.
//
// Two layouts are accepted. A headered table starts with a line whose first
// column begins with "id" (any case); its columns are located by name. A
// headerless table uses the legacy fixed order ID POSITION A0 A1.
package legend

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/checkref/internal/genome"
)

// sampleEvery controls how often a parsed row is logged after the first few.
const sampleEvery = 100000

var (
	chromPathPattern = regexp.MustCompile(`(chr\d+|chrX|chrY|chrMT)`)
	barePathPattern  = regexp.MustCompile(`(\d+|X|Y|MT)`)
)

// Layout holds resolved column positions. Chrom is -1 when the table has no
// chromosome column.
type Layout struct {
	Header bool
	Chrom  int
	Pos    int
	Ref    int
	Alt    int
}

// legacyLayout is the headerless ID POSITION A0 A1 layout.
var legacyLayout = Layout{Chrom: -1, Pos: 1, Ref: 2, Alt: 3}

// IsHeader reports whether line is a legend header line.
func IsHeader(line string) bool {
	return len(line) >= 2 && strings.EqualFold(line[:2], "id")
}

// DetectLayout resolves column positions from a header line. Missing
// columns fall back to POS=2, REF=3, ALT=4.
func DetectLayout(header string) Layout {
	cols := strings.Fields(strings.ToUpper(header))
	find := func(names ...string) int {
		for _, name := range names {
			for i, c := range cols {
				if c == name {
					return i
				}
			}
		}
		return -1
	}

	l := Layout{
		Header: true,
		Chrom:  find("CHROM"),
		Pos:    find("POS", "POSITION"),
		Ref:    find("REF", "A0"),
		Alt:    find("ALT", "A1"),
	}
	if l.Pos < 0 {
		l.Pos = 2
	}
	if l.Ref < 0 {
		l.Ref = 3
	}
	if l.Alt < 0 {
		l.Alt = 4
	}
	return l
}

// minColumns returns the number of columns a row needs for this layout.
func (l Layout) minColumns() int {
	return max(l.Pos, l.Ref, l.Alt, l.Chrom, 0) + 1
}

// ChromFromPath derives a chromosome label from a file name: "chr<N>",
// chrX, chrY or chrMT first, then a bare number, X, Y or MT (prefixed with
// "chr"), else "unknown". Directory components are ignored.
func ChromFromPath(path string) string {
	name := filepath.Base(path)
	if m := chromPathPattern.FindString(name); m != "" {
		return m
	}
	if m := barePathPattern.FindString(name); m != "" {
		return "chr" + m
	}
	return "unknown"
}

// Result is the outcome of parsing a legend file.
type Result struct {
	Index  *genome.Index
	Layout Layout
	Lines  int
}

// ParseError wraps a read or decode failure with its location.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("legend parse error in %s at line %d: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parser reads legend tables into a variant index.
type Parser struct {
	norm   genome.Normalizer
	policy genome.DuplicatePolicy
	logger *zap.Logger
}

// NewParser creates a legend parser.
func NewParser(norm genome.Normalizer, policy genome.DuplicatePolicy) *Parser {
	return &Parser{
		norm:   norm,
		policy: policy,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for diagnostic output.
func (p *Parser) SetLogger(l *zap.Logger) {
	p.logger = l
}

// ParseFile parses the legend at path. On failure the file's existence and
// size are logged before the error is returned.
func (p *Parser) ParseFile(path string) (*Result, error) {
	res, err := p.parseFile(path)
	if err != nil {
		fields := []zap.Field{zap.String("path", path), zap.Error(err)}
		if info, statErr := os.Stat(path); statErr == nil {
			fields = append(fields, zap.Bool("exists", true), zap.Int64("size", info.Size()))
		} else {
			fields = append(fields, zap.Bool("exists", false))
		}
		p.logger.Error("error parsing legend file", fields...)
		return nil, err
	}
	return res, nil
}

func (p *Parser) parseFile(path string) (*Result, error) {
	f, err := Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()

	return p.Parse(path, f)
}

// Parse reads a legend table from r. path is used to derive chromosome
// labels for tables that carry none.
func (p *Parser) Parse(path string, r io.Reader) (*Result, error) {
	src := newLineSource(r)

	first, err := src.next()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, &ParseError{Path: path, Line: src.lineNumber, Err: err}
	}
	first = strings.TrimSpace(first)
	p.logger.Info("legend file header", zap.String("header", first))

	layout := legacyLayout
	if IsHeader(first) {
		layout = DetectLayout(first)
		p.logger.Info("using column indices",
			zap.Int("chrom", layout.Chrom),
			zap.Int("pos", layout.Pos),
			zap.Int("ref", layout.Ref),
			zap.Int("alt", layout.Alt))
	} else if first != "" {
		src.unread(first)
	}

	res := &Result{
		Index:  genome.NewIndex(p.norm, p.policy),
		Layout: layout,
	}
	need := layout.minColumns()
	pathChrom := ""

	for {
		line, err := src.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Path: path, Line: src.lineNumber, Err: err}
		}
		res.Lines++

		cols := strings.Fields(line)
		if len(cols) < need {
			res.Index.Skip()
			continue
		}

		var chrom string
		idPrefix, _, _ := strings.Cut(cols[0], "_")
		switch {
		case layout.Chrom >= 0:
			chrom = cols[layout.Chrom]
		case genome.HasChrPrefix(idPrefix):
			chrom = idPrefix
		default:
			if pathChrom == "" {
				pathChrom = ChromFromPath(path)
			}
			chrom = pathChrom
		}

		pos, ref, alt := cols[layout.Pos], cols[layout.Ref], cols[layout.Alt]
		res.Index.Add(chrom, pos, ref, alt)

		if res.Lines <= 5 || res.Lines%sampleEvery == 0 {
			p.logger.Debug("sample legend variant",
				zap.Int("line", res.Lines),
				zap.String("chrom", chrom),
				zap.String("pos", pos),
				zap.String("ref", ref),
				zap.String("alt", alt))
		}
	}

	p.logger.Info("finished processing legend file",
		zap.Int("lines", res.Lines),
		zap.Int("variants", res.Index.Len()),
		zap.Int("skipped", res.Index.Skipped()))
	return res, nil
}

// Package vcf provides in-process VCF reading for build detection and SNP
// extraction.
package vcf

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/brentp/vcfgo"
	"github.com/klauspost/compress/gzip"
)

// minFields is the number of fixed columns every data line must carry.
const minFields = 8

// Parser reads header lines and variant records from a VCF file.
// Malformed data lines are skipped and counted.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	src        *errReader
	lines      *lineFilter
	records    *vcfgo.Reader
	lineNumber int
	header     []string
	skipped    int
}

// NewParser creates a new VCF parser for the given file.
// Supports both plain VCF and gzipped/bgzipped VCF (.vcf.gz) files.
func NewParser(path string) (*Parser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	br := bufio.NewReader(file)

	// Check for gzip magic number (0x1f, 0x8b)
	magic, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		file.Close()
		return nil, fmt.Errorf("read vcf header: %w", err)
	}

	var (
		src io.Reader = br
		gz  *gzip.Reader
	)
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err = gzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		src = gz
	}

	p, err := NewParserFromReader(src)
	if err != nil {
		if gz != nil {
			gz.Close()
		}
		file.Close()
		return nil, err
	}
	p.file = file
	p.gzipReader = gz
	return p, nil
}

// NewParserFromReader creates a parser reading an uncompressed VCF stream.
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{src: &errReader{r: r}}
	p.reader = bufio.NewReader(p.src)

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// parseHeader reads and stores VCF header lines, then hands the header and
// the filtered data lines to the record reader.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return fmt.Errorf("read header: %w", err)
			}
			if line == "" {
				break
			}
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")

		if strings.HasPrefix(line, "##") {
			p.header = append(p.header, line)
			continue
		}

		if strings.HasPrefix(line, "#CHROM") {
			p.header = append(p.header, line)

			p.lines = &lineFilter{src: p.reader, skipped: &p.skipped}
			headerText := strings.Join(p.header, "\n") + "\n"
			records, err := vcfgo.NewReader(io.MultiReader(strings.NewReader(headerText), p.lines), true)
			if err != nil {
				return &ParseError{Line: p.lineNumber, Message: fmt.Sprintf("invalid header: %v", err)}
			}
			p.records = records
			return nil
		}

		// Non-header line encountered without #CHROM
		return &ParseError{
			Line:    p.lineNumber,
			Message: "expected #CHROM header line",
		}
	}

	return &ParseError{
		Line:    p.lineNumber,
		Message: "no #CHROM header line found",
	}
}

// Next reads the next variant from the VCF file.
// Returns nil, nil when there are no more variants.
func (p *Parser) Next() (*Variant, error) {
	for {
		rec := p.records.Read()
		if rec == nil {
			if err := p.src.err; err != nil {
				return nil, fmt.Errorf("read variant line: %w", err)
			}
			return nil, nil
		}
		if p.records.Error() != nil {
			p.records.Clear()
			p.skipped++
			continue
		}

		return &Variant{
			Chrom: rec.Chromosome,
			Pos:   int64(rec.Pos),
			ID:    rec.Id(),
			Ref:   rec.Reference,
			Alts:  rec.Alternate,
		}, nil
	}
}

// HeaderText returns the header lines joined with newlines.
func (p *Parser) HeaderText() string {
	return strings.Join(p.header, "\n")
}

// Skipped returns the number of malformed data lines dropped so far.
func (p *Parser) Skipped() int {
	return p.skipped
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}

// lineFilter passes through data lines that have every fixed column and a
// numeric position. Other lines are dropped and counted.
type lineFilter struct {
	src     *bufio.Reader
	pending []byte
	skipped *int
	done    bool
}

func (f *lineFilter) Read(b []byte) (int, error) {
	for len(f.pending) == 0 {
		if f.done {
			return 0, io.EOF
		}
		line, err := f.src.ReadBytes('\n')
		if err != nil {
			// errReader keeps any read failure for Next to report.
			f.done = true
			if !errors.Is(err, io.EOF) {
				continue
			}
		}
		if len(line) == 0 {
			continue
		}
		if !validLine(line) {
			*f.skipped++
			continue
		}
		if line[len(line)-1] != '\n' {
			line = append(line, '\n')
		}
		f.pending = line
	}
	n := copy(b, f.pending)
	f.pending = f.pending[n:]
	return n, nil
}

func validLine(line []byte) bool {
	line = bytes.TrimRight(line, "\r\n")
	fields := bytes.SplitN(line, []byte{'\t'}, minFields+1)
	if len(fields) < minFields || len(fields[minFields-1]) == 0 {
		return false
	}
	_, err := strconv.ParseUint(string(fields[1]), 10, 64)
	return err == nil
}

// errReader remembers the first non-EOF read error, which the record
// reader would otherwise treat as end of input.
type errReader struct {
	r   io.Reader
	err error
}

func (e *errReader) Read(b []byte) (int, error) {
	n, err := e.r.Read(b)
	if err != nil && !errors.Is(err, io.EOF) && e.err == nil {
		e.err = err
	}
	return n, err
}

package legend

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Open opens a plain or gzip-compressed text file. Compression is detected
// from the gzip magic bytes, not the file extension.
func Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open legend file: %w", err)
	}

	br := bufio.NewReader(file)
	magic, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		file.Close()
		return nil, fmt.Errorf("read legend header: %w", err)
	}

	// Check for gzip magic number (0x1f, 0x8b)
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return &gzipFile{Reader: gz, file: file}, nil
	}
	return &plainFile{Reader: br, file: file}, nil
}

type plainFile struct {
	*bufio.Reader
	file *os.File
}

func (p *plainFile) Close() error { return p.file.Close() }

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	g.Reader.Close()
	return g.file.Close()
}

// lineSource reads lines with a single push-back slot, so the first line
// can be inspected and then handed back as data.
type lineSource struct {
	reader     *bufio.Reader
	pending    *string
	lineNumber int
}

func newLineSource(r io.Reader) *lineSource {
	return &lineSource{reader: bufio.NewReader(r)}
}

// next returns the next line without its trailing newline, or io.EOF.
func (s *lineSource) next() (string, error) {
	if s.pending != nil {
		line := *s.pending
		s.pending = nil
		return line, nil
	}

	line, err := s.reader.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		if line == "" {
			return "", io.EOF
		}
	}
	s.lineNumber++
	return strings.TrimRight(line, "\r\n"), nil
}

// unread pushes line back; the next call to next returns it.
func (s *lineSource) unread(line string) {
	s.pending = &line
}

package query

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// queryFormat is passed to "bcftools query -f"; bcftools expands the
// escapes itself.
const queryFormat = `%CHROM\t%POS\t%REF\t%ALT\n`

// Bcftools runs the bcftools executable as a subprocess.
type Bcftools struct {
	path   string
	logger *zap.Logger
}

// NewBcftools creates a tool running the bcftools binary at path (looked up
// in PATH when it has no separator).
func NewBcftools(path string) *Bcftools {
	if path == "" {
		path = "bcftools"
	}
	return &Bcftools{path: path, logger: zap.NewNop()}
}

// SetLogger sets the logger for command tracing.
func (b *Bcftools) SetLogger(l *zap.Logger) {
	b.logger = l
}

// Header returns the output of "bcftools view -h path".
func (b *Bcftools) Header(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, b.path, "view", "-h", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	b.logger.Debug("running command", zap.String("cmd", commandString(cmd)))
	if err := cmd.Run(); err != nil {
		return "", newCommandError(cmd, &stderr, err)
	}
	return stdout.String(), nil
}

// Query runs "bcftools view -v snps path | bcftools query -f ..." and
// streams the query output.
func (b *Bcftools) Query(ctx context.Context, path string) (Stream, error) {
	view := exec.CommandContext(ctx, b.path, "view", "-v", "snps", path)
	query := exec.CommandContext(ctx, b.path, "query", "-f", queryFormat, "-")

	s := &bcftoolsStream{view: view, query: query}
	view.Stderr = &s.viewErr
	query.Stderr = &s.queryErr

	viewOut, err := view.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create view pipe: %w", err)
	}
	query.Stdin = viewOut

	queryOut, err := query.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create query pipe: %w", err)
	}
	s.reader = bufio.NewReader(queryOut)

	b.logger.Info("running command",
		zap.String("cmd", commandString(view)+" | "+commandString(query)))

	if err := view.Start(); err != nil {
		return nil, newCommandError(view, &s.viewErr, err)
	}
	if err := query.Start(); err != nil {
		view.Process.Kill()
		view.Wait()
		return nil, newCommandError(query, &s.queryErr, err)
	}
	// The query child holds its own copy; ours would keep view alive if
	// query exits early.
	viewOut.Close()
	return s, nil
}

type bcftoolsStream struct {
	view, query       *exec.Cmd
	viewErr, queryErr bytes.Buffer
	reader            *bufio.Reader
	done              bool
	err               error
}

// Next returns the next query line. At end of output both processes are
// waited for, and a non-zero exit status from either is returned instead
// of io.EOF.
func (s *bcftoolsStream) Next() (string, error) {
	if s.done {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}

	line, err := s.reader.ReadString('\n')
	if err == nil || (errors.Is(err, io.EOF) && line != "") {
		return strings.TrimRight(line, "\r\n"), nil
	}

	s.done = true
	s.err = s.wait()
	if s.err == nil && !errors.Is(err, io.EOF) {
		s.err = fmt.Errorf("read query output: %w", err)
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

// wait reaps both processes and reports the first failure, upstream first.
func (s *bcftoolsStream) wait() error {
	queryWait := s.query.Wait()
	viewWait := s.view.Wait()
	if viewWait != nil {
		return newCommandError(s.view, &s.viewErr, viewWait)
	}
	if queryWait != nil {
		return newCommandError(s.query, &s.queryErr, queryWait)
	}
	return nil
}

// Close stops the subprocesses if the stream was not read to the end.
func (s *bcftoolsStream) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	s.query.Process.Kill()
	s.view.Process.Kill()
	s.query.Wait()
	s.view.Wait()
	return nil
}

func newCommandError(cmd *exec.Cmd, stderr *bytes.Buffer, err error) *CommandError {
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &CommandError{
		Command:  commandString(cmd),
		ExitCode: code,
		Stderr:   stderr.String(),
		Err:      err,
	}
}

func commandString(cmd *exec.Cmd) string {
	return strings.Join(cmd.Args, " ")
}

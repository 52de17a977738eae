// Package query extracts SNP records from VCF-family files.
//
// A Tool yields one line per SNP record formatted as
// "CHROM\tPOS\tREF\tALT[,ALT...]". Lines are streamed as they are produced;
// nothing is staged on disk.
package query

import (
	"context"
	"fmt"
	"strings"
)

// Tool names accepted by New.
const (
	ToolBcftools = "bcftools"
	ToolNative   = "native"
)

// Stream yields query lines. Next returns io.EOF once all records were read
// and the producer finished successfully.
type Stream interface {
	Next() (string, error)
	Close() error
}

// Tool reads VCF headers and SNP records.
type Tool interface {
	Header(ctx context.Context, path string) (string, error)
	Query(ctx context.Context, path string) (Stream, error)
}

// New returns the tool named by name. bcftoolsPath is only used by the
// bcftools tool.
func New(name, bcftoolsPath string) (Tool, error) {
	switch strings.ToLower(name) {
	case "", ToolBcftools:
		return NewBcftools(bcftoolsPath), nil
	case ToolNative:
		return NewNative(), nil
	default:
		return nil, fmt.Errorf("unknown query tool %q (want %s or %s)", name, ToolBcftools, ToolNative)
	}
}

// CommandError reports a query subprocess that exited unsuccessfully.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("error executing command %q (exit %d): %s", e.Command, e.ExitCode, msg)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

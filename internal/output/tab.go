// Package output writes reconciliation reports, the re-exported reference
// legend and the printed run summary.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/inodb/checkref/internal/genome"
)

// SwitchColumns is the header of the allele switch report.
var SwitchColumns = []string{"CHROM", "POS", "ALLELE_SWITCH"}

// MarkerFile is the name of the empty file written next to the outputs when
// builds disagree.
const MarkerFile = "BUILD_MISMATCH_DETECTED"

// mismatchComment replaces the data rows when builds disagree.
const mismatchComment = "# No results - genome build mismatch detected"

// SwitchWriter writes allele switch sites in tab-delimited format.
type SwitchWriter struct {
	w    *bufio.Writer
	rows int
}

// NewSwitchWriter creates a new switch report writer.
func NewSwitchWriter(w io.Writer) *SwitchWriter {
	return &SwitchWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the header line.
func (sw *SwitchWriter) WriteHeader() error {
	_, err := sw.w.WriteString(strings.Join(SwitchColumns, "\t") + "\n")
	return err
}

// Write writes one switched site as
// "<chrom>\t<pos>\t<targetRef>><targetAlt>|<refRef>><refAlt>".
// chrom is the display label, not the normalized one.
func (sw *SwitchWriter) Write(chrom, pos string, target, ref genome.Alleles) error {
	sw.rows++
	_, err := fmt.Fprintf(sw.w, "%s\t%s\t%s|%s\n", chrom, pos, target, ref)
	return err
}

// Rows returns the number of sites written.
func (sw *SwitchWriter) Rows() int {
	return sw.rows
}

// Flush flushes any buffered data to the underlying writer.
func (sw *SwitchWriter) Flush() error {
	return sw.w.Flush()
}

// WriteMismatchReport writes a switch report with no sites, only the header
// and a comment saying why.
func WriteMismatchReport(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	sw := NewSwitchWriter(f)
	if err := sw.WriteHeader(); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if _, err := sw.w.WriteString(mismatchComment + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := sw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}

// WriteMarker creates an empty marker file at path. Downstream tooling only
// checks for its existence.
func WriteMarker(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create marker: %w", err)
	}
	return f.Close()
}

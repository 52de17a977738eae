// Package gate inspects a finished run's summary and stops the surrounding
// workflow when the run reported a genome build mismatch.
package gate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/inodb/checkref/internal/output"
)

// TerminatedFile is written to the work directory when the workflow must
// stop.
const TerminatedFile = "WORKFLOW_TERMINATED"

const terminatedContent = output.MarkerFile + "\n"

const passMessage = "Build validation passed - continuing workflow"

// Verdict is the outcome of checking a summary.
type Verdict struct {
	Mismatch   bool
	MarkerPath string
}

// Check reports whether the summary at path mentions a build mismatch.
func Check(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("summary file %s not found: %w", path, err)
	}
	return strings.Contains(string(data), output.MismatchMarker), nil
}

// Run checks the summary at path. On a mismatch it prints the termination
// notice to w and writes TerminatedFile into workDir; otherwise it prints a
// pass message. Only an unreadable summary or marker is an error.
func Run(path, workDir string, w io.Writer) (Verdict, error) {
	mismatch, err := Check(path)
	if err != nil {
		return Verdict{}, err
	}
	if !mismatch {
		fmt.Fprintln(w, passMessage)
		return Verdict{}, nil
	}

	WriteBanner(w)
	if workDir == "" {
		workDir = "."
	}
	marker := filepath.Join(workDir, TerminatedFile)
	if err := os.WriteFile(marker, []byte(terminatedContent), 0644); err != nil {
		return Verdict{}, fmt.Errorf("write %s: %w", TerminatedFile, err)
	}
	return Verdict{Mismatch: true, MarkerPath: marker}, nil
}

// WriteBanner writes the workflow termination notice.
func WriteBanner(w io.Writer) {
	const width = 80
	line := strings.Repeat("═", width)
	center := func(s string) string {
		pad := width - len([]rune(s))
		left := pad / 2
		return "║" + strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left) + "║"
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "╔"+line+"╗")
	fmt.Fprintln(w, center("WORKFLOW TERMINATED"))
	fmt.Fprintln(w, center("Genome Build Mismatch Detected"))
	fmt.Fprintln(w, "╚"+line+"╝")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The CheckRef workflow has detected that your target VCF and reference legend")
	fmt.Fprintln(w, "files are using different genome builds (e.g., hg19 vs hg38).")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "This would produce incorrect allele switch detection results.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Please fix this by:")
	fmt.Fprintln(w, "• Using files with matching genome builds, OR")
	fmt.Fprintln(w, "• Converting one file to match the other using liftOver tools")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check the summary files in your output directory for detailed build information.")
	fmt.Fprintln(w)
}

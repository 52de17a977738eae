package output

import (
	"fmt"
	"io"
	"strings"
)

// MismatchMarker is the text downstream checks look for in a summary.
const MismatchMarker = "GENOME BUILD MISMATCH"

// Summary holds the aggregate counts of one reconciliation run.
type Summary struct {
	TargetVariants    int
	ReferenceVariants int
	Common            int

	Matched          int
	Switched         int
	Complement       int
	ComplementSwitch int
	Other            int

	ReportPath string
	LegendPath string
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// WriteSummary writes the results summary. Overlap percentages are relative
// to each input; class percentages are relative to the common sites.
func WriteSummary(w io.Writer, s Summary) {
	fmt.Fprintf(w, "\nResults Summary:\n")
	fmt.Fprintf(w, "Total variants in target VCF: %d\n", s.TargetVariants)
	fmt.Fprintf(w, "Total variants in reference: %d\n", s.ReferenceVariants)
	fmt.Fprintf(w, "Total variants at common positions: %d\n", s.Common)

	if s.TargetVariants > 0 {
		fmt.Fprintf(w, "Overlap with target VCF: %d/%d (%.2f%%)\n",
			s.Common, s.TargetVariants, percent(s.Common, s.TargetVariants))
	}
	if s.ReferenceVariants > 0 {
		fmt.Fprintf(w, "Overlap with reference: %d/%d (%.2f%%)\n",
			s.Common, s.ReferenceVariants, percent(s.Common, s.ReferenceVariants))
	}

	if s.Common > 0 {
		fmt.Fprintf(w, "Matched variants: %d (%.2f%%)\n", s.Matched, percent(s.Matched, s.Common))
		fmt.Fprintf(w, "Switched alleles (written to file): %d (%.2f%%)\n", s.Switched, percent(s.Switched, s.Common))
		fmt.Fprintf(w, "Complementary strand issues: %d (%.2f%%)\n", s.Complement, percent(s.Complement, s.Common))
		fmt.Fprintf(w, "Complement + switch issues: %d (%.2f%%)\n", s.ComplementSwitch, percent(s.ComplementSwitch, s.Common))
		fmt.Fprintf(w, "Other inconsistencies: %d (%.2f%%)\n", s.Other, percent(s.Other, s.Common))
	} else {
		fmt.Fprintf(w, "No common positions found between target and reference files.\n")
	}

	fmt.Fprintf(w, "Switched alleles written to file: %s\n", s.ReportPath)
	fmt.Fprintf(w, "Reference panel legend file created: %s\n", s.LegendPath)
	fmt.Fprintf(w, "Total variants in extracted legend: %d\n", s.ReferenceVariants)
	fmt.Fprintf(w, "Variants overlapping with target: %d\n", s.Common)
	fmt.Fprintf(w, "Variants unique to reference: %d\n", s.ReferenceVariants-s.Common)
}

// WriteMismatchBanner writes the build mismatch diagnostic block.
func WriteMismatchBanner(w io.Writer, targetBuild, referenceBuild string) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "%s DETECTED\n", MismatchMarker)
	fmt.Fprintf(w, "%s\n", rule)
	fmt.Fprintf(w, "Target VCF build:     %s\n", targetBuild)
	fmt.Fprintf(w, "Reference build:      %s\n", referenceBuild)
	fmt.Fprintf(w, "\nThis analysis cannot proceed because comparing variants between\n")
	fmt.Fprintf(w, "different genome builds will produce incorrect results.\n")
	fmt.Fprintf(w, "\nTo fix this issue:\n")
	fmt.Fprintf(w, "1. Ensure both files use the same genome build (hg19/GRCh37 OR hg38/GRCh38)\n")
	fmt.Fprintf(w, "2. Use liftOver or similar tools to convert between builds if needed\n")
	fmt.Fprintf(w, "3. Check file documentation to confirm the correct genome build\n")
	fmt.Fprintf(w, "\nWorkflow terminated to prevent incorrect analysis.\n")
	fmt.Fprintf(w, "%s\n", rule)
}

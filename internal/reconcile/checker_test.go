package reconcile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/checkref/internal/build"
	"github.com/inodb/checkref/internal/genome"
	"github.com/inodb/checkref/internal/legend"
	"github.com/inodb/checkref/internal/output"
	"github.com/inodb/checkref/internal/query"
)

// writeVCF writes a minimal VCF. Each record is "chrom\tpos\tref\talt".
func writeVCF(t *testing.T, dir, name, reference string, records ...string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("##fileformat=VCFv4.2\n")
	if reference != "" {
		b.WriteString("##reference=" + reference + "\n")
	}
	b.WriteString("#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n")
	for _, r := range records {
		f := strings.Split(r, "\t")
		b.WriteString(f[0] + "\t" + f[1] + "\t.\t" + f[2] + "\t" + f[3] + "\t.\tPASS\t.\n")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func writeText(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestChecker(out *bytes.Buffer) *Checker {
	c := NewChecker(query.NewNative(), genome.Normalizer{}, genome.KeepLast)
	c.SetOutput(out)
	return c
}

func readReport(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func runVCFPair(t *testing.T, target, reference string) (*Result, []string, string) {
	t.Helper()
	dir := t.TempDir()
	var out bytes.Buffer
	opts := Options{
		Target:    writeVCF(t, dir, "target.vcf", "GRCh38", target),
		Reference: writeVCF(t, dir, "reference.vcf", "GRCh38", reference),
		Output:    filepath.Join(dir, "switches.tsv"),
		WorkDir:   dir,
	}
	res, err := newTestChecker(&out).Run(context.Background(), opts)
	require.NoError(t, err)
	return res, readReport(t, opts.Output), out.String()
}

func TestRun_NotationCollision(t *testing.T) {
	res, report, summary := runVCFPair(t, "chr1\t100\tA\tG", "1\t100\tA\tG")

	assert.False(t, res.Mismatch)
	assert.Equal(t, 1, res.Common())
	assert.Equal(t, 1, res.Tally.Count(Match))
	assert.Equal(t, []string{"CHROM\tPOS\tALLELE_SWITCH"}, report)
	assert.Contains(t, summary, "Matched variants: 1 (100.00%)")
}

func TestRun_Switch(t *testing.T) {
	res, report, _ := runVCFPair(t, "chr1\t100\tA\tG", "chr1\t100\tG\tA")

	assert.Equal(t, 1, res.Tally.Count(Switch))
	assert.Equal(t, []string{"CHROM\tPOS\tALLELE_SWITCH", "chr1\t100\tA>G|G>A"}, report)
}

func TestRun_PalindromicSwitch(t *testing.T) {
	res, report, _ := runVCFPair(t, "chr1\t100\tA\tT", "chr1\t100\tT\tA")

	assert.Equal(t, 1, res.Tally.Count(Switch))
	assert.Zero(t, res.Tally.Count(Complement))
	assert.Equal(t, []string{"CHROM\tPOS\tALLELE_SWITCH", "chr1\t100\tA>T|T>A"}, report)
}

func TestRun_ComplementNotReported(t *testing.T) {
	res, report, summary := runVCFPair(t, "chr1\t100\tA\tG", "chr1\t100\tT\tC")

	assert.Equal(t, 1, res.Tally.Count(Complement))
	assert.Len(t, report, 1)
	assert.Contains(t, summary, "Complementary strand issues: 1 (100.00%)")
}

func TestRun_BuildMismatch(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	opts := Options{
		Target:    writeVCF(t, dir, "target.vcf", "GRCh38", "chr1\t100\tA\tG"),
		Reference: writeText(t, dir, "panel_hg19.legend", "id position a0 a1\nchr1_100_A_G 100 A G\n"),
		Output:    filepath.Join(dir, "switches.tsv"),
		Legend:    true,
		WorkDir:   dir,
	}

	res, err := newTestChecker(&out).Run(context.Background(), opts)
	require.NoError(t, err)

	assert.True(t, res.Mismatch)
	assert.Equal(t, build.HG38, res.TargetBuild)
	assert.Equal(t, build.HG19, res.ReferenceBuild)
	assert.Zero(t, res.Common())

	assert.Equal(t, []string{
		"CHROM\tPOS\tALLELE_SWITCH",
		"# No results - genome build mismatch detected",
	}, readReport(t, opts.Output))

	assert.Equal(t, filepath.Join(dir, output.MarkerFile), res.MarkerPath)
	assert.FileExists(t, res.MarkerPath)
	assert.NoFileExists(t, filepath.Join(dir, "panel_hg19_extracted.legend.gz"))
	assert.Contains(t, out.String(), "GENOME BUILD MISMATCH DETECTED")
}

func TestRun_Legend(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	legendText := "id position a0 a1\n" +
		"chr1_100_A_G 100 A G\n" +
		"chr1_200_C_T 200 T C\n" +
		"chr1_300 300 C\n" +
		"chr1_400_G_A 400 G A\n"
	opts := Options{
		Target: writeVCF(t, dir, "target.vcf", "",
			"1\t100\tA\tG",
			"1\t200\tC\tT",
			"1\t300\tC\tG"),
		Reference: writeText(t, dir, "panel.legend", legendText),
		Output:    filepath.Join(dir, "switches.tsv"),
		Legend:    true,
		WorkDir:   dir,
		KeepSites: true,
	}

	res, err := newTestChecker(&out).Run(context.Background(), opts)
	require.NoError(t, err)

	assert.False(t, res.Mismatch)
	assert.Equal(t, build.Unknown, res.TargetBuild)
	assert.Equal(t, build.Unknown, res.ReferenceBuild)

	// The short row at 300 is dropped, so only 100 and 200 are shared.
	assert.Equal(t, 3, res.TargetVariants)
	assert.Equal(t, 3, res.ReferenceVariants)
	assert.Equal(t, 2, res.Common())
	assert.Equal(t, 1, res.Tally.Count(Match))
	assert.Equal(t, 1, res.Tally.Count(Switch))

	// Target notation wins for display.
	assert.Equal(t, []string{"CHROM\tPOS\tALLELE_SWITCH", "1\t200\tC>T|T>C"}, readReport(t, opts.Output))

	require.Len(t, res.Sites, 2)
	assert.Equal(t, genome.Key{Chrom: "1", Pos: "100"}, res.Sites[0].Key)
	assert.Equal(t, "1", res.Sites[0].Chrom)
	assert.Equal(t, Switch, res.Sites[1].Class)

	assert.Equal(t, filepath.Join(dir, "panel_extracted.legend.gz"), res.LegendPath)
	assert.FileExists(t, res.LegendPath)
	assert.NoFileExists(t, filepath.Join(dir, output.MarkerFile))

	summary := out.String()
	assert.Contains(t, summary, "Total variants in extracted legend: 3")
	assert.Contains(t, summary, "Variants unique to reference: 1")
}

func TestRun_LegendMissing(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	opts := Options{
		Target:    writeVCF(t, dir, "target.vcf", "GRCh38", "chr1\t100\tA\tG"),
		Reference: filepath.Join(dir, "absent.legend.gz"),
		Output:    filepath.Join(dir, "switches.tsv"),
		Legend:    true,
		WorkDir:   dir,
	}

	_, err := newTestChecker(&out).Run(context.Background(), opts)
	var pe *legend.ParseError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_QueryFailure(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	opts := Options{
		Target:    writeVCF(t, dir, "target.vcf", "GRCh38", "chr1\t100\tA\tG"),
		Reference: filepath.Join(dir, "absent.vcf"),
		Output:    filepath.Join(dir, "switches.tsv"),
		WorkDir:   dir,
	}

	_, err := newTestChecker(&out).Run(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query reference")
}

func TestResult_Summary(t *testing.T) {
	res := &Result{TargetVariants: 10, ReferenceVariants: 20, ReportPath: "r.tsv", LegendPath: "l.gz"}
	res.Tally.Add(Match)
	res.Tally.Add(Other)
	res.Tally.Add(ComplementSwitch)

	s := res.Summary()
	assert.Equal(t, 3, s.Common)
	assert.Equal(t, 1, s.Matched)
	assert.Equal(t, 1, s.Other)
	assert.Equal(t, 1, s.ComplementSwitch)
	assert.Equal(t, "r.tsv", s.ReportPath)
}

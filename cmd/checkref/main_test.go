package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/checkref/internal/gate"
	"github.com/inodb/checkref/internal/output"
)

const targetVCF = "##fileformat=VCFv4.2\n" +
	"##reference=GRCh38\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
	"chr1\t100\t.\tA\tG\t.\tPASS\t.\n" +
	"chr1\t200\t.\tC\tT\t.\tPASS\t.\n"

const panelLegend = "id position a0 a1\n" +
	"chr1_100_A_G 100 A G\n" +
	"chr1_200_T_C 200 T C\n"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Setenv("HOME", t.TempDir())

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeInputs(t *testing.T, legendName string) (dir, target, legend string) {
	t.Helper()
	dir = t.TempDir()
	target = filepath.Join(dir, "target.vcf")
	legend = filepath.Join(dir, legendName)
	require.NoError(t, os.WriteFile(target, []byte(targetVCF), 0644))
	require.NoError(t, os.WriteFile(legend, []byte(panelLegend), 0644))
	return dir, target, legend
}

func TestCheck_Legend(t *testing.T) {
	dir, target, legend := writeInputs(t, "panel.legend")
	report := filepath.Join(dir, "switches.tsv")
	db := filepath.Join(dir, "runs.duckdb")

	out, err := execute(t, "check", target, legend, report,
		"--legend", "--query-tool", "native", "--workdir", dir,
		"--results-db", db, "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, out, "Total variants at common positions: 2")
	assert.Contains(t, out, "Switched alleles (written to file): 1 (50.00%)")

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Equal(t, "CHROM\tPOS\tALLELE_SWITCH\nchr1\t200\tC>T|T>C\n", string(data))
	assert.FileExists(t, filepath.Join(dir, "panel_extracted.legend.gz"))

	out, err = execute(t, "runs", db)
	require.NoError(t, err)
	assert.Contains(t, out, "RUN_ID")
	assert.Contains(t, out, target)
}

func TestCheckThenGate_Mismatch(t *testing.T) {
	dir, target, legend := writeInputs(t, "panel_hg19.legend")
	summary := filepath.Join(dir, "summary.txt")

	out, err := execute(t, "check", target, legend, filepath.Join(dir, "switches.tsv"),
		"--legend", "--query-tool", "native", "--workdir", dir,
		"--summary", summary, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "GENOME BUILD MISMATCH DETECTED")
	assert.FileExists(t, filepath.Join(dir, output.MarkerFile))

	out, err = execute(t, "gate", summary, "--workdir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "WORKFLOW TERMINATED")
	assert.FileExists(t, filepath.Join(dir, gate.TerminatedFile))
}

func TestGate_Pass(t *testing.T) {
	dir := t.TempDir()
	summary := filepath.Join(dir, "summary.txt")
	require.NoError(t, os.WriteFile(summary, []byte("Results Summary:\n"), 0644))

	out, err := execute(t, "gate", summary, "--workdir", dir)
	require.NoError(t, err)
	assert.Equal(t, "Build validation passed - continuing workflow\n", out)
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing arguments", []string{"check", "a.vcf"}},
		{"unknown flag", []string{"check", "--nope", "a", "b", "c"}},
		{"bad query tool", []string{"check", "a", "b", "c", "--query-tool", "plink"}},
		{"bad strip mode", []string{"check", "a", "b", "c", "--chrom-strip", "all"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			var ue *usageError
			assert.ErrorAs(t, err, &ue)
		})
	}
}

func TestGate_MissingSummary(t *testing.T) {
	_, err := execute(t, "gate", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)

	var ue *usageError
	assert.False(t, errors.As(err, &ue))
}

func TestConfigSet_NewFile(t *testing.T) {
	home := t.TempDir()
	viper.Reset()
	t.Setenv("HOME", home)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "set", "build.sample_rows", "50"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	data, err := os.ReadFile(filepath.Join(home, ".checkref.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "sample_rows: 50")
	assert.NotContains(t, string(data), "query")
	assert.NotContains(t, string(data), "log")
}

func TestConfigSetGet(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "checkref.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("log:\n  level: info\n"), 0644))

	out, err := execute(t, "--config", cfg, "config", "set", "query.tool", "native")
	require.NoError(t, err)
	assert.Contains(t, out, "Set query.tool = native")

	data, err := os.ReadFile(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tool: native")
	assert.Contains(t, string(data), "level: info")
	assert.NotContains(t, string(data), "strip")
	assert.NotContains(t, string(data), "duplicates")
	assert.NotContains(t, string(data), "bcftools")

	out, err = execute(t, "--config", cfg, "config", "get", "query.tool")
	require.NoError(t, err)
	assert.Equal(t, "native\n", out)

	out, err = execute(t, "--config", cfg, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "tool: native")
}

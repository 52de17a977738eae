package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/checkref/internal/duckdb"
	"github.com/inodb/checkref/internal/genome"
	"github.com/inodb/checkref/internal/query"
	"github.com/inodb/checkref/internal/reconcile"
)

func newCheckCmd() *cobra.Command {
	var (
		useLegend bool
		workDir   string
		summary   string
		resultsDB string
	)

	cmd := &cobra.Command{
		Use:   "check [flags] <target.vcf> <reference> <output.tsv>",
		Short: "Compare a target VCF against a reference VCF or legend",
		Long: `Compare the SNPs of a target VCF with a reference panel and write every
site whose alleles are switched to <output.tsv>. The reference is re-exported
as <name>_extracted.legend.gz in the work directory.

If the two inputs use different genome builds, the report only holds a
comment, a BUILD_MISMATCH_DETECTED marker is written to the work directory
and the command still exits 0.`,
		Example: `  checkref check target.vcf.gz panel_chr7.legend.gz switches.tsv --legend
  checkref check target.vcf.gz reference.vcf.gz switches.tsv --query-tool native
  checkref check target.vcf ref.legend out.tsv --legend --summary summary.txt --results-db runs.duckdb`,
		Args: usageArgs(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := reconcile.Options{
				Target:    args[0],
				Reference: args[1],
				Output:    args[2],
				Legend:    useLegend,
				WorkDir:   workDir,
				KeepSites: resultsDB != "",
			}
			return runCheck(cmd, opts, summary, resultsDB)
		},
	}

	cmd.Flags().BoolVar(&useLegend, "legend", false, "Reference is a legend table instead of a VCF")
	cmd.Flags().StringVar(&workDir, "workdir", ".", "Directory for the extracted legend and marker files")
	cmd.Flags().StringVar(&summary, "summary", "", "Also write the printed summary to this file")
	cmd.Flags().StringVar(&resultsDB, "results-db", "", "Store the run and its classified sites in this DuckDB file")
	cmd.Flags().String("query-tool", query.ToolBcftools, "VCF reader: bcftools or native")
	cmd.Flags().String("bcftools", "bcftools", "bcftools executable")
	cmd.Flags().String("chrom-strip", genome.StripPrefix.String(), "Chromosome normalization: prefix or charset")
	cmd.Flags().String("duplicates", genome.KeepLast.String(), "Duplicate site tie-break: last or first")

	viper.BindPFlag("query.tool", cmd.Flags().Lookup("query-tool"))
	viper.BindPFlag("query.bcftools", cmd.Flags().Lookup("bcftools"))
	viper.BindPFlag("chrom.strip", cmd.Flags().Lookup("chrom-strip"))
	viper.BindPFlag("index.duplicates", cmd.Flags().Lookup("duplicates"))

	return cmd
}

func runCheck(cmd *cobra.Command, opts reconcile.Options, summary, resultsDB string) error {
	logger, err := newLogger(viper.GetString("log.level"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	mode, err := genome.ParseStripMode(viper.GetString("chrom.strip"))
	if err != nil {
		return &usageError{cmd: cmd, err: err}
	}
	policy, err := genome.ParseDuplicatePolicy(viper.GetString("index.duplicates"))
	if err != nil {
		return &usageError{cmd: cmd, err: err}
	}
	tool, err := query.New(viper.GetString("query.tool"), viper.GetString("query.bcftools"))
	if err != nil {
		return &usageError{cmd: cmd, err: err}
	}

	if err := os.MkdirAll(opts.WorkDir, 0755); err != nil {
		return fmt.Errorf("create work directory: %w", err)
	}

	out := cmd.OutOrStdout()
	if summary != "" {
		f, err := os.Create(summary)
		if err != nil {
			return fmt.Errorf("create summary file: %w", err)
		}
		defer f.Close()
		out = io.MultiWriter(out, f)
	}

	checker := reconcile.NewChecker(tool, genome.Normalizer{Mode: mode}, policy)
	checker.SetLogger(logger)
	checker.SetOutput(out)
	checker.SetHeuristic(viper.GetInt64("build.position_threshold"), viper.GetInt("build.sample_rows"))

	logger.Debug("configuration",
		zap.String("query_tool", viper.GetString("query.tool")),
		zap.Stringer("chrom_strip", mode),
		zap.Stringer("duplicates", policy))

	res, err := checker.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if resultsDB != "" {
		if err := storeRun(resultsDB, opts, res, logger); err != nil {
			return err
		}
	}
	return nil
}

func storeRun(path string, opts reconcile.Options, res *reconcile.Result, logger *zap.Logger) error {
	store, err := duckdb.Open(path)
	if err != nil {
		return fmt.Errorf("open results db: %w", err)
	}
	defer store.Close()

	run, err := duckdb.NewRun(opts, res)
	if err != nil {
		return err
	}
	if prev, err := store.FindRun(run.Target, run.Reference); err != nil {
		return err
	} else if prev != "" {
		logger.Info("inputs unchanged since an earlier run", zap.String("previous_run", prev))
	}

	if err := store.WriteRun(run); err != nil {
		return fmt.Errorf("store run: %w", err)
	}
	logger.Info("stored run",
		zap.String("db", path),
		zap.String("run_id", run.ID),
		zap.Int("sites", len(res.Sites)))
	return nil
}

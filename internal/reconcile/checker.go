package reconcile

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/inodb/checkref/internal/build"
	"github.com/inodb/checkref/internal/genome"
	"github.com/inodb/checkref/internal/legend"
	"github.com/inodb/checkref/internal/output"
	"github.com/inodb/checkref/internal/query"
)

// sampleCommon is the number of common sites logged before classification.
const sampleCommon = 5

// Options describes one reconciliation run.
type Options struct {
	Target    string // target VCF
	Reference string // reference VCF or legend table
	Output    string // switch report path
	Legend    bool   // Reference is a legend table
	WorkDir   string // marker and extracted legend directory, "." if empty
	KeepSites bool   // keep every classified site in Result.Sites
}

// Site is one classified common site.
type Site struct {
	Key       genome.Key
	Chrom     string // display label
	Target    genome.Alleles
	Reference genome.Alleles
	Class     Class
}

// Result is the outcome of a run.
type Result struct {
	TargetBuild    build.Label
	ReferenceBuild build.Label
	Mismatch       bool

	TargetVariants    int
	ReferenceVariants int
	Tally             Tally

	ReportPath string
	LegendPath string
	MarkerPath string

	Sites []Site
}

// Common returns the number of sites present in both inputs.
func (r *Result) Common() int {
	return r.Tally.Total()
}

// Summary converts the result to the printed summary form.
func (r *Result) Summary() output.Summary {
	return output.Summary{
		TargetVariants:    r.TargetVariants,
		ReferenceVariants: r.ReferenceVariants,
		Common:            r.Common(),
		Matched:           r.Tally.Count(Match),
		Switched:          r.Tally.Count(Switch),
		Complement:        r.Tally.Count(Complement),
		ComplementSwitch:  r.Tally.Count(ComplementSwitch),
		Other:             r.Tally.Count(Other),
		ReportPath:        r.ReportPath,
		LegendPath:        r.LegendPath,
	}
}

// Checker runs the build gate and the allele switch comparison.
type Checker struct {
	tool       query.Tool
	classifier *build.Classifier
	legends    *legend.Parser
	indexer    *genome.Indexer
	exporter   *output.LegendExporter
	out        io.Writer
	logger     *zap.Logger
}

// NewChecker creates a checker reading VCF files through tool.
func NewChecker(tool query.Tool, norm genome.Normalizer, policy genome.DuplicatePolicy) *Checker {
	return &Checker{
		tool:       tool,
		classifier: build.NewClassifier(tool),
		legends:    legend.NewParser(norm, policy),
		indexer:    genome.NewIndexer(norm, policy),
		exporter:   output.NewLegendExporter(),
		out:        io.Discard,
		logger:     zap.NewNop(),
	}
}

// SetLogger sets the logger on the checker and its components.
func (c *Checker) SetLogger(l *zap.Logger) {
	c.logger = l
	c.classifier.SetLogger(l)
	c.legends.SetLogger(l)
	c.indexer.SetLogger(l)
	c.exporter.SetLogger(l)
	if t, ok := c.tool.(interface{ SetLogger(*zap.Logger) }); ok {
		t.SetLogger(l)
	}
}

// SetOutput sets where the summary and the mismatch banner are printed.
func (c *Checker) SetOutput(w io.Writer) {
	c.out = w
}

// SetHeuristic configures the legend build heuristic.
func (c *Checker) SetHeuristic(threshold int64, rows int) {
	c.classifier.SetHeuristic(threshold, rows)
}

// Run compares opts.Target against opts.Reference. A build mismatch is not
// an error: the returned Result has Mismatch set and no sites.
func (c *Checker) Run(ctx context.Context, opts Options) (*Result, error) {
	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "."
	}
	c.logger.Info("checking allele switches",
		zap.String("target", opts.Target),
		zap.String("reference", opts.Reference))

	res := &Result{ReportPath: opts.Output}
	res.TargetBuild = c.classifier.ClassifyVCF(ctx, opts.Target)
	if opts.Legend {
		res.ReferenceBuild = c.classifier.ClassifyLegend(opts.Reference)
	} else {
		res.ReferenceBuild = c.classifier.ClassifyVCF(ctx, opts.Reference)
	}
	c.logger.Info("detected genome builds",
		zap.String("target", string(res.TargetBuild)),
		zap.String("reference", string(res.ReferenceBuild)))

	if build.Mismatch(res.TargetBuild, res.ReferenceBuild) {
		return c.stopOnMismatch(res, workDir)
	}
	if !res.TargetBuild.Known() || !res.ReferenceBuild.Known() {
		c.logger.Warn("could not definitively determine genome builds from file names/headers; "+
			"verify that both files use the same genome build, results may be incorrect if builds differ",
			zap.String("target", string(res.TargetBuild)),
			zap.String("reference", string(res.ReferenceBuild)))
	}

	target, err := c.queryIndex(ctx, "target", opts.Target)
	if err != nil {
		return nil, err
	}

	var ref *genome.Index
	if opts.Legend {
		lr, err := c.legends.ParseFile(opts.Reference)
		if err != nil {
			return nil, err
		}
		ref = lr.Index
	} else {
		ref, err = c.queryIndex(ctx, "reference", opts.Reference)
		if err != nil {
			return nil, err
		}
	}
	res.TargetVariants = target.Len()
	res.ReferenceVariants = ref.Len()

	notation := make(genome.Notation)
	notation.Merge(target.Notation())
	notation.Merge(ref.Notation())

	common := target.Intersect(ref)
	c.logger.Info("found variants at common positions", zap.Int("common", len(common)))
	for i := 0; i < len(common) && i < sampleCommon; i++ {
		k := common[i]
		ta, _ := target.Get(k)
		ra, _ := ref.Get(k)
		c.logger.Info("sample common position",
			zap.String("chrom", notation.Display(k.Chrom)),
			zap.String("pos", k.Pos),
			zap.String("target", ta.Ref+"/"+ta.Alt),
			zap.String("reference", ra.Ref+"/"+ra.Alt))
	}

	if err := c.classify(res, opts, target, ref, common, notation); err != nil {
		return nil, err
	}

	legendPath := filepath.Join(workDir, output.LegendName(opts.Reference))
	res.LegendPath, err = c.exporter.Export(legendPath, ref, notation)
	if err != nil {
		return nil, fmt.Errorf("export reference legend: %w", err)
	}

	output.WriteSummary(c.out, res.Summary())
	return res, nil
}

// classify tallies every common site and writes the switched ones to the
// report.
func (c *Checker) classify(res *Result, opts Options, target, ref *genome.Index, common []genome.Key, notation genome.Notation) error {
	f, err := os.Create(opts.Output)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	sw := output.NewSwitchWriter(f)
	if err := sw.WriteHeader(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if opts.KeepSites {
		res.Sites = make([]Site, 0, len(common))
	}

	for _, k := range common {
		ta, _ := target.Get(k)
		ra, _ := ref.Get(k)
		class := Classify(ta, ra)
		res.Tally.Add(class)

		chrom := notation.Display(k.Chrom)
		if class == Switch {
			if err := sw.Write(chrom, k.Pos, ta, ra); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
		}
		if opts.KeepSites {
			res.Sites = append(res.Sites, Site{Key: k, Chrom: chrom, Target: ta, Reference: ra, Class: class})
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}

// queryIndex streams the SNPs of a VCF through the query tool into an index.
func (c *Checker) queryIndex(ctx context.Context, name, path string) (*genome.Index, error) {
	c.logger.Info("extracting variants", zap.String("input", name), zap.String("path", path))
	stream, err := c.tool.Query(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer stream.Close()

	idx, err := c.indexer.Build(name, stream)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	return idx, nil
}

func (c *Checker) stopOnMismatch(res *Result, workDir string) (*Result, error) {
	res.Mismatch = true
	output.WriteMismatchBanner(c.out, string(res.TargetBuild), string(res.ReferenceBuild))

	if err := output.WriteMismatchReport(res.ReportPath); err != nil {
		return nil, err
	}
	res.MarkerPath = filepath.Join(workDir, output.MarkerFile)
	if err := output.WriteMarker(res.MarkerPath); err != nil {
		return nil, err
	}
	c.logger.Warn("genome build mismatch, reconciliation skipped",
		zap.String("target", string(res.TargetBuild)),
		zap.String("reference", string(res.ReferenceBuild)),
		zap.String("marker", res.MarkerPath))
	return res, nil
}

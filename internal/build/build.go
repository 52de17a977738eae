// Package build classifies variant files by genome build and decides whether
// two inputs come from incompatible coordinate systems.
package build

import (
	"bufio"
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/checkref/internal/legend"
)

// Label names a genome build.
type Label string

// Known build labels.
const (
	HG19       Label = "hg19"
	HG38       Label = "hg38"
	LikelyHG38 Label = "likely_hg38"
	Unknown    Label = "unknown"
)

// Defaults for the legend position heuristic.
const (
	DefaultPositionThreshold = 50000000
	DefaultSampleRows        = 10
)

// Known reports whether l is a definite or likely classification.
func (l Label) Known() bool {
	return l != Unknown && l != ""
}

// Family collapses likely_hg38 into hg38.
func (l Label) Family() Label {
	if l == LikelyHG38 {
		return HG38
	}
	return l
}

// Mismatch reports whether a and b are both known and belong to different
// build families. Argument order does not matter.
func Mismatch(a, b Label) bool {
	if !a.Known() || !b.Known() {
		return false
	}
	return a.Family() != b.Family()
}

// FromText looks for build names in free text such as a VCF header or a
// file name. GRCh38/hg38 is checked before GRCh37/hg19.
func FromText(text string) Label {
	switch {
	case strings.Contains(text, "GRCh38") || strings.Contains(text, "hg38"):
		return HG38
	case strings.Contains(text, "GRCh37") || strings.Contains(text, "hg19"):
		return HG19
	default:
		return Unknown
	}
}

// HeaderSource returns the header text of a VCF-family file.
type HeaderSource interface {
	Header(ctx context.Context, path string) (string, error)
}

// Classifier assigns build labels to input files.
type Classifier struct {
	headers    HeaderSource
	threshold  int64
	sampleRows int
	logger     *zap.Logger
}

// NewClassifier creates a classifier reading VCF headers through headers.
func NewClassifier(headers HeaderSource) *Classifier {
	return &Classifier{
		headers:    headers,
		threshold:  DefaultPositionThreshold,
		sampleRows: DefaultSampleRows,
		logger:     zap.NewNop(),
	}
}

// SetLogger sets the logger for diagnostic output.
func (c *Classifier) SetLogger(l *zap.Logger) {
	c.logger = l
}

// SetHeuristic overrides the legend position threshold and the number of
// data rows inspected. Non-positive values keep the current setting.
func (c *Classifier) SetHeuristic(threshold int64, rows int) {
	if threshold > 0 {
		c.threshold = threshold
	}
	if rows > 0 {
		c.sampleRows = rows
	}
}

// ClassifyVCF checks the header text, then the file name. It never fails:
// any error yields Unknown.
func (c *Classifier) ClassifyVCF(ctx context.Context, path string) Label {
	header, err := c.headers.Header(ctx, path)
	if err != nil {
		c.logger.Debug("could not read VCF header for build detection",
			zap.String("path", path), zap.Error(err))
		return Unknown
	}
	if l := FromText(header); l.Known() {
		return l
	}
	return FromText(filepath.Base(path))
}

// ClassifyLegend checks the file name, then falls back to a position
// heuristic over the first data rows.
func (c *Classifier) ClassifyLegend(path string) Label {
	name := filepath.Base(path)
	switch {
	case strings.Contains(name, "hg38") || strings.Contains(name, "GRCh38") || strings.Contains(name, "2025"):
		return HG38
	case strings.Contains(name, "hg19") || strings.Contains(name, "GRCh37"):
		return HG19
	}
	return c.positionHeuristic(path)
}

// positionHeuristic returns LikelyHG38 if any of the first rows has a third
// column position above the threshold. Large positions are more common in
// hg38 panels; this is a hint, not a guarantee.
func (c *Classifier) positionHeuristic(path string) Label {
	f, err := legend.Open(path)
	if err != nil {
		c.logger.Debug("could not open legend for build detection",
			zap.String("path", path), zap.Error(err))
		return Unknown
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	// Skip header
	if !scanner.Scan() {
		return Unknown
	}
	for i := 0; i < c.sampleRows && scanner.Scan(); i++ {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 3 {
			continue
		}
		pos, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			continue
		}
		if pos > c.threshold {
			return LikelyHG38
		}
	}
	return Unknown
}

package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/inodb/checkref/internal/genome"
)

// LegendColumns is the header of a re-exported legend.
var LegendColumns = []string{"ID", "CHROM", "POS", "REF", "ALT", "AAF_AFR", "AAF_ALL", "MAF_AFR", "MAF_ALL"}

// LegendName returns the file name of the re-exported legend for a
// reference file: the base name without ".legend.gz" or ".legend", plus
// "_extracted.legend.gz".
func LegendName(referencePath string) string {
	name := filepath.Base(referencePath)
	name = strings.ReplaceAll(name, ".legend.gz", "")
	name = strings.ReplaceAll(name, ".legend", "")
	return name + "_extracted.legend.gz"
}

// LegendExporter writes every site of a reference index as a legend table.
type LegendExporter struct {
	logger *zap.Logger
}

// NewLegendExporter creates a legend exporter.
func NewLegendExporter() *LegendExporter {
	return &LegendExporter{logger: zap.NewNop()}
}

// SetLogger sets the logger for diagnostic output.
func (e *LegendExporter) SetLogger(l *zap.Logger) {
	e.logger = l
}

// Export writes idx sorted by key to path, gzip-compressed. If the
// compressed write fails, the table is written uncompressed to path
// without its ".gz" suffix. It returns the path actually written.
func (e *LegendExporter) Export(path string, idx *genome.Index, notation genome.Notation) (string, error) {
	err := writeFile(path, func(w io.Writer) error {
		zw := gzip.NewWriter(w)
		if err := writeLegend(zw, idx, notation); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	})
	if err == nil {
		e.logger.Info("created reference legend file", zap.String("path", path))
		return path, nil
	}
	e.logger.Warn("error creating reference legend file", zap.String("path", path), zap.Error(err))

	plain := strings.TrimSuffix(path, ".gz")
	if err := writeFile(plain, func(w io.Writer) error {
		return writeLegend(w, idx, notation)
	}); err != nil {
		return "", fmt.Errorf("write uncompressed legend %s: %w", plain, err)
	}
	e.logger.Info("created uncompressed reference legend file", zap.String("path", plain))
	return plain, nil
}

// writeLegend writes the header and one row per key. The synthesized ID is
// "<chrom>:<pos>:<ref>:<alt>"; frequency columns hold ".".
func writeLegend(w io.Writer, idx *genome.Index, notation genome.Notation) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(LegendColumns, "\t") + "\n"); err != nil {
		return err
	}
	for _, k := range idx.Keys() {
		a, _ := idx.Get(k)
		chrom := notation.Display(k.Chrom)
		if _, err := fmt.Fprintf(bw, "%s:%s:%s:%s\t%s\t%s\t%s\t%s\t.\t.\t.\t.\n",
			chrom, k.Pos, a.Ref, a.Alt,
			chrom, k.Pos, a.Ref, a.Alt); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

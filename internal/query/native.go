package query

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/inodb/checkref/internal/vcf"
)

// Native reads VCF files in-process, for hosts without bcftools.
type Native struct {
	logger *zap.Logger
}

// NewNative creates an in-process tool.
func NewNative() *Native {
	return &Native{logger: zap.NewNop()}
}

// SetLogger sets the logger for skipped-line reports.
func (n *Native) SetLogger(l *zap.Logger) {
	n.logger = l
}

// Header returns the "##" and "#CHROM" header lines.
func (n *Native) Header(ctx context.Context, path string) (string, error) {
	p, err := vcf.NewParser(path)
	if err != nil {
		return "", err
	}
	defer p.Close()
	return p.HeaderText(), nil
}

// Query streams SNP records of the VCF at path.
func (n *Native) Query(ctx context.Context, path string) (Stream, error) {
	p, err := vcf.NewParser(path)
	if err != nil {
		return nil, err
	}
	return &nativeStream{ctx: ctx, parser: p, path: path, logger: n.logger}, nil
}

type nativeStream struct {
	ctx    context.Context
	parser *vcf.Parser
	path   string
	logger *zap.Logger
}

func (s *nativeStream) Next() (string, error) {
	for {
		if err := s.ctx.Err(); err != nil {
			return "", err
		}
		v, err := s.parser.Next()
		if err != nil {
			return "", err
		}
		if v == nil {
			return "", io.EOF
		}
		if v.IsSNP() {
			return v.QueryLine(), nil
		}
	}
}

func (s *nativeStream) Close() error {
	if n := s.parser.Skipped(); n > 0 {
		s.logger.Warn("skipped malformed VCF lines", zap.String("path", s.path), zap.Int("lines", n))
	}
	return s.parser.Close()
}

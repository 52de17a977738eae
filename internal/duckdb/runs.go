package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/checkref/internal/reconcile"
)

// Run is one reconciliation run ready to be stored.
type Run struct {
	ID        string
	CreatedAt time.Time
	Target    FileFingerprint
	Reference FileFingerprint
	Legend    bool
	Result    *reconcile.Result
}

// NewRun fingerprints the inputs of opts and assigns a fresh run ID.
func NewRun(opts reconcile.Options, res *reconcile.Result) (Run, error) {
	target, err := StatFile(opts.Target)
	if err != nil {
		return Run{}, fmt.Errorf("fingerprint target: %w", err)
	}
	ref, err := StatFile(opts.Reference)
	if err != nil {
		return Run{}, fmt.Errorf("fingerprint reference: %w", err)
	}
	return Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Target:    target,
		Reference: ref,
		Legend:    opts.Legend,
		Result:    res,
	}, nil
}

// RunSummary is a stored run without its sites.
type RunSummary struct {
	ID                string
	CreatedAt         time.Time
	Target            FileFingerprint
	Reference         FileFingerprint
	Legend            bool
	TargetBuild       string
	ReferenceBuild    string
	Mismatch          bool
	TargetVariants    int64
	ReferenceVariants int64
	Common            int64
}

// WriteRun inserts the run row and bulk-appends its sites using the
// Appender API. Both happen in one transaction, so a failed append leaves
// no run behind.
func (s *Store) WriteRun(run Run) error {
	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN TRANSACTION"); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := writeRun(ctx, conn, run); err != nil {
		if _, rbErr := conn.ExecContext(ctx, "ROLLBACK"); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

func writeRun(ctx context.Context, conn *sql.Conn, run Run) error {
	res := run.Result
	t := res.Tally
	if _, err := conn.ExecContext(ctx, `INSERT INTO runs VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt,
		run.Target.Path, run.Target.Size, run.Target.ModTime,
		run.Reference.Path, run.Reference.Size, run.Reference.ModTime,
		run.Legend, string(res.TargetBuild), string(res.ReferenceBuild), res.Mismatch,
		int64(res.TargetVariants), int64(res.ReferenceVariants),
		int64(t.Count(reconcile.Match)), int64(t.Count(reconcile.Switch)),
		int64(t.Count(reconcile.Complement)), int64(t.Count(reconcile.ComplementSwitch)),
		int64(t.Count(reconcile.Other)),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(res.Sites) == 0 {
		return nil
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "site_classes")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}

	for _, site := range res.Sites {
		if err := appender.AppendRow(
			run.ID, site.Key.Chrom, site.Key.Pos, site.Chrom,
			site.Target.Ref, site.Target.Alt,
			site.Reference.Ref, site.Reference.Alt,
			site.Class.String(),
		); err != nil {
			appender.Close()
			return fmt.Errorf("append site: %w", err)
		}
	}

	if err := appender.Close(); err != nil {
		return fmt.Errorf("flush sites: %w", err)
	}
	return nil
}

// Runs returns all stored runs, oldest first.
func (s *Store) Runs() ([]RunSummary, error) {
	rows, err := s.db.Query(`SELECT
		run_id, created_at,
		target_path, target_size, target_mtime,
		reference_path, reference_size, reference_mtime,
		legend, target_build, reference_build, mismatch,
		target_variants, reference_variants,
		matched + switched + complement + complement_switch + other
		FROM runs
		ORDER BY created_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(
			&r.ID, &r.CreatedAt,
			&r.Target.Path, &r.Target.Size, &r.Target.ModTime,
			&r.Reference.Path, &r.Reference.Size, &r.Reference.ModTime,
			&r.Legend, &r.TargetBuild, &r.ReferenceBuild, &r.Mismatch,
			&r.TargetVariants, &r.ReferenceVariants, &r.Common,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Sites returns the stored sites of a run, sorted by key.
func (s *Store) Sites(runID string) ([]reconcile.Site, error) {
	rows, err := s.db.Query(`SELECT
		chrom, pos, display_chrom,
		target_ref, target_alt, reference_ref, reference_alt, class
		FROM site_classes
		WHERE run_id=?
		ORDER BY chrom, pos`, runID)
	if err != nil {
		return nil, fmt.Errorf("query sites: %w", err)
	}
	defer rows.Close()

	var sites []reconcile.Site
	for rows.Next() {
		var (
			site  reconcile.Site
			class string
		)
		if err := rows.Scan(
			&site.Key.Chrom, &site.Key.Pos, &site.Chrom,
			&site.Target.Ref, &site.Target.Alt,
			&site.Reference.Ref, &site.Reference.Alt, &class,
		); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		if site.Class, err = reconcile.ParseClass(class); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sites: %w", err)
	}
	return sites, nil
}

// ClassCounts returns the stored per-class counts of a run. The counts come
// from the runs table, so they are available even when no sites were kept.
func (s *Store) ClassCounts(runID string) (reconcile.Tally, error) {
	var (
		tally  reconcile.Tally
		counts [5]int64
	)
	err := s.db.QueryRow(`SELECT matched, switched, complement, complement_switch, other
		FROM runs WHERE run_id=?`, runID).
		Scan(&counts[0], &counts[1], &counts[2], &counts[3], &counts[4])
	if err != nil {
		return tally, fmt.Errorf("query class counts: %w", err)
	}
	for i, c := range reconcile.Classes() {
		tally[c] = int(counts[i])
	}
	return tally, nil
}

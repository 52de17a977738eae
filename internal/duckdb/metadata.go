package duckdb

import (
	"fmt"
	"os"
	"time"
)

// FileFingerprint identifies an input file by path, size and modification
// time.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime().UTC().Truncate(time.Microsecond),
	}, nil
}

// Same reports whether both fingerprints describe the same file content
// version. Timestamps are compared at the microsecond precision DuckDB
// stores.
func (f FileFingerprint) Same(o FileFingerprint) bool {
	return f.Path == o.Path && f.Size == o.Size &&
		f.ModTime.Truncate(time.Microsecond).Equal(o.ModTime.Truncate(time.Microsecond))
}

// FindRun returns the ID of the latest stored run over the same inputs, or
// "" if there is none.
func (s *Store) FindRun(target, reference FileFingerprint) (string, error) {
	runs, err := s.Runs()
	if err != nil {
		return "", fmt.Errorf("find run: %w", err)
	}
	for i := len(runs) - 1; i >= 0; i-- {
		if runs[i].Target.Same(target) && runs[i].Reference.Same(reference) {
			return runs[i].ID, nil
		}
	}
	return "", nil
}

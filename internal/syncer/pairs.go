package syncer

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/stubdoc/stubdoc/internal/pkg/errors"
)

// Pair is a source file and the stub it feeds.
type Pair struct {
	Source string
	Target string
}

// Pairs walks sourceDir and matches every source file against the stub at
// the same relative path in stubDir, with the stub extension. Sources
// without a counterpart are returned separately, not treated as errors.
func (s *Syncer) Pairs(sourceDir, stubDir string) ([]Pair, []string, error) {
	var (
		pairs   []Pair
		skipped []string
	)

	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) != s.cfg.SourceExt {
			return nil
		}

		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}

		stub := filepath.Join(stubDir, s.StubName(rel))
		if _, err := os.Stat(stub); err != nil {
			if os.IsNotExist(err) {
				skipped = append(skipped, path)
				return nil
			}
			return err
		}

		pairs = append(pairs, Pair{Source: path, Target: stub})
		return nil
	})
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeIO, "walking source directory", err).WithDetail("dir", sourceDir)
	}

	return pairs, skipped, nil
}

// StubName converts a source-relative path to its stub counterpart.
func (s *Syncer) StubName(rel string) string {
	return strings.TrimSuffix(rel, s.cfg.SourceExt) + s.cfg.StubExt
}

// SourceExt returns the configured source file extension.
func (s *Syncer) SourceExt() string {
	return s.cfg.SourceExt
}

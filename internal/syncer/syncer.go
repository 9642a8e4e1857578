// Package syncer orchestrates docstring synchronization across file pairs.
package syncer

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"

	"github.com/stubdoc/stubdoc/internal/config"
	"github.com/stubdoc/stubdoc/internal/docsync"
	apperrors "github.com/stubdoc/stubdoc/internal/pkg/errors"
	"github.com/stubdoc/stubdoc/internal/pkg/logger"
)

// Syncer applies the docsync engine to files on disk.
type Syncer struct {
	engine *docsync.Engine
	cfg    config.SyncConfig
	log    *logger.Logger
}

// New creates a syncer around the given engine.
func New(engine *docsync.Engine, cfg config.SyncConfig, log *logger.Logger) *Syncer {
	return &Syncer{
		engine: engine,
		cfg:    cfg,
		log:    log,
	}
}

// Options control how file results are produced and written.
type Options struct {
	// DryRun computes results without writing anything.
	DryRun bool
	// Diff attaches a unified diff to each result.
	Diff bool
	// Output redirects the rewritten text to this path instead of
	// overwriting the target. Only meaningful for single-file syncs.
	Output string
}

// FileResult reports the outcome of syncing one source/stub pair.
type FileResult struct {
	SourcePath  string
	TargetPath  string
	Changed     bool
	Diagnostics []docsync.Diagnostic
	Diff        string
}

// DirResult aggregates a directory sync.
type DirResult struct {
	Results []*FileResult
	// Skipped lists source files with no stub counterpart.
	Skipped []string
}

// Changed counts pairs whose stub was modified.
func (r *DirResult) Changed() int {
	n := 0
	for _, fr := range r.Results {
		if fr.Changed {
			n++
		}
	}
	return n
}

// SyncFile synchronizes one stub from one source file.
func (s *Syncer) SyncFile(ctx context.Context, sourcePath, targetPath string, opts Options) (*FileResult, error) {
	sourceData, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIO, "reading source", err).WithDetail("file", sourcePath)
	}

	targetData, err := os.ReadFile(targetPath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIO, "reading stub", err).WithDetail("file", targetPath)
	}

	result, err := s.engine.Sync(ctx, sourceData, targetData)
	if err != nil {
		return nil, err
	}

	for _, d := range result.Diagnostics {
		s.log.WithFile(targetPath).WithAddress(d.Address).Warn("skipping declaration", "reason", d.Reason)
	}

	fr := &FileResult{
		SourcePath:  sourcePath,
		TargetPath:  targetPath,
		Changed:     result.Changed,
		Diagnostics: result.Diagnostics,
	}

	if opts.Diff {
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(targetData)),
			B:        difflib.SplitLines(string(result.Output)),
			FromFile: targetPath,
			ToFile:   targetPath,
			Context:  3,
		})
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, "computing diff", err)
		}
		fr.Diff = diff
	}

	if opts.DryRun {
		return fr, nil
	}

	outPath := targetPath
	if opts.Output != "" {
		outPath = opts.Output
	}
	if !result.Changed && outPath == targetPath {
		return fr, nil
	}

	if err := writeFilePreservingMode(outPath, targetPath, result.Output); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIO, "writing stub", err).WithDetail("file", outPath)
	}

	s.log.WithFile(outPath).Info("stub synchronized", "changed", result.Changed)
	return fr, nil
}

// SyncDir synchronizes every stub in stubDir from its counterpart in
// sourceDir, pairing files by relative path. Pairs run concurrently, bounded
// by the configured worker count; the first error aborts the run.
func (s *Syncer) SyncDir(ctx context.Context, sourceDir, stubDir string, opts Options) (*DirResult, error) {
	pairs, skipped, err := s.Pairs(sourceDir, stubDir)
	if err != nil {
		return nil, err
	}

	for _, src := range skipped {
		s.log.WithFile(src).Warn("no stub counterpart, skipping")
	}

	var (
		mu      sync.Mutex
		results []*FileResult
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for _, p := range pairs {
		p := p
		g.Go(func() error {
			fr, err := s.SyncFile(ctx, p.Source, p.Target, opts)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, fr)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].TargetPath < results[j].TargetPath
	})

	return &DirResult{Results: results, Skipped: skipped}, nil
}

func writeFilePreservingMode(outPath, origPath string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(origPath); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(outPath, data, mode)
}

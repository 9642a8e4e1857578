//go:build cgo

package syncer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stubdoc/stubdoc/internal/ast"
	"github.com/stubdoc/stubdoc/internal/docsync"
	"github.com/stubdoc/stubdoc/internal/pkg/logger"
)

const sourceCode = `"""Mod doc."""

def find():
    """Find doc."""
    return 1
`

const stubCode = `"""Mod doc."""

def find(): ...
`

const syncedStub = `"""Mod doc."""

def find():
    """Find doc."""
`

func newTestSyncer(t *testing.T) *Syncer {
	t.Helper()
	parser := ast.NewParser()
	if !parser.Available() {
		t.Skip("parser not available")
	}
	engine := docsync.NewEngine(parser, docsync.Options{Indent: "    "})
	return New(engine, testSyncConfig(), logger.New("error", "text"))
}

func TestSyncFile(t *testing.T) {
	s := newTestSyncer(t)
	dir := t.TempDir()

	sourcePath := filepath.Join(dir, "find.py")
	stubPath := filepath.Join(dir, "find.pyi")
	writeFile(t, sourcePath, sourceCode)
	writeFile(t, stubPath, stubCode)

	fr, err := s.SyncFile(context.Background(), sourcePath, stubPath, Options{})
	if err != nil {
		t.Fatalf("SyncFile() error = %v", err)
	}

	if !fr.Changed {
		t.Error("Changed = false, want true")
	}

	got, err := os.ReadFile(stubPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != syncedStub {
		t.Errorf("stub content = %q, want %q", got, syncedStub)
	}
}

func TestSyncFile_DryRun(t *testing.T) {
	s := newTestSyncer(t)
	dir := t.TempDir()

	sourcePath := filepath.Join(dir, "find.py")
	stubPath := filepath.Join(dir, "find.pyi")
	writeFile(t, sourcePath, sourceCode)
	writeFile(t, stubPath, stubCode)

	fr, err := s.SyncFile(context.Background(), sourcePath, stubPath, Options{DryRun: true, Diff: true})
	if err != nil {
		t.Fatalf("SyncFile() error = %v", err)
	}

	if !fr.Changed {
		t.Error("Changed = false, want true")
	}
	if fr.Diff == "" {
		t.Error("Diff is empty with Diff option set")
	}
	if !strings.Contains(fr.Diff, "+    \"\"\"Find doc.\"\"\"") {
		t.Errorf("Diff missing added docstring:\n%s", fr.Diff)
	}

	got, err := os.ReadFile(stubPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != stubCode {
		t.Error("dry run modified the stub file")
	}
}

func TestSyncFile_OutputPath(t *testing.T) {
	s := newTestSyncer(t)
	dir := t.TempDir()

	sourcePath := filepath.Join(dir, "find.py")
	stubPath := filepath.Join(dir, "find.pyi")
	outPath := filepath.Join(dir, "out.pyi")
	writeFile(t, sourcePath, sourceCode)
	writeFile(t, stubPath, stubCode)

	if _, err := s.SyncFile(context.Background(), sourcePath, stubPath, Options{Output: outPath}); err != nil {
		t.Fatalf("SyncFile() error = %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("output file not written: %v", err)
	}
	if string(got) != syncedStub {
		t.Errorf("output content = %q, want %q", got, syncedStub)
	}

	orig, _ := os.ReadFile(stubPath)
	if string(orig) != stubCode {
		t.Error("original stub modified despite output redirection")
	}
}

func TestSyncFile_MissingSource(t *testing.T) {
	s := newTestSyncer(t)
	dir := t.TempDir()

	stubPath := filepath.Join(dir, "find.pyi")
	writeFile(t, stubPath, stubCode)

	_, err := s.SyncFile(context.Background(), filepath.Join(dir, "missing.py"), stubPath, Options{})
	if err == nil {
		t.Fatal("SyncFile() succeeded with missing source")
	}
}

func TestSyncDir(t *testing.T) {
	s := newTestSyncer(t)
	sourceDir := t.TempDir()
	stubDir := t.TempDir()

	writeFile(t, filepath.Join(sourceDir, "a.py"), sourceCode)
	writeFile(t, filepath.Join(sourceDir, "pkg", "b.py"), sourceCode)
	writeFile(t, filepath.Join(sourceDir, "orphan.py"), sourceCode)

	writeFile(t, filepath.Join(stubDir, "a.pyi"), stubCode)
	writeFile(t, filepath.Join(stubDir, "pkg", "b.pyi"), stubCode)

	dr, err := s.SyncDir(context.Background(), sourceDir, stubDir, Options{})
	if err != nil {
		t.Fatalf("SyncDir() error = %v", err)
	}

	if len(dr.Results) != 2 {
		t.Fatalf("Results = %d, want 2", len(dr.Results))
	}
	if dr.Changed() != 2 {
		t.Errorf("Changed() = %d, want 2", dr.Changed())
	}
	if len(dr.Skipped) != 1 {
		t.Errorf("Skipped = %v, want one orphan", dr.Skipped)
	}

	for _, rel := range []string{"a.pyi", filepath.Join("pkg", "b.pyi")} {
		got, err := os.ReadFile(filepath.Join(stubDir, rel))
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", rel, err)
		}
		if string(got) != syncedStub {
			t.Errorf("%s content = %q, want %q", rel, got, syncedStub)
		}
	}
}

func TestSyncDir_AbortsOnFatalShape(t *testing.T) {
	s := newTestSyncer(t)
	sourceDir := t.TempDir()
	stubDir := t.TempDir()

	// Source without a docstring against a placeholder-only stub has no
	// defined rewrite rule; the directory run must fail.
	writeFile(t, filepath.Join(sourceDir, "bad.py"), "def f():\n    return 1\n")
	writeFile(t, filepath.Join(stubDir, "bad.pyi"), "def f():\n    ...\n")

	if _, err := s.SyncDir(context.Background(), sourceDir, stubDir, Options{}); err == nil {
		t.Fatal("SyncDir() succeeded, want body shape error")
	}
}

package syncer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stubdoc/stubdoc/internal/config"
	"github.com/stubdoc/stubdoc/internal/pkg/logger"
)

func testSyncConfig() config.SyncConfig {
	return config.SyncConfig{
		SourceExt:   ".py",
		StubExt:     ".pyi",
		IndentWidth: 4,
		Workers:     2,
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestPairs(t *testing.T) {
	sourceDir := t.TempDir()
	stubDir := t.TempDir()

	writeFile(t, filepath.Join(sourceDir, "find.py"), "x = 1\n")
	writeFile(t, filepath.Join(sourceDir, "pkg", "util.py"), "y = 2\n")
	writeFile(t, filepath.Join(sourceDir, "orphan.py"), "z = 3\n")
	writeFile(t, filepath.Join(sourceDir, "notes.txt"), "not python\n")

	writeFile(t, filepath.Join(stubDir, "find.pyi"), "x = 1\n")
	writeFile(t, filepath.Join(stubDir, "pkg", "util.pyi"), "y = 2\n")

	s := New(nil, testSyncConfig(), logger.New("error", "text"))

	pairs, skipped, err := s.Pairs(sourceDir, stubDir)
	if err != nil {
		t.Fatalf("Pairs() error = %v", err)
	}

	if len(pairs) != 2 {
		t.Fatalf("Pairs() = %v, want 2 pairs", pairs)
	}

	found := map[string]string{}
	for _, p := range pairs {
		rel, _ := filepath.Rel(sourceDir, p.Source)
		found[rel] = p.Target
	}
	if found["find.py"] != filepath.Join(stubDir, "find.pyi") {
		t.Errorf("find.py paired with %s", found["find.py"])
	}
	if found[filepath.Join("pkg", "util.py")] != filepath.Join(stubDir, "pkg", "util.pyi") {
		t.Errorf("pkg/util.py paired with %s", found[filepath.Join("pkg", "util.py")])
	}

	if len(skipped) != 1 || filepath.Base(skipped[0]) != "orphan.py" {
		t.Errorf("skipped = %v, want only orphan.py", skipped)
	}
}

func TestStubName(t *testing.T) {
	s := New(nil, testSyncConfig(), logger.New("error", "text"))

	tests := []struct {
		rel  string
		want string
	}{
		{"find.py", "find.pyi"},
		{filepath.Join("pkg", "util.py"), filepath.Join("pkg", "util.pyi")},
	}

	for _, tt := range tests {
		if got := s.StubName(tt.rel); got != tt.want {
			t.Errorf("StubName(%q) = %q, want %q", tt.rel, got, tt.want)
		}
	}
}

package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/stubdoc/stubdoc/internal/pkg/hash"
	"github.com/stubdoc/stubdoc/internal/pkg/logger"
	"github.com/stubdoc/stubdoc/internal/syncer"
)

// Watcher re-synchronizes stubs whenever their source files change.
type Watcher struct {
	sourceDir string
	stubDir   string
	syncer    *syncer.Syncer
	ignore    *IgnoreFilter

	// Batch processing
	pendingMu    sync.Mutex
	pendingFiles map[string]struct{}
	batchTimer   *time.Timer
	batchDelay   time.Duration

	// Sync storms (editor save-all, branch switches) are throttled.
	limiter *rate.Limiter

	// Last synced content hash per source file, to skip no-op events.
	hashMu     sync.Mutex
	lastHashes map[string]string

	// Stats
	fileCount int
	lastSync  time.Time

	// Lifecycle
	done chan struct{}
	log  *logger.Logger
}

// Config configures a watcher.
type Config struct {
	SourceDir         string
	StubDir           string
	Syncer            *syncer.Syncer
	BatchDelay        time.Duration // Default: 500ms
	MaxSyncsPerSecond float64       // Default: 10
	Burst             int           // Default: 20
	Log               *logger.Logger
}

// NewWatcher creates a watcher over a source directory.
func NewWatcher(cfg Config) (*Watcher, error) {
	if cfg.BatchDelay == 0 {
		cfg.BatchDelay = 500 * time.Millisecond
	}
	if cfg.MaxSyncsPerSecond == 0 {
		cfg.MaxSyncsPerSecond = 10
	}
	if cfg.Burst == 0 {
		cfg.Burst = 20
	}
	if cfg.Log == nil {
		cfg.Log = logger.Default()
	}

	ignore, err := NewIgnoreFilter(cfg.SourceDir)
	if err != nil {
		return nil, err
	}

	sourceDir, err := filepath.Abs(cfg.SourceDir)
	if err != nil {
		return nil, err
	}
	stubDir, err := filepath.Abs(cfg.StubDir)
	if err != nil {
		return nil, err
	}

	return &Watcher{
		sourceDir:    sourceDir,
		stubDir:      stubDir,
		syncer:       cfg.Syncer,
		ignore:       ignore,
		pendingFiles: make(map[string]struct{}),
		batchDelay:   cfg.BatchDelay,
		limiter:      rate.NewLimiter(rate.Limit(cfg.MaxSyncsPerSecond), cfg.Burst),
		lastHashes:   make(map[string]string),
		done:         make(chan struct{}),
		log:          cfg.Log,
	}, nil
}

// Start performs an initial full sync and then watches for changes until the
// context is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.log.Info("Starting watcher", "source", w.sourceDir, "stubs", w.stubDir)

	// Initial sync
	if err := w.initialSync(ctx); err != nil {
		w.log.Error("Initial sync failed", "error", err)
		return fmt.Errorf("initial sync failed: %w", err)
	}

	// Create fsnotify watcher
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsWatcher.Close()

	// Add directories recursively
	err = filepath.WalkDir(w.sourceDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.log.Warn("Error walking path", "path", path, "error", err)
			return filepath.SkipDir
		}
		if d.IsDir() {
			if w.ignore.ShouldIgnore(path) {
				return filepath.SkipDir
			}
			return fsWatcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	w.log.Info("Watching for changes", "source", w.sourceDir)

	// Event loop
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event, fsWatcher)
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("Watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event, fsWatcher *fsnotify.Watcher) {
	path := event.Name

	if w.ignore.ShouldIgnore(path) {
		return
	}

	// If it's a new directory, add it to the watcher
	if event.Has(fsnotify.Create) {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			fsWatcher.Add(path)
			return
		}
	}

	if filepath.Ext(path) != w.syncer.SourceExt() {
		return
	}

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.pendingFiles[path] = struct{}{}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// The stub keeps its last synced content; drop the hash so a
		// re-created source syncs again.
		w.hashMu.Lock()
		delete(w.lastHashes, path)
		w.hashMu.Unlock()
	}

	// Reset batch timer
	if w.batchTimer != nil {
		w.batchTimer.Stop()
	}
	w.batchTimer = time.AfterFunc(w.batchDelay, w.processBatch)
}

func (w *Watcher) processBatch() {
	w.pendingMu.Lock()
	files := make([]string, 0, len(w.pendingFiles))
	for path := range w.pendingFiles {
		files = append(files, path)
	}
	w.pendingFiles = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(files) == 0 {
		return
	}

	w.log.Info("Processing batch", "count", len(files))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	synced := 0
	for _, path := range files {
		if err := w.limiter.Wait(ctx); err != nil {
			w.log.Error("Rate limiter interrupted", "error", err)
			return
		}
		if w.syncOne(ctx, path) {
			synced++
		}
	}

	if synced > 0 {
		w.fileCount += synced
		w.lastSync = time.Now()
		w.saveStats()
		w.log.Info("Batch sync complete", "synced", synced)
	}
}

// saveStats refreshes the counters in this process's state file, if one was
// written at startup.
func (w *Watcher) saveStats() {
	state, err := LoadState(os.Getpid())
	if err != nil {
		return
	}
	state.FileCount = w.fileCount
	state.LastSync = w.lastSync
	if err := SaveState(state); err != nil {
		w.log.Warn("Failed to update watcher state", "error", err)
	}
}

// syncOne re-syncs the stub counterpart of one source file. Returns true
// when a sync ran.
func (w *Watcher) syncOne(ctx context.Context, path string) bool {
	content, err := os.ReadFile(path)
	if err != nil {
		w.log.WithFile(path).Warn("Failed to read source", "error", err)
		return false
	}

	// Skip events that did not change the content.
	sum := hash.SHA256(content)
	w.hashMu.Lock()
	last := w.lastHashes[path]
	w.lastHashes[path] = sum
	w.hashMu.Unlock()
	if sum == last {
		return false
	}

	rel, err := filepath.Rel(w.sourceDir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	stub := filepath.Join(w.stubDir, w.syncer.StubName(rel))
	if _, err := os.Stat(stub); err != nil {
		w.log.WithFile(path).Warn("No stub counterpart, skipping")
		return false
	}

	if _, err := w.syncer.SyncFile(ctx, path, stub, syncer.Options{}); err != nil {
		w.log.WithFile(stub).WithError(err).Error("Sync failed")
		return false
	}
	return true
}

func (w *Watcher) initialSync(ctx context.Context) error {
	w.log.Info("Performing initial sync...")

	result, err := w.syncer.SyncDir(ctx, w.sourceDir, w.stubDir, syncer.Options{})
	if err != nil {
		return err
	}

	for _, fr := range result.Results {
		content, err := os.ReadFile(fr.SourcePath)
		if err != nil {
			continue
		}
		w.hashMu.Lock()
		w.lastHashes[fr.SourcePath] = hash.SHA256(content)
		w.hashMu.Unlock()
	}

	w.fileCount = len(result.Results)
	w.lastSync = time.Now()
	w.saveStats()
	w.log.Info("Initial sync finished", "pairs", len(result.Results), "changed", result.Changed(), "skipped", len(result.Skipped))
	return nil
}

// Stop terminates the event loop.
func (w *Watcher) Stop() {
	close(w.done)
}

// Stats returns the number of synced files and the last sync time.
func (w *Watcher) Stats() (int, time.Time) {
	return w.fileCount, w.lastSync
}

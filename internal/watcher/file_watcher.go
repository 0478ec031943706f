package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is the quiet period before a batch of changes is reported.
const DefaultDebounce = 300 * time.Millisecond

// defaultSkipDirs are never watched.
var defaultSkipDirs = []string{".git", "__pycache__", "venv", ".venv", "node_modules", ".resgraph"}

// FileWatcher reports debounced batches of changed source files.
type FileWatcher interface {
	// Start begins watching, calling callback with each batch of changed
	// files (sorted, deduplicated). Start returns immediately.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops watching and waits for the event loop to exit. Safe to call
	// more than once.
	Stop() error
}

// Option configures a FileWatcher.
type Option func(*fileWatcher)

// WithDebounce sets the quiet period before a batch fires.
func WithDebounce(d time.Duration) Option {
	return func(fw *fileWatcher) {
		if d > 0 {
			fw.debounce = d
		}
	}
}

// WithLogger sets the logger used for watch errors.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(fw *fileWatcher) {
		fw.logger = logger
	}
}

// WithSkipDirs replaces the directory names that are never watched.
func WithSkipDirs(names ...string) Option {
	return func(fw *fileWatcher) {
		fw.skipDirs = make(map[string]bool, len(names))
		for _, n := range names {
			fw.skipDirs[n] = true
		}
	}
}

// fileWatcher implements FileWatcher on fsnotify.
type fileWatcher struct {
	watcher    *fsnotify.Watcher
	extensions map[string]bool
	skipDirs   map[string]bool
	debounce   time.Duration
	logger     logrus.FieldLogger
	callback   func(files []string)
	cancel     context.CancelFunc

	pendingMu sync.Mutex
	pending   map[string]bool // changed files since the last batch

	timerMu sync.Mutex
	timer   *time.Timer

	stopOnce sync.Once
	doneCh   chan struct{}
}

// NewFileWatcher watches dirs recursively for changes to files whose
// extension is in extensions (e.g. ".py").
func NewFileWatcher(dirs []string, extensions []string, opts ...Option) (FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &fileWatcher{
		watcher:    w,
		extensions: make(map[string]bool, len(extensions)),
		debounce:   DefaultDebounce,
		logger:     logrus.StandardLogger(),
		pending:    make(map[string]bool),
		doneCh:     make(chan struct{}),
	}
	for _, ext := range extensions {
		fw.extensions[ext] = true
	}
	WithSkipDirs(defaultSkipDirs...)(fw)
	for _, opt := range opts {
		opt(fw)
	}

	for _, dir := range dirs {
		if err := fw.addTree(dir); err != nil {
			w.Close()
			return nil, err
		}
	}
	return fw, nil
}

func (fw *fileWatcher) Start(ctx context.Context, callback func(files []string)) error {
	if callback == nil {
		return nil
	}
	fw.callback = callback

	ctx, fw.cancel = context.WithCancel(ctx)
	go fw.loop(ctx)
	return nil
}

func (fw *fileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		if fw.cancel != nil {
			fw.cancel()
			<-fw.doneCh
		} else {
			close(fw.doneCh)
		}
		err = fw.watcher.Close()
	})
	return err
}

func (fw *fileWatcher) loop(ctx context.Context) {
	defer close(fw.doneCh)

	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			fw.stopTimer()
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.addTree(event.Name); err != nil {
						fw.logger.WithField("dir", event.Name).WithError(err).Warn("failed to watch new directory")
					}
					continue
				}
			}
			if !fw.relevant(event) {
				continue
			}

			fw.pendingMu.Lock()
			fw.pending[event.Name] = true
			fw.pendingMu.Unlock()
			fw.resetTimer(fire)

		case <-fire:
			if files := fw.drain(); len(files) > 0 {
				fw.callback(files)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.WithError(err).Warn("file watcher error")
		}
	}
}

// drain returns the pending files in lexical order and clears them.
func (fw *fileWatcher) drain() []string {
	fw.pendingMu.Lock()
	defer fw.pendingMu.Unlock()

	files := make([]string, 0, len(fw.pending))
	for f := range fw.pending {
		files = append(files, f)
	}
	sort.Strings(files)
	fw.pending = make(map[string]bool)
	return files
}

func (fw *fileWatcher) resetTimer(fire chan struct{}) {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounce, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

func (fw *fileWatcher) stopTimer() {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.timer != nil {
		fw.timer.Stop()
		fw.timer = nil
	}
}

// relevant keeps writes, creates, removes and renames of watched extensions.
func (fw *fileWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return fw.extensions[filepath.Ext(event.Name)]
}

// addTree watches root and every directory under it, except skipped names.
func (fw *fileWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			fw.logger.WithField("path", path).WithError(err).Debug("skipping unreadable path")
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && fw.skipDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			fw.logger.WithField("dir", path).WithError(err).Warn("failed to watch directory")
		}
		return nil
	})
}

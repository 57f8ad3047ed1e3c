// Package library watches a music directory and keeps a probed track
// list ready for the shell to add from.
package library

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"aria/internal/track"
)

// Library monitors a directory tree for audio files.
type Library struct {
	root    string
	allowed map[string]struct{}
	watcher *fsnotify.Watcher
	log     *zap.Logger

	mu     sync.RWMutex
	tracks []*track.Track

	refreshMu    sync.Mutex
	refreshTimer *time.Timer
	refreshDelay time.Duration

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// New starts watching root and performs an initial scan.
func New(root string, allowed []string, debounce time.Duration, log *zap.Logger) (*Library, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	l := &Library{
		root:         root,
		allowed:      make(map[string]struct{}, len(allowed)),
		watcher:      watcher,
		log:          log,
		refreshDelay: debounce,
		done:         make(chan struct{}),
	}
	for _, ext := range allowed {
		l.allowed[strings.ToLower(ext)] = struct{}{}
	}

	l.addWatchRecursive(root)
	l.refresh()

	l.wg.Add(1)
	go l.run()
	return l, nil
}

// Close stops the watcher.
func (l *Library) Close() error {
	l.closeOnce.Do(func() {
		close(l.done)

		l.refreshMu.Lock()
		if l.refreshTimer != nil {
			l.refreshTimer.Stop()
			l.refreshTimer = nil
		}
		l.refreshMu.Unlock()

		l.closeErr = l.watcher.Close()
		l.wg.Wait()
	})
	return l.closeErr
}

// Tracks returns a snapshot of the scanned tracks, sorted by path.
func (l *Library) Tracks() []*track.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*track.Track, len(l.tracks))
	copy(out, l.tracks)
	return out
}

func (l *Library) run() {
	defer l.wg.Done()
	for {
		select {
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			l.handleEvent(event)
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.log.Warn("watcher error", zap.Error(err))
		case <-l.done:
			return
		}
	}
}

func (l *Library) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			l.addWatchRecursive(event.Name)
		}
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
		if l.isAllowed(event.Name) || event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
			l.scheduleRefresh()
		}
	}
}

func (l *Library) refresh() {
	var tracks []*track.Track

	filepath.WalkDir(l.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			l.log.Warn("walk error", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() || !l.isAllowed(path) {
			return nil
		}
		tracks = append(tracks, track.Probe(path, l.log))
		return nil
	})

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Path < tracks[j].Path })

	l.mu.Lock()
	l.tracks = tracks
	l.mu.Unlock()

	l.log.Info("library refreshed", zap.Int("tracks", len(tracks)))
}

func (l *Library) scheduleRefresh() {
	select {
	case <-l.done:
		return
	default:
	}

	l.refreshMu.Lock()
	defer l.refreshMu.Unlock()

	if l.refreshTimer != nil {
		l.refreshTimer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(l.refreshDelay, func() {
		l.refresh()

		l.refreshMu.Lock()
		if l.refreshTimer == timer {
			l.refreshTimer = nil
		}
		l.refreshMu.Unlock()
	})
	l.refreshTimer = timer
}

func (l *Library) addWatchRecursive(path string) {
	filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			l.log.Warn("walk error", zap.String("path", p), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			if err := l.watcher.Add(p); err != nil {
				l.log.Warn("watch add failed", zap.String("path", p), zap.Error(err))
			}
		}
		return nil
	})
}

func (l *Library) isAllowed(path string) bool {
	_, ok := l.allowed[strings.ToLower(filepath.Ext(path))]
	return ok
}

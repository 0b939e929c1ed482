// Package watch triggers incremental extraction when the transcript
// grows: fsnotify write events debounced against rapid bursts, with a
// poll ticker as fallback for filesystems that drop events.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tacit/wm/internal/extract"
	"github.com/tacit/wm/internal/state"
)

// Config tunes the watch loop. Zero values take the defaults below.
type Config struct {
	TranscriptPath string
	SessionID      string
	Debounce       time.Duration
	PollInterval   time.Duration
}

// Watcher drives extraction off transcript write activity.
type Watcher struct {
	cfg      Config
	notifier *fsnotify.Watcher
	lastSize int64
}

func New(cfg Config) (*Watcher, error) {
	if cfg.TranscriptPath == "" {
		return nil, fmt.Errorf("watch: transcript path required")
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = 2 * time.Second
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 30 * time.Second
	}

	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{cfg: cfg, notifier: notifier}, nil
}

func (w *Watcher) Close() error {
	return w.notifier.Close()
}

// Run blocks until the context is cancelled. The transcript's parent
// directory is watched rather than the file itself so rename-based
// rewrites keep delivering events.
func (w *Watcher) Run(ctx context.Context) error {
	dir := filepath.Dir(w.cfg.TranscriptPath)
	if err := w.notifier.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.lastSize = fileSize(w.cfg.TranscriptPath)

	state.Log("watch", fmt.Sprintf("Watching %s", w.cfg.TranscriptPath))
	fmt.Printf("Watching %s (poll every %s)\n", w.cfg.TranscriptPath, w.cfg.PollInterval)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			state.Log("watch", "Stopped")
			return nil

		case err := <-w.notifier.Errors:
			if err != nil {
				return err
			}

		case event := <-w.notifier.Events:
			if event.Name != w.cfg.TranscriptPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(w.cfg.Debounce)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(w.cfg.Debounce)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			w.trigger(ctx)

		case <-ticker.C:
			// Poll fallback: only trigger when the file grew and no
			// debounce is already pending.
			if fire != nil {
				continue
			}
			size := fileSize(w.cfg.TranscriptPath)
			if size != w.lastSize {
				w.trigger(ctx)
			}
		}
	}
}

func (w *Watcher) trigger(ctx context.Context) {
	w.lastSize = fileSize(w.cfg.TranscriptPath)
	state.Log("watch", "Transcript changed, extracting")
	if err := extract.RunBackground(ctx, w.cfg.TranscriptPath, w.cfg.SessionID); err != nil {
		state.Log("watch", fmt.Sprintf("Extraction failed: %v", err))
	}
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return -1
	}
	return info.Size()
}

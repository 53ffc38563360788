// Package watch re-runs a batch when its input files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"gopkg.in/fsnotify.v1"

	"github.com/coolbeans/billtrace/pkg/logger"
)

// DefaultDebounce is the quiet period after the last change before the
// callback runs.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc is invoked with the path of the last changed file.
type ChangeFunc func(ctx context.Context, changedPath string) error

// Watcher watches a fixed set of files. Directories are watched rather than
// the files themselves so that editors which replace a file on save are
// still seen.
type Watcher struct {
	files    map[string]struct{}
	debounce time.Duration
	onChange ChangeFunc
	watcher  *fsnotify.Watcher
	log      *slog.Logger
}

// New starts watching the directories that contain paths. A zero debounce
// uses DefaultDebounce.
func New(paths []string, debounce time.Duration, onChange ChangeFunc) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("no files to watch")
	}
	if onChange == nil {
		return nil, errors.New("no change callback")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	watcher := &Watcher{
		files:    make(map[string]struct{}, len(paths)),
		debounce: debounce,
		onChange: onChange,
		watcher:  fsWatcher,
		log:      logger.WithComponent("watch"),
	}

	directories := make(map[string]struct{})
	for _, path := range paths {
		absolutePath, err := filepath.Abs(path)
		if err != nil {
			fsWatcher.Close()
			return nil, fmt.Errorf("resolving %s: %w", path, err)
		}
		watcher.files[absolutePath] = struct{}{}

		directory := filepath.Dir(absolutePath)
		if _, seen := directories[directory]; seen {
			continue
		}
		if err := fsWatcher.Add(directory); err != nil {
			fsWatcher.Close()
			return nil, fmt.Errorf("watching directory %s: %w", directory, err)
		}
		directories[directory] = struct{}{}
	}

	return watcher, nil
}

// Run delivers debounced changes to the callback until ctx is done. Errors
// from the callback are logged and watching continues. Run closes the
// underlying watcher before returning.
func (watcher *Watcher) Run(ctx context.Context) error {
	defer watcher.watcher.Close()

	var (
		timer       *time.Timer
		timerFired  <-chan time.Time
		changedPath string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.watcher.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if !watcher.isWatched(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			changedPath = filepath.Clean(event.Name)
			if timer == nil {
				timer = time.NewTimer(watcher.debounce)
			} else {
				timer.Reset(watcher.debounce)
			}
			timerFired = timer.C

		case <-timerFired:
			timerFired = nil
			watcher.log.Info("change detected", "path", changedPath)
			if err := watcher.onChange(ctx, changedPath); err != nil {
				watcher.log.Error("re-run failed", "path", changedPath, "error", err)
			}

		case err, ok := <-watcher.watcher.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			watcher.log.Warn("watch error", "error", err)
		}
	}
}

func (watcher *Watcher) isWatched(eventPath string) bool {
	_, watched := watcher.files[filepath.Clean(eventPath)]
	return watched
}

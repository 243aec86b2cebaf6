package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// watchDebounce is how long the watcher waits for further changes before
// rendering again. Editors often write a file in several steps.
const watchDebounce = 200 * time.Millisecond

// fileWatcher reports changes to a fixed set of files. It watches their
// directories, so files replaced by rename (as most editors save) are still
// seen.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
	logger   *log.Logger
}

func newFileWatcher(files []string, debounce time.Duration, logger *log.Logger) (*fileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &fileWatcher{
		watcher:  w,
		files:    make(map[string]bool),
		debounce: debounce,
		logger:   logger,
	}
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			w.Close()
			return nil, err
		}
		fw.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, err
		}
	}
	return fw, nil
}

// run calls onChange once per burst of changes until ctx is done, then
// closes the watcher.
func (fw *fileWatcher) run(ctx context.Context, onChange func()) error {
	defer fw.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			if !fw.relevant(ev) {
				continue
			}
			fw.logger.Debug("configuration changed", "file", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(fw.debounce)
			} else {
				timer.Reset(fw.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onChange()
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			fw.logger.Warn("watch error", "error", err)
		}
	}
}

func (fw *fileWatcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	return err == nil && fw.files[abs]
}

package prompt

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads a persona file into a PersonaHolder whenever it changes.
type Watcher struct {
	path   string
	holder *PersonaHolder
	logger *zap.Logger
}

// NewWatcher creates a Watcher for path.
func NewWatcher(path string, holder *PersonaHolder, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{path: path, holder: holder, logger: logger}
}

// Run watches the persona file's directory until ctx is done. Editors often
// replace files instead of writing them in place, so Create and Rename
// events on the path also trigger a reload. A file that fails to parse is
// logged and the previous persona stays active.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating persona watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching persona dir: %w", err)
	}

	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("persona watcher error: %w", err)
		}
	}
}

func (w *Watcher) reload() {
	p, err := LoadPersona(w.path)
	if err != nil {
		w.logger.Warn("persona reload failed, keeping previous persona",
			zap.String("path", w.path),
			zap.Error(err),
		)
		return
	}

	w.holder.Store(p)
	w.logger.Info("persona reloaded",
		zap.String("path", w.path),
		zap.String("name", p.Name),
	)
}

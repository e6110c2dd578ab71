package renderer

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/vkngwrapper/playground/engine"
)

// ShaderWatcher reports changes to compiled shader files. The watch goroutine only signals; the
// frame driver polls Changed on its own thread.
type ShaderWatcher struct {
	watcher *fsnotify.Watcher
	logger  logrus.FieldLogger

	paths   map[string]struct{}
	changed chan struct{}
	done    chan struct{}
}

var _ engine.ShaderWatcher = (*ShaderWatcher)(nil)

// WatchShaders starts watching paths. Their directories are watched rather than the files, so
// editors and compilers that replace a file are noticed too.
func WatchShaders(logger logrus.FieldLogger, paths ...string) (*ShaderWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating shader watcher")
	}

	w := &ShaderWatcher{
		watcher: watcher,
		logger:  logger,
		paths:   make(map[string]struct{}),
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	dirs := make(map[string]struct{})
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			_ = watcher.Close()
			return nil, errors.Wrapf(err, "resolving %s", path)
		}
		w.paths[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	for dir := range dirs {
		err = watcher.Add(dir)
		if err != nil {
			_ = watcher.Close()
			return nil, errors.Wrapf(err, "watching %s", dir)
		}
	}

	go w.run()
	return w, nil
}

func (w *ShaderWatcher) run() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, ok := w.paths[abs]; !ok {
				continue
			}
			w.logger.WithField("path", event.Name).Debug("shader changed")
			select {
			case w.changed <- struct{}{}:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("shader watcher")
		}
	}
}

// Changed reports whether a watched file changed since the last call. It never blocks.
func (w *ShaderWatcher) Changed() bool {
	select {
	case <-w.changed:
		return true
	default:
		return false
	}
}

func (w *ShaderWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

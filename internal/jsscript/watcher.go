package jsscript

import (
	"path/filepath"
	"strings"

	"github.com/bridger-herman/scriptable-game/internal/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Watcher reports .js files that were written or created under a
// directory. It only forwards paths: reloading is left to the goroutine
// that owns the Host.
type Watcher struct {
	fs      *fsnotify.Watcher
	changes chan string
	done    chan struct{}
}

func NewWatcher(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create watcher")
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "watch %s", dir)
	}

	w := &Watcher{
		fs:      fw,
		changes: make(chan string, 16),
		done:    make(chan struct{}),
	}
	go w.loop()
	logger.Log.Info("Watching scripts", zap.String("dir", dir))
	return w, nil
}

// Changes delivers the path of every modified script. The channel is
// closed after Close.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

func (w *Watcher) Close() error {
	err := w.fs.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	defer close(w.changes)

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".js") {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.forward(ev.Name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Log.Warn("Script watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) forward(path string) {
	select {
	case w.changes <- path:
	default:
		logger.Log.Warn("Dropping script change, reload queue full", zap.String("path", path))
	}
}

package manifest

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a preamble source directory for out-of-band edits
// during a run and logs a warning: a changed preamble mid-run means the
// programs being verified assumed a stale axiom set (SPEC_FULL §4.H
// policy).
type Watcher struct {
	fsw    *fsnotify.Watcher
	logger *slog.Logger
	done   chan struct{}
}

// Watch begins watching dir. Call Close to stop.
func Watch(dir string, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{fsw: fsw, logger: logger, done: make(chan struct{})}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename|fsnotify.Create) != 0 {
				w.logger.Warn("preamble source changed during run",
					slog.String("path", event.Name), slog.String("op", event.Op.String()))
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("preamble watcher error", slog.Any("error", err))
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

package config

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/anima-render/engine/core"
)

var ErrWatcherClosed = errors.New("settings watcher already closed")

// ChangeFunc is invoked after a reload was applied. prev holds the graphics
// values in effect before the reload.
type ChangeFunc func(prev GraphicsValues, next *Settings)

// Watcher reloads the settings file whenever it is written and pushes the
// graphics values into a GraphicsSettings.
type Watcher struct {
	path     string
	graphics *GraphicsSettings
	events   *core.EventSystem

	mutex     sync.Mutex
	listeners []ChangeFunc
	current   *Settings

	fsnotify *fsnotify.Watcher
	done     chan struct{}
	stopped  chan struct{}
	started  bool
	isClosed bool
}

func NewWatcher(path string, graphics *GraphicsSettings, events *core.EventSystem) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path:     filepath.Clean(path),
		graphics: graphics,
		events:   events,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// OnChange registers fn to be called after every applied reload.
func (w *Watcher) OnChange(fn ChangeFunc) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Start watches the directory holding the settings file, since editors often
// replace the file rather than write it in place.
func (w *Watcher) Start() error {
	if w.isClosed {
		return ErrWatcherClosed
	}
	if err := w.fsnotify.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.started = true
	go w.start()
	return nil
}

func (w *Watcher) Close() error {
	if w.isClosed {
		return ErrWatcherClosed
	}
	w.isClosed = true
	if !w.started {
		return w.fsnotify.Close()
	}
	close(w.done)
	<-w.stopped
	return nil
}

// Reload reads the file and applies it. A file that fails to parse or
// validate leaves the current settings untouched.
func (w *Watcher) Reload() error {
	s, err := Load(w.path)
	if err != nil {
		return err
	}

	core.SetLogLevel(core.ParseLogLevel(s.Engine.LogLevel))
	prev := w.graphics.Apply(s.Graphics)

	w.mutex.Lock()
	w.current = s
	listeners := append([]ChangeFunc(nil), w.listeners...)
	w.mutex.Unlock()

	for _, fn := range listeners {
		fn(prev, s)
	}
	w.events.Fire(core.EVENT_CODE_SETTINGS_CHANGED, w, s)
	core.LogInfo("settings reloaded from %s (graphics version %d)", w.path, w.graphics.Version())
	return nil
}

// Current returns the last successfully loaded settings, or nil.
func (w *Watcher) Current() *Settings {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.current
}

func (w *Watcher) start() {
	defer close(w.stopped)
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != w.path {
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if err := w.Reload(); err != nil {
					core.LogWarn("failed to reload settings: %s", err.Error())
				}
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-w.done:
			w.fsnotify.Close()
			return
		}
	}
}

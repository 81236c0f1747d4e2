package config

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher hot-reloads config.json: on every write, it reparses the file and
// swaps the new values into the shared Config via ReplaceFrom, then invokes
// onChange so callers can react (e.g. dispatch a config:changed hook).
type Watcher struct {
	fsw      *fsnotify.Watcher
	cfg      *Config
	path     string
	lastHash string
	onChange func(*Config)
	done     chan struct{}
}

// Watch starts watching path for changes to cfg. onChange may be nil.
func Watch(path string, cfg *Config, onChange func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		cfg:      cfg,
		path:     path,
		lastHash: cfg.Hash(),
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.done)
	log := slog.Default().With("component", "config.watcher")
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			fresh, err := Load(w.path)
			if err != nil {
				log.Warn("reload failed, keeping previous config", "error", err)
				continue
			}
			if hash := fresh.Hash(); hash == w.lastHash {
				continue
			} else {
				w.lastHash = hash
			}
			w.cfg.ReplaceFrom(fresh)
			log.Info("config reloaded")
			if w.onChange != nil {
				w.onChange(w.cfg)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn("watch error", "error", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

package goeval

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// sourceWatcher marks the source units stale when anything below
// GOPATH/src changes. The interpreter rescans lazily, on its own goroutine.
type sourceWatcher struct {
	w      *fsnotify.Watcher
	stale  atomic.Bool
	log    zerolog.Logger
	doneCh chan struct{}
}

// Watch starts watching GoPath/src so that packages created or removed
// during the session are picked up. It watches the real filesystem and is
// a no-op when there is no src directory or when already watching.
func (in *Interpreter) Watch() error {
	if in.watch != nil || in.gopath == "" {
		return nil
	}
	root := filepath.Join(in.gopath, "src")
	if ok, _ := dirExists(root); !ok {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	sw := &sourceWatcher{
		w:      w,
		log:    in.log.With().Str("watch", root).Logger(),
		doneCh: make(chan struct{}),
	}
	if err := sw.addTree(root); err != nil {
		w.Close()
		return err
	}
	go sw.run()

	in.watch = sw
	in.log.Debug().Str("root", root).Msg("watching source units")
	return nil
}

// Close stops the watcher, if any.
func (in *Interpreter) Close() error {
	if in.watch == nil {
		return nil
	}
	err := in.watch.w.Close()
	<-in.watch.doneCh
	in.watch = nil
	return err
}

// refresh rediscovers the source units after a change was seen.
func (in *Interpreter) refresh() {
	if in.watch == nil || !in.watch.stale.CompareAndSwap(true, false) {
		return
	}
	sources, err := discoverSources(in.fs, in.gopath)
	if err != nil {
		in.log.Warn().Err(err).Msg("rescan source units")
		return
	}
	in.sources = sources
	in.log.Debug().Int("sources", len(sources)).Msg("source units rescanned")
}

func (sw *sourceWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		return sw.w.Add(p)
	})
}

func (sw *sourceWatcher) run() {
	defer close(sw.doneCh)

	for {
		select {
		case ev, ok := <-sw.w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if ok, _ := dirExists(ev.Name); ok && !skipDir(filepath.Base(ev.Name)) {
					if err := sw.addTree(ev.Name); err != nil {
						sw.log.Warn().Err(err).Str("dir", ev.Name).Msg("watch directory")
					}
				}
			}
			if strings.HasSuffix(ev.Name, ".go") || filepath.Ext(ev.Name) == "" {
				sw.stale.Store(true)
			}
		case err, ok := <-sw.w.Errors:
			if !ok {
				return
			}
			sw.log.Error().Err(err).Msg("source watcher error")
		}
	}
}

func dirExists(p string) (bool, error) {
	info, err := os.Stat(p)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

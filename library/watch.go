package library

import (
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/reelin-cli/reelin/log"
)

// rescans wait this long after the last filesystem event, so bursts
// (copies, downloads) trigger a single scan
const watchDebounce = 2 * time.Second

// Watch observes the mounted roots and rescans the library after
// changes settle. The returned function stops watching. Nested
// directories are picked up by the rescan itself, only the roots are
// registered with the watcher.
func (l *Library) Watch() (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	roots, err := l.Roots()
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}

	for _, root := range roots {
		if err = watcher.Add(root.Path); err != nil {
			log.Warnf("watching %s: %v", root.Path, err)
		}
	}

	stop := make(chan struct{})
	go l.watchLoop(watcher, stop)

	return func() {
		close(stop)
		_ = watcher.Close()
	}, nil
}

func (l *Library) watchLoop(watcher *fsnotify.Watcher, stop <-chan struct{}) {
	debounce := time.NewTimer(watchDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-stop:
			return
		case <-l.done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			debounce.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("folder watcher: %v", err)
		case <-debounce.C:
			if _, err := l.ScanAll(); err != nil {
				log.Warnf("rescan after folder change: %v", err)
			}
		}
	}
}

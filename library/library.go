package library

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/viper"

	"github.com/reelin-cli/reelin/filesystem"
	"github.com/reelin-cli/reelin/key"
	"github.com/reelin-cli/reelin/log"
	"github.com/reelin-cli/reelin/player"
	"github.com/reelin-cli/reelin/store"
)

// Library ties scan results, the metadata store and the playback
// controller together: mounted roots, reconciliation, sequencing and
// position bookkeeping.
type Library struct {
	store    store.Store
	ctl      *player.Controller
	seq      *Sequencer
	backfill func([]Entry)

	mu      sync.Mutex
	view    []Entry
	current mo.Option[Entry]
	loop    bool

	done chan struct{}
	once sync.Once
}

// New creates a library over the given store and controller and starts
// following playback events. backfill, when non-nil, is invoked on a
// detached goroutine after each scan with the entries still lacking a
// thumbnail.
func New(st store.Store, ctl *player.Controller, backfill func([]Entry)) *Library {
	l := &Library{
		store:    st,
		ctl:      ctl,
		seq:      NewSequencer(),
		backfill: backfill,
		done:     make(chan struct{}),
	}

	go l.followPlayback()
	return l
}

// Close stops the playback follower, saving the final position first.
func (l *Library) Close() {
	l.once.Do(func() {
		l.savePosition()
		close(l.done)
	})
}

// followPlayback folds controller events into library concerns:
// auto-advance at end of media and periodic position persistence.
func (l *Library) followPlayback() {
	interval := time.Duration(viper.GetInt(key.PlayerSaveInterval)) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.savePosition()
		case ev, ok := <-l.ctl.Events():
			if !ok {
				return
			}
			if ev.Type != player.EventEnd {
				continue
			}
			l.savePosition()
			if viper.GetBool(key.LibraryAutoAdvance) {
				if _, ok := l.Next(); !ok {
					log.Info("end of media, nothing further to play")
				}
			}
		}
	}
}

// savePosition records how far into the current entry playback got.
func (l *Library) savePosition() {
	l.mu.Lock()
	current, ok := l.current.Get()
	l.mu.Unlock()

	if !ok {
		return
	}

	snapshot := l.ctl.Snapshot()
	if !snapshot.Loaded {
		return
	}

	if err := l.store.SetPosition(current.ID, snapshot.Position); err != nil {
		log.Warnf("saving position for %s: %v", current.Name, err)
	}
}

// AddRoot mounts a folder. Mounting an already-known path updates its
// scan depth instead of duplicating the row.
func (l *Library) AddRoot(path string, depth int) (Root, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return Root{}, err
	}

	info, err := filesystem.API().Stat(path)
	if err != nil {
		return Root{}, fmt.Errorf("cannot mount %s: %w", path, err)
	}
	if !info.IsDir() {
		return Root{}, fmt.Errorf("cannot mount %s: not a directory", path)
	}

	root := Root{
		ID:        uuid.NewString(),
		Path:      path,
		Name:      filepath.Base(path),
		ScanDepth: depth,
		AddedAt:   time.Now(),
	}

	if existing, ok := l.rootByPath(path); ok {
		root.ID = existing.ID
		root.AddedAt = existing.AddedAt
	}

	return root, l.store.UpsertFolder(rootToFolder(root))
}

// Roots lists the mounted folders.
func (l *Library) Roots() ([]Root, error) {
	folders, err := l.store.Folders()
	if err != nil {
		return nil, err
	}
	return lo.Map(folders, func(f store.Folder, _ int) Root {
		return folderToRoot(f)
	}), nil
}

// RemoveRoot unmounts a folder, cascading deletion of every entry
// underneath it.
func (l *Library) RemoveRoot(path string) error {
	root, ok := l.rootByPath(path)
	if !ok {
		return fmt.Errorf("no mounted folder at %s", path)
	}

	if err := l.store.DeleteVideosUnder(withSeparator(root.Path)); err != nil {
		return err
	}
	return l.store.DeleteFolder(root.ID)
}

// SetRootDepth changes how deep a mounted folder is scanned.
func (l *Library) SetRootDepth(path string, depth int) error {
	root, ok := l.rootByPath(path)
	if !ok {
		return fmt.Errorf("no mounted folder at %s", path)
	}

	root.ScanDepth = depth
	return l.store.UpsertFolder(rootToFolder(root))
}

func (l *Library) rootByPath(path string) (Root, bool) {
	roots, err := l.Roots()
	if err != nil {
		return Root{}, false
	}
	return lo.Find(roots, func(r Root) bool {
		return r.Path == path
	})
}

// ScanAll walks every mounted root, reconciles the results with the
// store and refreshes the listing snapshot.
func (l *Library) ScanAll() ([]Entry, error) {
	roots, err := l.Roots()
	if err != nil {
		return nil, err
	}

	var all []Entry
	for _, root := range roots {
		reconciled, err := l.reconcile(root, Scan(root.Path, root.ScanDepth))
		if err != nil {
			return nil, err
		}
		all = append(all, reconciled...)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Path < all[j].Path
	})

	if err := saveSnapshot(all); err != nil {
		log.Warnf("saving scan snapshot: %v", err)
	}

	if l.backfill != nil && viper.GetBool(key.ThumbsGenerate) {
		missing := lo.Filter(all, func(e Entry, _ int) bool {
			return e.ThumbPath.IsAbsent()
		})
		if len(missing) > 0 {
			go l.backfill(missing)
		}
	}

	return all, nil
}

// reconcile merges a fresh scan of one root into the store: ids and
// known thumbnails survive for paths seen before, rows for vanished
// files are deleted.
func (l *Library) reconcile(root Root, scanned []Entry) ([]Entry, error) {
	videos, err := l.store.Videos()
	if err != nil {
		return nil, err
	}

	prefix := withSeparator(root.Path)
	known := lo.Filter(videos, func(v store.Video, _ int) bool {
		return strings.HasPrefix(v.Path, prefix)
	})
	byPath := lo.KeyBy(known, func(v store.Video) string {
		return v.Path
	})

	for i, entry := range scanned {
		existing, ok := byPath[entry.Path]
		if !ok {
			continue
		}
		scanned[i].ID = existing.ID
		scanned[i].CreatedAt = existing.CreatedAt
		if entry.ThumbPath.IsAbsent() && existing.ThumbPath != "" {
			scanned[i].ThumbPath = mo.Some(existing.ThumbPath)
		}
	}

	scannedPaths := lo.SliceToMap(scanned, func(e Entry) (string, struct{}) {
		return e.Path, struct{}{}
	})
	vanished := lo.FilterMap(known, func(v store.Video, _ int) (string, bool) {
		_, still := scannedPaths[v.Path]
		return v.ID, !still
	})

	if err = l.store.DeleteVideos(vanished); err != nil {
		return nil, err
	}

	rows := lo.Map(scanned, func(e Entry, _ int) store.Video {
		return entryToVideo(e)
	})
	return scanned, l.store.UpsertVideos(rows)
}

// Entries lists every known entry from the store.
func (l *Library) Entries() ([]Entry, error) {
	videos, err := l.store.Videos()
	if err != nil {
		return nil, err
	}
	return lo.Map(videos, func(v store.Video, _ int) Entry {
		return videoToEntry(v)
	}), nil
}

// Filter narrows entries to those whose names fuzzy-match the query,
// best matches first. An empty query returns the input unchanged.
func Filter(entries []Entry, query string) []Entry {
	if query == "" {
		return entries
	}

	names := lo.Map(entries, func(e Entry, _ int) string {
		return e.Name
	})

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Sort(ranks)

	return lo.Map(ranks, func(r fuzzy.Rank, _ int) Entry {
		return entries[r.OriginalIndex]
	})
}

// SetView installs the listing playback navigates over.
func (l *Library) SetView(entries []Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.view = entries
}

// SetLoop makes sequential navigation wrap around.
func (l *Library) SetLoop(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loop = on
}

// SetShuffle toggles shuffle ordering. Enabling it mid-playback seeds
// the history with the current entry.
func (l *Library) SetShuffle(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq.SetShuffle(on)
	if current, ok := l.current.Get(); on && ok {
		l.seq.Start(current.ID)
	}
}

// Shuffling reports whether shuffle ordering is active.
func (l *Library) Shuffling() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq.Shuffling()
}

// Current returns the entry playback is on.
func (l *Library) Current() mo.Option[Entry] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Play loads the entry into the controller, resuming from the stored
// position when configured to.
func (l *Library) Play(entry Entry) {
	l.savePosition()

	l.ctl.Load(entry.Path)

	l.mu.Lock()
	l.current = mo.Some(entry)
	l.seq.Play(entry.ID)
	l.mu.Unlock()

	if !viper.GetBool(key.PlayerResumePlayback) {
		return
	}
	if seconds, ok, _ := l.store.Position(entry.ID); ok && seconds > 0 {
		l.ctl.Seek(seconds)
	}
}

// Next advances playback within the installed view, honoring shuffle
// and loop settings. It reports false when there is nowhere to go.
func (l *Library) Next() (Entry, bool) {
	entry, ok := l.pick(+1)
	if !ok {
		return Entry{}, false
	}
	l.Play(entry)
	return entry, true
}

// Previous steps playback back within the installed view.
func (l *Library) Previous() (Entry, bool) {
	entry, ok := l.pick(-1)
	if !ok {
		return Entry{}, false
	}
	l.Play(entry)
	return entry, true
}

// pick resolves the next or previous entry without loading it.
func (l *Library) pick(direction int) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.view) == 0 {
		return Entry{}, false
	}

	if l.seq.Shuffling() {
		return l.pickShuffled(direction)
	}

	current, ok := l.current.Get()
	if !ok {
		return l.view[0], true
	}

	_, i, found := lo.FindIndexOf(l.view, func(e Entry) bool {
		return e.ID == current.ID
	})
	if !found {
		return l.view[0], true
	}

	i += direction
	if i < 0 || i >= len(l.view) {
		if !l.loop {
			return Entry{}, false
		}
		i = (i + len(l.view)) % len(l.view)
	}
	return l.view[i], true
}

func (l *Library) pickShuffled(direction int) (Entry, bool) {
	var (
		id string
		ok bool
	)

	if direction < 0 {
		id, ok = l.seq.Previous()
	} else {
		ids := lo.Map(l.view, func(e Entry, _ int) string {
			return e.ID
		})
		id, ok = l.seq.Next(ids)
	}
	if !ok {
		return Entry{}, false
	}

	return lo.Find(l.view, func(e Entry) bool {
		return e.ID == id
	})
}

func withSeparator(path string) string {
	if strings.HasSuffix(path, string(filepath.Separator)) {
		return path
	}
	return path + string(filepath.Separator)
}

func entryToVideo(e Entry) store.Video {
	return store.Video{
		ID:        e.ID,
		Path:      e.Path,
		Name:      e.Name,
		Folder:    e.Folder,
		Size:      e.Size,
		CreatedAt: e.CreatedAt,
		ThumbPath: e.ThumbPath.OrElse(""),
	}
}

func videoToEntry(v store.Video) Entry {
	entry := Entry{
		ID:        v.ID,
		Path:      v.Path,
		Name:      v.Name,
		Folder:    v.Folder,
		Size:      v.Size,
		CreatedAt: v.CreatedAt,
	}
	if v.ThumbPath != "" {
		entry.ThumbPath = mo.Some(v.ThumbPath)
	}
	return entry
}

func rootToFolder(r Root) store.Folder {
	return store.Folder{
		ID:        r.ID,
		Path:      r.Path,
		Name:      r.Name,
		ScanDepth: r.ScanDepth,
		AddedAt:   r.AddedAt,
	}
}

func folderToRoot(f store.Folder) Root {
	return Root{
		ID:        f.ID,
		Path:      f.Path,
		Name:      f.Name,
		ScanDepth: f.ScanDepth,
		AddedAt:   f.AddedAt,
	}
}

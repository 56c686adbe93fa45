package library

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"

	"github.com/reelin-cli/reelin/filesystem"
	"github.com/reelin-cli/reelin/key"
	"github.com/reelin-cli/reelin/player"
	"github.com/reelin-cli/reelin/store"
)

// memStore is an in-memory Store for exercising the library without a
// database.
type memStore struct {
	mu        sync.Mutex
	videos    map[string]store.Video
	folders   map[string]store.Folder
	positions map[string]float64
}

func newMemStore() *memStore {
	return &memStore{
		videos:    map[string]store.Video{},
		folders:   map[string]store.Folder{},
		positions: map[string]float64{},
	}
}

func (m *memStore) UpsertVideos(videos []store.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range videos {
		m.videos[v.ID] = v
	}
	return nil
}

func (m *memStore) Videos() ([]store.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	videos := lo.Values(m.videos)
	sort.Slice(videos, func(i, j int) bool { return videos[i].Path < videos[j].Path })
	return videos, nil
}

func (m *memStore) Video(id string) (store.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return store.Video{}, fmt.Errorf("no video %s", id)
	}
	return v, nil
}

func (m *memStore) DeleteVideos(ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.videos, id)
		delete(m.positions, id)
	}
	return nil
}

func (m *memStore) DeleteVideosUnder(prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, v := range m.videos {
		if strings.HasPrefix(v.Path, prefix) {
			delete(m.videos, id)
			delete(m.positions, id)
		}
	}
	return nil
}

func (m *memStore) UpsertFolder(folder store.Folder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.folders[folder.ID] = folder
	return nil
}

func (m *memStore) Folders() ([]store.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	folders := lo.Values(m.folders)
	sort.Slice(folders, func(i, j int) bool { return folders[i].Path < folders[j].Path })
	return folders, nil
}

func (m *memStore) DeleteFolder(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.folders, id)
	return nil
}

func (m *memStore) AddAttribute(store.AttributeKind, string) error    { return nil }
func (m *memStore) RemoveAttribute(store.AttributeKind, string) error { return nil }
func (m *memStore) Attributes(store.AttributeKind) ([]store.Attribute, error) {
	return nil, nil
}
func (m *memStore) Assign(store.AttributeKind, string, string) error   { return nil }
func (m *memStore) Unassign(store.AttributeKind, string, string) error { return nil }
func (m *memStore) VideoAttributes(store.AttributeKind, string) ([]store.Attribute, error) {
	return nil, nil
}

func (m *memStore) Position(videoID string) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seconds, ok := m.positions[videoID]
	return seconds, ok, nil
}

func (m *memStore) SetPosition(videoID string, seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[videoID] = seconds
	return nil
}

func (m *memStore) Close() error { return nil }

// journalBackend records every call made to it.
type journalBackend struct {
	kind player.Kind

	mu    sync.Mutex
	calls []string
}

func (b *journalBackend) record(call string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
	return nil
}

func (b *journalBackend) journal() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *journalBackend) Kind() player.Kind       { return b.kind }
func (b *journalBackend) Load(path string) error  { return b.record("load " + path) }
func (b *journalBackend) Play() error             { return b.record("play") }
func (b *journalBackend) Pause() error            { return b.record("pause") }
func (b *journalBackend) Toggle() error           { return b.record("toggle") }
func (b *journalBackend) Seek(s float64) error    { return b.record(fmt.Sprintf("seek %v", s)) }
func (b *journalBackend) SeekBy(d float64) error  { return b.record(fmt.Sprintf("seekby %v", d)) }
func (b *journalBackend) SetVolume(float64) error { return b.record("volume") }
func (b *journalBackend) SetMuted(bool) error     { return b.record("muted") }
func (b *journalBackend) SetSpeed(float64) error  { return b.record("speed") }
func (b *journalBackend) Stop() error             { return b.record("stop") }

func testLibrary() (*Library, *memStore, *journalBackend) {
	backend := &journalBackend{}
	ctl := player.NewControllerWith(func(kind player.Kind, emit func(player.Event)) player.Backend {
		backend.kind = kind
		return backend
	})

	st := newMemStore()
	return New(st, ctl, nil), st, backend
}

func viewOf(ids ...string) []Entry {
	return lo.Map(ids, func(id string, _ int) Entry {
		return Entry{ID: id, Path: "/lib/" + id + ".mp4", Name: id}
	})
}

func TestRoots(t *testing.T) {
	Convey("Roots", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()

		fs := filesystem.API()
		lo.Must0(fs.MkdirAll("/movies", os.ModePerm))

		l, st, _ := testLibrary()
		defer l.Close()

		Convey("AddRoot mounts a directory", func() {
			root, err := l.AddRoot("/movies", 2)
			So(err, ShouldBeNil)
			So(root.Name, ShouldEqual, "movies")
			So(root.ScanDepth, ShouldEqual, 2)

			roots, err := l.Roots()
			So(err, ShouldBeNil)
			So(roots, ShouldHaveLength, 1)

			Convey("Mounting the same path again keeps one row and its id", func() {
				again, err := l.AddRoot("/movies", 4)
				So(err, ShouldBeNil)
				So(again.ID, ShouldEqual, root.ID)

				roots, err := l.Roots()
				So(err, ShouldBeNil)
				So(roots, ShouldHaveLength, 1)
				So(roots[0].ScanDepth, ShouldEqual, 4)
			})

			Convey("SetRootDepth updates in place", func() {
				So(l.SetRootDepth("/movies", 1), ShouldBeNil)

				roots, _ := l.Roots()
				So(roots[0].ScanDepth, ShouldEqual, 1)
			})

			Convey("RemoveRoot cascades entry deletion", func() {
				So(st.UpsertVideos([]store.Video{
					{ID: "in", Path: "/movies/a.mp4"},
					{ID: "out", Path: "/elsewhere/b.mp4"},
				}), ShouldBeNil)

				So(l.RemoveRoot("/movies"), ShouldBeNil)

				roots, _ := l.Roots()
				So(roots, ShouldBeEmpty)

				videos, _ := st.Videos()
				So(videos, ShouldHaveLength, 1)
				So(videos[0].ID, ShouldEqual, "out")
			})
		})

		Convey("AddRoot rejects files and missing paths", func() {
			touch("/movies/clip.mp4")

			_, err := l.AddRoot("/movies/clip.mp4", 0)
			So(err, ShouldNotBeNil)

			_, err = l.AddRoot("/nope", 0)
			So(err, ShouldNotBeNil)
		})

		Convey("RemoveRoot on an unknown path fails", func() {
			So(l.RemoveRoot("/nope"), ShouldNotBeNil)
		})
	})
}

func TestScanAll(t *testing.T) {
	Convey("ScanAll", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()
		viper.Set(key.ThumbsGenerate, false)

		fs := filesystem.API()
		lo.Must0(fs.MkdirAll("/movies", os.ModePerm))
		touch("/movies/a.mp4")
		touch("/movies/b.mkv")

		l, st, _ := testLibrary()
		defer l.Close()

		lo.Must(l.AddRoot("/movies", 1))

		Convey("First scan stores every discovered entry", func() {
			entries, err := l.ScanAll()
			So(err, ShouldBeNil)
			So(names(entries), ShouldResemble, []string{"a", "b"})

			videos, _ := st.Videos()
			So(videos, ShouldHaveLength, 2)

			Convey("Rescans preserve ids for known paths", func() {
				before := entries
				after, err := l.ScanAll()
				So(err, ShouldBeNil)
				So(after[0].ID, ShouldEqual, before[0].ID)
				So(after[1].ID, ShouldEqual, before[1].ID)
			})

			Convey("Rescans keep stored thumbnails when the sidecar vanished", func() {
				videos, _ := st.Videos()
				video, _ := lo.Find(videos, func(v store.Video) bool {
					return v.Name == "a"
				})
				video.ThumbPath = "/thumbs/a.jpg"
				So(st.UpsertVideos([]store.Video{video}), ShouldBeNil)

				after, err := l.ScanAll()
				So(err, ShouldBeNil)

				entry, _ := lo.Find(after, func(e Entry) bool {
					return e.Name == "a"
				})
				So(entry.ThumbPath.OrElse(""), ShouldEqual, "/thumbs/a.jpg")
			})

			Convey("Rescans drop rows for vanished files", func() {
				So(fs.Remove("/movies/b.mkv"), ShouldBeNil)

				after, err := l.ScanAll()
				So(err, ShouldBeNil)
				So(names(after), ShouldResemble, []string{"a"})

				videos, _ := st.Videos()
				So(videos, ShouldHaveLength, 1)
			})
		})
	})
}

func TestFilter(t *testing.T) {
	Convey("Filter", t, func() {
		entries := []Entry{
			{ID: "1", Name: "The Grand Tour"},
			{ID: "2", Name: "Grounded"},
			{ID: "3", Name: "Holiday Reel"},
		}

		Convey("Empty query returns the input unchanged", func() {
			So(Filter(entries, ""), ShouldResemble, entries)
		})

		Convey("Matches are fuzzy and case-insensitive", func() {
			found := Filter(entries, "grand")
			So(found, ShouldHaveLength, 1)
			So(found[0].ID, ShouldEqual, "1")

			found = Filter(entries, "gr")
			So(found, ShouldHaveLength, 2)
		})

		Convey("No match yields an empty view", func() {
			So(Filter(entries, "zzz"), ShouldBeEmpty)
		})
	})
}

func TestNavigation(t *testing.T) {
	Convey("Navigation", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()
		viper.Set(key.PlayerResumePlayback, false)

		l, st, backend := testLibrary()
		defer l.Close()

		view := viewOf("a", "b", "c")
		l.SetView(view)

		Convey("Next from nothing starts at the head of the view", func() {
			entry, ok := l.Next()
			So(ok, ShouldBeTrue)
			So(entry.ID, ShouldEqual, "a")
			So(backend.journal(), ShouldContain, "load /lib/a.mp4")

			Convey("And advances in view order", func() {
				entry, ok := l.Next()
				So(ok, ShouldBeTrue)
				So(entry.ID, ShouldEqual, "b")

				entry, ok = l.Previous()
				So(ok, ShouldBeTrue)
				So(entry.ID, ShouldEqual, "a")
			})

			Convey("Previous at the head stops without loop", func() {
				_, ok := l.Previous()
				So(ok, ShouldBeFalse)
			})
		})

		Convey("Loop wraps both ends", func() {
			l.SetLoop(true)

			entry, _ := l.Next() // a
			_, _ = l.Next()      // b
			_, _ = l.Next()      // c
			entry, _ = l.Next()
			So(entry.ID, ShouldEqual, "a")

			entry, _ = l.Previous()
			So(entry.ID, ShouldEqual, "c")
		})

		Convey("Without loop the tail is terminal", func() {
			l.Play(view[2])
			_, ok := l.Next()
			So(ok, ShouldBeFalse)
		})

		Convey("Empty view never navigates", func() {
			l.SetView(nil)
			_, ok := l.Next()
			So(ok, ShouldBeFalse)
		})

		Convey("Shuffle draws unseen entries from the view", func() {
			l.SetShuffle(true)
			seen := map[string]bool{}

			for i := 0; i < len(view); i++ {
				entry, ok := l.Next()
				So(ok, ShouldBeTrue)
				seen[entry.ID] = true
			}
			So(seen, ShouldHaveLength, len(view))
		})

		Convey("Play resumes from the stored position when configured", func() {
			viper.Set(key.PlayerResumePlayback, true)
			defer viper.Set(key.PlayerResumePlayback, false)

			So(st.SetPosition("b", 42), ShouldBeNil)

			l.Play(view[1])
			So(backend.journal(), ShouldContain, "seek 42")
		})
	})
}

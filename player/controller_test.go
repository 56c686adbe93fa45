package player

import (
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"

	"github.com/reelin-cli/reelin/key"
)

// fakeBackend records control calls; the shared journal preserves the
// ordering of operations across backend instances.
type fakeBackend struct {
	kind    Kind
	emit    func(Event)
	journal *callJournal
	loadErr error
	stopped bool
}

type callJournal struct {
	mu    sync.Mutex
	calls []string
}

func (j *callJournal) record(call string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, call)
}

func (j *callJournal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.calls...)
}

func (f *fakeBackend) Kind() Kind { return f.kind }

func (f *fakeBackend) Load(path string) error {
	f.journal.record(f.kind.String() + ":load:" + path)
	if f.loadErr != nil {
		return f.loadErr
	}
	f.emit(DurationKnown(60))
	f.emit(LoadStateChanged(true))
	f.emit(PlayStateChanged(true))
	return nil
}

func (f *fakeBackend) Play() error   { f.journal.record(f.kind.String() + ":play"); return nil }
func (f *fakeBackend) Pause() error  { f.journal.record(f.kind.String() + ":pause"); return nil }
func (f *fakeBackend) Toggle() error { f.journal.record(f.kind.String() + ":toggle"); return nil }
func (f *fakeBackend) Seek(seconds float64) error {
	f.journal.record(f.kind.String() + ":seek")
	return nil
}
func (f *fakeBackend) SeekBy(delta float64) error {
	f.journal.record(f.kind.String() + ":seekby")
	return nil
}
func (f *fakeBackend) SetVolume(v float64) error { return nil }
func (f *fakeBackend) SetMuted(muted bool) error { return nil }
func (f *fakeBackend) SetSpeed(m float64) error  { return nil }

func (f *fakeBackend) Stop() error {
	f.stopped = true
	f.journal.record(f.kind.String() + ":stop")
	f.emit(PlayStateChanged(false))
	f.emit(LoadStateChanged(false))
	return nil
}

// awaitState polls the controller until the predicate holds or the
// timeout expires.
func awaitState(c *Controller, predicate func(State) bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if predicate(c.Snapshot()) {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestController(t *testing.T) {
	Convey("Controller", t, func() {
		journal := &callJournal{}
		var created []*fakeBackend
		loadErrs := map[Kind]error{}

		factory := func(kind Kind, emit func(Event)) Backend {
			b := &fakeBackend{kind: kind, emit: emit, journal: journal, loadErr: loadErrs[kind]}
			created = append(created, b)
			return b
		}

		c := newController(factory)
		defer c.Close()

		Convey("Load activates exactly one backend of the routed kind", func() {
			c.Load("/library/track.mp3")

			So(created, ShouldHaveLength, 1)
			So(created[0].kind, ShouldEqual, KindNative)
			So(awaitState(c, func(s State) bool { return s.Loaded }), ShouldBeTrue)
			So(c.Snapshot().Backend, ShouldEqual, KindNative)
		})

		Convey("Loading the other class tears the first backend down before the new load", func() {
			c.Load("/library/track.mp3")
			c.Load("/library/movie.mkv")

			So(created, ShouldHaveLength, 2)
			So(created[0].stopped, ShouldBeTrue)

			calls := journal.all()
			So(calls, ShouldContain, "native:stop")
			stopIdx, loadIdx := -1, -1
			for i, call := range calls {
				if call == "native:stop" {
					stopIdx = i
				}
				if call == "external:load:/library/movie.mkv" {
					loadIdx = i
				}
			}
			So(stopIdx, ShouldBeGreaterThanOrEqualTo, 0)
			So(loadIdx, ShouldBeGreaterThan, stopIdx)
			So(awaitState(c, func(s State) bool { return s.Loaded && s.Backend == KindExternal }), ShouldBeTrue)
		})

		Convey("Loading the same class reuses the backend instance", func() {
			c.Load("/library/a.mkv")
			c.Load("/library/b.webm")

			So(created, ShouldHaveLength, 1)
			So(created[0].stopped, ShouldBeFalse)
		})

		Convey("A load failure sets the error field and leaves the state unloaded", func() {
			loadErrs[KindExternal] = errors.New("mpv not found in PATH — install mpv (e.g. brew install mpv)")
			c.Load("/library/movie.avi")

			So(awaitState(c, func(s State) bool { return s.Err != "" }), ShouldBeTrue)
			snap := c.Snapshot()
			So(snap.Loaded, ShouldBeFalse)
			So(snap.Err, ShouldContainSubstring, "install mpv")

			Convey("And a later successful load clears it", func() {
				delete(loadErrs, KindExternal)
				created = created[:0]
				c.Stop()
				c.Load("/library/other.mkv")

				So(awaitState(c, func(s State) bool { return s.Loaded && s.Err == "" }), ShouldBeTrue)
			})
		})

		Convey("Control calls without a backend are silent no-ops", func() {
			So(func() {
				c.Play()
				c.Pause()
				c.Toggle()
				c.Seek(10)
				c.SeekBy(-5)
				c.ToggleMute()
				c.Stop()
			}, ShouldNotPanic)
			So(journal.all(), ShouldBeEmpty)
		})

		Convey("Volume is clamped to the normalized range", func() {
			c.SetVolume(2.5)
			So(c.Snapshot().Volume, ShouldEqual, 1.0)

			c.SetVolume(-1)
			So(c.Snapshot().Volume, ShouldEqual, 0.0)
		})

		Convey("Mute preference survives Stop", func() {
			c.ToggleMute()
			c.Stop()
			So(c.Snapshot().Muted, ShouldBeTrue)
			So(c.Snapshot().Backend, ShouldEqual, KindNone)
		})

		Convey("Backend events flow into the observable state", func() {
			c.Load("/library/track.mp3")
			So(awaitState(c, func(s State) bool { return s.Loaded }), ShouldBeTrue)

			created[0].emit(TimeUpdated(12.25))
			So(awaitState(c, func(s State) bool { return s.Position == 12.25 }), ShouldBeTrue)

			created[0].emit(EndOfMedia())
			So(awaitState(c, func(s State) bool { return !s.Playing }), ShouldBeTrue)
		})
	})
}

func TestInitialPreferences(t *testing.T) {
	Convey("Initial preferences", t, func() {
		journal := &callJournal{}
		factory := func(kind Kind, emit func(Event)) Backend {
			return &fakeBackend{kind: kind, emit: emit, journal: journal}
		}

		reset := func() {
			viper.Set(key.PlayerVolume, 0.0)
			viper.Set(key.PlayerSpeed, 0.0)
		}
		defer reset()

		Convey("Unset configuration falls back to neutral values", func() {
			reset()

			state := newController(factory).Snapshot()
			So(state.Volume, ShouldEqual, 1)
			So(state.Speed, ShouldEqual, 1)
		})

		Convey("Configured volume and speed seed the state", func() {
			viper.Set(key.PlayerVolume, 0.5)
			viper.Set(key.PlayerSpeed, 1.5)

			state := newController(factory).Snapshot()
			So(state.Volume, ShouldEqual, 0.5)
			So(state.Speed, ShouldEqual, 1.5)

			Convey("And stick to the first loaded backend", func() {
				c := newController(factory)
				c.Load("/tmp/clip.mp3")

				So(awaitState(c, func(s State) bool {
					return s.Loaded && s.Volume == 0.5 && s.Speed == 1.5
				}), ShouldBeTrue)
			})
		})

		Convey("Out-of-range volume is clamped", func() {
			viper.Set(key.PlayerVolume, 3.0)

			So(newController(factory).Snapshot().Volume, ShouldEqual, 1)
		})
	})
}

package player

import (
	"sync"

	"github.com/spf13/viper"

	"github.com/reelin-cli/reelin/key"
	"github.com/reelin-cli/reelin/log"
	"github.com/reelin-cli/reelin/util"
)

// Controller is the unifying playback façade. It owns at most one live
// backend, routes every control call to it, and republishes the
// backends' divergent event models as one observable State.
//
// All state mutation happens on the controller's single drain goroutine
// or under its lock; backend callbacks never touch shared state from
// their native calling context.
type Controller struct {
	mu      sync.Mutex
	state   State
	backend Backend
	factory Factory

	sink   chan Event
	events chan Event
	done   chan struct{}
	once   sync.Once
}

// NewController creates a controller wired to the production backends.
func NewController() *Controller {
	return newController(DefaultFactory)
}

// NewControllerWith creates a controller building its backends through
// the given factory instead of the production one.
func NewControllerWith(factory Factory) *Controller {
	return newController(factory)
}

func newController(factory Factory) *Controller {
	c := &Controller{
		factory: factory,
		state:   initialState(),
		sink:    make(chan Event, 64),
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
	}
	go c.drain()
	return c
}

// initialState seeds the sticky preferences from configuration, falling
// back to neutral values when nothing is set.
func initialState() State {
	state := State{Volume: 1, Speed: 1}

	if v := viper.GetFloat64(key.PlayerVolume); v > 0 {
		state.Volume = util.Clamp(v, 0, 1)
	}
	if s := viper.GetFloat64(key.PlayerSpeed); s > 0 {
		state.Speed = s
	}
	return state
}

// drain is the single goroutine applying backend events to the state.
func (c *Controller) drain() {
	for {
		select {
		case <-c.done:
			return
		case ev := <-c.sink:
			c.apply(ev)
			c.republish(ev)
		}
	}
}

// apply folds one typed event into the observable state.
func (c *Controller) apply(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Type {
	case EventTime:
		c.state.Position = ev.Float
	case EventDuration:
		c.state.Duration = ev.Float
	case EventPlayState:
		c.state.Playing = ev.Bool
	case EventLoadState:
		c.state.Loaded = ev.Bool
		if ev.Bool {
			c.state.Err = ""
		}
	case EventVolume:
		c.state.Volume = ev.Float
	case EventMute:
		c.state.Muted = ev.Bool
	case EventSpeed:
		c.state.Speed = ev.Float
	case EventEnd:
		c.state.Playing = false
	case EventFail:
		c.state.Err = ev.Message
		c.state.Loaded = false
		c.state.Playing = false
	}
}

// republish forwards the event to observers without ever blocking the
// drain goroutine; the oldest unread event is dropped when the observer
// lags.
func (c *Controller) republish(ev Event) {
	for {
		select {
		case c.events <- ev:
			return
		default:
			select {
			case <-c.events:
			default:
			}
		}
	}
}

// emit is the sink handed to backends.
func (c *Controller) emit(ev Event) {
	select {
	case c.sink <- ev:
	case <-c.done:
	}
}

// Events exposes the normalized event stream for observers such as
// auto-advance and position persistence.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Snapshot returns a copy of the current observable state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Load routes the file to its backend class and activates that backend.
// When the class differs from the active one, the current backend is
// fully torn down before the new one is created; format routing is the
// only fallback mechanism, decided once here. Failures populate the
// error field and leave the state unloaded; there is no retry.
func (c *Controller) Load(path string) {
	kind := Route(path)

	c.mu.Lock()
	if c.backend != nil && c.backend.Kind() != kind {
		old := c.backend
		c.backend = nil
		c.mu.Unlock()

		// Old backend's resources (process, socket, pipeline) must be
		// gone before the replacement reports loaded.
		if err := old.Stop(); err != nil {
			log.Warnf("backend teardown: %v", err)
		}

		c.mu.Lock()
	}

	if c.backend == nil {
		c.backend = c.factory(kind, c.emit)
	}
	backend := c.backend

	c.state.Position = 0
	c.state.Duration = 0
	c.state.Loaded = false
	c.state.Err = ""
	c.state.Backend = kind
	volume, muted, speed := c.state.Volume, c.state.Muted, c.state.Speed
	c.mu.Unlock()

	if err := backend.Load(path); err != nil {
		c.emit(Failed(err.Error()))
		return
	}

	// Carry the user's sticky preferences onto the fresh session.
	c.control(backend.SetVolume(volume))
	c.control(backend.SetMuted(muted))
	if speed != 1 {
		c.control(backend.SetSpeed(speed))
	}
}

// Play resumes playback; a no-op when nothing is loaded.
func (c *Controller) Play() {
	if b := c.active(); b != nil {
		c.control(b.Play())
	}
}

// Pause suspends playback; a no-op when nothing is loaded.
func (c *Controller) Pause() {
	if b := c.active(); b != nil {
		c.control(b.Pause())
	}
}

// Toggle inverts the playback suspension state.
func (c *Controller) Toggle() {
	if b := c.active(); b != nil {
		c.control(b.Toggle())
	}
}

// Seek moves playback to an absolute position in seconds.
func (c *Controller) Seek(seconds float64) {
	if b := c.active(); b != nil {
		c.control(b.Seek(seconds))
	}
}

// SeekBy shifts the playback position by a relative amount of seconds.
func (c *Controller) SeekBy(delta float64) {
	if b := c.active(); b != nil {
		c.control(b.SeekBy(delta))
	}
}

// SetVolume applies a normalized volume, clamped to 0..1.
func (c *Controller) SetVolume(volume float64) {
	volume = util.Clamp(volume, 0, 1)

	c.mu.Lock()
	c.state.Volume = volume
	b := c.backend
	c.mu.Unlock()

	if b != nil {
		c.control(b.SetVolume(volume))
	}
}

// ToggleMute inverts the mute flag.
func (c *Controller) ToggleMute() {
	c.mu.Lock()
	c.state.Muted = !c.state.Muted
	muted := c.state.Muted
	b := c.backend
	c.mu.Unlock()

	if b != nil {
		c.control(b.SetMuted(muted))
	}
}

// SetSpeed applies a playback rate multiplier.
func (c *Controller) SetSpeed(multiplier float64) {
	if multiplier <= 0 {
		return
	}

	c.mu.Lock()
	c.state.Speed = multiplier
	b := c.backend
	c.mu.Unlock()

	if b != nil {
		c.control(b.SetSpeed(multiplier))
	}
}

// Stop tears down the active backend, if any, and resets the state.
// The user's volume, mute, and speed preferences survive.
func (c *Controller) Stop() {
	c.mu.Lock()
	backend := c.backend
	c.backend = nil
	c.state = State{Volume: c.state.Volume, Muted: c.state.Muted, Speed: c.state.Speed}
	c.mu.Unlock()

	if backend != nil {
		if err := backend.Stop(); err != nil {
			log.Warnf("backend teardown: %v", err)
		}
	}
}

// Close stops playback and terminates the drain goroutine.
func (c *Controller) Close() {
	c.Stop()
	c.once.Do(func() { close(c.done) })
}

// active returns the current backend handle, or nil.
func (c *Controller) active() Backend {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend
}

// control absorbs a transient control-call failure: it is logged, never
// surfaced, matching the per-tick channel failure policy.
func (c *Controller) control(err error) {
	if err != nil {
		log.Warnf("playback control: %v", err)
	}
}

// Package player implements the dual-backend playback layer.
//
// Two structurally different engines sit behind one control surface: an
// in-process decode pipeline for audio containers and an external mpv
// process driven over its JSON-IPC socket for everything else. The
// Controller owns at most one live backend at a time and republishes a
// single observable playback state.
package player

// Kind identifies a playback backend class.
type Kind int

const (
	// KindNone indicates no backend is active.
	KindNone Kind = iota

	// KindNative is the in-process decode pipeline.
	KindNative

	// KindExternal is the mpv child process driven over JSON-IPC.
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindExternal:
		return "external"
	default:
		return "none"
	}
}

// Backend encapsulates the required capabilities of a playback engine.
// Implementations report progress and failures exclusively through the
// typed event sink they are constructed with; methods return an error
// only for the immediate, synchronous part of an operation.
type Backend interface {
	// Kind reports the backend class used for format routing.
	Kind() Kind

	// Load opens the given file and begins playback once ready.
	// A backend that already owns a session loads the new file into it.
	Load(path string) error

	// Play resumes playback.
	Play() error

	// Pause suspends playback.
	Pause() error

	// Toggle inverts the current playback suspension state.
	Toggle() error

	// Seek transitions playback to an absolute position in seconds.
	Seek(seconds float64) error

	// SeekBy shifts the playback position by a relative amount of seconds.
	SeekBy(delta float64) error

	// SetVolume applies a normalized volume in the range 0.0 to 1.0.
	SetVolume(volume float64) error

	// SetMuted suppresses or restores audio output.
	SetMuted(muted bool) error

	// SetSpeed applies a playback rate multiplier.
	SetSpeed(multiplier float64) error

	// Stop tears the session down and releases every associated resource.
	// It is idempotent and safe to call on a backend that never loaded.
	Stop() error
}

// Factory constructs a backend of the requested kind wired to an event sink.
type Factory func(kind Kind, emit func(Event)) Backend

// DefaultFactory builds the production backends.
func DefaultFactory(kind Kind, emit func(Event)) Backend {
	if kind == KindExternal {
		return NewMPV(emit)
	}
	return NewNative(emit)
}

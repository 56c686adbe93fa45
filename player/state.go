package player

// State is the unified observable playback state republished by the
// Controller regardless of which backend produced it.
type State struct {
	// Position is the current playback position in seconds,
	// monotonically updated while playing.
	Position float64

	// Duration is the total media length in seconds, fixed once loaded.
	Duration float64

	// Playing reports whether playback is currently running.
	Playing bool

	// Volume is normalized to 0.0-1.0 and translated per backend.
	Volume float64

	// Muted reports whether audio output is suppressed.
	Muted bool

	// Speed is the playback rate multiplier.
	Speed float64

	// Loaded reports whether a media file is initialized and active.
	Loaded bool

	// Err holds the last backend failure message; empty means none.
	// A successful load clears it.
	Err string

	// Backend tags which backend class currently owns playback.
	Backend Kind
}
